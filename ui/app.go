// Package ui is the interactive terminal client. It has two views, login
// and editor, and the router decides which one is showing.
package ui

import (
	"context"
	"errors"

	"aidoc/internal/bootstrap"
	docService "aidoc/internal/document/service"
	"aidoc/pkg/logger"
	"aidoc/router"

	tea "github.com/charmbracelet/bubbletea"
)

const sessionExpired = "Your session has ended. Please log in again."

// App is the root bubbletea model.
type App struct {
	ctx    context.Context
	c      *bootstrap.Container
	route  router.Route
	styles Styles

	login  loginView
	editor editorView

	width, height int
}

// New builds the app and resolves the starting view.
func New(ctx context.Context, c *bootstrap.Container) *App {
	a := &App{ctx: ctx, c: c, styles: DefaultStyles()}
	a.login = newLoginView(a)
	a.editor = newEditorView(a)
	a.route = router.Resolve(ctx, router.Root, c.Session)
	return a
}

// Route reports the view on screen.
func (a *App) Route() router.Route { return a.route }

func (a *App) Init() tea.Cmd {
	return a.enter(a.route)
}

// enter switches to route and returns whatever it needs to start.
func (a *App) enter(route router.Route) tea.Cmd {
	a.route = router.Resolve(a.ctx, route, a.c.Session)
	logger.Sugar.Debugf("View: %s", a.route)
	switch a.route {
	case router.Editor:
		return a.editor.open()
	default:
		return a.login.open()
	}
}

// fail handles an error from any flow. Authorization failures drop the
// workspace and go back to login; it reports whether that happened.
func (a *App) fail(err error) (tea.Cmd, bool) {
	if router.AfterError(a.route, err) != router.Login {
		return nil, false
	}
	a.c.Docs.Reset()
	a.editor.clear()
	cmd := a.enter(router.Login)
	a.login.setError(sessionExpired)
	return cmd, true
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.editor.resize(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	case loggedInMsg:
		if msg.err == nil {
			return a, a.enter(router.Editor)
		}
	case loggedOutMsg:
		a.editor.clear()
		cmd := a.enter(router.Login)
		if msg.err != nil {
			a.login.setError(msg.err.Error())
		}
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.route {
	case router.Editor:
		cmd = a.editor.update(msg)
	default:
		cmd = a.login.update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if a.route == router.Editor {
		return a.editor.view()
	}
	return a.login.view()
}

// Run starts the program on the terminal and blocks until it exits.
func Run(ctx context.Context, c *bootstrap.Container) error {
	p := tea.NewProgram(New(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// isQuiet reports errors the views do not show.
func isQuiet(err error) bool {
	return errors.Is(err, docService.ErrStale) || errors.Is(err, context.Canceled)
}
