package ui

import (
	"strings"

	"aidoc/internal/auth/model"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loggedInMsg struct{ err error }

type registeredMsg struct {
	message string
	err     error
}

type loginView struct {
	app      *App
	email    textinput.Model
	password textinput.Model
	focus    int
	// registering switches the form between login and register.
	registering bool
	pending     bool
	message     string
	isError     bool
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newLoginView(app *App) loginView {
	pw := newInput("password")
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	return loginView{
		app:      app,
		email:    newInput("you@example.com"),
		password: pw,
	}
}

func (v *loginView) open() tea.Cmd {
	v.pending = false
	v.password.SetValue("")
	v.focus = 0
	v.password.Blur()
	return v.email.Focus()
}

func (v *loginView) setError(msg string) {
	v.message, v.isError = msg, true
}

func (v *loginView) setInfo(msg string) {
	v.message, v.isError = msg, false
}

func (v *loginView) toggleFocus() tea.Cmd {
	v.focus = 1 - v.focus
	if v.focus == 0 {
		v.password.Blur()
		return v.email.Focus()
	}
	v.email.Blur()
	return v.password.Focus()
}

func (v *loginView) submit() tea.Cmd {
	if v.pending {
		return nil
	}
	creds := model.Credentials{Email: strings.TrimSpace(v.email.Value()), Password: v.password.Value()}
	v.pending = true
	v.message = ""
	auth, ctx := v.app.c.Auth, v.app.ctx
	if v.registering {
		return func() tea.Msg {
			msg, err := auth.Register(ctx, creds)
			return registeredMsg{message: msg, err: err}
		}
	}
	return func() tea.Msg {
		return loggedInMsg{err: auth.Login(ctx, creds)}
	}
}

func (v *loginView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loggedInMsg:
		v.pending = false
		if msg.err != nil {
			v.setError(msg.err.Error())
		}
		return nil
	case registeredMsg:
		v.pending = false
		if msg.err != nil {
			v.setError(msg.err.Error())
			return nil
		}
		// Back to the login form with the email kept.
		v.registering = false
		v.password.SetValue("")
		v.setInfo(msg.message)
		return nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			return v.submit()
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			return v.toggleFocus()
		case tea.KeyCtrlR:
			v.registering = !v.registering
			v.message = ""
			return nil
		case tea.KeyEsc:
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (v *loginView) view() string {
	s := v.app.styles
	title, action, other := "Log in", "log in", "create an account"
	if v.registering {
		title, action, other = "Create an account", "register", "log in instead"
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("AI Document Editor · " + title))
	b.WriteString("\n")
	b.WriteString(s.Label.Render("Email") + "\n" + v.email.View() + "\n\n")
	b.WriteString(s.Label.Render("Password") + "\n" + v.password.View() + "\n\n")

	switch {
	case v.pending:
		b.WriteString(s.Help.Render("Working...") + "\n")
	case v.message != "" && v.isError:
		b.WriteString(s.Error.Render(v.message) + "\n")
	case v.message != "":
		b.WriteString(s.Success.Render(v.message) + "\n")
	}

	b.WriteString("\n" + s.Help.Render("enter: "+action+" · tab: next field · ctrl+r: "+other+" · esc: quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
