package ui

import (
	"fmt"
	"strings"

	"aidoc/internal/document/model"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type (
	docsLoadedMsg struct{ err error }
	createdMsg    struct {
		doc *model.Document
		err error
	}
	selectedMsg  struct{ err error }
	deletedMsg   struct{ err error }
	savedMsg     struct{ err error }
	assistedMsg  struct{ err error }
	loggedOutMsg struct{ err error }
)

type pane int

const (
	paneList pane = iota
	paneTitle
	paneBuffer
	panePrompt
	paneCount
)

type editorView struct {
	app *App

	cursor int
	focus  pane
	title  textinput.Model
	buffer textarea.Model
	prompt textinput.Model

	// confirming holds the document awaiting a y/n delete answer.
	confirming *model.Document
	busy       string
	status     string
	statusErr  bool
	assistErr  string
}

func newEditorView(app *App) editorView {
	ta := textarea.New()
	ta.Placeholder = "Select or create a document to start writing."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetWidth(72)
	ta.SetHeight(16)

	return editorView{
		app:    app,
		title:  newInput("New document title"),
		buffer: ta,
		prompt: newInput("Ask the assistant, e.g. \"Summarize this\""),
	}
}

func (v *editorView) open() tea.Cmd {
	v.setFocus(paneList)
	return v.run("Loading documents", func() tea.Msg {
		_, err := v.app.c.Docs.Load(v.app.ctx)
		return docsLoadedMsg{err: err}
	})
}

// clear empties every view-side copy of the workspace.
func (v *editorView) clear() {
	v.cursor = 0
	v.confirming = nil
	v.busy, v.status, v.assistErr = "", "", ""
	v.title.SetValue("")
	v.buffer.SetValue("")
	v.prompt.SetValue("")
}

func (v *editorView) resize(width, height int) {
	w := width - 36
	if w < 30 {
		w = 30
	}
	h := height - 12
	if h < 5 {
		h = 5
	}
	v.buffer.SetWidth(w)
	v.buffer.SetHeight(h)
}

func (v *editorView) setFocus(p pane) tea.Cmd {
	v.focus = p
	v.title.Blur()
	v.buffer.Blur()
	v.prompt.Blur()
	switch p {
	case paneTitle:
		return v.title.Focus()
	case paneBuffer:
		return v.buffer.Focus()
	case panePrompt:
		return v.prompt.Focus()
	}
	return nil
}

// run marks the view busy and runs fn off the update loop.
func (v *editorView) run(label string, fn func() tea.Msg) tea.Cmd {
	v.busy = label
	return fn
}

func (v *editorView) setStatus(msg string, isErr bool) {
	v.status, v.statusErr = msg, isErr
}

// failed routes err to the app first; if it did not navigate the error is
// shown on the status line.
func (v *editorView) failed(err error) tea.Cmd {
	if cmd, navigated := v.app.fail(err); navigated {
		return cmd
	}
	if !isQuiet(err) {
		v.setStatus(err.Error(), true)
	}
	return nil
}

func (v *editorView) update(msg tea.Msg) tea.Cmd {
	docs := v.app.c.Docs
	switch msg := msg.(type) {
	case docsLoadedMsg:
		v.busy = ""
		if msg.err != nil {
			return v.failed(msg.err)
		}
		if n := len(docs.Documents()); v.cursor >= n {
			v.cursor = max(n-1, 0)
		}
		return nil

	case createdMsg:
		v.busy = ""
		if msg.err != nil {
			return v.failed(msg.err)
		}
		v.title.SetValue("")
		v.buffer.SetValue(docs.Buffer())
		v.cursor = len(docs.Documents()) - 1
		v.setStatus(fmt.Sprintf("Created %q", msg.doc.Title), false)
		return v.setFocus(paneBuffer)

	case selectedMsg:
		v.busy = ""
		if msg.err != nil {
			return v.failed(msg.err)
		}
		v.buffer.SetValue(docs.Buffer())
		v.assistErr = ""
		v.status = ""
		return v.setFocus(paneBuffer)

	case deletedMsg:
		v.busy = ""
		if msg.err != nil {
			return v.failed(msg.err)
		}
		if _, ok := docs.Selected(); !ok {
			v.buffer.SetValue("")
		}
		if n := len(docs.Documents()); v.cursor >= n {
			v.cursor = max(n-1, 0)
		}
		v.setStatus("Document deleted", false)
		return nil

	case savedMsg:
		v.busy = ""
		if msg.err != nil {
			return v.failed(msg.err)
		}
		v.setStatus("Saved", false)
		return nil

	case assistedMsg:
		v.busy = ""
		if msg.err != nil {
			if cmd, navigated := v.app.fail(msg.err); navigated {
				return cmd
			}
			if !isQuiet(msg.err) {
				v.assistErr = msg.err.Error()
			}
			return nil
		}
		v.assistErr = ""
		v.buffer.SetValue(docs.Buffer())
		v.prompt.SetValue("")
		return nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return nil
}

func (v *editorView) handleKey(msg tea.KeyMsg) tea.Cmd {
	docs, ctx := v.app.c.Docs, v.app.ctx

	if v.confirming != nil {
		doc := *v.confirming
		v.confirming = nil
		switch msg.String() {
		case "y", "Y":
			return v.run("Deleting", func() tea.Msg {
				return deletedMsg{err: docs.Delete(ctx, doc.ID, func(model.Document) bool { return true })}
			})
		}
		v.setStatus("Nothing deleted", false)
		return nil
	}

	switch msg.Type {
	case tea.KeyTab:
		return v.setFocus((v.focus + 1) % paneCount)
	case tea.KeyShiftTab:
		return v.setFocus((v.focus + paneCount - 1) % paneCount)
	case tea.KeyCtrlS:
		return v.run("Saving", func() tea.Msg {
			return savedMsg{err: docs.Save(ctx)}
		})
	case tea.KeyCtrlL:
		auth := v.app.c.Auth
		return func() tea.Msg {
			return loggedOutMsg{err: auth.Logout(ctx)}
		}
	case tea.KeyEsc:
		if v.focus != paneList {
			return v.setFocus(paneList)
		}
		return tea.Quit
	}

	switch v.focus {
	case paneList:
		return v.listKey(msg)
	case paneTitle:
		if msg.Type == tea.KeyEnter {
			title := v.title.Value()
			return v.run("Creating", func() tea.Msg {
				doc, err := docs.Create(ctx, title)
				return createdMsg{doc: doc, err: err}
			})
		}
		var cmd tea.Cmd
		v.title, cmd = v.title.Update(msg)
		return cmd
	case panePrompt:
		if msg.Type == tea.KeyEnter {
			docs.SetPrompt(v.prompt.Value())
			v.assistErr = ""
			return v.run("Generating", func() tea.Msg {
				_, err := docs.Assist(ctx)
				return assistedMsg{err: err}
			})
		}
		var cmd tea.Cmd
		v.prompt, cmd = v.prompt.Update(msg)
		docs.SetPrompt(v.prompt.Value())
		return cmd
	default:
		var cmd tea.Cmd
		v.buffer, cmd = v.buffer.Update(msg)
		docs.SetBuffer(v.buffer.Value())
		return cmd
	}
}

func (v *editorView) listKey(msg tea.KeyMsg) tea.Cmd {
	docs, ctx := v.app.c.Docs, v.app.ctx
	list := docs.Documents()

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(list)-1 {
			v.cursor++
		}
	case "r":
		return v.open()
	case "n":
		return v.setFocus(paneTitle)
	case "enter":
		if len(list) == 0 {
			return nil
		}
		id := list[v.cursor].ID
		return v.run("Opening", func() tea.Msg {
			return selectedMsg{err: docs.Select(ctx, id)}
		})
	case "d", "delete":
		if len(list) == 0 {
			return nil
		}
		doc := list[v.cursor]
		v.confirming = &doc
	}
	return nil
}

func (v *editorView) view() string {
	s := v.app.styles
	docs := v.app.c.Docs
	list := docs.Documents()
	selected, hasSelection := docs.Selected()

	paneStyle := func(p pane) lipgloss.Style {
		if v.focus == p {
			return s.Focused
		}
		return s.Pane
	}

	var side strings.Builder
	side.WriteString(s.Label.Render("Documents") + "\n")
	if len(list) == 0 {
		side.WriteString(s.Help.Render("No documents yet") + "\n")
	}
	for i, d := range list {
		line := d.Title
		if t, ok := d.Updated(); ok {
			line += s.Help.Render(" " + t.Local().Format("Jan 2"))
		}
		switch {
		case hasSelection && d.ID == selected.ID:
			line = s.Selected.Render("● ") + line
		default:
			line = "  " + line
		}
		if i == v.cursor && v.focus == paneList {
			line = s.Cursor.Render("›") + line
		} else {
			line = " " + line
		}
		side.WriteString(line + "\n")
	}
	side.WriteString("\n" + s.Label.Render("New") + "\n" + v.title.View())
	leftStyle := paneStyle(paneList)
	if v.focus == paneTitle {
		leftStyle = s.Focused
	}
	left := leftStyle.Width(30).Render(side.String())

	heading := "No document selected"
	if hasSelection {
		heading = selected.Title
		if heading == "" {
			heading = fmt.Sprintf("Document %d", selected.ID)
		}
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		s.Label.Render(heading),
		paneStyle(paneBuffer).Render(v.buffer.View()),
		s.Label.Render("AI Assistant"),
		paneStyle(panePrompt).Render(v.prompt.View()),
	)
	if v.assistErr != "" {
		main = lipgloss.JoinVertical(lipgloss.Left, main, s.Error.Render(v.assistErr))
	}

	var footer string
	switch {
	case v.confirming != nil:
		footer = s.Warning.Render(fmt.Sprintf("Delete %q? (y/n)", v.confirming.Title))
	case v.busy != "":
		footer = s.Help.Render(v.busy + "...")
	case v.status != "" && v.statusErr:
		footer = s.Error.Render(v.status)
	case v.status != "":
		footer = s.Success.Render(v.status)
	}

	help := s.Help.Render("tab: switch pane · enter: open/create/ask · n: new · d: delete · r: refresh · ctrl+s: save · ctrl+l: logout · esc: back/quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("AI Document Editor"),
		lipgloss.JoinHorizontal(lipgloss.Top, left, " ", main),
		footer,
		help,
	)
}
