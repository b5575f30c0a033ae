package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aidoc/config"
	"aidoc/internal/auth/service"
	"aidoc/internal/bootstrap"
	"aidoc/internal/fakeapi"
	"aidoc/internal/session"
	"aidoc/store"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "ada@example.com"

type harness struct {
	srv     *fakeapi.Server
	st      *store.MemoryStore
	tuiRuns int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New(t, "/api")
	t.Setenv("AIDOC_API_URL", srv.URL)
	t.Setenv("AIDOC_API_PREFIX", "/api")
	t.Setenv("AIDOC_CONFIG", "")
	t.Setenv("AIDOC_LOG_FILE", filepath.Join(t.TempDir(), "aidoc.log"))
	color.NoColor = true
	return &harness{srv: srv, st: store.NewMemoryStore()}
}

func (h *harness) loginAs(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, h.st.Set(context.Background(), session.TokenKey, h.srv.IssueToken(email)))
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	tok, _, err := h.st.Get(context.Background(), session.TokenKey)
	require.NoError(t, err)
	return tok
}

// run executes one CLI invocation against the fake backend.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	app := &cli{
		open: func(cfg *config.Config) (*bootstrap.Container, error) {
			return bootstrap.NewContainer(cfg, h.st, nil), nil
		},
		runTUI: func(context.Context, *bootstrap.Container) error {
			h.tuiRuns++
			return nil
		},
	}
	cmd := newRootCommand(app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		reportError(&stderr, err)
	}
	return stdout.String(), stderr.String(), err
}

func TestNoSubcommandOpensEditor(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "")
	require.NoError(t, err)
	_, _, err = h.run(t, "", "edit")
	require.NoError(t, err)
	assert.Equal(t, 2, h.tuiRuns)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(owner, "hunter2")

	out, _, err := h.run(t, "", "login", "--email", owner, "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+owner)
	assert.NotEmpty(t, h.token(t))
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(owner, "hunter2")

	_, stderr, err := h.run(t, "hunter2\n", "login", "-e", owner)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Password: ")
	assert.NotEmpty(t, h.token(t))
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(owner, "hunter2")

	_, stderr, err := h.run(t, "", "login", "-e", owner, "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error: Incorrect username or password")
	assert.Empty(t, h.token(t))
}

func TestLoginValidatesLocally(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "", "login", "-e", "not-an-email", "-p", "x")
	require.Error(t, err)
	assert.Contains(t, stderr, "email must be a valid email address")
	assert.Zero(t, h.srv.TotalCalls())
}

func TestRegisterDoesNotLogIn(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "register", "-e", owner, "-p", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, service.RegisteredMessage)
	assert.Empty(t, h.token(t))

	_, stderr, err := h.run(t, "", "register", "-e", owner, "-p", "hunter2")
	require.Error(t, err)
	assert.Contains(t, stderr, "Email already registered")
}

func TestLogoutAndWhoami(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)

	out, _, err := h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+owner)
	assert.Contains(t, out, "Token expires at")

	_, _, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Empty(t, h.token(t))

	_, stderr, err := h.run(t, "", "whoami")
	require.Error(t, err)
	assert.Contains(t, stderr, "aidoc login")
}

func TestDocsRequireLogin(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "", "docs", "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "Please log in to continue")
	assert.Contains(t, stderr, "Run `aidoc login` to sign in.")
	assert.Zero(t, h.srv.TotalCalls())
}

func TestDocsCreateAndList(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)

	out, _, err := h.run(t, "", "docs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents yet")

	out, _, err = h.run(t, "", "docs", "create", "Meeting", "notes")
	require.NoError(t, err)
	assert.Contains(t, out, "Created document 1: Meeting notes")

	out, _, err = h.run(t, "", "docs", "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Meeting notes")
}

func TestDocsCreateBlankTitle(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)

	_, stderr, err := h.run(t, "", "docs", "create", "  ")
	require.Error(t, err)
	assert.Contains(t, stderr, "document title is required")
	assert.Zero(t, h.srv.Calls(fakeapi.RouteCreate))
}

func TestDocsSaveAndShow(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	doc := h.srv.AddDocument(owner, "Notes", "")

	_, _, err := h.run(t, "# Heading\n\nBody text", "docs", "save", "1")
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nBody text", h.srv.Content(doc.ID))

	path := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("from a file"), 0o600))
	_, _, err = h.run(t, "", "docs", "save", "1", "--file", path)
	require.NoError(t, err)

	out, _, err := h.run(t, "", "docs", "show", "1")
	require.NoError(t, err)
	assert.Equal(t, "from a file\n", out)
}

func TestDocsShowRendersMarkdown(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	h.srv.AddDocument(owner, "Notes", "# Heading\n\n* one\n* two")

	out, _, err := h.run(t, "", "docs", "show", "1", "--render")
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "two")
}

func TestDocsShowNotFound(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)

	_, stderr, err := h.run(t, "", "docs", "show", "42")
	require.Error(t, err)
	assert.Contains(t, stderr, "Document not found")

	_, stderr, err = h.run(t, "", "docs", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, stderr, `invalid document id "abc"`)
}

func TestDocsDeleteAsks(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	h.srv.AddDocument(owner, "Notes", "")

	out, stderr, err := h.run(t, "n\n", "docs", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, `Delete "Notes"? [y/N]`)
	assert.Contains(t, out, "Nothing deleted.")
	assert.Zero(t, h.srv.Calls(fakeapi.RouteDelete))

	out, _, err = h.run(t, "y\n", "docs", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document 1")
	assert.Empty(t, h.srv.Documents())
}

func TestDocsDeleteYes(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	h.srv.AddDocument(owner, "Notes", "")

	_, stderr, err := h.run(t, "", "docs", "rm", "1", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "[y/N]")
	assert.Equal(t, 1, h.srv.Calls(fakeapi.RouteDelete))
}

func TestDocsAssist(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	doc := h.srv.AddDocument(owner, "Notes", "Hello world")
	h.srv.SetAssistReply("A short greeting.")

	out, _, err := h.run(t, "", "docs", "assist", "1", "--prompt", "Summarize")
	require.NoError(t, err)
	assert.Equal(t, "A short greeting.\n", out)
	assert.Equal(t, "Hello world", h.srv.Content(doc.ID))
	assert.Equal(t, fakeapi.AssistRequest{CurrentText: "Hello world", UserPrompt: "Summarize"}, h.srv.LastAssist())

	_, _, err = h.run(t, "", "docs", "assist", "1", "-p", "Summarize", "--save")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n\nA short greeting.", h.srv.Content(doc.ID))
}

func TestDocsAssistRequiresPrompt(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	h.srv.AddDocument(owner, "Notes", "")

	_, _, err := h.run(t, "", "docs", "assist", "1")
	require.Error(t, err)

	_, stderr, err := h.run(t, "", "docs", "assist", "1", "-p", "   ")
	require.Error(t, err)
	assert.Contains(t, stderr, "prompt is required")
	assert.Zero(t, h.srv.Calls(fakeapi.RouteAssist))
}

func TestRevokedTokenIsCleared(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, owner)
	h.srv.RevokeAll()

	_, stderr, err := h.run(t, "", "docs", "list")
	require.Error(t, err)
	assert.Contains(t, stderr, "Could not validate credentials")
	assert.Contains(t, stderr, "aidoc login")
	assert.Empty(t, h.token(t))
}
