package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"aidoc/internal/api"
	"aidoc/router"

	"github.com/fatih/color"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed, color.Bold)
	hintColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func printOK(w io.Writer, format string, a ...any) {
	okColor.Fprintf(w, format+"\n", a...)
}

func printError(w io.Writer, err error) {
	errColor.Fprintf(w, "Error: %s\n", err.Error())
	if router.AfterError(router.Editor, err) == router.Login {
		hintColor.Fprintln(w, "Run `aidoc login` to sign in.")
	}
}

// errNotLoggedIn is what the route guard produces for a CLI command.
var errNotLoggedIn = &api.RequestError{Kind: api.KindAuth, Message: "Please log in to continue", Err: api.ErrNoToken}

// readLine reads one line from r without its line ending.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt writes label to w and reads an answer from r.
func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	return readLine(r)
}
