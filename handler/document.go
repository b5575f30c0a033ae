package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"aidoc/internal/document/model"
	"aidoc/internal/document/service"
	"aidoc/router"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newDocsCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Manage documents",
		// Same guard as the editor view.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			if router.Resolve(cmd.Context(), router.Editor, app.c.Session) != router.Editor {
				return errNotLoggedIn
			}
			return nil
		},
	}
	cmd.AddCommand(
		newDocsListCommand(app),
		newDocsCreateCommand(app),
		newDocsShowCommand(app),
		newDocsSaveCommand(app),
		newDocsDeleteCommand(app),
		newDocsAssistCommand(app),
	)
	return cmd
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id %q", arg)
	}
	return id, nil
}

func newDocsListCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := app.c.Docs.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				dimColor.Fprintln(out, "No documents yet. Create one with `aidoc docs create <title>`.")
				return nil
			}
			printDocuments(out, docs)
			return nil
		},
	}
}

func printDocuments(w io.Writer, docs []model.Document) {
	fmt.Fprintf(w, "%-6s %-40s %s\n", "ID", "Title", "Updated")
	for _, d := range docs {
		updated := d.UpdatedAt
		if t, ok := d.Updated(); ok {
			updated = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-6d %-40s %s\n", d.ID, truncate(d.Title, 40), updated)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func newDocsCreateCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create an empty document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.c.Docs.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Created document %d: %s", doc.ID, doc.Title)
			return nil
		},
	}
}

func newDocsShowCommand(app *cli) *cobra.Command {
	var render bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a document's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.c.Docs.Select(cmd.Context(), id); err != nil {
				return err
			}
			content := app.c.Docs.Buffer()
			if render {
				content, err = renderMarkdown(content, 80)
				if err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&render, "render", "r", false, "render the content as markdown")
	return cmd
}

func renderMarkdown(content string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func newDocsSaveCommand(app *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <id>",
		Short: "Replace a document's content with a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var content []byte
			if file != "" {
				content, err = os.ReadFile(file)
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}

			ctx := cmd.Context()
			if err := app.c.Docs.Select(ctx, id); err != nil {
				return err
			}
			app.c.Docs.SetBuffer(string(content))
			if err := app.c.Docs.Save(ctx); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Saved document %d (%d bytes)", id, len(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from this file instead of stdin")
	return cmd
}

func newDocsDeleteCommand(app *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			// Load first so the confirmation can name the document.
			if _, err := app.c.Docs.Load(ctx); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			confirm := func(doc model.Document) bool {
				if yes {
					return true
				}
				name := doc.Title
				if name == "" {
					name = fmt.Sprintf("document %d", doc.ID)
				}
				answer, err := prompt(cmd.ErrOrStderr(), in, fmt.Sprintf("Delete %q? [y/N] ", name))
				if err != nil {
					return false
				}
				answer = strings.ToLower(strings.TrimSpace(answer))
				return answer == "y" || answer == "yes"
			}

			err = app.c.Docs.Delete(ctx, id, confirm)
			if errors.Is(err, service.ErrCancelled) {
				dimColor.Fprintln(cmd.OutOrStdout(), "Nothing deleted.")
				return nil
			}
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Deleted document %d", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func newDocsAssistCommand(app *cli) *cobra.Command {
	var (
		userPrompt string
		save       bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "assist <id>",
		Short: "Generate text for a document with the AI assistant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if err := app.c.Docs.Select(ctx, id); err != nil {
				return err
			}
			app.c.Docs.SetPrompt(userPrompt)
			generated, err := app.c.Docs.Assist(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), generated)

			if !save {
				return nil
			}
			if err := app.c.Docs.Save(ctx); err != nil {
				return err
			}
			printOK(cmd.ErrOrStderr(), "Appended to document %d", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userPrompt, "prompt", "p", "", "instruction for the assistant")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "append the generated text to the document and save it")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
