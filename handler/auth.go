package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"aidoc/internal/auth/model"
	"aidoc/internal/session"

	"github.com/spf13/cobra"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "account password (read from stdin when omitted)")
}

// credentials fills in anything missing from the flags by asking on stdin.
func (f *credentialFlags) credentials(cmd *cobra.Command) (model.Credentials, error) {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()
	creds := model.Credentials{Email: f.email, Password: f.password}
	var err error
	if creds.Email == "" {
		if creds.Email, err = prompt(out, in, "Email: "); err != nil {
			return creds, fmt.Errorf("read email: %w", err)
		}
	}
	if creds.Password == "" {
		if creds.Password, err = prompt(out, in, "Password: "); err != nil {
			return creds, fmt.Errorf("read password: %w", err)
		}
	}
	return creds, nil
}

func newLoginCommand(app *cli) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := flags.credentials(cmd)
			if err != nil {
				return err
			}
			if err := app.c.Auth.Login(cmd.Context(), creds); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Logged in as %s", creds.Email)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newRegisterCommand(app *cli) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := flags.credentials(cmd)
			if err != nil {
				return err
			}
			msg, err := app.c.Auth.Register(cmd.Context(), creds)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "%s", msg)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func newLogoutCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.c.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := app.c.Session.Claims(cmd.Context())
			if errors.Is(err, session.ErrNotLoggedIn) {
				return errNotLoggedIn
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			subject := claims.Subject
			if subject == "" {
				subject = "(unknown)"
			}
			fmt.Fprintf(out, "Logged in as %s\n", subject)
			switch {
			case claims.ExpiresAt.IsZero():
			case claims.Expired(time.Now()):
				hintColor.Fprintf(out, "Token expired at %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
			default:
				dimColor.Fprintf(out, "Token expires at %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}
