package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func newLoginCmd(e *env) *cobra.Command {
	var input models.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the identity service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if input.Password == "" {
				pw, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				input.Password = pw
			}
			if err := a.auth.Login(cmd.Context(), input); err != nil {
				return err
			}
			a.log.Debug("signed in", zap.String("email", input.Email))
			success(a.out, "Signed in as %s", a.auth.User().Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.Email, "email", "e", "", "account email (required)")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "password, prompted for when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var input models.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if input.Password == "" {
				pw, err := readSecret(cmd, "Password: ")
				if err != nil {
					return err
				}
				input.Password = pw
				if input.ConfirmPassword == "" {
					if input.ConfirmPassword, err = readSecret(cmd, "Confirm password: "); err != nil {
						return err
					}
				}
			}
			if input.ConfirmPassword == "" {
				input.ConfirmPassword = input.Password
			}
			if err := a.auth.Register(cmd.Context(), input); err != nil {
				if errors.Is(err, models.ErrEmailTaken) {
					return fmt.Errorf("%s is already registered, try `kanban login`", input.Email)
				}
				return err
			}
			user := a.auth.User()
			success(a.out, "Welcome, %s! You are signed in as %s", user.DisplayName, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.Email, "email", "e", "", "account email (required)")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "password, prompted for when omitted")
	cmd.Flags().StringVar(&input.ConfirmPassword, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVarP(&input.DisplayName, "name", "n", "", "display name (defaults to the email's local part)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if !a.auth.IsAuthenticated() {
				fmt.Fprintln(a.out, mutedStyle.Render("Not signed in."))
				return nil
			}
			// The local session is gone even when the service call fails.
			if err := a.auth.Logout(cmd.Context()); err != nil {
				a.log.Warn("remote logout failed", zap.Error(err))
			}
			success(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if err := a.requireLogin(); err != nil {
				return err
			}
			if !offline {
				if err := a.auth.Refresh(cmd.Context()); err != nil {
					a.log.Warn("could not reach identity service", zap.Error(err))
				}
				if !a.auth.IsAuthenticated() {
					return errors.New("session expired, run `kanban login` again")
				}
			}
			user := a.auth.User()
			fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render(user.DisplayName), mutedStyle.Render("<"+user.Email+">"))
			fmt.Fprintln(a.out, mutedStyle.Render(user.ID.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "only show the locally stored user")
	return cmd
}

// readSecret prompts without echo on a terminal and reads a plain line
// otherwise.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	// Unbuffered so that a second prompt still sees the next line.
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
	}
	return strings.TrimRight(string(line), "\r"), nil
}
