package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskflow/internal/session"
)

type credentialFlags struct {
	email    string
	password string
	fullName string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("email")
}

// readPassword takes the flag, else the first line of stdin.
func (a *app) readPassword(f *credentialFlags) (string, error) {
	if f.password != "" {
		return f.password, nil
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("reading password from stdin: %w", err)
		}
		return "", fmt.Errorf("password is required")
	}
	return line, nil
}

func newLoginCmd(a *app) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in and store the session token for later commands.

Examples:
  taskflow login --email ada@example.com
  echo "$PASSWORD" | taskflow login --email ada@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readPassword(&f)
			if err != nil {
				return err
			}
			res, err := a.client.Login(cmd.Context(), f.email, password)
			if err != nil {
				return err
			}
			return a.establish(cmd, res)
		},
	}
	f.bind(cmd)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := a.readPassword(&f)
			if err != nil {
				return err
			}
			res, err := a.client.Register(cmd.Context(), f.email, password, f.fullName)
			if err != nil {
				return err
			}
			return a.establish(cmd, res)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.fullName, "name", "", "full name")
	return cmd
}

func (a *app) establish(cmd *cobra.Command, res session.AuthResult) error {
	if err := a.gate.Establish(cmd.Context(), res.Token, res.Profile); err != nil {
		return err
	}
	if a.jsonOut {
		return writeJSON(a.stdout, res.Profile)
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", displayName(res.Profile))
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.gate.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, ok := a.gate.Profile()
			if !ok {
				return session.ErrNoCredential
			}
			if a.jsonOut {
				return writeJSON(a.stdout, profile)
			}
			fmt.Fprintln(a.stdout, displayName(profile))
			return nil
		},
	}
}

func displayName(p session.Profile) string {
	if p.FullName == "" {
		return p.Email
	}
	return fmt.Sprintf("%s <%s>", p.FullName, p.Email)
}
