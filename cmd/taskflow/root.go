package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskflow/internal/api"
	"github.com/fyrsmithlabs/taskflow/internal/session"
)

const (
	expiredMessage   = `session expired; run "taskflow login"`
	signedOutMessage = `not logged in; run "taskflow login"`
)

var (
	// errReported marks an error the mutation reporter already printed.
	errReported = errors.New("reported")
	// errRevoked stops commands whose calls degraded after a 401.
	errRevoked = errors.New("session revoked")
)

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}

	switch {
	case a.revoked.Load():
		fmt.Fprintln(stderr, expiredMessage)
	case errors.Is(err, session.ErrNoCredential):
		fmt.Fprintln(stderr, signedOutMessage)
	case errors.Is(err, errReported):
	default:
		fmt.Fprintln(stderr, "error:", describe(err))
	}
	return 1
}

// describe prefers the service's message for remote failures.
func describe(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.UserMessage(err)
	}
	return err.Error()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskflow",
		Short: "Manage taskflow projects and tasks",
		Long: `taskflow is a command-line client for the taskflow projects service.

It keeps your session in ~/.config/taskflow/session.toml and reads settings
from ~/.config/taskflow/config.yaml and TASKFLOW_* environment variables.

Examples:
  # Sign in
  taskflow login --email ada@example.com

  # Overview of every project
  taskflow dashboard

  # Overdue tasks across all projects
  taskflow tasks list --filter overdue`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/taskflow/config.yaml)")
	flags.StringVar(&a.server, "server", "", "service API root, overrides api.base_url")
	flags.BoolVar(&a.jsonOut, "json", false, "output results as JSON")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProjectsCmd(a),
		newTasksCmd(a),
		newProgressCmd(a),
		newDashboardCmd(a),
	)
	return root
}
