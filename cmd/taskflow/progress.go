package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Show a project's completion",
		Long: `Show a project's completion as done/total and percent.

The service's progress summary is used when it answers; otherwise progress
is derived from the project's task list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			p := a.ws.Progress(cmd.Context(), id)
			if a.revoked.Load() {
				return fmt.Errorf("progress of project %d: %w", id, errRevoked)
			}
			if a.jsonOut {
				return writeJSON(a.stdout, struct {
					ProjectID int64  `json:"projectId"`
					Total     int    `json:"total"`
					Done      int    `json:"done"`
					Pct       int    `json:"pct"`
					Status    string `json:"status"`
				}{id, p.Total, p.Done, p.Pct, string(p.Status())})
			}
			fmt.Fprintf(a.stdout, "%s %s\n", progressText(p), p.Status())
			return nil
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize every project",
		Long: `Summarize every project: how many are active, completed or empty,
and the combined progress of all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			ps := a.ws.Projects()
			if err := ps.Refresh(cmd.Context()); err != nil {
				return err
			}
			if a.revoked.Load() {
				return fmt.Errorf("dashboard: %w", errRevoked)
			}
			ps.View().SetQuery(query.Normalize(search))
			l := ps.Listing()

			if a.jsonOut {
				return writeJSON(a.stdout, struct {
					Counts map[query.ProjectFilter]int `json:"counts"`
					Totals progress.Progress           `json:"totals"`
				}{l.Counts, l.Totals})
			}
			fmt.Fprintf(a.stdout, "Projects  %s\n", countsLine(query.ProjectFilters, l.Counts))
			fmt.Fprintf(a.stdout, "Tasks     %s\n", progressText(l.Totals))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only count projects matching this text")
	return cmd
}
