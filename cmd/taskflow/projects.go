package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
)

// listFlags are the search, category and paging flags of list commands.
type listFlags struct {
	search   string
	filter   string
	page     int
	pageSize int
}

func (f *listFlags) bind(cmd *cobra.Command, filters string) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive text search")
	cmd.Flags().StringVar(&f.filter, "filter", "all", "category: "+filters)
	cmd.Flags().IntVar(&f.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "items per page, usually one of "+pageSizeChoices()+" (default query.page_size)")
}

// applyView sets the view after a refresh, which resets the page.
func applyView[F comparable](v *query.View[F], f listFlags, filter F) {
	if f.pageSize > 0 {
		v.SetPageSize(f.pageSize)
	}
	v.SetQuery(query.Normalize(f.search))
	v.SetFilter(filter)
	v.SetPage(f.page - 1)
}

func pageSizeChoices() string {
	sizes := make([]string, len(query.PageSizes))
	for i, n := range query.PageSizes {
		sizes[i] = strconv.Itoa(n)
	}
	return strings.Join(sizes, ", ")
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func optional(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

func newProjectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and manage projects",
		Long: `List and manage projects.

Examples:
  # Active projects matching "launch"
  taskflow projects list --filter active --search launch

  # A project's tasks and progress
  taskflow projects show 42

  # Create, rename and delete
  taskflow projects create --title "Q3 launch"
  taskflow projects rename 42 "Q3 launch v2"
  taskflow projects delete 42`,
	}
	cmd.AddCommand(
		newProjectsListCmd(a),
		newProjectsShowCmd(a),
		newProjectsCreateCmd(a),
		newProjectsRenameCmd(a),
		newProjectsDeleteCmd(a),
	)
	return cmd
}

type projectRow struct {
	model.Project
	Progress *progress.Progress `json:"progress,omitempty"`
	Status   string             `json:"status,omitempty"`
}

func newProjectsListCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			ps := a.ws.Projects()
			if err := ps.Refresh(cmd.Context()); err != nil {
				return err
			}
			applyView(ps.View(), f, query.ParseProjectFilter(f.filter))
			listing := ps.Listing()

			rows := make([]projectRow, len(listing.Page.Items))
			for i, p := range listing.Page.Items {
				rows[i] = projectRow{Project: p}
				if pr, ok := listing.Progress[p.ID]; ok {
					rows[i].Progress = &pr
					rows[i].Status = string(pr.Status())
				}
			}
			if a.jsonOut {
				return writeJSON(a.stdout, struct {
					pageJSON[projectRow]
					Counts map[query.ProjectFilter]int `json:"counts"`
				}{toPageJSON(query.Page[projectRow]{
					Items: rows, Index: listing.Page.Index, Size: listing.Page.Size,
					TotalPages: listing.Page.TotalPages, Total: listing.Page.Total,
				}), listing.Counts})
			}

			tw := newTable(a.stdout, "ID", "TITLE", "STATUS", "PROGRESS")
			for _, r := range rows {
				status, text := "-", "-"
				if r.Progress != nil {
					status, text = r.Status, progressText(*r.Progress)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Title, status, text)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			pageFooter(a.stdout, listing.Page, "projects")
			fmt.Fprintln(a.stdout, countsLine(query.ProjectFilters, listing.Counts))
			return nil
		},
	}
	f.bind(cmd, "all, active, completed, empty")
	return cmd
}

func newProjectsShowCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			board := a.ws.Board(id)
			if err := board.Refresh(cmd.Context()); err != nil {
				return err
			}
			applyView(board.View(), f, query.ParseTaskFilter(f.filter))
			return a.printBoard(board.Listing())
		},
	}
	f.bind(cmd, "all, todo, today, upcoming, done, overdue")
	return cmd
}

func newProjectsCreateCmd(a *app) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			in := model.ProjectInput{Title: title, Description: optional(cmd, "description", description)}
			if err := in.Validate(); err != nil {
				return err
			}
			created, err := a.ws.Projects().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printProject(created, "Created")
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "project title (required)")
	cmd.Flags().StringVar(&description, "description", "", "project description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newProjectsRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			ps := a.ws.Projects()
			if err := ps.Refresh(cmd.Context()); err != nil {
				return err
			}
			renamed, err := ps.Rename(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return a.reportedErr(err)
			}
			return a.printProject(renamed, "Renamed")
		},
	}
}

func newProjectsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "project")
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			ps := a.ws.Projects()
			if err := ps.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := ps.Delete(cmd.Context(), id); err != nil {
				return a.reportedErr(err)
			}
			fmt.Fprintf(a.stdout, "Deleted project %d\n", id)
			return nil
		},
	}
}

func (a *app) printProject(p model.Project, verb string) error {
	if a.jsonOut {
		return writeJSON(a.stdout, p)
	}
	fmt.Fprintf(a.stdout, "%s project %d: %s\n", verb, p.ID, p.Title)
	return nil
}
