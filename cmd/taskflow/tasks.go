package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/progress"
	"github.com/fyrsmithlabs/taskflow/internal/query"
	"github.com/fyrsmithlabs/taskflow/internal/workspace"
)

const taskFilters = "all, todo, today, upcoming, done, overdue"

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and manage tasks",
		Long: `List and manage tasks.

Without --project, list shows tasks across every project.

Examples:
  # Everything due today
  taskflow tasks list --filter today

  # Add a task due next week
  taskflow tasks add --project 42 --title "Write release notes" --due 2026-03-17

  # Mark task 7 of project 42 done (or not done)
  taskflow tasks toggle --project 42 7`,
	}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksAddCmd(a),
		newTasksEditCmd(a),
		newTasksToggleCmd(a),
		newTasksDeleteCmd(a),
	)
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	var (
		f         listFlags
		projectID int64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks of one project or all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			filter := query.ParseTaskFilter(f.filter)
			if projectID > 0 {
				board := a.ws.Board(projectID)
				if err := board.Refresh(cmd.Context()); err != nil {
					return err
				}
				applyView(board.View(), f, filter)
				return a.printBoard(board.Listing())
			}

			tasks := a.ws.Tasks()
			if err := tasks.Refresh(cmd.Context()); err != nil {
				return err
			}
			applyView(tasks.View(), f, filter)
			return a.printTaskRows(tasks.Listing())
		},
	}
	f.bind(cmd, taskFilters)
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id")
	return cmd
}

// taskFields are the editable task flags.
type taskFields struct {
	title       string
	description string
	due         string
	completed   bool
}

func (f *taskFields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "task title")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.due, "due", "", "due date YYYY-MM-DD, empty to clear")
}

// applyTo overwrites the fields of in whose flags were given.
func (f *taskFields) applyTo(cmd *cobra.Command, in *model.TaskInput) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		in.Title = f.title
	}
	if flags.Changed("description") {
		in.Description = &f.description
	}
	if flags.Changed("due") {
		in.DueDate = nil
		if f.due != "" {
			d, err := model.ParseDate(f.due)
			if err != nil {
				return fmt.Errorf("invalid --due: %w", err)
			}
			in.DueDate = &d
		}
	}
	if flags.Changed("completed") {
		in.Completed = &f.completed
	}
	return in.Validate()
}

func newTasksAddCmd(a *app) *cobra.Command {
	var (
		f         taskFields
		projectID int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in model.TaskInput
			if err := f.applyTo(cmd, &in); err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			created, err := a.ws.Board(projectID).Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printTask(created, "Added")
		},
	}
	f.bind(cmd)
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksEditCmd(a *app) *cobra.Command {
	var (
		f         taskFields
		projectID int64
	)
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, id, err := a.loadBoard(cmd, projectID, args[0])
			if err != nil {
				return err
			}
			current, ok := board.Store().Get(id)
			if !ok {
				return fmt.Errorf("task %d: %w", id, workspace.ErrNotListed)
			}
			in := model.InputFrom(current)
			if err := f.applyTo(cmd, &in); err != nil {
				return err
			}
			updated, err := board.Edit(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			return a.printTask(updated, "Updated")
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&f.completed, "completed", false, "completion state")
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTasksToggleCmd(a *app) *cobra.Command {
	var projectID int64
	cmd := &cobra.Command{
		Use:   "toggle <task-id>",
		Short: "Flip a task between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, id, err := a.loadBoard(cmd, projectID, args[0])
			if err != nil {
				return err
			}
			toggled, err := board.Toggle(cmd.Context(), id)
			if err != nil {
				return a.reportedErr(err)
			}
			verb := "Reopened"
			if toggled.Completed {
				verb = "Completed"
			}
			return a.printTask(toggled, verb)
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	var projectID int64
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, id, err := a.loadBoard(cmd, projectID, args[0])
			if err != nil {
				return err
			}
			if err := board.Delete(cmd.Context(), id); err != nil {
				return a.reportedErr(err)
			}
			fmt.Fprintf(a.stdout, "Deleted task %d\n", id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "project id (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

// loadBoard parses the task id and loads the project's board.
func (a *app) loadBoard(cmd *cobra.Command, projectID int64, arg string) (*workspace.Board, int64, error) {
	id, err := parseID(arg, "task")
	if err != nil {
		return nil, 0, err
	}
	if err := a.requireSession(); err != nil {
		return nil, 0, err
	}
	board := a.ws.Board(projectID)
	if err := board.Refresh(cmd.Context()); err != nil {
		return nil, 0, err
	}
	return board, id, nil
}

func (a *app) printTask(t model.Task, verb string) error {
	if a.jsonOut {
		return writeJSON(a.stdout, t)
	}
	fmt.Fprintf(a.stdout, "%s task %d: %s\n", verb, t.ID, t.Title)
	return nil
}

func (a *app) printBoard(l workspace.BoardListing) error {
	if a.jsonOut {
		return writeJSON(a.stdout, struct {
			Project  model.Project            `json:"project"`
			Progress progress.Progress        `json:"progress"`
			AllDone  bool                     `json:"allDone"`
			Counts   map[query.TaskFilter]int `json:"counts"`
			Tasks    pageJSON[model.Task]     `json:"tasks"`
		}{l.Project, l.Progress, l.AllDone, l.Counts, toPageJSON(l.Page)})
	}

	fmt.Fprintf(a.stdout, "%s  %s\n", l.Project.Title, progressText(l.Progress))
	if d := l.Project.DescriptionText(); d != "" {
		fmt.Fprintln(a.stdout, d)
	}
	if l.AllDone {
		fmt.Fprintln(a.stdout, "All tasks done")
	}
	tw := newTable(a.stdout, "ID", "TITLE", "DUE", "STATE")
	for _, t := range l.Page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Title, dueText(t), doneMark(t))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pageFooter(a.stdout, l.Page, "tasks")
	fmt.Fprintln(a.stdout, countsLine(query.TaskFilters, l.Counts))
	return nil
}

func (a *app) printTaskRows(l workspace.TaskListing) error {
	if a.jsonOut {
		return writeJSON(a.stdout, struct {
			pageJSON[model.TaskRow]
			Counts map[query.TaskFilter]int `json:"counts"`
		}{toPageJSON(l.Page), l.Counts})
	}

	tw := newTable(a.stdout, "PROJECT", "ID", "TITLE", "DUE", "STATE")
	for _, r := range l.Page.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", r.ProjectTitle, r.ID, r.Title, dueText(r.Task), doneMark(r.Task))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pageFooter(a.stdout, l.Page, "tasks")
	fmt.Fprintln(a.stdout, countsLine(query.TaskFilters, l.Counts))
	return nil
}
