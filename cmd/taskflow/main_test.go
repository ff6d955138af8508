package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/taskflow/internal/api"
	"github.com/fyrsmithlabs/taskflow/internal/apitest"
	"github.com/fyrsmithlabs/taskflow/internal/model"
	"github.com/fyrsmithlabs/taskflow/internal/session"
	"github.com/fyrsmithlabs/taskflow/internal/workspace"
)

type cli struct {
	t    *testing.T
	srv  *apitest.Server
	home string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	srv := apitest.New(t)
	srv.AddAccount("ada@example.com", "Ada Lovelace")

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TASKFLOW_API_BASE_URL", srv.URL())
	t.Setenv("TASKFLOW_LOGGING_LEVEL", "error")
	return &cli{t: t, srv: srv, home: home}
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (c *cli) login() {
	c.t.Helper()
	res := c.run(apitest.Password+"\n", "login", "--email", "ada@example.com")
	require.Equal(c.t, 0, res.code, res.stderr)
}

func (c *cli) sessionPath() string {
	return filepath.Join(c.home, ".config", "taskflow", "session.toml")
}

func (c *cli) storedToken() string {
	c.t.Helper()
	st, err := session.NewFileStore(c.sessionPath()).Load(context.Background())
	require.NoError(c.t, err)
	return st.Token.Value()
}

func due(s string) *model.Date {
	d := model.MustParseDate(s)
	return &d
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	c := newCLI(t)

	res := c.run(apitest.Password+"\n", "login", "--email", "ada@example.com")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Logged in as Ada Lovelace <ada@example.com>\n", res.stdout)

	info, err := os.Stat(c.sessionPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.NotContains(t, res.stderr, c.storedToken())

	res = c.run("", "whoami", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var profile session.Profile
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &profile))
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, "Ada Lovelace", profile.FullName)

	res = c.run("", "logout")
	require.Equal(t, 0, res.code, res.stderr)
	_, err = os.Stat(c.sessionPath())
	assert.True(t, os.IsNotExist(err))

	res = c.run("", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, signedOutMessage)
}

func TestCLI_LoginFailures(t *testing.T) {
	c := newCLI(t)

	res := c.run("wrong\n", "login", "--email", "ada@example.com")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: Invalid credentials\n", res.stderr)

	res = c.run("", "login", "--email", "ada@example.com")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "reading password")
}

func TestCLI_Register(t *testing.T) {
	c := newCLI(t)

	res := c.run("", "register", "--email", "grace@example.com", "--password", "hopper1", "--name", "Grace Hopper")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Logged in as Grace Hopper <grace@example.com>\n", res.stdout)

	res = c.run("", "register", "--email", "grace@example.com", "--password", "hopper1")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: Email already in use\n", res.stderr)
}

func TestCLI_SignedOutCommands(t *testing.T) {
	c := newCLI(t)
	for _, args := range [][]string{
		{"projects", "list"},
		{"tasks", "list"},
		{"progress", "1"},
		{"dashboard"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			res := c.run("", args...)
			assert.Equal(t, 1, res.code)
			assert.Equal(t, signedOutMessage+"\n", res.stderr)
			assert.Empty(t, res.stdout)
		})
	}
}

func seedPortfolio(srv *apitest.Server) (launch model.Project, launchTasks []model.Task) {
	launch, launchTasks = srv.SeedProject("Launch",
		model.Task{Title: "Write notes", DueDate: due("2026-03-10")},
		model.Task{Title: "Ship build", Completed: true},
	)
	srv.SeedProject("Archive", model.Task{Title: "Close books", Completed: true})
	srv.SeedProject("Ideas")
	return launch, launchTasks
}

func TestCLI_ProjectsList(t *testing.T) {
	c := newCLI(t)
	seedPortfolio(c.srv)
	c.login()

	res := c.run("", "projects", "list")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Launch")
	assert.Contains(t, res.stdout, "1/2 (50%)")
	assert.Contains(t, res.stdout, "Page 1 of 1 (3 projects)")
	assert.Contains(t, res.stdout, "all 3  active 1  completed 1  empty 1")

	res = c.run("", "projects", "list", "--json", "--filter", "completed")
	require.Equal(t, 0, res.code, res.stderr)
	var out struct {
		Items []struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Status   string `json:"status"`
			Progress struct {
				Total, Done, Pct int
			} `json:"progress"`
		} `json:"items"`
		Page   int            `json:"page"`
		Total  int            `json:"total"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Archive", out.Items[0].Title)
	assert.Equal(t, "completed", out.Items[0].Status)
	assert.Equal(t, 100, out.Items[0].Progress.Pct)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, map[string]int{"all": 3, "active": 1, "completed": 1, "empty": 1}, out.Counts)

	res = c.run("", "projects", "list", "--json", "--page-size", "2", "--page", "9")
	require.Equal(t, 0, res.code, res.stderr)
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 2, out.Page, "out-of-range page clamps to the last")
	assert.Len(t, out.Items, 1)

	res = c.run("", "projects", "list", "--search", "  launch  ")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Launch")
	assert.NotContains(t, res.stdout, "Archive")

	res = c.run("", "projects", "list", "--help")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "usually one of 6, 8, 12, 16")
}

func TestCLI_Dashboard(t *testing.T) {
	c := newCLI(t)
	seedPortfolio(c.srv)
	c.login()

	res := c.run("", "dashboard")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "all 3  active 1  completed 1  empty 1")
	assert.Contains(t, res.stdout, "2/3 (67%)")

	c.srv.SetSummaryShape(apitest.SummaryMissing)
	res = c.run("", "dashboard", "--json", "--search", "laun")
	require.Equal(t, 0, res.code, res.stderr)
	var out struct {
		Counts map[string]int `json:"counts"`
		Totals struct {
			Total, Done, Pct int
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, 1, out.Counts["all"])
	assert.Equal(t, 3, out.Totals.Total, "totals ignore search")
	assert.Equal(t, 2, out.Totals.Done)
}

func TestCLI_Progress(t *testing.T) {
	c := newCLI(t)
	launch, _ := seedPortfolio(c.srv)
	c.login()

	res := c.run("", "progress", idArg(launch.ID))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "1/2 (50%) active\n", res.stdout)

	res = c.run("", "progress", "abc")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `invalid project id "abc"`)
}

func TestCLI_TaskLifecycle(t *testing.T) {
	c := newCLI(t)
	launch, tasks := seedPortfolio(c.srv)
	c.login()
	pid := idArg(launch.ID)

	res := c.run("", "tasks", "add", "--project", pid, "--title", "  Announce  ", "--due", "2026-03-12")
	require.Equal(t, 0, res.code, res.stderr)
	stored := c.srv.Tasks(launch.ID)
	require.Len(t, stored, 3)
	added := stored[len(stored)-1]
	assert.Equal(t, "Announce", added.Title)
	assert.Equal(t, "2026-03-12", added.DueDate.String())

	res = c.run("", "tasks", "toggle", "--project", pid, idArg(tasks[0].ID))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Completed task "+idArg(tasks[0].ID)+": Write notes\n", res.stdout)

	res = c.run("", "tasks", "edit", "--project", pid, idArg(added.ID), "--title", "Announce launch", "--due", "")
	require.Equal(t, 0, res.code, res.stderr)
	for _, task := range c.srv.Tasks(launch.ID) {
		if task.ID == added.ID {
			assert.Equal(t, "Announce launch", task.Title)
			assert.Nil(t, task.DueDate)
		}
	}

	res = c.run("", "tasks", "list", "--project", pid, "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var board struct {
		Project  model.Project `json:"project"`
		AllDone  bool          `json:"allDone"`
		Progress struct {
			Total, Done, Pct int
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &board))
	assert.Equal(t, "Launch", board.Project.Title)
	assert.Equal(t, 3, board.Progress.Total)
	assert.Equal(t, 2, board.Progress.Done)
	assert.False(t, board.AllDone)

	res = c.run("", "tasks", "delete", "--project", pid, idArg(added.ID))
	require.Equal(t, 0, res.code, res.stderr)
	assert.Len(t, c.srv.Tasks(launch.ID), 2)

	res = c.run("", "tasks", "edit", "--project", pid, "999", "--title", "x")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, workspace.ErrNotListed.Error())
}

func TestCLI_TasksAcrossProjects(t *testing.T) {
	c := newCLI(t)
	seedPortfolio(c.srv)
	c.login()

	res := c.run("", "tasks", "list", "--filter", "done")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Ship build")
	assert.Contains(t, res.stdout, "Close books")
	assert.NotContains(t, res.stdout, "Write notes")
	assert.Contains(t, res.stdout, "Page 1 of 1 (2 tasks)")

	res = c.run("", "tasks", "list", "--search", "archive", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var out struct {
		Items []model.TaskRow `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Archive", out.Items[0].ProjectTitle)
}

func TestCLI_MutationFailureReportedOnce(t *testing.T) {
	c := newCLI(t)
	launch, tasks := seedPortfolio(c.srv)
	c.login()

	c.srv.FailNext("toggle_task", http.StatusInternalServerError, "Toggle refused")
	res := c.run("", "tasks", "toggle", "--project", idArg(launch.ID), idArg(tasks[0].ID))
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: Toggle refused\n", res.stderr)
	assert.False(t, c.srv.Tasks(launch.ID)[0].Completed)

	c.srv.FailNext("delete_project", http.StatusServiceUnavailable, "")
	res = c.run("", "projects", "delete", idArg(launch.ID))
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: "+api.GenericMessage+"\n", res.stderr)
	_, ok := c.srv.Project(launch.ID)
	assert.True(t, ok)
}

func TestCLI_ProjectCreateRename(t *testing.T) {
	c := newCLI(t)
	c.login()

	res := c.run("", "projects", "create", "--title", "Roadmap", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	var created model.Project
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &created))
	assert.Equal(t, "Roadmap", created.Title)

	res = c.run("", "projects", "rename", idArg(created.ID), "Roadmap", "2027")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Renamed project "+idArg(created.ID)+": Roadmap 2027\n", res.stdout)
	got, _ := c.srv.Project(created.ID)
	assert.Equal(t, "Roadmap 2027", got.Title)

	res = c.run("", "projects", "create", "--title", "   ")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, model.ErrEmptyTitle.Error())
}

func TestCLI_RevokedSession(t *testing.T) {
	c := newCLI(t)
	seedPortfolio(c.srv)
	c.login()
	c.srv.Revoke(c.storedToken())

	res := c.run("", "projects", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, expiredMessage)
	assert.Equal(t, 1, strings.Count(res.stderr, expiredMessage))
	_, err := os.Stat(c.sessionPath())
	assert.True(t, os.IsNotExist(err), "revoked session is removed from disk")

	res = c.run("", "projects", "list")
	assert.Contains(t, res.stderr, signedOutMessage)
}

func TestCLI_ServerFlagOverridesConfig(t *testing.T) {
	c := newCLI(t)
	c.login()
	t.Setenv("TASKFLOW_API_BASE_URL", "http://127.0.0.1:1/api")

	res := c.run("", "projects", "list")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: "+api.GenericMessage+"\n", res.stderr)

	res = c.run("", "projects", "list", "--server", c.srv.URL())
	assert.Equal(t, 0, res.code, res.stderr)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Invalid credentials", describe(&api.Error{Kind: api.KindAuthRejected, Status: 401, Message: "Invalid credentials"}))
	assert.Equal(t, api.GenericMessage, describe(&api.Error{Kind: api.KindNetwork, Err: errors.New("dial tcp")}))
	assert.Equal(t, "plain", describe(errors.New("plain")))
}

func idArg(id int64) string {
	return fmt.Sprint(id)
}
