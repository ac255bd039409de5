package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/model"
)

func setup(t *testing.T) {
	t.Helper()
	color.NoColor = true
	t.Setenv("PLANNER_CONFIG_PATH", "")
	t.Setenv("PLANNER_PATH", t.TempDir())
	t.Setenv("PLANNER_BACKEND", "diskv")
	t.Setenv("PLANNER_OWNER", "u1")
	t.Setenv("PLANNER_TIMEZONE", "UTC")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := New()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("planner %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decode[T any](t *testing.T, args ...string) T {
	t.Helper()
	var v T
	out := mustExecute(t, append(args, "-o", "json")...)
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("planner %s: decoding %q: %v", strings.Join(args, " "), out, err)
	}
	return v
}

func TestProjectsAndTasks(t *testing.T) {
	setup(t)

	work := decode[model.Project](t, "project", "add", "Work")
	home := decode[model.Project](t, "project", "add", "Home")
	if work.Order != 1 || home.Order != 2 {
		t.Fatalf("orders = %d, %d", work.Order, home.Order)
	}
	mustExecute(t, "project", "move", home.ID, "--first")
	tree := decode[[]app.Outlined[*model.Project]](t, "project", "list")
	if len(tree) != 2 || tree[0].Node.Name != "Home" || tree[1].Node.Name != "Work" {
		t.Fatalf("project tree = %+v", tree)
	}

	a := decode[model.Task](t, "task", "add", "write", "report", "--project", work.ID)
	b := decode[model.Task](t, "task", "add", "send", "it", "--project", work.ID, "--due", "2026-10-20 09:30")
	c := decode[model.Task](t, "task", "add", "outline", "--before", a.ID)
	if a.Title != "write report" || b.DueDay != "2026-10-20" || c.Order != 1 || c.ProjectID != work.ID {
		t.Fatalf("tasks = %+v %+v %+v", a, b, c)
	}
	sub := decode[model.Task](t, "task", "add", "intro", "--parent", a.ID)
	if sub.ProjectID != work.ID || sub.Order != 1 {
		t.Fatalf("subtask = %+v", sub)
	}

	outline := decode[[]app.Outlined[*model.Task]](t, "task", "list", "--project", work.ID)
	var got []string
	for _, o := range outline {
		got = append(got, strings.Repeat(">", o.Depth)+o.Node.Title)
	}
	if strings.Join(got, ",") != "outline,write report,>intro,send it" {
		t.Fatalf("outline = %v", got)
	}

	done := decode[[]*model.Task](t, "task", "complete", a.ID)
	if len(done) != 2 {
		t.Fatalf("completed %d tasks, want 2", len(done))
	}
	report := decode[app.ReportResult](t, "report", "--last", "1h")
	if report.Total != 2 {
		t.Fatalf("report total = %d", report.Total)
	}

	day := decode[[]*model.Task](t, "day", "2026-10-20")
	if len(day) != 1 || day[0].ID != b.ID {
		t.Fatalf("day = %+v", day)
	}

	if out := mustExecute(t, "check"); !strings.Contains(out, "all scopes are dense") {
		t.Fatalf("check = %q", out)
	}
}

func TestLists(t *testing.T) {
	setup(t)

	l1 := decode[model.Label](t, "label", "add", "home", "--color", "blue")
	l2 := decode[model.Label](t, "label", "add", "work")
	if l1.Color != "blue" || l2.Order != 2 {
		t.Fatalf("labels = %+v %+v", l1, l2)
	}
	mustExecute(t, "label", "move", l2.ID, "--first")
	labels := decode[[]*model.Label](t, "label", "list")
	if len(labels) != 2 || labels[0].Name != "work" {
		t.Fatalf("labels = %+v", labels)
	}

	f := decode[model.Filter](t, "filter", "add", "today", "--query", "today & #work")
	if f.Query != "today & #work" {
		t.Fatalf("filter = %+v", f)
	}

	p := decode[model.Project](t, "project", "add", "Health")
	h := decode[model.Habit](t, "habit", "add", "run", "--project", p.ID, "--goal", "3x a week")
	if h.ProjectID != p.ID || h.Order != 1 {
		t.Fatalf("habit = %+v", h)
	}
	habits := decode[[]*model.Habit](t, "habit", "list", "--project", p.ID)
	if len(habits) != 1 {
		t.Fatalf("habits = %+v", habits)
	}
}

func TestErrors(t *testing.T) {
	setup(t)

	if _, err := execute(t, "task", "move", "nope", "--after", "other"); err == nil {
		t.Fatal("expected error moving a missing task")
	}
	if _, err := execute(t, "project", "move", "x", "--after", "a", "--before", "b"); err == nil {
		t.Fatal("expected error for conflicting placement flags")
	}
	if _, err := execute(t, "day", "reschedule"); err == nil {
		t.Fatal("expected error without --to or --clear")
	}
}

func TestVersion(t *testing.T) {
	if out := mustExecute(t, "version"); !strings.Contains(out, "dev") {
		t.Fatalf("version = %q", out)
	}
}
