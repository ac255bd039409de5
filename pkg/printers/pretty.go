package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
)

// PrettyPrint renders planner records for a terminal.
type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

const idWidth = len("00000000-0000-0000-0000-000000000000  ")

var spacing = strings.Repeat(" ", idWidth)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.out(), spacing)
	}
	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d %s", count, noun)
	if count != 1 {
		_, _ = c.Fprint(pp.out(), "s")
	}
	_, _ = c.Fprintln(pp.out())
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	if pp.ShowID {
		_, _ = f.Fprint(pp.out(), spacing)
	}
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func (pp *PrettyPrint) id(id string) {
	if !pp.ShowID {
		return
	}
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	pad := idWidth - len(id)
	if pad < 1 {
		pad = 1
	}
	_, _ = y.Fprint(pp.out(), id+strings.Repeat(" ", pad))
}

// Projects prints a project outline, indenting subprojects under their
// parent.
func (pp *PrettyPrint) Projects(items ...app.Outlined[*model.Project]) {
	if len(items) == 0 {
		pp.none()
		return
	}
	star := color.New(color.FgHiYellow)
	shared := color.New(color.FgCyan, color.Faint)
	for _, o := range items {
		p := o.Node
		pp.id(p.ID)
		_, _ = fmt.Fprintf(pp.out(), "%s%s", strings.Repeat("  ", o.Depth), p.Name)
		if p.Favorite {
			_, _ = star.Fprint(pp.out(), " ★")
		}
		if p.Collaborative {
			_, _ = shared.Fprintf(pp.out(), " (shared with %d)", len(p.Collaborators))
		}
		_, _ = fmt.Fprintln(pp.out())
	}
	pp.NewLine()
}

// Tasks prints a task outline.
func (pp *PrettyPrint) Tasks(items ...app.Outlined[*model.Task]) {
	if len(items) == 0 {
		pp.none()
		return
	}
	for _, o := range items {
		pp.task(o.Node, o.Depth, order.AxisPrimary)
	}
	pp.NewLine()
}

// Day prints the daily view of one calendar day.
func (pp *PrettyPrint) Day(day string, tasks ...*model.Task) {
	pp.TitleWithCount(day, len(tasks), "task")
	if len(tasks) == 0 {
		pp.none()
		return
	}
	for _, t := range tasks {
		pp.task(t, 0, order.AxisDaily)
	}
	pp.NewLine()
}

// Flat prints tasks of a single scope.
func (pp *PrettyPrint) Flat(tasks ...*model.Task) {
	if len(tasks) == 0 {
		pp.none()
		return
	}
	for _, t := range tasks {
		pp.task(t, 0, order.AxisPrimary)
	}
	pp.NewLine()
}

func (pp *PrettyPrint) task(t *model.Task, depth int, axis order.Axis) {
	done := color.New(color.Faint, color.CrossedOut)
	due := color.New(color.FgHiBlue, color.Faint)

	pp.id(t.ID)
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), box, t.Title)
	if t.Completed {
		_, _ = done.Fprint(pp.out(), line)
	} else {
		_, _ = fmt.Fprint(pp.out(), line)
	}
	if t.Due != nil {
		if axis == order.AxisDaily {
			_, _ = due.Fprintf(pp.out(), "  %s", t.Due.Format("15:04"))
		} else {
			_, _ = due.Fprintf(pp.out(), "  due %s", t.DueDay)
		}
	}
	_, _ = fmt.Fprintln(pp.out())
}

// Labels prints labels as a table.
func (pp *PrettyPrint) Labels(labels ...*model.Label) {
	tbl := pp.table("Name", "Color")
	for _, l := range labels {
		tbl.AddRow(pp.row(l.ID, l.Name, l.Color)...)
	}
	pp.flush(tbl, len(labels))
}

// Filters prints saved filters with their raw queries.
func (pp *PrettyPrint) Filters(filters ...*model.Filter) {
	tbl := pp.table("Name", "Query")
	for _, f := range filters {
		tbl.AddRow(pp.row(f.ID, f.Name, f.Query)...)
	}
	pp.flush(tbl, len(filters))
}

// Habits prints habits with their goals.
func (pp *PrettyPrint) Habits(habits ...*model.Habit) {
	tbl := pp.table("Name", "Goal")
	for _, h := range habits {
		tbl.AddRow(pp.row(h.ID, h.Name, h.Goal)...)
	}
	pp.flush(tbl, len(habits))
}

// Violations prints the findings of a consistency check.
func (pp *PrettyPrint) Violations(vs ...app.Violation) {
	if len(vs) == 0 {
		_, _ = color.New(color.FgGreen).Fprintln(pp.out(), "all scopes are dense")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Kind"), bold("Where"), bold("Problem"))
	for _, v := range vs {
		where := v.ID
		if where == "" {
			where = v.Scope
		}
		tbl.AddRow(v.Kind, where, v.Problem)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Report prints a completion report. label names the window, e.g. "1w".
func (pp *PrettyPrint) Report(res app.ReportResult, label string) {
	since := res.Since.Local().Format("2006-01-02 15:04")
	until := res.Until.Local().Format("2006-01-02 15:04")
	pp.Title(fmt.Sprintf("Report · last %s (%s → %s)", label, since, until))

	if res.Total == 0 {
		_, _ = fmt.Fprintln(pp.out(), "  No completed tasks found in this window.")
		pp.NewLine()
		return
	}

	when := color.New(color.Faint)
	for _, section := range res.Sections {
		_, _ = fmt.Fprintf(pp.out(), "\n%s\n", bold(section.Name))
		for _, item := range section.Items {
			box := "   "
			if item.Completed {
				box = "[x]"
			}
			_, _ = fmt.Fprintf(pp.out(), "  %s%s %s", strings.Repeat("  ", item.Depth), box, item.Task.Title)
			if item.Completed {
				_, _ = when.Fprintf(pp.out(), "  (completed %s)", item.CompletedAt.Local().Format("2006-01-02 15:04"))
			}
			_, _ = fmt.Fprintln(pp.out())
		}
	}
	pp.NewLine()
}

func (pp *PrettyPrint) table(cols ...string) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	head := make([]string, 0, len(cols)+1)
	if pp.ShowID {
		head = append(head, "ID")
	}
	head = append(head, cols...)
	row := make([]interface{}, len(head))
	for i, h := range head {
		row[i] = bold(h)
	}
	tbl.AddRow(row...)
	return tbl
}

func (pp *PrettyPrint) row(id string, cols ...string) []interface{} {
	row := make([]interface{}, 0, len(cols)+1)
	if pp.ShowID {
		row = append(row, id)
	}
	for _, c := range cols {
		row = append(row, c)
	}
	return row
}

func (pp *PrettyPrint) flush(tbl *uitable.Table, n int) {
	if n == 0 {
		pp.none()
		return
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}
