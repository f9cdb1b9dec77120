// Package printers renders notes, tasks, tags and activity for the command line.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
)

const (
	maxColWidth = 60
	timeLayout  = "2006-01-02 15:04"
)

// Pretty writes colored tables to Out.
type Pretty struct {
	Out    io.Writer
	ShowID bool
}

// New creates a Pretty writing to out, or to color.Output when out is nil.
func New(out io.Writer) *Pretty {
	if out == nil {
		out = color.Output
	}

	return &Pretty{Out: out}
}

var statusColors = map[db.Status]*color.Color{
	db.StatusBacklog:   color.New(color.Faint),
	db.StatusPlanned:   color.New(color.FgCyan),
	db.StatusDoing:     color.New(color.FgHiGreen, color.Bold),
	db.StatusBlocked:   color.New(color.FgYellow),
	db.StatusDone:      color.New(color.FgGreen),
	db.StatusCancelled: color.New(color.Faint, color.CrossedOut),
	db.StatusOverdue:   color.New(color.FgHiRed, color.Bold),
}

func statusText(s db.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s)
	}

	return string(s)
}

func star(starred bool) string {
	if starred {
		return color.New(color.FgHiYellow).Sprint("*")
	}

	return " "
}

func (p *Pretty) table() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = maxColWidth
	tbl.Wrap = true

	return tbl
}

func (p *Pretty) flush(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(p.Out, tbl)
}

func (p *Pretty) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(p.Out, " none\n\n")
}

// TitleWithCount prints a bold title followed by the number of entries.
func (p *Pretty) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(p.Out, title)
	_, _ = c.Fprintf(p.Out, " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(p.Out, " entry")
	default:
		_, _ = c.Fprintln(p.Out, " entries")
	}
}

func tagNames(tags []db.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.FullPath)
	}

	return color.New(color.FgGreen).Sprint(strings.Join(names, ", "))
}

// Tasks prints one row per task. tags may be nil; otherwise it supplies the tags shown per task.
func (p *Pretty) Tasks(tasks []db.Task, tags func(taskID string) []db.Tag) {
	if len(tasks) == 0 {
		p.none()

		return
	}

	bold := color.New(color.Bold)
	tbl := p.table()

	header := []interface{}{"", bold.Sprint("Ref"), bold.Sprint("Task"), bold.Sprint("Status"),
		bold.Sprint("Scheduled"), bold.Sprint("Score"), bold.Sprint("Tags")}
	if p.ShowID {
		header = append(header, bold.Sprint("ID"))
	}

	tbl.AddRow(header...)

	for _, t := range tasks {
		var leaves []db.Tag
		if tags != nil {
			leaves = tags(t.ID)
		}

		row := []interface{}{star(t.Starred), t.RefID, t.Text, statusText(t.Status),
			string(t.ScheduledDate), fmt.Sprintf("%.1f", t.Score()), tagNames(leaves)}
		if p.ShowID {
			row = append(row, t.ID)
		}

		tbl.AddRow(row...)
	}

	p.flush(tbl)
}

// Task prints every field of one task.
func (p *Pretty) Task(t db.Task, tags []db.Tag) {
	bold := color.New(color.Bold)
	tbl := p.table()

	tbl.AddRow(bold.Sprint("ref"), t.RefID)
	tbl.AddRow(bold.Sprint("id"), t.ID)
	tbl.AddRow(bold.Sprint("text"), t.Text)
	tbl.AddRow(bold.Sprint("status"), statusText(t.Status))
	tbl.AddRow(bold.Sprint("scheduled"), string(t.ScheduledDate))
	tbl.AddRow(bold.Sprint("starred"), t.Starred)
	tbl.AddRow(bold.Sprint("type"), string(t.TaskType))
	tbl.AddRow(bold.Sprint("work"), string(t.WorkType))
	tbl.AddRow(bold.Sprint("project"), t.ProjectID)
	tbl.AddRow(bold.Sprint("priority"), t.Priority)
	tbl.AddRow(bold.Sprint("score"), fmt.Sprintf("%.2f (v%d u%d m%d e%d)", t.Score(), t.Value, t.Urgency, t.Momentum, t.Effort))
	tbl.AddRow(bold.Sprint("tags"), tagNames(tags))
	tbl.AddRow(bold.Sprint("context"), t.Context)
	tbl.AddRow(bold.Sprint("notes"), t.WorkNotes)
	tbl.AddRow(bold.Sprint("updated"), t.UpdatedAt.Format(timeLayout))

	p.flush(tbl)
}

// Notes prints one row per note.
func (p *Pretty) Notes(notes []db.Note) {
	if len(notes) == 0 {
		p.none()

		return
	}

	bold := color.New(color.Bold)
	home := color.New(color.FgHiMagenta)
	tbl := p.table()

	header := []interface{}{"", bold.Sprint("Ref"), bold.Sprint("Title"), bold.Sprint("Type")}
	if p.ShowID {
		header = append(header, bold.Sprint("ID"))
	}

	tbl.AddRow(header...)

	for _, n := range notes {
		title := n.Title
		if n.IsHome {
			title = home.Sprintf("%s (home)", n.Title)
		}

		row := []interface{}{star(n.IsStarred), n.RefID, title, string(n.Type)}
		if p.ShowID {
			row = append(row, n.ID)
		}

		tbl.AddRow(row...)
	}

	p.flush(tbl)
}

// Note prints a note with the titles of its linked notes.
func (p *Pretty) Note(n db.Note, links map[db.Direction]db.Note, tags []db.Tag) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	tbl := p.table()

	tbl.AddRow(bold.Sprint("ref"), n.RefID)
	tbl.AddRow(bold.Sprint("id"), n.ID)
	tbl.AddRow(bold.Sprint("title"), n.Title)
	tbl.AddRow(bold.Sprint("type"), string(n.Type))
	tbl.AddRow(bold.Sprint("home"), n.IsHome)
	tbl.AddRow(bold.Sprint("starred"), n.IsStarred)

	for _, dir := range db.Directions() {
		linked, ok := links[dir]
		if !ok {
			tbl.AddRow(bold.Sprint(string(dir)), faint.Sprint("-"))

			continue
		}

		tbl.AddRow(bold.Sprint(string(dir)), fmt.Sprintf("%s %s", linked.RefID, linked.Title))
	}

	tbl.AddRow(bold.Sprint("tags"), tagNames(tags))

	p.flush(tbl)

	if n.Content != "" {
		_, _ = fmt.Fprintf(p.Out, "%s\n\n", n.Content)
	}
}

// Tags prints the tag hierarchy, indenting each level.
func (p *Pretty) Tags(tags []db.Tag) {
	if len(tags) == 0 {
		p.none()

		return
	}

	faint := color.New(color.Faint)
	tbl := p.table()

	for _, t := range tags {
		row := []interface{}{strings.Repeat("  ", t.Level) + t.Name, faint.Sprint(t.FullPath)}
		if p.ShowID {
			row = append(row, t.ID)
		}

		tbl.AddRow(row...)
	}

	p.flush(tbl)
}

// Activity prints activity entries in the order given.
func (p *Pretty) Activity(entries []db.Activity) {
	if len(entries) == 0 {
		p.none()

		return
	}

	faint := color.New(color.Faint)
	action := color.New(color.FgCyan)
	tbl := p.table()

	for _, a := range entries {
		tbl.AddRow(faint.Sprint(a.At.Format(timeLayout)), a.Entity, action.Sprint(a.Action), a.Detail)
	}

	p.flush(tbl)
}

// Counts prints the number of tasks in each view.
func (p *Pretty) Counts(counts map[view.Name]int) {
	bold := color.New(color.Bold)
	tbl := p.table()

	for _, name := range view.Names() {
		tbl.AddRow(bold.Sprint(name.Title()), counts[name])
	}

	tbl.RightAlign(1)

	p.flush(tbl)
}
