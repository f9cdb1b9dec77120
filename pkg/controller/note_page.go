package controller

import (
	"fmt"
	"strings"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/rivo/tview"
)

func (c *Controller) getNoteGrid() *tview.Grid {
	c.noteHeader = c.getHeader(c.noteEvents)
	c.noteText = tview.NewTextView().SetDynamicColors(true).SetWrap(true)

	grid := tview.NewGrid().SetBorders(true).SetRows(headerRows(c.noteEvents), 0, 1)

	grid.AddItem(c.noteHeader, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.noteText, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.message, 2, 0, 1, 1, 0, 0, false)

	return grid
}

func (c *Controller) getTaskGrid() *tview.Grid {
	c.taskText = tview.NewTextView().SetDynamicColors(true).SetWrap(true)

	header := c.getHeader(c.viewEvents)
	setTitle(header, "Task")

	grid := tview.NewGrid().SetBorders(true).SetRows(headerRows(c.viewEvents), 0, 1)

	grid.AddItem(header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.taskText, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.message, 2, 0, 1, 1, 0, 0, false)

	return grid
}

func (c *Controller) linkText(note db.Note, dir db.Direction) string {
	id := note.Link(dir)
	if id == "" {
		return "[gray]-"
	}

	linked, err := c.db.Note(id)
	if err != nil {
		return "[red]?"
	}

	return fmt.Sprintf("[aqua]%s[white] %s", linked.RefID, tview.Escape(linked.Title))
}

func tagList(tags []db.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, fmt.Sprintf("[%s]%s", TagColor(t), tview.Escape(t.FullPath)))
	}

	return strings.Join(parts, "[white], ")
}

// renderNote lays a note out with its four neighbours around it.
func (c *Controller) renderNote(note db.Note) string {
	var b strings.Builder

	marks := ""
	if note.IsHome {
		marks += " [fuchsia](home)"
	}

	if note.IsStarred {
		marks += " [yellow]*"
	}

	fmt.Fprintf(&b, "[yellow]%s[white] %s [gray]%s%s\n\n", note.RefID, tview.Escape(note.Title), note.Type, marks)
	fmt.Fprintf(&b, "        up: %s\n", c.linkText(note, db.Up))
	fmt.Fprintf(&b, "[white]      left: %s\n", c.linkText(note, db.Left))
	fmt.Fprintf(&b, "[white]     right: %s\n", c.linkText(note, db.Right))
	fmt.Fprintf(&b, "[white]      down: %s\n\n", c.linkText(note, db.Down))

	if count, err := c.db.CountIsland(note.ID); err == nil {
		fmt.Fprintf(&b, "[gray]connected notes: %d\n", count)
	}

	if tags, err := c.db.NoteTags(note.ID); err == nil && len(tags) > 0 {
		fmt.Fprintf(&b, "[gray]tags: %s\n", tagList(tags))
	}

	if note.Content != "" {
		fmt.Fprintf(&b, "\n[white]%s\n", tview.Escape(note.Content))
	}

	if note.Type == db.NoteProject {
		if tasks, err := c.db.ProjectTasks(note.ID); err == nil && len(tasks) > 0 {
			b.WriteString("\n[yellow]tasks\n")

			for _, t := range tasks {
				fmt.Fprintf(&b, "[gray]%s [white]%s [gray]%s\n", t.RefID, tview.Escape(t.Text), t.Status)
			}
		}
	}

	return b.String()
}

func (c *Controller) showNote(id string) {
	c.mode = modeNote

	note, err := c.db.Note(id)
	if err != nil {
		c.report(err, "note")
		c.noteText.SetText("")
	} else {
		setTitle(c.noteHeader, tview.Escape(note.Title))
		c.noteText.SetText(c.renderNote(note)).ScrollToBeginning()
	}

	c.pages.SwitchToPage(notePage)
}

func (c *Controller) renderTask(task db.Task) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[yellow]%s[white] %s\n\n", task.RefID, tview.Escape(task.Text))
	fmt.Fprintf(&b, "[gray]status:    [white]%s\n", task.Status)
	fmt.Fprintf(&b, "[gray]scheduled: [white]%s\n", task.ScheduledDate)
	fmt.Fprintf(&b, "[gray]starred:   [white]%t\n", task.Starred)
	fmt.Fprintf(&b, "[gray]type:      [white]%s %s\n", task.TaskType, task.WorkType)
	fmt.Fprintf(&b, "[gray]score:     [white]%.2f\n", task.Score())

	if task.ProjectID != "" {
		if project, err := c.db.Note(task.ProjectID); err == nil {
			fmt.Fprintf(&b, "[gray]project:   [white]%s %s\n", project.RefID, tview.Escape(project.Title))
		}
	}

	if tags, err := c.db.TaskTags(task.ID); err == nil && len(tags) > 0 {
		fmt.Fprintf(&b, "[gray]tags:      %s\n", tagList(tags))
	}

	if task.Context != "" {
		fmt.Fprintf(&b, "\n[white]%s\n", tview.Escape(task.Context))
	}

	if task.WorkNotes != "" {
		fmt.Fprintf(&b, "\n[white]%s\n", tview.Escape(task.WorkNotes))
	}

	return b.String()
}

func (c *Controller) showTask(id string) {
	c.mode = modeView

	task, err := c.db.Task(id)
	if err != nil {
		c.report(err, "task")
		c.taskText.SetText("")
	} else {
		c.taskText.SetText(c.renderTask(task)).ScrollToBeginning()
	}

	c.pages.SwitchToPage(taskPage)
}

func (c *Controller) showNothing() {
	c.mode = modeNote

	setTitle(c.noteHeader, "Nothing to show")
	c.noteText.SetText("[gray]Press g to go somewhere, or 1-4 for a task view.")
	c.pages.SwitchToPage(notePage)
}
