package controller

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/rivo/tview"
)

const (
	textRatio = 3
	columns   = 7
)

// tagColors is a list of colors for tags to alternate through so that tasks with common tags are easier to spot.
func tagColors() []string {
	return []string{
		"#FF0000",
		"#00FF00",
		"#0000FF",
		"#FFFF00",
		"#FF00FF",
		"#00FFFF",
		"#FFFFFF",
		"#AA0000",
		"#00AA00",
		"#0000AA",
		"#AAAA00",
		"#AA00AA",
		"#00AAAA",
		"#AAAAAA",
	}
}

// TagColor picks a stable color for a tag.
func TagColor(tag db.Tag) string {
	colors := tagColors()

	h := fnv.New32a()
	_, _ = h.Write([]byte(tag.ID))

	return colors[int(h.Sum32()%uint32(len(colors)))]
}

var statusColors = map[db.Status]tcell.Color{
	db.StatusBacklog:   tcell.ColorGray,
	db.StatusPlanned:   tcell.ColorAqua,
	db.StatusDoing:     tcell.ColorLime,
	db.StatusBlocked:   tcell.ColorYellow,
	db.StatusDone:      tcell.ColorGreen,
	db.StatusCancelled: tcell.ColorDarkGray,
	db.StatusOverdue:   tcell.ColorRed,
}

// ViewContent implements tview.TableContent over the tasks of one view.
type ViewContent struct {
	tview.TableContentReadOnly
	tasks []db.Task
	tags  func(taskID string) []db.Tag
}

// NewViewContent creates a ViewContent. tags supplies the leaf tags shown for each task.
func NewViewContent(tags func(taskID string) []db.Tag) *ViewContent {
	return &ViewContent{tags: tags}
}

// SetTasks replaces the rows.
func (v *ViewContent) SetTasks(tasks []db.Task) {
	v.tasks = tasks
}

// Tasks returns the rows in display order.
func (v *ViewContent) Tasks() []db.Task {
	return v.tasks
}

// Task returns the task shown at row, accounting for the header.
func (v *ViewContent) Task(row int) (db.Task, bool) {
	if idx := row - 1; idx >= 0 && idx < len(v.tasks) {
		return v.tasks[idx], true
	}

	return db.Task{}, false
}

// Row returns the table row of the task with id, or 0 when it is not shown.
func (v *ViewContent) Row(id string) int {
	for i, t := range v.tasks {
		if t.ID == id {
			return i + 1
		}
	}

	return 0
}

func header(text string, expansion int) *tview.TableCell {
	return tview.NewTableCell(text).SetExpansion(expansion).
		SetTextColor(tcell.ColorYellow).SetSelectable(false)
}

// GetCell returns the cell at the given position or nil if no cell.
func (v *ViewContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		switch col {
		case 0:
			return header(" ", 0)
		case 1:
			return header("ref", 0)
		case 2:
			return header("task", textRatio)
		case 3:
			return header("status", 0)
		case 4:
			return header("scheduled", 0)
		case 5:
			return header("score", 0)
		case 6:
			return header("tags", 1)
		}

		return nil
	}

	task, ok := v.Task(row)
	if !ok {
		return nil
	}

	switch col {
	case 0:
		mark := " "
		if task.Starred {
			mark = "*"
		}

		return tview.NewTableCell(mark).SetTextColor(tcell.ColorYellow).SetReference(task.ID)
	case 1:
		return tview.NewTableCell(task.RefID).SetTextColor(tcell.ColorGray)
	case 2:
		return tview.NewTableCell(tview.Escape(task.Text)).SetExpansion(textRatio)
	case 3:
		cell := tview.NewTableCell(string(task.Status))
		if color, ok := statusColors[task.Status]; ok {
			cell.SetTextColor(color)
		}

		return cell
	case 4:
		return tview.NewTableCell(string(task.ScheduledDate))
	case 5:
		return tview.NewTableCell(fmt.Sprintf("%.1f", task.Score())).SetAlign(tview.AlignRight)
	case 6:
		return tview.NewTableCell(v.tagText(task.ID)).SetExpansion(1)
	}

	return nil
}

func (v *ViewContent) tagText(taskID string) string {
	if v.tags == nil {
		return ""
	}

	parts := []string{}
	for _, t := range v.tags(taskID) {
		parts = append(parts, fmt.Sprintf("[%s]%s", TagColor(t), tview.Escape(t.FullPath)))
	}

	return strings.Join(parts, "[white], ")
}

// GetRowCount returns the number of rows in the table.
func (v *ViewContent) GetRowCount() int {
	return len(v.tasks) + 1
}

// GetColumnCount returns the number of columns in the table.
func (v *ViewContent) GetColumnCount() int {
	return columns
}
