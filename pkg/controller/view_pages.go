package controller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

func viewPage(name view.Name) string {
	return "view-" + string(name)
}

func (c *Controller) getViewGrid(name view.Name) *tview.Grid {
	c.viewHeaders[name] = c.getHeader(c.viewEvents)
	c.viewTables[name] = c.getTable(name)

	grid := tview.NewGrid().SetBorders(true).SetRows(headerRows(c.viewEvents), 0, 1)

	grid.AddItem(c.viewHeaders[name], 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(c.viewTables[name], 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.message, 2, 0, 1, 1, 0, 0, false)

	return grid
}

// shortcutColumn groups a binding into a header column by the first word of its description.
func shortcutColumn(description string) int {
	switch strings.SplitN(description, " ", 2)[0] {
	case "Show", "Home", "Go", "Back":
		return 1
	case "Move", "Follow":
		return 2
	case "Filter", "Link":
		return 3
	}

	return 0
}

const shortcutColumns = 4

func shortcuts(events map[tcell.Key]KeyEvent) map[int][]string {
	columns := map[int][]string{}

	for key, event := range events {
		text := fmt.Sprintf("[orange]<%s>[white] %s", keyName(key), event.Description)
		col := shortcutColumn(event.Description)
		columns[col] = append(columns[col], text)
	}

	for col := 0; col < shortcutColumns; col++ {
		sort.Strings(columns[col])
	}

	return columns
}

// headerRows is the height of the header for events: a title row plus the longest column.
func headerRows(events map[tcell.Key]KeyEvent) int {
	longest := 0
	for _, col := range shortcuts(events) {
		if len(col) > longest {
			longest = len(col)
		}
	}

	return longest + 1
}

// getHeader returns the header used for each page. It shows the title at the top, followed by
// columns listing keyboard shortcuts, each sorted alphabetically.
func (c *Controller) getHeader(events map[tcell.Key]KeyEvent) *tview.Table {
	table := tview.NewTable().SetBorders(false).SetSelectable(false, false)
	table.SetCell(0, 0, tview.NewTableCell(""))

	columns := shortcuts(events)

	for col := 0; col < shortcutColumns; col++ {
		for i, text := range columns[col] {
			table.SetCell(i+1, col, tview.NewTableCell(text).SetExpansion(1))
		}
	}

	return table
}

func setTitle(header *tview.Table, title string) {
	header.SetCell(0, 0, tview.NewTableCell(fmt.Sprintf("[yellow]%s", title)))
}

func (c *Controller) getTable(name view.Name) *tview.Table {
	table := tview.NewTable().SetBorders(false)

	content := NewViewContent(func(taskID string) []db.Tag {
		tags, err := c.db.GetTaskLeafTags(taskID)
		if err != nil {
			return nil
		}

		return tags
	})

	c.viewContent[name] = content

	table.SetContent(content)
	table.SetSelectable(true, false)
	table.SetFixed(1, 0)

	table.SetSelectionChangedFunc(func(row, col int) {
		if task, ok := content.Task(row); ok {
			c.nav.Dispatch(nav.SelectTask{ID: task.ID})
		}
	})

	return table
}

func filterText(filters view.Filters) string {
	if filters.Empty() {
		return ""
	}

	parts := []string{}
	for _, s := range filters.Statuses {
		parts = append(parts, string(s))
	}

	if filters.TaskType != "" {
		parts = append(parts, string(filters.TaskType))
	}

	if len(filters.TagIDs) > 0 {
		parts = append(parts, fmt.Sprintf("%d tags", len(filters.TagIDs)))
	}

	return fmt.Sprintf(" [gray](filter: %s)", strings.Join(parts, ", "))
}

func (c *Controller) showView(name view.Name) {
	state := c.nav.State()

	tasks, err := c.views.Fetch(c.ctx, name, state.Filters)
	if err != nil {
		c.report(err, "view")
	}

	content := c.viewContent[name]
	content.SetTasks(tasks)

	setTitle(c.viewHeaders[name], fmt.Sprintf("%s (%d)%s", name.Title(), len(tasks), filterText(state.Filters)))

	c.mode = modeView
	c.pages.SwitchToPage(viewPage(name))

	row := content.Row(state.SelectedTask)
	if row == 0 && len(tasks) > 0 {
		row = 1
	}

	if row > 0 {
		c.viewTables[name].Select(row, 0)
	}

	log.Debug().Str("view", string(name)).Int("tasks", len(tasks)).Int("row", row).Msg("showing view")
}

// selectedTask returns the task the state points at, if it still exists.
func (c *Controller) selectedTask() (db.Task, bool) {
	id := c.nav.State().SelectedTask
	if id == "" {
		return db.Task{}, false
	}

	task, err := c.db.Task(id)
	if err != nil {
		return db.Task{}, false
	}

	return task, true
}

// reorderSelected moves the selected task by offset rows within the current view.
func (c *Controller) reorderSelected(offset int) {
	state := c.nav.State()
	if state.Current.Kind != nav.KindView {
		return
	}

	content := c.viewContent[state.Current.View]

	from := content.Row(state.SelectedTask) - 1
	to := from + offset

	tasks := content.Tasks()
	if from < 0 || to < 0 || to >= len(tasks) {
		return
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	_, err := c.db.ReorderTasks(c.ctx, ids, from, to)
	c.report(err, "reorder")
	c.render()
}
