package controller

import (
	"fmt"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	formPage = "form"

	taskFormName = "task"
	tagFormName  = "tag"
	gotoFormName = "goto"
	noteFormName = "note"

	textMax  = 200
	fieldMax = 60
)

func taskTypeOptions() []string {
	return []string{
		"",
		string(db.TaskTypeDeepWork),
		string(db.TaskTypeQuickWins),
		string(db.TaskTypeGruntWork),
		string(db.TaskTypePeopleTime),
		string(db.TaskTypeStrategic),
	}
}

func noteTypeOptions() []string {
	return []string{
		string(db.NotePlain),
		string(db.NoteProject),
		string(db.NoteTaskList),
		string(db.NoteProjectList),
		string(db.NoteInboxList),
		string(db.NoteLogList),
		string(db.NoteDiagram),
		string(db.NoteMindmap),
	}
}

func (c *Controller) getFormGrid() *tview.Grid {
	c.formTitle = tview.NewTextView().SetDynamicColors(true)

	forms := tview.NewPages()

	c.initTaskForm()
	c.initTagForm()
	c.initGotoForm()
	c.initNoteForm()

	forms.AddPage(taskFormName, c.taskForm, true, false)
	forms.AddPage(tagFormName, c.tagForm, true, false)
	forms.AddPage(gotoFormName, c.gotoForm, true, false)
	forms.AddPage(noteFormName, c.noteForm, true, false)

	grid := tview.NewGrid().SetBorders(true).SetRows(2, 0, 1)

	grid.AddItem(c.formTitle, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(forms, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.message, 2, 0, 1, 1, 0, 0, false)

	c.formPages = forms

	return grid
}

func (c *Controller) switchToForm(name, title string, form *tview.Form) {
	hints := ""
	for key, event := range c.formEvents {
		hints += fmt.Sprintf(" [orange]<%s>[white] %s", keyName(key), event.Description)
	}

	c.formTitle.SetText(fmt.Sprintf("[yellow]%s[white]%s", title, hints))

	c.mode = modeForm
	c.formPages.SwitchToPage(name)
	c.pages.SwitchToPage(formPage)

	form.SetFocus(0)
	c.app.SetFocus(form)
}

func inputText(form *tview.Form, label string) string {
	field, ok := form.GetFormItemByLabel(label).(*tview.InputField)
	if !ok {
		return ""
	}

	return field.GetText()
}

func clearInputs(form *tview.Form, labels ...string) {
	for _, label := range labels {
		if field, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
			field.SetText("")
		}
	}
}

func dropDownText(form *tview.Form, label string) string {
	dropDown, ok := form.GetFormItemByLabel(label).(*tview.DropDown)
	if !ok {
		return ""
	}

	_, text := dropDown.GetCurrentOption()

	return text
}

func (c *Controller) switchToTaskForm() {
	clearInputs(c.taskForm, "Text", "Scheduled", "Tag")
	c.switchToForm(taskFormName, "New Task", c.taskForm)
}

func (c *Controller) initTaskForm() {
	c.taskForm = tview.NewForm().
		AddInputField("Text", "", textMax, nil, nil).
		AddInputField("Scheduled", "", fieldMax, nil, nil).
		AddDropDown("Type", taskTypeOptions(), 0, nil).
		AddInputField("Tag", "", fieldMax, nil, nil)

	c.taskForm.AddButton("Save", func() {
		date, err := db.ParseScheduledDate(inputText(c.taskForm, "Scheduled"))
		if err != nil {
			c.report(err, "new task")

			return
		}

		in := db.TaskInput{
			Text:          inputText(c.taskForm, "Text"),
			ScheduledDate: date,
			TaskType:      db.TaskType(dropDownText(c.taskForm, "Type")),
		}

		if current := c.nav.State().Current; current.Kind == nav.KindNote {
			if note, err := c.db.Note(current.NoteID); err == nil && note.Type == db.NoteProject {
				in.ProjectID = note.ID
			}
		}

		log.Debug().Str("text", in.Text).Msg("saving new task")

		task, err := c.db.CreateTask(c.ctx, in)
		if err != nil {
			c.report(err, "new task")

			return
		}

		if path := inputText(c.taskForm, "Tag"); path != "" {
			if _, err := c.db.TagTask(c.ctx, task.ID, path); err != nil {
				c.report(err, "tag")
			}
		}

		c.nav.Dispatch(nav.SelectTask{ID: task.ID})
		c.info("created " + task.RefID)
		c.render()
	})
}

func (c *Controller) switchToTagForm() {
	clearInputs(c.tagForm, "Path")
	c.switchToForm(tagFormName, "Add Tag", c.tagForm)
}

func (c *Controller) initTagForm() {
	c.tagForm = tview.NewForm().AddInputField("Path", "", fieldMax, nil, nil)

	c.tagForm.AddButton("Save", func() {
		path := inputText(c.tagForm, "Path")
		state := c.nav.State()

		var err error

		switch {
		case state.Current.Kind == nav.KindNote:
			log.Debug().Str("note", state.Current.NoteID).Str("tag", path).Msg("tagging note")
			_, err = c.db.TagNote(c.ctx, state.Current.NoteID, path)
		case state.SelectedTask != "":
			log.Debug().Str("task", state.SelectedTask).Str("tag", path).Msg("tagging task")
			_, err = c.db.TagTask(c.ctx, state.SelectedTask, path)
		}

		if err != nil {
			c.report(err, "tag")

			return
		}

		c.render()
	})
}

func (c *Controller) switchToGotoForm() {
	clearInputs(c.gotoForm, "Target")
	c.switchToForm(gotoFormName, "Go To", c.gotoForm)
}

func (c *Controller) initGotoForm() {
	c.gotoForm = tview.NewForm().AddInputField("Target", "", fieldMax, nil, nil)

	c.gotoForm.AddButton("Go", func() {
		if _, err := c.nav.GoTo(inputText(c.gotoForm, "Target")); err != nil {
			c.report(err, "go to")

			return
		}

		c.report(nil, "")
		c.render()
	})
}

func (c *Controller) switchToNoteForm() {
	clearInputs(c.noteForm, "Title")
	c.switchToForm(noteFormName, "New Note", c.noteForm)
}

func (c *Controller) initNoteForm() {
	c.noteForm = tview.NewForm().
		AddInputField("Title", "", textMax, nil, nil).
		AddDropDown("Type", noteTypeOptions(), 0, nil)

	c.noteForm.AddButton("Save", func() {
		note, err := c.db.CreateNote(c.ctx, db.NoteInput{
			Title: inputText(c.noteForm, "Title"),
			Type:  db.NoteType(dropDownText(c.noteForm, "Type")),
		})
		if err != nil {
			c.report(err, "new note")

			return
		}

		c.info("created " + note.RefID)
		c.open(nav.NoteTarget(note.ID))
	})
}
