// Package controller is the terminal front end: the four task views and a note page whose links
// are followed with the arrow keys.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

type mode int

const (
	modeView mode = iota
	modeNote
	modeForm
)

const (
	notePage = "note"
	taskPage = "task"
)

// Controller mediates between the model and the view.
type Controller struct {
	ctx   context.Context
	db    *db.Database
	nav   *nav.Controller
	views *view.Engine
	app   *tview.Application
	pages *tview.Pages

	mode        mode
	viewTables  map[view.Name]*tview.Table
	viewContent map[view.Name]*ViewContent
	viewHeaders map[view.Name]*tview.Table
	noteText    *tview.TextView
	noteHeader  *tview.Table
	taskText    *tview.TextView
	message     *tview.TextView

	taskForm  *tview.Form
	tagForm   *tview.Form
	gotoForm  *tview.Form
	noteForm  *tview.Form
	formPages *tview.Pages
	formTitle *tview.TextView

	viewEvents map[tcell.Key]KeyEvent
	noteEvents map[tcell.Key]KeyEvent
	formEvents map[tcell.Key]KeyEvent
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	Action      func(*tcell.EventKey) *tcell.EventKey
}

// NewController creates a new Controller to run the app.
func NewController(ctx context.Context, database *db.Database) (*Controller, error) {
	c := Controller{
		ctx:         ctx,
		db:          database,
		nav:         nav.NewController(database),
		views:       view.NewEngine(database),
		app:         tview.NewApplication(),
		pages:       tview.NewPages(),
		viewTables:  map[view.Name]*tview.Table{},
		viewContent: map[view.Name]*ViewContent{},
		viewHeaders: map[view.Name]*tview.Table{},
		message:     tview.NewTextView().SetDynamicColors(true),
	}

	initKeys()
	c.initEvents()

	for _, name := range view.Names() {
		c.pages.AddPage(viewPage(name), c.getViewGrid(name), true, false)
	}

	c.pages.AddPage(notePage, c.getNoteGrid(), true, false)
	c.pages.AddPage(taskPage, c.getTaskGrid(), true, false)
	c.pages.AddPage(formPage, c.getFormGrid(), true, false)

	return &c, nil
}

// Go starts the app and blocks until it exits.
func (c *Controller) Go() error {
	c.render()

	c.app.SetInputCapture(c.handleKeys)

	if err := c.app.SetRoot(c.pages, true).Run(); err != nil {
		return fmt.Errorf("error running terminal ui: %w", err)
	}

	return nil
}

// render shows the page for the current navigation state.
func (c *Controller) render() {
	state := c.nav.State()

	switch state.Current.Kind {
	case nav.KindView:
		c.showView(state.Current.View)
	case nav.KindNote:
		c.showNote(state.Current.NoteID)
	case nav.KindTask:
		c.showTask(state.Current.TaskID)
	default:
		c.showNothing()
	}
}

func (c *Controller) handleKeys(evt *tcell.EventKey) *tcell.EventKey {
	var events map[tcell.Key]KeyEvent

	switch c.mode {
	case modeView:
		events = c.viewEvents
	case modeNote:
		events = c.noteEvents
	case modeForm:
		events = c.formEvents
	}

	if k, ok := events[AsKey(evt)]; ok {
		return k.Action(evt)
	}

	return evt
}

// report shows err on the message line. Expected kinds are shown as is; anything else is
// logged as well.
func (c *Controller) report(err error, action string) {
	if err == nil {
		c.message.SetText("")

		return
	}

	if !errors.Is(err, db.ErrNotFound) && !errors.Is(err, db.ErrValidation) &&
		!errors.Is(err, db.ErrProtected) {
		log.Error().Err(err).Str("action", action).Msg("ui action failed")
	}

	c.message.SetText(fmt.Sprintf("[red]%s: %s", action, tview.Escape(err.Error())))
}

func (c *Controller) info(text string) {
	c.message.SetText(fmt.Sprintf("[green]%s", tview.Escape(text)))
}
