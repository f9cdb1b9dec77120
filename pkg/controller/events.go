package controller

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/rs/zerolog/log"
)

func (c *Controller) initEvents() {
	c.viewEvents = map[tcell.Key]KeyEvent{}
	c.noteEvents = map[tcell.Key]KeyEvent{}
	c.formEvents = map[tcell.Key]KeyEvent{}

	c.initShowEvents(c.viewEvents)
	c.initShowEvents(c.noteEvents)

	c.initNavEvents(c.viewEvents)
	c.initNavEvents(c.noteEvents)

	c.initMoveEvents(c.viewEvents)
	c.initFilterEvents(c.viewEvents)
	c.initTaskEvents(c.viewEvents)

	c.initNoteEvents(c.noteEvents)

	c.initExitEvent(c.viewEvents)
	c.initExitEvent(c.noteEvents)

	c.formEvents[tcell.KeyEscape] = KeyEvent{
		Description: "Cancel",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.render()

			return nil
		},
	}
}

func (c *Controller) getExitAction() func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		log.Info().Msg("terminating application")

		c.app.Stop()

		return nil
	}
}

func (c *Controller) initExitEvent(events map[tcell.Key]KeyEvent) {
	events[KeyQ] = KeyEvent{
		Description: "Exit",
		Action:      c.getExitAction(),
	}
}

func (c *Controller) open(target nav.Target) {
	c.nav.Dispatch(nav.Open{Target: target})
	c.render()
}

func (c *Controller) getShowAction(name view.Name) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		c.open(nav.ViewTarget(name))

		return nil
	}
}

func (c *Controller) initShowEvents(events map[tcell.Key]KeyEvent) {
	keys := []tcell.Key{Key1, Key2, Key3, Key4}

	for i, name := range view.Names() {
		events[keys[i]] = KeyEvent{
			Description: "Show " + name.Title(),
			Action:      c.getShowAction(name),
		}
	}
}

func (c *Controller) initNavEvents(events map[tcell.Key]KeyEvent) {
	events[KeyH] = KeyEvent{
		Description: "Home",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			_, err := c.nav.GoTo(nav.GoHome)
			c.report(err, "home")
			c.render()

			return nil
		},
	}

	events[KeyG] = KeyEvent{
		Description: "Go to",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToGotoForm()

			return nil
		},
	}

	events[tcell.KeyBackspace2] = KeyEvent{
		Description: "Back",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.nav.Dispatch(nav.Back{})
			c.render()

			return nil
		},
	}

	events[KeyR] = KeyEvent{
		Description: "Refresh",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			err := c.db.Refresh(c.ctx)
			if err == nil {
				var swept int

				swept, err = c.db.SweepOverdue(c.ctx)
				if err == nil && swept > 0 {
					c.render()
					c.info(fmt.Sprintf("%d overdue", swept))

					return nil
				}
			}

			c.report(err, "refresh")
			c.render()

			return nil
		},
	}

	events[KeyN] = KeyEvent{
		Description: "New task",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToTaskForm()

			return nil
		},
	}

	events[KeyShiftN] = KeyEvent{
		Description: "New note",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToNoteForm()

			return nil
		},
	}
}

func (c *Controller) getMoveAction(status db.Status) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		task, ok := c.selectedTask()
		if !ok {
			return nil
		}

		if _, err := c.db.ChangeStatus(c.ctx, task.ID, status); err != nil {
			log.Warn().Err(err).Str("task", task.ID).Str("status", string(status)).
				Msg("error while trying to change status")
			c.report(err, "status")

			return nil
		}

		c.render()

		return nil
	}
}

func (c *Controller) initMoveEvents(events map[tcell.Key]KeyEvent) {
	moves := map[tcell.Key]db.Status{
		KeyB: db.StatusBacklog,
		KeyP: db.StatusPlanned,
		KeyW: db.StatusDoing,
		KeyL: db.StatusBlocked,
		KeyC: db.StatusCancelled,
	}

	for key, status := range moves {
		events[key] = KeyEvent{
			Description: "Move to " + string(status),
			Action:      c.getMoveAction(status),
		}
	}
}

func (c *Controller) getFilterAction(status db.Status) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		c.nav.Dispatch(nav.ToggleStatusFilter{Status: status})
		c.render()

		return nil
	}
}

func (c *Controller) initFilterEvents(events map[tcell.Key]KeyEvent) {
	filters := map[tcell.Key]db.Status{
		KeyShiftB: db.StatusBacklog,
		KeyShiftP: db.StatusPlanned,
		KeyShiftW: db.StatusDoing,
		KeyShiftL: db.StatusBlocked,
		KeyShiftC: db.StatusCancelled,
	}

	for key, status := range filters {
		events[key] = KeyEvent{
			Description: "Filter " + string(status),
			Action:      c.getFilterAction(status),
		}
	}

	events[KeyShiftF] = KeyEvent{
		Description: "Filter clear",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.nav.Dispatch(nav.SetFilters{})
			c.render()

			return nil
		},
	}
}

// getTaskAction runs mutate on the selected task and redraws.
func (c *Controller) getTaskAction(name string, mutate func(id string) (db.Task, error)) func(*tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		task, ok := c.selectedTask()
		if !ok {
			return nil
		}

		_, err := mutate(task.ID)
		c.report(err, name)
		c.render()

		return nil
	}
}

func (c *Controller) initTaskEvents(events map[tcell.Key]KeyEvent) {
	events[KeyX] = KeyEvent{
		Description: "Complete",
		Action: c.getTaskAction("complete", func(id string) (db.Task, error) {
			return c.db.ToggleComplete(c.ctx, id)
		}),
	}

	events[KeyS] = KeyEvent{
		Description: "Star",
		Action: c.getTaskAction("star", func(id string) (db.Task, error) {
			return c.db.ToggleTaskStar(c.ctx, id)
		}),
	}

	events[KeyT] = KeyEvent{
		Description: "Tag",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if _, ok := c.selectedTask(); ok {
				c.switchToTagForm()
			}

			return nil
		},
	}

	events[KeyD] = KeyEvent{
		Description: "Delete task",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			task, ok := c.selectedTask()
			if !ok {
				return nil
			}

			_, err := c.nav.DeleteTask(c.ctx, task.ID)
			c.report(err, "delete")
			c.render()

			return nil
		},
	}

	events[tcell.KeyEnter] = KeyEvent{
		Description: "Open task",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			if task, ok := c.selectedTask(); ok {
				c.open(nav.TaskTarget(task.ID))
			}

			return nil
		},
	}

	events[KeyShiftK] = KeyEvent{
		Description: "Move up",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.reorderSelected(-1)

			return nil
		},
	}

	events[KeyShiftJ] = KeyEvent{
		Description: "Move down",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.reorderSelected(1)

			return nil
		},
	}
}

func (c *Controller) getTraverseAction(dir db.Direction) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		_, err := c.nav.Move(dir)
		c.report(err, "move "+string(dir))
		c.render()

		return nil
	}
}

func (c *Controller) getDraftAction(dir db.Direction) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		current := c.nav.State().Current

		note, _, err := c.db.CreateDraftLinkedNote(c.ctx, current.NoteID, dir)
		if err != nil {
			c.report(err, "link "+string(dir))

			return nil
		}

		c.open(nav.NoteTarget(note.ID))

		return nil
	}
}

func (c *Controller) initNoteEvents(events map[tcell.Key]KeyEvent) {
	arrows := map[tcell.Key]db.Direction{
		tcell.KeyUp:    db.Up,
		tcell.KeyDown:  db.Down,
		tcell.KeyLeft:  db.Left,
		tcell.KeyRight: db.Right,
	}

	drafts := map[tcell.Key]db.Direction{
		KeyShiftUp:    db.Up,
		KeyShiftDown:  db.Down,
		KeyShiftLeft:  db.Left,
		KeyShiftRight: db.Right,
	}

	for key, dir := range arrows {
		events[key] = KeyEvent{
			Description: "Follow " + string(dir),
			Action:      c.getTraverseAction(dir),
		}
	}

	for key, dir := range drafts {
		events[key] = KeyEvent{
			Description: "Link new " + string(dir),
			Action:      c.getDraftAction(dir),
		}
	}

	events[KeyS] = KeyEvent{
		Description: "Star",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			_, err := c.db.ToggleNoteStar(c.ctx, c.nav.State().Current.NoteID)
			c.report(err, "star")
			c.render()

			return nil
		},
	}

	events[KeyShiftH] = KeyEvent{
		Description: "Make home",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			err := c.db.SetHome(c.ctx, c.nav.State().Current.NoteID)
			c.report(err, "home")
			c.render()

			return nil
		},
	}

	events[KeyT] = KeyEvent{
		Description: "Tag",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToTagForm()

			return nil
		},
	}

	events[KeyD] = KeyEvent{
		Description: "Delete note",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			_, err := c.nav.DeleteNote(c.ctx, c.nav.State().Current.NoteID)
			c.report(err, "delete")
			c.render()

			return nil
		},
	}
}
