// Package nav resolves go-to targets, follows note links and keeps the navigation state.
package nav

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/rs/zerolog/log"
)

// Store is the part of the database navigation reads from.
type Store interface {
	Home() (db.Note, bool)
	Note(id string) (db.Note, error)
	Task(id string) (db.Task, error)
	FindNoteByRefID(refID string) (db.Note, bool)
	FindTaskByRefID(refID string) (db.Task, bool)
	NotesOfType(t db.NoteType) []db.Note
}

// Special go-to names that are not ref-ids.
const (
	GoHome     = "home"
	GoInbox    = "inbox"
	GoLog      = "log"
	GoProjects = "projects"
)

var listTypes = map[string]db.NoteType{
	GoInbox:    db.NoteInboxList,
	GoLog:      db.NoteLogList,
	GoProjects: db.NoteProjectList,
}

// Navigator turns user input into targets.
type Navigator struct {
	store Store
}

// NewNavigator creates a Navigator over store.
func NewNavigator(store Store) *Navigator {
	return &Navigator{store: store}
}

// Resolve maps a special name, a note or task ref-id, or a raw id to a Target.
func (n *Navigator) Resolve(input string) (Target, error) {
	name := strings.TrimSpace(input)
	lower := strings.ToLower(name)

	if lower == GoHome {
		home, ok := n.store.Home()
		if !ok {
			return Target{}, fmt.Errorf("%w: no home note is set", db.ErrNotFound)
		}

		return NoteTarget(home.ID), nil
	}

	if v, err := view.ParseName(lower); err == nil {
		return ViewTarget(v), nil
	}

	if noteType, ok := listTypes[lower]; ok {
		notes := n.store.NotesOfType(noteType)
		if len(notes) == 0 {
			return Target{}, fmt.Errorf("%w: no %s note", db.ErrNotFound, noteType)
		}

		return NoteTarget(notes[0].ID), nil
	}

	refID := strings.ToUpper(name)

	if note, ok := n.store.FindNoteByRefID(refID); ok {
		return NoteTarget(note.ID), nil
	}

	if task, ok := n.store.FindTaskByRefID(refID); ok {
		return TaskTarget(task.ID), nil
	}

	if _, err := n.store.Note(name); err == nil {
		return NoteTarget(name), nil
	}

	if _, err := n.store.Task(name); err == nil {
		return TaskTarget(name), nil
	}

	return Target{}, fmt.Errorf("%w: nothing called %q", db.ErrNotFound, input)
}

// Traverse returns the note linked from fromID in direction dir.
func (n *Navigator) Traverse(fromID string, dir db.Direction) (db.Note, error) {
	if !dir.Valid() {
		return db.Note{}, fmt.Errorf("%w: unknown direction %q", db.ErrValidation, dir)
	}

	from, err := n.store.Note(fromID)
	if err != nil {
		return db.Note{}, err
	}

	next := from.Link(dir)
	if next == "" {
		return db.Note{}, fmt.Errorf("%w: note %s has no %s link", db.ErrNotFound, fromID, dir)
	}

	return n.store.Note(next)
}

// Mutator is the part of the database the Controller writes through.
type Mutator interface {
	Store
	DeleteNote(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
}

// Controller owns the navigation State of one front end. All transitions go through Dispatch.
type Controller struct {
	*Navigator

	mu    sync.Mutex
	db    Mutator
	state State
}

// NewController creates a Controller starting at the home note, or at the Today view when
// there is no home.
func NewController(database Mutator) *Controller {
	c := Controller{
		Navigator: NewNavigator(database),
		db:        database,
		state:     State{Current: ViewTarget(view.Today)},
	}

	if home, ok := database.Home(); ok {
		c.state.Current = NoteTarget(home.ID)
	}

	return &c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.History = append([]Target(nil), s.History...)

	return s
}

// Dispatch applies a and returns the new state.
func (c *Controller) Dispatch(a Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Reduce(c.state, a)

	log.Debug().Str("action", fmt.Sprintf("%T", a)).Str("kind", string(c.state.Current.Kind)).Msg("navigated")

	return c.state
}

// GoTo resolves input and opens it.
func (c *Controller) GoTo(input string) (State, error) {
	target, err := c.Resolve(input)
	if err != nil {
		return c.State(), err
	}

	return c.Dispatch(Open{Target: target}), nil
}

// Move follows the link of the current note in direction dir.
func (c *Controller) Move(dir db.Direction) (State, error) {
	current := c.State().Current
	if current.Kind != KindNote {
		return c.State(), fmt.Errorf("%w: not looking at a note", db.ErrValidation)
	}

	next, err := c.Traverse(current.NoteID, dir)
	if err != nil {
		return c.State(), err
	}

	return c.Dispatch(Open{Target: NoteTarget(next.ID)}), nil
}

// DeleteNote deletes a note and moves away from it if it was being shown.
func (c *Controller) DeleteNote(ctx context.Context, id string) (State, error) {
	if err := c.db.DeleteNote(ctx, id); err != nil {
		return c.State(), err
	}

	return c.Dispatch(NoteDeleted{ID: id, HomeID: c.homeID()}), nil
}

// DeleteTask deletes a task and forgets it.
func (c *Controller) DeleteTask(ctx context.Context, id string) (State, error) {
	if err := c.db.DeleteTask(ctx, id); err != nil {
		return c.State(), err
	}

	return c.Dispatch(TaskDeleted{ID: id, HomeID: c.homeID()}), nil
}

func (c *Controller) homeID() string {
	home, ok := c.db.Home()
	if !ok {
		return ""
	}

	return home.ID
}
