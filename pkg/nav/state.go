package nav

import (
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
)

const maxHistory = 50

// Kind is the type of place a Target points at.
type Kind string

// These constants refer to the kinds of navigation targets.
const (
	KindNone Kind = ""
	KindNote Kind = "note"
	KindTask Kind = "task"
	KindView Kind = "view"
)

// Target is a place the app can show: a note, a task, or a task view.
type Target struct {
	Kind   Kind      `json:"kind"`
	NoteID string    `json:"note_id,omitempty"`
	TaskID string    `json:"task_id,omitempty"`
	View   view.Name `json:"view,omitempty"`
}

// NoteTarget points at a note.
func NoteTarget(id string) Target {
	return Target{Kind: KindNote, NoteID: id}
}

// TaskTarget points at a task.
func TaskTarget(id string) Target {
	return Target{Kind: KindTask, TaskID: id}
}

// ViewTarget points at a task view.
func ViewTarget(name view.Name) Target {
	return Target{Kind: KindView, View: name}
}

// IsZero reports whether t points nowhere.
func (t Target) IsZero() bool {
	return t.Kind == KindNone
}

func (t Target) references(kind Kind, id string) bool {
	switch kind {
	case KindNote:
		return t.Kind == KindNote && t.NoteID == id
	case KindTask:
		return t.Kind == KindTask && t.TaskID == id
	}

	return false
}

// State is everything the front end needs to know about where the user is.
// It is only changed through Reduce.
type State struct {
	Current      Target       `json:"current"`
	SelectedTask string       `json:"selected_task,omitempty"`
	Filters      view.Filters `json:"filters"`
	History      []Target     `json:"history,omitempty"`
}

// Action is a state transition.
type Action interface {
	reduce(s State) State
}

// Reduce returns the state after a. s is not modified.
func Reduce(s State, a Action) State {
	s.History = append([]Target(nil), s.History...)

	return a.reduce(s)
}

// Open moves to Target, remembering the current place for Back.
type Open struct {
	Target Target
}

func (a Open) reduce(s State) State {
	if a.Target == s.Current {
		return s
	}

	if !s.Current.IsZero() {
		s.History = append(s.History, s.Current)
		if len(s.History) > maxHistory {
			s.History = s.History[len(s.History)-maxHistory:]
		}
	}

	s.Current = a.Target

	if a.Target.Kind == KindTask {
		s.SelectedTask = a.Target.TaskID
	}

	return s
}

// Back returns to the previous place, if any.
type Back struct{}

func (Back) reduce(s State) State {
	if len(s.History) == 0 {
		return s
	}

	s.Current = s.History[len(s.History)-1]
	s.History = s.History[:len(s.History)-1]

	return s
}

// SelectTask highlights a task within the current view.
type SelectTask struct {
	ID string
}

func (a SelectTask) reduce(s State) State {
	s.SelectedTask = a.ID

	return s
}

// SetFilters replaces the view filters.
type SetFilters struct {
	Filters view.Filters
}

func (a SetFilters) reduce(s State) State {
	s.Filters = a.Filters

	return s
}

// ToggleStatusFilter adds the status to the filter set, or removes it if already selected.
type ToggleStatusFilter struct {
	Status db.Status
}

func (a ToggleStatusFilter) reduce(s State) State {
	statuses := []db.Status{}
	found := false

	for _, status := range s.Filters.Statuses {
		if status == a.Status {
			found = true

			continue
		}

		statuses = append(statuses, status)
	}

	if !found {
		statuses = append(statuses, a.Status)
	}

	s.Filters.Statuses = statuses

	return s
}

// NoteDeleted forgets a deleted note. If it was being shown, the state falls back to the home
// note, or to nowhere when there is no home.
type NoteDeleted struct {
	ID     string
	HomeID string
}

func (a NoteDeleted) reduce(s State) State {
	return forget(s, KindNote, a.ID, a.HomeID)
}

// TaskDeleted forgets a deleted task, with the same fallback as NoteDeleted.
type TaskDeleted struct {
	ID     string
	HomeID string
}

func (a TaskDeleted) reduce(s State) State {
	if s.SelectedTask == a.ID {
		s.SelectedTask = ""
	}

	return forget(s, KindTask, a.ID, a.HomeID)
}

func forget(s State, kind Kind, id, homeID string) State {
	history := []Target{}

	for _, t := range s.History {
		if !t.references(kind, id) {
			history = append(history, t)
		}
	}

	s.History = history

	if s.Current.references(kind, id) {
		s.Current = Target{}
		if homeID != "" && !(kind == KindNote && homeID == id) {
			s.Current = NoteTarget(homeID)
		}
	}

	return s
}
