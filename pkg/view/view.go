// Package view computes the task lists shown by the Today, Week, Tasks and Someday perspectives.
package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matt-steen/trellis/pkg/db"
)

// Name identifies a task-list perspective.
type Name string

// These constants refer to the views supported by the app.
const (
	Today   Name = "today"
	Week    Name = "week"
	Tasks   Name = "tasks"
	Someday Name = "someday"
)

// Names lists every view in display order.
func Names() []Name {
	return []Name{Today, Week, Tasks, Someday}
}

// ParseName converts user input into a view Name.
func ParseName(s string) (Name, error) {
	name := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Names() {
		if name == known {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: unknown view %q", db.ErrValidation, s)
}

// Title is the display label of a view.
func (n Name) Title() string {
	if n == "" {
		return ""
	}

	return strings.ToUpper(string(n[:1])) + string(n[1:])
}

// Filters narrow a view. Zero values impose no restriction.
type Filters struct {
	Statuses []db.Status `json:"statuses,omitempty"`
	TaskType db.TaskType `json:"task_type,omitempty"`
	TagIDs   []string    `json:"tag_ids,omitempty"`
}

// Empty reports whether no filter is selected.
func (f Filters) Empty() bool {
	return len(f.Statuses) == 0 && f.TaskType == db.TaskTypeNone && len(f.TagIDs) == 0
}

// TagFilter keeps the tasks matching at least one of the selected tags or their descendants.
type TagFilter interface {
	FilterTasksByTags(tasks []db.Task, selectedTagIDs []string) ([]db.Task, error)
}

// WeekBounds returns the Monday and Sunday of the week containing now.
func WeekBounds(now time.Time) (db.ScheduledDate, db.ScheduledDate) {
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day()-offset, 12, 0, 0, 0, now.Location())
	sunday := time.Date(monday.Year(), monday.Month(), monday.Day()+6, 12, 0, 0, 0, now.Location())

	return db.DateOf(monday), db.DateOf(sunday)
}

// Matches applies the base rule of view name to a single task.
func Matches(name Name, task db.Task, now time.Time) bool {
	today := db.DateOf(now)

	switch name {
	case Today:
		current := task.Status != db.StatusCancelled && task.ScheduledDate != db.Someday &&
			(task.Starred || task.ScheduledDate == today)
		finished := task.Status == db.StatusDone && db.DateOf(task.UpdatedAt.In(now.Location())) == today

		return current || finished
	case Week:
		if closed(task) || task.ScheduledDate == db.Someday {
			return false
		}

		monday, sunday := WeekBounds(now)

		switch {
		case task.ScheduledDate == db.Unscheduled, task.ScheduledDate == db.ThisWeek:
			return true
		case task.ScheduledDate.IsConcrete():
			return task.ScheduledDate >= monday && task.ScheduledDate <= sunday
		}

		return false
	case Tasks:
		return !closed(task) && task.ScheduledDate != db.Someday
	case Someday:
		return task.ScheduledDate == db.Someday && task.Status != db.StatusCancelled
	}

	return false
}

func closed(task db.Task) bool {
	return task.Status == db.StatusDone || task.Status == db.StatusCancelled
}

// Visible applies the base rule of view name and then every filter to tasks, keeping their order.
func Visible(tasks []db.Task, name Name, filters Filters, tags TagFilter, now time.Time) ([]db.Task, error) {
	if _, err := ParseName(string(name)); err != nil {
		return nil, err
	}

	statuses := map[db.Status]struct{}{}
	for _, s := range filters.Statuses {
		statuses[s] = struct{}{}
	}

	visible := []db.Task{}

	for _, task := range tasks {
		if !Matches(name, task, now) {
			continue
		}

		if len(statuses) > 0 {
			if _, ok := statuses[task.Status]; !ok {
				continue
			}
		}

		if filters.TaskType != db.TaskTypeNone && task.TaskType != filters.TaskType {
			continue
		}

		visible = append(visible, task)
	}

	if len(filters.TagIDs) == 0 {
		return visible, nil
	}

	return tags.FilterTasksByTags(visible, filters.TagIDs)
}

// Source is the part of the store a view Engine reads from.
type Source interface {
	TagFilter
	Tasks() []db.Task
	SweepOverdue(ctx context.Context) (int, error)
	Now() time.Time
}

// Engine serves views from a live store.
type Engine struct {
	source Source
}

// NewEngine creates an Engine over source.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Fetch runs the overdue sweep and then returns the visible tasks of view name.
func (e *Engine) Fetch(ctx context.Context, name Name, filters Filters) ([]db.Task, error) {
	if _, err := e.source.SweepOverdue(ctx); err != nil {
		return nil, err
	}

	return Visible(e.source.Tasks(), name, filters, e.source, e.source.Now())
}

// Counts returns the number of visible tasks per view, without filters.
func (e *Engine) Counts(ctx context.Context) (map[Name]int, error) {
	if _, err := e.source.SweepOverdue(ctx); err != nil {
		return nil, err
	}

	tasks := e.source.Tasks()
	now := e.source.Now()
	counts := map[Name]int{}

	for _, name := range Names() {
		for _, task := range tasks {
			if Matches(name, task, now) {
				counts[name]++
			}
		}
	}

	return counts, nil
}
