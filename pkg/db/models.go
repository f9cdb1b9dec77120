package db

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Direction names one of the four link fields of a note.
type Direction string

// These constants refer to the link directions supported by notes.
const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every link direction in a stable order.
func Directions() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown direction %q", ErrValidation, s)
	}

	return d, nil
}

// Valid reports whether d is one of the four link directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}

	return false
}

// Opposite returns the direction of the back link: up/down and left/right pair up.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}

	return ""
}

func (d Direction) column() string {
	return string(d) + "_id"
}

// NoteType is the closed set of note kinds.
type NoteType string

// These constants refer to the note types supported by the app.
const (
	NotePlain       NoteType = "plain"
	NoteTaskList    NoteType = "task_list"
	NoteProject     NoteType = "project"
	NoteProjectList NoteType = "project_list"
	NoteInboxList   NoteType = "inbox_list"
	NoteLogList     NoteType = "log_list"
	NoteDiagram     NoteType = "diagram"
	NoteMindmap     NoteType = "mindmap"
)

// Valid reports whether t belongs to the closed set of note types.
func (t NoteType) Valid() bool {
	switch t {
	case NotePlain, NoteTaskList, NoteProject, NoteProjectList,
		NoteInboxList, NoteLogList, NoteDiagram, NoteMindmap:
		return true
	}

	return false
}

// Note is a node of the link graph. Link fields hold the id of the linked note or "" for none.
// Notes handed out by the Database are copies; links only change through SetLink and RemoveLink.
type Note struct {
	ID        string    `json:"id"`
	RefID     string    `json:"ref_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Type      NoteType  `json:"note_type"`
	IsHome    bool      `json:"is_home"`
	IsStarred bool      `json:"is_starred"`
	UpID      string    `json:"up_id,omitempty"`
	DownID    string    `json:"down_id,omitempty"`
	LeftID    string    `json:"left_id,omitempty"`
	RightID   string    `json:"right_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link returns the id stored in the link field for d.
func (n Note) Link(d Direction) string {
	switch d {
	case Up:
		return n.UpID
	case Down:
		return n.DownID
	case Left:
		return n.LeftID
	case Right:
		return n.RightID
	}

	return ""
}

func (n *Note) setLink(d Direction, id string) {
	switch d {
	case Up:
		n.UpID = id
	case Down:
		n.DownID = id
	case Left:
		n.LeftID = id
	case Right:
		n.RightID = id
	}
}

// Status is the lifecycle state of a task.
type Status string

// These constants refer to the statuses supported by the app.
const (
	StatusBacklog   Status = "BACKLOG"
	StatusPlanned   Status = "PLANNED"
	StatusDoing     Status = "DOING"
	StatusBlocked   Status = "BLOCKED"
	StatusDone      Status = "DONE"
	StatusCancelled Status = "CANCELLED"
	// StatusOverdue is only ever assigned by SweepOverdue.
	StatusOverdue Status = "OVERDUE"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{
		StatusBacklog, StatusPlanned, StatusDoing, StatusBlocked,
		StatusDone, StatusCancelled, StatusOverdue,
	}
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses() {
		if status == known {
			return status, nil
		}
	}

	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// DateLayout is the ISO calendar date format used for scheduled dates.
const DateLayout = "2006-01-02"

// ScheduledDate is "", a concrete ISO date, or one of the sentinels ThisWeek and Someday.
// Sentinels are opaque tokens and never take part in date arithmetic.
type ScheduledDate string

// These constants refer to the non-calendar scheduled date values.
const (
	Unscheduled ScheduledDate = ""
	ThisWeek    ScheduledDate = "THIS_WEEK"
	Someday     ScheduledDate = "SOMEDAY"
)

// ParseScheduledDate validates s as "", a sentinel, or an ISO date.
func ParseScheduledDate(s string) (ScheduledDate, error) {
	s = strings.TrimSpace(s)

	switch ScheduledDate(strings.ToUpper(s)) {
	case Unscheduled:
		return Unscheduled, nil
	case ThisWeek:
		return ThisWeek, nil
	case Someday:
		return Someday, nil
	}

	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: scheduled date %q is not an ISO date, THIS_WEEK or SOMEDAY", ErrValidation, s)
	}

	return ScheduledDate(s), nil
}

// DateOf returns the concrete scheduled date for the calendar day containing t.
func DateOf(t time.Time) ScheduledDate {
	return ScheduledDate(t.Format(DateLayout))
}

// IsSentinel reports whether s is THIS_WEEK or SOMEDAY.
func (s ScheduledDate) IsSentinel() bool {
	return s == ThisWeek || s == Someday
}

// IsConcrete reports whether s holds a calendar date.
func (s ScheduledDate) IsConcrete() bool {
	return s != Unscheduled && !s.IsSentinel()
}

// Before reports whether s is a concrete date strictly before other (also concrete).
// ISO dates order lexically, so no parsing is needed.
func (s ScheduledDate) Before(other ScheduledDate) bool {
	return s.IsConcrete() && other.IsConcrete() && s < other
}

// TaskType classifies the kind of effort a task needs.
type TaskType string

// These constants refer to the task types supported by the app.
const (
	TaskTypeNone       TaskType = ""
	TaskTypeDeepWork   TaskType = "DEEP_WORK"
	TaskTypeQuickWins  TaskType = "QUICK_WINS"
	TaskTypeGruntWork  TaskType = "GRUNT_WORK"
	TaskTypePeopleTime TaskType = "PEOPLE_TIME"
	TaskTypeStrategic  TaskType = "STRATEGIC"
)

// WorkType is reactive or strategic.
type WorkType string

// These constants refer to the work types supported by the app.
const (
	WorkTypeNone      WorkType = ""
	WorkTypeReactive  WorkType = "reactive"
	WorkTypeStrategic WorkType = "strategic"
)

// Task is an entry of the task list.
type Task struct {
	ID            string        `json:"id"`
	RefID         string        `json:"ref_id"`
	Text          string        `json:"text"`
	Status        Status        `json:"status"`
	ScheduledDate ScheduledDate `json:"scheduled_date"`
	Starred       bool          `json:"starred"`
	TaskType      TaskType      `json:"task_type,omitempty"`
	WorkType      WorkType      `json:"work_type,omitempty"`
	ProjectID     string        `json:"project_id,omitempty"`
	// Priority is the manual ordering rank. ReorderTasks renumbers it densely from 0.
	Priority  int       `json:"priority"`
	Value     int       `json:"value"`
	Urgency   int       `json:"urgency"`
	Momentum  int       `json:"momentum"`
	Effort    int       `json:"effort"`
	Context   string    `json:"context"`
	WorkNotes string    `json:"work_notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score weighs value, urgency and momentum against the square root of effort.
// Unset inputs count as 0, except effort which never drops below 1.
func (t Task) Score() float64 {
	effort := t.Effort
	if effort < 1 {
		effort = 1
	}

	return (float64(t.Value) * 1.2) * (float64(t.Urgency) * 1.6) * (float64(t.Momentum) * 0.8) /
		math.Sqrt(float64(effort))
}

// Tag is one level of a slash-delimited tag hierarchy.
type Tag struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
	// Level is the 0-based depth: the number of slashes in FullPath.
	Level int `json:"level"`
}

// Covers reports whether path is t's own path or one of its descendants.
func (t Tag) Covers(path string) bool {
	return path == t.FullPath || strings.HasPrefix(path, t.FullPath+"/")
}

// Activity is one entry of the activity log.
type Activity struct {
	ID       string    `json:"id"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Action   string    `json:"action"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}
