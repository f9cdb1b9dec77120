package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Text          string        `json:"text" validate:"required,max=1000"`
	Status        Status        `json:"status" validate:"omitempty,oneof=BACKLOG PLANNED DOING BLOCKED DONE CANCELLED"`
	ScheduledDate ScheduledDate `json:"scheduled_date" validate:"omitempty,scheduled"`
	Starred       bool          `json:"starred"`
	TaskType      TaskType      `json:"task_type" validate:"omitempty,oneof=DEEP_WORK QUICK_WINS GRUNT_WORK PEOPLE_TIME STRATEGIC"`
	WorkType      WorkType      `json:"work_type" validate:"omitempty,oneof=reactive strategic"`
	ProjectID     string        `json:"project_id"`
	Value         int           `json:"value" validate:"min=0,max=5"`
	Urgency       int           `json:"urgency" validate:"min=0,max=5"`
	Momentum      int           `json:"momentum" validate:"min=0,max=5"`
	Effort        int           `json:"effort" validate:"min=0,max=5"`
	Context       string        `json:"context"`
	WorkNotes     string        `json:"work_notes"`
}

// TaskUpdate holds the descriptive task fields to change; nil fields are left alone.
// Status, schedule and star have their own operations.
type TaskUpdate struct {
	Text      *string   `json:"text" validate:"omitempty,max=1000"`
	TaskType  *TaskType `json:"task_type" validate:"omitempty,oneof=DEEP_WORK QUICK_WINS GRUNT_WORK PEOPLE_TIME STRATEGIC"`
	WorkType  *WorkType `json:"work_type" validate:"omitempty,oneof=reactive strategic"`
	ProjectID *string   `json:"project_id"`
	Value     *int      `json:"value" validate:"omitempty,min=0,max=5"`
	Urgency   *int      `json:"urgency" validate:"omitempty,min=0,max=5"`
	Momentum  *int      `json:"momentum" validate:"omitempty,min=0,max=5"`
	Effort    *int      `json:"effort" validate:"omitempty,min=0,max=5"`
	Context   *string   `json:"context"`
	WorkNotes *string   `json:"work_notes"`
}

// Tasks returns a copy of every task in priority order.
func (d *Database) Tasks() []Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.taskList()
}

func (d *Database) taskList() []Task {
	tasks := make([]Task, 0, len(d.tasks))
	for _, t := range d.tasks {
		tasks = append(tasks, *t)
	}

	sortTasks(tasks)

	return tasks
}

// Task returns a copy of the task with the given id.
func (d *Database) Task(id string) (Task, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	return *task, nil
}

func (d *Database) task(id string) (*Task, error) {
	task, ok := d.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %q", ErrNotFound, id)
	}

	return task, nil
}

// FindTaskByRefID looks a task up by its ref-id.
func (d *Database) FindTaskByRefID(refID string) (Task, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.tasks {
		if t.RefID == refID {
			return *t, true
		}
	}

	return Task{}, false
}

// ProjectTasks returns the tasks grouped under a project note, in priority order.
func (d *Database) ProjectTasks(projectID string) ([]Task, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.note(projectID); err != nil {
		return nil, err
	}

	tasks := []Task{}

	for _, t := range d.taskList() {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}

	return tasks, nil
}

func (d *Database) checkProject(projectID string) error {
	if projectID == "" {
		return nil
	}

	note, err := d.note(projectID)
	if err != nil {
		return err
	}

	if note.Type != NoteProject {
		return fmt.Errorf("%w: note %s is a %s note, not a project", ErrValidation, projectID, note.Type)
	}

	return nil
}

// schedule applies the scheduling conventions: a concrete date promotes BACKLOG to PLANNED and
// a task scheduled for today joins the starred set.
func schedule(task *Task, date ScheduledDate, today ScheduledDate) {
	task.ScheduledDate = date

	if date.IsConcrete() && task.Status == StatusBacklog {
		task.Status = StatusPlanned
	}

	if date == today {
		task.Starred = true
	}
}

func (d *Database) nextPriority() int {
	next := 0

	for _, t := range d.tasks {
		if t.Priority >= next {
			next = t.Priority + 1
		}
	}

	return next
}

func (d *Database) taskRefIDTaken(refID string) bool {
	for _, t := range d.tasks {
		if t.RefID == refID {
			return true
		}
	}

	return false
}

// CreateTask adds a task at the end of the priority order.
func (d *Database) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	if err := validateStruct(in); err != nil {
		return Task{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkProject(in.ProjectID); err != nil {
		return Task{}, err
	}

	now := d.now()

	task := &Task{
		ID:        uuid.NewString(),
		RefID:     newRefID("T", d.taskRefIDTaken),
		Text:      in.Text,
		Status:    in.Status,
		Starred:   in.Starred,
		TaskType:  in.TaskType,
		WorkType:  in.WorkType,
		ProjectID: in.ProjectID,
		Priority:  d.nextPriority(),
		Value:     in.Value,
		Urgency:   in.Urgency,
		Momentum:  in.Momentum,
		Effort:    in.Effort,
		Context:   in.Context,
		WorkNotes: in.WorkNotes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if task.Status == "" {
		task.Status = StatusBacklog
	}

	// already validated; this only normalizes the sentinel spelling
	date, _ := ParseScheduledDate(string(in.ScheduledDate))
	schedule(task, date, DateOf(now))

	err := d.update(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task (id, ref_id, text, status, scheduled_date, starred, task_type, work_type,
			                   project_id, priority, value, urgency, momentum, effort, context, work_notes,
			                   created_datetime, updated_datetime)
			     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			task.ID, task.RefID, task.Text, task.Status, task.ScheduledDate, task.Starred, task.TaskType,
			task.WorkType, nullable(task.ProjectID), task.Priority, task.Value, task.Urgency, task.Momentum,
			task.Effort, task.Context, task.WorkNotes, task.CreatedAt, task.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "task", task.ID, "create", task.Text, now)
	})
	if err != nil {
		return Task{}, fmt.Errorf("error adding task %q: %w", in.Text, err)
	}

	d.tasks[task.ID] = task

	return *task, nil
}

// UpdateTask changes the descriptive fields of a task.
func (d *Database) UpdateTask(ctx context.Context, id string, in TaskUpdate) (Task, error) {
	if err := validateStruct(in); err != nil {
		return Task{}, err
	}

	if in.Text != nil && *in.Text == "" {
		return Task{}, fmt.Errorf("%w: task text cannot be empty", ErrValidation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	updated := *task
	applyTaskUpdate(&updated, in)

	if in.ProjectID != nil {
		if err := d.checkProject(updated.ProjectID); err != nil {
			return Task{}, err
		}
	}

	updated.UpdatedAt = d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx,
			`UPDATE task SET text = $1, task_type = $2, work_type = $3, project_id = $4, value = $5,
			                 urgency = $6, momentum = $7, effort = $8, context = $9, work_notes = $10,
			                 updated_datetime = $11
			  WHERE id = $12`,
			updated.Text, updated.TaskType, updated.WorkType, nullable(updated.ProjectID), updated.Value,
			updated.Urgency, updated.Momentum, updated.Effort, updated.Context, updated.WorkNotes,
			updated.UpdatedAt, id,
		)
		if err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "task", id, "update", updated.Text, updated.UpdatedAt)
	})
	if err != nil {
		return Task{}, fmt.Errorf("error updating task %s: %w", id, err)
	}

	*task = updated

	return updated, nil
}

func applyTaskUpdate(task *Task, in TaskUpdate) {
	if in.Text != nil {
		task.Text = *in.Text
	}

	if in.TaskType != nil {
		task.TaskType = *in.TaskType
	}

	if in.WorkType != nil {
		task.WorkType = *in.WorkType
	}

	if in.ProjectID != nil {
		task.ProjectID = *in.ProjectID
	}

	ints := []struct {
		from *int
		to   *int
	}{
		{in.Value, &task.Value},
		{in.Urgency, &task.Urgency},
		{in.Momentum, &task.Momentum},
		{in.Effort, &task.Effort},
	}

	for _, field := range ints {
		if field.from != nil {
			*field.to = *field.from
		}
	}

	if in.Context != nil {
		task.Context = *in.Context
	}

	if in.WorkNotes != nil {
		task.WorkNotes = *in.WorkNotes
	}
}

// saveState persists status, schedule and star of a task. The caller holds the write lock.
func (d *Database) saveState(ctx context.Context, task *Task, updated Task, action, detail string) error {
	updated.UpdatedAt = d.now()

	err := d.update(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx,
			`UPDATE task SET status = $1, scheduled_date = $2, starred = $3, updated_datetime = $4 WHERE id = $5`,
			updated.Status, updated.ScheduledDate, updated.Starred, updated.UpdatedAt, task.ID,
		)
		if err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "task", task.ID, action, detail, updated.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("error saving %s for task %s: %w", action, task.ID, err)
	}

	*task = updated

	log.Debug().Str("task", task.ID).Str("status", string(task.Status)).
		Str("scheduled", string(task.ScheduledDate)).Bool("starred", task.Starred).Msg(action)

	return nil
}

// ChangeStatus sets a task's status. OVERDUE is reserved for SweepOverdue.
func (d *Database) ChangeStatus(ctx context.Context, id string, status Status) (Task, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return Task{}, err
	}

	if status == StatusOverdue {
		return Task{}, fmt.Errorf("%w: %s is assigned by the overdue sweep only", ErrValidation, StatusOverdue)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	updated := *task
	updated.Status = status

	if err := d.saveState(ctx, task, updated, "status", string(status)); err != nil {
		return Task{}, err
	}

	return *task, nil
}

// ScheduleTask sets the scheduled date. A concrete date promotes a BACKLOG task to PLANNED in
// the same write.
func (d *Database) ScheduleTask(ctx context.Context, id string, date ScheduledDate) (Task, error) {
	date, err := ParseScheduledDate(string(date))
	if err != nil {
		return Task{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	updated := *task
	schedule(&updated, date, DateOf(d.now()))

	if err := d.saveState(ctx, task, updated, "schedule", string(date)); err != nil {
		return Task{}, err
	}

	return *task, nil
}

// ToggleTaskStar flips membership in the Today working set.
func (d *Database) ToggleTaskStar(ctx context.Context, id string) (Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	updated := *task
	updated.Starred = !task.Starred

	if err := d.saveState(ctx, task, updated, "star", fmt.Sprintf("starred=%t", updated.Starred)); err != nil {
		return Task{}, err
	}

	return *task, nil
}

// ToggleComplete marks a task DONE, or puts a DONE task back to BACKLOG.
func (d *Database) ToggleComplete(ctx context.Context, id string) (Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return Task{}, err
	}

	updated := *task
	if task.Status == StatusDone {
		updated.Status = StatusBacklog
	} else {
		updated.Status = StatusDone
	}

	if err := d.saveState(ctx, task, updated, "status", string(updated.Status)); err != nil {
		return Task{}, err
	}

	return *task, nil
}

// ReorderTasks moves the task at index from to index to within ids, which must be the complete
// current ordering, and renumbers priorities 0..N-1 in the new order.
func (d *Database) ReorderTasks(ctx context.Context, ids []string, from, to int) ([]Task, error) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("%w: cannot move index %d to %d in %d tasks", ErrValidation, from, to, len(ids))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[string]struct{}{}

	for _, id := range ids {
		if _, err := d.task(id); err != nil {
			return nil, err
		}

		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: task %s listed twice", ErrValidation, id)
		}

		seen[id] = struct{}{}
	}

	ordered := make([]string, 0, len(ids))
	ordered = append(ordered, ids[:from]...)
	ordered = append(ordered, ids[from+1:]...)
	ordered = append(ordered[:to], append([]string{ids[from]}, ordered[to:]...)...)

	now := d.now()

	err := d.update(ctx, func(tx *sql.Tx) error {
		for priority, id := range ordered {
			err := execOne(ctx, tx, `UPDATE task SET priority = $1, updated_datetime = $2 WHERE id = $3`,
				priority, now, id)
			if err != nil {
				return err
			}
		}

		return d.logActivity(ctx, tx, "task", ids[from], "reorder", fmt.Sprintf("%d -> %d", from, to), now)
	})
	if err != nil {
		return nil, fmt.Errorf("error reordering tasks: %w", err)
	}

	result := make([]Task, 0, len(ordered))

	for priority, id := range ordered {
		task := d.tasks[id]
		task.Priority = priority
		task.UpdatedAt = now
		result = append(result, *task)
	}

	return result, nil
}

// DeleteTask removes a task and its tag associations.
func (d *Database) DeleteTask(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, err := d.task(id)
	if err != nil {
		return err
	}

	err = d.update(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_tag WHERE task_id = $1`, id); err != nil {
			return err
		}

		if err := execOne(ctx, tx, `DELETE FROM task WHERE id = $1`, id); err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "task", id, "delete", task.Text, d.now())
	})
	if err != nil {
		return fmt.Errorf("error deleting task %s: %w", id, err)
	}

	delete(d.tasks, id)
	delete(d.taskTags, id)

	return nil
}

// SweepOverdue moves every task scheduled strictly before today that is not DONE, CANCELLED or
// already OVERDUE to OVERDUE. It is idempotent and returns the number of tasks it changed.
func (d *Database) SweepOverdue(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	today := DateOf(now)

	due := []*Task{}

	for _, t := range d.tasks {
		switch t.Status {
		case StatusDone, StatusCancelled, StatusOverdue:
			continue
		}

		if t.ScheduledDate.Before(today) {
			due = append(due, t)
		}
	}

	if len(due) == 0 {
		return 0, nil
	}

	err := d.update(ctx, func(tx *sql.Tx) error {
		for _, t := range due {
			err := execOne(ctx, tx, `UPDATE task SET status = $1, updated_datetime = $2 WHERE id = $3`,
				StatusOverdue, now, t.ID)
			if err != nil {
				return err
			}

			if err := d.logActivity(ctx, tx, "task", t.ID, "overdue", string(t.ScheduledDate), now); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error sweeping overdue tasks: %w", err)
	}

	for _, t := range due {
		t.Status = StatusOverdue
		t.UpdatedAt = now
	}

	log.Info().Int("tasks", len(due)).Str("today", string(today)).Msg("marked tasks overdue")

	return len(due), nil
}
