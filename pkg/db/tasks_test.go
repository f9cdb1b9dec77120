package db_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestCreateTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)

	first := addTask(t, database, "first")
	assert.Equal(db.StatusBacklog, first.Status)
	assert.Equal(db.Unscheduled, first.ScheduledDate)
	assert.Equal(0, first.Priority)
	assert.Regexp(`^T-[0-9A-F]{6}$`, first.RefID)

	second, err := database.CreateTask(ctx, db.TaskInput{Text: "second", ScheduledDate: "someday"})
	assert.NoError(err)
	assert.Equal(1, second.Priority)
	assert.Equal(db.Someday, second.ScheduledDate)
	assert.Equal(db.StatusBacklog, second.Status)

	today, err := database.CreateTask(ctx, db.TaskInput{Text: "today", ScheduledDate: "2025-06-10"})
	assert.NoError(err)
	assert.Equal(db.StatusPlanned, today.Status)
	assert.True(today.Starred)

	found, ok := database.FindTaskByRefID(second.RefID)
	assert.True(ok)
	assert.Equal(second.ID, found.ID)

	tasks := database.Tasks()
	assert.Len(tasks, 3)
	assert.Equal(first.ID, tasks[0].ID)
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database, _ := getDB(t)

	plain := addNote(t, database, "not a project")

	inputs := map[string]db.TaskInput{
		"empty text":       {},
		"overdue":          {Text: "x", Status: db.StatusOverdue},
		"bad status":       {Text: "x", Status: "WAITING"},
		"bad date":         {Text: "x", ScheduledDate: "next tuesday"},
		"bad task type":    {Text: "x", TaskType: "NAPPING"},
		"score too high":   {Text: "x", Value: 6},
		"non-project note": {Text: "x", ProjectID: plain.ID},
	}

	for name, in := range inputs {
		in := in

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := database.CreateTask(ctx, in)
			assert.True(t, errors.Is(err, db.ErrValidation), "got %v", err)
		})
	}

	_, err := database.CreateTask(ctx, db.TaskInput{Text: "x", ProjectID: "missing"})
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "draft")

	text := "final"
	effort := 4
	taskType := db.TaskTypeDeepWork

	updated, err := database.UpdateTask(ctx, task.ID, db.TaskUpdate{Text: &text, Effort: &effort, TaskType: &taskType})
	assert.NoError(err)
	assert.Equal("final", updated.Text)
	assert.Equal(4, updated.Effort)
	assert.Equal(db.TaskTypeDeepWork, updated.TaskType)
	assert.Equal(db.StatusBacklog, updated.Status)

	empty := ""
	_, err = database.UpdateTask(ctx, task.ID, db.TaskUpdate{Text: &empty})
	assert.True(errors.Is(err, db.ErrValidation))

	_, err = database.UpdateTask(ctx, "missing", db.TaskUpdate{Text: &text})
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestScheduleTaskPromotesBacklog(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "plan me")

	scheduled, err := database.ScheduleTask(ctx, task.ID, "2025-06-01")
	assert.NoError(err)
	assert.Equal(db.StatusPlanned, scheduled.Status)
	assert.Equal(db.ScheduledDate("2025-06-01"), scheduled.ScheduledDate)
	assert.False(scheduled.Starred)

	// persisted in the same write
	assert.NoError(database.Refresh(ctx))

	reloaded, err := database.Task(task.ID)
	assert.NoError(err)
	assert.Equal(db.StatusPlanned, reloaded.Status)
	assert.Equal(db.ScheduledDate("2025-06-01"), reloaded.ScheduledDate)
}

func TestScheduleTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "later")

	// sentinels are not concrete dates and leave BACKLOG alone
	scheduled, err := database.ScheduleTask(ctx, task.ID, "this_week")
	assert.NoError(err)
	assert.Equal(db.ThisWeek, scheduled.ScheduledDate)
	assert.Equal(db.StatusBacklog, scheduled.Status)

	doing, err := database.ChangeStatus(ctx, task.ID, db.StatusDoing)
	assert.NoError(err)
	assert.Equal(db.StatusDoing, doing.Status)

	// only BACKLOG is promoted
	scheduled, err = database.ScheduleTask(ctx, task.ID, "2025-06-10")
	assert.NoError(err)
	assert.Equal(db.StatusDoing, scheduled.Status)
	assert.True(scheduled.Starred)

	cleared, err := database.ScheduleTask(ctx, task.ID, "")
	assert.NoError(err)
	assert.Equal(db.Unscheduled, cleared.ScheduledDate)

	_, err = database.ScheduleTask(ctx, task.ID, "2025-13-45")
	assert.True(errors.Is(err, db.ErrValidation))
}

func TestChangeStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "any transition")

	for _, status := range []db.Status{db.StatusDone, db.StatusBlocked, db.StatusBacklog, db.StatusCancelled} {
		changed, err := database.ChangeStatus(ctx, task.ID, status)
		assert.NoError(err)
		assert.Equal(status, changed.Status)
	}

	_, err := database.ChangeStatus(ctx, task.ID, db.StatusOverdue)
	assert.True(errors.Is(err, db.ErrValidation))

	_, err = database.ChangeStatus(ctx, task.ID, "WAITING")
	assert.True(errors.Is(err, db.ErrValidation))

	_, err = database.ChangeStatus(ctx, "missing", db.StatusDone)
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestToggleComplete(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "finish")

	_, err := database.ChangeStatus(ctx, task.ID, db.StatusDoing)
	assert.NoError(err)

	done, err := database.ToggleComplete(ctx, task.ID)
	assert.NoError(err)
	assert.Equal(db.StatusDone, done.Status)

	// the prior DOING status is not restored
	undone, err := database.ToggleComplete(ctx, task.ID)
	assert.NoError(err)
	assert.Equal(db.StatusBacklog, undone.Status)
}

func TestToggleTaskStar(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "star")

	starred, err := database.ToggleTaskStar(ctx, task.ID)
	assert.NoError(err)
	assert.True(starred.Starred)

	unstarred, err := database.ToggleTaskStar(ctx, task.ID)
	assert.NoError(err)
	assert.False(unstarred.Starred)
}

func TestReorderTasks(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)

	ids := []string{}
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, addTask(t, database, text).ID)
	}

	reordered, err := database.ReorderTasks(ctx, ids, 4, 0)
	assert.NoError(err)
	assert.Len(reordered, 5)

	expected := []string{ids[4], ids[0], ids[1], ids[2], ids[3]}

	for i, task := range reordered {
		assert.Equal(i, task.Priority)
		assert.Equal(expected[i], task.ID)
	}

	assert.NoError(database.Refresh(ctx))

	for i, task := range database.Tasks() {
		assert.Equal(i, task.Priority)
		assert.Equal(expected[i], task.ID)
	}

	// moving down shifts the others up
	reordered, err = database.ReorderTasks(ctx, expected, 0, 2)
	assert.NoError(err)
	assert.Equal([]string{ids[0], ids[1], ids[4], ids[2], ids[3]}, taskIDs(reordered))
}

func TestReorderTasksErrors(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addTask(t, database, "a")
	b := addTask(t, database, "b")

	_, err := database.ReorderTasks(ctx, []string{a.ID, b.ID}, 2, 0)
	assert.True(errors.Is(err, db.ErrValidation))

	_, err = database.ReorderTasks(ctx, []string{a.ID, a.ID}, 1, 0)
	assert.True(errors.Is(err, db.ErrValidation))

	_, err = database.ReorderTasks(ctx, []string{a.ID, "missing"}, 1, 0)
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "gone")

	_, err := database.TagTask(ctx, task.ID, "work")
	assert.NoError(err)

	assert.NoError(database.DeleteTask(ctx, task.ID))

	_, err = database.Task(task.ID)
	assert.True(errors.Is(err, db.ErrNotFound))

	work, ok := database.TagByPath("work")
	assert.True(ok)

	tasks, err := database.GetTasksForTag(work.ID, false)
	assert.NoError(err)
	assert.Empty(tasks)

	assert.True(errors.Is(database.DeleteTask(ctx, task.ID), db.ErrNotFound))
}

func TestSweepOverdue(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, clock := getDB(t)

	planned, err := database.CreateTask(ctx, db.TaskInput{Text: "late", ScheduledDate: "2025-06-12"})
	assert.NoError(err)

	done, err := database.CreateTask(ctx, db.TaskInput{Text: "finished", ScheduledDate: "2025-06-12"})
	assert.NoError(err)

	_, err = database.ChangeStatus(ctx, done.ID, db.StatusDone)
	assert.NoError(err)

	someday, err := database.CreateTask(ctx, db.TaskInput{Text: "whenever", ScheduledDate: db.Someday})
	assert.NoError(err)

	current, err := database.CreateTask(ctx, db.TaskInput{Text: "today", ScheduledDate: "2025-06-13"})
	assert.NoError(err)

	// the next morning, the 12th is yesterday
	clock.Set(time.Date(2025, time.June, 13, 8, 0, 0, 0, time.UTC))

	swept, err := database.SweepOverdue(ctx)
	assert.NoError(err)
	assert.Equal(1, swept)

	statuses := map[string]db.Status{
		planned.ID: db.StatusOverdue,
		done.ID:    db.StatusDone,
		someday.ID: db.StatusBacklog,
		current.ID: db.StatusPlanned,
	}

	for id, expected := range statuses {
		task, err := database.Task(id)
		assert.NoError(err)
		assert.Equal(expected, task.Status, task.Text)
	}

	// idempotent
	swept, err = database.SweepOverdue(ctx)
	assert.NoError(err)
	assert.Equal(0, swept)

	assert.NoError(database.Refresh(ctx))

	reloaded, err := database.Task(planned.ID)
	assert.NoError(err)
	assert.Equal(db.StatusOverdue, reloaded.Status)
}

func TestScore(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(0.0, db.Task{}.Score())

	task := db.Task{Value: 5, Urgency: 4, Momentum: 3, Effort: 4}
	assert.InDelta(5*1.2*4*1.6*3*0.8/2, task.Score(), 1e-9)

	// effort floors at 1
	task.Effort = 0
	assert.InDelta(5*1.2*4*1.6*3*0.8, task.Score(), 1e-9)
	assert.False(math.IsInf(task.Score(), 0))
}

func TestParseScheduledDate(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	valid := map[string]db.ScheduledDate{
		"":           db.Unscheduled,
		"someday":    db.Someday,
		" THIS_WEEK": db.ThisWeek,
		"2025-02-28": "2025-02-28",
	}

	for in, expected := range valid {
		date, err := db.ParseScheduledDate(in)
		assert.NoError(err)
		assert.Equal(expected, date)
	}

	for _, in := range []string{"tomorrow", "2025-02-30", "06/10/2025"} {
		_, err := db.ParseScheduledDate(in)
		assert.True(errors.Is(err, db.ErrValidation), in)
	}

	assert.True(db.ScheduledDate("2025-06-09").Before("2025-06-10"))
	assert.False(db.Someday.Before("2025-06-10"))
	assert.False(db.ScheduledDate("2025-06-09").Before(db.ThisWeek))
}

func taskIDs(tasks []db.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	return ids
}
