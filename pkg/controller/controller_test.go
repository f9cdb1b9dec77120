package controller_test

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/trellis/pkg/controller"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestAsKey(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(controller.KeyQ, controller.AsKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.Equal(controller.KeyShiftJ, controller.AsKey(tcell.NewEventKey(tcell.KeyRune, 'J', tcell.ModShift)))
	assert.Equal(controller.Key3, controller.AsKey(tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone)))
	assert.Equal(tcell.KeyUp, controller.AsKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)))
	assert.Equal(controller.KeyShiftLeft, controller.AsKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift)))
	assert.Equal(tcell.KeyEnter, controller.AsKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
	assert.Equal(tcell.KeyRune, controller.AsKey(tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone)))
}

func TestViewContent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	content := controller.NewViewContent(func(id string) []db.Tag {
		return []db.Tag{{ID: "tag-" + id, FullPath: "work/" + id}}
	})

	assert.Equal(1, content.GetRowCount())
	assert.Equal("task", content.GetCell(0, 2).Text)
	assert.Nil(content.GetCell(1, 0))

	content.SetTasks([]db.Task{
		{ID: "a", RefID: "T-00000A", Text: "first", Status: db.StatusDoing, Starred: true},
		{ID: "b", RefID: "T-00000B", Text: "second [x]", Status: db.StatusBacklog, Value: 1, Urgency: 1, Momentum: 1},
	})

	assert.Equal(3, content.GetRowCount())
	assert.Equal(7, content.GetColumnCount())

	assert.Equal("*", content.GetCell(1, 0).Text)
	assert.Equal("a", content.GetCell(1, 0).GetReference())
	assert.Equal("T-00000B", content.GetCell(2, 1).Text)
	assert.Equal("DOING", content.GetCell(1, 3).Text)
	assert.Equal("1.5", content.GetCell(2, 5).Text)
	assert.Contains(content.GetCell(2, 6).Text, "work/b")
	assert.Nil(content.GetCell(3, 0))
	assert.Nil(content.GetCell(1, 7))

	task, ok := content.Task(2)
	assert.True(ok)
	assert.Equal("b", task.ID)

	_, ok = content.Task(0)
	assert.False(ok)

	assert.Equal(2, content.Row("b"))
	assert.Equal(0, content.Row("missing"))
}

func TestTagColorIsStable(t *testing.T) {
	t.Parallel()

	tag := db.Tag{ID: "7d3e", FullPath: "home"}

	assert.Equal(t, controller.TagColor(tag), controller.TagColor(tag))
	assert.Regexp(t, `^#[0-9A-F]{6}$`, controller.TagColor(tag))
}
