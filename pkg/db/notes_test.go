package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reload(t *testing.T, database *db.Database, id string) db.Note {
	t.Helper()

	note, err := database.Note(id)
	require.NoError(t, err)

	return note
}

func TestCreateNote(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)

	note, err := database.CreateNote(ctx, db.NoteInput{Title: "groceries", Content: "milk"})
	assert.NoError(err)
	assert.Equal(db.NotePlain, note.Type)
	assert.Regexp(`^N-[0-9A-F]{6}$`, note.RefID)
	assert.False(note.IsHome)

	found, ok := database.FindNoteByRefID(note.RefID)
	assert.True(ok)
	assert.Equal(note.ID, found.ID)

	_, err = database.CreateNote(ctx, db.NoteInput{Title: "bad", Type: "spreadsheet"})
	assert.True(errors.Is(err, db.ErrValidation))
}

func TestUpdateNote(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	note := addNote(t, database, "draft")

	title := "final"
	projectType := db.NoteProject

	updated, err := database.UpdateNote(ctx, note.ID, db.NoteUpdate{Title: &title, Type: &projectType})
	assert.NoError(err)
	assert.Equal("final", updated.Title)
	assert.Equal(db.NoteProject, updated.Type)
	assert.True(updated.UpdatedAt.After(note.UpdatedAt))

	assert.Len(database.NotesOfType(db.NoteProject), 1)

	_, err = database.UpdateNote(ctx, "missing", db.NoteUpdate{Title: &title})
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestToggleNoteStar(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	database, _ := getDB(t)
	note := addNote(t, database, "star me")

	starred, err := database.ToggleNoteStar(context.Background(), note.ID)
	assert.NoError(err)
	assert.True(starred.IsStarred)

	unstarred, err := database.ToggleNoteStar(context.Background(), note.ID)
	assert.NoError(err)
	assert.False(unstarred.IsStarred)
}

func TestSetLinkIsSymmetric(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	pairs := []struct {
		dir  db.Direction
		back db.Direction
	}{
		{db.Up, db.Down},
		{db.Down, db.Up},
		{db.Left, db.Right},
		{db.Right, db.Left},
	}

	for _, tc := range pairs {
		tc := tc

		t.Run(string(tc.dir), func(t *testing.T) {
			t.Parallel()

			assert := assert.New(t)

			database, _ := getDB(t)
			a := addNote(t, database, "a")
			b := addNote(t, database, "b")

			assert.NoError(database.SetLink(ctx, a.ID, b.ID, tc.dir))

			assert.Equal(b.ID, reload(t, database, a.ID).Link(tc.dir))
			assert.Equal(a.ID, reload(t, database, b.ID).Link(tc.back))
		})
	}
}

func TestSetLinkRewiresOldPartners(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")
	b := addNote(t, database, "b")
	c := addNote(t, database, "c")
	d := addNote(t, database, "d")

	assert.NoError(database.SetLink(ctx, a.ID, b.ID, db.Right))
	assert.NoError(database.SetLink(ctx, c.ID, d.ID, db.Right))

	// a now points right at d: b's left link and c's right link must both go away
	assert.NoError(database.SetLink(ctx, a.ID, d.ID, db.Right))

	assert.Equal(d.ID, reload(t, database, a.ID).RightID)
	assert.Equal(a.ID, reload(t, database, d.ID).LeftID)
	assert.Empty(reload(t, database, b.ID).LeftID)
	assert.Empty(reload(t, database, c.ID).RightID)

	// re-setting the same link changes nothing
	assert.NoError(database.SetLink(ctx, a.ID, d.ID, db.Right))
	assert.Equal(d.ID, reload(t, database, a.ID).RightID)
}

func TestSetLinkErrors(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")

	err := database.SetLink(ctx, a.ID, a.ID, db.Up)
	assert.True(errors.Is(err, db.ErrValidation))
	assert.Empty(reload(t, database, a.ID).UpID)

	err = database.SetLink(ctx, a.ID, "missing", db.Up)
	assert.True(errors.Is(err, db.ErrNotFound))

	err = database.SetLink(ctx, a.ID, "missing", db.Direction("sideways"))
	assert.True(errors.Is(err, db.ErrValidation))
}

func TestRemoveLink(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")
	b := addNote(t, database, "b")

	assert.NoError(database.SetLink(ctx, a.ID, b.ID, db.Down))
	assert.NoError(database.RemoveLink(ctx, a.ID, db.Down))

	assert.Empty(reload(t, database, a.ID).DownID)
	assert.Empty(reload(t, database, b.ID).UpID)

	// nothing left to remove
	assert.NoError(database.RemoveLink(ctx, a.ID, db.Down))
}

func TestDeleteNoteClearsLinks(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")
	b := addNote(t, database, "b")
	c := addNote(t, database, "c")

	assert.NoError(database.SetLink(ctx, a.ID, b.ID, db.Right))
	assert.NoError(database.SetLink(ctx, c.ID, b.ID, db.Up))

	assert.NoError(database.DeleteNote(ctx, b.ID))

	_, err := database.Note(b.ID)
	assert.True(errors.Is(err, db.ErrNotFound))

	for _, note := range database.Notes() {
		for _, dir := range db.Directions() {
			assert.NotEqual(b.ID, note.Link(dir))
		}
	}

	// the same holds after reloading from sqlite
	assert.NoError(database.Refresh(ctx))
	assert.Empty(reload(t, database, a.ID).RightID)
	assert.Empty(reload(t, database, c.ID).UpID)
}

func TestDeleteNoteUngroupsTasks(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)

	project, err := database.CreateNote(ctx, db.NoteInput{Title: "launch", Type: db.NoteProject})
	assert.NoError(err)

	task, err := database.CreateTask(ctx, db.TaskInput{Text: "write copy", ProjectID: project.ID})
	assert.NoError(err)

	grouped, err := database.ProjectTasks(project.ID)
	assert.NoError(err)
	assert.Len(grouped, 1)

	assert.NoError(database.DeleteNote(ctx, project.ID))

	reloaded, err := database.Task(task.ID)
	assert.NoError(err)
	assert.Empty(reloaded.ProjectID)
}

func TestDeleteHomeNoteIsProtected(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	home := addNote(t, database, "home")

	assert.NoError(database.SetHome(ctx, home.ID))

	err := database.DeleteNote(ctx, home.ID)
	assert.True(errors.Is(err, db.ErrProtected))

	_, err = database.Note(home.ID)
	assert.NoError(err)

	err = database.DeleteNote(ctx, "missing")
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestSetHomeKeepsSingleHome(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")
	b := addNote(t, database, "b")

	_, ok := database.Home()
	assert.False(ok)

	assert.NoError(database.SetHome(ctx, a.ID))
	assert.NoError(database.SetHome(ctx, b.ID))

	home, ok := database.Home()
	assert.True(ok)
	assert.Equal(b.ID, home.ID)
	assert.False(reload(t, database, a.ID).IsHome)

	// a is no longer home and can be deleted
	assert.NoError(database.DeleteNote(ctx, a.ID))

	assert.NoError(database.Refresh(ctx))

	homes := 0

	for _, n := range database.Notes() {
		if n.IsHome {
			homes++
		}
	}

	assert.Equal(1, homes)
}

func TestCreateDraftLinkedNote(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	a := addNote(t, database, "a")

	draft, created, err := database.CreateDraftLinkedNote(ctx, a.ID, db.Down)
	assert.NoError(err)
	assert.True(created)
	assert.Empty(draft.Title)
	assert.Equal(a.ID, draft.UpID)
	assert.Equal(draft.ID, reload(t, database, a.ID).DownID)

	// an occupied direction is followed, never overwritten
	again, created, err := database.CreateDraftLinkedNote(ctx, a.ID, db.Down)
	assert.NoError(err)
	assert.False(created)
	assert.Equal(draft.ID, again.ID)
	assert.Len(database.Notes(), 2)
}

func TestCountIsland(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	root := addNote(t, database, "root")
	child := addNote(t, database, "child")
	sibling := addNote(t, database, "sibling")
	lefty := addNote(t, database, "lefty")
	alone := addNote(t, database, "alone")

	assert.NoError(database.SetLink(ctx, root.ID, child.ID, db.Down))
	assert.NoError(database.SetLink(ctx, child.ID, sibling.ID, db.Right))
	// sibling points right at root, closing a cycle
	assert.NoError(database.SetLink(ctx, sibling.ID, root.ID, db.Right))
	// only reachable through a left link
	assert.NoError(database.SetLink(ctx, child.ID, lefty.ID, db.Left))

	count, err := database.CountIsland(root.ID)
	assert.NoError(err)
	assert.Equal(3, count)

	count, err = database.CountIsland(alone.ID)
	assert.NoError(err)
	assert.Equal(1, count)

	// lefty reaches the rest over its right link
	count, err = database.CountIsland(lefty.ID)
	assert.NoError(err)
	assert.Equal(4, count)

	_, err = database.CountIsland("missing")
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestNoteTags(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	note := addNote(t, database, "meeting notes")

	tags, err := database.TagNote(ctx, note.ID, "work/meetings")
	assert.NoError(err)
	assert.Len(tags, 2)

	work, ok := database.TagByPath("work")
	assert.True(ok)

	notes, err := database.NotesForTag(work.ID, false)
	assert.NoError(err)
	assert.Len(notes, 1)

	assert.NoError(database.UntagNote(ctx, note.ID, work.ID))

	remaining, err := database.NoteTags(note.ID)
	assert.NoError(err)
	assert.Empty(remaining)
}
