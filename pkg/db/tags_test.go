package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/matt-steen/trellis/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagByPath(t *testing.T, database *db.Database, path string) db.Tag {
	t.Helper()

	tag, ok := database.TagByPath(path)
	require.True(t, ok, path)

	return tag
}

func TestValidateTagPath(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	for _, path := range []string{"work", "work/proj", "a/b/c", "Side Project/q3-plan_v2"} {
		assert.NoError(db.ValidateTagPath(path), path)
	}

	invalid := map[string]string{
		"":          "tag path is empty",
		"   ":       "tag path is empty",
		"/work":     "starts with a slash",
		"work/":     "ends with a slash",
		"work//x":   "contains consecutive slashes",
		"work/p@ss": "contains invalid character '@'",
	}

	for path, message := range invalid {
		err := db.ValidateTagPath(path)
		assert.True(errors.Is(err, db.ErrValidation), path)
		assert.Contains(err.Error(), message, path)
	}
}

func TestCreateTagsFromPath(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)

	tags, err := database.CreateTagsFromPath(ctx, "a/b/c")
	assert.NoError(err)
	assert.Len(tags, 3)

	for level, path := range []string{"a", "a/b", "a/b/c"} {
		assert.Equal(path, tags[level].FullPath)
		assert.Equal(level, tags[level].Level)
	}

	assert.Equal("c", tags[2].Name)

	again, err := database.CreateTagsFromPath(ctx, "a/b/c")
	assert.NoError(err)
	assert.Equal(tags, again)
	assert.Len(database.Tags(), 3)

	// a sibling branch only adds its own leaf
	_, err = database.CreateTagsFromPath(ctx, "a/d")
	assert.NoError(err)
	assert.Len(database.Tags(), 4)

	assert.NoError(database.Refresh(ctx))
	assert.Len(database.Tags(), 4)

	_, err = database.CreateTagsFromPath(ctx, "a//b")
	assert.True(errors.Is(err, db.ErrValidation))
	assert.Len(database.Tags(), 4)
}

func TestTagTaskTagsEveryLevel(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "tagged")

	_, err := database.TagTask(ctx, task.ID, "a/b/c")
	assert.NoError(err)

	// tagging again is a no-op
	_, err = database.TagTask(ctx, task.ID, "a/b/c")
	assert.NoError(err)

	tags, err := database.TaskTags(task.ID)
	assert.NoError(err)
	assert.Len(tags, 3)

	assert.NoError(database.Refresh(ctx))

	tags, err = database.TaskTags(task.ID)
	assert.NoError(err)
	assert.Len(tags, 3)

	_, err = database.TagTask(ctx, "missing", "a")
	assert.True(errors.Is(err, db.ErrNotFound))

	_, err = database.TagTask(ctx, task.ID, "/a")
	assert.True(errors.Is(err, db.ErrValidation))
}

func TestGetTasksForTag(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	parent := addTask(t, database, "parent")
	child := addTask(t, database, "child")
	both := addTask(t, database, "both")

	_, err := database.CreateTagsFromPath(ctx, "work/proj")
	assert.NoError(err)

	work := tagByPath(t, database, "work")
	proj := tagByPath(t, database, "work/proj")

	_, err = database.TagTask(ctx, parent.ID, "work")
	assert.NoError(err)
	_, err = database.TagTask(ctx, child.ID, "work/proj")
	assert.NoError(err)
	_, err = database.TagTask(ctx, both.ID, "work/proj")
	assert.NoError(err)

	direct, err := database.GetTasksForTag(proj.ID, false)
	assert.NoError(err)
	assert.Equal([]string{child.ID, both.ID}, taskIDs(direct))

	withDescendants, err := database.GetTasksForTag(work.ID, true)
	assert.NoError(err)
	assert.Equal([]string{parent.ID, child.ID, both.ID}, taskIDs(withDescendants))

	_, err = database.GetTasksForTag("missing", true)
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestFilterTasksByTags(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	t1 := addTask(t, database, "t1")
	t2 := addTask(t, database, "t2")
	t3 := addTask(t, database, "t3")

	_, err := database.TagTask(ctx, t1.ID, "work")
	assert.NoError(err)
	_, err = database.TagTask(ctx, t2.ID, "work/proj")
	assert.NoError(err)
	_, err = database.TagTask(ctx, t3.ID, "home")
	assert.NoError(err)

	all := database.Tasks()

	filtered, err := database.FilterTasksByTags(all, []string{tagByPath(t, database, "work").ID})
	assert.NoError(err)
	assert.Equal([]string{t1.ID, t2.ID}, taskIDs(filtered))

	filtered, err = database.FilterTasksByTags(all, []string{tagByPath(t, database, "work/proj").ID})
	assert.NoError(err)
	assert.Equal([]string{t2.ID}, taskIDs(filtered))

	filtered, err = database.FilterTasksByTags(all, []string{
		tagByPath(t, database, "work/proj").ID, tagByPath(t, database, "home").ID,
	})
	assert.NoError(err)
	assert.Equal([]string{t2.ID, t3.ID}, taskIDs(filtered))

	unfiltered, err := database.FilterTasksByTags(all, nil)
	assert.NoError(err)
	assert.Equal(all, unfiltered)

	_, err = database.FilterTasksByTags(all, []string{"missing"})
	assert.True(errors.Is(err, db.ErrNotFound))
}

func TestGetTaskLeafTags(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "leafy")

	_, err := database.TagTask(ctx, task.ID, "work/proj/alpha")
	assert.NoError(err)
	_, err = database.TagTask(ctx, task.ID, "work/admin")
	assert.NoError(err)
	_, err = database.TagTask(ctx, task.ID, "errands")
	assert.NoError(err)

	leaves, err := database.GetTaskLeafTags(task.ID)
	assert.NoError(err)

	paths := []string{}
	for _, tag := range leaves {
		paths = append(paths, tag.FullPath)
	}

	assert.Equal([]string{"errands", "work/admin", "work/proj/alpha"}, paths)
}

func TestUntagTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "untag")

	_, err := database.TagTask(ctx, task.ID, "a/b/c")
	assert.NoError(err)

	// removing the middle level takes its descendant with it, the root stays
	assert.NoError(database.UntagTask(ctx, task.ID, tagByPath(t, database, "a/b").ID))

	tags, err := database.TaskTags(task.ID)
	assert.NoError(err)
	assert.Len(tags, 1)
	assert.Equal("a", tags[0].FullPath)

	// not associated anymore: no-op
	assert.NoError(database.UntagTask(ctx, task.ID, tagByPath(t, database, "a/b").ID))

	// the tags themselves are untouched
	assert.Len(database.Tags(), 3)
}

func TestDeleteTagKeepsDescendants(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	database, _ := getDB(t)
	task := addTask(t, database, "tagged")
	note := addNote(t, database, "tagged")

	_, err := database.TagTask(ctx, task.ID, "work/proj")
	assert.NoError(err)
	_, err = database.TagNote(ctx, note.ID, "work")
	assert.NoError(err)

	work := tagByPath(t, database, "work")
	assert.NoError(database.DeleteTag(ctx, work.ID))

	_, err = database.Tag(work.ID)
	assert.True(errors.Is(err, db.ErrNotFound))

	// the child tag and its association survive
	proj := tagByPath(t, database, "work/proj")

	tasks, err := database.GetTasksForTag(proj.ID, false)
	assert.NoError(err)
	assert.Equal([]string{task.ID}, taskIDs(tasks))

	noteTags, err := database.NoteTags(note.ID)
	assert.NoError(err)
	assert.Empty(noteTags)

	assert.NoError(database.Refresh(ctx))
	assert.Len(database.Tags(), 1)

	tags, err := database.TaskTags(task.ID)
	assert.NoError(err)
	assert.Len(tags, 1)

	// recreating the parent path brings "work" back without duplicating "work/proj"
	_, err = database.CreateTagsFromPath(ctx, "work/proj")
	assert.NoError(err)
	assert.Len(database.Tags(), 2)
}
