package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// tagOwner describes one of the two association tables.
type tagOwner struct {
	entity string
	table  string
	column string
	set    func(d *Database) map[string]map[string]struct{}
	exists func(d *Database, id string) error
}

var (
	taskOwner = tagOwner{
		entity: "task",
		table:  "task_tag",
		column: "task_id",
		set:    func(d *Database) map[string]map[string]struct{} { return d.taskTags },
		exists: func(d *Database, id string) error {
			_, err := d.task(id)

			return err
		},
	}
	noteOwner = tagOwner{
		entity: "note",
		table:  "note_tag",
		column: "note_id",
		set:    func(d *Database) map[string]map[string]struct{} { return d.noteTags },
		exists: func(d *Database, id string) error {
			_, err := d.note(id)

			return err
		},
	}
)

// Tags returns every tag ordered by full path.
func (d *Database) Tags() []Tag {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tags := make([]Tag, 0, len(d.tags))
	for _, t := range d.tags {
		tags = append(tags, *t)
	}

	sortTags(tags)

	return tags
}

// Tag returns the tag with the given id.
func (d *Database) Tag(id string) (Tag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tag, err := d.tag(id)
	if err != nil {
		return Tag{}, err
	}

	return *tag, nil
}

func (d *Database) tag(id string) (*Tag, error) {
	tag, ok := d.tags[id]
	if !ok {
		return nil, fmt.Errorf("%w: tag %q", ErrNotFound, id)
	}

	return tag, nil
}

// TagByPath returns the tag with the given full path.
func (d *Database) TagByPath(path string) (Tag, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tag, ok := d.tagPaths[path]
	if !ok {
		return Tag{}, false
	}

	return *tag, true
}

// CreateTagsFromPath makes sure a tag exists for every prefix of path and returns them from
// root to leaf. Calling it again with the same path creates nothing.
func (d *Database) CreateTagsFromPath(ctx context.Context, path string) ([]Tag, error) {
	if err := ValidateTagPath(path); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		chain []*Tag
		apply func()
	)

	err := d.update(ctx, func(tx *sql.Tx) error {
		var err error

		chain, apply, err = d.ensureTags(ctx, tx, path)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating tags for %q: %w", path, err)
	}

	apply()

	return copyTags(chain), nil
}

// ensureTags inserts the missing levels of path. The returned func adds them to the arena.
func (d *Database) ensureTags(ctx context.Context, tx *sql.Tx, path string) ([]*Tag, func(), error) {
	segments := strings.Split(path, "/")
	chain := make([]*Tag, 0, len(segments))
	created := []*Tag{}

	for level := range segments {
		fullPath := strings.Join(segments[:level+1], "/")

		if tag, ok := d.tagPaths[fullPath]; ok {
			chain = append(chain, tag)

			continue
		}

		tag := &Tag{
			ID:       uuid.NewString(),
			Name:     segments[level],
			FullPath: fullPath,
			Level:    level,
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO tag (id, name, full_path, level) VALUES ($1, $2, $3, $4)`,
			tag.ID, tag.Name, tag.FullPath, tag.Level)
		if err != nil {
			return nil, nil, err
		}

		if err := d.logActivity(ctx, tx, "tag", tag.ID, "create", tag.FullPath, d.now()); err != nil {
			return nil, nil, err
		}

		chain = append(chain, tag)
		created = append(created, tag)
	}

	return chain, func() {
		for _, tag := range created {
			d.tags[tag.ID] = tag
			d.tagPaths[tag.FullPath] = tag
		}
	}, nil
}

// TagTask tags a task with path and every ancestor of path.
func (d *Database) TagTask(ctx context.Context, taskID, path string) ([]Tag, error) {
	return d.tagEntity(ctx, taskOwner, taskID, path)
}

// TagNote tags a note with path and every ancestor of path.
func (d *Database) TagNote(ctx context.Context, noteID, path string) ([]Tag, error) {
	return d.tagEntity(ctx, noteOwner, noteID, path)
}

func (d *Database) tagEntity(ctx context.Context, owner tagOwner, ownerID, path string) ([]Tag, error) {
	if err := ValidateTagPath(path); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := owner.exists(d, ownerID); err != nil {
		return nil, err
	}

	var (
		chain []*Tag
		apply func()
	)

	err := d.update(ctx, func(tx *sql.Tx) error {
		var err error

		chain, apply, err = d.ensureTags(ctx, tx, path)
		if err != nil {
			return err
		}

		current := owner.set(d)[ownerID]

		for _, tag := range chain {
			if _, ok := current[tag.ID]; ok {
				continue
			}

			query := fmt.Sprintf(`INSERT INTO %s (%s, tag_id) VALUES ($1, $2)`, owner.table, owner.column)
			if _, err := tx.ExecContext(ctx, query, ownerID, tag.ID); err != nil {
				return err
			}
		}

		return d.logActivity(ctx, tx, owner.entity, ownerID, "tag", path, d.now())
	})
	if err != nil {
		return nil, fmt.Errorf("error tagging %s %s with %q: %w", owner.entity, ownerID, path, err)
	}

	apply()

	for _, tag := range chain {
		addAssociation(owner.set(d), ownerID, tag.ID)
	}

	log.Debug().Str(owner.entity, ownerID).Str("tag", path).Msg("tagged")

	return copyTags(chain), nil
}

// UntagTask removes the tag and any of its descendants from a task. Ancestor tags stay.
func (d *Database) UntagTask(ctx context.Context, taskID, tagID string) error {
	return d.untagEntity(ctx, taskOwner, taskID, tagID)
}

// UntagNote removes the tag and any of its descendants from a note. Ancestor tags stay.
func (d *Database) UntagNote(ctx context.Context, noteID, tagID string) error {
	return d.untagEntity(ctx, noteOwner, noteID, tagID)
}

func (d *Database) untagEntity(ctx context.Context, owner tagOwner, ownerID, tagID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := owner.exists(d, ownerID); err != nil {
		return err
	}

	tag, err := d.tag(tagID)
	if err != nil {
		return err
	}

	removed := []string{}

	for id := range owner.set(d)[ownerID] {
		if tag.Covers(d.tags[id].FullPath) {
			removed = append(removed, id)
		}
	}

	if len(removed) == 0 {
		return nil
	}

	err = d.update(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND tag_id = $2`, owner.table, owner.column)

		for _, id := range removed {
			if err := execOne(ctx, tx, query, ownerID, id); err != nil {
				return err
			}
		}

		return d.logActivity(ctx, tx, owner.entity, ownerID, "untag", tag.FullPath, d.now())
	})
	if err != nil {
		return fmt.Errorf("error untagging %s %s from %q: %w", owner.entity, ownerID, tag.FullPath, err)
	}

	for _, id := range removed {
		delete(owner.set(d)[ownerID], id)
	}

	return nil
}

// DeleteTag removes a tag and its associations. Descendant tags are kept.
func (d *Database) DeleteTag(ctx context.Context, tagID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tag, err := d.tag(tagID)
	if err != nil {
		return err
	}

	err = d.update(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"task_tag", "note_tag"} {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE tag_id = $1`, table), tagID); err != nil {
				return err
			}
		}

		if err := execOne(ctx, tx, `DELETE FROM tag WHERE id = $1`, tagID); err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "tag", tagID, "delete", tag.FullPath, d.now())
	})
	if err != nil {
		return fmt.Errorf("error deleting tag %q: %w", tag.FullPath, err)
	}

	for _, set := range []map[string]map[string]struct{}{d.taskTags, d.noteTags} {
		for _, tags := range set {
			delete(tags, tagID)
		}
	}

	delete(d.tags, tagID)
	delete(d.tagPaths, tag.FullPath)

	return nil
}

// TaskTags returns every tag associated with a task, ordered by path.
func (d *Database) TaskTags(taskID string) ([]Tag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.task(taskID); err != nil {
		return nil, err
	}

	return d.associated(d.taskTags[taskID]), nil
}

// NoteTags returns every tag associated with a note, ordered by path.
func (d *Database) NoteTags(noteID string) ([]Tag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.note(noteID); err != nil {
		return nil, err
	}

	return d.associated(d.noteTags[noteID]), nil
}

func (d *Database) associated(ids map[string]struct{}) []Tag {
	tags := make([]Tag, 0, len(ids))
	for id := range ids {
		tags = append(tags, *d.tags[id])
	}

	sortTags(tags)

	return tags
}

// GetTaskLeafTags returns the deepest tag of each branch a task is tagged with: the associated
// tags that are not an ancestor of another associated tag.
func (d *Database) GetTaskLeafTags(taskID string) ([]Tag, error) {
	tags, err := d.TaskTags(taskID)
	if err != nil {
		return nil, err
	}

	leaves := []Tag{}

	for i, tag := range tags {
		leaf := true

		for j, other := range tags {
			if i != j && strings.HasPrefix(other.FullPath, tag.FullPath+"/") {
				leaf = false

				break
			}
		}

		if leaf {
			leaves = append(leaves, tag)
		}
	}

	return leaves, nil
}

// coveredTagIDs returns the id of tag plus, when includeDescendants is set, every tag below it.
func (d *Database) coveredTagIDs(tag *Tag, includeDescendants bool) map[string]struct{} {
	ids := map[string]struct{}{tag.ID: {}}

	if includeDescendants {
		for _, t := range d.tags {
			if tag.Covers(t.FullPath) {
				ids[t.ID] = struct{}{}
			}
		}
	}

	return ids
}

// GetTasksForTag returns the tasks associated with a tag, optionally including every task
// associated with one of its descendants. Each task appears once, in priority order.
func (d *Database) GetTasksForTag(tagID string, includeDescendants bool) ([]Task, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tag, err := d.tag(tagID)
	if err != nil {
		return nil, err
	}

	covered := d.coveredTagIDs(tag, includeDescendants)
	tasks := []Task{}

	for _, task := range d.taskList() {
		if intersects(d.taskTags[task.ID], covered) {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

// NotesForTag returns the notes associated with a tag, optionally including descendants.
func (d *Database) NotesForTag(tagID string, includeDescendants bool) ([]Note, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tag, err := d.tag(tagID)
	if err != nil {
		return nil, err
	}

	covered := d.coveredTagIDs(tag, includeDescendants)
	notes := []Note{}

	for _, note := range d.notes {
		if intersects(d.noteTags[note.ID], covered) {
			notes = append(notes, *note)
		}
	}

	sortNotes(notes)

	return notes, nil
}

// FilterTasksByTags keeps the tasks having at least one tag equal to, or below, one of the
// selected tags. An empty selection returns tasks unchanged.
func (d *Database) FilterTasksByTags(tasks []Task, selectedTagIDs []string) ([]Task, error) {
	if len(selectedTagIDs) == 0 {
		return tasks, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	selected := make([]*Tag, 0, len(selectedTagIDs))

	for _, id := range selectedTagIDs {
		tag, err := d.tag(id)
		if err != nil {
			return nil, err
		}

		selected = append(selected, tag)
	}

	kept := []Task{}

	for _, task := range tasks {
		if d.taskMatches(task.ID, selected) {
			kept = append(kept, task)
		}
	}

	return kept, nil
}

func (d *Database) taskMatches(taskID string, selected []*Tag) bool {
	for id := range d.taskTags[taskID] {
		path := d.tags[id].FullPath

		for _, tag := range selected {
			if tag.Covers(path) {
				return true
			}
		}
	}

	return false
}

func intersects(a, b map[string]struct{}) bool {
	for id := range a {
		if _, ok := b[id]; ok {
			return true
		}
	}

	return false
}

func copyTags(tags []*Tag) []Tag {
	copies := make([]Tag, 0, len(tags))
	for _, t := range tags {
		copies = append(copies, *t)
	}

	return copies
}

func sortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].FullPath < tags[j].FullPath
	})
}
