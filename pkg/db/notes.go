package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NoteInput holds the fields of a new note.
type NoteInput struct {
	Title   string   `json:"title" validate:"max=500"`
	Content string   `json:"content"`
	Type    NoteType `json:"note_type" validate:"omitempty,notetype"`
}

// NoteUpdate holds the note fields to change; nil fields are left alone.
type NoteUpdate struct {
	Title   *string   `json:"title" validate:"omitempty,max=500"`
	Content *string   `json:"content"`
	Type    *NoteType `json:"note_type" validate:"omitempty,notetype"`
}

// Notes returns a copy of every note, oldest first.
func (d *Database) Notes() []Note {
	d.mu.RLock()
	defer d.mu.RUnlock()

	notes := make([]Note, 0, len(d.notes))
	for _, n := range d.notes {
		notes = append(notes, *n)
	}

	sortNotes(notes)

	return notes
}

// Note returns a copy of the note with the given id.
func (d *Database) Note(id string) (Note, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	note, err := d.note(id)
	if err != nil {
		return Note{}, err
	}

	return *note, nil
}

func (d *Database) note(id string) (*Note, error) {
	note, ok := d.notes[id]
	if !ok {
		return nil, fmt.Errorf("%w: note %q", ErrNotFound, id)
	}

	return note, nil
}

// Home returns the home note, if one is set.
func (d *Database) Home() (Note, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, n := range d.notes {
		if n.IsHome {
			return *n, true
		}
	}

	return Note{}, false
}

// FindNoteByRefID looks a note up by its ref-id.
func (d *Database) FindNoteByRefID(refID string) (Note, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, n := range d.notes {
		if n.RefID == refID {
			return *n, true
		}
	}

	return Note{}, false
}

// NotesOfType returns the notes of type t, oldest first.
func (d *Database) NotesOfType(t NoteType) []Note {
	notes := []Note{}

	for _, n := range d.Notes() {
		if n.Type == t {
			notes = append(notes, n)
		}
	}

	return notes
}

func (d *Database) refIDTaken(refID string) bool {
	for _, n := range d.notes {
		if n.RefID == refID {
			return true
		}
	}

	return false
}

func (d *Database) newNote(in NoteInput) *Note {
	now := d.now()

	noteType := in.Type
	if noteType == "" {
		noteType = NotePlain
	}

	return &Note{
		ID:        uuid.NewString(),
		RefID:     newRefID("N", d.refIDTaken),
		Title:     in.Title,
		Content:   in.Content,
		Type:      noteType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Database) insertNote(ctx context.Context, tx *sql.Tx, note *Note) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO note (id, ref_id, title, content, note_type, is_home, is_starred,
		                   up_id, down_id, left_id, right_id, created_datetime, updated_datetime)
		     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		note.ID, note.RefID, note.Title, note.Content, note.Type, note.IsHome, note.IsStarred,
		nullable(note.UpID), nullable(note.DownID), nullable(note.LeftID), nullable(note.RightID),
		note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return d.logActivity(ctx, tx, "note", note.ID, "create", note.Title, note.CreatedAt)
}

// CreateNote adds a new, unlinked note.
func (d *Database) CreateNote(ctx context.Context, in NoteInput) (Note, error) {
	if err := validateStruct(in); err != nil {
		return Note{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	note := d.newNote(in)

	err := d.update(ctx, func(tx *sql.Tx) error {
		return d.insertNote(ctx, tx, note)
	})
	if err != nil {
		return Note{}, fmt.Errorf("error adding note %q: %w", in.Title, err)
	}

	d.notes[note.ID] = note

	return *note, nil
}

// UpdateNote changes the title, content or type of a note.
func (d *Database) UpdateNote(ctx context.Context, id string, in NoteUpdate) (Note, error) {
	if err := validateStruct(in); err != nil {
		return Note{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	note, err := d.note(id)
	if err != nil {
		return Note{}, err
	}

	updated := *note
	if in.Title != nil {
		updated.Title = *in.Title
	}

	if in.Content != nil {
		updated.Content = *in.Content
	}

	if in.Type != nil {
		updated.Type = *in.Type
	}

	updated.UpdatedAt = d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx,
			`UPDATE note SET title = $1, content = $2, note_type = $3, updated_datetime = $4 WHERE id = $5`,
			updated.Title, updated.Content, updated.Type, updated.UpdatedAt, id,
		)
		if err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "note", id, "update", updated.Title, updated.UpdatedAt)
	})
	if err != nil {
		return Note{}, fmt.Errorf("error updating note %s: %w", id, err)
	}

	*note = updated

	return updated, nil
}

// ToggleNoteStar flips is_starred on a note.
func (d *Database) ToggleNoteStar(ctx context.Context, id string) (Note, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	note, err := d.note(id)
	if err != nil {
		return Note{}, err
	}

	starred := !note.IsStarred
	now := d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		err := execOne(ctx, tx, `UPDATE note SET is_starred = $1, updated_datetime = $2 WHERE id = $3`,
			starred, now, id)
		if err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "note", id, "star", fmt.Sprintf("starred=%t", starred), now)
	})
	if err != nil {
		return Note{}, fmt.Errorf("error starring note %s: %w", id, err)
	}

	note.IsStarred = starred
	note.UpdatedAt = now

	return *note, nil
}

// SetHome makes id the home note, unsetting whichever note held it before.
func (d *Database) SetHome(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	note, err := d.note(id)
	if err != nil {
		return err
	}

	if note.IsHome {
		return nil
	}

	now := d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE note SET is_home = 0 WHERE is_home = 1`); err != nil {
			return err
		}

		if err := execOne(ctx, tx, `UPDATE note SET is_home = 1, updated_datetime = $1 WHERE id = $2`, now, id); err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "note", id, "home", note.Title, now)
	})
	if err != nil {
		return fmt.Errorf("error setting home note %s: %w", id, err)
	}

	for _, n := range d.notes {
		n.IsHome = false
	}

	note.IsHome = true
	note.UpdatedAt = now

	return nil
}

// SetLink links source to target in direction dir and target back to source in the opposite
// direction. Links previously held by either side in those fields are cleared on both ends so
// the graph stays symmetric.
func (d *Database) SetLink(ctx context.Context, sourceID, targetID string, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: unknown direction %q", ErrValidation, dir)
	}

	if sourceID == targetID {
		return fmt.Errorf("%w: note %s cannot link to itself", ErrValidation, sourceID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	source, err := d.note(sourceID)
	if err != nil {
		return err
	}

	target, err := d.note(targetID)
	if err != nil {
		return err
	}

	var apply func()

	err = d.update(ctx, func(tx *sql.Tx) error {
		apply, err = d.writeLink(ctx, tx, source, target, dir, d.now())

		return err
	})
	if err != nil {
		return fmt.Errorf("error setting %s link from %s to %s: %w", dir, sourceID, targetID, err)
	}

	apply()

	log.Debug().Str("note", sourceID).Str("target", targetID).Str("direction", string(dir)).Msg("linked notes")

	return nil
}

// writeLink issues the statements for a symmetric link and returns the matching in-memory change.
// target may not be in the arena yet (draft notes); it is only read, never looked up.
func (d *Database) writeLink(ctx context.Context, tx *sql.Tx, source, target *Note, dir Direction,
	now time.Time,
) (func(), error) {
	opp := dir.Opposite()

	type change struct {
		note *Note
		dir  Direction
		id   string
	}

	changes := []change{}

	// source used to point somewhere else: that note's back link goes away
	if old := source.Link(dir); old != "" && old != target.ID {
		if n, ok := d.notes[old]; ok && n.Link(opp) == source.ID {
			changes = append(changes, change{n, opp, ""})
		}
	}

	// target used to be pointed at from elsewhere: that note's forward link goes away
	if old := target.Link(opp); old != "" && old != source.ID {
		if n, ok := d.notes[old]; ok && n.Link(dir) == target.ID {
			changes = append(changes, change{n, dir, ""})
		}
	}

	changes = append(changes, change{source, dir, target.ID}, change{target, opp, source.ID})

	for _, c := range changes {
		query := fmt.Sprintf(`UPDATE note SET %s = $1, updated_datetime = $2 WHERE id = $3`, c.dir.column())
		if err := execOne(ctx, tx, query, nullable(c.id), now, c.note.ID); err != nil {
			return nil, err
		}
	}

	detail := fmt.Sprintf("%s -> %s", dir, target.ID)
	if err := d.logActivity(ctx, tx, "note", source.ID, "link", detail, now); err != nil {
		return nil, err
	}

	return func() {
		for _, c := range changes {
			c.note.setLink(c.dir, c.id)
			c.note.UpdatedAt = now
		}
	}, nil
}

// RemoveLink clears source's link in direction dir and the back link on the other note.
// Removing a link that is not set is a no-op.
func (d *Database) RemoveLink(ctx context.Context, sourceID string, dir Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: unknown direction %q", ErrValidation, dir)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	source, err := d.note(sourceID)
	if err != nil {
		return err
	}

	targetID := source.Link(dir)
	if targetID == "" {
		return nil
	}

	target := d.notes[targetID]
	clearTarget := target != nil && target.Link(dir.Opposite()) == sourceID
	now := d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`UPDATE note SET %s = NULL, updated_datetime = $1 WHERE id = $2`, dir.column())
		if err := execOne(ctx, tx, query, now, sourceID); err != nil {
			return err
		}

		if clearTarget {
			query = fmt.Sprintf(`UPDATE note SET %s = NULL, updated_datetime = $1 WHERE id = $2`, dir.Opposite().column())
			if err := execOne(ctx, tx, query, now, targetID); err != nil {
				return err
			}
		}

		return d.logActivity(ctx, tx, "note", sourceID, "unlink", fmt.Sprintf("%s -> %s", dir, targetID), now)
	})
	if err != nil {
		return fmt.Errorf("error removing %s link from %s: %w", dir, sourceID, err)
	}

	source.setLink(dir, "")
	source.UpdatedAt = now

	if clearTarget {
		target.setLink(dir.Opposite(), "")
		target.UpdatedAt = now
	}

	return nil
}

// CreateDraftLinkedNote creates an empty note linked to source in direction dir. If source
// already has a link in that direction nothing is created and the linked note is returned
// with created=false.
func (d *Database) CreateDraftLinkedNote(ctx context.Context, sourceID string, dir Direction) (Note, bool, error) {
	if !dir.Valid() {
		return Note{}, false, fmt.Errorf("%w: unknown direction %q", ErrValidation, dir)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	source, err := d.note(sourceID)
	if err != nil {
		return Note{}, false, err
	}

	if existingID := source.Link(dir); existingID != "" {
		existing, err := d.note(existingID)
		if err != nil {
			return Note{}, false, err
		}

		return *existing, false, nil
	}

	draft := d.newNote(NoteInput{})

	var apply func()

	err = d.update(ctx, func(tx *sql.Tx) error {
		if err := d.insertNote(ctx, tx, draft); err != nil {
			return err
		}

		apply, err = d.writeLink(ctx, tx, source, draft, dir, draft.CreatedAt)

		return err
	})
	if err != nil {
		return Note{}, false, fmt.Errorf("error drafting %s note for %s: %w", dir, sourceID, err)
	}

	d.notes[draft.ID] = draft
	apply()

	return *draft, true, nil
}

// DeleteNote removes a note after clearing every link that points at it. Tasks grouped under
// the note lose their project. The home note cannot be deleted.
func (d *Database) DeleteNote(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	note, err := d.note(id)
	if err != nil {
		return err
	}

	if note.IsHome {
		return fmt.Errorf("%w: note %s is the home note", ErrProtected, id)
	}

	now := d.now()

	err = d.update(ctx, func(tx *sql.Tx) error {
		for _, dir := range Directions() {
			query := fmt.Sprintf(`UPDATE note SET %[1]s = NULL, updated_datetime = $1 WHERE %[1]s = $2`, dir.column())
			if _, err := tx.ExecContext(ctx, query, now, id); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `UPDATE task SET project_id = NULL, updated_datetime = $1 WHERE project_id = $2`,
			now, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tag WHERE note_id = $1`, id); err != nil {
			return err
		}

		if err := execOne(ctx, tx, `DELETE FROM note WHERE id = $1`, id); err != nil {
			return err
		}

		return d.logActivity(ctx, tx, "note", id, "delete", note.Title, now)
	})
	if err != nil {
		return fmt.Errorf("error deleting note %s: %w", id, err)
	}

	for _, n := range d.notes {
		for _, dir := range Directions() {
			if n.Link(dir) == id {
				n.setLink(dir, "")
				n.UpdatedAt = now
			}
		}
	}

	for _, t := range d.tasks {
		if t.ProjectID == id {
			t.ProjectID = ""
			t.UpdatedAt = now
		}
	}

	delete(d.notes, id)
	delete(d.noteTags, id)

	log.Debug().Str("note", id).Msg("deleted note")

	return nil
}

// CountIsland returns how many notes are reachable from start over up, down and right links,
// start included. Left links are not followed.
func (d *Database) CountIsland(startID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := d.note(startID); err != nil {
		return 0, err
	}

	visited := map[string]struct{}{startID: {}}
	queue := []string{startID}

	for len(queue) > 0 {
		current := d.notes[queue[0]]
		queue = queue[1:]

		for _, dir := range []Direction{Up, Down, Right} {
			next := current.Link(dir)
			if next == "" {
				continue
			}

			if _, seen := visited[next]; seen {
				continue
			}

			if _, ok := d.notes[next]; !ok {
				continue
			}

			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	return len(visited), nil
}
