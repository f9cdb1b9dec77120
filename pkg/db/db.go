package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed base.sql
var baseSQL string

// Clock returns the current time. "Today" is the calendar day of Clock() in its location.
type Clock func() time.Time

// Option configures a Database.
type Option func(*Database)

// WithClock overrides the time source, mostly for tests.
func WithClock(clock Clock) Option {
	return func(d *Database) {
		d.now = clock
	}
}

// Database owns the sqlite connection and an in-memory arena of every note, task and tag.
// sqlite is the authority: each mutation runs in a transaction under the write lock and the
// arena is only updated once the transaction has committed, so readers never observe a
// half-applied change.
type Database struct {
	conn *sql.DB
	now  Clock

	mu       sync.RWMutex
	notes    map[string]*Note
	tasks    map[string]*Task
	tags     map[string]*Tag
	tagPaths map[string]*Tag
	// association sets keyed by task/note id, then tag id
	taskTags map[string]map[string]struct{}
	noteTags map[string]map[string]struct{}
}

// NewDatabase connects to the sqlite database at the given filename, initializes the structure
// if not present, and loads existing data into memory.
func NewDatabase(ctx context.Context, filename string, opts ...Option) (*Database, error) {
	conn, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	// a single connection serializes writers at the driver level as well
	conn.SetMaxOpenConns(1)

	database := Database{
		conn: conn,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(&database)
	}

	err = database.initialize(ctx)
	if err != nil {
		conn.Close()

		return nil, err
	}

	err = database.loadData(ctx)
	if err != nil {
		conn.Close()

		return nil, err
	}

	return &database, nil
}

func (d *Database) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := d.conn.ExecContext(ctx, baseSQL); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.conn.Close()
}

// Now returns the current time of the database clock.
func (d *Database) Now() time.Time {
	return d.now()
}

// Refresh discards the in-memory state and reloads it from sqlite.
func (d *Database) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.loadData(ctx)
}

// loadData replaces the arena. The caller must hold the write lock (or own d exclusively).
func (d *Database) loadData(ctx context.Context) error {
	d.notes = map[string]*Note{}
	d.tasks = map[string]*Task{}
	d.tags = map[string]*Tag{}
	d.tagPaths = map[string]*Tag{}
	d.taskTags = map[string]map[string]struct{}{}
	d.noteTags = map[string]map[string]struct{}{}

	loaders := []func(context.Context) error{
		d.loadNotes,
		d.loadTasks,
		d.loadTags,
		d.loadTaskTags,
		d.loadNoteTags,
	}

	for _, load := range loaders {
		if err := load(ctx); err != nil {
			return err
		}
	}

	log.Debug().
		Int("notes", len(d.notes)).
		Int("tasks", len(d.tasks)).
		Int("tags", len(d.tags)).
		Msg("loaded data")

	return nil
}

func (d *Database) loadNotes(ctx context.Context) error {
	noteSQL := `SELECT id, ref_id, title, content, note_type, is_home, is_starred,
				       up_id, down_id, left_id, right_id, created_datetime, updated_datetime
				FROM note`

	rows, err := d.conn.QueryContext(ctx, noteSQL)
	if err != nil {
		return fmt.Errorf("error loading notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var note Note

		var up, down, left, right sql.NullString

		err = rows.Scan(&note.ID, &note.RefID, &note.Title, &note.Content, &note.Type, &note.IsHome,
			&note.IsStarred, &up, &down, &left, &right, &note.CreatedAt, &note.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error scanning notes: %w", err)
		}

		note.UpID, note.DownID, note.LeftID, note.RightID = up.String, down.String, left.String, right.String
		d.notes[note.ID] = &note
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error scanning notes: %w", err)
	}

	return nil
}

func (d *Database) loadTasks(ctx context.Context) error {
	taskSQL := `SELECT id, ref_id, text, status, scheduled_date, starred, task_type, work_type,
				       project_id, priority, value, urgency, momentum, effort, context, work_notes,
				       created_datetime, updated_datetime
				FROM task`

	rows, err := d.conn.QueryContext(ctx, taskSQL)
	if err != nil {
		return fmt.Errorf("error loading tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var task Task

		var project sql.NullString

		err = rows.Scan(&task.ID, &task.RefID, &task.Text, &task.Status, &task.ScheduledDate, &task.Starred,
			&task.TaskType, &task.WorkType, &project, &task.Priority, &task.Value, &task.Urgency,
			&task.Momentum, &task.Effort, &task.Context, &task.WorkNotes, &task.CreatedAt, &task.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error scanning tasks: %w", err)
		}

		task.ProjectID = project.String
		d.tasks[task.ID] = &task
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error scanning tasks: %w", err)
	}

	return nil
}

func (d *Database) loadTags(ctx context.Context) error {
	rows, err := d.conn.QueryContext(ctx, `SELECT id, name, full_path, level FROM tag`)
	if err != nil {
		return fmt.Errorf("error loading tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag Tag

		if err = rows.Scan(&tag.ID, &tag.Name, &tag.FullPath, &tag.Level); err != nil {
			return fmt.Errorf("error scanning tags: %w", err)
		}

		d.tags[tag.ID] = &tag
		d.tagPaths[tag.FullPath] = &tag
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error scanning tags: %w", err)
	}

	return nil
}

func (d *Database) loadTaskTags(ctx context.Context) error {
	return d.loadAssociations(ctx, `SELECT task_id, tag_id FROM task_tag`, d.taskTags)
}

func (d *Database) loadNoteTags(ctx context.Context) error {
	return d.loadAssociations(ctx, `SELECT note_id, tag_id FROM note_tag`, d.noteTags)
}

func (d *Database) loadAssociations(ctx context.Context, query string, into map[string]map[string]struct{}) error {
	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error loading tag associations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID, tagID string

		if err = rows.Scan(&ownerID, &tagID); err != nil {
			return fmt.Errorf("error scanning tag associations: %w", err)
		}

		// orphaned rows are skipped rather than resurrected
		if _, ok := d.tags[tagID]; !ok {
			continue
		}

		addAssociation(into, ownerID, tagID)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error scanning tag associations: %w", err)
	}

	return nil
}

// update runs fn in a transaction. The caller must hold the write lock. When fn reports a
// conflict the arena is reloaded from sqlite before the error is returned.
func (d *Database) update(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warn().Err(rbErr).Msg("error rolling back transaction")
		}

		if errors.Is(err, ErrConflict) {
			log.Warn().Err(err).Msg("local state diverged from the database; reloading")

			if loadErr := d.loadData(ctx); loadErr != nil {
				return fmt.Errorf("%w (reload failed: %s)", err, loadErr)
			}
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// execOne runs a statement that must touch exactly one row. Touching none means the row the
// arena knows about is gone from sqlite.
func execOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n != 1 {
		return fmt.Errorf("%w: expected 1 row to change, got %d", ErrConflict, n)
	}

	return nil
}

func (d *Database) logActivity(ctx context.Context, tx *sql.Tx, entity, entityID, action, detail string,
	at time.Time,
) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activity (id, entity, entity_id, action, detail, at_datetime) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), entity, entityID, action, detail, at,
	)
	if err != nil {
		return fmt.Errorf("error recording activity: %w", err)
	}

	log.Debug().Str("entity", entity).Str("id", entityID).Str("action", action).Msg(detail)

	return nil
}

// Activity returns up to limit activity entries, newest first. A limit <= 0 returns everything.
func (d *Database) Activity(ctx context.Context, limit int) ([]Activity, error) {
	query := `SELECT id, entity, entity_id, action, detail, at_datetime FROM activity ORDER BY at_datetime DESC, rowid DESC`
	args := []interface{}{}

	if limit > 0 {
		query += ` LIMIT $1`

		args = append(args, limit)
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error loading activity: %w", err)
	}
	defer rows.Close()

	entries := []Activity{}

	for rows.Next() {
		var a Activity

		if err = rows.Scan(&a.ID, &a.Entity, &a.EntityID, &a.Action, &a.Detail, &a.At); err != nil {
			return nil, fmt.Errorf("error scanning activity: %w", err)
		}

		entries = append(entries, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning activity: %w", err)
	}

	return entries, nil
}

// newRefID returns a short code such as "N-3FA9C1" that is not taken by exists.
func newRefID(prefix string, exists func(string) bool) string {
	for {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])

		refID := prefix + "-" + code
		if !exists(refID) {
			return refID
		}
	}
}

func nullable(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func addAssociation(set map[string]map[string]struct{}, ownerID, tagID string) bool {
	tags, ok := set[ownerID]
	if !ok {
		tags = map[string]struct{}{}
		set[ownerID] = tags
	}

	if _, ok := tags[tagID]; ok {
		return false
	}

	tags[tagID] = struct{}{}

	return true
}

func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority < tasks[j].Priority
		}

		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}

		return tasks[i].ID < tasks[j].ID
	})
}

func sortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		}

		return notes[i].ID < notes[j].ID
	})
}
