package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matt-steen/trellis/pkg/api"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func getServer(t *testing.T) (*api.Server, *db.Database) {
	t.Helper()

	now := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	database, err := db.NewDatabase(context.Background(), filepath.Join(t.TempDir(), "api.sqlite"),
		db.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	t.Cleanup(func() { database.Close() })

	return api.NewServer(database), database
}

func call(t *testing.T, srv http.Handler, method, path string, body interface{}, data interface{}) envelope {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, rec.Code, env.Code)

	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}

	return env
}

func TestNoteRoutes(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var home, a db.Note

	env := call(t, srv, http.MethodPost, "/api/notes", map[string]string{"title": "home"}, &home)
	assert.Equal(http.StatusCreated, env.Code)
	assert.Equal("home", home.Title)

	call(t, srv, http.MethodPost, "/api/notes", map[string]string{"title": "a"}, &a)

	env = call(t, srv, http.MethodPost, "/api/notes/"+home.ID+"/home", nil, &home)
	assert.Equal(http.StatusOK, env.Code)
	assert.True(home.IsHome)

	env = call(t, srv, http.MethodPut, "/api/notes/"+a.ID+"/links/left", map[string]string{"target_id": home.ID}, &a)
	assert.Equal(http.StatusOK, env.Code)
	assert.Equal(home.ID, a.LeftID)

	call(t, srv, http.MethodGet, "/api/home", nil, &home)
	assert.Equal(a.ID, home.RightID)

	var island struct {
		Count int `json:"count"`
	}

	call(t, srv, http.MethodGet, "/api/notes/"+home.ID+"/island", nil, &island)
	assert.Equal(2, island.Count)

	env = call(t, srv, http.MethodDelete, "/api/notes/"+home.ID, nil, nil)
	assert.Equal(http.StatusForbidden, env.Code)

	env = call(t, srv, http.MethodDelete, "/api/notes/"+a.ID, nil, nil)
	assert.Equal(http.StatusOK, env.Code)

	var after db.Note

	call(t, srv, http.MethodGet, "/api/notes/"+home.ID, nil, &after)
	assert.True(after.IsHome)
	assert.Empty(after.RightID)

	env = call(t, srv, http.MethodGet, "/api/notes/"+a.ID, nil, nil)
	assert.Equal(http.StatusNotFound, env.Code)
}

func TestLinkErrors(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var a db.Note

	call(t, srv, http.MethodPost, "/api/notes", map[string]string{"title": "a"}, &a)

	env := call(t, srv, http.MethodPut, "/api/notes/"+a.ID+"/links/up", map[string]string{"target_id": a.ID}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	env = call(t, srv, http.MethodPut, "/api/notes/"+a.ID+"/links/sideways", map[string]string{"target_id": "x"}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	env = call(t, srv, http.MethodPut, "/api/notes/"+a.ID+"/links/up", map[string]string{"target_id": "missing"}, nil)
	assert.Equal(http.StatusNotFound, env.Code)

	env = call(t, srv, http.MethodPut, "/api/notes/"+a.ID+"/links/up", map[string]string{}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)
	assert.Contains(string(env.Errors), "TargetID")

	// removing a missing link is fine
	env = call(t, srv, http.MethodDelete, "/api/notes/"+a.ID+"/links/up", nil, nil)
	assert.Equal(http.StatusOK, env.Code)
}

func TestDraftRoute(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var a db.Note

	call(t, srv, http.MethodPost, "/api/notes", map[string]string{"title": "a"}, &a)

	var draft struct {
		Note    db.Note `json:"note"`
		Created bool    `json:"created"`
	}

	env := call(t, srv, http.MethodPost, "/api/notes/"+a.ID+"/links/down/draft", nil, &draft)
	assert.Equal(http.StatusCreated, env.Code)
	assert.True(draft.Created)

	first := draft.Note.ID

	env = call(t, srv, http.MethodPost, "/api/notes/"+a.ID+"/links/down/draft", nil, &draft)
	assert.Equal(http.StatusOK, env.Code)
	assert.False(draft.Created)
	assert.Equal(first, draft.Note.ID)
}

func TestTaskRoutes(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var task struct {
		db.Task
		Score float64 `json:"score"`
	}

	env := call(t, srv, http.MethodPost, "/api/tasks",
		map[string]interface{}{"text": "ship", "value": 5, "urgency": 4, "momentum": 3, "effort": 4}, &task)
	assert.Equal(http.StatusCreated, env.Code)
	assert.Equal(db.StatusBacklog, task.Status)
	assert.InDelta(5*1.2*4*1.6*3*0.8/2, task.Score, 1e-9)

	call(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/schedule", map[string]string{"date": "2025-06-01"}, &task)
	assert.Equal(db.StatusPlanned, task.Status)
	assert.Equal(db.ScheduledDate("2025-06-01"), task.ScheduledDate)

	env = call(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/status", map[string]string{"status": "OVERDUE"}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	var swept struct {
		Swept int `json:"swept"`
	}

	call(t, srv, http.MethodPost, "/api/tasks/sweep", nil, &swept)
	assert.Equal(1, swept.Swept)

	call(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/complete", nil, &task)
	assert.Equal(db.StatusDone, task.Status)

	call(t, srv, http.MethodPost, "/api/tasks/"+task.ID+"/complete", nil, &task)
	assert.Equal(db.StatusBacklog, task.Status)

	env = call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": ""}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)
}

func TestReorderRoute(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	ids := []string{}

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		var task db.Task

		call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": text}, &task)
		ids = append(ids, task.ID)
	}

	var reordered []db.Task

	env := call(t, srv, http.MethodPost, "/api/tasks/reorder", map[string]interface{}{"ids": ids, "from": 4, "to": 0}, &reordered)
	assert.Equal(http.StatusOK, env.Code)

	for i, task := range reordered {
		assert.Equal(i, task.Priority)
	}

	assert.Equal(ids[4], reordered[0].ID)

	env = call(t, srv, http.MethodPost, "/api/tasks/reorder", map[string]interface{}{"ids": ids, "from": 9, "to": 0}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	env = call(t, srv, http.MethodPost, "/api/tasks/reorder", map[string]interface{}{"ids": ids, "to": 0}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)
}

func TestTagRoutes(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var t1, t2 db.Task

	call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": "t1"}, &t1)
	call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": "t2"}, &t2)

	var tags []db.Tag

	env := call(t, srv, http.MethodPost, "/api/tasks/"+t1.ID+"/tags", map[string]string{"path": "work"}, &tags)
	assert.Equal(http.StatusOK, env.Code)

	call(t, srv, http.MethodPost, "/api/tasks/"+t2.ID+"/tags", map[string]string{"path": "work/proj"}, &tags)
	assert.Len(tags, 2)

	work := tags[0]

	var tasks []db.Task

	call(t, srv, http.MethodGet, "/api/tags/"+work.ID+"/tasks", nil, &tasks)
	assert.Len(tasks, 2)

	call(t, srv, http.MethodGet, "/api/views/tasks?tag="+tags[1].ID, nil, &tasks)
	assert.Len(tasks, 1)
	assert.Equal(t2.ID, tasks[0].ID)

	call(t, srv, http.MethodGet, "/api/tasks/"+t2.ID+"/leaf-tags", nil, &tags)
	assert.Len(tags, 1)
	assert.Equal("work/proj", tags[0].FullPath)

	env = call(t, srv, http.MethodPost, "/api/tags", map[string]string{"path": "bad//path"}, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)
	assert.Contains(string(env.Errors), "tagpath")

	env = call(t, srv, http.MethodDelete, "/api/tags/"+work.ID, nil, nil)
	assert.Equal(http.StatusOK, env.Code)

	call(t, srv, http.MethodGet, "/api/tags", nil, &tags)
	assert.Len(tags, 1)
}

func TestViewRoutes(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var today, someday, doing db.Task

	call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": "today", "scheduled_date": "2025-06-10"}, &today)
	call(t, srv, http.MethodPost, "/api/tasks", map[string]interface{}{"text": "someday", "scheduled_date": "SOMEDAY", "starred": true}, &someday)
	call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": "doing", "status": "DOING", "task_type": "DEEP_WORK"}, &doing)

	var tasks []db.Task

	call(t, srv, http.MethodGet, "/api/views/today", nil, &tasks)
	assert.Len(tasks, 1)
	assert.Equal(today.ID, tasks[0].ID)

	call(t, srv, http.MethodGet, "/api/views/someday", nil, &tasks)
	assert.Len(tasks, 1)
	assert.Equal(someday.ID, tasks[0].ID)

	call(t, srv, http.MethodGet, "/api/views/tasks?status=doing,blocked&task_type=deep_work", nil, &tasks)
	assert.Len(tasks, 1)
	assert.Equal(doing.ID, tasks[0].ID)

	env := call(t, srv, http.MethodGet, "/api/views/tasks?status=waiting", nil, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	env = call(t, srv, http.MethodGet, "/api/views/month", nil, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)

	counts := map[string]int{}

	call(t, srv, http.MethodGet, "/api/views", nil, &counts)
	assert.Equal(map[string]int{"today": 1, "week": 2, "tasks": 2, "someday": 1}, counts)
}

func TestResolveAndActivity(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	srv, _ := getServer(t)

	var task db.Task

	call(t, srv, http.MethodPost, "/api/tasks", map[string]string{"text": "find me"}, &task)

	var target struct {
		Kind   string `json:"kind"`
		TaskID string `json:"task_id"`
	}

	call(t, srv, http.MethodGet, "/api/resolve/"+task.RefID, nil, &target)
	assert.Equal("task", target.Kind)
	assert.Equal(task.ID, target.TaskID)

	env := call(t, srv, http.MethodGet, "/api/resolve/home", nil, nil)
	assert.Equal(http.StatusNotFound, env.Code)

	var entries []db.Activity

	call(t, srv, http.MethodGet, "/api/activity?limit=5", nil, &entries)
	assert.Len(entries, 1)
	assert.Equal("create", entries[0].Action)

	env = call(t, srv, http.MethodGet, "/api/activity?limit=-1", nil, nil)
	assert.Equal(http.StatusUnprocessableEntity, env.Code)
}
