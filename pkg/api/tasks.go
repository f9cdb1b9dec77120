package api

import (
	"github.com/gin-gonic/gin"
	"github.com/matt-steen/trellis/pkg/db"
)

type statusRequest struct {
	Status db.Status `json:"status" binding:"required"`
}

type scheduleRequest struct {
	Date db.ScheduledDate `json:"date"`
}

type reorderRequest struct {
	IDs  []string `json:"ids" binding:"required,min=1"`
	From *int     `json:"from" binding:"required"`
	To   *int     `json:"to" binding:"required"`
}

type sweepResponse struct {
	Swept int `json:"swept"`
}

// taskResponse adds the derived score to a task.
type taskResponse struct {
	db.Task
	Score float64 `json:"score"`
}

func newTaskResponse(task db.Task) taskResponse {
	return taskResponse{Task: task, Score: task.Score()}
}

func taskResponses(tasks []db.Task) []taskResponse {
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, newTaskResponse(t))
	}

	return responses
}

func (s *Server) getTasks(c *gin.Context) {
	success(c, taskResponses(s.db.Tasks()))
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.db.Task(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, newTaskResponse(task))
}

func (s *Server) createTask(c *gin.Context) {
	var req db.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	task, err := s.db.CreateTask(c.Request.Context(), req)
	if err != nil {
		fail(c, err)

		return
	}

	created(c, newTaskResponse(task))
}

func (s *Server) updateTask(c *gin.Context) {
	var req db.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	task, err := s.db.UpdateTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, newTaskResponse(task))
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.db.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)

		return
	}

	success(c, nil)
}

// taskMutation runs a mutation of the task named in the path and replies with the result.
func (s *Server) taskMutation(c *gin.Context, mutate func(id string) (db.Task, error)) {
	task, err := mutate(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, newTaskResponse(task))
}

func (s *Server) changeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	s.taskMutation(c, func(id string) (db.Task, error) {
		return s.db.ChangeStatus(c.Request.Context(), id, req.Status)
	})
}

func (s *Server) scheduleTask(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	s.taskMutation(c, func(id string) (db.Task, error) {
		return s.db.ScheduleTask(c.Request.Context(), id, req.Date)
	})
}

func (s *Server) toggleTaskStar(c *gin.Context) {
	s.taskMutation(c, func(id string) (db.Task, error) {
		return s.db.ToggleTaskStar(c.Request.Context(), id)
	})
}

func (s *Server) toggleComplete(c *gin.Context) {
	s.taskMutation(c, func(id string) (db.Task, error) {
		return s.db.ToggleComplete(c.Request.Context(), id)
	})
}

func (s *Server) reorderTasks(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	tasks, err := s.db.ReorderTasks(c.Request.Context(), req.IDs, *req.From, *req.To)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, taskResponses(tasks))
}

func (s *Server) sweepOverdue(c *gin.Context) {
	swept, err := s.db.SweepOverdue(c.Request.Context())
	if err != nil {
		fail(c, err)

		return
	}

	success(c, sweepResponse{Swept: swept})
}

func (s *Server) getTaskTags(c *gin.Context) {
	tags, err := s.db.TaskTags(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tags)
}

func (s *Server) getTaskLeafTags(c *gin.Context) {
	tags, err := s.db.GetTaskLeafTags(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tags)
}

func (s *Server) tagTask(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	tags, err := s.db.TagTask(c.Request.Context(), c.Param("id"), req.Path)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tags)
}

func (s *Server) untagTask(c *gin.Context) {
	if err := s.db.UntagTask(c.Request.Context(), c.Param("id"), c.Param("tag_id")); err != nil {
		fail(c, err)

		return
	}

	success(c, nil)
}
