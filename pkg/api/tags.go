package api

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) getTags(c *gin.Context) {
	success(c, s.db.Tags())
}

func (s *Server) getTag(c *gin.Context) {
	tag, err := s.db.Tag(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tag)
}

func (s *Server) createTags(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	tags, err := s.db.CreateTagsFromPath(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)

		return
	}

	created(c, tags)
}

func (s *Server) deleteTag(c *gin.Context) {
	if err := s.db.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)

		return
	}

	success(c, nil)
}

func includeDescendants(c *gin.Context) bool {
	return strings.EqualFold(c.DefaultQuery("descendants", "true"), "true")
}

func (s *Server) getTasksForTag(c *gin.Context) {
	tasks, err := s.db.GetTasksForTag(c.Param("id"), includeDescendants(c))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, taskResponses(tasks))
}

func (s *Server) getNotesForTag(c *gin.Context) {
	notes, err := s.db.NotesForTag(c.Param("id"), includeDescendants(c))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, notes)
}
