package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matt-steen/trellis/pkg/db"
)

type linkRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

type tagRequest struct {
	Path string `json:"path" binding:"required,tagpath"`
}

type draftResponse struct {
	Note    db.Note `json:"note"`
	Created bool    `json:"created"`
}

type islandResponse struct {
	Count int `json:"count"`
}

func direction(c *gin.Context) (db.Direction, bool) {
	dir, err := db.ParseDirection(c.Param("direction"))
	if err != nil {
		fail(c, err)

		return "", false
	}

	return dir, true
}

func (s *Server) getHome(c *gin.Context) {
	home, ok := s.db.Home()
	if !ok {
		fail(c, db.ErrNotFound)

		return
	}

	success(c, home)
}

func (s *Server) getNotes(c *gin.Context) {
	if t := c.Query("type"); t != "" {
		success(c, s.db.NotesOfType(db.NoteType(t)))

		return
	}

	success(c, s.db.Notes())
}

func (s *Server) getNote(c *gin.Context) {
	note, err := s.db.Note(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, note)
}

func (s *Server) createNote(c *gin.Context) {
	var req db.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	note, err := s.db.CreateNote(c.Request.Context(), req)
	if err != nil {
		fail(c, err)

		return
	}

	created(c, note)
}

func (s *Server) updateNote(c *gin.Context) {
	var req db.NoteUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	note, err := s.db.UpdateNote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, note)
}

func (s *Server) deleteNote(c *gin.Context) {
	if err := s.db.DeleteNote(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)

		return
	}

	success(c, nil)
}

func (s *Server) toggleNoteStar(c *gin.Context) {
	note, err := s.db.ToggleNoteStar(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, note)
}

func (s *Server) setHome(c *gin.Context) {
	id := c.Param("id")

	if err := s.db.SetHome(c.Request.Context(), id); err != nil {
		fail(c, err)

		return
	}

	s.getNote(c)
}

func (s *Server) countIsland(c *gin.Context) {
	count, err := s.db.CountIsland(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, islandResponse{Count: count})
}

func (s *Server) getProjectTasks(c *gin.Context) {
	tasks, err := s.db.ProjectTasks(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, taskResponses(tasks))
}

func (s *Server) setLink(c *gin.Context) {
	dir, ok := direction(c)
	if !ok {
		return
	}

	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	if err := s.db.SetLink(c.Request.Context(), c.Param("id"), req.TargetID, dir); err != nil {
		fail(c, err)

		return
	}

	s.getNote(c)
}

func (s *Server) removeLink(c *gin.Context) {
	dir, ok := direction(c)
	if !ok {
		return
	}

	if err := s.db.RemoveLink(c.Request.Context(), c.Param("id"), dir); err != nil {
		fail(c, err)

		return
	}

	s.getNote(c)
}

func (s *Server) createDraftLinkedNote(c *gin.Context) {
	dir, ok := direction(c)
	if !ok {
		return
	}

	note, isNew, err := s.db.CreateDraftLinkedNote(c.Request.Context(), c.Param("id"), dir)
	if err != nil {
		fail(c, err)

		return
	}

	if isNew {
		created(c, draftResponse{Note: note, Created: true})

		return
	}

	success(c, draftResponse{Note: note})
}

func (s *Server) getNoteTags(c *gin.Context) {
	tags, err := s.db.NoteTags(c.Param("id"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tags)
}

func (s *Server) tagNote(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)

		return
	}

	tags, err := s.db.TagNote(c.Request.Context(), c.Param("id"), req.Path)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, tags)
}

func (s *Server) untagNote(c *gin.Context) {
	if err := s.db.UntagNote(c.Request.Context(), c.Param("id"), c.Param("tag_id")); err != nil {
		fail(c, err)

		return
	}

	success(c, nil)
}

func (s *Server) resolve(c *gin.Context) {
	target, err := s.navigator.Resolve(c.Param("target"))
	if err != nil {
		fail(c, err)

		return
	}

	success(c, target)
}

func (s *Server) getActivity(c *gin.Context) {
	limit := 0

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errorResponse(c, http.StatusUnprocessableEntity, "limit must be a non-negative integer", nil)

			return
		}

		limit = n
	}

	entries, err := s.db.Activity(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, entries)
}
