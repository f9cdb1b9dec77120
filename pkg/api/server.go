// Package api serves the notes, tasks, tags and views of a Database over HTTP as JSON.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/nav"
	"github.com/matt-steen/trellis/pkg/view"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Server wires the HTTP routes to a Database.
type Server struct {
	db        *db.Database
	views     *view.Engine
	navigator *nav.Navigator
	router    *gin.Engine
}

// NewServer creates a Server with every route registered.
func NewServer(database *db.Database) *Server {
	registerValidations()

	s := Server{
		db:        database,
		views:     view.NewEngine(database),
		navigator: nav.NewNavigator(database),
		router:    gin.New(),
	}

	s.router.Use(requestLogger())
	s.router.Use(gin.Recovery())

	s.routes()

	return &s
}

func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("tagpath", db.TagPathRule); err != nil {
		log.Warn().Err(err).Msg("error registering tagpath validation")
	}
}

func (s *Server) routes() {
	api := s.router.Group("/api")

	api.GET("/home", s.getHome)
	api.GET("/resolve/:target", s.resolve)
	api.GET("/activity", s.getActivity)

	notes := api.Group("/notes")
	{
		notes.GET("", s.getNotes)
		notes.POST("", s.createNote)
		notes.GET("/:id", s.getNote)
		notes.PATCH("/:id", s.updateNote)
		notes.DELETE("/:id", s.deleteNote)
		notes.POST("/:id/star", s.toggleNoteStar)
		notes.POST("/:id/home", s.setHome)
		notes.GET("/:id/island", s.countIsland)
		notes.GET("/:id/tasks", s.getProjectTasks)
		notes.PUT("/:id/links/:direction", s.setLink)
		notes.DELETE("/:id/links/:direction", s.removeLink)
		notes.POST("/:id/links/:direction/draft", s.createDraftLinkedNote)
		notes.GET("/:id/tags", s.getNoteTags)
		notes.POST("/:id/tags", s.tagNote)
		notes.DELETE("/:id/tags/:tag_id", s.untagNote)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", s.getTasks)
		tasks.POST("", s.createTask)
		tasks.POST("/reorder", s.reorderTasks)
		tasks.POST("/sweep", s.sweepOverdue)
		tasks.GET("/:id", s.getTask)
		tasks.PATCH("/:id", s.updateTask)
		tasks.DELETE("/:id", s.deleteTask)
		tasks.POST("/:id/status", s.changeStatus)
		tasks.POST("/:id/schedule", s.scheduleTask)
		tasks.POST("/:id/star", s.toggleTaskStar)
		tasks.POST("/:id/complete", s.toggleComplete)
		tasks.GET("/:id/tags", s.getTaskTags)
		tasks.GET("/:id/leaf-tags", s.getTaskLeafTags)
		tasks.POST("/:id/tags", s.tagTask)
		tasks.DELETE("/:id/tags/:tag_id", s.untagTask)
	}

	tags := api.Group("/tags")
	{
		tags.GET("", s.getTags)
		tags.POST("", s.createTags)
		tags.GET("/:id", s.getTag)
		tags.DELETE("/:id", s.deleteTag)
		tags.GET("/:id/tasks", s.getTasksForTag)
		tags.GET("/:id/notes", s.getNotesForTag)
	}

	views := api.Group("/views")
	{
		views.GET("", s.getViewCounts)
		views.GET("/:name", s.getView)
	}
}

// ServeHTTP lets the Server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("listening")

		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info().Msg("server stopped")

	return nil
}
