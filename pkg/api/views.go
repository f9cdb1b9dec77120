package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/matt-steen/trellis/pkg/view"
)

// viewFilters reads ?status=A,B&task_type=X&tag=id1&tag=id2.
func viewFilters(c *gin.Context) (view.Filters, error) {
	filters := view.Filters{
		TaskType: db.TaskType(strings.ToUpper(c.Query("task_type"))),
		TagIDs:   c.QueryArray("tag"),
	}

	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part == "" {
				continue
			}

			status, err := db.ParseStatus(part)
			if err != nil {
				return view.Filters{}, err
			}

			filters.Statuses = append(filters.Statuses, status)
		}
	}

	return filters, nil
}

func (s *Server) getView(c *gin.Context) {
	name, err := view.ParseName(c.Param("name"))
	if err != nil {
		fail(c, err)

		return
	}

	filters, err := viewFilters(c)
	if err != nil {
		fail(c, err)

		return
	}

	tasks, err := s.views.Fetch(c.Request.Context(), name, filters)
	if err != nil {
		fail(c, err)

		return
	}

	success(c, taskResponses(tasks))
}

func (s *Server) getViewCounts(c *gin.Context) {
	counts, err := s.views.Counts(c.Request.Context())
	if err != nil {
		fail(c, err)

		return
	}

	success(c, counts)
}
