package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/matt-steen/trellis/pkg/db"
	"github.com/rs/zerolog/log"
)

// Response is the envelope of every API reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "ok",
		Data:    data,
	})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string, errs interface{}) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
		Errors:  errs,
	})
}

// statusFor maps a store error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, db.ErrProtected):
		return http.StatusForbidden
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// fail replies with the status matching err. Unexpected errors are logged and not echoed.
func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)

		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		errorResponse(c, code, "internal server error", nil)

		return
	}

	errorResponse(c, code, err.Error(), nil)
}

// badRequest replies to a request body that could not be bound.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string]string{}
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}

		errorResponse(c, http.StatusUnprocessableEntity, "validation failed", fields)

		return
	}

	errorResponse(c, http.StatusBadRequest, "invalid request body", err.Error())
}
