package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/service"
	"github.com/student-forum-api/internal/validation"
)

// respondError maps service errors to status codes. Unknown errors are 500
// with the error text passed through.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": verrs})
		return
	}

	var status int
	switch {
	case errors.Is(err, service.ErrInvalidAction), errors.Is(err, service.ErrDuplicateVote):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrTitleTaken):
		status = http.StatusConflict
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
