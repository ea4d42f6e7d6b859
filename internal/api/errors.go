package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/model"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code model.Code) int {
	switch code {
	case model.CodeValidation, model.CodeConflict:
		return http.StatusBadRequest
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes err as the standard failure envelope. Unexpected
// errors pass their message through.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(model.CodeOf(err))
	message := err.Error()
	var e *model.Error
	if errors.As(err, &e) {
		message = e.Message
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}
