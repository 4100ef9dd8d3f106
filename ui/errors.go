package ui

import (
	stderrors "errors"
	"net/http"

	"karyoscore/internal/errors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an application error code to an HTTP status
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if !errors.IsAppError(err) {
		return http.StatusInternalServerError
	}

	switch errors.GetCode(err, errors.CodeInternalError) {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAnalysisFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes {error, code} with the mapped status
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[%s %s] %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err, errors.CodeInternalError),
	})
}
