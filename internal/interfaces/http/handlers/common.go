// Package handlers implements the gin handlers of the foldcore HTTP API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// writeError writes a structured error response.
func writeError(c *gin.Context, status int, code errors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, fold.ErrorBody{Code: code.String(), Message: message})
}

// writeAppError maps application-level errors to HTTP status codes through
// their AppError code. Server-side failures are masked.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.CodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		message = errors.DefaultMessageForCode(code)
	}
	_ = c.Error(err)
	writeError(c, status, code, message)
}

// bindJSON decodes the request body into v and writes a 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, http.StatusBadRequest, errors.ErrCodeValidation, err.Error())
		return false
	}
	return true
}

//Personal.AI order the ending
