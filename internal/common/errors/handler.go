// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns request errors into HTTP responses with standardized logging
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError writes the response for err and aborts the gin chain.
// Downstream failures keep their status and error object; everything else is
// normalized to a StandardError.
func (h *ErrorHandler) HandleRequestError(c *gin.Context, err error) {
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		h.logServiceError(c, svcErr)
		c.Data(svcErr.Status(), "application/json; charset=utf-8", svcErr.ErrorBody())
		c.Abort()
		return
	}

	stdErr := h.normalizeError(err)
	status := GetHTTPStatus(stdErr.Code)
	h.logStandardError(c, stdErr, status)
	c.AbortWithStatusJSON(status, stdErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logServiceError(c *gin.Context, svcErr *ServiceError) {
	h.logger.Error("Request failed", map[string]interface{}{
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"service":    svcErr.Service,
		"status":     svcErr.Status(),
		"details":    svcErr.Error(),
		"requestId":  c.GetString("requestId"),
		"errorClass": "UPSTREAM",
	})
}

func (h *ErrorHandler) logStandardError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        c.Request.Method,
		"path":          c.FullPath(),
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"requestId":     c.GetString("requestId"),
	}
	if status < http.StatusInternalServerError {
		// client mistakes are not service failures
		fields["clientError"] = true
	}
	h.logger.Error("Request failed", fields)
}
