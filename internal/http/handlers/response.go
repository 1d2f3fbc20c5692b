// Package handlers provides HTTP handler implementations for the public,
// admin and webhook APIs.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// the mapping from service errors to HTTP statuses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error formatting and logs 5xx responses with
//     request context.
//   - `failErr()` translates service and repository errors; handlers only
//     pick the message used for unexpected failures.
//   - Deletes answer {"success": true}.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "block not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nailstudio/salon-backend/internal/auth"
	"github.com/nailstudio/salon-backend/internal/http/middleware"
	"github.com/nailstudio/salon-backend/internal/repo"
	"github.com/nailstudio/salon-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code"`
	// Human-readable message (safe to show to users)
	Message string `json:"message"`
}

// SuccessResponse is returned by deletes and other body-less operations.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), used by the router for fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps err onto the error taxonomy. what names the resource in
// not-found messages ("block" gives "block not found"); internal is the
// message of unexpected failures, whose cause is only logged.
func failErr(c *gin.Context, err error, what, internal string) {
	var (
		ve  *services.ValidationError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidation, ve.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repo.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, what+" not found")
	case errors.Is(err, services.ErrDuplicateSubscriber):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrFileTooLarge), errors.As(err, &mbe):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
	case errors.Is(err, services.ErrUnsupportedFile):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrInvalidPath):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid path")
	case errors.Is(err, auth.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg(internal)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, internal)
	}
}

// bindJSON decodes the body into dst. Oversized bodies answer 413, anything
// else that cannot be decoded answers 400. It reports whether the handler
// may continue.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return false
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// success writes {"success": true}.
func success(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
