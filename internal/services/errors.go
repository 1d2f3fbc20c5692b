// Package services defines the business logic of the salon site: content
// administration, booking intake, subscriber registration, media uploads and
// request export. This file centralizes service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nailstudio/salon-backend/internal/domain"
	"github.com/nailstudio/salon-backend/internal/repo"
)

var (
	// ErrNotFound indicates that the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSubscriber is returned when a chat id is already registered.
	ErrDuplicateSubscriber = errors.New("subscriber already exists")

	// ErrBotTokenMissing is returned by operations that need the bot token.
	ErrBotTokenMissing = errors.New("bot token not configured")

	// ErrNoSubscribers is returned when a test broadcast has no recipients.
	ErrNoSubscribers = errors.New("no subscribers found")

	// ErrInvalidPath is returned for upload paths outside the uploads directory.
	ErrInvalidPath = errors.New("invalid path")

	// ErrUnsupportedFile is returned for uploads that are not jpeg, png or webp.
	ErrUnsupportedFile = errors.New("only jpeg, jpg, png and webp images are allowed")

	// ErrFileTooLarge is returned for uploads above the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
)

// ValidationError reports an invalid input field.
type ValidationError = domain.ValidationError

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// notFound maps the repository sentinel onto the service one.
func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// fromValidator converts the first failed validator rule into a
// ValidationError.
func fromValidator(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "min":
		return invalid(field, "must be at least "+fe.Param()+" characters")
	case "max":
		return invalid(field, "must be at most "+fe.Param()+" characters")
	default:
		return invalid(field, "is invalid")
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
