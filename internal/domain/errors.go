package domain

import "fmt"

// ValidationError reports an invalid input field. It is produced by the
// domain constructors and surfaced by the HTTP layer as a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
