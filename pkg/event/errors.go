package event

import (
	"errors"
	"fmt"
)

// ErrMissingEventID marks a record without the identity used for deduplication.
var ErrMissingEventID = errors.New("event: missing event_id")

// ErrInvalidEventID marks an id present with a type that cannot be an identity.
var ErrInvalidEventID = errors.New("event: invalid event_id")

// ValidationError reports a malformed field on a single raw item.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}
