package router

import (
	"errors"
	"fmt"

	"github.com/tendant/simple-media-preproc/pkg/mediaproc"
)

var (
	// ErrDuplicateRegistration is returned when two handlers claim one name
	ErrDuplicateRegistration = errors.New("operation already registered")

	// ErrNoHandler is returned when an operation name is not registered
	ErrNoHandler = errors.New("no handler registered for operation")
)

// Error is a classified handler failure. Handlers return *Error when they can
// name the taxonomy entry; any other error is reported as InternalError.
type Error struct {
	Kind    string
	Message string
	Field   string
	Detail  map[string]string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a classified error
func NewError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithDetail attaches a key/value diagnostic to the error
func (e *Error) WithDetail(key, value string) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]string)
	}
	e.Detail[key] = value
	return e
}

// ExternalToolError wraps a decoder/transcoder failure with its diagnostic
func ExternalToolError(tool string, err error) *Error {
	return NewError(mediaproc.KindExternalToolFailure, err.Error()).WithDetail("tool", tool)
}
