package command

import (
	"errors"
	"fmt"

	"github.com/danmuck/sockctl/internal/protocol"
)

// Error is a handler-detected domain failure carrying the wire error code.
// Anything a handler returns that is not an *Error is surfaced to the peer
// as INTERNAL_ERROR.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Errorf builds a domain error with a formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the wire code for err, defaulting to INTERNAL_ERROR.
func CodeOf(err error) string {
	var domain *Error
	if errors.As(err, &domain) {
		return domain.Code
	}
	return protocol.CodeInternalError
}
