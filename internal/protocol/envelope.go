package protocol

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TypeResponse is the only envelope type the server emits.
const TypeResponse = "response"

// Error codes carried in the error envelope. The set is closed; handlers
// report domain failures through these codes only.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeMathError        = "MATH_ERROR"
	CodeKeyNotFound      = "KEY_NOT_FOUND"
	CodeProcessingError  = "PROCESSING_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

var ErrMissingCommand = errors.New("protocol: missing command")

// Request is the client->server envelope, one per line.
type Request struct {
	Command   string         `json:"command"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Validate enforces required request envelope fields. The request_id is
// advisory and may be absent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return fmt.Errorf("%w: command is required", ErrMissingCommand)
	}
	return nil
}

// ErrorInfo is the structured failure detail on an error envelope.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the server->client envelope, one per line. Exactly one of
// Data or Error is populated depending on Success.
type Response struct {
	Type      string         `json:"type"`
	Success   bool           `json:"success"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     *ErrorInfo     `json:"error,omitempty"`
}

// NewSuccess builds a success envelope echoing requestID and stamping at.
func NewSuccess(requestID string, data map[string]any, at time.Time) Response {
	return Response{
		Type:      TypeResponse,
		Success:   true,
		RequestID: requestID,
		Timestamp: Timestamp(at),
		Data:      data,
	}
}

// NewError builds an error envelope echoing requestID and stamping at.
func NewError(requestID, code, message string, at time.Time) Response {
	return Response{
		Type:      TypeResponse,
		Success:   false,
		RequestID: requestID,
		Timestamp: Timestamp(at),
		Error:     &ErrorInfo{Code: code, Message: message},
	}
}

// Timestamp renders the envelope timestamp format (RFC 3339, UTC).
func Timestamp(at time.Time) string {
	return at.UTC().Format(time.RFC3339)
}
