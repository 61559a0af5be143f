package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidJSON = errors.New("protocol: invalid json")
	ErrLineTooLong = errors.New("protocol: line exceeds limit")
	ErrEmptyLine   = errors.New("protocol: empty line")
)

// Limits constrains per-line memory use on both ends of the connection.
type Limits struct {
	MaxLineBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes: 1 << 20,
	}
}

// EncodeLine marshals v as one newline-terminated JSON document.
func EncodeLine(v any) ([]byte, error) {
	line, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode: %w", err)
	}
	return append(line, '\n'), nil
}

// DecodeRequest parses one framed line as a request envelope. Framing bytes
// around the document are tolerated; the command field is not checked here.
func DecodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}
	return req, nil
}

// DecodeResponse parses one framed line as a response envelope.
func DecodeResponse(line []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %s", ErrInvalidJSON, err)
	}
	return resp, nil
}

// LooksLikeJSON reports whether line plausibly starts a JSON document.
// The dispatcher uses this to separate malformed envelopes from legacy
// plain-text input, which gets an acknowledgement instead of an error.
func LooksLikeJSON(line []byte) bool {
	for _, b := range line {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}
