package client

import "errors"

var (
	// ErrConnectFailed wraps a failed dial of the well-known socket path.
	ErrConnectFailed = errors.New("client: connect failed")
	// ErrConnectionClosed settles every pending request when the shared
	// connection errors or closes. The next Send dials fresh.
	ErrConnectionClosed = errors.New("client: connection closed")
	// ErrTimeout settles a pending request whose deadline expired. The
	// connection may still be healthy; only this request is abandoned.
	ErrTimeout = errors.New("client: request timed out")
	// ErrClientClosed rejects sends after Close.
	ErrClientClosed = errors.New("client: closed")
)
