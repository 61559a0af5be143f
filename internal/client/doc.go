// Package client owns the UI-process side of the socket protocol.
//
// Ownership boundary:
// - connection lifecycle (lazy dial, reuse while live, teardown on failure)
// - request multiplexing over the one shared connection
// - reply correlation by request id, per-request deadlines
//
// The package exposes exactly one entry point into the core, Send; callers
// own rendering, validation-before-submit, and retry policy.
package client
