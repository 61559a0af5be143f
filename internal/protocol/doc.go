// Package protocol owns the wire contract shared by client and server.
//
// Ownership boundary:
// - request/response envelope shapes
// - error code vocabulary
// - newline-delimited JSON framing and line reassembly
package protocol
