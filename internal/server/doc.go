// Package server owns the service side of the socket protocol.
//
// Ownership boundary:
// - unix socket listener lifecycle (stale socket removal, accept loop)
// - per-connection dispatch loop (frame, validate, route, reply)
// - service runtime (signals, admin HTTP surface)
//
// The server never owns client-side concerns; reply correlation is the
// client's job, the server only echoes request ids.
package server
