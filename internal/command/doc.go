// Package command owns the server-side command surface.
//
// Ownership boundary:
// - registry of named handlers with self-describing metadata
// - the builtin handler set (echo, time, calculate, storage, ping, help)
// - the domain error shape mapped onto wire error codes
package command
