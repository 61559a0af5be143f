package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCommandExists  = errors.New("command: already registered")
	ErrNilHandler     = errors.New("command: handler is nil")
	ErrInvalidEntry   = errors.New("command: invalid entry")
	ErrCommandMissing = errors.New("command: not registered")
)

// HandlerFunc implements one named command. It receives the request's data
// mapping and returns the success payload, or an error (*Error for domain
// failures).
type HandlerFunc func(data map[string]any) (map[string]any, error)

// Entry binds one command name to its handler and documentation. The
// documentation is what the help command reports, so it lives next to the
// handler rather than in a hand-maintained copy.
type Entry struct {
	Name        string
	Handler     HandlerFunc
	Description string
	Parameters  map[string]string
}

// Registry maps command names to entries. It is populated at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds one entry. Names must be unique, non-empty, and described.
func (r *Registry) Register(e Entry) error {
	name := strings.TrimSpace(e.Name)
	if name == "" || strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: name and description are required", ErrInvalidEntry)
	}
	if e.Handler == nil {
		return fmt.Errorf("%w: %s", ErrNilHandler, name)
	}
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	e.Name = name
	r.entries[name] = e
	return nil
}

// Resolve returns the entry for name.
func (r *Registry) Resolve(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.entries)
}

// HelpData derives the help payload from the live registry.
func (r *Registry) HelpData() map[string]any {
	commands := make(map[string]any, len(r.entries))
	for name, e := range r.entries {
		doc := map[string]any{
			"description": e.Description,
		}
		if len(e.Parameters) > 0 {
			doc["parameters"] = e.Parameters
		}
		commands[name] = doc
	}
	return map[string]any{"commands": commands}
}
