package command

import (
	"errors"
	"testing"

	"github.com/danmuck/sockctl/internal/testutil/testlog"
)

func noop(map[string]any) (map[string]any, error) { return nil, nil }

func TestRegisterAndResolve(t *testing.T) {
	testlog.Start(t)

	r := NewRegistry()
	if err := r.Register(Entry{Name: "echo", Handler: noop, Description: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := r.Resolve("echo"); !ok {
		t.Fatalf("expected echo to resolve")
	}
	if _, ok := r.Resolve("missing"); ok {
		t.Fatalf("expected missing to not resolve")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	testlog.Start(t)

	r := NewRegistry()
	if err := r.Register(Entry{Name: "echo", Handler: noop, Description: "echo"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(Entry{Name: "echo", Handler: noop, Description: "again"})
	if !errors.Is(err, ErrCommandExists) {
		t.Fatalf("expected ErrCommandExists, got %v", err)
	}
}

func TestRegisterRejectsInvalidEntries(t *testing.T) {
	testlog.Start(t)

	r := NewRegistry()
	if err := r.Register(Entry{Name: "", Handler: noop, Description: "d"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry for empty name, got %v", err)
	}
	if err := r.Register(Entry{Name: "x", Handler: noop, Description: ""}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry for empty description, got %v", err)
	}
	if err := r.Register(Entry{Name: "x", Description: "d"}); !errors.Is(err, ErrNilHandler) {
		t.Fatalf("expected ErrNilHandler, got %v", err)
	}
}

func TestNamesSorted(t *testing.T) {
	testlog.Start(t)

	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(Entry{Name: name, Handler: noop, Description: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	names := r.Names()
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestHelpDataTracksRegistry(t *testing.T) {
	testlog.Start(t)

	r := NewRegistry()
	if err := r.Register(Entry{
		Name:        "echo",
		Handler:     noop,
		Description: "echo a message back",
		Parameters:  map[string]string{"message": "string to echo"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	commands, ok := r.HelpData()["commands"].(map[string]any)
	if !ok {
		t.Fatalf("expected commands map")
	}
	doc, ok := commands["echo"].(map[string]any)
	if !ok {
		t.Fatalf("expected echo doc")
	}
	if doc["description"] != "echo a message back" {
		t.Fatalf("unexpected description: %v", doc["description"])
	}

	if err := r.Register(Entry{Name: "late", Handler: noop, Description: "registered later"}); err != nil {
		t.Fatalf("register late: %v", err)
	}
	commands = r.HelpData()["commands"].(map[string]any)
	if _, ok := commands["late"]; !ok {
		t.Fatalf("help output must track the live registry")
	}
}
