package command

import (
	"encoding/json"
	"math"
	"time"

	"github.com/danmuck/sockctl/internal/protocol"
	"github.com/danmuck/sockctl/internal/store"
)

// Builtin registers the full builtin command set against one shared store.
// The help entry closes over the registry itself so its output tracks every
// registered command.
func Builtin(st *store.Store, startedAt time.Time) (*Registry, error) {
	r := NewRegistry()

	entries := []Entry{
		{
			Name:        "echo",
			Handler:     echoHandler,
			Description: "echo a message back",
			Parameters:  map[string]string{"message": "string to echo"},
		},
		{
			Name:        "time",
			Handler:     timeHandler,
			Description: "current server time in several representations",
		},
		{
			Name:        "calculate",
			Handler:     calculateHandler,
			Description: "arithmetic over two numeric operands",
			Parameters: map[string]string{
				"operation": "add, subtract, multiply, divide, power, or modulo",
				"a":         "first operand (number)",
				"b":         "second operand (number)",
			},
		},
		{
			Name:        "store",
			Handler:     storeHandler(st),
			Description: "store a key/value pair",
			Parameters: map[string]string{
				"key":   "storage key (string)",
				"value": "value to store (any JSON scalar)",
			},
		},
		{
			Name:        "retrieve",
			Handler:     retrieveHandler(st),
			Description: "retrieve a stored value by key",
			Parameters:  map[string]string{"key": "storage key (string)"},
		},
		{
			Name:        "delete",
			Handler:     deleteHandler(st),
			Description: "delete a stored key",
			Parameters:  map[string]string{"key": "storage key (string)"},
		},
		{
			Name:        "list_keys",
			Handler:     listKeysHandler(st),
			Description: "list all stored keys",
		},
		{
			Name:        "ping",
			Handler:     pingHandler(st, startedAt),
			Description: "liveness probe reporting server time and storage size",
		},
		{
			Name:        "help",
			Handler:     helpHandler(r),
			Description: "describe every registered command",
		},
	}

	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func echoHandler(data map[string]any) (map[string]any, error) {
	message, err := stringArg(data, "message")
	if err != nil {
		return nil, err
	}
	return map[string]any{"echo": message}, nil
}

func timeHandler(map[string]any) (map[string]any, error) {
	now := time.Now()
	return map[string]any{
		"iso":       protocol.Timestamp(now),
		"epoch":     now.Unix(),
		"formatted": now.Format("Mon Jan 2 15:04:05 2006"),
	}, nil
}

func calculateHandler(data map[string]any) (map[string]any, error) {
	operation, err := stringArg(data, "operation")
	if err != nil {
		return nil, err
	}
	a, err := numberArg(data, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberArg(data, "b")
	if err != nil {
		return nil, err
	}

	var result float64
	switch operation {
	case "add":
		result = a + b
	case "subtract":
		result = a - b
	case "multiply":
		result = a * b
	case "divide":
		if b == 0 {
			return nil, Errorf(protocol.CodeMathError, "division by zero")
		}
		result = a / b
	case "power":
		result = math.Pow(a, b)
	case "modulo":
		if b == 0 {
			return nil, Errorf(protocol.CodeMathError, "modulo by zero")
		}
		result = math.Mod(a, b)
	default:
		return nil, Errorf(protocol.CodeInvalidOperation, "unknown operation %q", operation)
	}

	return map[string]any{
		"operation": operation,
		"a":         a,
		"b":         b,
		"result":    result,
	}, nil
}

func storeHandler(st *store.Store) HandlerFunc {
	return func(data map[string]any) (map[string]any, error) {
		key, err := stringArg(data, "key")
		if err != nil {
			return nil, err
		}
		value, ok := data["value"]
		if !ok {
			return nil, Errorf(protocol.CodeInvalidInput, "missing value")
		}
		st.Put(key, value)
		return map[string]any{"key": key, "stored": true}, nil
	}
}

func retrieveHandler(st *store.Store) HandlerFunc {
	return func(data map[string]any) (map[string]any, error) {
		key, err := stringArg(data, "key")
		if err != nil {
			return nil, err
		}
		value, ok := st.Get(key)
		if !ok {
			return nil, Errorf(protocol.CodeKeyNotFound, "key %q not found", key)
		}
		return map[string]any{"key": key, "value": value}, nil
	}
}

func deleteHandler(st *store.Store) HandlerFunc {
	return func(data map[string]any) (map[string]any, error) {
		key, err := stringArg(data, "key")
		if err != nil {
			return nil, err
		}
		if !st.Delete(key) {
			return nil, Errorf(protocol.CodeKeyNotFound, "key %q not found", key)
		}
		return map[string]any{"key": key, "deleted": true}, nil
	}
}

func listKeysHandler(st *store.Store) HandlerFunc {
	return func(map[string]any) (map[string]any, error) {
		keys := st.Keys()
		return map[string]any{"keys": keys, "count": len(keys)}, nil
	}
}

func pingHandler(st *store.Store, startedAt time.Time) HandlerFunc {
	return func(map[string]any) (map[string]any, error) {
		return map[string]any{
			"status":       "ok",
			"server_time":  protocol.Timestamp(time.Now()),
			"uptime":       time.Since(startedAt).String(),
			"storage_size": st.Len(),
		}, nil
	}
}

func helpHandler(r *Registry) HandlerFunc {
	return func(map[string]any) (map[string]any, error) {
		return r.HelpData(), nil
	}
}

func stringArg(data map[string]any, name string) (string, error) {
	raw, ok := data[name]
	if !ok {
		return "", Errorf(protocol.CodeInvalidInput, "missing %s", name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", Errorf(protocol.CodeInvalidInput, "%s must be a non-empty string", name)
	}
	return s, nil
}

func numberArg(data map[string]any, name string) (float64, error) {
	raw, ok := data[name]
	if !ok {
		return 0, Errorf(protocol.CodeInvalidInput, "missing %s", name)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, Errorf(protocol.CodeInvalidInput, "%s is not numeric: %v", name, err)
		}
		return f, nil
	default:
		return 0, Errorf(protocol.CodeInvalidInput, "%s must be a number, got %T", name, raw)
	}
}
