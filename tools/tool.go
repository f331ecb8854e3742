// Package tools provides the fixed catalog of query operations exposed to
// the completion service, and the dispatch path that executes them.
//
// Information Hiding:
// - Argument parsing and schema validation hidden behind Dispatch
// - Handler failures flattened into structured results, never propagated
// - SQL and table naming internalized per handler
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Spec describes one callable operation: its unique name, a description for
// the model, and a JSON-schema parameter shape. Specs are immutable after
// registration and served verbatim to the completion service every round.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Handler executes one operation with validated arguments and returns a
// JSON-serializable payload. Handlers are pure reads; they may run
// concurrently with no coordination.
type Handler func(ctx context.Context, args Args) (any, error)

// Result is the outcome of a dispatch: a structured payload on success or a
// structured error. Either way it serializes to well-formed JSON so the
// conversation always receives a usable tool message.
type Result struct {
	data any
	err  string
}

// Success wraps a handler payload.
func Success(data any) Result {
	return Result{data: data}
}

// Failuref creates an error result.
func Failuref(format string, args ...any) Result {
	return Result{err: fmt.Sprintf(format, args...)}
}

// IsError reports whether the result is a structured error.
func (r Result) IsError() bool {
	return r.err != ""
}

// ErrorMessage returns the error description, empty on success.
func (r Result) ErrorMessage() string {
	return r.err
}

// Data returns the success payload, nil on error.
func (r Result) Data() any {
	return r.data
}

// JSON serializes the result for the tool message fed back to the model.
func (r Result) JSON() string {
	if r.err != "" {
		encoded, _ := json.Marshal(map[string]string{"error": r.err})
		return string(encoded)
	}
	encoded, err := json.Marshal(r.data)
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"error": "result not serializable: " + err.Error()})
		return string(fallback)
	}
	return string(encoded)
}

// MarshalJSON makes Result JSON-encode the same way JSON() renders it.
func (r Result) MarshalJSON() ([]byte, error) {
	return []byte(r.JSON()), nil
}

// NotFound builds the payload handlers return when a query matches nothing,
// so an empty dataset is distinguishable from a missing subject.
func NotFound(message string) map[string]any {
	return map[string]any{"found": false, "message": message}
}

// Args holds parsed, schema-validated tool arguments.
type Args map[string]any

// String returns a string argument, empty if absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// StringOr returns a string argument or a default.
func (a Args) StringOr(key, def string) string {
	if s, ok := a[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Int returns an integer argument, 0 if absent.
func (a Args) Int(key string) int {
	return a.IntOr(key, 0)
}

// IntOr returns an integer argument or a default. JSON numbers arrive as
// json.Number or float64 depending on the decoder.
func (a Args) IntOr(key string, def int) int {
	switch n := a[key].(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}
