package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// tool pairs a spec with its compiled schema and handler.
type tool struct {
	spec    Spec
	schema  *jsonschema.Schema
	handler Handler
}

// Registry is the catalog of named operations. It is the trust boundary
// between model-generated input and query execution: Dispatch validates the
// tool name and arguments before any handler runs, and never lets a handler
// failure escape as anything but a structured error.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*tool
	names []string // registration order, for a stable catalog
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*tool)}
}

// Register adds an operation. The spec's parameter schema is compiled once
// here; registration fails on a duplicate name or an invalid schema.
func (r *Registry) Register(spec Spec, handler Handler) error {
	schema, err := compileSchema(spec)
	if err != nil {
		return fmt.Errorf("tool %q: %w", spec.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("tool %q already registered", spec.Name)
	}
	r.tools[spec.Name] = &tool{spec: spec, schema: schema, handler: handler}
	r.names = append(r.names, spec.Name)
	return nil
}

// Specs returns all specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.names))
	for _, name := range r.names {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Has checks whether a tool exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Dispatch executes the named tool with raw model-produced arguments.
// It fails closed: an unknown name, malformed JSON, or a schema violation
// produces a structured error without touching the engine, and any
// handler-level failure (including a panic) is flattened into the result.
func (r *Registry) Dispatch(ctx context.Context, name, rawArguments string) (result Result) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Failuref("unknown tool: %s", name)
	}

	args, err := parseArguments(t.schema, rawArguments)
	if err != nil {
		return Failuref("invalid arguments for %s: %v", name, err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = Failuref("%s: internal handler error: %v", name, rec)
		}
	}()

	payload, err := t.handler(ctx, args)
	if err != nil {
		return Failuref("%s: %v", name, err)
	}
	return Success(payload)
}

func compileSchema(spec Spec) (*jsonschema.Schema, error) {
	encoded := Result{data: spec.Parameters}.JSON()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("unmarshal parameter schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	resource := spec.Name + ".schema.json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// parseArguments decodes and validates the raw argument payload.
// An empty payload is treated as an empty object, which still must satisfy
// the schema's required fields.
func parseArguments(schema *jsonschema.Schema, raw string) (Args, error) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	// jsonschema.UnmarshalJSON keeps numbers as json.Number, which the
	// validator needs for integer checks.
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object")
	}
	return Args(obj), nil
}
