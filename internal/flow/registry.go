package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jonathan/career-compass/internal/llm"
)

// Runner is the type-erased view of a Flow used by the registry, the HTTP server,
// the CLI and the MCP tool server.
type Runner interface {
	Name() string
	Description() string
	PromptKey() string
	Tier() llm.ModelTier
	Input() Shape
	Output() Shape
	InputSchema() json.RawMessage
	OutputSchema() json.RawMessage
	RunJSON(ctx context.Context, inv Invoker, input json.RawMessage) (json.RawMessage, error)
	RenderJSON(input json.RawMessage) (Prompt, error)
}

// Registry holds flows by name.
type Registry struct {
	runners map[string]Runner
}

// NewRegistry creates a registry. Duplicate names are rejected.
func NewRegistry(runners ...Runner) (*Registry, error) {
	r := &Registry{runners: make(map[string]Runner, len(runners))}
	for _, runner := range runners {
		if _, exists := r.runners[runner.Name()]; exists {
			return nil, fmt.Errorf("duplicate flow %q", runner.Name())
		}
		r.runners[runner.Name()] = runner
	}
	return r, nil
}

// Get returns the flow named name.
func (r *Registry) Get(name string) (Runner, bool) {
	runner, ok := r.runners[name]
	return runner, ok
}

// List returns all flows sorted by name.
func (r *Registry) List() []Runner {
	out := make([]Runner, 0, len(r.runners))
	for _, runner := range r.runners {
		out = append(out, runner)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns all flow names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the named flow on a JSON input.
func (r *Registry) Run(ctx context.Context, inv Invoker, name string, input json.RawMessage) (json.RawMessage, error) {
	runner, ok := r.Get(name)
	if !ok {
		return nil, &ValidationError{Flow: name, Message: "unknown flow"}
	}
	return runner.RunJSON(ctx, inv, input)
}
