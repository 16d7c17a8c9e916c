package extract

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Engine is a document-analysis capability.
type Engine interface {
	// Name identifies the engine in configuration, logs and output.
	Name() string

	// Analyze reads the document at path. It fails with ErrUnsupportedFormat
	// when the format is outside what the engine reads.
	Analyze(ctx context.Context, path string) (*RawResult, error)
}

// Factory builds an Engine.
type Factory func() (Engine, error)

// Registry maps engine names to factories so the primary/fallback pair can
// be chosen from configuration.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build instantiates the engine registered under name.
func (r *Registry) Build(name string) (Engine, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	e, err := f()
	if err != nil {
		return nil, fmt.Errorf("build engine %s: %w", name, err)
	}
	return e, nil
}

// Names returns registered engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
