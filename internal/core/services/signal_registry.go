package services

import (
	"fmt"
	"sort"

	"github.com/TaoKevinKK/lilac/internal/core/domain"
)

// SignalRegistry maps signal names to constructors. It is owned by the
// execution context, not the process: each session creates, populates and
// clears its own registry. Registering a name that already exists
// overwrites the prior mapping.
//
// The registry is not safe for concurrent mutation; callers must
// serialize Register and Clear.
type SignalRegistry struct {
	constructors map[string]domain.Constructor
}

// NewSignalRegistry creates an empty registry.
func NewSignalRegistry() *SignalRegistry {
	return &SignalRegistry{
		constructors: make(map[string]domain.Constructor),
	}
}

// Register adds a signal constructor under the name reported by a fresh
// instance. Last write wins.
func (r *SignalRegistry) Register(ctor domain.Constructor) {
	r.constructors[ctor().Name()] = ctor
}

// New constructs a signal instance by registered name.
func (r *SignalRegistry) New(name string) (domain.Signal, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("signal %q is not registered: %w", name, domain.ErrNotFound)
	}
	return ctor(), nil
}

// Names returns the registered signal names, sorted.
func (r *SignalRegistry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registered constructors. Called at session end so no
// state persists between independent sessions.
func (r *SignalRegistry) Clear() {
	r.constructors = make(map[string]domain.Constructor)
}
