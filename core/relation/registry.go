package relation

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrRegistryFrozen is returned by Extend after the registry has served its
	// first lookup. Registration is a process-start concern; a late attempt is
	// a wiring bug, not a runtime condition.
	ErrRegistryFrozen = errors.New("relation: registry is frozen")

	// ErrDuplicateKind is returned by Extend when a descriptor for the kind is
	// already registered.
	ErrDuplicateKind = errors.New("relation: kind already registered")
)

// Contributor lets external code (plugins) register additional lockable kinds
// during registry construction. It is invoked exactly once, before the
// registry is handed out.
type Contributor interface {
	ContributeLockableKinds() []Descriptor
}

// ContributorFunc adapts a plain function to the Contributor interface.
type ContributorFunc func() []Descriptor

// ContributeLockableKinds implements the Contributor interface.
func (f ContributorFunc) ContributeLockableKinds() []Descriptor {
	return f()
}

// Registry maps related-entity kind identifiers to their descriptors.
//
// A registry is built once at process start from the seeded base set plus any
// plugin contributions, then frozen by its first Resolve or AllKinds call.
// A frozen registry is read-only and safe for concurrent readers without
// locking.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	order  []string
	byKind map[string]Descriptor
}

// NewRegistry creates a registry seeded with the built-in lockable kinds and
// extended by the given contributors, in order. A contributor returning an
// invalid or duplicate descriptor fails construction.
func NewRegistry(contributors ...Contributor) (*Registry, error) {
	r := &Registry{byKind: make(map[string]Descriptor)}
	for _, d := range seedDescriptors() {
		if err := r.Extend(d); err != nil {
			return nil, fmt.Errorf("failed to seed registry: %w", err)
		}
	}
	for _, c := range contributors {
		for _, d := range c.ContributeLockableKinds() {
			if err := r.Extend(d); err != nil {
				return nil, fmt.Errorf("failed to apply contributed kind %q: %w", d.Kind, err)
			}
		}
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. Intended for
// process-start wiring where a broken contribution is fatal anyway.
func MustNewRegistry(contributors ...Contributor) *Registry {
	r, err := NewRegistry(contributors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Extend registers one additional descriptor. It must be called before the
// registry serves its first lookup; afterwards it returns ErrRegistryFrozen.
func (r *Registry) Extend(d Descriptor) error {
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if d.Kind == "" {
		return errors.New("relation: descriptor has empty kind")
	}
	if d.Shape == nil {
		return fmt.Errorf("relation: descriptor %q has no connection shape", d.Kind)
	}
	if d.Table == "" {
		return fmt.Errorf("relation: descriptor %q has no table", d.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if _, exists := r.byKind[d.Kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, d.Kind)
	}
	if d.ResultIDField == "" {
		d.ResultIDField = "id"
	}
	r.byKind[d.Kind] = d
	r.order = append(r.order, d.Kind)
	return nil
}

// Freeze marks the registry read-only. Called implicitly by the first Resolve
// or AllKinds; calling it explicitly after wiring is harmless.
//
// Taking the mutex here orders the freeze after any in-flight Extend: once
// Freeze returns, no writer can touch the maps again, so readers run without
// locking.
func (r *Registry) Freeze() {
	if r.frozen.Load() {
		return
	}
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Resolve returns the descriptor registered for the given kind. Freezes the
// registry.
func (r *Registry) Resolve(kind string) (Descriptor, bool) {
	r.Freeze()
	d, ok := r.byKind[kind]
	return d, ok
}

// AllKinds returns every registered kind in registration order. Freezes the
// registry. The returned slice is a copy.
func (r *Registry) AllKinds() []string {
	r.Freeze()
	kinds := make([]string, len(r.order))
	copy(kinds, r.order)
	return kinds
}

// Descriptors returns the descriptors for the given kinds, skipping unknown
// ones. Freezes the registry.
func (r *Registry) Descriptors(kinds []string) []Descriptor {
	r.Freeze()
	out := make([]Descriptor, 0, len(kinds))
	for _, k := range kinds {
		if d, ok := r.byKind[k]; ok {
			out = append(out, d)
		}
	}
	return out
}
