// Package config provides configuration options for the relock lock
// resolution engine.
//
// This package provides a simple, programmatic API for configuring resolution
// behavior when using relock as a library. It focuses on clean Go APIs rather
// than external configuration file management.
package config

// ResolveOptions contains configuration options for locked-state resolution.
type ResolveOptions struct {
	// MaxKindsPerResolve bounds how many registered relation kinds a single
	// resolve queries. The union lookup is the only latency-sensitive path;
	// capping the kind count bounds its size. Zero means unlimited.
	MaxKindsPerResolve int
}

// DefaultResolveOptions returns the default resolution options: every
// registered kind is queried.
func DefaultResolveOptions() *ResolveOptions {
	return &ResolveOptions{
		MaxKindsPerResolve: 0,
	}
}

// WithMaxKindsPerResolve returns a new ResolveOptions bounding the number of
// relation kinds queried per resolve.
//
// Example:
//
//	opts := config.WithMaxKindsPerResolve(16)
func WithMaxKindsPerResolve(n int) *ResolveOptions {
	return &ResolveOptions{
		MaxKindsPerResolve: n,
	}
}
