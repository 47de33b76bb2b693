// Package resolve answers "what is locked for this base entity": field-level
// locks from the field lock store and record-level locks from one union
// lookup over every registered relation kind.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stokaro/relock/config"
	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/fieldlock"
	"github.com/stokaro/relock/lockdb"
	"github.com/stokaro/relock/lockdb/types"
)

// FieldLockLister is the read side of the field lock store consumed here.
type FieldLockLister interface {
	ListLocksFor(ctx context.Context, itemtype string, itemsID int64) ([]fieldlock.LockedField, error)
}

// Resolution is the locked state of one base entity. Neither collection is
// sorted; presentation ordering is a caller concern.
type Resolution struct {
	FieldLocks  []fieldlock.LockedField `json:"field_locks"`
	RecordLocks []types.RecordRef       `json:"record_locks"`
}

// Resolver combines the relation registry, the query composer and the field
// lock store into the locked-state read path.
type Resolver struct {
	registry *relation.Registry
	composer *composer.Composer
	finder   lockdb.RecordFinder
	locks    FieldLockLister
	options  *config.ResolveOptions
	logger   *slog.Logger
}

// New creates a resolver with default options.
func New(registry *relation.Registry, c *composer.Composer, finder lockdb.RecordFinder, locks FieldLockLister) *Resolver {
	return &Resolver{
		registry: registry,
		composer: c,
		finder:   finder,
		locks:    locks,
		options:  config.DefaultResolveOptions(),
		logger:   slog.Default(),
	}
}

// WithOptions sets the resolution options.
func (r *Resolver) WithOptions(opts *config.ResolveOptions) *Resolver {
	tmp := *r
	if opts == nil {
		opts = config.DefaultResolveOptions()
	}
	tmp.options = opts
	return &tmp
}

// WithLogger sets the logger for the resolver.
func (r *Resolver) WithLogger(l *slog.Logger) *Resolver {
	tmp := *r
	tmp.logger = l
	return &tmp
}

// Resolve returns every field lock and locked related record of the base
// entity. Record locks are gathered in one physical union query rather than
// one round trip per kind.
func (r *Resolver) Resolve(ctx context.Context, base relation.Base) (*Resolution, error) {
	if base.Kind == "" {
		return nil, errors.New("resolve: base kind is empty")
	}
	if base.ID <= 0 {
		return nil, fmt.Errorf("resolve: invalid base id %d", base.ID)
	}

	fieldLocks, err := r.locks.ListLocksFor(ctx, base.Kind, base.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve field locks for %s #%d: %w", base.Kind, base.ID, err)
	}

	kinds := r.registry.AllKinds()
	if limit := r.options.MaxKindsPerResolve; limit > 0 && len(kinds) > limit {
		r.logger.Debug("Truncating resolve kind list", "registered", len(kinds), "limit", limit)
		kinds = kinds[:limit]
	}

	query, err := r.composer.ComposeUnion(base, r.registry.Descriptors(kinds))
	if err != nil {
		return nil, fmt.Errorf("failed to compose locked record lookup for %s #%d: %w", base.Kind, base.ID, err)
	}

	recordLocks, err := r.finder.FindRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve locked records for %s #%d: %w", base.Kind, base.ID, err)
	}

	return &Resolution{FieldLocks: fieldLocks, RecordLocks: recordLocks}, nil
}
