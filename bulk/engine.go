// Package bulk implements the bulk unlock engine: given a base kind, a set of
// base entity ids and an action, it resolves the matching locked state per id
// and reverses it, producing exactly one outcome per requested id.
//
// Ids are processed independently: a failure on one id never aborts or rolls
// back the others, and within one id the individual record reversals are
// independent calls. A partially applied id is reported as Failed even though
// some of its records were already reversed; this at-least-once semantics is
// deliberate.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stokaro/relock/authz"
	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/fieldlock"
	"github.com/stokaro/relock/lockdb"
)

// Status is the per-id result of a bulk run.
type Status string

const (
	// StatusOK means every matching record was reversed, or nothing matched.
	StatusOK Status = "OK"
	// StatusFailed means at least one reversal hit a permission or
	// persistence failure.
	StatusFailed Status = "Failed"
)

// Outcome is the result for one requested base entity id.
type Outcome struct {
	BaseID int64  `json:"base_id"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type actionMode int

const (
	modeUnlockFields actionMode = iota
	modeUnlockComponents
	modePurgeComponents
)

// Action selects what a bulk run reverses: field locks by name, or locked
// related records by kind. Construct actions with UnlockFields,
// UnlockComponents or PurgeComponents.
type Action struct {
	mode   actionMode
	fields []string
	kinds  []string
}

// UnlockFields removes the instance-scoped field locks with the given names.
func UnlockFields(fields ...string) Action {
	return Action{mode: modeUnlockFields, fields: fields}
}

// UnlockComponents restores the locked records of the selected relation
// kinds. The "Device" pseudo-kind expands to every hardware component kind.
func UnlockComponents(kinds ...string) Action {
	return Action{mode: modeUnlockComponents, kinds: kinds}
}

// PurgeComponents permanently deletes the locked records of the selected
// relation kinds instead of restoring them.
func PurgeComponents(kinds ...string) Action {
	return Action{mode: modePurgeComponents, kinds: kinds}
}

// FieldLockDeleter is the write side of the field lock store consumed here.
type FieldLockDeleter interface {
	DeleteLocks(ctx context.Context, c fieldlock.Criteria) (int64, error)
}

// Engine runs bulk unlock and purge actions.
type Engine struct {
	registry *relation.Registry
	composer *composer.Composer
	finder   lockdb.RecordFinder
	entities lockdb.EntityStore
	locks    FieldLockDeleter
	perm     authz.Permissioner
	logger   *slog.Logger
}

// NewEngine creates an engine. Permission checks default to allow-all; wire a
// real permission layer with WithPermissioner.
func NewEngine(registry *relation.Registry, c *composer.Composer, finder lockdb.RecordFinder, entities lockdb.EntityStore, locks FieldLockDeleter) *Engine {
	return &Engine{
		registry: registry,
		composer: c,
		finder:   finder,
		entities: entities,
		locks:    locks,
		perm:     authz.AllowAll{},
		logger:   slog.Default(),
	}
}

// WithPermissioner sets the permission layer consulted before each reversal.
func (e *Engine) WithPermissioner(p authz.Permissioner) *Engine {
	tmp := *e
	tmp.perm = p
	return &tmp
}

// WithLogger sets the logger for the engine.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	tmp := *e
	tmp.logger = l
	return &tmp
}

// Run executes the action for every base id and returns one outcome per id,
// in input order. Request-level problems (empty base kind, empty selection,
// unknown relation kind) fail immediately before any side effect; per-record
// failures are captured into the outcomes, never returned as an error.
func (e *Engine) Run(ctx context.Context, baseKind string, baseIDs []int64, action Action) ([]Outcome, error) {
	if baseKind == "" {
		return nil, errors.New("bulk: base kind is empty")
	}

	var kinds []relation.Descriptor
	switch action.mode {
	case modeUnlockFields:
		if len(action.fields) == 0 {
			return nil, errors.New("bulk: no fields selected")
		}
	case modeUnlockComponents, modePurgeComponents:
		if len(action.kinds) == 0 {
			return nil, errors.New("bulk: no relation kinds selected")
		}
		expanded := relation.ExpandKinds(action.kinds)
		for _, kind := range expanded {
			d, ok := e.registry.Resolve(kind)
			if !ok {
				return nil, fmt.Errorf("bulk: unknown relation kind %q", kind)
			}
			kinds = append(kinds, d)
		}
	default:
		return nil, errors.New("bulk: invalid action")
	}

	outcomes := make([]Outcome, 0, len(baseIDs))
	for _, id := range baseIDs {
		run := &idRun{engine: e, base: relation.Base{Kind: baseKind, ID: id}}
		switch action.mode {
		case modeUnlockFields:
			run.unlockFields(ctx, action.fields)
		case modeUnlockComponents:
			run.processComponents(ctx, kinds, false)
		case modePurgeComponents:
			run.processComponents(ctx, kinds, true)
		}
		outcomes = append(outcomes, run.outcome())
	}

	e.logger.Info("Bulk run finished", "baseKind", baseKind, "ids", len(baseIDs), "failed", countFailed(outcomes))
	return outcomes, nil
}

// idRun holds the state of one base id within a bulk run: whether anything
// matched and what failed.
type idRun struct {
	engine   *Engine
	base     relation.Base
	matched  bool
	failures []string
}

// unlockFields deletes the instance-scoped locks for the selected fields.
// Deleting zero rows is not a failure: absence of a lock means there is
// nothing left to unlock.
func (r *idRun) unlockFields(ctx context.Context, fields []string) {
	itemsID := r.base.ID
	deleted, err := r.engine.locks.DeleteLocks(ctx, fieldlock.Criteria{
		ItemType: r.base.Kind,
		ItemsID:  &itemsID,
		Fields:   fields,
		Global:   false,
	})
	if err != nil {
		r.fail(fmt.Sprintf("failed to delete field locks: %v", err))
		return
	}
	r.matched = deleted > 0
}

// processComponents resolves the locked records of each selected kind and
// reverses them one by one. purge selects hard deletion over restore.
func (r *idRun) processComponents(ctx context.Context, descriptors []relation.Descriptor, purge bool) {
	for _, d := range descriptors {
		query, applicable, err := r.engine.composer.ComposeSingle(d, r.base)
		if err != nil {
			r.fail(fmt.Sprintf("%s: %v", relation.HumanizeKind(d.Kind), err))
			continue
		}
		if !applicable {
			// Contributes zero rows, trivially satisfied.
			continue
		}

		refs, err := r.engine.finder.FindRecords(ctx, query)
		if err != nil {
			r.fail(fmt.Sprintf("%s: lookup failed: %v", relation.HumanizeKind(d.Kind), err))
			continue
		}

		actionKind := d.ActionKind()
		for _, ref := range refs {
			r.matched = true
			r.reverse(ctx, actionKind, ref.ID, purge)
		}
	}
}

// reverse restores or purges one record, recording permission and persistence
// failures.
func (r *idRun) reverse(ctx context.Context, kind string, id int64, purge bool) {
	permission := authz.PermissionUpdate
	if purge {
		permission = authz.PermissionPurge
	}
	if !r.engine.perm.Can(kind, id, permission) {
		r.fail(fmt.Sprintf("%s: permission denied", r.describe(ctx, kind, id)))
		return
	}

	var err error
	if purge {
		err = r.engine.entities.Delete(ctx, kind, id)
	} else {
		err = r.engine.entities.Restore(ctx, kind, id)
	}
	if err != nil {
		r.fail(fmt.Sprintf("%s: %v", r.describe(ctx, kind, id), err))
	}
}

// describe labels one record for a failure detail, attaching the record's name
// when the row is still fetchable.
func (r *idRun) describe(ctx context.Context, kind string, id int64) string {
	label := fmt.Sprintf("%s #%d", relation.HumanizeKind(kind), id)
	record, ok, err := r.engine.entities.GetByID(ctx, kind, id)
	if err != nil || !ok {
		return label
	}
	if name, ok := record.Fields["name"].(string); ok && name != "" {
		return fmt.Sprintf("%s (%s)", label, name)
	}
	return label
}

func (r *idRun) fail(detail string) {
	r.failures = append(r.failures, detail)
	r.engine.logger.Warn("Bulk reversal failed", "baseKind", r.base.Kind, "baseID", r.base.ID, "detail", detail)
}

// outcome reduces the run to the reported outcome. An id where nothing matched
// anywhere is trivially satisfied and reports OK.
func (r *idRun) outcome() Outcome {
	if len(r.failures) > 0 {
		return Outcome{BaseID: r.base.ID, Status: StatusFailed, Detail: strings.Join(r.failures, "; ")}
	}
	if !r.matched {
		return Outcome{BaseID: r.base.ID, Status: StatusOK, Detail: "nothing to unlock"}
	}
	return Outcome{BaseID: r.base.ID, Status: StatusOK}
}

func countFailed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}
