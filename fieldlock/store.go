// Package fieldlock persists per-field locks: markers that a human operator
// overwrote an inventory-sourced field and the inventory must no longer touch
// it.
//
// A lock is either instance-scoped (one field of one entity) or global (one
// field of every instance of a kind). Global locks store items_id = 0, which
// lets a single unique index enforce both uniqueness invariants.
package fieldlock

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/platform"
	"github.com/stokaro/relock/lockdb"
)

// LockedField is one persisted field lock. Value retains the last value the
// inventory reported, for audit and comparison.
type LockedField struct {
	ID       int64  `json:"id"`
	ItemType string `json:"itemtype"`
	ItemsID  int64  `json:"items_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	IsGlobal bool   `json:"is_global"`
}

// Criteria selects field locks for deletion. ItemType is mandatory; ItemsID
// narrows to one instance when non-nil; Fields narrows to the named fields
// when non-empty; Global selects global rather than instance locks.
type Criteria struct {
	ItemType string
	ItemsID  *int64
	Fields   []string
	Global   bool
}

// querier is the subset of database/sql used by the store.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store is the SQL-backed field lock store.
type Store struct {
	db      querier
	dialect composer.Dialect
	logger  *slog.Logger
}

// NewStore creates a store over an open connection.
func NewStore(conn *lockdb.Connection) *Store {
	return &Store{db: conn.DB(), dialect: conn.Dialect(), logger: slog.Default()}
}

// WithLogger sets the logger for the store.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	tmp := *s
	tmp.logger = l
	return &tmp
}

// ListLocksFor returns every instance-scoped lock of the entity plus every
// global lock of its kind. Both may coexist for the same field; no
// deduplication happens at this layer.
func (s *Store) ListLocksFor(ctx context.Context, itemtype string, itemsID int64) ([]LockedField, error) {
	query, args := s.buildList(itemtype, itemsID)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list field locks for %s #%d: %w", itemtype, itemsID, err)
	}
	defer rows.Close()

	var locks []LockedField
	for rows.Next() {
		var lock LockedField
		var global int
		if err := rows.Scan(&lock.ID, &lock.ItemType, &lock.ItemsID, &lock.Field, &lock.Value, &global); err != nil {
			return nil, fmt.Errorf("failed to scan field lock: %w", err)
		}
		lock.IsGlobal = global != 0
		locks = append(locks, lock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating field locks: %w", err)
	}
	return locks, nil
}

// CreateLock inserts one field lock and returns its id. Global locks are
// normalized to items_id = 0 so the unique index holds.
func (s *Store) CreateLock(ctx context.Context, lock LockedField) (int64, error) {
	query, args := s.buildInsert(lock)
	if s.dialect.Name() == platform.Postgres {
		var id int64
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to create field lock: %w", err)
		}
		defer rows.Close()
		if !rows.Next() {
			return 0, fmt.Errorf("failed to create field lock: no id returned")
		}
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to scan field lock id: %w", err)
		}
		return id, rows.Err()
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create field lock: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read field lock id: %w", err)
	}
	return id, nil
}

// DeleteLocks removes every lock matching the criteria and returns the number
// of rows actually removed. Deleting locks that do not exist is not an error;
// the call is idempotent.
func (s *Store) DeleteLocks(ctx context.Context, c Criteria) (int64, error) {
	query, args, err := s.buildDelete(c)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete field locks for %s: %w", c.ItemType, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted lock count: %w", err)
	}
	s.logger.Debug("Deleted field locks", "itemtype", c.ItemType, "count", deleted)
	return deleted, nil
}

// buildList renders the lock listing statement: instance locks for the id
// plus global locks for the type.
func (s *Store) buildList(itemtype string, itemsID int64) (string, []any) {
	q := s.dialect.QuoteIdentifier
	query := fmt.Sprintf(
		"SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = %s AND (%s = 1 OR %s = %s)",
		q("id"), q("itemtype"), q("items_id"), q("field"), q("value"), q("is_global"),
		q(TableName),
		q("itemtype"), s.dialect.Placeholder(1),
		q("is_global"),
		q("items_id"), s.dialect.Placeholder(2))
	return query, []any{itemtype, itemsID}
}

// buildInsert renders the lock insert statement. Global locks are normalized
// to items_id = 0 here, so the unique index holds no matter what the caller
// put in ItemsID.
func (s *Store) buildInsert(lock LockedField) (string, []any) {
	q := s.dialect.QuoteIdentifier
	global := 0
	if lock.IsGlobal {
		global = 1
		lock.ItemsID = 0
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s, %s, %s, %s, %s)",
		q(TableName),
		q("itemtype"), q("items_id"), q("field"), q("value"), q("is_global"),
		s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3),
		s.dialect.Placeholder(4), s.dialect.Placeholder(5))
	if s.dialect.Name() == platform.Postgres {
		query += " RETURNING " + q("id")
	}
	return query, []any{lock.ItemType, lock.ItemsID, lock.Field, lock.Value, global}
}

// buildDelete renders the criteria-scoped delete statement.
func (s *Store) buildDelete(c Criteria) (string, []any, error) {
	if c.ItemType == "" {
		return "", nil, fmt.Errorf("fieldlock: delete criteria need an itemtype")
	}
	q := s.dialect.QuoteIdentifier
	global := 0
	if c.Global {
		global = 1
	}

	var sb strings.Builder
	args := []any{c.ItemType, global}
	fmt.Fprintf(&sb, "DELETE FROM %s WHERE %s = %s AND %s = %s",
		q(TableName),
		q("itemtype"), s.dialect.Placeholder(1),
		q("is_global"), s.dialect.Placeholder(2))
	if c.ItemsID != nil {
		args = append(args, *c.ItemsID)
		fmt.Fprintf(&sb, " AND %s = %s", q("items_id"), s.dialect.Placeholder(len(args)))
	}
	if len(c.Fields) > 0 {
		placeholders := make([]string, len(c.Fields))
		for i, field := range c.Fields {
			args = append(args, field)
			placeholders[i] = s.dialect.Placeholder(len(args))
		}
		fmt.Fprintf(&sb, " AND %s IN (%s)", q("field"), strings.Join(placeholders, ", "))
	}
	return sb.String(), args, nil
}
