// Package lockdb provides the database connection layer for lock resolution:
// opening a connection from a URL, executing composed lookups, and the
// restore/delete/fetch primitives on entity tables.
//
// Supported URL schemes are postgres:// (via the pgx stdlib driver) and
// mysql:// (via go-sql-driver). The scheme also selects the SQL dialect used
// by the query composer.
package lockdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql" // driver: mysql
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx

	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/composer/dialects/mysql"
	"github.com/stokaro/relock/core/composer/dialects/postgres"
	"github.com/stokaro/relock/core/platform"
	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/lockdb/types"
)

// ErrUnsupportedDialect is returned by Open for URL schemes other than
// postgres and mysql.
var ErrUnsupportedDialect = errors.New("lockdb: unsupported database dialect")

// ErrRecordNotFound is returned by Restore and Delete when no row with the
// given id exists on the entity table.
var ErrRecordNotFound = errors.New("lockdb: record not found")

// RecordFinder executes a composed lookup and returns the matching locked
// records.
type RecordFinder interface {
	FindRecords(ctx context.Context, q composer.Query) ([]types.RecordRef, error)
}

// EntityStore provides the per-record primitives the bulk engine acts
// through: fetch, restore (clear the soft-delete flag) and hard delete.
type EntityStore interface {
	GetByID(ctx context.Context, kind string, id int64) (types.Record, bool, error)
	Restore(ctx context.Context, kind string, id int64) error
	Delete(ctx context.Context, kind string, id int64) error
}

// Connection wraps a database handle together with the dialect matching it.
type Connection struct {
	db      *sql.DB
	dialect composer.Dialect
	logger  *slog.Logger
}

var (
	_ RecordFinder = (*Connection)(nil)
	_ EntityStore  = (*Connection)(nil)
)

// Open connects to the database identified by the URL and verifies the
// connection with a bounded ping.
func Open(dbURL string) (*Connection, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	var db *sql.DB
	var dialect composer.Dialect
	switch platform.NormalizeDialect(u.Scheme) {
	case platform.Postgres:
		db, err = sql.Open("pgx", dbURL)
		dialect = postgres.New()
	case platform.MySQL:
		var dsn string
		dsn, err = mysqlDSN(u)
		if err == nil {
			db, err = sql.Open("mysql", dsn)
		}
		dialect = mysql.New()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewConnection(db, dialect), nil
}

// NewConnection wraps an existing database handle. The dialect must match the
// handle's driver.
func NewConnection(db *sql.DB, dialect composer.Dialect) *Connection {
	return &Connection{db: db, dialect: dialect, logger: slog.Default()}
}

// WithLogger sets the logger for the connection.
func (c *Connection) WithLogger(l *slog.Logger) *Connection {
	tmp := *c
	tmp.logger = l
	return &tmp
}

// DB returns the underlying database handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Dialect returns the SQL dialect matching the connection.
func (c *Connection) Dialect() composer.Dialect {
	return c.dialect
}

// Close closes the underlying database handle.
func (c *Connection) Close() error {
	return c.db.Close()
}

// FindRecords executes a composed lookup and scans its (kind, record_id)
// rows. An empty query yields no rows and no round trip.
func (c *Connection) FindRecords(ctx context.Context, q composer.Query) ([]types.RecordRef, error) {
	if q.Empty() {
		return nil, nil
	}
	rows, err := c.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute lookup: %w", err)
	}
	defer rows.Close()

	var refs []types.RecordRef
	for rows.Next() {
		var ref types.RecordRef
		if err := rows.Scan(&ref.Kind, &ref.ID); err != nil {
			return nil, fmt.Errorf("failed to scan lookup row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lookup rows: %w", err)
	}
	return refs, nil
}

// GetByID fetches one entity row by id, returning every column keyed by name.
func (c *Connection) GetByID(ctx context.Context, kind string, id int64) (types.Record, bool, error) {
	table := relation.TableForKind(kind)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		c.dialect.QuoteIdentifier(table),
		c.dialect.QuoteIdentifier("id"),
		c.dialect.Placeholder(1))

	rows, err := c.db.QueryContext(ctx, query, id)
	if err != nil {
		return types.Record{}, false, fmt.Errorf("failed to fetch %s #%d: %w", kind, id, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return types.Record{}, false, fmt.Errorf("failed to read columns for %s: %w", kind, err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return types.Record{}, false, fmt.Errorf("error fetching %s #%d: %w", kind, id, err)
		}
		return types.Record{}, false, nil
	}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	if err := rows.Scan(scanTargets...); err != nil {
		return types.Record{}, false, fmt.Errorf("failed to scan %s #%d: %w", kind, id, err)
	}

	record := types.Record{Kind: kind, ID: id, Fields: make(map[string]any, len(columns))}
	for i, col := range columns {
		record.Fields[col] = values[i]
	}
	return record, true, nil
}

// Restore clears the soft-delete flag of one entity row, making it live
// again. The dynamic flag is left untouched so the inventory keeps managing
// the record. Returns ErrRecordNotFound if no row was updated.
func (c *Connection) Restore(ctx context.Context, kind string, id int64) error {
	table := relation.TableForKind(kind)
	query := fmt.Sprintf("UPDATE %s SET %s = 0 WHERE %s = %s",
		c.dialect.QuoteIdentifier(table),
		c.dialect.QuoteIdentifier("is_deleted"),
		c.dialect.QuoteIdentifier("id"),
		c.dialect.Placeholder(1))

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to restore %s #%d: %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read restore result for %s #%d: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s #%d", ErrRecordNotFound, kind, id)
	}
	c.logger.Debug("Restored record", "kind", kind, "id", id)
	return nil
}

// Delete permanently removes one entity row (purge).
// Returns ErrRecordNotFound if no row was deleted.
func (c *Connection) Delete(ctx context.Context, kind string, id int64) error {
	table := relation.TableForKind(kind)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		c.dialect.QuoteIdentifier(table),
		c.dialect.QuoteIdentifier("id"),
		c.dialect.Placeholder(1))

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to purge %s #%d: %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read purge result for %s #%d: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s #%d", ErrRecordNotFound, kind, id)
	}
	c.logger.Debug("Purged record", "kind", kind, "id", id)
	return nil
}

// mysqlDSN converts a mysql:// URL into the DSN format the go-sql-driver
// expects: user:pass@tcp(host:port)/dbname?params.
func mysqlDSN(u *url.URL) (string, error) {
	if u.Host == "" {
		return "", errors.New("lockdb: mysql URL has no host")
	}
	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}
	var credentials string
	if u.User != nil {
		credentials = u.User.Username()
		if password, ok := u.User.Password(); ok {
			credentials += ":" + password
		}
		credentials += "@"
	}
	dbName := ""
	if len(u.Path) > 1 {
		dbName = u.Path[1:]
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", credentials, host, dbName)
	if u.RawQuery != "" {
		dsn += "?" + u.RawQuery
	}
	return dsn, nil
}
