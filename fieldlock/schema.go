package fieldlock

import (
	"context"
	"fmt"

	"github.com/stokaro/relock/core/platform"
	"github.com/stokaro/relock/lockdb"
)

// TableName is the physical table holding field locks.
const TableName = "locked_fields"

// Global locks store items_id = 0, so one unique index enforces both
// uniqueness invariants: one global lock per (itemtype, field) and one
// instance lock per (itemtype, items_id, field).
const (
	postgresSchemaSQL = `CREATE TABLE IF NOT EXISTS locked_fields (
	id BIGSERIAL PRIMARY KEY,
	itemtype VARCHAR(100) NOT NULL,
	items_id BIGINT NOT NULL DEFAULT 0,
	field VARCHAR(100) NOT NULL,
	value VARCHAR(255) NOT NULL DEFAULT '',
	is_global SMALLINT NOT NULL DEFAULT 0,
	UNIQUE (itemtype, items_id, field)
)`

	mysqlSchemaSQL = "CREATE TABLE IF NOT EXISTS locked_fields (\n" +
		"	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,\n" +
		"	itemtype VARCHAR(100) NOT NULL,\n" +
		"	items_id BIGINT NOT NULL DEFAULT 0,\n" +
		"	field VARCHAR(100) NOT NULL,\n" +
		"	value VARCHAR(255) NOT NULL DEFAULT '',\n" +
		"	is_global TINYINT NOT NULL DEFAULT 0,\n" +
		"	UNIQUE KEY unicity (itemtype, items_id, field)\n" +
		")"
)

// EnsureSchema creates the locked_fields table if it does not exist.
func EnsureSchema(ctx context.Context, conn *lockdb.Connection) error {
	var ddl string
	switch conn.Dialect().Name() {
	case platform.Postgres:
		ddl = postgresSchemaSQL
	case platform.MySQL:
		ddl = mysqlSchemaSQL
	default:
		return fmt.Errorf("%w: %s", lockdb.ErrUnsupportedDialect, conn.Dialect().Name())
	}
	if _, err := conn.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", TableName, err)
	}
	return nil
}
