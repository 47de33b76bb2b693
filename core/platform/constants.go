// Package platform defines the database platforms relock runs against and
// normalizes the aliases they are known by in connection URLs.
package platform

import (
	"strings"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
)

// NormalizeDialect maps a connection URL scheme or driver alias to a
// canonical platform name. MariaDB speaks the MySQL protocol and is served
// by the mysql driver. Unknown dialects map to the empty string.
func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql", "mariadb":
		return MySQL
	default:
		return ""
	}
}
