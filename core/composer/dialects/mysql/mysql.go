// Package mysql provides the MySQL dialect for lookup composition.
package mysql

import (
	"strings"

	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/platform"
)

var _ composer.Dialect = (*Dialect)(nil)

// Dialect implements composer.Dialect for MySQL.
type Dialect struct{}

// New creates a new MySQL dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name returns "mysql".
func (d *Dialect) Name() string {
	return platform.MySQL
}

// QuoteIdentifier quotes an identifier with backticks, doubling any embedded
// backtick.
func (d *Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Placeholder returns "?" regardless of position.
func (d *Dialect) Placeholder(_ int) string {
	return "?"
}
