// Package postgres provides the PostgreSQL dialect for lookup composition.
package postgres

import (
	"strconv"

	"github.com/lib/pq"

	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/platform"
)

var _ composer.Dialect = (*Dialect)(nil)

// Dialect implements composer.Dialect for PostgreSQL.
type Dialect struct{}

// New creates a new PostgreSQL dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name returns "postgres".
func (d *Dialect) Name() string {
	return platform.Postgres
}

// QuoteIdentifier quotes an identifier with double quotes.
func (d *Dialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// Placeholder returns the positional placeholder $n.
func (d *Dialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
