package composer

// Dialect abstracts the SQL syntax differences relevant to lookup composition:
// identifier quoting and parameter placeholders. Implementations live in the
// dialects subpackages.
type Dialect interface {
	// Name returns the dialect identifier, e.g. "postgres" or "mysql"
	Name() string
	// QuoteIdentifier quotes a table or column name for this dialect
	QuoteIdentifier(name string) string
	// Placeholder returns the parameter placeholder for the n-th argument
	// (1-based) of a statement
	Placeholder(n int) string
}
