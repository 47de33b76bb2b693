// Package composer turns relation descriptors into executable SQL lookups.
//
// A composed lookup always yields rows of the shape (kind, record_id), where
// kind is the related-entity kind the row belongs to and record_id identifies
// the row to act on. ComposeSingle builds the lookup for one descriptor;
// ComposeUnion combines every applicable descriptor into one UNION ALL query
// so the full locked-state view costs a single round trip.
//
// The composer implements relation.ShapeVisitor: each connection-shape variant
// has exactly one resolution algorithm, selected by dispatch rather than
// branching.
package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stokaro/relock/core/relation"
)

// Query is an executable parameterized lookup.
type Query struct {
	// SQL is the statement text, with dialect-specific placeholders
	SQL string
	// Args are the statement parameters, in placeholder order
	Args []any
}

// Empty reports whether the query selects nothing. ComposeUnion returns an
// empty query when no descriptor applies to the base kind; callers treat it
// as zero rows, not an error.
func (q Query) Empty() bool {
	return q.SQL == ""
}

// Composer builds lookups for one SQL dialect.
type Composer struct {
	dialect Dialect
}

// New creates a composer for the given dialect.
func New(dialect Dialect) *Composer {
	return &Composer{dialect: dialect}
}

// Dialect returns the dialect this composer renders for.
func (c *Composer) Dialect() Dialect {
	return c.dialect
}

// ComposeSingle builds the lookup finding every locked row of one related kind
// for the given base entity. The second return value is false when the
// descriptor does not apply to this base kind; such a kind contributes zero
// rows and must be skipped, not treated as an error.
func (c *Composer) ComposeSingle(d relation.Descriptor, base relation.Base) (Query, bool, error) {
	return c.compose(d, base, 0)
}

// ComposeUnion builds one combined lookup over every applicable descriptor.
// Result rows are not ordered; callers requiring stable presentation order
// must sort by (kind, record_id) themselves.
func (c *Composer) ComposeUnion(base relation.Base, descriptors []relation.Descriptor) (Query, error) {
	var parts []string
	var args []any
	for _, d := range descriptors {
		q, applicable, err := c.compose(d, base, len(args))
		if err != nil {
			return Query{}, err
		}
		if !applicable {
			continue
		}
		parts = append(parts, q.SQL)
		args = append(args, q.Args...)
	}
	if len(parts) == 0 {
		return Query{}, nil
	}
	return Query{SQL: strings.Join(parts, "\nUNION ALL\n"), Args: args}, nil
}

func (c *Composer) compose(d relation.Descriptor, base relation.Base, argOffset int) (Query, bool, error) {
	if d.Shape == nil {
		return Query{}, false, fmt.Errorf("composer: descriptor %q has no connection shape", d.Kind)
	}
	v := &lookupVisitor{dialect: c.dialect, descriptor: d, base: base, argOffset: argOffset}
	if err := d.Shape.Accept(v); err != nil {
		return Query{}, false, fmt.Errorf("failed to compose lookup for kind %q: %w", d.Kind, err)
	}
	if !v.applicable {
		return Query{}, false, nil
	}
	return Query{SQL: v.sql.String(), Args: v.args}, true, nil
}

var _ relation.ShapeVisitor = (*lookupVisitor)(nil)

// lookupVisitor accumulates the SQL and arguments for one descriptor lookup.
// A fresh visitor is used per compose call; argOffset keeps placeholder
// numbering continuous across the sub-lookups of a union.
type lookupVisitor struct {
	dialect    Dialect
	descriptor relation.Descriptor
	base       relation.Base
	argOffset  int

	applicable bool
	sql        strings.Builder
	args       []any
}

// placeholder registers one statement argument and returns its placeholder.
func (v *lookupVisitor) placeholder(value any) string {
	v.args = append(v.args, value)
	return v.dialect.Placeholder(v.argOffset + len(v.args))
}

func (v *lookupVisitor) quote(name string) string {
	return v.dialect.QuoteIdentifier(name)
}

// writeSelect emits the SELECT list and FROM clause for the related table
// under the given alias.
func (v *lookupVisitor) writeSelect(alias string) {
	fmt.Fprintf(&v.sql, "SELECT %s AS kind, %s.%s AS record_id FROM %s %s",
		kindLiteral(v.descriptor.Kind),
		alias, v.quote(v.descriptor.ResultIDField),
		v.quote(v.descriptor.Table), alias)
}

// lockPredicate expresses "this row is locked" for the aliased table. Every
// shape reuses this one definition: a locked row is inventory-created and
// soft-deleted at the same time.
func (v *lookupVisitor) lockPredicate(alias string) string {
	return fmt.Sprintf("%s.%s = 1 AND %s.%s = 1",
		alias, v.quote("is_dynamic"),
		alias, v.quote("is_deleted"))
}

// VisitDirectOwner implements the ShapeVisitor interface. The related table
// carries itemtype/items_id columns pointing straight at the base entity.
func (v *lookupVisitor) VisitDirectOwner(_ *relation.DirectOwner) error {
	v.applicable = true
	v.writeSelect("t")
	fmt.Fprintf(&v.sql, " WHERE t.%s = %s AND t.%s = %s AND %s",
		v.quote("itemtype"), v.placeholder(v.base.Kind),
		v.quote("items_id"), v.placeholder(v.base.ID),
		v.lockPredicate("t"))
	return nil
}

// VisitPolymorphicPair implements the ShapeVisitor interface. The junction row
// carries the lock flags and is the row acted on; the related table is joined
// for existence only.
func (v *lookupVisitor) VisitPolymorphicPair(shape *relation.PolymorphicPair) error {
	if shape.OwnerKind != v.base.Kind {
		return nil
	}
	v.applicable = true
	fmt.Fprintf(&v.sql, "SELECT %s AS kind, j.%s AS record_id FROM %s j",
		kindLiteral(v.descriptor.Kind),
		v.quote(v.descriptor.ResultIDField),
		v.quote(shape.JunctionTable))
	fmt.Fprintf(&v.sql, " INNER JOIN %s t ON t.%s = j.%s AND j.%s = %s",
		v.quote(v.descriptor.Table),
		v.quote("id"), v.quote("items_id"),
		v.quote("itemtype"), v.placeholder(v.descriptor.Kind))
	fmt.Fprintf(&v.sql, " WHERE j.%s = %s AND %s",
		v.quote(shape.OwnerColumn), v.placeholder(v.base.ID),
		v.lockPredicate("j"))
	return nil
}

// VisitConnexityLookup implements the ShapeVisitor interface. Ownership
// scoping is delegated to the related kind's own search-criteria capability;
// a kind reporting not-applicable contributes nothing.
func (v *lookupVisitor) VisitConnexityLookup(shape *relation.ConnexityLookup) error {
	if shape.Resolver == nil {
		return errors.New("connexity shape has no resolver")
	}
	criteria, applicable := shape.Resolver.SearchCriteriaForItem(v.base)
	if !applicable {
		return nil
	}
	v.applicable = true
	v.writeSelect("t")
	v.sql.WriteString(" WHERE ")
	for _, cond := range criteria {
		fmt.Fprintf(&v.sql, "t.%s = %s AND ", v.quote(cond.Column), v.placeholder(cond.Value))
	}
	v.sql.WriteString(v.lockPredicate("t"))
	return nil
}

// VisitIndirectJoin implements the ShapeVisitor interface. Ownership is
// reached through a chain of polymorphically owned intermediate kinds; the
// lock flags are read off the leaf table.
func (v *lookupVisitor) VisitIndirectJoin(shape *relation.IndirectJoin) error {
	if len(shape.Chain) == 0 {
		return errors.New("indirect join has an empty chain")
	}
	v.applicable = true
	v.writeSelect("t")
	prev := "t"
	for i, link := range shape.Chain {
		alias := fmt.Sprintf("c%d", i+1)
		fmt.Fprintf(&v.sql, " INNER JOIN %s %s ON %s.%s = %s AND %s.%s = %s.%s",
			v.quote(link.Table), alias,
			prev, v.quote("itemtype"), v.placeholder(link.Kind),
			prev, v.quote("items_id"), alias, v.quote("id"))
		prev = alias
	}
	fmt.Fprintf(&v.sql, " WHERE %s.%s = %s AND %s.%s = %s AND %s",
		prev, v.quote("itemtype"), v.placeholder(v.base.Kind),
		prev, v.quote("items_id"), v.placeholder(v.base.ID),
		v.lockPredicate("t"))
	return nil
}

// kindLiteral renders a kind identifier as a SQL string literal for the
// SELECT list. Kinds come from the registry, but single quotes are escaped
// anyway.
func kindLiteral(kind string) string {
	return "'" + strings.ReplaceAll(kind, "'", "''") + "'"
}
