// Package relation describes how lockable related-entity kinds connect to a
// base inventory asset.
//
// A related record is considered locked when the automated inventory created it
// (is_dynamic = 1) and a human operator has since soft-deleted it
// (is_deleted = 1). Each lockable kind declares a Descriptor naming its table
// and the connection shape through which its rows are reachable from a base
// entity. The query composer turns descriptors into executable lookups; this
// package only describes, it never touches the database.
package relation

import (
	"strings"
)

// Base identifies the base entity whose locked state is being resolved.
type Base struct {
	// Kind is the base entity kind identifier, e.g. "Computer"
	Kind string
	// ID is the base entity row id
	ID int64
}

// Cond is a single equality condition on a column of the related table.
type Cond struct {
	Column string
	Value  any
}

// Criteria is an ordered conjunction of equality conditions.
type Criteria []Cond

// ConnexityResolver is implemented by related-entity kinds whose ownership is
// expressed through a type-specific structural rule rather than fixed columns.
//
// SearchCriteriaForItem returns the conditions scoping the related table to the
// given base entity, or applicable=false when the kind does not connect to this
// base kind at all. A non-applicable kind contributes zero rows and is skipped
// silently by the composer.
type ConnexityResolver interface {
	SearchCriteriaForItem(base Base) (criteria Criteria, applicable bool)
}

// ConnectionShape represents one of the closed set of ways a related table is
// reachable from a base entity.
//
// All shape variants implement this interface to participate in the visitor
// pattern. The Accept method lets the query composer dispatch one resolution
// algorithm per variant; new shapes require adding a variant, not ad hoc
// branching.
type ConnectionShape interface {
	// Accept implements the visitor pattern for lookup composition
	Accept(visitor ShapeVisitor) error
}

// ShapeVisitor visits connection-shape variants. The query composer implements
// this interface once per compose invocation.
type ShapeVisitor interface {
	VisitDirectOwner(shape *DirectOwner) error
	VisitPolymorphicPair(shape *PolymorphicPair) error
	VisitConnexityLookup(shape *ConnexityLookup) error
	VisitIndirectJoin(shape *IndirectJoin) error
}

// DirectOwner marks a related table carrying itemtype/items_id columns that
// point straight at the base entity (disks, software version installs, ...).
type DirectOwner struct{}

// Accept implements the ConnectionShape interface for DirectOwner.
func (s *DirectOwner) Accept(visitor ShapeVisitor) error {
	return visitor.VisitDirectOwner(s)
}

// PolymorphicPair marks a related kind owned through a junction table that is
// itself polymorphic and keyed by a specific direct-connect owner column
// (peripherals, monitors, printers and phones hang off computers_items).
//
// The junction row is the inventory-created artifact: it carries both lock
// flags and is the row acted on during unlock.
type PolymorphicPair struct {
	// JunctionTable is the physical junction table, e.g. "computers_items"
	JunctionTable string
	// JunctionKind is the entity kind of the junction row, e.g. "Computer_Item"
	JunctionKind string
	// OwnerKind is the only base kind the junction connects to, e.g. "Computer";
	// lookups against any other base kind are not applicable
	OwnerKind string
	// OwnerColumn is the junction column holding the base entity id, e.g. "computers_id"
	OwnerColumn string
}

// Accept implements the ConnectionShape interface for PolymorphicPair.
func (s *PolymorphicPair) Accept(visitor ShapeVisitor) error {
	return visitor.VisitPolymorphicPair(s)
}

// ConnexityLookup delegates ownership scoping to the related kind's own
// search-criteria capability. Used by hardware component kinds.
type ConnexityLookup struct {
	Resolver ConnexityResolver
}

// Accept implements the ConnectionShape interface for ConnexityLookup.
func (s *ConnexityLookup) Accept(visitor ShapeVisitor) error {
	return visitor.VisitConnexityLookup(s)
}

// ChainLink is one intermediate kind in an IndirectJoin ownership chain.
type ChainLink struct {
	Kind  string
	Table string
}

// NewChainLink creates a chain link for the given kind with the conventional
// table name.
func NewChainLink(kind string) ChainLink {
	return ChainLink{Kind: kind, Table: TableForKind(kind)}
}

// IndirectJoin marks a related kind reached through a chain of intermediate
// kinds that are each owned polymorphically by their predecessor. The chain is
// ordered from the related kind's immediate owner outward; its last link is
// owned by the base entity itself.
//
// Example: IP addresses are owned by network names, which are owned by network
// ports, which are owned by the base entity — Chain is [NetworkName, NetworkPort].
type IndirectJoin struct {
	Chain []ChainLink
}

// Accept implements the ConnectionShape interface for IndirectJoin.
func (s *IndirectJoin) Accept(visitor ShapeVisitor) error {
	return visitor.VisitIndirectJoin(s)
}

// Descriptor declares how one lockable related-entity kind connects to a base
// entity. Descriptors are configuration, never persisted.
type Descriptor struct {
	// Kind is the related-entity kind identifier, e.g. "NetworkPort"
	Kind string
	// Table is the physical table holding rows of this kind
	Table string
	// Shape is the connection-shape variant used to reach rows from a base entity
	Shape ConnectionShape
	// ResultIDField is the column identifying the row to act on, normally "id"
	ResultIDField string
}

// NewDescriptor creates a descriptor for the given kind and shape, with the
// conventional table name and "id" as the result column. Use the fluent
// setters to override either.
//
// Example:
//
//	d := relation.NewDescriptor("Item_Disk", &relation.DirectOwner{})
func NewDescriptor(kind string, shape ConnectionShape) Descriptor {
	return Descriptor{
		Kind:          kind,
		Table:         TableForKind(kind),
		Shape:         shape,
		ResultIDField: "id",
	}
}

// WithTable overrides the physical table name and returns the descriptor for chaining.
func (d Descriptor) WithTable(table string) Descriptor {
	d.Table = table
	return d
}

// WithResultIDField overrides the result id column and returns the descriptor for chaining.
func (d Descriptor) WithResultIDField(field string) Descriptor {
	d.ResultIDField = field
	return d
}

// ActionKind returns the entity kind of the rows a lookup for this descriptor
// yields. For most shapes that is the descriptor kind itself; for
// PolymorphicPair it is the junction kind, since the junction row is what gets
// restored or purged.
func (d Descriptor) ActionKind() string {
	if pp, ok := d.Shape.(*PolymorphicPair); ok {
		return pp.JunctionKind
	}
	return d.Kind
}

// TableForKind derives the conventional table name for an entity kind: each
// underscore-separated segment is lowercased and pluralized, e.g.
// "Computer_Item" -> "computers_items", "NetworkPort" -> "networkports".
func TableForKind(kind string) string {
	segments := strings.Split(strings.ToLower(kind), "_")
	for i, seg := range segments {
		segments[i] = pluralize(seg)
	}
	return strings.Join(segments, "_")
}

func pluralize(word string) string {
	switch {
	case word == "":
		return word
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "ch"):
		return word + "es"
	case strings.HasSuffix(word, "s"):
		return word
	default:
		return word + "s"
	}
}
