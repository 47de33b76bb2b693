package composer_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/relock/core/composer"
	"github.com/stokaro/relock/core/composer/dialects/mysql"
	"github.com/stokaro/relock/core/composer/dialects/postgres"
	"github.com/stokaro/relock/core/relation"
)

var computer42 = relation.Base{Kind: "Computer", ID: 42}

func TestComposeSingle_DirectOwner(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Item_Disk", &relation.DirectOwner{})
	q, applicable, err := composer.New(postgres.New()).ComposeSingle(d, computer42)

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsTrue)
	c.Assert(q.SQL, qt.Equals,
		`SELECT 'Item_Disk' AS kind, t."id" AS record_id FROM "items_disks" t`+
			` WHERE t."itemtype" = $1 AND t."items_id" = $2`+
			` AND t."is_dynamic" = 1 AND t."is_deleted" = 1`)
	c.Assert(q.Args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestComposeSingle_DirectOwner_MySQL(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Item_Disk", &relation.DirectOwner{})
	q, applicable, err := composer.New(mysql.New()).ComposeSingle(d, computer42)

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsTrue)
	c.Assert(q.SQL, qt.Equals,
		"SELECT 'Item_Disk' AS kind, t.`id` AS record_id FROM `items_disks` t"+
			" WHERE t.`itemtype` = ? AND t.`items_id` = ?"+
			" AND t.`is_dynamic` = 1 AND t.`is_deleted` = 1")
	c.Assert(q.Args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestComposeSingle_PolymorphicPair(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Peripheral", &relation.PolymorphicPair{
		JunctionTable: "computers_items",
		JunctionKind:  "Computer_Item",
		OwnerKind:     "Computer",
		OwnerColumn:   "computers_id",
	})
	q, applicable, err := composer.New(postgres.New()).ComposeSingle(d, computer42)

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsTrue)
	c.Assert(q.SQL, qt.Equals,
		`SELECT 'Peripheral' AS kind, j."id" AS record_id FROM "computers_items" j`+
			` INNER JOIN "peripherals" t ON t."id" = j."items_id" AND j."itemtype" = $1`+
			` WHERE j."computers_id" = $2 AND j."is_dynamic" = 1 AND j."is_deleted" = 1`)
	c.Assert(q.Args, qt.DeepEquals, []any{"Peripheral", int64(42)})
}

func TestComposeSingle_PolymorphicPair_OtherBaseKindNotApplicable(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Peripheral", &relation.PolymorphicPair{
		JunctionTable: "computers_items",
		JunctionKind:  "Computer_Item",
		OwnerKind:     "Computer",
		OwnerColumn:   "computers_id",
	})
	_, applicable, err := composer.New(postgres.New()).ComposeSingle(d, relation.Base{Kind: "Printer", ID: 7})

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsFalse)
}

type fixedConnexity struct {
	criteria   relation.Criteria
	applicable bool
}

func (f fixedConnexity) SearchCriteriaForItem(relation.Base) (relation.Criteria, bool) {
	return f.criteria, f.applicable
}

func TestComposeSingle_ConnexityLookup(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Item_DeviceProcessor", &relation.ConnexityLookup{
		Resolver: fixedConnexity{
			criteria: relation.Criteria{
				{Column: "itemtype", Value: "Computer"},
				{Column: "items_id", Value: int64(42)},
			},
			applicable: true,
		},
	})
	q, applicable, err := composer.New(postgres.New()).ComposeSingle(d, computer42)

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsTrue)
	c.Assert(q.SQL, qt.Equals,
		`SELECT 'Item_DeviceProcessor' AS kind, t."id" AS record_id FROM "items_deviceprocessors" t`+
			` WHERE t."itemtype" = $1 AND t."items_id" = $2`+
			` AND t."is_dynamic" = 1 AND t."is_deleted" = 1`)
	c.Assert(q.Args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestComposeSingle_ConnexityLookup_NotApplicable(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("Item_DeviceProcessor", &relation.ConnexityLookup{
		Resolver: fixedConnexity{applicable: false},
	})
	q, applicable, err := composer.New(postgres.New()).ComposeSingle(d, relation.Base{Kind: "Software", ID: 3})

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsFalse)
	c.Assert(q.Empty(), qt.IsTrue)
}

func TestComposeSingle_IndirectJoin(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("IPAddress", &relation.IndirectJoin{
		Chain: []relation.ChainLink{
			relation.NewChainLink("NetworkName"),
			relation.NewChainLink("NetworkPort"),
		},
	})
	q, applicable, err := composer.New(postgres.New()).ComposeSingle(d, computer42)

	c.Assert(err, qt.IsNil)
	c.Assert(applicable, qt.IsTrue)
	c.Assert(q.SQL, qt.Equals,
		`SELECT 'IPAddress' AS kind, t."id" AS record_id FROM "ipaddresses" t`+
			` INNER JOIN "networknames" c1 ON t."itemtype" = $1 AND t."items_id" = c1."id"`+
			` INNER JOIN "networkports" c2 ON c1."itemtype" = $2 AND c1."items_id" = c2."id"`+
			` WHERE c2."itemtype" = $3 AND c2."items_id" = $4`+
			` AND t."is_dynamic" = 1 AND t."is_deleted" = 1`)
	c.Assert(q.Args, qt.DeepEquals, []any{"NetworkName", "NetworkPort", "Computer", int64(42)})
}

func TestComposeSingle_IndirectJoin_EmptyChain(t *testing.T) {
	c := qt.New(t)

	d := relation.NewDescriptor("IPAddress", &relation.IndirectJoin{})
	_, _, err := composer.New(postgres.New()).ComposeSingle(d, computer42)
	c.Assert(err, qt.IsNotNil)
	c.Assert(err.Error(), qt.Contains, "empty chain")
}

func TestComposeUnion_PlaceholderNumberingContinues(t *testing.T) {
	c := qt.New(t)

	descriptors := []relation.Descriptor{
		relation.NewDescriptor("NetworkPort", &relation.DirectOwner{}),
		relation.NewDescriptor("Item_Disk", &relation.DirectOwner{}),
	}
	q, err := composer.New(postgres.New()).ComposeUnion(computer42, descriptors)

	c.Assert(err, qt.IsNil)
	parts := strings.Split(q.SQL, "\nUNION ALL\n")
	c.Assert(parts, qt.HasLen, 2)
	c.Assert(parts[0], qt.Contains, "$1")
	c.Assert(parts[0], qt.Contains, "$2")
	c.Assert(parts[1], qt.Contains, "$3")
	c.Assert(parts[1], qt.Contains, "$4")
	c.Assert(q.Args, qt.DeepEquals, []any{"Computer", int64(42), "Computer", int64(42)})
}

func TestComposeUnion_SkipsNonApplicable(t *testing.T) {
	c := qt.New(t)

	descriptors := []relation.Descriptor{
		relation.NewDescriptor("Item_DeviceProcessor", &relation.ConnexityLookup{
			Resolver: fixedConnexity{applicable: false},
		}),
		relation.NewDescriptor("Item_Disk", &relation.DirectOwner{}),
	}
	q, err := composer.New(postgres.New()).ComposeUnion(computer42, descriptors)

	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(q.SQL, "UNION ALL"), qt.IsFalse)
	c.Assert(q.SQL, qt.Contains, "'Item_Disk'")
	c.Assert(q.Args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestComposeUnion_NothingApplicable(t *testing.T) {
	c := qt.New(t)

	descriptors := []relation.Descriptor{
		relation.NewDescriptor("Item_DeviceProcessor", &relation.ConnexityLookup{
			Resolver: fixedConnexity{applicable: false},
		}),
	}
	q, err := composer.New(postgres.New()).ComposeUnion(relation.Base{Kind: "Software", ID: 3}, descriptors)

	c.Assert(err, qt.IsNil)
	c.Assert(q.Empty(), qt.IsTrue)
}

func TestComposeUnion_Idempotent(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()
	descriptors := registry.Descriptors(registry.AllKinds())
	comp := composer.New(postgres.New())

	first, err := comp.ComposeUnion(computer42, descriptors)
	c.Assert(err, qt.IsNil)
	second, err := comp.ComposeUnion(computer42, descriptors)
	c.Assert(err, qt.IsNil)

	c.Assert(second, qt.DeepEquals, first)
}

func TestComposeUnion_OverFullRegistry(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()
	descriptors := registry.Descriptors(registry.AllKinds())
	q, err := composer.New(mysql.New()).ComposeUnion(computer42, descriptors)

	c.Assert(err, qt.IsNil)
	// Every seeded kind applies to a Computer base, so every kind shows up.
	for _, kind := range registry.AllKinds() {
		c.Assert(q.SQL, qt.Contains, "'"+kind+"'")
	}
	// The lock predicate appears once per sub-lookup.
	c.Assert(strings.Count(q.SQL, "`is_dynamic` = 1"), qt.Equals, len(descriptors))
}
