package fieldlock

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/relock/core/composer/dialects/mysql"
	"github.com/stokaro/relock/core/composer/dialects/postgres"
)

func TestBuildList(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: postgres.New()}
	query, args := s.buildList("Computer", 42)

	c.Assert(query, qt.Equals,
		`SELECT "id", "itemtype", "items_id", "field", "value", "is_global" FROM "locked_fields"`+
			` WHERE "itemtype" = $1 AND ("is_global" = 1 OR "items_id" = $2)`)
	c.Assert(args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestBuildList_MySQL(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: mysql.New()}
	query, args := s.buildList("Computer", 42)

	c.Assert(query, qt.Equals,
		"SELECT `id`, `itemtype`, `items_id`, `field`, `value`, `is_global` FROM `locked_fields`"+
			" WHERE `itemtype` = ? AND (`is_global` = 1 OR `items_id` = ?)")
	c.Assert(args, qt.DeepEquals, []any{"Computer", int64(42)})
}

func TestBuildDelete(t *testing.T) {
	itemsID := int64(42)

	tests := []struct {
		name         string
		criteria     Criteria
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:     "instance locks for selected fields",
			criteria: Criteria{ItemType: "Computer", ItemsID: &itemsID, Fields: []string{"serial", "otherserial"}},
			expectedSQL: `DELETE FROM "locked_fields" WHERE "itemtype" = $1 AND "is_global" = $2` +
				` AND "items_id" = $3 AND "field" IN ($4, $5)`,
			expectedArgs: []any{"Computer", 0, int64(42), "serial", "otherserial"},
		},
		{
			name:         "global locks for one field",
			criteria:     Criteria{ItemType: "Computer", Fields: []string{"serial"}, Global: true},
			expectedSQL:  `DELETE FROM "locked_fields" WHERE "itemtype" = $1 AND "is_global" = $2 AND "field" IN ($3)`,
			expectedArgs: []any{"Computer", 1, "serial"},
		},
		{
			name:         "every instance lock of a type",
			criteria:     Criteria{ItemType: "Computer"},
			expectedSQL:  `DELETE FROM "locked_fields" WHERE "itemtype" = $1 AND "is_global" = $2`,
			expectedArgs: []any{"Computer", 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			s := &Store{dialect: postgres.New()}
			query, args, err := s.buildDelete(tt.criteria)
			c.Assert(err, qt.IsNil)
			c.Assert(query, qt.Equals, tt.expectedSQL)
			c.Assert(args, qt.DeepEquals, tt.expectedArgs)
		})
	}
}

func TestBuildDelete_EmptyItemType(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: postgres.New()}
	_, _, err := s.buildDelete(Criteria{})
	c.Assert(err, qt.IsNotNil)
}

func TestBuildInsert(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: postgres.New()}
	query, args := s.buildInsert(LockedField{ItemType: "Computer", ItemsID: 42, Field: "serial", Value: "ABC123"})

	c.Assert(query, qt.Equals,
		`INSERT INTO "locked_fields" ("itemtype", "items_id", "field", "value", "is_global")`+
			` VALUES ($1, $2, $3, $4, $5) RETURNING "id"`)
	c.Assert(args, qt.DeepEquals, []any{"Computer", int64(42), "serial", "ABC123", 0})
}

func TestBuildInsert_GlobalLockNormalizesItemsID(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: postgres.New()}
	_, args := s.buildInsert(LockedField{ItemType: "Computer", ItemsID: 42, Field: "serial", IsGlobal: true})

	// Whatever the caller put in ItemsID, a global lock is stored with
	// items_id = 0 so the unique index covers it.
	c.Assert(args, qt.DeepEquals, []any{"Computer", int64(0), "serial", "", 1})
}

func TestBuildInsert_MySQLHasNoReturning(t *testing.T) {
	c := qt.New(t)

	s := &Store{dialect: mysql.New()}
	query, _ := s.buildInsert(LockedField{ItemType: "Computer", ItemsID: 42, Field: "serial"})

	c.Assert(query, qt.Equals,
		"INSERT INTO `locked_fields` (`itemtype`, `items_id`, `field`, `value`, `is_global`)"+
			" VALUES (?, ?, ?, ?, ?)")
}
