package sqlrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

func testSchema() *domain.Schema {
	pickupsRef := domain.NewSchema("pickups", "pickup", []string{"id", "user_id", "liters", "status"})
	return domain.NewSchema("users", "user",
		[]string{"id", "name", "role", "created_at"},
		domain.Relation{
			Name:          "pickups",
			Kind:          domain.LoadSelectIn,
			Table:         "pickups",
			LocalColumn:   "id",
			ForeignColumn: "user_id",
			Columns:       []string{"id", "user_id", "liters", "status"},
			Ref:           func() *domain.Schema { return pickupsRef },
		},
	)
}

func TestCompileCriteria_Equality(t *testing.T) {
	pred, loads, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("name", "Ada")}, domain.OpAnd)

	assert.NoError(t, err)
	assert.Empty(t, loads)
	assert.Equal(t, "(users.name = ?)", pred.sql)
	assert.Equal(t, []any{"Ada"}, pred.args)
}

func TestCompileCriteria_OrderAndGlue(t *testing.T) {
	filters := domain.Filters{
		domain.F("name", "Ada"),
		domain.F("role__neq", "admin"),
	}

	pred, _, err := compileCriteria(SQLiteDialect(), testSchema(), filters, domain.OpOr)
	assert.NoError(t, err)
	assert.Equal(t, "(users.name = ? OR users.role != ?)", pred.sql)
	assert.Equal(t, []any{"Ada", "admin"}, pred.args)

	pred, _, err = compileCriteria(SQLiteDialect(), testSchema(), filters, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(users.name = ? AND users.role != ?)", pred.sql)
}

func TestCompileCriteria_DialectOperators(t *testing.T) {
	pred, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("name__ilike", "ada")}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(LOWER(users.name) LIKE LOWER(?))", pred.sql)
	assert.Equal(t, []any{"%ada%"}, pred.args)

	pred, _, err = compileCriteria(PostgresDialect(), testSchema(),
		domain.Filters{domain.F("name__ilike", "ada")}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(users.name ILIKE ?)", pred.sql)

	pred, _, err = compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("role__not", nil)}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(users.role IS NOT ?)", pred.sql)
	assert.Equal(t, []any{nil}, pred.args)
}

func TestCompileCriteria_NullChecksTakeNoArgs(t *testing.T) {
	pred, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("created_at__isnull", true)}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(users.created_at IS NULL)", pred.sql)
	assert.Empty(t, pred.args)
}

func TestCompileCriteria_EmptyInList(t *testing.T) {
	pred, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("role__in", []any{})}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(1 = 0)", pred.sql)

	pred, _, err = compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("role__not_in", []any{})}, domain.OpAnd)
	assert.NoError(t, err)
	assert.Equal(t, "(1 = 1)", pred.sql)
}

func TestCompileCriteria_JoinQualified(t *testing.T) {
	pred, loads, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("pickups___liters__gt", 10)}, domain.OpAnd)

	assert.NoError(t, err)
	assert.Equal(t,
		"(EXISTS (SELECT 1 FROM pickups WHERE pickups.user_id = users.id AND pickups.liters > ?))",
		pred.sql)
	assert.Equal(t, []any{10}, pred.args)
	assert.Len(t, loads, 1)
	assert.Equal(t, "pickups", loads[0].Name)
}

func TestCompileCriteria_LoadMarkerDeduplicated(t *testing.T) {
	filters := domain.Filters{
		domain.F("pickups___liters__gt", 10),
		domain.F("pickups___status", "collected"),
	}
	pred, loads, err := compileCriteria(SQLiteDialect(), testSchema(), filters, domain.OpAnd)
	assert.NoError(t, err)
	assert.NotEmpty(t, pred.sql)

	merged := mergeLoads(loads)
	assert.Len(t, merged, 1)
}

func TestCompileCriteria_UnknownColumn(t *testing.T) {
	_, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("bogus", 1)}, domain.OpAnd)
	assert.ErrorIs(t, err, domain.ErrInvalidFilterAttribute)
}

func TestCompileCriteria_UnknownRelation(t *testing.T) {
	_, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("orders___total__gt", 5)}, domain.OpAnd)
	assert.ErrorIs(t, err, domain.ErrInvalidFilterAttribute)
}

func TestCompileCriteria_UnknownRelatedColumn(t *testing.T) {
	_, _, err := compileCriteria(SQLiteDialect(), testSchema(),
		domain.Filters{domain.F("pickups___bogus", 5)}, domain.OpAnd)
	assert.ErrorIs(t, err, domain.ErrInvalidFilterAttribute)
}

func TestCompileSort_DropsUnknownFields(t *testing.T) {
	terms := compileSort(testSchema(), []string{"-bogus", "+name"})
	assert.Equal(t, []string{"users.name ASC"}, terms)
}

func TestDialect_LimitOffset(t *testing.T) {
	tests := []struct {
		name           string
		limit, offset  int
		sqlite, postgr string
	}{
		{"both", 10, 5, " LIMIT 10 OFFSET 5", " LIMIT 10 OFFSET 5"},
		{"limit only", 10, 0, " LIMIT 10", " LIMIT 10"},
		{"offset only", 0, 5, " LIMIT -1 OFFSET 5", " OFFSET 5"},
		{"unbounded", 0, 0, "", ""},
		{"negative ignored", -3, -2, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sqlite, SQLiteDialect().LimitOffset(tt.limit, tt.offset))
			assert.Equal(t, tt.postgr, PostgresDialect().LimitOffset(tt.limit, tt.offset))
		})
	}
}

func TestPostgresRebind(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2",
		PostgresDialect().Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
}
