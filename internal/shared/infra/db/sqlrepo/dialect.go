package sqlrepo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect isolates the few places SQLite and Postgres disagree:
// placeholder style, case-insensitive matching, null-safe inequality,
// pagination clauses and unique-violation detection.
type Dialect interface {
	Name() string
	// Rebind rewrites "?" placeholders into the driver's native style.
	Rebind(query string) string
	// ILike renders a case-insensitive match on column against one "?".
	ILike(column string) string
	// IsNot renders a null-safe "is not" comparison against one "?".
	IsNot(column string) string
	// LimitOffset renders the pagination clause. Limit 0 means no limit,
	// offset 0 means no offset.
	LimitOffset(limit, offset int) string
	IsUniqueViolation(err error) bool
}

// ---------------- SQLite ----------------

type sqliteDialect struct{}

func SQLiteDialect() Dialect { return sqliteDialect{} }

func (sqliteDialect) Name() string               { return "sqlite" }
func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) ILike(column string) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", column)
}

func (sqliteDialect) IsNot(column string) string {
	return column + " IS NOT ?"
}

// SQLite cannot express OFFSET without LIMIT; -1 is its "no limit".
func (sqliteDialect) LimitOffset(limit, offset int) string {
	switch {
	case limit >= 1 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	case limit >= 1:
		return fmt.Sprintf(" LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset)
	default:
		return ""
	}
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---------------- Postgres ----------------

type postgresDialect struct{}

func PostgresDialect() Dialect { return postgresDialect{} }

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) ILike(column string) string {
	return column + " ILIKE ?"
}

func (postgresDialect) IsNot(column string) string {
	return column + " IS DISTINCT FROM ?"
}

func (postgresDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit >= 1 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
