package domain

import "fmt"

// ---------------- Load strategies ----------------

// LoadKind selects how a relationship is eagerly fetched when a
// join-qualified filter references it: "joined" attaches the single
// related row to the main query, "selectin" runs one batched secondary
// select for the whole result page.
type LoadKind string

const (
	LoadJoined   LoadKind = "joined"
	LoadSelectIn LoadKind = "selectin"
)

// ---------------- Row hydration hooks ----------------

// EntityRow scans one base-table row. Dest returns one scan destination
// per schema column, in column order; Entity builds the value after the
// scan completed.
type EntityRow[E any] interface {
	Dest() []any
	Entity() (*E, error)
}

// JoinedRow scans the related columns appended to the main query by a
// "joined" load. All destinations must tolerate NULL (no related row);
// Attach is a no-op in that case.
type JoinedRow interface {
	Dest() []any
	Attach(parent any) error
}

// ChildRow scans one row of a "selectin" secondary select. ParentKey
// returns the foreign-key value (as a string) used to route the child to
// its parent.
type ChildRow interface {
	Dest() []any
	ParentKey() string
	Attach(parent any) error
}

// ---------------- Relationship metadata ----------------

// Relation declares one relationship of an entity: join columns, the
// fixed eager-load strategy, and the hydration hooks for that strategy.
// Ref is a thunk to the related entity's schema (thunked because two
// entities may reference each other).
type Relation struct {
	Name          string
	Kind          LoadKind
	Table         string
	LocalColumn   string
	ForeignColumn string
	Columns       []string
	Ref           func() *Schema

	NewJoinedRow func() JoinedRow // Kind == LoadJoined
	NewChildRow  func() ChildRow  // Kind == LoadSelectIn
}

// ---------------- Schema ----------------

// Schema is the per-entity field registry: the column and relationship
// metadata every filter and sort reference is resolved against. Built
// once at startup; no reflection at query time.
type Schema struct {
	Table     string
	Resource  string
	Columns   []string
	Relations map[string]Relation

	columns map[string]struct{}
}

func NewSchema(table, resource string, columns []string, relations ...Relation) *Schema {
	s := &Schema{
		Table:     table,
		Resource:  resource,
		Columns:   columns,
		Relations: make(map[string]Relation, len(relations)),
		columns:   make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		s.columns[c] = struct{}{}
	}
	for _, r := range relations {
		s.Relations[r.Name] = r
	}
	return s
}

func (s *Schema) HasColumn(name string) bool {
	_, ok := s.columns[name]
	return ok
}

// Relation resolves a relationship by name; referencing a name that is
// not a relationship is an invalid filter attribute.
func (s *Schema) Relation(name string) (Relation, error) {
	rel, ok := s.Relations[name]
	if !ok {
		return Relation{}, fmt.Errorf("%w: %q is not a relationship of %s", ErrInvalidFilterAttribute, name, s.Table)
	}
	return rel, nil
}
