package domain

import "context"

// Query carries the parameters of a filtered repository operation:
// pagination, sort tokens, the logical operator combining each criteria
// group, the mandatory criteria (always ANDed onto the user filters) and
// the user filters themselves.
type Query struct {
	Offset    int
	Limit     int
	Sort      []string
	Operator  LogicalOperator // "" lets the implementation pick its default
	Mandatory Filters
	Filters   Filters
}

// Repository is the store-facing contract for a single entity type.
// Lookup variants come in pairs: the plain form returns (nil, nil) when
// nothing matched, the OrFail form returns a typed resource error.
type Repository[E any, ID comparable] interface {
	Resource() string
	Schema() *Schema

	// Add persists the entity and refreshes server-assigned fields back
	// onto it. A uniqueness violation surfaces as a conflict error.
	Add(ctx context.Context, entity *E) error
	AddAll(ctx context.Context, entities []*E) error

	CountBy(ctx context.Context, q Query) (int, error)
	GetAll(ctx context.Context, q Query) ([]*E, error)
	// GetAndCount returns one page of entities plus the count of the
	// unpaginated filtered set.
	GetAndCount(ctx context.Context, q Query) ([]*E, int, error)

	GetByKey(ctx context.Context, key ID) (*E, error)
	GetByKeyOrFail(ctx context.Context, key ID) (*E, error)
	GetOneBy(ctx context.Context, q Query) (*E, error)
	// GetOneByOrFail distinguishes "not found" (missing) from "not
	// unique" (ambiguous): callers react differently to the two.
	GetOneByOrFail(ctx context.Context, q Query) (*E, error)

	Update(ctx context.Context, entity *E) (*E, error)
	// UpdateByKey stamps updated_at as part of the write regardless of
	// the supplied data.
	UpdateByKey(ctx context.Context, key ID, data map[string]any) (*E, error)
	UpdateOneByOrFail(ctx context.Context, data map[string]any, q Query) (*E, error)

	Delete(ctx context.Context, entity *E) error
	DeleteByKey(ctx context.Context, key ID) error
	DeleteBy(ctx context.Context, filters Filters) error
	DeleteAll(ctx context.Context, entities []*E) error
	DeleteAllByKeys(ctx context.Context, keys []ID) error
	// Prune deletes every row. Maintenance/test paths only.
	Prune(ctx context.Context) error

	// NewEntity constructs a row-to-be-inserted, defaulting the
	// identifier and both timestamps when absent from data. This is the
	// single place defaults are generated.
	NewEntity(data map[string]any) (*E, error)
}
