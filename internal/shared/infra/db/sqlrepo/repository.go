package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

// Primary-key column name, fixed for every entity (the base schema the
// original models share).
const keyColumn = "id"

// Binder supplies the per-entity hooks the generic repository needs:
// row scanning, value extraction, key handling and construction. All of
// them are plain functions built once at startup.
type Binder[E any, ID comparable] struct {
	// NewRow returns a fresh scan buffer for one base-table row.
	NewRow func() domain.EntityRow[E]
	// Values maps an entity to driver-ready column values.
	Values func(*E) map[string]any
	// Key extracts the identifier.
	Key func(*E) ID
	// KeyArg converts an identifier to its driver-ready form.
	KeyArg func(ID) any
	// NewKey generates a fresh identifier.
	NewKey func() ID
	// New builds an entity from a defaulted data map.
	New func(data map[string]any) (*E, error)
}

// Repository is the SQL implementation of the repository contract for
// one entity type. It owns query construction; the session handle
// (*sql.DB pool) is supplied from outside and not managed here.
type Repository[E any, ID comparable] struct {
	db      *sql.DB
	dialect Dialect
	schema  *domain.Schema
	binder  Binder[E, ID]
	log     *zap.Logger
	now     func() time.Time
}

func New[E any, ID comparable](db *sql.DB, dialect Dialect, schema *domain.Schema, binder Binder[E, ID], log *zap.Logger) *Repository[E, ID] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[E, ID]{
		db:      db,
		dialect: dialect,
		schema:  schema,
		binder:  binder,
		log:     log,
		now:     time.Now,
	}
}

func (r *Repository[E, ID]) Resource() string       { return r.schema.Resource }
func (r *Repository[E, ID]) Schema() *domain.Schema { return r.schema }

// ---------------- Query construction ----------------

type builtQuery struct {
	baseSQL  string
	args     []any
	joined   []domain.Relation
	selectin []domain.Relation
}

// buildFilterQuery compiles the mandatory and user criteria groups with
// the same logical operator, unions their load markers, and assembles
// the base query: base table filtered by (filters AND mandatory) with
// all joined loads attached. Pagination and sort are applied on top by
// the callers, so counting can reuse the base query unpaginated.
func (r *Repository[E, ID]) buildFilterQuery(q domain.Query, defaultOp domain.LogicalOperator) (*builtQuery, error) {
	op := q.Operator
	if op == "" {
		op = defaultOp
	}

	mandatory, mandatoryLoads, err := compileCriteria(r.dialect, r.schema, q.Mandatory, op)
	if err != nil {
		return nil, err
	}
	filters, filterLoads, err := compileCriteria(r.dialect, r.schema, q.Filters, op)
	if err != nil {
		return nil, err
	}

	bq := &builtQuery{}
	for _, rel := range mergeLoads(mandatoryLoads, filterLoads) {
		if rel.Kind == domain.LoadJoined {
			bq.joined = append(bq.joined, rel)
		} else {
			bq.selectin = append(bq.selectin, rel)
		}
	}

	columns := make([]string, 0, len(r.schema.Columns))
	for _, c := range r.schema.Columns {
		columns = append(columns, r.schema.Table+"."+c)
	}
	for _, rel := range bq.joined {
		for _, c := range rel.Columns {
			columns = append(columns, rel.Table+"."+c)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), r.schema.Table)
	for _, rel := range bq.joined {
		fmt.Fprintf(&b, " LEFT JOIN %s ON %s.%s = %s.%s",
			rel.Table, rel.Table, rel.ForeignColumn, r.schema.Table, rel.LocalColumn)
	}

	var where []string
	if !filters.empty() {
		where = append(where, filters.sql)
		bq.args = append(bq.args, filters.args...)
	}
	if !mandatory.empty() {
		where = append(where, mandatory.sql)
		bq.args = append(bq.args, mandatory.args...)
	}
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	bq.baseSQL = b.String()
	return bq, nil
}

// pageSuffix renders ORDER BY and the pagination clause. Offset applies
// only when > 0; a limit of 0 is the unbounded sentinel and emits no
// limit clause.
func (r *Repository[E, ID]) pageSuffix(q domain.Query) string {
	var b strings.Builder
	if terms := compileSort(r.schema, q.Sort); len(terms) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}
	b.WriteString(r.dialect.LimitOffset(q.Limit, q.Offset))
	return b.String()
}

// ---------------- Row fetch & hydration ----------------

func (r *Repository[E, ID]) queryEntities(ctx context.Context, bq *builtQuery, suffix string) ([]*E, error) {
	query := r.dialect.Rebind(bq.baseSQL + suffix)
	r.log.Debug("executing query", zap.String("resource", r.schema.Resource), zap.String("sql", query))

	rows, err := r.db.QueryContext(ctx, query, bq.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*E
	for rows.Next() {
		row := r.binder.NewRow()
		dests := row.Dest()
		joined := make([]domain.JoinedRow, 0, len(bq.joined))
		for _, rel := range bq.joined {
			jr := rel.NewJoinedRow()
			joined = append(joined, jr)
			dests = append(dests, jr.Dest()...)
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		entity, err := row.Entity()
		if err != nil {
			return nil, err
		}
		for _, jr := range joined {
			if err := jr.Attach(entity); err != nil {
				return nil, err
			}
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, bq.selectin, entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// loadChildren runs one batched secondary select per "selectin" relation
// and routes each child row to its parent by foreign key.
func (r *Repository[E, ID]) loadChildren(ctx context.Context, rels []domain.Relation, entities []*E) error {
	if len(rels) == 0 || len(entities) == 0 {
		return nil
	}

	parents := make(map[string]*E, len(entities))
	keys := make([]any, 0, len(entities))
	for _, e := range entities {
		arg := r.binder.KeyArg(r.binder.Key(e))
		parents[fmt.Sprint(arg)] = e
		keys = append(keys, arg)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	for _, rel := range rels {
		columns := make([]string, 0, len(rel.Columns))
		for _, c := range rel.Columns {
			columns = append(columns, rel.Table+"."+c)
		}
		query := fmt.Sprintf("SELECT %s FROM %s WHERE %s.%s IN (%s)",
			strings.Join(columns, ", "), rel.Table, rel.Table, rel.ForeignColumn, placeholders)

		rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), keys...)
		if err != nil {
			return err
		}
		for rows.Next() {
			child := rel.NewChildRow()
			if err := rows.Scan(child.Dest()...); err != nil {
				rows.Close()
				return err
			}
			if parent, ok := parents[child.ParentKey()]; ok {
				if err := child.Attach(parent); err != nil {
					rows.Close()
					return err
				}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

// ---------------- Reads ----------------

func (r *Repository[E, ID]) GetAll(ctx context.Context, q domain.Query) ([]*E, error) {
	bq, err := r.buildFilterQuery(q, domain.OpOr)
	if err != nil {
		return nil, err
	}
	return r.queryEntities(ctx, bq, r.pageSuffix(q))
}

func (r *Repository[E, ID]) CountBy(ctx context.Context, q domain.Query) (int, error) {
	bq, err := r.buildFilterQuery(q, domain.OpOr)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, bq)
}

func (r *Repository[E, ID]) count(ctx context.Context, bq *builtQuery) (int, error) {
	query := r.dialect.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS filtered", bq.baseSQL))
	var n int
	if err := r.db.QueryRowContext(ctx, query, bq.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetAndCount counts over the base query before pagination and sort are
// applied, so the total always reflects the unpaginated filtered set.
func (r *Repository[E, ID]) GetAndCount(ctx context.Context, q domain.Query) ([]*E, int, error) {
	bq, err := r.buildFilterQuery(q, domain.OpOr)
	if err != nil {
		return nil, 0, err
	}
	entities, err := r.queryEntities(ctx, bq, r.pageSuffix(q))
	if err != nil {
		return nil, 0, err
	}
	total, err := r.count(ctx, bq)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (r *Repository[E, ID]) GetByKey(ctx context.Context, key ID) (*E, error) {
	columns := make([]string, 0, len(r.schema.Columns))
	for _, c := range r.schema.Columns {
		columns = append(columns, r.schema.Table+"."+c)
	}
	query := r.dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s.%s = ?",
		strings.Join(columns, ", "), r.schema.Table, r.schema.Table, keyColumn))

	row := r.binder.NewRow()
	err := r.db.QueryRowContext(ctx, query, r.binder.KeyArg(key)).Scan(row.Dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Entity()
}

func (r *Repository[E, ID]) GetByKeyOrFail(ctx context.Context, key ID) (*E, error) {
	entity, err := r.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, domain.NewMissing(r.schema.Resource, fmt.Sprintf("resource with id '%v' not found", key))
	}
	return entity, nil
}

// Single-row lookups combine criteria with AND by default, unlike the
// grouped queries whose historical default is OR.
func (r *Repository[E, ID]) GetOneBy(ctx context.Context, q domain.Query) (*E, error) {
	eff := q
	if eff.Operator == "" {
		eff.Operator = domain.OpAnd
	}
	if eff.Limit == 0 {
		eff.Limit = 1
	}
	entities, err := r.GetAll(ctx, eff)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return entities[0], nil
}

func (r *Repository[E, ID]) GetOneByOrFail(ctx context.Context, q domain.Query) (*E, error) {
	eff := q
	if eff.Operator == "" {
		eff.Operator = domain.OpAnd
	}
	if eff.Limit == 0 {
		// Two rows are enough to prove ambiguity.
		eff.Limit = 2
	}
	entities, err := r.GetAll(ctx, eff)
	if err != nil {
		return nil, err
	}
	switch len(entities) {
	case 0:
		return nil, domain.NewMissing(r.schema.Resource, "resource not found: "+formatFilters(q.Filters))
	case 1:
		return entities[0], nil
	default:
		return nil, domain.NewUnique(r.schema.Resource, "multiple entities found: "+formatFilters(q.Filters))
	}
}

// ---------------- Writes ----------------

func (r *Repository[E, ID]) Add(ctx context.Context, entity *E) error {
	return r.insert(ctx, r.db.ExecContext, entity)
}

// AddAll persists the whole batch as one unit of work.
func (r *Repository[E, ID]) AddAll(ctx context.Context, entities []*E) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, entity := range entities {
		if err := r.insert(ctx, tx.ExecContext, entity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *Repository[E, ID]) insert(ctx context.Context, exec execFunc, entity *E) error {
	values := r.binder.Values(entity)
	args := make([]any, 0, len(r.schema.Columns))
	for _, c := range r.schema.Columns {
		args = append(args, values[c])
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := r.dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.schema.Table, strings.Join(r.schema.Columns, ", "), placeholders))

	if _, err := exec(ctx, query, args...); err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return err
	}
	return nil
}

func (r *Repository[E, ID]) Update(ctx context.Context, entity *E) (*E, error) {
	values := r.binder.Values(entity)
	delete(values, keyColumn)
	return r.UpdateByKey(ctx, r.binder.Key(entity), values)
}

// UpdateByKey writes the given columns and always stamps updated_at,
// regardless of what the caller supplied.
func (r *Repository[E, ID]) UpdateByKey(ctx context.Context, key ID, data map[string]any) (*E, error) {
	values := make(map[string]any, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values["updated_at"] = r.now().UTC()

	columns := make([]string, 0, len(values))
	for c := range values {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns)+1)
	for _, c := range columns {
		assignments = append(assignments, c+" = ?")
		args = append(args, values[c])
	}
	args = append(args, r.binder.KeyArg(key))

	query := r.dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		r.schema.Table, strings.Join(assignments, ", "), keyColumn))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if r.dialect.IsUniqueViolation(err) {
			return nil, domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.NewMissing(r.schema.Resource, fmt.Sprintf("resource with id '%v' not found", key))
	}
	return r.GetByKeyOrFail(ctx, key)
}

// UpdateOneByOrFail resolves the target row first, inheriting the
// missing/ambiguous semantics of GetOneByOrFail, then updates by key.
func (r *Repository[E, ID]) UpdateOneByOrFail(ctx context.Context, data map[string]any, q domain.Query) (*E, error) {
	entity, err := r.GetOneByOrFail(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.UpdateByKey(ctx, r.binder.Key(entity), data)
}

// ---------------- Deletes ----------------

func (r *Repository[E, ID]) Delete(ctx context.Context, entity *E) error {
	return r.DeleteByKey(ctx, r.binder.Key(entity))
}

func (r *Repository[E, ID]) DeleteByKey(ctx context.Context, key ID) error {
	query := r.dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", r.schema.Table, keyColumn))
	_, err := r.db.ExecContext(ctx, query, r.binder.KeyArg(key))
	return err
}

// DeleteBy deletes by criteria only, unconditioned by pagination.
// Criteria are combined with AND; join-qualified keys work through the
// same EXISTS subqueries as reads.
func (r *Repository[E, ID]) DeleteBy(ctx context.Context, filters domain.Filters) error {
	pred, _, err := compileCriteria(r.dialect, r.schema, filters, domain.OpAnd)
	if err != nil {
		return err
	}
	query := "DELETE FROM " + r.schema.Table
	if !pred.empty() {
		query += " WHERE " + pred.sql
	}
	_, err = r.db.ExecContext(ctx, r.dialect.Rebind(query), pred.args...)
	return err
}

func (r *Repository[E, ID]) DeleteAll(ctx context.Context, entities []*E) error {
	keys := make([]ID, 0, len(entities))
	for _, entity := range entities {
		keys = append(keys, r.binder.Key(entity))
	}
	return r.DeleteAllByKeys(ctx, keys)
}

func (r *Repository[E, ID]) DeleteAllByKeys(ctx context.Context, keys []ID) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, r.binder.KeyArg(key))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := r.dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)",
		r.schema.Table, keyColumn, placeholders))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *Repository[E, ID]) Prune(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM "+r.schema.Table)
	return err
}

// ---------------- Construction ----------------

// NewEntity builds a row-to-be-inserted, defaulting the identifier and
// both timestamps when the caller did not supply them. Explicitly
// supplied values are kept as-is, so defaults are idempotent.
func (r *Repository[E, ID]) NewEntity(data map[string]any) (*E, error) {
	values := make(map[string]any, len(data)+3)
	for k, v := range data {
		values[k] = v
	}
	if values[keyColumn] == nil {
		values[keyColumn] = r.binder.NewKey()
	}
	now := r.now().UTC()
	if values["created_at"] == nil {
		values["created_at"] = now
	}
	if values["updated_at"] == nil {
		values["updated_at"] = now
	}
	return r.binder.New(values)
}

func formatFilters(filters domain.Filters) string {
	if len(filters) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
