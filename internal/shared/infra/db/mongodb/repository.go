package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

// Codec supplies the per-entity hooks the document repository needs.
// BSON document structs stay local to the adapter so the domain is not
// polluted with bson tags.
type Codec[E any, ID comparable] struct {
	// ToDoc converts an entity to its BSON document struct.
	ToDoc func(*E) any
	// NewDoc returns a fresh decode target.
	NewDoc func() any
	// Entity converts a decoded document back to the entity.
	Entity func(doc any) (*E, error)
	// Key extracts the identifier.
	Key func(*E) ID
	// KeyArg converts an identifier to its stored form.
	KeyArg func(ID) any
	// NewKey generates a fresh identifier.
	NewKey func() ID
	// New builds an entity from a defaulted data map.
	New func(data map[string]any) (*E, error)
}

// Repository is the document-store implementation of the repository
// contract. It has no relationship metadata: join-qualified filter keys
// fail with the invalid-attribute error instead of compiling to joins.
type Repository[E any, ID comparable] struct {
	coll   *mongo.Collection
	schema *domain.Schema
	codec  Codec[E, ID]
	log    *zap.Logger
	now    func() time.Time
}

func New[E any, ID comparable](coll *mongo.Collection, schema *domain.Schema, codec Codec[E, ID], log *zap.Logger) *Repository[E, ID] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository[E, ID]{
		coll:   coll,
		schema: schema,
		codec:  codec,
		log:    log,
		now:    time.Now,
	}
}

func (r *Repository[E, ID]) Resource() string       { return r.schema.Resource }
func (r *Repository[E, ID]) Schema() *domain.Schema { return r.schema }

// ---------------- Filter translation ----------------

// The primary key column is stored as Mongo's _id.
func fieldName(column string) string {
	if column == "id" {
		return "_id"
	}
	return column
}

// likePattern turns a SQL LIKE pattern into an anchored regex: every
// non-% run is quoted literally, % becomes .*.
func likePattern(pattern string) string {
	parts := strings.Split(pattern, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}

func (r *Repository[E, ID]) translateCondition(cond domain.Condition) (bson.M, error) {
	if cond.Relation != "" {
		return nil, fmt.Errorf("%w: %q references a relationship, unsupported by the document store",
			domain.ErrInvalidFilterAttribute, cond.Relation)
	}
	if !r.schema.HasColumn(cond.Field) {
		return nil, fmt.Errorf("%w: %q is not a column of %s", domain.ErrInvalidFilterAttribute, cond.Field, r.schema.Table)
	}
	field := fieldName(cond.Field)

	switch cond.Op {
	case domain.OpEq:
		return bson.M{field: cond.Value}, nil
	case domain.OpNeq, domain.OpIsNot:
		return bson.M{field: bson.M{"$ne": cond.Value}}, nil
	case domain.OpGt:
		return bson.M{field: bson.M{"$gt": cond.Value}}, nil
	case domain.OpGte:
		return bson.M{field: bson.M{"$gte": cond.Value}}, nil
	case domain.OpLt:
		return bson.M{field: bson.M{"$lt": cond.Value}}, nil
	case domain.OpLte:
		return bson.M{field: bson.M{"$lte": cond.Value}}, nil
	case domain.OpIn:
		values, _ := cond.Value.([]any)
		return bson.M{field: bson.M{"$in": values}}, nil
	case domain.OpNotIn:
		values, _ := cond.Value.([]any)
		return bson.M{field: bson.M{"$nin": values}}, nil
	case domain.OpIsNull:
		return bson.M{field: nil}, nil
	case domain.OpIsNotNull:
		return bson.M{field: bson.M{"$ne": nil}}, nil
	case domain.OpLike:
		pattern, _ := cond.Value.(string)
		return bson.M{field: bson.M{"$regex": likePattern(pattern)}}, nil
	case domain.OpILike:
		pattern, _ := cond.Value.(string)
		return bson.M{field: bson.M{"$regex": likePattern(pattern), "$options": "i"}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFilterOperator, cond.Op)
	}
}

func (r *Repository[E, ID]) translateGroup(filters domain.Filters, op domain.LogicalOperator) (bson.M, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	clauses := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		cond, err := domain.ParseCondition(f.Key, f.Value)
		if err != nil {
			return nil, err
		}
		clause, err := r.translateCondition(cond)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	if op == domain.OpOr {
		return bson.M{"$or": clauses}, nil
	}
	return bson.M{"$and": clauses}, nil
}

// buildFilter combines the user filters with the mandatory criteria the
// same way the SQL implementation does: both groups share the logical
// operator, the groups themselves are ANDed.
func (r *Repository[E, ID]) buildFilter(q domain.Query, defaultOp domain.LogicalOperator) (bson.M, error) {
	op := q.Operator
	if op == "" {
		op = defaultOp
	}
	filters, err := r.translateGroup(q.Filters, op)
	if err != nil {
		return nil, err
	}
	mandatory, err := r.translateGroup(q.Mandatory, op)
	if err != nil {
		return nil, err
	}

	switch {
	case filters == nil && mandatory == nil:
		return bson.M{}, nil
	case mandatory == nil:
		return filters, nil
	case filters == nil:
		return mandatory, nil
	default:
		return bson.M{"$and": []bson.M{filters, mandatory}}, nil
	}
}

func (r *Repository[E, ID]) findOptions(q domain.Query) *options.FindOptions {
	opts := options.Find()
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit >= 1 {
		opts.SetLimit(int64(q.Limit))
	}
	var terms bson.D
	for _, s := range domain.ParseSort(q.Sort) {
		if !r.schema.HasColumn(s.Field) {
			continue
		}
		direction := 1
		if s.Desc {
			direction = -1
		}
		terms = append(terms, bson.E{Key: fieldName(s.Field), Value: direction})
	}
	if len(terms) > 0 {
		opts.SetSort(terms)
	}
	return opts
}

// ---------------- Reads ----------------

func (r *Repository[E, ID]) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*E, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entities []*E
	for cur.Next(ctx) {
		doc := r.codec.NewDoc()
		if err := cur.Decode(doc); err != nil {
			return nil, err
		}
		entity, err := r.codec.Entity(doc)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, cur.Err()
}

func (r *Repository[E, ID]) GetAll(ctx context.Context, q domain.Query) ([]*E, error) {
	filter, err := r.buildFilter(q, domain.OpOr)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, filter, r.findOptions(q))
}

func (r *Repository[E, ID]) CountBy(ctx context.Context, q domain.Query) (int, error) {
	filter, err := r.buildFilter(q, domain.OpOr)
	if err != nil {
		return 0, err
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	return int(n), err
}

// GetAndCount counts the unpaginated filtered set alongside one page.
func (r *Repository[E, ID]) GetAndCount(ctx context.Context, q domain.Query) ([]*E, int, error) {
	filter, err := r.buildFilter(q, domain.OpOr)
	if err != nil {
		return nil, 0, err
	}
	entities, err := r.find(ctx, filter, r.findOptions(q))
	if err != nil {
		return nil, 0, err
	}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return entities, int(total), nil
}

func (r *Repository[E, ID]) GetByKey(ctx context.Context, key ID) (*E, error) {
	doc := r.codec.NewDoc()
	err := r.coll.FindOne(ctx, bson.M{"_id": r.codec.KeyArg(key)}).Decode(doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.codec.Entity(doc)
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
		eff.Limit = 2
	}
	entities, err := r.GetAll(ctx, eff)
	if err != nil {
		return nil, err
	}
	switch len(entities) {
	case 0:
		return nil, domain.NewMissing(r.schema.Resource, "resource not found")
	case 1:
		return entities[0], nil
	default:
		return nil, domain.NewUnique(r.schema.Resource, "multiple entities found")
	}
}

// ---------------- Writes ----------------

func (r *Repository[E, ID]) Add(ctx context.Context, entity *E) error {
	if _, err := r.coll.InsertOne(ctx, r.codec.ToDoc(entity)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return err
	}
	return nil
}

func (r *Repository[E, ID]) AddAll(ctx context.Context, entities []*E) error {
	if len(entities) == 0 {
		return nil
	}
	docs := make([]any, 0, len(entities))
	for _, entity := range entities {
		docs = append(docs, r.codec.ToDoc(entity))
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return err
	}
	return nil
}

func (r *Repository[E, ID]) Update(ctx context.Context, entity *E) (*E, error) {
	key := r.codec.Key(entity)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": r.codec.KeyArg(key)}, r.codec.ToDoc(entity))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domain.NewMissing(r.schema.Resource, fmt.Sprintf("resource with id '%v' not found", key))
	}
	return r.GetByKeyOrFail(ctx, key)
}

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

	set := bson.D{}
	for _, c := range columns {
		set = append(set, bson.E{Key: fieldName(c), Value: values[c]})
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": r.codec.KeyArg(key)}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.NewConflict(r.schema.Resource, err.Error(), err)
		}
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, domain.NewMissing(r.schema.Resource, fmt.Sprintf("resource with id '%v' not found", key))
	}
	return r.GetByKeyOrFail(ctx, key)
}

func (r *Repository[E, ID]) UpdateOneByOrFail(ctx context.Context, data map[string]any, q domain.Query) (*E, error) {
	entity, err := r.GetOneByOrFail(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.UpdateByKey(ctx, r.codec.Key(entity), data)
}

// ---------------- Deletes ----------------

func (r *Repository[E, ID]) Delete(ctx context.Context, entity *E) error {
	return r.DeleteByKey(ctx, r.codec.Key(entity))
}

func (r *Repository[E, ID]) DeleteByKey(ctx context.Context, key ID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": r.codec.KeyArg(key)})
	return err
}

func (r *Repository[E, ID]) DeleteBy(ctx context.Context, filters domain.Filters) error {
	filter, err := r.translateGroup(filters, domain.OpAnd)
	if err != nil {
		return err
	}
	if filter == nil {
		filter = bson.M{}
	}
	_, err = r.coll.DeleteMany(ctx, filter)
	return err
}

func (r *Repository[E, ID]) DeleteAll(ctx context.Context, entities []*E) error {
	keys := make([]ID, 0, len(entities))
	for _, entity := range entities {
		keys = append(keys, r.codec.Key(entity))
	}
	return r.DeleteAllByKeys(ctx, keys)
}

func (r *Repository[E, ID]) DeleteAllByKeys(ctx context.Context, keys []ID) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, r.codec.KeyArg(key))
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": args}})
	return err
}

func (r *Repository[E, ID]) Prune(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return err
}

// ---------------- Construction ----------------

// NewEntity defaults the identifier and both timestamps exactly like
// the SQL implementation.
func (r *Repository[E, ID]) NewEntity(data map[string]any) (*E, error) {
	values := make(map[string]any, len(data)+3)
	for k, v := range data {
		values[k] = v
	}
	if values["id"] == nil {
		values["id"] = r.codec.NewKey()
	}
	now := r.now().UTC()
	if values["created_at"] == nil {
		values["created_at"] = now
	}
	if values["updated_at"] == nil {
		values["updated_at"] = now
	}
	return r.codec.New(values)
}
