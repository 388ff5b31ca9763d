package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/shared/domain"
	"github.com/davicafu/crudlab/internal/shared/events"
	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/crudlab/internal/shared/infra/platform/cache"
)

// DefaultLimit is the component-wide pagination limit applied when the
// caller supplies none. Large on purpose: "everything" without the
// unbounded sentinel.
const DefaultLimit = 1000000

// defaultSort and sortLatest order newest-first. Unknown sort fields are
// dropped downstream, so these are safe for every entity.
var (
	defaultSort = []string{"-created_at", "-updated_at"}
	sortLatest  = []string{"-created_at", "-updated_at"}
)

// Mapper translates between the entity and its DTO triple. ToDTO may
// fail when the persisted row no longer satisfies the DTO's invariants;
// list operations decide what to do with that per the mapping policy.
type Mapper[E, D, C, U any] interface {
	// ToDTO validates and converts a fetched entity.
	ToDTO(entity *E) (*D, error)
	// ToMap flattens an entity into raw column values.
	ToMap(entity *E) map[string]any
	// Key renders the DTO identifier for cache keys and event partitioning.
	Key(dto *D) string
	// CreateData extracts the column values a create-DTO declares.
	CreateData(data *C) map[string]any
	// UpdateData extracts only the fields explicitly set on the
	// update-DTO; untouched fields must not appear.
	UpdateData(data *U) map[string]any
}

// Config carries the optional collaborators and tuning of a facade.
// The zero value is a plain store-only facade with tolerant mapping.
type Config struct {
	// DefaultLimit overrides the component-wide default (0 keeps it).
	DefaultLimit int
	// DefaultSort overrides the newest-first default sort.
	DefaultSort []string
	// Strict makes list mapping fail on the first invalid row instead
	// of dropping it.
	Strict bool
	// Cache enables read-through caching of Get plus invalidation on
	// writes. Nil disables caching.
	Cache sharedCache.Cache
	// CacheTTL in seconds; 0 lets the adapter pick its default.
	CacheTTL int
	// Bus receives entity lifecycle events after single-row writes.
	// Nil disables publishing.
	Bus sharedBus.EventBus
}

// Facade orchestrates one repository for front-end collaborators:
// DTO translation, pagination envelopes, defaults, tolerant list
// mapping and the error boundary that keeps store-specific failure
// types from leaking.
type Facade[ID comparable, D, C, U, E any] struct {
	repo   domain.Repository[E, ID]
	mapper Mapper[E, D, C, U]
	log    *zap.Logger

	cache    sharedCache.Cache
	bus      sharedBus.EventBus
	cacheTTL int

	defaultLimit int
	defaultSort  []string
	strict       bool
}

func New[ID comparable, D, C, U, E any](repo domain.Repository[E, ID], mapper Mapper[E, D, C, U], log *zap.Logger, cfg Config) *Facade[ID, D, C, U, E] {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Facade[ID, D, C, U, E]{
		repo:         repo,
		mapper:       mapper,
		log:          log,
		cache:        cfg.Cache,
		bus:          cfg.Bus,
		cacheTTL:     cfg.CacheTTL,
		defaultLimit: cfg.DefaultLimit,
		defaultSort:  cfg.DefaultSort,
		strict:       cfg.Strict,
	}
	if f.defaultLimit == 0 {
		f.defaultLimit = DefaultLimit
	}
	if len(f.defaultSort) == 0 {
		f.defaultSort = defaultSort
	}
	return f
}

func (f *Facade[ID, D, C, U, E]) Resource() string { return f.repo.Resource() }

// ---------------- Error boundary ----------------

// wrap narrows every failure to the typed taxonomy: already-typed
// resource errors pass through unchanged, filter compilation errors
// propagate as-is (programmer errors), anything else becomes the
// generic resource error tagged with this facade's resource.
func (f *Facade[ID, D, C, U, E]) wrap(err error) error {
	if err == nil {
		return nil
	}
	var re *domain.ResourceError
	if errors.As(err, &re) {
		return err
	}
	if errors.Is(err, domain.ErrInvalidFilterOperator) || errors.Is(err, domain.ErrInvalidFilterAttribute) {
		return err
	}
	return domain.WrapResource(f.repo.Resource(), err)
}

// ---------------- Create ----------------

func (f *Facade[ID, D, C, U, E]) Create(ctx context.Context, data *C) (*D, error) {
	entity, err := f.repo.NewEntity(f.mapper.CreateData(data))
	if err != nil {
		return nil, f.wrap(err)
	}
	if err := f.repo.Add(ctx, entity); err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	f.afterWrite(ctx, events.TypeCreated, dto)
	return dto, nil
}

// CreatePaginated persists the whole batch as one unit of work and
// returns the created DTOs in a pagination envelope.
func (f *Facade[ID, D, C, U, E]) CreatePaginated(ctx context.Context, data []*C) (*domain.Page[*D], error) {
	entities := make([]*E, 0, len(data))
	for _, entry := range data {
		entity, err := f.repo.NewEntity(f.mapper.CreateData(entry))
		if err != nil {
			return nil, f.wrap(err)
		}
		entities = append(entities, entity)
	}
	if err := f.repo.AddAll(ctx, entities); err != nil {
		return nil, f.wrap(err)
	}
	dtos := make([]*D, 0, len(entities))
	for _, entity := range entities {
		dto, err := f.mapper.ToDTO(entity)
		if err != nil {
			return nil, f.wrap(err)
		}
		dtos = append(dtos, dto)
	}
	return &domain.Page[*D]{Offset: 0, Limit: len(dtos), TotalCount: len(entities), Data: dtos}, nil
}

// CreateRaw persists a map-shaped row, bypassing the create-DTO. Used
// by maintenance tooling; defaults still apply.
func (f *Facade[ID, D, C, U, E]) CreateRaw(ctx context.Context, data map[string]any) (map[string]any, error) {
	entity, err := f.repo.NewEntity(data)
	if err != nil {
		return nil, f.wrap(err)
	}
	if err := f.repo.Add(ctx, entity); err != nil {
		return nil, f.wrap(err)
	}
	return f.mapper.ToMap(entity), nil
}

// ---------------- Read ----------------

func (f *Facade[ID, D, C, U, E]) Get(ctx context.Context, key ID) (*D, error) {
	if f.cache != nil {
		var dto D
		hit, err := f.cache.Get(ctx, f.cacheKey(fmt.Sprint(key)), &dto)
		if err != nil {
			f.log.Warn("Cache read failed", zap.String("resource", f.repo.Resource()), zap.Error(err))
		} else if hit {
			return &dto, nil
		}
	}

	entity, err := f.repo.GetByKeyOrFail(ctx, key)
	if err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	if f.cache != nil {
		sharedCache.AsyncCacheSet(ctx, f.cache, f.cacheKey(f.mapper.Key(dto)), dto, f.cacheTTL, f.log)
	}
	return dto, nil
}

func (f *Facade[ID, D, C, U, E]) GetOneBy(ctx context.Context, filters domain.Filters) (*D, error) {
	entity, err := f.repo.GetOneByOrFail(ctx, domain.Query{Filters: filters})
	if err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	return dto, nil
}

// GetLatestBy forces newest-first order and limit 1, so "latest" never
// raises ambiguity the way unordered GetOneBy can.
func (f *Facade[ID, D, C, U, E]) GetLatestBy(ctx context.Context, filters domain.Filters) (*D, error) {
	entity, err := f.repo.GetOneByOrFail(ctx, domain.Query{Filters: filters, Sort: sortLatest, Limit: 1})
	if err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	return dto, nil
}

func (f *Facade[ID, D, C, U, E]) GetList(ctx context.Context, q domain.Query) ([]*D, int, error) {
	return f.list(ctx, f.applyDefaults(q))
}

func (f *Facade[ID, D, C, U, E]) GetPaginated(ctx context.Context, q domain.Query) (*domain.Page[*D], error) {
	eff := f.applyDefaults(q)
	data, total, err := f.list(ctx, eff)
	if err != nil {
		return nil, err
	}
	return &domain.Page[*D]{Offset: eff.Offset, Limit: eff.Limit, TotalCount: total, Data: data}, nil
}

func (f *Facade[ID, D, C, U, E]) GetRawList(ctx context.Context, q domain.Query) ([]map[string]any, int, error) {
	eff := f.applyDefaults(q)
	entities, total, err := f.repo.GetAndCount(ctx, eff)
	if err != nil {
		return nil, 0, f.wrap(err)
	}
	data := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		data = append(data, f.mapper.ToMap(entity))
	}
	return data, total, nil
}

func (f *Facade[ID, D, C, U, E]) GetRawPaginated(ctx context.Context, q domain.Query) (*domain.Page[map[string]any], error) {
	eff := f.applyDefaults(q)
	data, total, err := f.GetRawList(ctx, eff)
	if err != nil {
		return nil, err
	}
	return &domain.Page[map[string]any]{Offset: eff.Offset, Limit: eff.Limit, TotalCount: total, Data: data}, nil
}

// ---------------- Update ----------------

func (f *Facade[ID, D, C, U, E]) Update(ctx context.Context, key ID, data *U) (*D, error) {
	entity, err := f.repo.UpdateByKey(ctx, key, f.mapper.UpdateData(data))
	if err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	f.afterWrite(ctx, events.TypeUpdated, dto)
	return dto, nil
}

func (f *Facade[ID, D, C, U, E]) UpdateOneBy(ctx context.Context, data *U, filters domain.Filters) (*D, error) {
	entity, err := f.repo.UpdateOneByOrFail(ctx, f.mapper.UpdateData(data), domain.Query{Filters: filters})
	if err != nil {
		return nil, f.wrap(err)
	}
	dto, err := f.mapper.ToDTO(entity)
	if err != nil {
		return nil, f.wrap(err)
	}
	f.afterWrite(ctx, events.TypeUpdated, dto)
	return dto, nil
}

// ---------------- Delete ----------------

// Deletion is fetch-then-remove: every delete operation returns the
// DTO(s) as fetched before the rows disappeared.
func (f *Facade[ID, D, C, U, E]) Delete(ctx context.Context, key ID) (*D, error) {
	dto, err := f.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := f.repo.DeleteByKey(ctx, key); err != nil {
		return nil, f.wrap(err)
	}
	f.afterWrite(ctx, events.TypeDeleted, dto)
	return dto, nil
}

func (f *Facade[ID, D, C, U, E]) DeleteOneBy(ctx context.Context, filters domain.Filters) (*D, error) {
	dto, err := f.GetOneBy(ctx, filters)
	if err != nil {
		return nil, err
	}
	if err := f.repo.DeleteBy(ctx, filters); err != nil {
		return nil, f.wrap(err)
	}
	f.afterWrite(ctx, events.TypeDeleted, dto)
	return dto, nil
}

func (f *Facade[ID, D, C, U, E]) DeleteList(ctx context.Context, q domain.Query) ([]*D, error) {
	dtos, _, err := f.GetList(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := f.repo.DeleteBy(ctx, deleteCriteria(q)); err != nil {
		return nil, f.wrap(err)
	}
	return dtos, nil
}

// DeletePaginated fetches the whole matching set unbounded, deletes by
// criteria, and reports limit = max(limit, totalCount) in the envelope.
func (f *Facade[ID, D, C, U, E]) DeletePaginated(ctx context.Context, q domain.Query) (*domain.Page[*D], error) {
	eff := q
	eff.Offset = 0
	eff.Limit = 0
	if len(eff.Sort) == 0 {
		eff.Sort = f.defaultSort
	}
	data, total, err := f.list(ctx, eff)
	if err != nil {
		return nil, err
	}
	if err := f.repo.DeleteBy(ctx, deleteCriteria(q)); err != nil {
		return nil, f.wrap(err)
	}
	limit := eff.Limit
	if total > limit {
		limit = total
	}
	return &domain.Page[*D]{Offset: 0, Limit: limit, TotalCount: total, Data: data}, nil
}

// ---------------- Internals ----------------

// deleteCriteria folds the mandatory group into the criteria handed to
// DeleteBy: the delete must never touch rows the read excluded. DeleteBy
// combines pairs with AND, so appending is enough.
func deleteCriteria(q domain.Query) domain.Filters {
	if len(q.Mandatory) == 0 {
		return q.Filters
	}
	criteria := make(domain.Filters, 0, len(q.Filters)+len(q.Mandatory))
	criteria = append(criteria, q.Filters...)
	criteria = append(criteria, q.Mandatory...)
	return criteria
}

func (f *Facade[ID, D, C, U, E]) applyDefaults(q domain.Query) domain.Query {
	if q.Limit == 0 {
		q.Limit = f.defaultLimit
	}
	if len(q.Sort) == 0 {
		q.Sort = f.defaultSort
	}
	return q
}

// list fetches and maps one page. Under the tolerant policy a row whose
// mapping fails is dropped with a warning; the total is not adjusted,
// so len(data) may be smaller than the returned count.
func (f *Facade[ID, D, C, U, E]) list(ctx context.Context, q domain.Query) ([]*D, int, error) {
	entities, total, err := f.repo.GetAndCount(ctx, q)
	if err != nil {
		return nil, 0, f.wrap(err)
	}
	dtos := make([]*D, 0, len(entities))
	for _, entity := range entities {
		dto, err := f.mapper.ToDTO(entity)
		if err != nil {
			if f.strict {
				return nil, 0, f.wrap(err)
			}
			f.log.Warn("Mapping error, row dropped",
				zap.String("resource", f.repo.Resource()),
				zap.Error(err))
			continue
		}
		dtos = append(dtos, dto)
	}
	return dtos, total, nil
}

func (f *Facade[ID, D, C, U, E]) cacheKey(key string) string {
	return f.repo.Resource() + ":" + key
}

// afterWrite refreshes or invalidates the cache entry and publishes the
// lifecycle event. Both are best-effort: failures are logged, never
// surfaced to the caller of a successful write.
func (f *Facade[ID, D, C, U, E]) afterWrite(ctx context.Context, suffix string, dto *D) {
	key := f.mapper.Key(dto)
	if f.cache != nil {
		if suffix == events.TypeDeleted {
			sharedCache.AsyncCacheDelete(ctx, f.cache, f.cacheKey(key), f.log)
		} else {
			sharedCache.AsyncCacheSet(ctx, f.cache, f.cacheKey(key), dto, f.cacheTTL, f.log)
		}
	}
	if f.bus != nil {
		event, err := events.NewResourceEvent(f.repo.Resource(), suffix, key, dto)
		if err != nil {
			f.log.Warn("Event payload marshal failed", zap.String("resource", f.repo.Resource()), zap.Error(err))
			return
		}
		if err := f.bus.Publish(ctx, event); err != nil {
			f.log.Warn("Event publish failed", zap.String("resource", f.repo.Resource()), zap.Error(err))
		}
	}
}
