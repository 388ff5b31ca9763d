package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/crudlab/internal/shared/domain"
)

// ---------------- Test doubles ----------------

type note struct {
	ID        string
	Title     string
	Tag       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type noteDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type noteCreate struct {
	Title string `json:"title"`
}

type noteUpdate struct {
	Title *string `json:"title,omitempty"`
}

var errUntitled = errors.New("note has no title")

// noteMapper rejects untitled notes on the way out, which is what the
// tolerant-mapping tests lean on.
type noteMapper struct{}

func (noteMapper) ToDTO(n *note) (*noteDTO, error) {
	if n.Title == "" {
		return nil, fmt.Errorf("%w: %s", errUntitled, n.ID)
	}
	return &noteDTO{ID: n.ID, Title: n.Title}, nil
}

func (noteMapper) ToMap(n *note) map[string]any {
	return map[string]any{"id": n.ID, "title": n.Title}
}

func (noteMapper) Key(d *noteDTO) string { return d.ID }

func (noteMapper) CreateData(c *noteCreate) map[string]any {
	return map[string]any{"title": c.Title}
}

func (noteMapper) UpdateData(u *noteUpdate) map[string]any {
	data := map[string]any{}
	if u.Title != nil {
		data["title"] = *u.Title
	}
	return data
}

// fakeRepo is an in-memory store honoring title/tag equality filters,
// which is all the facade tests filter by. It records the last query so
// tests can assert on the defaults the facade applied.
type fakeRepo struct {
	notes       []*note
	lastQuery   domain.Query
	lastDeleted domain.Filters
	failWith    error
	nextID      int
}

func (r *fakeRepo) Resource() string { return "note" }

func (r *fakeRepo) Schema() *domain.Schema {
	return domain.NewSchema("notes", "note", []string{"id", "title", "tag", "created_at", "updated_at"})
}

func noteMatches(n *note, f domain.Filter) bool {
	switch f.Key {
	case "title":
		return f.Value == n.Title
	case "tag":
		return f.Value == n.Tag
	}
	return false
}

// match applies a query the way the real stores do: filter pairs ORed,
// every mandatory pair ANDed on top.
func (r *fakeRepo) match(q domain.Query) []*note {
	var out []*note
next:
	for _, n := range r.notes {
		for _, f := range q.Mandatory {
			if !noteMatches(n, f) {
				continue next
			}
		}
		if len(q.Filters) == 0 {
			out = append(out, n)
			continue
		}
		for _, f := range q.Filters {
			if noteMatches(n, f) {
				out = append(out, n)
				continue next
			}
		}
	}
	return out
}

// matchAll combines pairs with AND, the DeleteBy contract.
func (r *fakeRepo) matchAll(filters domain.Filters) []*note {
	var out []*note
next:
	for _, n := range r.notes {
		for _, f := range filters {
			if !noteMatches(n, f) {
				continue next
			}
		}
		out = append(out, n)
	}
	return out
}

func (r *fakeRepo) Add(_ context.Context, n *note) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.notes = append(r.notes, n)
	return nil
}

func (r *fakeRepo) AddAll(ctx context.Context, notes []*note) error {
	for _, n := range notes {
		if err := r.Add(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) CountBy(_ context.Context, q domain.Query) (int, error) {
	return len(r.match(q)), nil
}

func (r *fakeRepo) GetAll(_ context.Context, q domain.Query) ([]*note, error) {
	r.lastQuery = q
	return r.match(q), nil
}

func (r *fakeRepo) GetAndCount(_ context.Context, q domain.Query) ([]*note, int, error) {
	if r.failWith != nil {
		return nil, 0, r.failWith
	}
	r.lastQuery = q
	matched := r.match(q)
	return matched, len(matched), nil
}

func (r *fakeRepo) GetByKey(_ context.Context, key string) (*note, error) {
	for _, n := range r.notes {
		if n.ID == key {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetByKeyOrFail(ctx context.Context, key string) (*note, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	n, err := r.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, domain.NewMissing("note", "key "+key)
	}
	return n, nil
}

func (r *fakeRepo) GetOneBy(_ context.Context, q domain.Query) (*note, error) {
	matched := r.match(q)
	if len(matched) == 0 {
		return nil, nil
	}
	return matched[0], nil
}

func (r *fakeRepo) GetOneByOrFail(_ context.Context, q domain.Query) (*note, error) {
	r.lastQuery = q
	matched := r.match(q)
	switch len(matched) {
	case 0:
		return nil, domain.NewMissing("note", "criteria")
	case 1:
		return matched[0], nil
	default:
		return nil, domain.NewUnique("note", "criteria")
	}
}

func (r *fakeRepo) Update(_ context.Context, n *note) (*note, error) { return n, nil }

func (r *fakeRepo) UpdateByKey(ctx context.Context, key string, data map[string]any) (*note, error) {
	n, err := r.GetByKeyOrFail(ctx, key)
	if err != nil {
		return nil, err
	}
	if title, ok := data["title"].(string); ok {
		n.Title = title
	}
	n.UpdatedAt = time.Now().UTC()
	return n, nil
}

func (r *fakeRepo) UpdateOneByOrFail(ctx context.Context, data map[string]any, q domain.Query) (*note, error) {
	n, err := r.GetOneByOrFail(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.UpdateByKey(ctx, n.ID, data)
}

func (r *fakeRepo) Delete(ctx context.Context, n *note) error { return r.DeleteByKey(ctx, n.ID) }

func (r *fakeRepo) DeleteByKey(_ context.Context, key string) error {
	for i, n := range r.notes {
		if n.ID == key {
			r.notes = append(r.notes[:i], r.notes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeRepo) DeleteBy(_ context.Context, filters domain.Filters) error {
	r.lastDeleted = filters
	matched := r.matchAll(filters)
	for _, n := range matched {
		_ = r.DeleteByKey(context.Background(), n.ID)
	}
	return nil
}

func (r *fakeRepo) DeleteAll(ctx context.Context, notes []*note) error {
	for _, n := range notes {
		if err := r.Delete(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) DeleteAllByKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := r.DeleteByKey(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) Prune(_ context.Context) error {
	r.notes = nil
	return nil
}

func (r *fakeRepo) NewEntity(data map[string]any) (*note, error) {
	r.nextID++
	now := time.Now().UTC()
	n := &note{ID: strconv.Itoa(r.nextID), CreatedAt: now, UpdatedAt: now}
	if title, ok := data["title"].(string); ok {
		n.Title = title
	}
	if tag, ok := data["tag"].(string); ok {
		n.Tag = tag
	}
	return n, nil
}

var _ domain.Repository[note, string] = (*fakeRepo)(nil)

// fakeBus records published events synchronously.
type fakeBus struct {
	mu     sync.Mutex
	events []any
}

func (b *fakeBus) Publish(_ context.Context, event interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

// fakeCache is a map-backed cache with JSON values.
type fakeCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{items: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func newFacade(repo *fakeRepo, cfg Config) *Facade[string, noteDTO, noteCreate, noteUpdate, note] {
	return New[string, noteDTO, noteCreate, noteUpdate, note](repo, noteMapper{}, nil, cfg)
}

func seed(repo *fakeRepo, titles ...string) {
	for _, title := range titles {
		n, _ := repo.NewEntity(map[string]any{"title": title})
		repo.notes = append(repo.notes, n)
	}
}

func seedTagged(repo *fakeRepo, title, tag string) {
	n, _ := repo.NewEntity(map[string]any{"title": title, "tag": tag})
	repo.notes = append(repo.notes, n)
}

// ---------------- Create ----------------

func TestFacadeCreate(t *testing.T) {
	repo := &fakeRepo{}
	bus := &fakeBus{}
	facade := newFacade(repo, Config{Bus: bus})

	dto, err := facade.Create(context.Background(), &noteCreate{Title: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", dto.Title)
	assert.Len(t, repo.notes, 1)
	assert.Len(t, bus.events, 1)
}

func TestFacadeCreatePaginated_Envelope(t *testing.T) {
	repo := &fakeRepo{}
	facade := newFacade(repo, Config{})

	page, err := facade.CreatePaginated(context.Background(), []*noteCreate{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 3, page.Limit)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Data, 3)
}

func TestFacadeCreateRaw(t *testing.T) {
	repo := &fakeRepo{}
	facade := newFacade(repo, Config{})

	row, err := facade.CreateRaw(context.Background(), map[string]any{"title": "raw"})
	require.NoError(t, err)
	assert.Equal(t, "raw", row["title"])
	assert.NotEmpty(t, row["id"])
}

// ---------------- Read ----------------

func TestFacadeGet_CacheHitSkipsRepository(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	require.NoError(t, cache.Set(context.Background(), "note:42", &noteDTO{ID: "42", Title: "cached"}, 0))
	facade := newFacade(repo, Config{Cache: cache})

	dto, err := facade.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "cached", dto.Title)
}

func TestFacadeGet_Missing(t *testing.T) {
	facade := newFacade(&fakeRepo{}, Config{})

	_, err := facade.Get(context.Background(), "nope")
	assert.True(t, domain.IsMissing(err))
}

func TestFacadeGetList_TolerantMappingDropsRow(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a", "", "c") // middle row cannot map
	facade := newFacade(repo, Config{})

	dtos, total, err := facade.GetList(context.Background(), domain.Query{})
	require.NoError(t, err)
	assert.Len(t, dtos, 2)
	// The dropped row still counts: the total reflects the store.
	assert.Equal(t, 3, total)
}

func TestFacadeGetList_StrictMappingFails(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a", "")
	facade := newFacade(repo, Config{Strict: true})

	_, _, err := facade.GetList(context.Background(), domain.Query{})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindError))
	assert.ErrorIs(t, err, errUntitled)
}

func TestFacadeGetPaginated_AppliesDefaults(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a")
	facade := newFacade(repo, Config{})

	page, err := facade.GetPaginated(context.Background(), domain.Query{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Equal(t, DefaultLimit, repo.lastQuery.Limit)
	assert.Equal(t, []string{"-created_at", "-updated_at"}, repo.lastQuery.Sort)
	assert.Equal(t, 1, page.TotalCount)
}

func TestFacadeGetPaginated_ExplicitPaginationKept(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a")
	facade := newFacade(repo, Config{})

	page, err := facade.GetPaginated(context.Background(), domain.Query{Offset: 10, Limit: 5, Sort: []string{"+title"}})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Offset)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, []string{"+title"}, repo.lastQuery.Sort)
}

func TestFacadeGetLatestBy(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a")
	facade := newFacade(repo, Config{})

	dto, err := facade.GetLatestBy(context.Background(), domain.Filters{domain.F("title", "a")})
	require.NoError(t, err)
	assert.Equal(t, "a", dto.Title)
	assert.Equal(t, 1, repo.lastQuery.Limit)
	assert.Equal(t, []string{"-created_at", "-updated_at"}, repo.lastQuery.Sort)
}

func TestFacadeGetRawList(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "a", "b")
	facade := newFacade(repo, Config{})

	rows, total, err := facade.GetRawList(context.Background(), domain.Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["title"])
}

// ---------------- Error boundary ----------------

func TestFacadeWrapsGenericErrors(t *testing.T) {
	repo := &fakeRepo{failWith: errors.New("connection reset")}
	facade := newFacade(repo, Config{})

	_, _, err := facade.GetList(context.Background(), domain.Query{})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindError))

	var re *domain.ResourceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "note", re.Resource)
}

func TestFacadePassesTypedErrorsUnchanged(t *testing.T) {
	repo := &fakeRepo{failWith: domain.NewMissing("note", "gone")}
	facade := newFacade(repo, Config{})

	_, err := facade.Get(context.Background(), "1")
	assert.True(t, domain.IsMissing(err))
}

func TestFacadePassesFilterErrorsUnchanged(t *testing.T) {
	repo := &fakeRepo{failWith: fmt.Errorf("%w: bogus", domain.ErrInvalidFilterAttribute)}
	facade := newFacade(repo, Config{})

	_, _, err := facade.GetList(context.Background(), domain.Query{})
	assert.ErrorIs(t, err, domain.ErrInvalidFilterAttribute)

	var re *domain.ResourceError
	assert.False(t, errors.As(err, &re))
}

// ---------------- Update ----------------

func TestFacadeUpdate(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "before")
	bus := &fakeBus{}
	facade := newFacade(repo, Config{Bus: bus})

	title := "after"
	dto, err := facade.Update(context.Background(), "1", &noteUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "after", dto.Title)
	assert.Len(t, bus.events, 1)
}

func TestFacadeUpdateOneBy(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "target")
	facade := newFacade(repo, Config{})

	title := "renamed"
	dto, err := facade.UpdateOneBy(context.Background(), &noteUpdate{Title: &title}, domain.Filters{domain.F("title", "target")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", dto.Title)
}

// ---------------- Delete ----------------

func TestFacadeDelete_ReturnsPriorDTO(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "doomed")
	facade := newFacade(repo, Config{})

	dto, err := facade.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "doomed", dto.Title)
	assert.Empty(t, repo.notes)

	_, err = facade.Delete(context.Background(), "1")
	assert.True(t, domain.IsMissing(err))
}

func TestFacadeDeleteOneBy(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "doomed", "kept")
	facade := newFacade(repo, Config{})

	dto, err := facade.DeleteOneBy(context.Background(), domain.Filters{domain.F("title", "doomed")})
	require.NoError(t, err)
	assert.Equal(t, "doomed", dto.Title)
	assert.Len(t, repo.notes, 1)
}

func TestFacadeDeleteList(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "x", "x", "kept")
	facade := newFacade(repo, Config{})

	dtos, err := facade.DeleteList(context.Background(), domain.Query{Filters: domain.Filters{domain.F("title", "x")}})
	require.NoError(t, err)
	assert.Len(t, dtos, 2)
	assert.Len(t, repo.notes, 1)
}

func TestFacadeDeleteList_MandatoryConstrainsDelete(t *testing.T) {
	repo := &fakeRepo{}
	seedTagged(repo, "Ada", "admin")
	seedTagged(repo, "Ada", "member")
	facade := newFacade(repo, Config{})

	dtos, err := facade.DeleteList(context.Background(), domain.Query{
		Mandatory: domain.Filters{domain.F("tag", "admin")},
		Filters:   domain.Filters{domain.F("title", "Ada")},
	})
	require.NoError(t, err)
	assert.Len(t, dtos, 1)

	// The row outside the mandatory group must survive the delete.
	require.Len(t, repo.notes, 1)
	assert.Equal(t, "member", repo.notes[0].Tag)
	assert.Contains(t, repo.lastDeleted, domain.F("tag", "admin"))
}

func TestFacadeDeletePaginated_MandatoryConstrainsDelete(t *testing.T) {
	repo := &fakeRepo{}
	seedTagged(repo, "Ada", "admin")
	seedTagged(repo, "Ada", "member")
	facade := newFacade(repo, Config{})

	page, err := facade.DeletePaginated(context.Background(), domain.Query{
		Mandatory: domain.Filters{domain.F("tag", "admin")},
		Filters:   domain.Filters{domain.F("title", "Ada")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
	assert.Len(t, page.Data, 1)

	require.Len(t, repo.notes, 1)
	assert.Equal(t, "member", repo.notes[0].Tag)
}

func TestFacadeDeletePaginated_FetchesUnbounded(t *testing.T) {
	repo := &fakeRepo{}
	seed(repo, "x", "x", "x")
	facade := newFacade(repo, Config{})

	page, err := facade.DeletePaginated(context.Background(), domain.Query{
		Offset:  5,
		Limit:   1,
		Filters: domain.Filters{domain.F("title", "x")},
	})
	require.NoError(t, err)
	// The fetch ignores caller pagination so the envelope covers the
	// whole deleted set.
	assert.Equal(t, 0, repo.lastQuery.Offset)
	assert.Equal(t, 0, repo.lastQuery.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 3, page.Limit)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Data, 3)
	assert.Empty(t, repo.notes)
}
