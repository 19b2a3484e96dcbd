package catalog

import (
	"context"
	"slices"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"marketplace/internal/models"
)

// memStore is an in-memory Store.
type memStore struct {
	mu      sync.Mutex
	rows    []models.Category
	clock   time.Time
	listErr error
	creates int
}

func newMemStore(rows ...models.Category) *memStore {
	return &memStore{rows: rows, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) List(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := slices.Clone(m.rows)
	slices.SortStableFunc(out, compareCategories)
	return out, nil
}

func (m *memStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *c
	row.ID = uuid.New()
	row.CreatedAt = m.tick()
	row.ModifiedAt = row.CreatedAt
	row.ModifiedBy = row.CreatedBy
	m.rows = append(m.rows, row)
	m.creates++
	return &row, nil
}

func (m *memStore) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == c.ID {
			row := *c
			row.CreatedAt = m.rows[i].CreatedAt
			row.ModifiedAt = m.tick()
			m.rows[i] = row
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memStore) DeleteMany(_ context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.rows)
	m.rows = slices.DeleteFunc(m.rows, func(c models.Category) bool { return slices.Contains(ids, c.ID) })
	return int64(before - len(m.rows)), nil
}

func (m *memStore) Reorder(_ context.Context, items []models.ReorderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		i := slices.IndexFunc(m.rows, func(c models.Category) bool { return c.ID == item.ID })
		if i < 0 {
			return errors.Errorf("reorder: %s not found", item.ID)
		}
		m.rows[i].ParentID = item.ParentID
		m.rows[i].SortOrder = item.Order
	}
	return nil
}

func (m *memStore) NextSortOrder(_ context.Context, parentID *uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 0
	for _, c := range m.rows {
		if sameParent(c.ParentID, parentID) && c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next, nil
}

func (m *memStore) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			row := c
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// mapCache is an in-memory TreeCache.
type mapCache struct {
	entries     map[string][]byte
	hits        int
	invalidated int
	// onSet, when set, runs once at the start of the next Set.
	onSet func()
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, variant string) ([]byte, bool) {
	b, ok := c.entries[variant]
	if ok {
		c.hits++
	}
	return b, ok
}

func (c *mapCache) Set(_ context.Context, variant string, body []byte) {
	if hook := c.onSet; hook != nil {
		c.onSet = nil
		hook()
	}
	c.entries[variant] = body
}

func (c *mapCache) Invalidate(_ context.Context, variant string) {
	delete(c.entries, variant)
}

func (c *mapCache) InvalidateAll(context.Context) {
	c.entries = map[string][]byte{}
	c.invalidated++
}

type invalidation struct {
	Action string
	Origin string
	IDs    []uuid.UUID
}

type recordingLog struct {
	entries []invalidation
}

func (l *recordingLog) Log(_ context.Context, action, origin string, ids ...uuid.UUID) {
	l.entries = append(l.entries, invalidation{Action: action, Origin: origin, IDs: ids})
}

type recordingPublisher struct {
	events []cloudevents.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e cloudevents.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close(context.Context) error { return nil }

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type()
	}
	return out
}
