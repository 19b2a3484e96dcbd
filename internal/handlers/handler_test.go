// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler tests:
// an in-memory category store behind a real catalog service.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"marketplace/internal/catalog"
	"marketplace/internal/categorytree"
	"marketplace/internal/export"
	"marketplace/internal/logger"
	"marketplace/internal/models"
)

func fixedID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

var (
	woodID     = fixedID(1)
	hardwoodID = fixedID(2)
	metalID    = fixedID(3)
)

// memStore implements catalog.Store in memory.
type memStore struct {
	mu      sync.Mutex
	rows    []models.Category
	listErr error
}

func (m *memStore) List(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return slices.Clone(m.rows), nil
}

func (m *memStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *c
	row.ID = uuid.New()
	row.CreatedAt = time.Date(2026, 2, 1, 0, 0, len(m.rows), 0, time.UTC)
	m.rows = append(m.rows, row)
	return &row, nil
}

func (m *memStore) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == c.ID {
			m.rows[i] = *c
			row := *c
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
		for i := range m.rows {
			if m.rows[i].ID == item.ID {
				m.rows[i].ParentID = item.ParentID
				m.rows[i].SortOrder = item.Order
			}
		}
	}
	return nil
}

func (m *memStore) NextSortOrder(context.Context, *uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
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

// fakeUploader records uploads instead of talking to object storage.
type fakeUploader struct {
	uploaded int
	err      error
}

func (u *fakeUploader) Upload(_ context.Context, forest *categorytree.Forest) (*export.Object, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.uploaded += categorytree.Count(forest.All())
	return &export.Object{Bucket: "exports", Name: "categories/test.xlsx", URL: "https://minio.local/exports/categories/test.xlsx"}, nil
}

// testEnv holds the handler group and the store behind it.
type testEnv struct {
	Store    *memStore
	Uploader *fakeUploader
	Handlers *Categories
}

// newTestEnv seeds Wood > Hardwood and Metal.
func newTestEnv(t *testing.T, extra ...models.Category) *testEnv {
	t.Helper()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	parent := woodID
	rows := []models.Category{
		{ID: woodID, Name: "Wood", Slug: "wood", CreatedAt: base},
		{ID: hardwoodID, Name: "Hardwood", Slug: "hardwood", ParentID: &parent, CreatedAt: base.Add(time.Second)},
		{ID: metalID, Name: "Metal", Slug: "metal", SortOrder: 1, CreatedAt: base.Add(2 * time.Second)},
	}
	st := &memStore{rows: append(rows, extra...)}
	up := &fakeUploader{}
	svc := catalog.New(st, nil, logger.Nop(), catalog.WithMaxDepth(4))

	return &testEnv{
		Store:    st,
		Uploader: up,
		Handlers: NewCategories(svc, up, logger.Nop()),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
