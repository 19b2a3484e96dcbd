// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog owns the in-memory flat category collection, keeps it in
// sync with the database and with other instances, and derives the tree
// from it on every read.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"marketplace/internal/cache"
	"marketplace/internal/categorytree"
	"marketplace/internal/events"
	"marketplace/internal/logger"
	"marketplace/internal/models"
	"marketplace/internal/slug"
)

// MaxNameLength is the longest accepted category name, in characters.
const MaxNameLength = 200

// Store persists categories.
type Store interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
	Reorder(ctx context.Context, items []models.ReorderItem) error
	NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// TreeCache holds rendered trees shared between instances.
type TreeCache interface {
	Get(ctx context.Context, variant string) ([]byte, bool)
	Set(ctx context.Context, variant string, body []byte)
	Invalidate(ctx context.Context, variant string)
	InvalidateAll(ctx context.Context)
}

// InvalidationLog records why the tree cache was flushed.
type InvalidationLog interface {
	Log(ctx context.Context, action, origin string, ids ...uuid.UUID)
}

// ConfirmFunc is asked before a deletion goes ahead. affected counts the
// category itself plus every descendant that will be removed with it.
type ConfirmFunc func(ctx context.Context, c models.Category, affected int) (bool, error)

// AlwaysConfirm approves every deletion. Use it only where the caller has
// already obtained consent.
func AlwaysConfirm(context.Context, models.Category, int) (bool, error) { return true, nil }

// Option configures a Service.
type Option func(*Service)

// WithCache enables the shared rendered-tree cache.
func WithCache(c TreeCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithInvalidationLog records cache flushes.
func WithInvalidationLog(l InvalidationLog) Option {
	return func(s *Service) { s.invalidations = l }
}

// WithMaxDepth limits how many levels a category tree may have. Zero
// disables the limit.
func WithMaxDepth(levels int) Option {
	return func(s *Service) { s.maxDepth = levels }
}

// WithSource sets the CloudEvents source of published events. Events that
// come back with the same source are ignored by Apply.
func WithSource(source string) Option {
	return func(s *Service) { s.source = source }
}

// Service is the category catalog.
type Service struct {
	store         Store
	publisher     events.Publisher
	cache         TreeCache
	invalidations InvalidationLog
	log           logger.Logger
	maxDepth      int
	source        string

	// writeMu serialises mutations so validation and write see the same snapshot.
	writeMu sync.Mutex

	mu       sync.RWMutex
	snapshot []models.Category
	loaded   bool
	// generation changes whenever snapshot is replaced.
	generation uint64
}

// New creates a catalog service. A nil publisher disables events.
func New(store Store, publisher events.Publisher, log logger.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{Log: log}
	}
	s := &Service{
		store:     store,
		publisher: publisher,
		log:       log,
		source:    "marketplace",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the CloudEvents source of this instance.
func (s *Service) Source() string {
	return s.source
}

// Reload replaces the snapshot with the current database contents.
func (s *Service) Reload(ctx context.Context) error {
	list, err := s.store.List(ctx)
	if err != nil {
		return errors.Wrap(err, "reload categories")
	}
	slices.SortStableFunc(list, compareCategories)

	s.mu.Lock()
	s.snapshot = list
	s.loaded = true
	s.generation++
	s.mu.Unlock()

	s.flushCache(ctx, "reload", "local")
	s.log.Info("category snapshot loaded", logger.Int("categories", len(list)))
	return nil
}

// current returns a copy of the snapshot, loading it on first use.
func (s *Service) current(ctx context.Context) ([]models.Category, error) {
	list, _, err := s.view(ctx)
	return list, err
}

// view returns a copy of the snapshot together with its generation.
func (s *Service) view(ctx context.Context) ([]models.Category, uint64, error) {
	s.mu.RLock()
	if s.loaded {
		out := slices.Clone(s.snapshot)
		gen := s.generation
		s.mu.RUnlock()
		return out, gen, nil
	}
	s.mu.RUnlock()

	if err := s.Reload(ctx); err != nil {
		return nil, 0, err
	}
	return s.view(ctx)
}

func (s *Service) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// replace installs a new snapshot, kept in the same order the store lists.
func (s *Service) replace(list []models.Category) {
	slices.SortStableFunc(list, compareCategories)
	s.mu.Lock()
	s.snapshot = list
	s.loaded = true
	s.generation++
	s.mu.Unlock()
}

// compareCategories mirrors "ORDER BY sort_order, created_at, id".
func compareCategories(a, b models.Category) int {
	if a.SortOrder != b.SortOrder {
		if a.SortOrder < b.SortOrder {
			return -1
		}
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// List returns the flat collection.
func (s *Service) List(ctx context.Context) ([]models.Category, error) {
	return s.current(ctx)
}

// Get returns one category. A category missing from the snapshot is looked
// up in the store, since the change event that adds it may still be on its way.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Category, error) {
	list, err := s.current(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}

	found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Category{}, err
	}
	if found == nil {
		return models.Category{}, errors.Wrap(ErrNotFound, id.String())
	}
	s.log.Debug("category not in snapshot, read from store", logger.String("id", id.String()))
	return *found, nil
}

// Tree builds the forest from the current snapshot.
func (s *Service) Tree(ctx context.Context) (*categorytree.Forest, error) {
	list, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return categorytree.Build(list)
}

// Flat returns the forest in pre-order with depths, orphans last.
func (s *Service) Flat(ctx context.Context) ([]categorytree.Entry, error) {
	list, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return flatten(list)
}

func flatten(list []models.Category) ([]categorytree.Entry, error) {
	forest, err := categorytree.Build(list)
	if err != nil {
		return nil, err
	}
	entries := categorytree.Flatten(forest.All())
	if entries == nil {
		entries = []categorytree.Entry{}
	}
	return entries, nil
}

// Rendered returns the JSON rendering of a cache variant, from the shared
// cache when possible.
func (s *Service) Rendered(ctx context.Context, variant string) ([]byte, error) {
	if s.cache != nil {
		if body, ok := s.cache.Get(ctx, variant); ok {
			return body, nil
		}
	}

	list, gen, err := s.view(ctx)
	if err != nil {
		return nil, err
	}

	var v interface{}
	switch variant {
	case cache.VariantForest:
		v, err = categorytree.Build(list)
	case cache.VariantFlat:
		v, err = flatten(list)
	case cache.VariantList:
		v = list
	default:
		return nil, errors.Errorf("unknown tree variant %q", variant)
	}
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "render %s", variant)
	}
	if s.cache != nil {
		s.cache.Set(ctx, variant, body)
		// A change that landed while rendering flushed the cache before
		// the Set above, so the stored body is already outdated.
		if s.currentGeneration() != gen {
			s.cache.Invalidate(ctx, variant)
		}
	}
	return body, nil
}

// Create validates and stores a new category.
func (s *Service) Create(ctx context.Context, in models.CategoryInput) (models.Category, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list, err := s.current(ctx)
	if err != nil {
		return models.Category{}, err
	}

	name, err := validateName(in.Name)
	if err != nil {
		return models.Category{}, err
	}

	// A placeholder ID lets the candidate collection be checked like any other.
	candidate := models.Category{ID: uuid.New(), Name: name, ParentID: in.ParentID}
	if err := s.checkPlacement(append(list, candidate), candidate); err != nil {
		return models.Category{}, err
	}

	candidate.Slug, err = s.uniqueSlug(ctx, in.Slug, name, uuid.Nil)
	if err != nil {
		return models.Category{}, err
	}
	candidate.SortOrder, err = s.store.NextSortOrder(ctx, in.ParentID)
	if err != nil {
		return models.Category{}, err
	}
	candidate.ID = uuid.Nil
	candidate.CreatedBy = in.ActorID

	created, err := s.store.Create(ctx, &candidate)
	if err != nil {
		return models.Category{}, err
	}

	s.replace(categorytree.Upsert(list, *created))
	s.flushCache(ctx, "create", "local", created.ID)
	s.publishChange(ctx, events.TypeCategoryCreated, *created)

	s.log.Info("category created",
		logger.String("id", created.ID.String()),
		logger.String("slug", created.Slug),
	)
	return *created, nil
}

// Update changes the name, slug or parent of a category. An empty slug
// keeps the current one.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in models.CategoryInput) (models.Category, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list, err := s.current(ctx)
	if err != nil {
		return models.Category{}, err
	}

	idx := slices.IndexFunc(list, func(c models.Category) bool { return c.ID == id })
	if idx < 0 {
		return models.Category{}, errors.Wrap(ErrNotFound, id.String())
	}
	existing := list[idx]

	name, err := validateName(in.Name)
	if err != nil {
		return models.Category{}, err
	}

	updated := existing
	updated.Name = name
	updated.ParentID = in.ParentID
	updated.ModifiedBy = in.ActorID

	if err := s.checkPlacement(categorytree.Upsert(list, updated), updated); err != nil {
		return models.Category{}, err
	}

	if in.Slug != "" {
		updated.Slug, err = s.uniqueSlug(ctx, in.Slug, name, id)
		if err != nil {
			return models.Category{}, err
		}
	}
	if !sameParent(existing.ParentID, updated.ParentID) {
		updated.SortOrder, err = s.store.NextSortOrder(ctx, updated.ParentID)
		if err != nil {
			return models.Category{}, err
		}
	}

	stored, err := s.store.Update(ctx, &updated)
	if err != nil {
		return models.Category{}, err
	}
	if stored == nil {
		// Deleted behind our back; drop it from the snapshot too.
		s.replace(categorytree.Remove(list, id))
		s.flushCache(ctx, "delete", "local", id)
		return models.Category{}, errors.Wrap(ErrNotFound, id.String())
	}

	s.replace(categorytree.Upsert(list, *stored))
	s.flushCache(ctx, "update", "local", id)
	s.publishChange(ctx, events.TypeCategoryUpdated, *stored)

	s.log.Info("category updated", logger.String("id", id.String()))
	return *stored, nil
}

// DeleteResult describes a completed deletion.
type DeleteResult struct {
	Category models.Category `json:"category"`
	Deleted  []uuid.UUID     `json:"deleted"`
}

// Delete removes a category and its whole subtree after confirm approves.
// A nil confirm never approves.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, confirm ConfirmFunc) (*DeleteResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	forest, err := categorytree.Build(list)
	if err != nil {
		return nil, err
	}
	node := categorytree.Find(forest.All(), id)
	if node == nil {
		return nil, errors.Wrap(ErrNotFound, id.String())
	}
	ids := categorytree.Descendants([]*categorytree.Node{node}, id)

	if confirm == nil {
		return nil, errors.Wrapf(ErrNotConfirmed, "%d categories", len(ids))
	}
	ok, err := confirm(ctx, node.Category, len(ids))
	if err != nil {
		return nil, errors.Wrap(err, "confirm deletion")
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotConfirmed, "%d categories", len(ids))
	}

	if _, err := s.store.DeleteMany(ctx, ids); err != nil {
		return nil, err
	}

	for _, removed := range ids {
		list = categorytree.Remove(list, removed)
	}
	s.replace(list)
	s.flushCache(ctx, "delete", "local", ids...)

	if e, err := events.NewDeletedEvent(s.source, ids); err != nil {
		s.log.Error("build delete event", logger.Error(err))
	} else {
		s.publish(ctx, e)
	}

	s.log.Info("category deleted",
		logger.String("id", id.String()),
		logger.Int("removed", len(ids)),
	)
	return &DeleteResult{Category: node.Category, Deleted: ids}, nil
}

// Reorder moves categories to new parents and positions in one transaction.
func (s *Service) Reorder(ctx context.Context, items []models.ReorderItem) error {
	if len(items) == 0 {
		return errors.Wrap(ErrValidation, "no items to reorder")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list, err := s.current(ctx)
	if err != nil {
		return err
	}

	candidate := slices.Clone(list)
	moved := make([]models.Category, 0, len(items))
	for _, item := range items {
		idx := slices.IndexFunc(candidate, func(c models.Category) bool { return c.ID == item.ID })
		if idx < 0 {
			return errors.Wrap(ErrNotFound, item.ID.String())
		}
		candidate[idx].ParentID = item.ParentID
		candidate[idx].SortOrder = item.Order
		moved = append(moved, candidate[idx])
	}
	for _, c := range moved {
		if err := s.checkPlacement(candidate, c); err != nil {
			return err
		}
	}

	if err := s.store.Reorder(ctx, items); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(moved))
	for i, c := range moved {
		ids[i] = c.ID
	}
	s.replace(candidate)
	s.flushCache(ctx, "reorder", "local", ids...)
	for _, c := range moved {
		s.publishChange(ctx, events.TypeCategoryUpdated, c)
	}

	s.log.Info("categories reordered", logger.Int("count", len(items)))
	return nil
}

// Apply folds a change event from another instance into the snapshot.
// Events published by this instance are ignored.
func (s *Service) Apply(ctx context.Context, e cloudevents.Event) error {
	change, err := events.Decode(e)
	if err != nil {
		return err
	}
	if change.Source == s.source {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	list, err := s.current(ctx)
	if err != nil {
		return err
	}

	var ids []uuid.UUID
	switch change.Type {
	case events.TypeCategoryCreated, events.TypeCategoryUpdated:
		list = categorytree.Upsert(list, *change.Category)
		ids = []uuid.UUID{change.Category.ID}
	case events.TypeCategoryDeleted:
		for _, id := range change.Deleted {
			list = categorytree.Remove(list, id)
		}
		ids = change.Deleted
	}
	s.replace(list)
	s.flushCache(ctx, actionOf(change.Type), "event", ids...)

	s.log.Debug("change event applied",
		logger.String("type", change.Type),
		logger.String("source", change.Source),
	)
	return nil
}

// checkPlacement builds the candidate collection and verifies that c sits
// in it without a cycle and within the depth limit.
func (s *Service) checkPlacement(candidate []models.Category, c models.Category) error {
	if c.ParentID != nil {
		if *c.ParentID == c.ID {
			return errors.Wrap(ErrInvalidParent, "a category cannot be its own parent")
		}
		if !slices.ContainsFunc(candidate, func(p models.Category) bool { return p.ID == *c.ParentID }) {
			return errors.Wrapf(ErrInvalidParent, "parent %s does not exist", *c.ParentID)
		}
	}

	forest, err := categorytree.Build(candidate)
	if errors.Is(err, categorytree.ErrCyclicGraph) {
		return errors.Wrap(ErrInvalidParent, err.Error())
	}
	if err != nil {
		return err
	}

	if s.maxDepth <= 0 {
		return nil
	}
	var depth int
	for _, e := range categorytree.Flatten(forest.All()) {
		if e.Category.ID == c.ID {
			depth = e.Depth
			break
		}
	}
	height := 0
	if node := categorytree.Find(forest.All(), c.ID); node != nil {
		for _, e := range categorytree.Flatten([]*categorytree.Node{node}) {
			height = max(height, e.Depth)
		}
	}
	if depth+height >= s.maxDepth {
		return errors.Wrapf(categorytree.ErrMaxDepthExceeded,
			"category %q would reach level %d, limit %d", c.Name, depth+height+1, s.maxDepth)
	}
	return nil
}

func (s *Service) uniqueSlug(ctx context.Context, requested, name string, self uuid.UUID) (string, error) {
	base := slug.Generate(requested)
	if base == "" {
		base = slug.Generate(name)
	}
	return slug.Unique(base, func(candidate string) (bool, error) {
		return s.store.SlugExists(ctx, candidate, self)
	})
}

func (s *Service) flushCache(ctx context.Context, action, origin string, ids ...uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
	if s.invalidations != nil && len(ids) > 0 {
		s.invalidations.Log(ctx, action, origin, ids...)
	}
}

func (s *Service) publishChange(ctx context.Context, eventType string, c models.Category) {
	e, err := events.NewCategoryEvent(eventType, s.source, c)
	if err != nil {
		s.log.Error("build category event", logger.String("type", eventType), logger.Error(err))
		return
	}
	s.publish(ctx, e)
}

// publish reports failures without failing the request: the database is
// the source of truth and other instances catch up on their next reload.
func (s *Service) publish(ctx context.Context, e cloudevents.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Error("publish category event",
			logger.String("type", e.Type()),
			logger.String("subject", e.Subject()),
			logger.Error(err),
		)
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.Wrap(ErrValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", errors.Wrapf(ErrValidation, "name must be at most %d characters", MaxNameLength)
	}
	return name, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func actionOf(eventType string) string {
	switch eventType {
	case events.TypeCategoryCreated:
		return "create"
	case events.TypeCategoryDeleted:
		return "delete"
	default:
		return "update"
	}
}
