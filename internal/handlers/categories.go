// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the category API.
// Handlers receive their dependencies through the handler struct.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"marketplace/internal/cache"
	"marketplace/internal/catalog"
	"marketplace/internal/categorytree"
	"marketplace/internal/export"
	"marketplace/internal/logger"
	"marketplace/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// actorHeader optionally names the user performing a mutation.
const actorHeader = "X-Actor-ID"

// Catalog is the category service the handlers drive.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (models.Category, error)
	Tree(ctx context.Context) (*categorytree.Forest, error)
	Rendered(ctx context.Context, variant string) ([]byte, error)
	Create(ctx context.Context, in models.CategoryInput) (models.Category, error)
	Update(ctx context.Context, id uuid.UUID, in models.CategoryInput) (models.Category, error)
	Delete(ctx context.Context, id uuid.UUID, confirm catalog.ConfirmFunc) (*catalog.DeleteResult, error)
	Reorder(ctx context.Context, items []models.ReorderItem) error
}

// Uploader stores an exported workbook and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, forest *categorytree.Forest) (*export.Object, error)
}

// Categories groups the category API handlers.
type Categories struct {
	catalog  Catalog
	uploader Uploader
	log      logger.Logger
}

// NewCategories creates the handler group. uploader may be nil when object
// storage is not configured.
func NewCategories(c Catalog, uploader Uploader, log logger.Logger) *Categories {
	return &Categories{catalog: c, uploader: uploader, log: log}
}

// treeResponse pairs the forest with the expansion state of the tree view.
type treeResponse struct {
	Forest json.RawMessage `json:"forest"`
	Open   []uuid.UUID     `json:"open"`
}

// conflictResponse is returned when a deletion needs confirmation.
type conflictResponse struct {
	Error    string          `json:"error"`
	Category models.Category `json:"category"`
	Affected int             `json:"affected"`
}

// List returns the flat collection.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	h.rendered(w, r, cache.VariantList)
}

// Flat returns the forest in pre-order with depths.
func (h *Categories) Flat(w http.ResponseWriter, r *http.Request) {
	h.rendered(w, r, cache.VariantFlat)
}

// Tree returns the forest and the set of expanded nodes. The open query
// parameter lists expanded IDs separated by commas; toggle flips one of them.
func (h *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	open, err := parseOpen(r.URL.Query().Get("open"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid open list.")
		return
	}
	if t := r.URL.Query().Get("toggle"); t != "" {
		id, err := uuid.Parse(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid toggle ID.")
			return
		}
		open = categorytree.ToggleOpen(open, id)
	}

	body, err := h.catalog.Rendered(r.Context(), cache.VariantForest)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(open))
	for id := range open {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	writeJSON(w, http.StatusOK, treeResponse{Forest: body, Open: ids})
}

// Get returns one category.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create adds a category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/categories/"+c.ID.String())
	writeJSON(w, http.StatusCreated, c)
}

// Update renames or moves a category.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}
	c, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a category and its subtree. Without confirm=true the
// request is refused with 409 and the number of categories that would go.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	var target models.Category
	var affected int
	confirm := func(_ context.Context, c models.Category, n int) (bool, error) {
		target, affected = c, n
		return confirmed, nil
	}

	res, err := h.catalog.Delete(r.Context(), id, confirm)
	if isNotConfirmed(err) {
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:    "Deleting this category also deletes its subcategories. Repeat with confirm=true.",
			Category: target,
			Affected: affected,
		})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reorder moves categories to new parents and positions.
func (h *Categories) Reorder(w http.ResponseWriter, r *http.Request) {
	var items []models.ReorderItem
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	if msg := validateReorder(items); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.catalog.Reorder(r.Context(), items); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Export streams the tree as an .xlsx workbook.
func (h *Categories) Export(w http.ResponseWriter, r *http.Request) {
	forest, err := h.catalog.Tree(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	buf, err := export.Bytes(forest)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name := "categories-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Upload stores the workbook in object storage and returns a download link.
func (h *Categories) Upload(w http.ResponseWriter, r *http.Request) {
	if h.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Object storage is not configured.")
		return
	}
	forest, err := h.catalog.Tree(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.uploader.Upload(r.Context(), forest)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}

func (h *Categories) rendered(w http.ResponseWriter, r *http.Request, variant string) {
	body, err := h.catalog.Rendered(r.Context(), variant)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// decodeInput reads and validates a category payload, writing the error
// response itself when it fails.
func decodeInput(w http.ResponseWriter, r *http.Request) (models.CategoryInput, bool) {
	var in models.CategoryInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return in, false
	}
	if msg := validateCategory(in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return in, false
	}
	if v := r.Header.Get(actorHeader); v != "" {
		actor, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+actorHeader+" header.")
			return in, false
		}
		in.ActorID = &actor
	}
	return in, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category ID.")
		return uuid.Nil, false
	}
	return id, true
}

func parseOpen(raw string) (map[uuid.UUID]struct{}, error) {
	open := make(map[uuid.UUID]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		open[id] = struct{}{}
	}
	return open, nil
}
