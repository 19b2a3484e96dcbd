// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"marketplace/internal/catalog"
	"marketplace/internal/categorytree"
	"marketplace/internal/logger"
	"marketplace/internal/slug"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON is a helper to write a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusOf maps service errors to HTTP status codes. Unknown errors are 500.
func statusOf(err error) int {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNotConfirmed), errors.Is(err, slug.ErrExhausted):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidParent),
		errors.Is(err, categorytree.ErrCyclicGraph),
		errors.Is(err, categorytree.ErrMaxDepthExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the response for err. Server errors are logged and their
// details withheld from the client.
func (h *Categories) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error("category request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, "Internal server error.")
		return
	}
	writeError(w, status, err.Error())
}

func isNotConfirmed(err error) bool {
	return errors.Is(err, catalog.ErrNotConfirmed)
}
