package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/xltable/internal/core"
	"github.com/JonMunkholm/xltable/internal/logging"
)

// MaxBodySize caps PUT bodies (1MB).
const MaxBodySize = 1 << 20

// mutate runs fn in an operation slot and flushes the workbook afterwards
// when autosave is on. A failed flush is reported; the in-memory change stays.
func (s *Server) mutate(r *http.Request, fn func(ctx context.Context) error) error {
	return s.withWorkbook(r, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		if !s.opts.AutoSave || s.opts.Workbook == nil {
			return nil
		}
		if err := s.opts.Workbook.Flush(); err != nil {
			logging.FromContext(ctx).Error("workbook flush failed", "error", err)
			return fmt.Errorf("save workbook: %w", err)
		}
		return nil
	})
}

// handleSaveRow inserts or updates one row. The response carries the saved
// model, including a key assigned on insert.
func (s *Server) handleSaveRow(w http.ResponseWriter, r *http.Request) {
	t, err := s.table(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	model := t.Store.New()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(model); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid request body: %v", core.ErrConversion, err), http.StatusBadRequest)
		return
	}

	if err := s.mutate(r, func(ctx context.Context) error {
		return t.Store.Save(ctx, model)
	}); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// handleDeleteRow removes the row with the given key. Deleting an absent
// key succeeds.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	t, err := s.table(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	key, err := parseKey(t, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.mutate(r, func(ctx context.Context) error {
		return t.Store.DeleteByID(ctx, key)
	}); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
