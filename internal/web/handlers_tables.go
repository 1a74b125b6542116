package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/xltable/internal/core"
)

// tableResponse describes one served table.
type tableResponse struct {
	Key       string           `json:"key"`
	Group     string           `json:"group"`
	Label     string           `json:"label"`
	Table     string           `json:"table"`
	KeyColumn string           `json:"keyColumn,omitempty"`
	Columns   []columnResponse `json:"columns"`
}

type columnResponse struct {
	Property string `json:"property"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Type     string `json:"type"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Key      bool   `json:"key,omitempty"`
}

func describe(t Table) tableResponse {
	meta := t.Store.Metadata()
	resp := tableResponse{
		Key:   t.Info.Key,
		Group: t.Info.Group,
		Label: t.Info.Label,
		Table: meta.TableName,
	}
	if key, err := meta.Key(); err == nil {
		resp.KeyColumn = key.Name
	}
	for _, c := range meta.Ordered() {
		resp.Columns = append(resp.Columns, columnResponse{
			Property: c.Property,
			Name:     c.Name,
			Position: c.Position,
			Type:     c.TypeName(),
			ReadOnly: c.ReadOnly,
			Key:      c.IsKey,
		})
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.opts.Limiter.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tables": len(s.tables),
		"active": st.Active,
	})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	out := make([]tableResponse, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, describe(s.tables[k]))
	}
	writeJSON(w, http.StatusOK, out)
}

// table resolves the {tableKey} URL parameter.
func (s *Server) table(r *http.Request) (Table, error) {
	key := chi.URLParam(r, "tableKey")
	t, ok := s.tables[key]
	if !ok {
		return Table{}, fmt.Errorf("%w: %s", core.ErrUnknownTable, key)
	}
	return t, nil
}

// withWorkbook runs fn holding an operation slot.
func (s *Server) withWorkbook(r *http.Request, fn func(ctx context.Context) error) error {
	return s.opts.Limiter.Do(withClient(r.Context(), r), fn)
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	t, err := s.table(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	var rows []any
	err = s.withWorkbook(r, func(ctx context.Context) error {
		rows, err = t.Store.GetAll(ctx)
		return err
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if rows == nil {
		rows = []any{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// parseKey converts the {id} URL parameter into the key column's raw form.
func parseKey(t Table, r *http.Request) (any, error) {
	key, err := t.Store.Metadata().Key()
	if err != nil {
		return nil, err
	}
	return t.Store.ParseValue(key, chi.URLParam(r, "id"))
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
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

	var row any
	err = s.withWorkbook(r, func(ctx context.Context) error {
		row, err = t.Store.GetByID(ctx, key)
		return err
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if row == nil {
		s.respondError(w, r, fmt.Errorf("%w: no row with key %v", core.ErrMissingRow, key), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleRowAt(w http.ResponseWriter, r *http.Request) {
	t, err := s.table(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || pos < 1 {
		s.respondError(w, r, fmt.Errorf("%w: invalid position %q", core.ErrMissingRow, chi.URLParam(r, "position")), http.StatusBadRequest)
		return
	}

	var row any
	err = s.withWorkbook(r, func(ctx context.Context) error {
		row, err = t.Store.GetByRowIndex(ctx, pos)
		return err
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	t, err := s.table(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	q := r.URL.Query()
	col, ok := t.Store.Metadata().ColumnByName(q.Get("column"))
	if !ok {
		err := &core.ColumnError{Table: t.Store.Metadata().TableName, Column: q.Get("column")}
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	value, err := t.Store.ParseValue(col, q.Get("value"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var row any
	err = s.withWorkbook(r, func(ctx context.Context) error {
		row, err = t.Store.GetByColumn(ctx, value, col)
		return err
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if row == nil {
		s.respondError(w, r, fmt.Errorf("%w: no row with %s = %v", core.ErrMissingRow, col.Name, value), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
