package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/xltable/internal/audit"
	"github.com/JonMunkholm/xltable/internal/core"
)

const auditPageSize = 50

// auditResponse is one page of the mutation journal.
type auditResponse struct {
	Page    int           `json:"page"`
	Entries []audit.Entry `json:"entries"`
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// handleAuditLog lists journal entries with filtering and pagination.
// The table filter accepts either a registry key or a workbook table name.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	if s.opts.Journal == nil {
		writeJSON(w, http.StatusOK, auditResponse{Page: page, Entries: []audit.Entry{}})
		return
	}

	q := r.URL.Query()
	filter := audit.ListFilter{
		Table:  q.Get("table"),
		Action: core.JournalAction(q.Get("action")),
		Limit:  auditPageSize,
		Offset: (page - 1) * auditPageSize,
	}
	if t, ok := s.tables[filter.Table]; ok {
		filter.Table = t.Store.Metadata().TableName
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.Since = t
		}
	}

	entries, err := s.opts.Journal.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, auditResponse{Page: page, Entries: entries})
}
