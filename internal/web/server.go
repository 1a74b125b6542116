// Package web provides the JSON HTTP API over the workbook tables.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/xltable/internal/audit"
	"github.com/JonMunkholm/xltable/internal/config"
	"github.com/JonMunkholm/xltable/internal/core"
	webmw "github.com/JonMunkholm/xltable/internal/web/middleware"
)

// DefaultRequestTimeout applies when Options.RequestTimeout is zero.
const DefaultRequestTimeout = 60 * time.Second

// Flusher persists workbook changes.
type Flusher interface {
	Flush() error
}

// JournalReader lists recorded mutations.
type JournalReader interface {
	List(ctx context.Context, f audit.ListFilter) ([]audit.Entry, error)
}

// Table is one served table.
type Table struct {
	Info  core.TableInfo
	Store core.Store
}

// Options configures a Server.
type Options struct {
	Tables  []Table
	Limiter *core.OperationLimiter
	// Workbook is flushed after each successful mutation when AutoSave is set.
	Workbook       Flusher
	AutoSave       bool
	Journal        JournalReader
	Security       config.SecurityConfig
	RequestTimeout time.Duration
}

// Server is the HTTP server for the table API.
type Server struct {
	opts   Options
	tables map[string]Table
	keys   []string
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new Server instance.
func NewServer(opts Options) *Server {
	if opts.Limiter == nil {
		opts.Limiter = core.NewOperationLimiter(core.DefaultMaxConcurrentOps, core.DefaultMaxWaitTime)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	s := &Server{
		opts:   opts,
		tables: make(map[string]Table, len(opts.Tables)),
		router: chi.NewRouter(),
	}
	for _, t := range opts.Tables {
		s.tables[t.Info.Key] = t
		s.keys = append(s.keys, t.Info.Key)
	}
	sort.Strings(s.keys)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.opts.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	s.router.Use(securityHeaders(s.opts.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(webmw.APIKeyAuth(&s.opts.Security))

		r.Get("/tables", s.handleListTables)

		r.Route("/tables/{tableKey}", func(r chi.Router) {
			r.Get("/rows", s.handleListRows)
			r.Put("/rows", s.handleSaveRow)
			r.Get("/rows/{id}", s.handleGetRow)
			r.Delete("/rows/{id}", s.handleDeleteRow)
			r.Get("/positions/{position}", s.handleRowAt)
			r.Get("/lookup", s.handleLookup)
		})

		r.Get("/audit-log", s.handleAuditLog)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", cfg.Addr(), "tables", len(s.tables))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// JSON only: nothing may be loaded.
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
