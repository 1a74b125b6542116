package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/xltable/internal/audit"
	"github.com/JonMunkholm/xltable/internal/backend"
	"github.com/JonMunkholm/xltable/internal/backend/xlsx"
	"github.com/JonMunkholm/xltable/internal/config"
	"github.com/JonMunkholm/xltable/internal/core"
	_ "github.com/JonMunkholm/xltable/internal/core/tables" // Register all tables
	"github.com/JonMunkholm/xltable/internal/logging"
	"github.com/JonMunkholm/xltable/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	wb, err := xlsx.Open(cfg.Workbook.Path)
	if err != nil {
		return err
	}
	defer wb.Close()
	slog.Info("workbook opened", "path", cfg.Workbook.Path, "autosave", cfg.Workbook.AutoSave)

	opts := []core.Option{
		core.WithLogger(slog.Default()),
		core.WithInteractionPolicy(core.InteractionPolicy{
			InitialBackoff: cfg.Interaction.InitialBackoff,
			MaxBackoff:     cfg.Interaction.MaxBackoff,
			Timeout:        cfg.Interaction.Timeout,
		}),
	}

	var journal web.JournalReader
	if cfg.Audit.Enabled {
		store, err := audit.Open(ctx, cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, core.WithJournal(store))
		journal = store
		slog.Info("journal opened", "path", cfg.Audit.Path)

		retentionCtx, stopRetention := context.WithCancel(ctx)
		defer stopRetention()
		go store.StartRetention(retentionCtx, audit.RetentionConfig{
			RetentionDays: cfg.Audit.RetentionDays,
			CheckInterval: cfg.Audit.PurgeInterval,
		})
	}

	stores, missing, err := core.OpenAll(wb, backend.NewHost(), opts...)
	if err != nil {
		return err
	}
	for _, key := range missing {
		slog.Warn("table not found in workbook", "table", key)
	}

	var tables []web.Table
	for _, def := range core.All() {
		if s, ok := stores[def.Info.Key]; ok {
			tables = append(tables, web.Table{Info: def.Info, Store: s})
		}
	}
	slog.Info("tables bound",
		"count", len(tables),
		"registered", core.TableCount(),
		"groups", len(core.Groups()),
	)

	limiter := core.NewOperationLimiter(cfg.Workbook.MaxConcurrent, cfg.Workbook.MaxWaitTime)
	server := web.NewServer(web.Options{
		Tables:         tables,
		Limiter:        limiter,
		Workbook:       wb,
		AutoSave:       cfg.Workbook.AutoSave,
		Journal:        journal,
		Security:       cfg.Security,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for in-flight workbook operations before the final save
		if st := limiter.Status(); st.Active > 0 {
			slog.Info("waiting for workbook operations", "active", st.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("workbook operations did not complete in time", "error", err)
			}
		}
		if err := wb.Flush(); err != nil {
			slog.Error("final workbook save failed", "error", err)
		}
	}()

	if err := server.Start(cfg.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	slog.Info("server stopped")
	return nil
}
