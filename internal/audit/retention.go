package audit

// retention.go runs the journal purge job. Each run deletes entries older
// than the retention window; failures are logged and the next tick retries.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetentionConfig controls the purge job. A zero RetentionDays disables it.
type RetentionConfig struct {
	RetentionDays int
	CheckInterval time.Duration
}

// Purge deletes entries recorded before cutoff and returns how many went.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, errNotOpened
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to purge journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged entries: %w", err)
	}
	return n, nil
}

// StartRetention purges once immediately, then every CheckInterval until ctx
// is cancelled. It blocks; run it in its own goroutine.
func (s *Store) StartRetention(ctx context.Context, cfg RetentionConfig) {
	if cfg.RetentionDays <= 0 || cfg.CheckInterval <= 0 {
		return
	}
	slog.Info("journal retention started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	s.runPurge(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("journal retention stopped")
			return
		case now := <-ticker.C:
			s.runPurge(ctx, cfg, now)
		}
	}
}

func (s *Store) runPurge(ctx context.Context, cfg RetentionConfig, now time.Time) {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)
	purged, err := s.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("journal purge failed", "error", err)
		return
	}
	slog.Info("purged journal entries",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.DateOnly),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
