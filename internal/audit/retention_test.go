package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/xltable/internal/core"
)

func TestStore_Purge(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, age := range []time.Duration{0, 24 * time.Hour, 40 * 24 * time.Hour, 400 * 24 * time.Hour} {
		require.NoError(t, s.Record(ctx, core.JournalEntry{
			OpID:   string(rune('a' + i)),
			Action: core.ActionRowUpdate,
			Table:  "Contacts",
			At:     now.Add(-age),
		}))
	}

	n, err := s.Purge(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := s.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].OpID)
	assert.Equal(t, "a", entries[1].OpID)
}

func TestStore_StartRetention(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Record(ctx, core.JournalEntry{
		OpID:   "old",
		Action: core.ActionRowDelete,
		Table:  "Contacts",
		At:     time.Now().AddDate(0, 0, -10),
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.StartRetention(ctx, RetentionConfig{RetentionDays: 7, CheckInterval: time.Hour})
	}()

	assert.Eventually(t, func() bool {
		entries, err := s.List(context.Background(), ListFilter{})
		return err == nil && len(entries) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartRetention did not stop after cancel")
	}
}

func TestStore_StartRetentionDisabled(t *testing.T) {
	s := openMemory(t)
	// Returns at once when retention is off.
	s.StartRetention(context.Background(), RetentionConfig{})
}
