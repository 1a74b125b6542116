package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHost_InteractiveFlag(t *testing.T) {
	h := NewHost()

	on, err := h.Interactive()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, h.SetInteractive(false))
	require.NoError(t, h.SetInteractive(true))
	assert.Equal(t, []bool{false, true}, h.History())
}

func TestHost_Rejections(t *testing.T) {
	h := NewHost()

	h.RejectNext(2)
	assert.ErrorIs(t, h.SetInteractive(false), ErrRejected)
	assert.ErrorIs(t, h.SetInteractive(false), ErrRejected)
	assert.NoError(t, h.SetInteractive(false))

	h.Block(true)
	assert.NoError(t, h.SetInteractive(true), "restoring interactive mode is never refused")
	assert.ErrorIs(t, h.SetInteractive(false), ErrRejected)
	h.Block(false)
	assert.NoError(t, h.SetInteractive(false))
}

func TestHost_Max(t *testing.T) {
	h := NewHost()

	tests := []struct {
		name   string
		values []any
		want   float64
	}{
		{"empty", nil, 0},
		{"floats", []any{1.0, 7.5, 3.0}, 7.5},
		{"mixed kinds", []any{int64(4), uint8(9), float32(2)}, 9},
		{"ignores text and blanks", []any{"99", nil, true, 2.0, time.Time{}}, 2},
		{"negatives only", []any{-3.0, -1.0}, -1},
		{"no numbers", []any{"a", nil}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Max(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
