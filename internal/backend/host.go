// Package backend holds pieces shared by the workbook backends.
package backend

import (
	"errors"
	"reflect"
	"sync"
)

// ErrRejected is returned by SetInteractive while the host refuses changes.
var ErrRejected = errors.New("host rejected interaction change")

// Host is an in-process workbook host. It tracks the interactive flag and
// can be told to refuse changes to it.
type Host struct {
	mu          sync.Mutex
	interactive bool
	rejectNext  int
	blocked     bool
	history     []bool
}

// NewHost returns an interactive host.
func NewHost() *Host {
	return &Host{interactive: true}
}

func (h *Host) Interactive() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interactive, nil
}

func (h *Host) SetInteractive(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !on && h.blocked {
		return ErrRejected
	}
	if !on && h.rejectNext > 0 {
		h.rejectNext--
		return ErrRejected
	}
	h.interactive = on
	h.history = append(h.history, on)
	return nil
}

// RejectNext makes the next n attempts to leave interactive mode fail.
func (h *Host) RejectNext(n int) {
	h.mu.Lock()
	h.rejectNext = n
	h.mu.Unlock()
}

// Block makes every attempt to leave interactive mode fail until unblocked.
func (h *Host) Block(blocked bool) {
	h.mu.Lock()
	h.blocked = blocked
	h.mu.Unlock()
}

// History returns every accepted interactive flag change in order.
func (h *Host) History() []bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bool(nil), h.history...)
}

// Max returns the largest numeric value. Text, booleans and empty cells are
// ignored; zero when no value is numeric.
func (h *Host) Max(values []any) (float64, error) {
	var (
		best  float64
		found bool
	)
	for _, v := range values {
		f, ok := numeric(v)
		if !ok {
			continue
		}
		if !found || f > best {
			best, found = f, true
		}
	}
	return best, nil
}

func numeric(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
