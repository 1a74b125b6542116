package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestOperationLimiter_AcquireRelease(t *testing.T) {
	limiter := NewOperationLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestOperationLimiter_BusyWhenFull(t *testing.T) {
	limiter := NewOperationLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("timeout too fast: %v", elapsed)
	}
}

func TestOperationLimiter_Do(t *testing.T) {
	limiter := NewOperationLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	errWork := errors.New("work failed")
	err := limiter.Do(ctx, func(context.Context) error {
		if got := limiter.ActiveCount(); got != 1 {
			t.Errorf("ActiveCount inside Do = %d, want 1", got)
		}
		return errWork
	})
	if !errors.Is(err, errWork) {
		t.Errorf("Do() error = %v, want work failed", err)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after Do = %d, want 0", got)
	}

	limiter.Acquire(ctx)
	called := false
	err = limiter.Do(ctx, func(context.Context) error { called = true; return nil })
	limiter.Release()
	if !errors.Is(err, ErrBusy) || called {
		t.Errorf("Do() on a full limiter = %v (called %v), want ErrBusy", err, called)
	}
}

func TestOperationLimiter_Serializes(t *testing.T) {
	const total = 10
	limiter := NewOperationLimiter(1, time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := limiter.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				if n := limiter.ActiveCount(); n > maxObserved {
					maxObserved = n
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("Do() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if maxObserved > 1 {
		t.Errorf("observed %d concurrent operations, want 1", maxObserved)
	}
}

func TestOperationLimiter_TryAcquire(t *testing.T) {
	limiter := NewOperationLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}
	limiter.Release()
	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestOperationLimiter_ContextCancellation(t *testing.T) {
	limiter := NewOperationLimiter(1, 5*time.Second)
	limiter.Acquire(context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- limiter.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestOperationLimiter_WaitForDrain(t *testing.T) {
	limiter := NewOperationLimiter(2, time.Second)
	limiter.Acquire(context.Background())

	drainDone := make(chan error, 1)
	go func() { drainDone <- limiter.WaitForDrain(context.Background()) }()

	select {
	case <-drainDone:
		t.Fatal("WaitForDrain returned with an active operation")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-drainDone:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after release")
	}
}

func TestOperationLimiter_WaitForDrain_ContextCancelled(t *testing.T) {
	limiter := NewOperationLimiter(1, time.Second)
	limiter.Acquire(context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestOperationLimiter_StatusAndDefaults(t *testing.T) {
	limiter := NewOperationLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentOps {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentOps)
	}

	limiter = NewOperationLimiter(3, time.Second)
	limiter.Acquire(context.Background())
	defer limiter.Release()

	status := limiter.Status()
	if status.Active != 1 || status.Available != 2 || status.MaxConcurrent != 3 {
		t.Errorf("Status() = %+v, want 1 active, 2 available of 3", status)
	}
}
