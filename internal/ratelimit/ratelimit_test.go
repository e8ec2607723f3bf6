package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewPerMinute(t *testing.T) {
	t.Parallel()
	l := NewPerMinute(60) // 60 per minute = 1 per second
	if l.refillRate != 1 {
		t.Errorf("refillRate = %v, want 1", l.refillRate)
	}
	if l.maxTokens != 2 { // 2 seconds burst
		t.Errorf("maxTokens = %v, want 2", l.maxTokens)
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()
	t.Run("allows up to burst", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)
		for i := 0; i < 5; i++ {
			if !l.Allow() {
				t.Errorf("Allow() = false on attempt %d, want true", i+1)
			}
		}
	})

	t.Run("denies when empty", func(t *testing.T) {
		t.Parallel()
		l := New(2, 0) // no refill
		l.Allow()
		l.Allow()
		if l.Allow() {
			t.Error("Allow() = true when no tokens, want false")
		}
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		l := New(1, 100)
		l.Allow()

		time.Sleep(20 * time.Millisecond)

		if !l.Allow() {
			t.Error("Allow() = false after refill time, want true")
		}
	})
}

func TestWait(t *testing.T) {
	t.Parallel()
	t.Run("returns immediately when tokens available", func(t *testing.T) {
		t.Parallel()
		l := New(5, 1)

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Errorf("Wait() error = %v, want nil", err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
			t.Errorf("Wait() took %v, expected immediate return", elapsed)
		}
	})

	t.Run("waits for the next token", func(t *testing.T) {
		t.Parallel()
		l := New(1, 50) // 50 tokens/sec = 20ms per token
		l.Allow()

		start := time.Now()
		if err := l.Wait(context.Background()); err != nil {
			t.Errorf("Wait() error = %v, want nil", err)
		}
		if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
			t.Errorf("Wait() took %v, expected ~20ms wait", elapsed)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(0, 0.1)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if err := l.Wait(ctx); err != context.DeadlineExceeded {
			t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestAvailable(t *testing.T) {
	t.Parallel()
	l := New(10, 1)
	l.Allow()
	l.Allow()

	available := l.Available()
	if available < 7.9 || available > 8.1 {
		t.Errorf("Available() = %v, want ~8", available)
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()
	l := New(100, 100)

	var wg sync.WaitGroup
	allowed := make(chan struct{}, 200)

	for range 50 {
		wg.Go(func() {
			if l.Allow() {
				allowed <- struct{}{}
			}
			if l.Allow() {
				allowed <- struct{}{}
			}
		})
	}

	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}

	if count != 100 {
		t.Errorf("concurrent Allow() allowed %d requests, want 100", count)
	}
}
