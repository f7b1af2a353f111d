package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterFires(t *testing.T) {
	sc := NewScheduler()
	defer sc.Close()

	done := make(chan struct{})
	sc.After(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestAfterCancelPreventsFire(t *testing.T) {
	sc := NewScheduler()
	defer sc.Close()

	var mu sync.Mutex
	fired := false
	cancel := sc.After(20*time.Millisecond, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	cancel()
	cancel() // idempotent

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired)
}

func TestEveryTicksUntilCancelled(t *testing.T) {
	sc := NewScheduler()
	defer sc.Close()

	ticks := make(chan struct{}, 16)
	cancel := sc.Every(5*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	// Wait for at least two ticks.
	for i := 0; i < 2; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatal("interval never ticked")
		}
	}
	cancel()
}

func TestCloseStopsEverything(t *testing.T) {
	sc := NewScheduler()

	var mu sync.Mutex
	count := 0
	sc.After(10*time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	sc.Every(10*time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	sc.Close()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	final := count
	mu.Unlock()
	assert.Zero(t, final)

	// Scheduling after close is a no-op.
	sc.After(time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count)
}
