package main

import (
	"sync"
	"time"
)

// Scheduler owns every timer a session arms so teardown can cancel them
// all. Callbacks must re-check their guards on fire; a cancelled handle
// never fires, but a fired handle may observe state that changed after it
// was scheduled.
type Scheduler struct {
	mu     sync.Mutex
	closed bool
	nextID int
	timers map[int]*time.Timer
	stops  map[int]chan struct{}
}

// CancelFunc stops the timer or interval it was returned for. Idempotent.
type CancelFunc func()

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: map[int]*time.Timer{},
		stops:  map[int]chan struct{}{},
	}
}

// After runs fn once after d unless cancelled first.
func (sc *Scheduler) After(d time.Duration, fn func()) CancelFunc {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return func() {}
	}
	id := sc.nextID
	sc.nextID++

	t := time.AfterFunc(d, func() {
		sc.mu.Lock()
		_, live := sc.timers[id]
		delete(sc.timers, id)
		closed := sc.closed
		sc.mu.Unlock()
		if live && !closed {
			fn()
		}
	})
	sc.timers[id] = t

	return func() {
		sc.mu.Lock()
		if t, ok := sc.timers[id]; ok {
			t.Stop()
			delete(sc.timers, id)
		}
		sc.mu.Unlock()
	}
}

// Every runs fn on a fixed cadence until cancelled.
func (sc *Scheduler) Every(d time.Duration, fn func()) CancelFunc {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return func() {}
	}
	id := sc.nextID
	sc.nextID++

	stop := make(chan struct{})
	sc.stops[id] = stop

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sc.mu.Lock()
			delete(sc.stops, id)
			sc.mu.Unlock()
			close(stop)
		})
	}
}

// Close cancels everything. Further schedules become no-ops.
func (sc *Scheduler) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	for id, t := range sc.timers {
		t.Stop()
		delete(sc.timers, id)
	}
	stops := make([]chan struct{}, 0, len(sc.stops))
	for id, ch := range sc.stops {
		stops = append(stops, ch)
		delete(sc.stops, id)
	}
	sc.mu.Unlock()
	for _, ch := range stops {
		close(ch)
	}
}
