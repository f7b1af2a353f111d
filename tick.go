package main

import (
	"log"
	"time"
)

// startFlushLoop periodically writes dirty sessions through to the save
// store and evicts sessions nobody has touched in a while. Evicted
// sessions are flushed by Close, so no progress is lost.
func startFlushLoop(mgr *SessionManager) {
	interval := time.Duration(GetGameSettings().FlushIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)

	go func() {
		for range ticker.C {
			idleCutoff := time.Now().UTC().Add(-SessionIdleTimeout())

			mgr.mu.Lock()
			var flush []*Session
			var evict []string
			for id, s := range mgr.sessions {
				s.mu.Lock()
				if s.dirty {
					flush = append(flush, s)
				}
				if s.lastTouched.Before(idleCutoff) && s.phase == PhaseIdle {
					evict = append(evict, id)
				}
				s.mu.Unlock()
			}
			mgr.mu.Unlock()

			for _, s := range flush {
				s.persist()
			}
			for _, id := range evict {
				log.Println("Session: evicting idle session", id)
				mgr.Close(id)
			}
		}
	}()
}
