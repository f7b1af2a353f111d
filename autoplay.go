package main

import "time"

// Auto-play is edge-triggered: armAutoFlip is called after every state
// change that could make a flip possible, and the failsafe interval
// re-checks in case a scheduled timer was lost (backgrounded tab, missed
// edge). Guards are evaluated again when timers fire, never trusted from
// schedule time.

func (s *Session) autoFlipEligibleLocked() bool {
	gs := s.state
	return !s.closed &&
		gs.AutoFlipEnabled &&
		gs.hasAutoFlip() &&
		s.phase == PhaseIdle &&
		!gs.HasWon &&
		s.pendingCompliment == ""
}

// armAutoFlip schedules the next automated flip if one is due and none is
// pending. Caller holds s.mu.
func (s *Session) armAutoFlip() {
	if s.autoFlipArmed || !s.autoFlipEligibleLocked() {
		return
	}
	s.autoFlipArmed = true
	delay := time.Duration(GetGameSettings().AutoFlipDelayMs) * time.Millisecond
	s.sched.After(delay, func() {
		s.mu.Lock()
		s.autoFlipArmed = false
		s.mu.Unlock()
		// Automated flag set: this permanently ends a purist run.
		s.RequestFlip(true, nil)
	})
}

// startFailsafe recovers a stalled auto-flip loop. Caller holds s.mu.
func (s *Session) startFailsafe() {
	interval := time.Duration(GetGameSettings().FailsafeIntervalMs) * time.Millisecond
	s.sched.Every(interval, func() {
		s.mu.Lock()
		s.armAutoFlip()
		s.mu.Unlock()
	})
}

// startAutoBuy runs the shopping sweep on a fixed cadence. Caller holds
// s.mu.
func (s *Session) startAutoBuy() {
	interval := time.Duration(GetGameSettings().AutoBuyIntervalMs) * time.Millisecond
	s.sched.Every(interval, func() {
		s.autoBuyTick()
	})
}

// autoBuyTick walks the priority list once, buying every affordable
// candidate in the same pass. It only ever touches the ordinary-currency
// catalog and does not break a purist run.
func (s *Session) autoBuyTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	gs := s.state
	if s.closed || !gs.AutoBuyEnabled || !gs.hasAutoBuy() || gs.HasWon || s.pendingCompliment != "" {
		return
	}

	bought := false
	for _, id := range autoBuyOrder {
		cfg := upgradeCatalog[id]
		if !cfg.unlockedFor(gs.MaxStreak, s.stats) {
			continue
		}
		level := gs.Upgrades[id]
		if level >= cfg.EffectiveMaxLevel(gs.hasLimitless()) {
			continue
		}
		if gs.Money < cfg.CostAtLevel(level) {
			continue
		}
		if err := s.buyLocked(id); err == nil {
			bought = true
		}
	}
	if bought {
		s.armAutoFlip()
	}
}

// SetAutoFlip flips the preference toggle and re-arms the loop.
func (s *Session) SetAutoFlip(enabled bool) {
	s.mu.Lock()
	s.state.AutoFlipEnabled = enabled
	s.markDirty()
	s.armAutoFlip()
	s.mu.Unlock()
}

func (s *Session) SetAutoBuy(enabled bool) {
	s.mu.Lock()
	s.state.AutoBuyEnabled = enabled
	s.markDirty()
	s.mu.Unlock()
}
