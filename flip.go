package main

import (
	"time"
)

const (
	headsResult = "H"
	tailsResult = "T"
)

var celebrationMessages = []string{
	"",
	"",
	"LUCKY",
	"HEATING UP",
	"UNREAL",
	"DEFYING ODDS",
	"SYSTEM ERROR",
	"IMPOSSIBLE",
	"DESTINY",
	"ONE MORE",
}

// flipSnapshot freezes the odds at request time so purchases made while a
// flip is in the air cannot retroactively change it.
type flipSnapshot struct {
	chance     float64
	durationMs int
	automated  bool
	forced     *bool
}

// RequestFlip starts one flip. Returns false when the machine is busy, the
// run is already won, or a pending compliment blocks input.
func (s *Session) RequestFlip(automated bool, forced *bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.beginFlipLocked(automated, forced)
	if !ok {
		return false
	}
	s.sched.After(time.Duration(snap.durationMs)*time.Millisecond, func() {
		s.finishFlip(snap)
	})
	return true
}

func (s *Session) beginFlipLocked(automated bool, forced *bool) (flipSnapshot, bool) {
	if s.closed || s.phase != PhaseIdle || s.state.HasWon || s.pendingCompliment != "" {
		return flipSnapshot{}, false
	}

	snap := flipSnapshot{
		chance:     FlipChance(s.state),
		durationMs: FlipDurationMs(s.state),
		automated:  automated,
		forced:     forced,
	}

	// The one-shot buff belongs to this flip and no other.
	s.state.HardBuffPending = false

	if automated {
		s.state.IsPuristRun = false
	}

	s.phase = PhaseResolving
	s.flipSince = time.Now().UTC()
	s.touchFirstPlayed()
	s.markDirty()
	return snap, true
}

// finishFlip resolves a snapshot. Split from RequestFlip so the resolution
// path is callable without real timers.
func (s *Session) finishFlip(snap flipSnapshot) {
	s.mu.Lock()

	if s.closed || s.phase != PhaseResolving {
		s.mu.Unlock()
		return
	}

	heads := s.rng.Float64() < snap.chance
	if snap.forced != nil {
		heads = *snap.forced
		s.state.HasCheated = true
	}

	gs := s.state
	var earned int64
	if heads {
		gs.Streak++
		earned = HeadsPayout(gs, gs.Streak)
	} else {
		gs.Streak = 0
		earned = TailsPayout(gs)
	}
	gs.Money += earned
	gs.TotalFlips++

	result := tailsResult
	if heads {
		result = headsResult
	}
	gs.History = append([]string{result}, gs.History...)
	if len(gs.History) > historyLimit {
		gs.History = gs.History[:historyLimit]
	}

	prevMax := gs.MaxStreak
	if gs.Streak > gs.MaxStreak {
		gs.MaxStreak = gs.Streak
	}

	if heads && gs.Streak >= 2 {
		s.pushEvent(s.streakMessage(gs.Streak, prevMax))
	}

	won := false
	if gs.Streak >= gs.winThreshold() && !gs.HasWon {
		gs.HasWon = true
		won = true
	}

	s.phase = PhaseIdle
	s.markDirty()

	if won {
		s.handleWinLocked()
	}

	s.armAutoFlip()
	s.mu.Unlock()
}

// streakMessage picks the celebration text, preferring one-time unlock
// hints the first time a gate streak is reached.
func (s *Session) streakMessage(streak, prevMax int) string {
	gs := s.state
	passiveOwned := gs.level(UpgradePassiveIncome) > 0 || gs.level(UpgradePrestigePassive) > 0
	autoOwned := gs.hasAutoFlip()
	edgingOwned := gs.level(UpgradeEdging) > 0 || gs.level(UpgradePrestigeEdging) > 0

	switch {
	case streak == 3 && prevMax < 3 && !passiveOwned:
		return "PITY MONEY UNLOCKED"
	case streak == 5 && prevMax < 5 && !autoOwned:
		return "AUTO FLIP UNLOCKED"
	case streak == 9 && prevMax < 9 && !edgingOwned:
		return "EDGING UNLOCKED"
	}
	if streak < len(celebrationMessages) {
		return celebrationMessages[streak]
	}
	return "GODLIKE"
}

// handleWinLocked runs exactly once per run, guarded by HasWon.
func (s *Session) handleWinLocked() {
	gs := s.state
	stats := s.stats

	if gs.IsPuristRun {
		stats.PuristWins++
	}
	if gs.Money > stats.HighestCash {
		stats.HighestCash = gs.Money
	}
	if gs.HardMode {
		stats.HardModeWins++
	}

	s.unlockTitlesOnWinLocked()
	s.pushEvent("IMPOSSIBLE.")

	if s.mgr != nil && s.mgr.deps != nil {
		s.mgr.deps.recordWin(s.id, gs.Streak, gs.Money, gs.HardMode, gs.IsPuristRun)
	}
	s.submitWinScoresLocked()
}

// submitWinScoresLocked queues leaderboard updates for a win. Cheated runs
// go up under the flagged name so maintenance can sweep them.
func (s *Session) submitWinScoresLocked() {
	if s.mgr == nil || s.mgr.board == nil {
		return
	}
	gs := s.state
	name := gs.PlayerName
	if name == "" {
		return
	}
	if gs.HasCheated {
		name = flaggedCheaterName
	}

	now := time.Now().UTC().UnixMilli()
	updates := []ScoreUpdate{
		{Category: categoryRich, Entry: LeaderboardEntry{Name: name, Score: gs.Money, Date: now, Title: gs.ActiveTitle}},
	}
	if gs.IsPuristRun {
		updates = append(updates, ScoreUpdate{
			Category: categoryPurist,
			Entry:    LeaderboardEntry{Name: name, Score: s.stats.PuristWins, Date: now, Title: gs.ActiveTitle},
		})
	}
	s.mgr.board.SubmitScores(updates)
}
