package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlipRejectedWhileResolving(t *testing.T) {
	s := newTestSession(t)

	s.mu.Lock()
	_, ok := s.beginFlipLocked(false, nil)
	s.mu.Unlock()
	require.True(t, ok)

	assert.False(t, s.RequestFlip(false, nil), "second flip must be rejected mid-resolve")
}

func TestHeadsExtendsStreakAndPays(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.state.Upgrades[UpgradeValue] = 1 // $5
	s.mu.Unlock()

	resolveFlip(t, s, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 1, s.state.Streak)
	assert.Equal(t, int64(5), s.state.Money)
	assert.Equal(t, int64(1), s.state.TotalFlips)
	assert.Equal(t, []string{"H"}, s.state.History)
	assert.False(t, s.state.HasCheated)
}

func TestTailsResetsStreak(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.state.Streak = 6
	s.state.MaxStreak = 6
	s.mu.Unlock()

	resolveFlip(t, s, false)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 0, s.state.Streak)
	assert.Equal(t, 6, s.state.MaxStreak, "max streak survives a tails")
}

func TestHistoryBounded(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < historyLimit+5; i++ {
		resolveFlip(t, s, false)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.state.History, historyLimit)
}

func TestWinFiresExactlyOnce(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.state.Streak = winningStreak - 1
	s.state.MaxStreak = winningStreak - 1
	s.mu.Unlock()

	resolveFlip(t, s, true)

	s.mu.Lock()
	assert.True(t, s.state.HasWon)
	assert.Equal(t, int64(1), s.stats.PuristWins)
	assert.Equal(t, 1, s.state.UnlockedTitles[titleDefier])
	assert.Equal(t, 1, s.state.UnlockedTitles[titlePurist])
	s.mu.Unlock()

	// A won run accepts no further flips.
	assert.False(t, s.RequestFlip(false, nil))
}

func TestAutomatedFlipEndsPuristRun(t *testing.T) {
	s := newTestSession(t)

	s.mu.Lock()
	snap, ok := s.beginFlipLocked(true, nil)
	s.mu.Unlock()
	require.True(t, ok)
	s.finishFlip(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, s.state.IsPuristRun)
}

func TestForcedFlipSetsCheatFlag(t *testing.T) {
	s := newTestSession(t)
	forced := true

	s.mu.Lock()
	snap, ok := s.beginFlipLocked(false, &forced)
	s.mu.Unlock()
	require.True(t, ok)
	s.finishFlip(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, s.state.HasCheated)
	assert.Equal(t, 1, s.state.Streak)
}

func TestHardBuffConsumedByOneFlip(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.state.PrestigeLevel = 1
	s.state.HardMode = true
	s.state.HardBuffPending = true
	snap, ok := s.beginFlipLocked(false, nil)
	buffStillSet := s.state.HardBuffPending
	s.mu.Unlock()
	require.True(t, ok)

	assert.InDelta(t, 0.40, snap.chance, 1e-9, "snapshot carries the buff")
	assert.False(t, buffStillSet, "buff is spent at request time")

	s.finishFlip(snap)

	s.mu.Lock()
	next, ok := s.beginFlipLocked(false, nil)
	s.mu.Unlock()
	require.True(t, ok)
	assert.InDelta(t, 0.20, next.chance, 1e-9, "next flip is back to base odds")
	s.finishFlip(next)
}

func TestHardModeWinThreshold(t *testing.T) {
	s := newTestSession(t)
	s.mu.Lock()
	s.state.PrestigeLevel = 1
	s.state.HardMode = true
	s.state.Streak = winningStreak - 1
	s.mu.Unlock()

	resolveFlip(t, s, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, s.state.HasWon, "a 10 streak does not win hard mode")
	assert.Equal(t, winningStreak, s.state.Streak)
}

func TestMidairPurchaseDoesNotChangeOdds(t *testing.T) {
	s := newTestSession(t)

	s.mu.Lock()
	snap, ok := s.beginFlipLocked(false, nil)
	require.True(t, ok)
	// Buy chance levels while the coin is in the air.
	s.state.Money = 1000
	s.state.Upgrades[UpgradeChance] = 10
	s.mu.Unlock()

	assert.InDelta(t, 0.20, snap.chance, 1e-9, "odds were frozen at request time")
	s.finishFlip(snap)
}
