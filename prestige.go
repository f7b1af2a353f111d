package main

import (
	"errors"
	"time"
)

var errNoWinToAscend = errors.New("no win to ascend from")

// Ascend performs the prestige reset after a confirmed win. The fragment
// award is flat (hard mode pays more); an earlier revision scaled it with
// prestige level, which was removed.
func (s *Session) Ascend() error {
	s.mu.Lock()

	gs := s.state
	if !gs.HasWon {
		s.mu.Unlock()
		return errNoWinToAscend
	}

	startMoney := upgradeCatalog[UpgradePrestigeKarma].Effect(gs.level(UpgradePrestigeKarma))

	carried := map[UpgradeID]int{}
	for id := range upgradeCatalog {
		if upgradeCatalog[id].Prestige {
			carried[id] = gs.Upgrades[id]
		} else {
			carried[id] = 0
		}
	}

	reward := int64(fragmentsPerWin)
	if gs.HardMode {
		reward = fragmentsPerHardModeWin
	}

	next := newGameState()
	next.Money = int64(startMoney)
	next.Upgrades = carried
	next.PrestigeLevel = gs.PrestigeLevel + 1
	next.VoidFragments = gs.VoidFragments + reward
	next.HardMode = gs.HardMode
	next.AutoFlipEnabled = gs.AutoFlipEnabled
	next.AutoBuyEnabled = gs.AutoBuyEnabled
	next.PlayerName = gs.PlayerName
	next.ActiveTitle = gs.ActiveTitle
	next.UnlockedTitles = gs.UnlockedTitles
	next.HasCheated = gs.HasCheated // sticky across prestiges

	s.stats.TotalPrestiges++
	previousBest := s.stats.MaxPrestigeLevel
	if int64(next.PrestigeLevel) > s.stats.MaxPrestigeLevel {
		s.stats.MaxPrestigeLevel = int64(next.PrestigeLevel)
	}

	s.state = next
	s.phase = PhaseIdle
	s.unlockTitleLocked(titleAscendant, next.PrestigeLevel)
	s.markDirty()

	// Regressive overwrites are skipped here; the merge rule remotely
	// would reject them anyway, this just saves the round trip.
	submit := s.mgr != nil && s.mgr.board != nil &&
		next.PlayerName != "" && int64(next.PrestigeLevel) >= previousBest
	if submit {
		name := next.PlayerName
		if next.HasCheated {
			name = flaggedCheaterName
		}
		s.mgr.board.SubmitScores([]ScoreUpdate{{
			Category: categoryPrestige,
			Entry: LeaderboardEntry{
				Name:  name,
				Score: int64(next.PrestigeLevel),
				Date:  time.Now().UTC().UnixMilli(),
				Title: next.ActiveTitle,
			},
		}})
	}

	s.armAutoFlip()
	s.mu.Unlock()
	s.persist()
	return nil
}

// SetHardMode toggles the alternate ruleset. Gated behind the first
// prestige so a fresh player cannot strand themselves at a 15 streak.
func (s *Session) SetHardMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled && s.state.PrestigeLevel < 1 {
		return errors.New("hard mode unlocks after the first ascension")
	}
	if s.phase != PhaseIdle || s.state.HasWon {
		return errRunBlocked
	}
	s.state.HardMode = enabled
	if !enabled {
		s.state.HardBuffPending = false
	}
	s.markDirty()
	return nil
}
