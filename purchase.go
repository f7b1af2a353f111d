package main

import (
	"errors"
	"time"
)

var (
	errUpgradeUnknown    = errors.New("unknown upgrade")
	errUpgradeLocked     = errors.New("upgrade not unlocked yet")
	errUpgradeMaxed      = errors.New("upgrade at max level")
	errInsufficientFunds = errors.New("insufficient funds")
	errRunBlocked        = errors.New("run is blocked")
	errNotHardMode       = errors.New("only available in hard mode")
	errBuffAlreadySet    = errors.New("a loaded flip is already pending")
)

// BuyUpgrade performs one manual purchase.
func (s *Session) BuyUpgrade(id UpgradeID) error {
	s.mu.Lock()
	err := s.buyLocked(id)
	if err == nil {
		s.armAutoFlip()
	}
	s.mu.Unlock()
	return err
}

func (s *Session) buyLocked(id UpgradeID) error {
	cfg, ok := UpgradeByID(id)
	if !ok {
		return errUpgradeUnknown
	}
	gs := s.state
	if s.closed || gs.HasWon || s.pendingCompliment != "" {
		return errRunBlocked
	}
	if !cfg.unlockedFor(gs.MaxStreak, s.stats) {
		return errUpgradeLocked
	}

	switch id {
	case UpgradeHardModeBuff:
		return s.buyHardBuffLocked(cfg)
	case UpgradePrestigeMom:
		return s.buyMomLocked(cfg)
	}

	level := gs.Upgrades[id]
	if level >= cfg.EffectiveMaxLevel(gs.hasLimitless()) {
		return errUpgradeMaxed
	}
	cost := cfg.CostAtLevel(level)

	if cfg.Prestige && !cfg.MoneyPriced {
		if gs.VoidFragments < cost {
			return errInsufficientFunds
		}
		gs.VoidFragments -= cost
	} else {
		if gs.Money < cost {
			return errInsufficientFunds
		}
		gs.Money -= cost
	}
	gs.Upgrades[id] = level + 1

	switch id {
	case UpgradePrestigeKarma:
		// Buying karma mid-run pays out the marginal starting money now.
		delta := cfg.Effect(level+1) - cfg.Effect(level)
		if delta > 0 {
			gs.Money += int64(delta)
		}
	case UpgradePrestigeCarePackage:
		gs.VoidFragments++
	}

	s.markDirty()
	return nil
}

func (s *Session) buyHardBuffLocked(cfg UpgradeConfig) error {
	gs := s.state
	if !gs.HardMode {
		return errNotHardMode
	}
	if gs.HardBuffPending {
		return errBuffAlreadySet
	}
	cost := cfg.CostTiers[0]
	if gs.Money < cost {
		return errInsufficientFunds
	}
	gs.Money -= cost
	gs.HardBuffPending = true
	s.markDirty()
	return nil
}

// buyMomLocked is the trap purchase: it charges money, bumps the lifetime
// counter, submits the mommy score and raises the compliment event. The
// save is wiped only when the player accepts the message.
func (s *Session) buyMomLocked(cfg UpgradeConfig) error {
	gs := s.state
	cost := cfg.CostTiers[0]
	if gs.Money < cost {
		return errInsufficientFunds
	}
	gs.Money -= cost
	gs.Upgrades[UpgradePrestigeMom]++
	s.stats.MomPurchases++
	s.unlockTitleLocked(titleMamasFavorite, int(s.stats.MomPurchases))

	if s.mgr != nil && s.mgr.board != nil && gs.PlayerName != "" {
		name := gs.PlayerName
		if gs.HasCheated {
			name = flaggedCheaterName
		}
		s.mgr.board.SubmitScores([]ScoreUpdate{{
			Category: categoryMommy,
			Entry: LeaderboardEntry{
				Name:  name,
				Score: s.stats.MomPurchases,
				Date:  time.Now().UTC().UnixMilli(),
				Title: gs.ActiveTitle,
			},
		}})
	}

	s.triggerComplimentLocked()
	s.markDirty()
	return nil
}
