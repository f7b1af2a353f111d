package main

import "math"

const (
	baseChance         = 0.20
	chanceCapNormal    = 0.99
	chanceCapHard      = 0.70
	chanceCapLimitless = 0.999
	hardBuffBonus      = 0.20

	minFlipMs          = 50
	minFlipLimitlessMs = 1

	winningStreak         = 10
	hardModeWinningStreak = 15

	fragmentsPerWin         = 5
	fragmentsPerHardModeWin = 15
)

func (gs *GameState) level(id UpgradeID) int {
	return gs.Upgrades[id]
}

func (gs *GameState) hasLimitless() bool {
	return gs.level(UpgradePrestigeLimitless) > 0
}

func (gs *GameState) hasAutoFlip() bool {
	return gs.level(UpgradeAutoFlip) > 0 || gs.level(UpgradePrestigeAuto) > 0
}

func (gs *GameState) hasAutoBuy() bool {
	return gs.level(UpgradePrestigeAutoBuy) > 0
}

func (gs *GameState) winThreshold() int {
	if gs.HardMode {
		return hardModeWinningStreak
	}
	return winningStreak
}

// FlipChance is the Heads probability for the next flip: fixed base, plus
// the chance upgrade, plus the permanent fate bonus, plus a pending
// one-shot buff, clamped to the active cap.
func FlipChance(gs *GameState) float64 {
	chance := baseChance
	chance += upgradeCatalog[UpgradeChance].Effect(gs.level(UpgradeChance))
	chance += upgradeCatalog[UpgradePrestigeFate].Effect(gs.level(UpgradePrestigeFate))
	if gs.HardBuffPending {
		chance += hardBuffBonus
	}

	cap := chanceCapNormal
	if gs.HardMode {
		cap = chanceCapHard
	}
	if gs.hasLimitless() {
		cap = chanceCapLimitless
	}
	if chance > cap {
		chance = cap
	}
	if chance < baseChance {
		chance = baseChance
	}
	return chance
}

// FlipDurationMs is how long a flip resolution takes. Speed tiers step the
// base down, flux shaves a flat amount, and the floor drops to 1ms once
// limitless is owned.
func FlipDurationMs(gs *GameState) int {
	duration := upgradeCatalog[UpgradeSpeed].Effect(gs.level(UpgradeSpeed))
	duration -= upgradeCatalog[UpgradePrestigeFlux].Effect(gs.level(UpgradePrestigeFlux))

	floor := float64(minFlipMs)
	if gs.hasLimitless() {
		floor = minFlipLimitlessMs
	}
	if duration < floor {
		duration = floor
	}
	return int(duration)
}

func (gs *GameState) flatMultiplier() float64 {
	mult := 1.0
	if gs.level(UpgradeEdging) > 0 || gs.level(UpgradePrestigeEdging) > 0 {
		mult *= 10
	}
	if gs.level(UpgradePrestigeGoldDigger) > 0 {
		mult *= 10
	}
	if gs.level(UpgradePrestigeVeteran) > 0 {
		mult *= 10
	}
	return mult
}

// HeadsPayout is the money earned for a Heads at the given streak. The
// combo term only engages past a streak of 1, flat multipliers are
// multiplicative, and truncation happens exactly once at the end.
func HeadsPayout(gs *GameState, streak int) int64 {
	payout := upgradeCatalog[UpgradeValue].Effect(gs.level(UpgradeValue))
	if streak > 1 {
		combo := upgradeCatalog[UpgradeCombo].Effect(gs.level(UpgradeCombo))
		payout *= 1 + float64(streak)*(combo-1)
	}
	payout *= gs.flatMultiplier()
	payout *= 1 + float64(gs.PrestigeLevel)*0.1
	if payout < 0 {
		return 0
	}
	return int64(math.Floor(payout))
}

// TailsPayout is the consolation income for a Tails. Flat x10 multipliers
// do not apply here; prestige scales it linearly.
func TailsPayout(gs *GameState) int64 {
	passive := upgradeCatalog[UpgradePassiveIncome].Effect(gs.level(UpgradePassiveIncome))
	passive += upgradeCatalog[UpgradePrestigePassive].Effect(gs.level(UpgradePrestigePassive))
	if passive <= 0 {
		return 0
	}
	passive *= float64(1 + gs.PrestigeLevel)
	return int64(math.Floor(passive))
}
