package main

import (
	"math/rand"
	"sort"
)

// Headless balance simulation: plays full runs with a greedy shopping
// strategy and reports how long a win takes. Used to sanity check
// catalog changes before they ship.

type SimParams struct {
	Seed     int64 `json:"seed"`
	Runs     int   `json:"runs"`
	HardMode bool  `json:"hardMode"`

	// Cap per run so a broken catalog cannot hang the server.
	MaxFlipsPerRun int `json:"maxFlipsPerRun"`

	PrestigeLevel int `json:"prestigeLevel"`
}

type SimMetrics struct {
	RunsCompleted    int     `json:"runsCompleted"`
	RunsAborted      int     `json:"runsAborted"`
	AvgFlipsToWin    float64 `json:"avgFlipsToWin"`
	MedianFlipsToWin int     `json:"medianFlipsToWin"`
	MaxFlipsToWin    int     `json:"maxFlipsToWin"`
	AvgMoneyAtWin    float64 `json:"avgMoneyAtWin"`
	AvgPlaySeconds   float64 `json:"avgPlaySeconds"`
}

type SimAssertions struct {
	ProbabilityMonotonic bool `json:"probabilityMonotonic"`
	ProbabilityCapped    bool `json:"probabilityCapped"`
	DurationFloored      bool `json:"durationFloored"`
}

type SimReport struct {
	Params     SimParams     `json:"params"`
	Metrics    SimMetrics    `json:"metrics"`
	Assertions SimAssertions `json:"assertions"`
}

func RunSimulation(params SimParams) SimReport {
	if params.Runs <= 0 {
		params.Runs = 100
	}
	if params.Runs > 10000 {
		params.Runs = 10000
	}
	if params.MaxFlipsPerRun <= 0 {
		params.MaxFlipsPerRun = 500000
	}
	rng := rand.New(rand.NewSource(params.Seed))

	var flipCounts []int
	var moneySum float64
	var secondsSum float64
	aborted := 0

	for run := 0; run < params.Runs; run++ {
		flips, money, seconds, won := simulateRun(rng, params)
		if !won {
			aborted++
			continue
		}
		flipCounts = append(flipCounts, flips)
		moneySum += float64(money)
		secondsSum += seconds
	}

	metrics := SimMetrics{
		RunsCompleted: len(flipCounts),
		RunsAborted:   aborted,
	}
	if len(flipCounts) > 0 {
		total := 0
		worst := 0
		for _, f := range flipCounts {
			total += f
			if f > worst {
				worst = f
			}
		}
		metrics.AvgFlipsToWin = float64(total) / float64(len(flipCounts))
		metrics.MedianFlipsToWin = medianInt(flipCounts)
		metrics.MaxFlipsToWin = worst
		metrics.AvgMoneyAtWin = moneySum / float64(len(flipCounts))
		metrics.AvgPlaySeconds = secondsSum / float64(len(flipCounts))
	}

	return SimReport{
		Params:     params,
		Metrics:    metrics,
		Assertions: checkEconomyInvariants(),
	}
}

// simulateRun plays a single run to the winning streak with a greedy
// shopper: after every flip it buys whatever it can afford in auto-buy
// priority order.
func simulateRun(rng *rand.Rand, params SimParams) (flips int, money int64, seconds float64, won bool) {
	gs := newGameState()
	gs.HardMode = params.HardMode
	gs.PrestigeLevel = params.PrestigeLevel
	threshold := gs.winThreshold()

	for flips = 0; flips < params.MaxFlipsPerRun; flips++ {
		seconds += float64(FlipDurationMs(gs)) / 1000

		if rng.Float64() < FlipChance(gs) {
			gs.Streak++
			gs.Money += HeadsPayout(gs, gs.Streak)
			if gs.Streak > gs.MaxStreak {
				gs.MaxStreak = gs.Streak
			}
			if gs.Streak >= threshold {
				return flips + 1, gs.Money, seconds, true
			}
		} else {
			gs.Streak = 0
			gs.Money += TailsPayout(gs)
		}

		simGreedyBuy(gs)
	}
	return flips, gs.Money, seconds, false
}

func simGreedyBuy(gs *GameState) {
	limitless := gs.hasLimitless()
	for _, id := range autoBuyOrder {
		cfg := upgradeCatalog[id]
		if !cfg.unlockedFor(gs.MaxStreak, nil) {
			continue
		}
		level := gs.level(id)
		if level >= cfg.EffectiveMaxLevel(limitless) {
			continue
		}
		cost := cfg.CostAtLevel(level)
		if gs.Money < cost {
			continue
		}
		gs.Money -= cost
		gs.Upgrades[id] = level + 1
	}
}

// checkEconomyInvariants spot checks the pure functions across the whole
// upgrade range.
func checkEconomyInvariants() SimAssertions {
	out := SimAssertions{
		ProbabilityMonotonic: true,
		ProbabilityCapped:    true,
		DurationFloored:      true,
	}

	prev := 0.0
	for level := 0; level <= 30; level++ {
		gs := newGameState()
		gs.Upgrades[UpgradeChance] = level
		chance := FlipChance(gs)
		if chance < prev-1e-9 {
			out.ProbabilityMonotonic = false
		}
		if chance > chanceCapNormal+1e-9 {
			out.ProbabilityCapped = false
		}
		prev = chance

		gs.HardMode = true
		if FlipChance(gs) > chanceCapHard+1e-9 {
			out.ProbabilityCapped = false
		}
	}

	for level := 0; level <= 30; level++ {
		gs := newGameState()
		gs.Upgrades[UpgradeSpeed] = level
		gs.Upgrades[UpgradePrestigeFlux] = level
		if FlipDurationMs(gs) < minFlipMs {
			out.DurationFloored = false
		}
		gs.Upgrades[UpgradePrestigeLimitless] = 1
		if FlipDurationMs(gs) < minFlipLimitlessMs {
			out.DurationFloored = false
		}
	}

	return out
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}
