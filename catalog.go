package main

import "fmt"

type UpgradeID string

const (
	// Standard shop (priced in money)
	UpgradeChance        UpgradeID = "CHANCE"
	UpgradeSpeed         UpgradeID = "SPEED"
	UpgradeCombo         UpgradeID = "COMBO"
	UpgradeValue         UpgradeID = "VALUE"
	UpgradeAutoFlip      UpgradeID = "AUTO_FLIP"
	UpgradePassiveIncome UpgradeID = "PASSIVE_INCOME"
	UpgradeEdging        UpgradeID = "EDGING"

	// Void shop (priced in fragments unless MoneyPriced)
	UpgradePrestigeKarma       UpgradeID = "PRESTIGE_KARMA"
	UpgradePrestigeFate        UpgradeID = "PRESTIGE_FATE"
	UpgradePrestigeFlux        UpgradeID = "PRESTIGE_FLUX"
	UpgradePrestigePassive     UpgradeID = "PRESTIGE_PASSIVE"
	UpgradePrestigeAuto        UpgradeID = "PRESTIGE_AUTO"
	UpgradePrestigeAutoBuy     UpgradeID = "PRESTIGE_AUTO_BUY"
	UpgradePrestigeEdging      UpgradeID = "PRESTIGE_EDGING"
	UpgradePrestigeGoldDigger  UpgradeID = "PRESTIGE_GOLD_DIGGER"
	UpgradePrestigeLimitless   UpgradeID = "PRESTIGE_LIMITLESS"
	UpgradePrestigeMom         UpgradeID = "PRESTIGE_MOM"
	UpgradePrestigeCarePackage UpgradeID = "PRESTIGE_CARE_PACKAGE"
	UpgradePrestigeVeteran     UpgradeID = "PRESTIGE_VETERAN"

	// Hard mode consumable
	UpgradeHardModeBuff UpgradeID = "HARD_MODE_BUFF"
)

type UpgradeConfig struct {
	ID          UpgradeID
	Name        string
	Description string

	// CostTiers[n] is the price of buying level n+1. Levels past the table
	// (limitless extensions) double the last tier per extra level.
	CostTiers         []int64
	MaxLevel          int
	LimitlessMaxLevel int // 0 means no extension

	Prestige    bool // carried through ascension
	MoneyPriced bool // void-shop item that charges money instead of fragments

	UnlockAtStreak  int // required max streak before it appears in the shop
	RequiresHardWin bool

	Effect       func(level int) float64
	FormatEffect func(value float64) string
}

// pick indexes a per-level table, clamping to the last entry.
func pick(table []float64, level int) float64 {
	if level < 0 {
		level = 0
	}
	if level >= len(table) {
		level = len(table) - 1
	}
	return table[level]
}

func formatPercent(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }
func formatSeconds(v float64) string { return fmt.Sprintf("%.2fs", v/1000) }
func formatTimes(v float64) string { return fmt.Sprintf("%gx", v) }
func formatDollars(v float64) string { return fmt.Sprintf("$%.0f", v) }

func formatOnOff(v float64) string {
	if v > 0 {
		return "ON"
	}
	return "OFF"
}

var upgradeCatalog = map[UpgradeID]UpgradeConfig{
	UpgradeChance: {
		ID:                UpgradeChance,
		Name:              "Weighted Coin",
		Description:       "Increases the probability of flipping Heads.",
		CostTiers:         []int64{1, 10, 100, 200, 300, 500, 1000, 1500, 2000, 3000, 5000, 7000, 8000, 9000},
		MaxLevel:          14,
		LimitlessMaxLevel: 19,
		Effect:            func(level int) float64 { return 0.05 * float64(level) },
		FormatEffect:      func(v float64) string { return "+" + formatPercent(v) },
	},
	UpgradeSpeed: {
		ID:                UpgradeSpeed,
		Name:              "Sleight of Hand",
		Description:       "Reduces the time it takes to flip.",
		CostTiers:         []int64{1, 10, 100, 1000, 10000},
		MaxLevel:          5,
		LimitlessMaxLevel: 8,
		Effect: func(level int) float64 {
			return pick([]float64{2000, 1500, 1000, 750, 500, 250, 150, 100, 50}, level)
		},
		FormatEffect: formatSeconds,
	},
	UpgradeCombo: {
		ID:                UpgradeCombo,
		Name:              "Streak Multiplier",
		Description:       "Increases money earned for consecutive Heads.",
		CostTiers:         []int64{1, 10, 100, 1000, 10000},
		MaxLevel:          5,
		LimitlessMaxLevel: 7,
		Effect: func(level int) float64 {
			return pick([]float64{1, 1.25, 1.5, 2.0, 3.0, 5.0, 8.0, 12.0}, level)
		},
		FormatEffect: formatTimes,
	},
	UpgradeValue: {
		ID:                UpgradeValue,
		Name:              "Coin Value",
		Description:       "Increases the base value of a Heads result.",
		CostTiers:         []int64{1, 10, 100, 1000, 10000},
		MaxLevel:          5,
		LimitlessMaxLevel: 8,
		Effect: func(level int) float64 {
			return pick([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}, level)
		},
		FormatEffect: formatDollars,
	},
	UpgradeAutoFlip: {
		ID:             UpgradeAutoFlip,
		Name:           "Auto Flipper",
		Description:    "Automatically flips the coin for you.",
		CostTiers:      []int64{500},
		MaxLevel:       1,
		UnlockAtStreak: 5,
		Effect:         func(level int) float64 { return float64(level) },
		FormatEffect:   formatOnOff,
	},
	UpgradePassiveIncome: {
		ID:             UpgradePassiveIncome,
		Name:           "Pity Money",
		Description:    "Earn a little money even when the coin lands Tails.",
		CostTiers:      []int64{50, 500, 2500},
		MaxLevel:       3,
		UnlockAtStreak: 3,
		Effect: func(level int) float64 {
			return pick([]float64{0, 1, 3, 10}, level)
		},
		FormatEffect: formatDollars,
	},
	UpgradeEdging: {
		ID:             UpgradeEdging,
		Name:           "Edging",
		Description:    "All earnings x10. You know what you did.",
		CostTiers:      []int64{5000},
		MaxLevel:       1,
		UnlockAtStreak: 9,
		Effect:         func(level int) float64 { return float64(level) },
		FormatEffect:   formatOnOff,
	},
	UpgradePrestigeKarma: {
		ID:          UpgradePrestigeKarma,
		Name:        "Karma",
		Description: "Start every new run with money in hand.",
		CostTiers:   []int64{1, 2, 4, 8, 16},
		MaxLevel:    5,
		Prestige:    true,
		Effect: func(level int) float64 {
			return pick([]float64{0, 100, 250, 500, 1000, 2500}, level)
		},
		FormatEffect: formatDollars,
	},
	UpgradePrestigeFate: {
		ID:          UpgradePrestigeFate,
		Name:        "Fate",
		Description: "Permanently raises the base Heads probability.",
		CostTiers:   []int64{2, 4, 6, 10, 15},
		MaxLevel:    5,
		Prestige:    true,
		Effect:      func(level int) float64 { return 0.02 * float64(level) },
		FormatEffect: func(v float64) string { return "+" + formatPercent(v) },
	},
	UpgradePrestigeFlux: {
		ID:          UpgradePrestigeFlux,
		Name:        "Flux",
		Description: "Permanently shaves time off every flip.",
		CostTiers:   []int64{2, 4, 6, 10, 15},
		MaxLevel:    5,
		Prestige:    true,
		Effect:      func(level int) float64 { return 40 * float64(level) },
		FormatEffect: func(v float64) string { return fmt.Sprintf("-%.0fms", v) },
	},
	UpgradePrestigePassive: {
		ID:          UpgradePrestigePassive,
		Name:        "Void Dividends",
		Description: "Permanent passive income on Tails.",
		CostTiers:   []int64{3, 8},
		MaxLevel:    2,
		Prestige:    true,
		Effect: func(level int) float64 {
			return pick([]float64{0, 2, 5}, level)
		},
		FormatEffect: formatDollars,
	},
	UpgradePrestigeAuto: {
		ID:           UpgradePrestigeAuto,
		Name:         "Eternal Flipper",
		Description:  "Permanent auto flip across every run.",
		CostTiers:    []int64{5},
		MaxLevel:     1,
		Prestige:     true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeAutoBuy: {
		ID:           UpgradePrestigeAutoBuy,
		Name:         "Personal Shopper",
		Description:  "Buys standard upgrades for you while you idle.",
		CostTiers:    []int64{10},
		MaxLevel:     1,
		Prestige:     true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeEdging: {
		ID:           UpgradePrestigeEdging,
		Name:         "Eternal Edging",
		Description:  "Permanent x10 earnings across every run.",
		CostTiers:    []int64{12},
		MaxLevel:     1,
		Prestige:     true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeGoldDigger: {
		ID:           UpgradePrestigeGoldDigger,
		Name:         "Gold Digger",
		Description:  "Another x10. It stacks. Of course it stacks.",
		CostTiers:    []int64{25},
		MaxLevel:     1,
		Prestige:     true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeLimitless: {
		ID:           UpgradePrestigeLimitless,
		Name:         "Limitless",
		Description:  "Breaks the caps on probability, speed and shop levels.",
		CostTiers:    []int64{100},
		MaxLevel:     1,
		Prestige:     true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeMom: {
		ID:           UpgradePrestigeMom,
		Name:         "Your Mom",
		Description:  "The forbidden button. Priced accordingly.",
		CostTiers:    []int64{1000000},
		MaxLevel:     1,
		Prestige:     true,
		MoneyPriced:  true,
		Effect:       func(level int) float64 { return float64(level) },
		FormatEffect: formatOnOff,
	},
	UpgradePrestigeCarePackage: {
		ID:          UpgradePrestigeCarePackage,
		Name:        "Care Package",
		Description: "A dollar-store fragment. Exactly what it sounds like.",
		CostTiers:   []int64{10, 10, 10, 10, 10},
		MaxLevel:    5,
		Prestige:    true,
		MoneyPriced: true,
		Effect:      func(level int) float64 { return float64(level) },
		FormatEffect: func(v float64) string { return fmt.Sprintf("%.0f claimed", v) },
	},
	UpgradePrestigeVeteran: {
		ID:              UpgradePrestigeVeteran,
		Name:            "Veteran",
		Description:     "x10 earnings for those who beat the house on hard.",
		CostTiers:       []int64{50},
		MaxLevel:        1,
		Prestige:        true,
		RequiresHardWin: true,
		Effect:          func(level int) float64 { return float64(level) },
		FormatEffect:    formatOnOff,
	},
	UpgradeHardModeBuff: {
		ID:           UpgradeHardModeBuff,
		Name:         "Loaded Flip",
		Description:  "+20% Heads on your next flip. One use.",
		CostTiers:    []int64{1000},
		MaxLevel:     1,
		Effect:       func(level int) float64 { return 0.20 * float64(level) },
		FormatEffect: func(v float64) string { return "+" + formatPercent(v) },
	},
}

// upgradeOrder is the shop display order: standard items first, then the
// void shop, then the hard mode consumable.
var upgradeOrder = []UpgradeID{
	UpgradeChance,
	UpgradeSpeed,
	UpgradeCombo,
	UpgradeValue,
	UpgradePassiveIncome,
	UpgradeAutoFlip,
	UpgradeEdging,
	UpgradePrestigeKarma,
	UpgradePrestigeFate,
	UpgradePrestigeFlux,
	UpgradePrestigePassive,
	UpgradePrestigeAuto,
	UpgradePrestigeAutoBuy,
	UpgradePrestigeEdging,
	UpgradePrestigeGoldDigger,
	UpgradePrestigeLimitless,
	UpgradePrestigeMom,
	UpgradePrestigeCarePackage,
	UpgradePrestigeVeteran,
	UpgradeHardModeBuff,
}

// autoBuyOrder is the priority the auto buyer walks each tick. Prestige
// currency items are deliberately absent.
var autoBuyOrder = []UpgradeID{
	UpgradeChance,
	UpgradeSpeed,
	UpgradeValue,
	UpgradeCombo,
	UpgradePassiveIncome,
	UpgradeEdging,
	UpgradeAutoFlip,
}

func UpgradeByID(id UpgradeID) (UpgradeConfig, bool) {
	cfg, ok := upgradeCatalog[id]
	return cfg, ok
}

// EffectiveMaxLevel is the purchase ceiling given the limitless unlock.
func (c UpgradeConfig) EffectiveMaxLevel(limitless bool) int {
	if limitless && c.LimitlessMaxLevel > c.MaxLevel {
		return c.LimitlessMaxLevel
	}
	return c.MaxLevel
}

// CostAtLevel returns the price of buying the next level when the current
// level is the given one. Levels past the tier table double per level.
func (c UpgradeConfig) CostAtLevel(level int) int64 {
	if level < 0 {
		level = 0
	}
	if level < len(c.CostTiers) {
		return c.CostTiers[level]
	}
	cost := c.CostTiers[len(c.CostTiers)-1]
	for i := len(c.CostTiers); i <= level; i++ {
		cost *= 2
	}
	return cost
}

func (c UpgradeConfig) unlockedFor(maxStreak int, stats *PlayerStats) bool {
	if c.UnlockAtStreak > 0 && maxStreak < c.UnlockAtStreak {
		return false
	}
	if c.RequiresHardWin && (stats == nil || stats.HardModeWins == 0) {
		return false
	}
	return true
}
