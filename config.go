package main

import (
	"database/sql"
	"os"
)

type FeatureFlags struct {
	Telemetry   bool
	DebugKeys   bool
	Leaderboard bool
}

func loadFeatureFlags() FeatureFlags {
	return FeatureFlags{
		Telemetry:   envFlag("ENABLE_TELEMETRY", true),
		DebugKeys:   envFlag("ENABLE_DEBUG_KEYS", true),
		Leaderboard: envFlag("ENABLE_LEADERBOARD", true),
	}
}

func envFlag(name string, fallback bool) bool {
	val := os.Getenv(name)
	if val == "" {
		return fallback
	}
	return val == "true" || val == "1" || val == "yes"
}

// serverDeps bundles the process-wide dependencies sessions reach back
// into: the shared database handle (nil in local mode) and the feature
// flags resolved at startup.
type serverDeps struct {
	db    *sql.DB
	flags FeatureFlags
}

func (d *serverDeps) recordWin(playerID string, streak int, money int64, hardMode bool, purist bool) {
	if d == nil || d.db == nil {
		return
	}
	insertWinLog(d.db, playerID, streak, money, hardMode, purist)
}
