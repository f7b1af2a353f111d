package main

import (
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"
)

type GameSettings struct {
	AutoFlipDelayMs    int
	AutoBuyIntervalMs  int
	FailsafeIntervalMs int
	FlushIntervalMs    int
	SessionIdleMinutes int
	LeaderboardEnabled bool
}

var (
	settingsMu     sync.RWMutex
	cachedSettings = GameSettings{
		AutoFlipDelayMs:    300,
		AutoBuyIntervalMs:  1000,
		FailsafeIntervalMs: 2000,
		FlushIntervalMs:    5000,
		SessionIdleMinutes: 30,
		LeaderboardEnabled: true,
	}
)

func LoadGameSettings(db *sql.DB) error {
	rows, err := db.Query(`
		SELECT key, value
		FROM global_settings
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	settingsMu.Lock()
	defer settingsMu.Unlock()

	for rows.Next() {
		var key string
		var value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		applySetting(&cachedSettings, key, value)
	}
	return nil
}

func GetGameSettings() GameSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return cachedSettings
}

func UpdateGameSettings(db *sql.DB, updates map[string]string) (GameSettings, error) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	for key, value := range updates {
		applySetting(&cachedSettings, key, value)
		if db == nil {
			continue
		}
		_, err := db.Exec(`
			INSERT INTO global_settings (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, key, value)
		if err != nil {
			return cachedSettings, err
		}
	}
	return cachedSettings, nil
}

func applySetting(target *GameSettings, key string, value string) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "auto_flip_delay_ms":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.AutoFlipDelayMs = v
		}
	case "auto_buy_interval_ms":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.AutoBuyIntervalMs = v
		}
	case "failsafe_interval_ms":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.FailsafeIntervalMs = v
		}
	case "flush_interval_ms":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.FlushIntervalMs = v
		}
	case "session_idle_minutes":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			target.SessionIdleMinutes = v
		}
	case "leaderboard_enabled":
		if v, err := parseBool(value); err == nil {
			target.LeaderboardEnabled = v
		}
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, strconv.ErrSyntax
	}
}

func SessionIdleTimeout() time.Duration {
	settings := GetGameSettings()
	if settings.SessionIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(settings.SessionIdleMinutes) * time.Minute
}
