package main

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// SaveStore is a small keyed blob store. The Postgres implementation backs
// player saves in server deployments; the sqlite implementation is the
// device-local store (offline saves, leaderboard fallback cache, one-off
// flags).
type SaveStore interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

/* ======================
   Postgres store
   ====================== */

type pgStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`
		SELECT value
		FROM kv_store
		WHERE key = $1
	`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *pgStore) Put(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, string(value))
	return err
}

func (s *pgStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv_store WHERE key = $1`, key)
	return err
}

func (s *pgStore) Close() error { return nil }

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS global_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS win_log (
			id BIGSERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			streak INT NOT NULL,
			money BIGINT NOT NULL,
			hard_mode BOOLEAN NOT NULL,
			purist BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS game_telemetry (
			id BIGSERIAL PRIMARY KEY,
			player_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

/* ======================
   Device-local sqlite store
   ====================== */

type sqliteStore struct {
	mu sync.Mutex
	db *sql.DB
}

func OpenSQLiteStore(path string) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite is happiest with a single writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (s *sqliteStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *sqliteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key)
	return err
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

/* ======================
   One-off flags (device-local)
   ====================== */

func monthKey(now time.Time) string {
	return fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
}

const backupReminderDaysPlayed = 20

// ShouldShowBackupReminder is true at most once per calendar month, and
// only after the player has been around long enough to have something
// worth exporting.
func ShouldShowBackupReminder(local SaveStore, firstPlayedAt int64, now time.Time) bool {
	if firstPlayedAt == 0 {
		return false
	}
	if now.Sub(time.Unix(firstPlayedAt, 0)) < backupReminderDaysPlayed*24*time.Hour {
		return false
	}
	raw, ok, err := local.Get("flag:backup_reminder_seen")
	if err != nil {
		return false
	}
	return !ok || string(raw) != monthKey(now)
}

func MarkBackupReminderSeen(local SaveStore, now time.Time) error {
	return local.Put("flag:backup_reminder_seen", []byte(monthKey(now)))
}
