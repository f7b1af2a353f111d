package main

import (
	"database/sql"
	"log"
)

// insertWinLog records a completed run. Best effort: a lost row never
// blocks the win itself.
func insertWinLog(db *sql.DB, playerID string, streak int, money int64, hardMode bool, purist bool) {
	if db == nil {
		return
	}
	_, err := db.Exec(`
		INSERT INTO win_log (
			player_id,
			streak,
			money,
			hard_mode,
			purist,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, playerID, streak, money, hardMode, purist)
	if err != nil {
		log.Println("WinLog: insert failed:", err)
	}
}
