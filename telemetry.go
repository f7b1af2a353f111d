package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
)

type TelemetryEventRequest struct {
	PlayerID  string          `json:"playerId"`
	EventType string          `json:"eventType"`
	Payload   json.RawMessage `json:"payload"`
}

func telemetryHandler(deps *serverDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !deps.flags.Telemetry || deps.db == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req TelemetryEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.EventType == "" || !isValidPlayerID(req.PlayerID) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		insertTelemetry(deps.db, req.PlayerID, req.EventType, req.Payload)
		w.WriteHeader(http.StatusNoContent)
	}
}

func insertTelemetry(db *sql.DB, playerID string, eventType string, payload json.RawMessage) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	_, _ = db.Exec(`
		INSERT INTO game_telemetry (player_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, NOW())
	`, playerID, eventType, []byte(payload))
}
