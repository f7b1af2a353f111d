package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

type SimpleResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeOK(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(SimpleResponse{OK: true})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(SimpleResponse{OK: false, Error: msg})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// newPlayerHandler mints a fresh player ID and eagerly creates its session
// so the first /state call never races a cold save.
func newPlayerHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		playerID := uuid.New().String()
		if _, err := mgr.Get(playerID); err != nil {
			log.Println("Handlers: session create failed for", playerID, ":", err)
			writeError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"playerId": playerID})
	}
}

// sessionFor resolves the playerId query parameter into a live session.
// Writes the error response itself and returns nil on failure.
func sessionFor(mgr *SessionManager, w http.ResponseWriter, r *http.Request) *Session {
	playerID := r.URL.Query().Get("playerId")
	if !isValidPlayerID(playerID) {
		writeError(w, http.StatusBadRequest, "invalid playerId")
		return nil
	}
	s, err := mgr.Get(playerID)
	if err != nil {
		log.Println("Handlers: session load failed for", playerID, ":", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil
	}
	return s
}

/* ======================
   State view
   ====================== */

type UpgradeView struct {
	ID          UpgradeID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	MaxLevel    int       `json:"maxLevel"`
	NextCost    int64     `json:"nextCost"`
	Maxed       bool      `json:"maxed"`
	Prestige    bool      `json:"prestige"`
	MoneyPriced bool      `json:"moneyPriced"`
	EffectLabel string    `json:"effectLabel,omitempty"`
	HardWinOnly bool      `json:"hardWinOnly,omitempty"`
}

type StateView struct {
	State             *GameState    `json:"state"`
	Stats             *PlayerStats  `json:"stats"`
	Phase             string        `json:"phase"`
	FlipChance        float64       `json:"flipChance"`
	FlipDurationMs    int           `json:"flipDurationMs"`
	WinThreshold      int           `json:"winThreshold"`
	Upgrades          []UpgradeView `json:"upgrades"`
	Events            []string      `json:"events"`
	PendingCompliment string        `json:"pendingCompliment,omitempty"`
	ShowBackupHint    bool          `json:"showBackupHint,omitempty"`
}

func (s *Session) stateView() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()

	gs := s.state
	limitless := gs.hasLimitless()

	views := make([]UpgradeView, 0, len(upgradeOrder))
	for _, id := range upgradeOrder {
		cfg := upgradeCatalog[id]
		if !cfg.unlockedFor(gs.MaxStreak, s.stats) {
			continue
		}
		level := gs.level(id)
		maxLevel := cfg.EffectiveMaxLevel(limitless)
		v := UpgradeView{
			ID:          id,
			Name:        cfg.Name,
			Description: cfg.Description,
			Level:       level,
			MaxLevel:    maxLevel,
			Maxed:       level >= maxLevel,
			Prestige:    cfg.Prestige,
			MoneyPriced: cfg.MoneyPriced,
			HardWinOnly: cfg.RequiresHardWin,
		}
		if !v.Maxed {
			v.NextCost = cfg.CostAtLevel(level)
		}
		if cfg.Effect != nil && cfg.FormatEffect != nil {
			v.EffectLabel = cfg.FormatEffect(cfg.Effect(level))
		}
		views = append(views, v)
	}

	phase := "idle"
	if s.phase == PhaseResolving {
		phase = "resolving"
	}

	statsCopy := *s.stats

	// Deep copy: the encoder runs after the lock is released, and the
	// session keeps mutating its own maps.
	return StateView{
		State:             gs.clone(),
		Stats:             &statsCopy,
		Phase:             phase,
		FlipChance:        FlipChance(gs),
		FlipDurationMs:    FlipDurationMs(gs),
		WinThreshold:      gs.winThreshold(),
		Upgrades:          views,
		Events:            s.drainEvents(),
		PendingCompliment: s.pendingCompliment,
		ShowBackupHint:    ShouldShowBackupReminder(s.mgr.local, s.stats.FirstPlayedAt, time.Now()),
	}
}

func stateHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		json.NewEncoder(w).Encode(s.stateView())
	}
}

/* ======================
   Game actions
   ====================== */

func flipHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		if !s.RequestFlip(false, nil) {
			writeError(w, http.StatusConflict, "flip not available")
			return
		}
		writeOK(w)
	}
}

func buyHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			UpgradeID string `json:"upgradeId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.BuyUpgrade(UpgradeID(req.UpgradeID)); err != nil {
			status := http.StatusConflict
			if errors.Is(err, errUpgradeUnknown) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeOK(w)
	}
}

func ascendHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		if err := s.Ascend(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeOK(w)
	}
}

func hardModeHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.SetHardMode(req.Enabled); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeOK(w)
	}
}

func nameHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !isValidPlayerName(req.Name) {
			writeError(w, http.StatusBadRequest, "invalid name")
			return
		}
		s.mu.Lock()
		s.state.PlayerName = req.Name
		s.touchFirstPlayed()
		s.markDirty()
		s.mu.Unlock()
		writeOK(w)
	}
}

func titleHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			TitleID string `json:"titleId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.SetActiveTitle(req.TitleID); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeOK(w)
	}
}

func autoFlipHandler(mgr *SessionManager) http.HandlerFunc {
	return toggleHandler(mgr, func(s *Session, enabled bool) { s.SetAutoFlip(enabled) })
}

func autoBuyHandler(mgr *SessionManager) http.HandlerFunc {
	return toggleHandler(mgr, func(s *Session, enabled bool) { s.SetAutoBuy(enabled) })
}

func toggleHandler(mgr *SessionManager, apply func(*Session, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		apply(s, req.Enabled)
		writeOK(w)
	}
}

func resetHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		s.hardReset()
		writeOK(w)
	}
}

/* ======================
   Save export / import
   ====================== */

func exportHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		s.mu.Lock()
		raw, err := encodeSave(s.state)
		s.mu.Unlock()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", "attachment; filename=beat-the-odds-save.txt")
		w.Write(raw)
		if err := MarkBackupReminderSeen(mgr.local, time.Now()); err != nil {
			log.Println("Handlers: backup reminder flag failed:", err)
		}
	}
}

func importHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable body")
			return
		}
		state, err := decodeImportedState(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid save file")
			return
		}
		s.mu.Lock()
		s.state = state
		s.phase = PhaseIdle
		s.pendingCompliment = ""
		s.autoFlipArmed = false
		s.markDirty()
		s.armAutoFlip()
		s.mu.Unlock()
		s.persist()
		writeOK(w)
	}
}

/* ======================
   Leaderboard + debug
   ====================== */

func leaderboardHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if mgr.board == nil || !GetGameSettings().LeaderboardEnabled {
			writeError(w, http.StatusServiceUnavailable, "leaderboard disabled")
			return
		}
		board, live := mgr.board.Snapshot()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"board": board,
			"live":  live,
		})
	}
}

func debugKeyHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		var req struct {
			Code        string `json:"code"`
			Key         string `json:"key"`
			InTextInput bool   `json:"inTextInput"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		consumed := s.HandleKey(req.Code, req.Key, req.InTextInput)
		json.NewEncoder(w).Encode(map[string]bool{"consumed": consumed})
	}
}

func complimentHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s := sessionFor(mgr, w, r)
		if s == nil {
			return
		}
		if err := s.AcceptCompliment(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeOK(w)
	}
}

/* ======================
   Admin
   ====================== */

func requireAdminKey(w http.ResponseWriter, r *http.Request) bool {
	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		w.WriteHeader(http.StatusNotFound)
		return false
	}
	if r.Header.Get("X-Admin-Key") != adminKey {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func adminWipeCheatersHandler(mgr *SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !requireAdminKey(w, r) {
			return
		}
		if mgr.board == nil {
			writeError(w, http.StatusServiceUnavailable, "leaderboard disabled")
			return
		}
		mgr.board.WipeCheaters()
		writeOK(w)
	}
}

func adminSettingsHandler(deps *serverDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !requireAdminKey(w, r) {
				return
			}
			json.NewEncoder(w).Encode(GetGameSettings())
		case http.MethodPost:
			if !requireAdminKey(w, r) {
				return
			}
			var updates map[string]string
			if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			settings, err := UpdateGameSettings(deps.db, updates)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			json.NewEncoder(w).Encode(settings)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func adminSimulateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !requireAdminKey(w, r) {
			return
		}
		var params SimParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		report := RunSimulation(params)
		json.NewEncoder(w).Encode(report)
	}
}
