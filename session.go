package main

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// PlayerStats survives run resets and run-state wipes. Counters only move
// up; the single exception is the full wipe.
type PlayerStats struct {
	PuristWins       int64 `json:"puristWins"`
	MomPurchases     int64 `json:"momPurchases"`
	HighestCash      int64 `json:"highestCash"`
	TotalPrestiges   int64 `json:"totalPrestiges"`
	MaxPrestigeLevel int64 `json:"maxPrestigeLevel"`
	HardModeWins     int64 `json:"hardModeWins"`
	FirstPlayedAt    int64 `json:"firstPlayedAt,omitempty"`
}

type GameState struct {
	Money      int64             `json:"money"`
	Streak     int               `json:"streak"`
	MaxStreak  int               `json:"maxStreak"`
	TotalFlips int64             `json:"totalFlips"`
	Upgrades   map[UpgradeID]int `json:"upgrades"`
	History    []string          `json:"history"`

	PrestigeLevel int   `json:"prestigeLevel"`
	VoidFragments int64 `json:"voidFragments"`

	AutoFlipEnabled bool `json:"autoFlipEnabled"`
	AutoBuyEnabled  bool `json:"autoBuyEnabled"`

	HardMode        bool `json:"isHardMode"`
	HardBuffPending bool `json:"hardBuffPending,omitempty"`

	PlayerName     string         `json:"playerName,omitempty"`
	ActiveTitle    string         `json:"activeTitle,omitempty"`
	UnlockedTitles map[string]int `json:"unlockedTitles"`

	IsPuristRun bool `json:"isPuristRun"`
	HasCheated  bool `json:"hasCheated"`
	HasWon      bool `json:"hasWon"`
}

const historyLimit = 10

func newGameState() *GameState {
	gs := &GameState{
		Upgrades:       map[UpgradeID]int{},
		History:        []string{},
		UnlockedTitles: map[string]int{},
		IsPuristRun:    true,
	}
	for id := range upgradeCatalog {
		gs.Upgrades[id] = 0
	}
	return gs
}

// clone returns a deep copy safe to read outside the session lock.
func (gs *GameState) clone() *GameState {
	out := *gs
	out.Upgrades = make(map[UpgradeID]int, len(gs.Upgrades))
	for id, level := range gs.Upgrades {
		out.Upgrades[id] = level
	}
	out.History = append([]string(nil), gs.History...)
	out.UnlockedTitles = make(map[string]int, len(gs.UnlockedTitles))
	for id, level := range gs.UnlockedTitles {
		out.UnlockedTitles[id] = level
	}
	return &out
}

// normalizeGameState backfills fields a legacy or partial save may lack so
// the rest of the engine never sees nil maps or oversized history.
func normalizeGameState(gs *GameState) {
	if gs.Upgrades == nil {
		gs.Upgrades = map[UpgradeID]int{}
	}
	for id := range upgradeCatalog {
		if _, ok := gs.Upgrades[id]; !ok {
			gs.Upgrades[id] = 0
		}
	}
	if gs.History == nil {
		gs.History = []string{}
	}
	if len(gs.History) > historyLimit {
		gs.History = gs.History[:historyLimit]
	}
	if gs.UnlockedTitles == nil {
		gs.UnlockedTitles = map[string]int{}
	}
}

type FlipPhase int

const (
	PhaseIdle FlipPhase = iota
	PhaseResolving
)

// Session is the single logical owner of one player's GameState. Every
// mutation happens under mu; timer callbacks re-check guards after
// re-acquiring it.
type Session struct {
	mu    sync.Mutex
	id    string
	state *GameState
	stats *PlayerStats

	phase     FlipPhase
	flipSince time.Time

	sched         *Scheduler
	rng           *rand.Rand
	autoFlipArmed bool

	// Pending forced-event: a compliment the player has not accepted yet.
	// Flips and auto-play are blocked while it is set.
	pendingCompliment string

	// Rolling buffer of recently typed letters, watched for "mom".
	keyBuffer string

	// Messages produced since the last state read, drained by the view.
	events []string

	mgr         *SessionManager
	dirty       bool
	lastTouched time.Time
	closed      bool
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	saves SaveStore // run + meta keys
	local SaveStore // device-local flags, compliments
	board *LeaderboardClient
	deps  *serverDeps
}

func NewSessionManager(saves, local SaveStore, board *LeaderboardClient, deps *serverDeps) *SessionManager {
	return &SessionManager{
		sessions: map[string]*Session{},
		saves:    saves,
		local:    local,
		board:    board,
		deps:     deps,
	}
}

func saveKeyRun(playerID string) string  { return "save:" + playerID }
func saveKeyMeta(playerID string) string { return "meta:" + playerID }

// Get returns the live session for a player, loading persisted state on
// first touch. Corrupt saves fall back to defaults without failing.
func (m *SessionManager) Get(playerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[playerID]; ok {
		s.mu.Lock()
		s.lastTouched = time.Now().UTC()
		s.mu.Unlock()
		return s, nil
	}

	state := newGameState()
	if raw, ok, err := m.saves.Get(saveKeyRun(playerID)); err != nil {
		return nil, err
	} else if ok {
		loaded := &GameState{}
		if err := decodeSave(raw, loaded); err != nil {
			log.Println("Session: corrupt run save for", playerID, "- starting fresh:", err)
		} else {
			state = loaded
		}
	}
	normalizeGameState(state)

	stats := &PlayerStats{}
	if raw, ok, err := m.saves.Get(saveKeyMeta(playerID)); err != nil {
		return nil, err
	} else if ok {
		loaded := &PlayerStats{}
		if err := decodeSave(raw, loaded); err != nil {
			log.Println("Session: corrupt meta save for", playerID, "- starting fresh:", err)
		} else {
			stats = loaded
		}
	}

	s := &Session{
		id:          playerID,
		state:       state,
		stats:       stats,
		sched:       NewScheduler(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		mgr:         m,
		lastTouched: time.Now().UTC(),
	}
	m.sessions[playerID] = s

	s.mu.Lock()
	s.startFailsafe()
	s.startAutoBuy()
	s.armAutoFlip()
	s.mu.Unlock()
	return s, nil
}

// Close tears down a session's timers and flushes pending state.
func (m *SessionManager) Close(playerID string) {
	m.mu.Lock()
	s, ok := m.sessions[playerID]
	if ok {
		delete(m.sessions, playerID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.sched.Close()
	s.persist()
}

// CloseAll is used at shutdown and by tests.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Close(id)
	}
}

// markDirty must be called with s.mu held after any state mutation.
func (s *Session) markDirty() {
	s.dirty = true
	s.lastTouched = time.Now().UTC()
}

// persist writes both keys through the codec. Safe to call without mu.
func (s *Session) persist() {
	s.mu.Lock()
	rawState, stateErr := encodeSave(s.state)
	rawStats, statsErr := encodeSave(s.stats)
	s.dirty = false
	s.mu.Unlock()

	if stateErr == nil {
		if err := s.mgr.saves.Put(saveKeyRun(s.id), rawState); err != nil {
			log.Println("Session: run save failed for", s.id, ":", err)
		}
	}
	if statsErr == nil {
		if err := s.mgr.saves.Put(saveKeyMeta(s.id), rawStats); err != nil {
			log.Println("Session: meta save failed for", s.id, ":", err)
		}
	}
}

// hardReset wipes the run state only; PlayerStats survives.
func (s *Session) hardReset() {
	s.mu.Lock()
	fresh := newGameState()
	fresh.PlayerName = s.state.PlayerName
	fresh.ActiveTitle = s.state.ActiveTitle
	fresh.UnlockedTitles = s.state.UnlockedTitles
	s.state = fresh
	s.phase = PhaseIdle
	s.pendingCompliment = ""
	s.events = nil
	s.markDirty()
	s.mu.Unlock()
	s.persist()
}

// fullWipe is the mom event: run state and meta both go.
func (s *Session) fullWipe() {
	s.mu.Lock()
	s.state = newGameState()
	s.stats = &PlayerStats{}
	s.phase = PhaseIdle
	s.pendingCompliment = ""
	s.events = nil
	s.dirty = false
	s.mu.Unlock()

	if err := s.mgr.saves.Delete(saveKeyRun(s.id)); err != nil {
		log.Println("Session: wipe run key failed:", err)
	}
	if err := s.mgr.saves.Delete(saveKeyMeta(s.id)); err != nil {
		log.Println("Session: wipe meta key failed:", err)
	}
}

func (s *Session) pushEvent(msg string) {
	if msg == "" {
		return
	}
	s.events = append(s.events, msg)
	if len(s.events) > 20 {
		s.events = s.events[len(s.events)-20:]
	}
}

// drainEvents hands pending messages to the view layer.
func (s *Session) drainEvents() []string {
	out := s.events
	s.events = nil
	return out
}

func (s *Session) touchFirstPlayed() {
	if s.stats.FirstPlayedAt == 0 {
		s.stats.FirstPlayedAt = time.Now().UTC().Unix()
	}
}
