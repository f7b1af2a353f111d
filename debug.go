package main

import (
	"encoding/json"
	"log"
	"strings"
)

// Debug key codes, matching browser KeyboardEvent.code values so the
// frontend can forward keystrokes verbatim.
const (
	keySpace = "Space"
	keyQ     = "KeyQ"
	keyZ     = "KeyZ"
)

const (
	debugCheatFragments = 5
	debugCheatMoney     = 10000
	complimentBufferLen = 8
	complimentSeenKey   = "compliments:seen"
)

var complimentLines = []string{
	"You light up every room you walk into.",
	"The world is luckier for having you in it.",
	"You are doing so much better than you think.",
	"Someone out there is glad you exist today.",
	"Your kindness does not go unnoticed.",
	"You make hard things look easy.",
	"Take a breath. You have earned it.",
	"You are the kind of person people remember fondly.",
}

// HandleKey is the debug/cheat input surface. It returns true when the key
// was consumed. Keys typed while a text input has focus are ignored so the
// name field does not trigger flips.
func (s *Session) HandleKey(code string, key string, inTextInput bool) bool {
	if inTextInput {
		return false
	}
	switch code {
	case keySpace:
		return s.RequestFlip(false, nil)
	case keyQ:
		if !s.mgr.deps.flags.DebugKeys {
			return false
		}
		s.mu.Lock()
		s.state.HasCheated = true
		s.state.VoidFragments += debugCheatFragments
		s.markDirty()
		s.mu.Unlock()
		forced := true
		if !s.RequestFlip(false, &forced) {
			s.mu.Lock()
			s.markDirty()
			s.mu.Unlock()
		}
		return true
	case keyZ:
		if !s.mgr.deps.flags.DebugKeys {
			return false
		}
		s.mu.Lock()
		s.state.HasCheated = true
		s.state.Money += debugCheatMoney
		s.markDirty()
		s.mu.Unlock()
		return true
	}
	s.feedComplimentBuffer(key)
	return false
}

// feedComplimentBuffer watches raw typed letters for the word "mom". The
// buffer only keeps the last few characters; anything non-alphabetic
// resets it.
func (s *Session) feedComplimentBuffer(key string) {
	if len(key) != 1 {
		return
	}
	ch := strings.ToLower(key)
	if ch < "a" || ch > "z" {
		s.mu.Lock()
		s.keyBuffer = ""
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	s.keyBuffer += ch
	if len(s.keyBuffer) > complimentBufferLen {
		s.keyBuffer = s.keyBuffer[len(s.keyBuffer)-complimentBufferLen:]
	}
	hit := strings.HasSuffix(s.keyBuffer, "mom")
	if hit {
		s.keyBuffer = ""
		s.triggerComplimentLocked()
	}
	s.mu.Unlock()
}

// triggerComplimentLocked picks a compliment the player has not seen yet
// (falling back to the full pool once exhausted) and halts the game until
// it is acknowledged. Callers hold s.mu.
func (s *Session) triggerComplimentLocked() {
	seen := s.loadSeenCompliments()
	unseen := make([]string, 0, len(complimentLines))
	for _, line := range complimentLines {
		if !seen[line] {
			unseen = append(unseen, line)
		}
	}
	pool := unseen
	if len(pool) == 0 {
		pool = complimentLines
	}
	s.pendingCompliment = pool[s.rng.Intn(len(pool))]
	s.pushEvent(s.pendingCompliment)
}

// AcceptCompliment acknowledges the pending compliment. The price of a
// compliment is everything: the run, the upgrades, the stats.
func (s *Session) AcceptCompliment() error {
	s.mu.Lock()
	line := s.pendingCompliment
	if line == "" {
		s.mu.Unlock()
		return nil
	}
	s.pendingCompliment = ""
	s.mu.Unlock()

	s.rememberCompliment(line)
	log.Println("Debug: compliment accepted, wiping save for session", s.id)
	s.fullWipe()
	return nil
}

func (s *Session) loadSeenCompliments() map[string]bool {
	seen := map[string]bool{}
	local := s.mgr.local
	if local == nil {
		return seen
	}
	raw, ok, err := local.Get(complimentSeenKey)
	if err != nil || !ok {
		return seen
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return seen
	}
	for _, l := range lines {
		seen[l] = true
	}
	return seen
}

func (s *Session) rememberCompliment(line string) {
	local := s.mgr.local
	if local == nil {
		return
	}
	seen := s.loadSeenCompliments()
	if seen[line] {
		return
	}
	seen[line] = true
	lines := make([]string, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return
	}
	if err := local.Put(complimentSeenKey, raw); err != nil {
		log.Println("Debug: failed to record compliment:", err)
	}
}
