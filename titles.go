package main

import "errors"

const (
	titleDefier        = "defier"
	titlePurist        = "purist"
	titleSurvivor      = "survivor"
	titleAscendant     = "ascendant"
	titleMillionaire   = "millionaire"
	titleMamasFavorite = "mamas_favorite"
)

type Title struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Secret      bool   `json:"secret,omitempty"`
}

var titleTable = map[string]Title{
	titleDefier:        {ID: titleDefier, Name: "Defier", Description: "Beat the odds."},
	titlePurist:        {ID: titlePurist, Name: "Purist", Description: "Won without a single automated flip."},
	titleSurvivor:      {ID: titleSurvivor, Name: "Survivor", Description: "Beat the odds on hard mode."},
	titleAscendant:     {ID: titleAscendant, Name: "Ascendant", Description: "Walked into the void and came back."},
	titleMillionaire:   {ID: titleMillionaire, Name: "Millionaire", Description: "Held a seven figure stack at the moment of victory."},
	titleMamasFavorite: {ID: titleMamasFavorite, Name: "Mama's Favorite", Description: "You pressed it.", Secret: true},
}

// unlockTitleLocked records a title at the given level; levels only go up.
// Caller holds s.mu.
func (s *Session) unlockTitleLocked(id string, level int) {
	if level < 1 {
		return
	}
	if _, ok := titleTable[id]; !ok {
		return
	}
	if s.state.UnlockedTitles[id] < level {
		s.state.UnlockedTitles[id] = level
	}
}

// unlockTitlesOnWinLocked applies every title rule a win can satisfy.
func (s *Session) unlockTitlesOnWinLocked() {
	gs := s.state
	s.unlockTitleLocked(titleDefier, 1)
	if gs.IsPuristRun {
		s.unlockTitleLocked(titlePurist, int(s.stats.PuristWins))
	}
	if gs.HardMode {
		s.unlockTitleLocked(titleSurvivor, int(s.stats.HardModeWins))
	}
	if gs.Money >= 1000000 {
		s.unlockTitleLocked(titleMillionaire, 1)
	}
}

// SetActiveTitle activates an unlocked title; empty clears it.
func (s *Session) SetActiveTitle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.state.ActiveTitle = ""
		s.markDirty()
		return nil
	}
	if _, ok := s.state.UnlockedTitles[id]; !ok {
		return errors.New("title not unlocked")
	}
	s.state.ActiveTitle = id
	s.markDirty()
	return nil
}
