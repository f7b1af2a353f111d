package main

import "unicode"

func isValidPlayerID(playerID string) bool {
	if playerID == "" || len(playerID) > 64 {
		return false
	}

	for _, r := range playerID {
		if r == '-' || r == '_' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}

	return true
}

// isValidPlayerName covers the display name used on the leaderboard.
// Spaces are fine, control characters and silly lengths are not.
func isValidPlayerName(name string) bool {
	if name == "" || len(name) > 24 {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
