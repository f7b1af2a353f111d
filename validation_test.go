package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPlayerID(t *testing.T) {
	assert.True(t, isValidPlayerID("player-1"))
	assert.True(t, isValidPlayerID("abc_DEF_123"))
	assert.False(t, isValidPlayerID(""))
	assert.False(t, isValidPlayerID("has space"))
	assert.False(t, isValidPlayerID("semi;colon"))
	assert.False(t, isValidPlayerID(strings.Repeat("a", 65)))
}

func TestIsValidPlayerName(t *testing.T) {
	assert.True(t, isValidPlayerName("Alice"))
	assert.True(t, isValidPlayerName("Mean Girl 99"))
	assert.False(t, isValidPlayerName(""))
	assert.False(t, isValidPlayerName(strings.Repeat("a", 25)))
	assert.False(t, isValidPlayerName("bad\x00name"))
	assert.False(t, isValidPlayerName("line\nbreak"))
}
