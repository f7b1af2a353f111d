package main

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// Save envelope: JSON payload, base64 encoded, with a salted SHA-256 over
// the raw payload bytes. The hash catches accidental corruption and casual
// tampering; it is not a cryptographic signature and does not try to be.

const saveSalt = "beatTheOdds:v2:"

type saveEnvelope struct {
	Payload string `json:"payload"`
	Hash    string `json:"hash"`
}

var errCorruptSave = errors.New("save failed integrity check")

func savePayloadHash(payload []byte) string {
	h := sha256.New()
	h.Write([]byte(saveSalt))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func encodeSave(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	env := saveEnvelope{
		Payload: base64.StdEncoding.EncodeToString(payload),
		Hash:    savePayloadHash(payload),
	}
	return json.Marshal(env)
}

// decodeSave accepts either the current envelope or a legacy raw JSON
// structure. An envelope whose hash does not match is rejected outright;
// a half-trusted save is worse than no save.
func decodeSave(raw []byte, out any) error {
	var env saveEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Payload != "" && env.Hash != "" {
		payload, err := base64.StdEncoding.DecodeString(env.Payload)
		if err != nil {
			return errCorruptSave
		}
		if savePayloadHash(payload) != env.Hash {
			return errCorruptSave
		}
		return json.Unmarshal(payload, out)
	}
	// Legacy save: plain JSON, no hash. Still honored; missing fields are
	// backfilled by the caller.
	return json.Unmarshal(raw, out)
}

// decodeImportedState validates a foreign save file before it replaces
// anything. Rejection leaves the current state untouched.
func decodeImportedState(raw []byte) (*GameState, error) {
	gs := &GameState{}
	if err := decodeSave(raw, gs); err != nil {
		return nil, errors.New("save file is corrupted or not a valid export")
	}
	if gs.Money < 0 || gs.Streak < 0 || gs.MaxStreak < 0 || gs.TotalFlips < 0 ||
		gs.PrestigeLevel < 0 || gs.VoidFragments < 0 {
		return nil, errors.New("save file contains impossible values")
	}
	for id, level := range gs.Upgrades {
		cfg, ok := UpgradeByID(id)
		if !ok {
			return nil, errors.New("save file references an unknown upgrade")
		}
		if level < 0 || level > cfg.EffectiveMaxLevel(true) {
			return nil, errors.New("save file contains impossible upgrade levels")
		}
	}
	for _, r := range gs.History {
		if r != headsResult && r != tailsResult {
			return nil, errors.New("save file contains an invalid flip history")
		}
	}
	normalizeGameState(gs)
	return gs, nil
}
