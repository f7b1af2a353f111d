package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	categoryPurist   = "purist"
	categoryPrestige = "prestige"
	categoryRich     = "rich"
	categoryMommy    = "mommy"

	leaderboardMaxEntries = 20
	leaderboardLocalKey   = "leaderboard:local"

	// Runs that used debug cheats still get on the board, just not
	// under the player's own name.
	flaggedCheaterName = "CHEATER"
)

type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
	Date  int64  `json:"date"`
	Title string `json:"title,omitempty"`
}

type GlobalLeaderboard struct {
	Purist   []LeaderboardEntry `json:"purist"`
	Prestige []LeaderboardEntry `json:"prestige"`
	Rich     []LeaderboardEntry `json:"rich"`
	Mommy    []LeaderboardEntry `json:"mommy"`
}

func (b *GlobalLeaderboard) normalize() {
	if b.Purist == nil {
		b.Purist = []LeaderboardEntry{}
	}
	if b.Prestige == nil {
		b.Prestige = []LeaderboardEntry{}
	}
	if b.Rich == nil {
		b.Rich = []LeaderboardEntry{}
	}
	if b.Mommy == nil {
		b.Mommy = []LeaderboardEntry{}
	}
}

func (b *GlobalLeaderboard) category(name string) *[]LeaderboardEntry {
	switch name {
	case categoryPurist:
		return &b.Purist
	case categoryPrestige:
		return &b.Prestige
	case categoryRich:
		return &b.Rich
	case categoryMommy:
		return &b.Mommy
	}
	return nil
}

type ScoreUpdate struct {
	Category string
	Entry    LeaderboardEntry
}

// LeaderboardClient syncs scores against a dumb remote JSON blob: fetch the
// whole document, merge our updates in, push the whole document back. A
// single worker goroutine applies operations in submission order, so two
// quick wins from the same player can never race each other.
type LeaderboardClient struct {
	endpoint string
	http     *http.Client
	local    SaveStore
	ops      chan func()
	done     chan struct{}
}

func NewLeaderboardClient(endpoint string, local SaveStore) *LeaderboardClient {
	c := &LeaderboardClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		local:    local,
		ops:      make(chan func(), 64),
		done:     make(chan struct{}),
	}
	go c.worker()
	return c
}

func (c *LeaderboardClient) worker() {
	defer close(c.done)
	for op := range c.ops {
		op()
	}
}

func (c *LeaderboardClient) Close() {
	close(c.ops)
	<-c.done
}

// Flush blocks until every previously enqueued operation has finished.
func (c *LeaderboardClient) Flush() {
	wait := make(chan struct{})
	c.ops <- func() { close(wait) }
	<-wait
}

// enqueue blocks when the buffer is saturated. A score is never dropped;
// the buffer only absorbs bursts so a flip resolution rarely waits.
func (c *LeaderboardClient) enqueue(op func()) {
	c.ops <- op
}

func (c *LeaderboardClient) SubmitScores(updates []ScoreUpdate) {
	if len(updates) == 0 {
		return
	}
	c.enqueue(func() { c.applyUpdates(updates) })
}

func (c *LeaderboardClient) WipeCheaters() {
	c.enqueue(func() { c.wipeCheaters() })
}

func (c *LeaderboardClient) fetch() (*GlobalLeaderboard, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("leaderboard endpoint not configured")
	}
	// Cache-buster: the blob host is aggressively cached.
	url := fmt.Sprintf("%s?_=%d", c.endpoint, time.Now().UnixMilli())
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard fetch status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("leaderboard fetch: malformed document: %w", err)
	}
	// Per-category decode: one wrong-typed array must not poison the
	// whole document, it just reads as empty.
	board := &GlobalLeaderboard{
		Purist:   decodeEntries(raw[categoryPurist]),
		Prestige: decodeEntries(raw[categoryPrestige]),
		Rich:     decodeEntries(raw[categoryRich]),
		Mommy:    decodeEntries(raw[categoryMommy]),
	}
	return board, nil
}

func decodeEntries(raw json.RawMessage) []LeaderboardEntry {
	var entries []LeaderboardEntry
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil || entries == nil {
		return []LeaderboardEntry{}
	}
	return entries
}

func (c *LeaderboardClient) push(board *GlobalLeaderboard) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.endpoint, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leaderboard push status %d", resp.StatusCode)
	}
	return nil
}

func (c *LeaderboardClient) applyUpdates(updates []ScoreUpdate) {
	board, err := c.fetch()
	if err != nil {
		log.Println("Leaderboard: fetch failed, keeping scores locally:", err)
		c.applyLocal(updates)
		return
	}
	if !mergeUpdates(board, updates) {
		return
	}
	if err := c.push(board); err != nil {
		log.Println("Leaderboard: push failed, keeping scores locally:", err)
		c.applyLocal(updates)
	}
}

// mergeUpdates folds updates into the board and reports whether anything
// actually changed. A player's entry is only ever replaced by a strictly
// higher score, or by an equal score carrying a different title.
func mergeUpdates(board *GlobalLeaderboard, updates []ScoreUpdate) bool {
	changed := false
	for _, u := range updates {
		entries := board.category(u.Category)
		if entries == nil {
			log.Println("Leaderboard: unknown category:", u.Category)
			continue
		}
		if mergeEntry(entries, u.Entry) {
			changed = true
		}
	}
	return changed
}

func mergeEntry(entries *[]LeaderboardEntry, e LeaderboardEntry) bool {
	for i := range *entries {
		if (*entries)[i].Name != e.Name {
			continue
		}
		if e.Score > (*entries)[i].Score {
			(*entries)[i] = e
			sortAndTrim(entries)
			return true
		}
		if e.Score == (*entries)[i].Score && e.Title != (*entries)[i].Title {
			(*entries)[i] = e
			return true
		}
		return false
	}
	*entries = append(*entries, e)
	sortAndTrim(entries)
	return true
}

func sortAndTrim(entries *[]LeaderboardEntry) {
	sort.SliceStable(*entries, func(i, j int) bool {
		return (*entries)[i].Score > (*entries)[j].Score
	})
	if len(*entries) > leaderboardMaxEntries {
		*entries = (*entries)[:leaderboardMaxEntries]
	}
}

func (c *LeaderboardClient) wipeCheaters() {
	board, err := c.fetch()
	if err != nil {
		log.Println("Leaderboard: wipe fetch failed:", err)
		return
	}
	changed := false
	for _, entries := range []*[]LeaderboardEntry{&board.Purist, &board.Prestige, &board.Rich, &board.Mommy} {
		kept := (*entries)[:0]
		for _, e := range *entries {
			if strings.EqualFold(e.Name, flaggedCheaterName) {
				changed = true
				continue
			}
			kept = append(kept, e)
		}
		*entries = kept
	}
	if !changed {
		return
	}
	if err := c.push(board); err != nil {
		log.Println("Leaderboard: wipe push failed:", err)
	}
}

/* ======================
   Local fallback board
   ====================== */

func (c *LeaderboardClient) applyLocal(updates []ScoreUpdate) {
	board := c.loadLocal()
	if !mergeUpdates(board, updates) {
		return
	}
	raw, err := json.Marshal(board)
	if err != nil {
		log.Println("Leaderboard: local encode failed:", err)
		return
	}
	if err := c.local.Put(leaderboardLocalKey, raw); err != nil {
		log.Println("Leaderboard: local save failed:", err)
	}
}

func (c *LeaderboardClient) loadLocal() *GlobalLeaderboard {
	board := &GlobalLeaderboard{}
	board.normalize()
	if c.local == nil {
		return board
	}
	raw, ok, err := c.local.Get(leaderboardLocalKey)
	if err != nil || !ok {
		return board
	}
	if err := json.Unmarshal(raw, board); err != nil {
		log.Println("Leaderboard: local board corrupt, starting fresh")
		return &GlobalLeaderboard{Purist: []LeaderboardEntry{}, Prestige: []LeaderboardEntry{}, Rich: []LeaderboardEntry{}, Mommy: []LeaderboardEntry{}}
	}
	board.normalize()
	return board
}

// Snapshot returns the best board we can show: the remote document when
// reachable, otherwise the locally accumulated fallback.
func (c *LeaderboardClient) Snapshot() (*GlobalLeaderboard, bool) {
	board, err := c.fetch()
	if err != nil {
		return c.loadLocal(), false
	}
	return board, true
}
