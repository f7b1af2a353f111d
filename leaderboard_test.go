package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardServer is a fake remote blob host: GET returns the document, POST
// replaces it.
type boardServer struct {
	mu    sync.Mutex
	doc   []byte
	posts int
	gets  int
	fail  bool
}

func newBoardServer(t *testing.T) (*boardServer, *httptest.Server) {
	t.Helper()
	bs := &boardServer{doc: []byte(`{}`)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs.mu.Lock()
		defer bs.mu.Unlock()
		if bs.fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.Method {
		case http.MethodGet:
			bs.gets++
			w.Write(bs.doc)
		case http.MethodPost:
			bs.posts++
			body, _ := io.ReadAll(r.Body)
			bs.doc = body
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)
	return bs, srv
}

func (bs *boardServer) board(t *testing.T) *GlobalLeaderboard {
	t.Helper()
	bs.mu.Lock()
	defer bs.mu.Unlock()
	var board GlobalLeaderboard
	require.NoError(t, json.Unmarshal(bs.doc, &board))
	board.normalize()
	return &board
}

func newTestClient(t *testing.T, endpoint string) (*LeaderboardClient, *memStore) {
	t.Helper()
	local := newMemStore()
	c := NewLeaderboardClient(endpoint, local)
	t.Cleanup(c.Close)
	return c, local
}

func entry(name string, score int64) LeaderboardEntry {
	return LeaderboardEntry{Name: name, Score: score, Date: 1700000000000}
}

func TestSubmitNewEntry(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, 1)
	assert.Equal(t, "alice", board.Rich[0].Name)
	assert.Equal(t, int64(500), board.Rich[0].Score)
}

func TestScoreNeverDecreases(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 300)}})
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, 1)
	assert.Equal(t, int64(500), board.Rich[0].Score, "a lower score must not overwrite")
}

func TestEqualScoreSkipsPost(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.Flush()
	bs.mu.Lock()
	postsAfterFirst := bs.posts
	bs.mu.Unlock()

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.Flush()

	bs.mu.Lock()
	defer bs.mu.Unlock()
	assert.Equal(t, postsAfterFirst, bs.posts, "no-change merge must not push")
}

func TestEqualScoreDifferentTitleUpdates(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	withTitle := entry("alice", 500)
	withTitle.Title = titleDefier
	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: withTitle}})
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, 1)
	assert.Equal(t, titleDefier, board.Rich[0].Title)
}

func TestBoardSortedAndTrimmed(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	for i := 0; i < leaderboardMaxEntries+5; i++ {
		c.SubmitScores([]ScoreUpdate{{
			Category: categoryRich,
			Entry:    entry(fmt.Sprintf("player-%d", i), int64(100+i)),
		}})
	}
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, leaderboardMaxEntries)
	for i := 1; i < len(board.Rich); i++ {
		assert.GreaterOrEqual(t, board.Rich[i-1].Score, board.Rich[i].Score)
	}
	// The lowest submissions fell off the end.
	assert.Equal(t, int64(100+leaderboardMaxEntries+4), board.Rich[0].Score)
}

func TestFetchFailureFallsBackToLocal(t *testing.T) {
	bs, srv := newBoardServer(t)
	bs.mu.Lock()
	bs.fail = true
	bs.mu.Unlock()

	c, local := newTestClient(t, srv.URL)
	c.SubmitScores([]ScoreUpdate{{Category: categoryPurist, Entry: entry("bob", 3)}})
	c.Flush()

	bs.mu.Lock()
	assert.Zero(t, bs.posts, "failed fetch must not be followed by a push")
	bs.mu.Unlock()

	raw, ok, err := local.Get(leaderboardLocalKey)
	require.NoError(t, err)
	require.True(t, ok, "scores must land in the local fallback")
	var board GlobalLeaderboard
	require.NoError(t, json.Unmarshal(raw, &board))
	require.Len(t, board.Purist, 1)
	assert.Equal(t, "bob", board.Purist[0].Name)
}

func TestSubmissionsApplyInOrder(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	for score := int64(1); score <= 10; score++ {
		c.SubmitScores([]ScoreUpdate{{Category: categoryPrestige, Entry: entry("carol", score)}})
	}
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Prestige, 1)
	assert.Equal(t, int64(10), board.Prestige[0].Score)
}

func TestWipeCheaters(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{
		{Category: categoryRich, Entry: entry("alice", 900)},
		{Category: categoryRich, Entry: entry(flaggedCheaterName, 999999)},
		{Category: categoryMommy, Entry: entry("cheater", 5)},
	})
	c.WipeCheaters()
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, 1)
	assert.Equal(t, "alice", board.Rich[0].Name)
	assert.Empty(t, board.Mommy, "wipe matches case-insensitively")
}

func TestSnapshotPrefersRemote(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.Flush()

	board, live := c.Snapshot()
	assert.True(t, live)
	require.Len(t, board.Rich, 1)

	bs.mu.Lock()
	bs.fail = true
	bs.mu.Unlock()
	fallback, live := c.Snapshot()
	assert.False(t, live)
	assert.NotNil(t, fallback)
}

func TestMalformedRemoteDocumentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(srv.Close)

	c, local := newTestClient(t, srv.URL)
	c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("alice", 500)}})
	c.Flush()

	// A document that is not JSON at all is treated as unreachable:
	// local fallback only.
	raw, ok, err := local.Get(leaderboardLocalKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, raw)
}

func TestWrongTypedCategoryReadsEmpty(t *testing.T) {
	bs, srv := newBoardServer(t)
	bs.mu.Lock()
	bs.doc = []byte(`{"purist":"corrupt","rich":[{"name":"alice","score":500,"date":1}]}`)
	bs.mu.Unlock()

	c, local := newTestClient(t, srv.URL)
	c.SubmitScores([]ScoreUpdate{{Category: categoryPurist, Entry: entry("bob", 3)}})
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Purist, 1, "one bad category must not block the submission")
	assert.Equal(t, "bob", board.Purist[0].Name)
	require.Len(t, board.Rich, 1, "intact categories survive the lenient decode")
	assert.Equal(t, "alice", board.Rich[0].Name)

	_, ok, err := local.Get(leaderboardLocalKey)
	require.NoError(t, err)
	assert.False(t, ok, "a decodable document must not divert to the fallback")
}

func TestSaturatedQueueLosesNothing(t *testing.T) {
	bs, srv := newBoardServer(t)
	c, _ := newTestClient(t, srv.URL)

	// Stall the worker so submissions pile up past the channel buffer.
	release := make(chan struct{})
	c.ops <- func() { <-release }

	total := int64(2 * cap(c.ops))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for score := int64(1); score <= total; score++ {
			c.SubmitScores([]ScoreUpdate{{Category: categoryRich, Entry: entry("dave", score)}})
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(c.ops) < cap(c.ops) {
		if time.Now().After(deadline) {
			t.Fatal("queue never filled")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	<-done
	c.Flush()

	board := bs.board(t)
	require.Len(t, board.Rich, 1)
	assert.Equal(t, total, board.Rich[0].Score, "every queued score must eventually apply")
}
