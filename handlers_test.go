package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mgr := newTestManager(t, nil)
	mux := http.NewServeMux()
	registerRoutes(mux, mgr, mgr.deps)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewPlayerMintsUsableID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/player/new", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	playerID := body["playerId"]
	require.NotEmpty(t, playerID)
	assert.True(t, isValidPlayerID(playerID))

	state, err := http.Get(srv.URL + "/state?playerId=" + playerID)
	require.NoError(t, err)
	defer state.Body.Close()
	assert.Equal(t, http.StatusOK, state.StatusCode)
}

func TestStateRejectsBadPlayerID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/state?playerId=not%20valid!")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStateViewShape(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/state?playerId=smoke-test")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view StateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "idle", view.Phase)
	assert.InDelta(t, 0.20, view.FlipChance, 1e-9)
	assert.Equal(t, 10, view.WinThreshold)
	assert.NotEmpty(t, view.Upgrades, "a fresh player still sees the base upgrades")
}

func TestStateViewDetachedFromLiveState(t *testing.T) {
	s := newTestSession(t)
	view := s.stateView()

	s.mu.Lock()
	s.state.Upgrades[UpgradeChance] = 7
	s.state.UnlockedTitles[titleDefier] = 1
	s.state.History = append([]string{"H"}, s.state.History...)
	s.mu.Unlock()

	assert.Zero(t, view.State.Upgrades[UpgradeChance], "view must not alias the live upgrade map")
	assert.Empty(t, view.State.UnlockedTitles)
	assert.Empty(t, view.State.History)
}

func TestStateViewEncodesDuringMutation(t *testing.T) {
	s := newTestSession(t)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			s.mu.Lock()
			s.state.Upgrades[UpgradeChance] = i % 5
			s.state.UnlockedTitles[titleDefier] = 1 + i%3
			s.mu.Unlock()
		}
	}()

	// Encoding happens after the lock is released, so the view must hold
	// its own copies of the maps.
	for i := 0; i < 200; i++ {
		require.NoError(t, json.NewEncoder(io.Discard).Encode(s.stateView()))
	}
	close(stop)
	wg.Wait()
}

func TestFlipConflictWhileResolving(t *testing.T) {
	srv := newTestServer(t)

	first, err := http.Post(srv.URL+"/flip?playerId=smoke-test", "application/json", nil)
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Post(srv.URL+"/flip?playerId=smoke-test", "application/json", nil)
	require.NoError(t, err)
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestBuyUnknownUpgradeIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/buy?playerId=smoke-test", "application/json",
		strings.NewReader(`{"upgradeId":"MEGA_COIN"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTelemetryGatedByFlag(t *testing.T) {
	srv := newTestServer(t)

	// Test deps run with telemetry off and no database.
	resp, err := http.Post(srv.URL+"/telemetry", "application/json",
		strings.NewReader(`{"playerId":"smoke-test","eventType":"flip"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesNeedKey(t *testing.T) {
	t.Setenv("ADMIN_KEY", "sekrit")
	srv := newTestServer(t)

	unauth, err := http.Post(srv.URL+"/admin/simulate", "application/json",
		strings.NewReader(`{"runs":1}`))
	require.NoError(t, err)
	unauth.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/simulate",
		strings.NewReader(`{"seed":1,"runs":1,"maxFlipsPerRun":100000}`))
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", "sekrit")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	require.Equal(t, http.StatusOK, authed.StatusCode)

	var report SimReport
	require.NoError(t, json.NewDecoder(authed.Body).Decode(&report))
	assert.True(t, report.Assertions.ProbabilityCapped)
}

func TestAdminRoutesHiddenWithoutKeyConfigured(t *testing.T) {
	t.Setenv("ADMIN_KEY", "")
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/admin/simulate", "application/json",
		strings.NewReader(`{"runs":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
