package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// sim-runner drives the server's balance simulation endpoint and prints the
// report. Meant for cron jobs and manual calibration checks.

type SimRequest struct {
	Seed           int64 `json:"seed"`
	Runs           int   `json:"runs"`
	HardMode       bool  `json:"hardMode"`
	MaxFlipsPerRun int   `json:"maxFlipsPerRun"`
	PrestigeLevel  int   `json:"prestigeLevel"`
}

type SimResponse struct {
	Metrics struct {
		RunsCompleted    int     `json:"runsCompleted"`
		RunsAborted      int     `json:"runsAborted"`
		AvgFlipsToWin    float64 `json:"avgFlipsToWin"`
		MedianFlipsToWin int     `json:"medianFlipsToWin"`
		MaxFlipsToWin    int     `json:"maxFlipsToWin"`
		AvgMoneyAtWin    float64 `json:"avgMoneyAtWin"`
		AvgPlaySeconds   float64 `json:"avgPlaySeconds"`
	} `json:"metrics"`
	Assertions struct {
		ProbabilityMonotonic bool `json:"probabilityMonotonic"`
		ProbabilityCapped    bool `json:"probabilityCapped"`
		DurationFloored      bool `json:"durationFloored"`
	} `json:"assertions"`
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		logError("API_BASE_URL is required")
		os.Exit(1)
	}
	adminKey := strings.TrimSpace(os.Getenv("ADMIN_KEY"))
	if adminKey == "" {
		logError("ADMIN_KEY is required")
		os.Exit(1)
	}

	request := SimRequest{
		Seed:           int64(parseEnvInt("SIM_SEED", int(time.Now().Unix()))),
		Runs:           parseEnvInt("SIM_RUNS", 200),
		HardMode:       parseEnvBool("SIM_HARD_MODE", false),
		MaxFlipsPerRun: parseEnvInt("SIM_MAX_FLIPS", 0),
		PrestigeLevel:  parseEnvInt("SIM_PRESTIGE_LEVEL", 0),
	}

	client := &http.Client{Timeout: 5 * time.Minute}

	body, _ := json.Marshal(request)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/admin/simulate", bytes.NewReader(body))
	if err != nil {
		logError(fmt.Sprintf("request build failed: %v", err))
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", adminKey)

	logInfo(fmt.Sprintf("running simulation: runs=%d seed=%d hardMode=%v", request.Runs, request.Seed, request.HardMode))

	res, err := client.Do(req)
	if err != nil {
		logError(fmt.Sprintf("simulation request failed: %v", err))
		os.Exit(1)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		logError(fmt.Sprintf("simulation returned status %d: %s", res.StatusCode, strings.TrimSpace(string(raw))))
		os.Exit(1)
	}

	var report SimResponse
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		logError(fmt.Sprintf("failed to decode report: %v", err))
		os.Exit(1)
	}

	logInfo(fmt.Sprintf("runs completed: %d (aborted: %d)", report.Metrics.RunsCompleted, report.Metrics.RunsAborted))
	logInfo(fmt.Sprintf("flips to win: avg=%.1f median=%d max=%d", report.Metrics.AvgFlipsToWin, report.Metrics.MedianFlipsToWin, report.Metrics.MaxFlipsToWin))
	logInfo(fmt.Sprintf("money at win: avg=%.0f", report.Metrics.AvgMoneyAtWin))
	logInfo(fmt.Sprintf("play time to win: avg=%.0fs", report.Metrics.AvgPlaySeconds))

	if !report.Assertions.ProbabilityMonotonic || !report.Assertions.ProbabilityCapped || !report.Assertions.DurationFloored {
		logError(fmt.Sprintf("economy invariants violated: %+v", report.Assertions))
		os.Exit(1)
	}
	logInfo("economy invariants hold")
}

func parseEnvInt(key string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEnvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	return raw == "true" || raw == "1" || raw == "yes" || raw == "on"
}

func logInfo(message string) {
	fmt.Printf("[INFO] %s %s\n", time.Now().Format(time.RFC3339), message)
}

func logError(message string) {
	fmt.Printf("[ERROR] %s %s\n", time.Now().Format(time.RFC3339), message)
}
