package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	log.Println("App environment:", env)

	flags := loadFeatureFlags()
	if flags.DebugKeys {
		log.Println("⚠️  DEBUG KEYS ENABLED")
	}

	// Device-local store: offline saves, compliment history, the local
	// leaderboard fallback.
	localPath := os.Getenv("LOCAL_STORE_PATH")
	if localPath == "" {
		localPath = "beat-the-odds.db"
	}
	local, err := OpenSQLiteStore(localPath)
	if err != nil {
		log.Fatal("failed to open local store:", err)
	}
	defer local.Close()
	log.Println("Local store:", localPath)

	// Primary save store: Postgres when configured, otherwise the local
	// sqlite store doubles as the save backend.
	var db *sql.DB
	var saves SaveStore = local
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		db, err = sql.Open("postgres", dbURL)
		if err != nil {
			log.Fatal("failed to open database:", err)
		}
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		if err := db.Ping(); err != nil {
			log.Fatal("failed to ping database:", err)
		}
		log.Println("Connected to PostgreSQL")

		if err := ensureSchema(db); err != nil {
			log.Fatal("Failed to ensure schema:", err)
		}
		if err := LoadGameSettings(db); err != nil {
			log.Println("Failed to load game settings:", err)
		}
		saves = NewPGStore(db)
	} else {
		log.Println("DATABASE_URL not set; running in local save mode")
	}

	deps := &serverDeps{db: db, flags: flags}

	var board *LeaderboardClient
	if flags.Leaderboard {
		endpoint := os.Getenv("LEADERBOARD_URL")
		if endpoint == "" {
			log.Println("LEADERBOARD_URL not set; leaderboard runs on local fallback only")
		}
		board = NewLeaderboardClient(endpoint, local)
		defer board.Close()
	}

	mgr := NewSessionManager(saves, local, board, deps)
	defer mgr.CloseAll()

	startFlushLoop(mgr)

	mux := http.NewServeMux()
	registerRoutes(mux, mgr, deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server failed:", err)
	}
}

/* ======================
   Routes
   ====================== */

func registerRoutes(mux *http.ServeMux, mgr *SessionManager, deps *serverDeps) {
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/player/new", newPlayerHandler(mgr))
	mux.HandleFunc("/state", stateHandler(mgr))
	mux.HandleFunc("/flip", flipHandler(mgr))
	mux.HandleFunc("/buy", buyHandler(mgr))
	mux.HandleFunc("/ascend", ascendHandler(mgr))
	mux.HandleFunc("/hard-mode", hardModeHandler(mgr))
	mux.HandleFunc("/name", nameHandler(mgr))
	mux.HandleFunc("/title", titleHandler(mgr))
	mux.HandleFunc("/auto-flip", autoFlipHandler(mgr))
	mux.HandleFunc("/auto-buy", autoBuyHandler(mgr))
	mux.HandleFunc("/reset", resetHandler(mgr))
	mux.HandleFunc("/save/export", exportHandler(mgr))
	mux.HandleFunc("/save/import", importHandler(mgr))
	mux.HandleFunc("/leaderboard", leaderboardHandler(mgr))
	mux.HandleFunc("/debug/key", debugKeyHandler(mgr))
	mux.HandleFunc("/debug/compliment", complimentHandler(mgr))
	mux.HandleFunc("/telemetry", telemetryHandler(deps))
	mux.HandleFunc("/admin/wipe-cheaters", adminWipeCheatersHandler(mgr))
	mux.HandleFunc("/admin/settings", adminSettingsHandler(deps))
	mux.HandleFunc("/admin/simulate", adminSimulateHandler())
}
