package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the board gateway.
type Config struct {
	Port   string
	DBPath string

	// Back-office upstream
	RestURL     string
	StreamURL   string
	Username    string
	Password    string
	UseMockFeed bool

	// Pull policy
	BoardStaleAfter       time.Duration
	BoardRefreshInterval  time.Duration
	DetailStaleAfter      time.Duration
	DetailRefreshInterval time.Duration
	StreamRetryWait       time.Duration
	SnapshotInterval      time.Duration

	// Local API auth
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	// Watchlist
	WatchlistPath string

	// NATS mirror
	NATSEnabled       bool
	NATSURL           string
	NATSSubjectPrefix string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./data/marketboard.db"),

		RestURL:     getEnv("BACKOFFICE_REST_URL", "https://backoffice.local/api"),
		StreamURL:   getEnv("BACKOFFICE_STREAM_URL", "wss://backoffice.local/api/stream"),
		Username:    os.Getenv("BACKOFFICE_USERNAME"),
		Password:    os.Getenv("BACKOFFICE_PASSWORD"),
		UseMockFeed: getEnv("USE_MOCK_FEED", "false") == "true",

		BoardStaleAfter:       getEnvDuration("BOARD_STALE_AFTER", 5*time.Second),
		BoardRefreshInterval:  getEnvDuration("BOARD_REFRESH_INTERVAL", 15*time.Second),
		DetailStaleAfter:      getEnvDuration("DETAIL_STALE_AFTER", 10*time.Second),
		DetailRefreshInterval: getEnvDuration("DETAIL_REFRESH_INTERVAL", 30*time.Second),
		StreamRetryWait:       getEnvDuration("STREAM_RETRY_WAIT", 3*time.Second),
		SnapshotInterval:      getEnvDuration("SNAPSHOT_INTERVAL", time.Minute),

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@backoffice.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		WatchlistPath: getEnv("WATCHLIST_PATH", "watchlist.yaml"),

		NATSEnabled:       getEnv("NATS_ENABLED", "false") == "true",
		NATSURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "marketboard"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
