package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the server needs at startup.
type Config struct {
	ListenAddr   string
	DownloadDir  string
	CookiesFile  string
	StaticDir    string
	YtDlpPath    string
	ProbeTimeout time.Duration
	FetchTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		DownloadDir:    "downloads",
		CookiesFile:    "cookies.txt",
		StaticDir:      "static",
		YtDlpPath:      "yt-dlp",
		ProbeTimeout:   45 * time.Second,
		FetchTimeout:   10 * time.Minute,
		CacheTTL:       15 * time.Minute,
		RateLimitRPS:   100,
		RateLimitBurst: 200,
	}
}

// Load builds the configuration from defaults overridden by
// environment variables. Malformed values keep the default.
func Load() Config {
	cfg := Default()

	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.DownloadDir, "DOWNLOAD_DIR")
	setString(&cfg.CookiesFile, "COOKIES_FILE")
	setString(&cfg.StaticDir, "STATIC_DIR")
	setString(&cfg.YtDlpPath, "YTDLP_PATH")
	setDuration(&cfg.ProbeTimeout, "PROBE_TIMEOUT")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")

	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "REDIS_DB")
	setDuration(&cfg.CacheTTL, "CACHE_TTL")

	setFloat(&cfg.RateLimitRPS, "RATE_LIMIT_RPS")
	setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
