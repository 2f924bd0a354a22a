package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"tubegrab/internal/adapters/httpapi"
	"tubegrab/internal/adapters/localstore"
	"tubegrab/internal/adapters/rediscache"
	"tubegrab/internal/adapters/ytdlp"
	"tubegrab/internal/config"
	"tubegrab/internal/core/ports"
	"tubegrab/internal/credential"
	"tubegrab/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist, environment variables might be set manually
		log.Println("No .env file found")
	}

	cfg := config.Load()

	// Setup logger
	logger := log.New(os.Stdout, "", log.LstdFlags)

	// Initialize adapters
	store := localstore.New(cfg.DownloadDir)
	if err := store.Ensure(); err != nil {
		logger.Fatalf("Failed to prepare download directory: %v", err)
	}

	gate := credential.NewGate(cfg.CookiesFile)
	if !gate.Authenticated() {
		logger.Printf("No cookies at %s, downloads will require one before they can run", gate.FilePath())
	}

	extractor := ytdlp.New(cfg.YtDlpPath, cfg.ProbeTimeout, cfg.FetchTimeout)

	var cache ports.MetadataCache
	if cfg.RedisAddr != "" {
		c, err := rediscache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, logger)
		if err != nil {
			logger.Printf("Probe cache disabled: %v", err)
		} else {
			logger.Printf("Probe cache connected: %s", cfg.RedisAddr)
			cache = c
		}
	}

	svc := service.New(extractor, gate, cache, store.Dir(), logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	handler := httpapi.New(svc, store, limiter, logger)

	mux := http.NewServeMux()
	handler.Register(mux, cfg.StaticDir)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Received interrupt signal, shutting down...")
		os.Exit(0)
	}()

	logger.Printf("Listening on %s, serving downloads from %s", cfg.ListenAddr, store.Dir())
	logger.Fatal(http.ListenAndServe(cfg.ListenAddr, mux))
}
