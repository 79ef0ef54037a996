package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/betengine/internal/analyzer"
	"github.com/Vodeneev/betengine/internal/engine"
	"github.com/Vodeneev/betengine/internal/pkg/config"
	"github.com/Vodeneev/betengine/internal/pkg/logging"
	"github.com/Vodeneev/betengine/internal/pkg/storage"
)

const (
	defaultConfigPath = "configs/production.yaml"
)

func main() {
	fmt.Println("Starting Analyzer...")

	_ = godotenv.Load()

	var configPath string
	var healthAddr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&healthAddr, "health-addr", ":8080", "HTTP server listen address (e.g. :8080)")
	flag.Parse()

	fmt.Printf("Loading config from: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, err = logging.SetupLogger(&cfg.Logging, "analyzer")
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		slog.Info("Logging initialized", "service", "analyzer")
	}

	if cfg.Provider.BaseURL == "" {
		slog.Error("provider base_url is required in config")
		log.Fatalf("analyzer: provider base_url is required in config")
	}
	slog.Info("Using provider URL", "url", cfg.Provider.BaseURL)

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Analyzer.TelegramBotToken = token
		slog.Info("Using Telegram bot token from environment")
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.Analyzer.TelegramChatID = chatID
			slog.Info("Using Telegram chat ID from environment", "chat_id", chatID)
		}
	}

	eng, err := engine.New(cfg.Engine)
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	// PostgreSQL persistence only when async scanning is on
	var recStorage storage.RecommendationStorage
	var arbStorage storage.ArbitrageStorage
	if cfg.Analyzer.AsyncEnabled {
		postgresDSN := cfg.Postgres.DSN
		if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
			postgresDSN = envDSN
			log.Println("analyzer: using PostgreSQL DSN from POSTGRES_DSN environment variable")
		}
		if postgresDSN == "" {
			log.Fatalf("analyzer: postgres DSN is required when async is enabled. Set it in config or POSTGRES_DSN env var")
		}

		pgConfig := cfg.Postgres
		pgConfig.DSN = postgresDSN
		pgStorage, err := storage.NewPostgresStorage(&pgConfig)
		if err != nil {
			log.Fatalf("analyzer: failed to initialize PostgreSQL storage: %v", err)
		}
		recStorage = pgStorage
		arbStorage = pgStorage
		defer func() {
			if err := pgStorage.Close(); err != nil {
				log.Printf("analyzer: error closing PostgreSQL storage: %v", err)
			}
		}()

		// Drop stale arbitrage rows so old margins don't suppress alerts
		cleanCtx, cleanCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanCancel()
		cutoff := time.Now().Add(-24 * time.Hour)
		if n, err := pgStorage.CleanArbitrages(cleanCtx, cutoff); err != nil {
			log.Printf("analyzer: warning: failed to clean arbitrages: %v", err)
		} else if n > 0 {
			log.Printf("analyzer: cleaned %d stale arbitrage rows", n)
		}
	}

	client := analyzer.NewProviderClient(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	service := analyzer.New(eng, client, &cfg.Analyzer, recStorage, arbStorage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping analyzer...")
		cancel()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong\n"))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	service.RegisterHTTP(mux)

	srv := &http.Server{
		Addr:              healthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("HTTP server listening", "addr", healthAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("Starting analyzer...")
	if err := service.Start(ctx); err != nil {
		slog.Error("Analyzer failed", "error", err)
		log.Fatalf("Analyzer failed: %v", err)
	}

	slog.Info("Analyzer stopped")
}
