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
	"github.com/Vodeneev/betengine/internal/live"
	"github.com/Vodeneev/betengine/internal/pkg/config"
	"github.com/Vodeneev/betengine/internal/pkg/logging"
	"github.com/Vodeneev/betengine/internal/pkg/models"
)

const (
	defaultConfigPath = "configs/production.yaml"

	// Snapshot channel buffer; bursts beyond this are dropped by the feed.
	snapshotBuffer = 256
)

func main() {
	fmt.Println("Starting Live Monitor...")

	_ = godotenv.Load()

	var configPath string
	var healthAddr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&healthAddr, "health-addr", ":8081", "HTTP server listen address (e.g. :8081)")
	flag.Parse()

	fmt.Printf("Loading config from: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, err = logging.SetupLogger(&cfg.Logging, "livemonitor")
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		slog.Info("Logging initialized", "service", "livemonitor")
	}

	if cfg.LiveFeed.URL == "" {
		slog.Error("live_feed url is required in config")
		log.Fatalf("livemonitor: live_feed url is required in config")
	}
	slog.Info("Using live feed", "url", cfg.LiveFeed.URL)

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

	var notifier *analyzer.TelegramNotifier
	if cfg.Analyzer.TelegramBotToken != "" && cfg.Analyzer.TelegramChatID != 0 {
		notifier = analyzer.NewTelegramNotifier(cfg.Analyzer.TelegramBotToken, cfg.Analyzer.TelegramChatID)
	} else {
		log.Println("livemonitor: telegram credentials not configured, alerts disabled")
	}

	liveEngine := engine.NewLiveBettingEngine(cfg.Engine.Live)
	monitor := live.NewMonitor(liveEngine, &cfg.LiveFeed, notifier)

	snapChan := make(chan models.LiveSnapshot, snapshotBuffer)
	listener := live.NewListener(cfg.LiveFeed.URL, snapChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping live monitor...")
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
	monitor.RegisterHTTP(mux)

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

	listener.Start(ctx)

	slog.Info("Starting live monitor...")
	monitor.Run(ctx, snapChan)

	listener.Stop()
	if notifier != nil {
		notifier.Stop()
	}

	slog.Info("Live Monitor stopped")
}
