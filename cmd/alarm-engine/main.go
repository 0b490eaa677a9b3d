package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/engine"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/config"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/logging"
	"github.com/hazardyk27-sudo/smartxflow-sub001/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

func main() {
	var configPath string
	var healthAddr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&healthAddr, "health-addr", ":8080", "Health server listen address (e.g. :8080)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.SetupLogger(&cfg.Logging, "alarm-engine"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}
	slog.Info("Config loaded", "path", configPath)

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Postgres.DSN = dsn
		slog.Info("Using PostgreSQL DSN from environment")
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Engine.TelegramBotToken = token
		slog.Info("Using Telegram bot token from environment")
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.Engine.TelegramChatID = chatID
			slog.Info("Using Telegram chat ID from environment", "chat_id", chatID)
		}
	}

	snapshotStorage, err := storage.NewPostgresSnapshotStorage(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot storage: %v", err)
	}
	defer func() {
		if err := snapshotStorage.Close(); err != nil {
			slog.Error("Error closing snapshot storage", "error", err)
		}
	}()

	alarmStorage, err := storage.NewPostgresAlarmStorage(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize alarm storage: %v", err)
	}
	defer func() {
		if err := alarmStorage.Close(); err != nil {
			slog.Error("Error closing alarm storage", "error", err)
		}
	}()

	var notifier engine.AlarmNotifier
	var tgNotifier *engine.TelegramNotifier
	if cfg.Engine.TelegramBotToken != "" && cfg.Engine.TelegramChatID != 0 {
		tgNotifier = engine.NewTelegramNotifier(cfg.Engine.TelegramBotToken, cfg.Engine.TelegramChatID)
		if tgNotifier != nil {
			notifier = tgNotifier
			defer tgNotifier.Stop()
		}
	} else {
		slog.Info("Telegram notifier disabled, alarms will only be persisted")
	}

	eng := engine.New(cfg.Engine, snapshotStorage, alarmStorage, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping engine...")
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

	slog.Info("Starting alarm engine...")
	if err := eng.Start(ctx); err != nil {
		slog.Error("Engine failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Alarm engine stopped")
}
