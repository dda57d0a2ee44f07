package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/batchflow/internal/api"
	"github.com/Spok95/batchflow/internal/config"
	"github.com/Spok95/batchflow/internal/fulfillment"
	"github.com/Spok95/batchflow/internal/infra/db"
	"github.com/Spok95/batchflow/internal/infra/documents"
	httpx "github.com/Spok95/batchflow/internal/infra/http"
	"github.com/Spok95/batchflow/internal/infra/logger"
	"github.com/Spok95/batchflow/internal/infra/notify"
	"github.com/Spok95/batchflow/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	eng := fulfillment.New(postgres.New(pool), log, fulfillment.Options{
		MaxAttempts: cfg.Fulfillment.MaxAttempts,
		RetryBase:   cfg.Fulfillment.RetryBase,
		Notifier:    notifier(cfg, log),
	})

	router := api.NewRouter(eng, documents.NewService(cfg.Documents.BaseURL), log)
	srv := httpx.New(cfg.HTTP.Addr, router, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

// notifier always logs notifications and, with a bot token configured, also
// posts them to the Telegram admin chat.
func notifier(cfg config.Config, log *slog.Logger) fulfillment.Notifier {
	out := fulfillment.MultiNotifier{notify.NewLog(log)}
	if cfg.Telegram.Token == "" {
		return out
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram disabled", "err", err)
		return out
	}
	log.Info("telegram notifications enabled", "bot", bot.Self.UserName, "chat_id", cfg.Telegram.AdminChatID)
	return append(out, notify.NewTelegram(bot, cfg.Telegram.AdminChatID, log))
}
