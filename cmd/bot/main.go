package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinel/modbot/internal/audit"
	"github.com/sentinel/modbot/internal/bot"
	"github.com/sentinel/modbot/internal/config"
	"github.com/sentinel/modbot/internal/database"
	"github.com/sentinel/modbot/internal/member"
	"github.com/sentinel/modbot/internal/messaging"
	"github.com/sentinel/modbot/internal/metrics"
	"github.com/sentinel/modbot/internal/moderator"
	"github.com/sentinel/modbot/internal/platform"
	"github.com/sentinel/modbot/internal/punish"
	"github.com/sentinel/modbot/internal/rules"
)

func main() {
	log.Println("Starting moderation bot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// --- PostgreSQL ---
	db, err := database.Open(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ruleStore := rules.NewStore(db)
	auditLog := audit.NewStore(db)

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// --- NATS ---
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// --- Telegram ---
	b, err := bot.New(cfg.BotToken, cfg.OwnerID)
	if err != nil {
		log.Fatalf("failed to connect to Telegram: %v", err)
	}

	telegram := platform.NewTelegram(b.Telebot())
	exempter := member.NewCache(rdb, telegram, cfg.ExemptCacheTTL)
	dispatcher := punish.NewDispatcher(telegram, cfg.DefaultMute)
	mod := moderator.New(ruleStore, auditLog, exempter, dispatcher, telegram, natsClient, cfg.OwnerID)
	b.Setup(mod, ruleStore, auditLog)

	// --- Metrics ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		log.Printf("[metrics] listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Printf("[metrics] server stopped: %v", err)
		}
	}()

	go b.Start()

	log.Printf("Moderation bot running")
	log.Printf("  postgres:     connected")
	log.Printf("  redis_addr:   %s", cfg.RedisAddr)
	log.Printf("  nats_url:     %s", cfg.NATSURL)
	log.Printf("  metrics_addr: %s", cfg.MetricsAddr)
	log.Printf("  default_mute: %s", cfg.DefaultMute)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	b.Stop()
	natsClient.Close()
	rdb.Close()
	db.Close()
}
