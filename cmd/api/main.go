package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voiceagent-platform/internal/agent"
	"voiceagent-platform/internal/audit"
	"voiceagent-platform/internal/auth"
	"voiceagent-platform/internal/call"
	"voiceagent-platform/internal/campaign"
	"voiceagent-platform/internal/config"
	"voiceagent-platform/internal/contact"
	"voiceagent-platform/internal/dispatch"
	"voiceagent-platform/internal/httpapi"
	"voiceagent-platform/internal/ingest"
	"voiceagent-platform/internal/rating"
	"voiceagent-platform/internal/reporting"
	"voiceagent-platform/internal/voice"
	"voiceagent-platform/pkg/logger"
	"voiceagent-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	provider := voice.NewConvAIProvider(cfg.Voice)

	rater := rating.NewService(rating.NewMemoryRepo(),
		rating.Rate{PerMinuteMinor: 10, Currency: "USD"})

	callSvc := call.NewService(db, rdb, rater)
	contactSvc := contact.NewService(db)
	agentSvc := agent.NewService(db)
	campaignSvc := campaign.NewService(db)

	dispatcher, err := dispatch.New(callSvc, agentSvc, provider, cfg.Dispatch)
	if err != nil {
		log.Error("dispatcher init failed", "err", err)
		os.Exit(1)
	}
	defer dispatcher.Release()

	runner := campaign.NewRunner(db, rdb, dispatcher, cfg.Runner)
	runner.Start(rootCtx)
	defer runner.Stop()

	handlers := httpapi.Handlers{
		Auth:       authManager,
		Calls:      callSvc,
		Contacts:   contactSvc,
		Agents:     agentSvc,
		Campaigns:  campaignSvc,
		Runner:     runner,
		Dispatcher: dispatcher,
		Importer:   ingest.NewImporter(contactSvc),
		Stats:      reporting.NewService(reporting.NewSQLRepo(db)),
		Audit:      audit.NewService(audit.NewMemoryRepo()),
		Provider:   provider,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, auth.RequireAccessToken(authManager), voice.WebhookHandler{
		Secret:  cfg.Voice.WebhookSecret,
		Applier: callSvc,
	}, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
