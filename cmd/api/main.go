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

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/auth"
	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/config"
	"vpbx-platform/internal/metrics"
	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
	"vpbx-platform/pkg/logger"
	"vpbx-platform/pkg/utils"

	"github.com/gin-gonic/gin"
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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	auditRepo := audit.NewPostgresRepo(db)
	if err := auditRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("audit schema init failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	m := metrics.New(nil)
	client := vpbx.NewClient(cfg.VPBX.Credentials(), vpbx.Options{
		BaseURL:      cfg.VPBX.BaseURL,
		Timeout:      cfg.VPBX.HTTPTimeout,
		PollAttempts: cfg.VPBX.StatsPollAttempts,
		PollInterval: cfg.VPBX.StatsPollInterval,
		Logger:       log.With("component", "vpbx"),
		Metrics:      m,
	})
	provider := telephony.NewMangoProvider(client)
	auditSvc := audit.NewService(auditRepo)

	deps := routeDeps{
		authMW: auth.RequireAccessToken(authManager),
		webhook: &telephony.WebhookHandler{
			Verifier: vpbx.NewVerifier(cfg.VPBX.Credentials()),
			Dedup:    telephony.NewRedisDeduper(rdb, cfg.Webhook.DedupTTL),
			OnEvent:  telephony.LogEvents(log.With("component", "webhook")),
			Metrics:  m,
		},
		calls:   calls.NewService(provider, auditSvc, log),
		reports: reporting.NewService(provider),
		audit:   auditSvc,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// stats exports poll the PBX, keep headroom over VPBX_HTTP_TIMEOUT
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", provider.Name())
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
}
