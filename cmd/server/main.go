package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papertrade/internal/client/clob"
	"papertrade/internal/config"
	cronrunner "papertrade/internal/cron"
	"papertrade/internal/db"
	"papertrade/internal/handler"
	"papertrade/internal/logger"
	"papertrade/internal/notify"
	gormrepository "papertrade/internal/repository/gorm"
	"papertrade/internal/service"
)

func main() {
	cfgPath := os.Getenv("PT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	clobHTTP := &http.Client{Timeout: cfg.Clob.Timeout}
	feed := clob.NewClient(clobHTTP, cfg.Clob.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	var sink service.EventSink
	if cfg.Webhook.Enabled {
		sink = &notify.Webhook{
			URL:        cfg.Webhook.SubscriberURL,
			HTTPClient: &http.Client{Timeout: cfg.Webhook.Timeout},
			Logger:     logger,
		}
	}

	orchestrator := &service.Orchestrator{
		Store:      store,
		Sync:       &service.MarketSyncService{Feed: feed, Logger: logger},
		Resolution: &service.ResolutionService{Logger: logger},
		Sink:       sink,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	auth := handler.Auth{Config: cfg.Auth}

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	userHandler := &handler.UserHandler{Repo: store, Auth: auth, Logger: logger}
	userHandler.Register(engine)
	positionHandler := &handler.PositionHandler{Repo: store}
	positionHandler.Register(engine)
	maxOrder, err := cfg.Trade.MaxOrder()
	if err != nil {
		logger.Fatal("invalid trade.max_order_usdc", zap.Error(err))
	}
	orderHandler := &handler.OrderHandler{
		Repo:         store,
		Feed:         feed,
		Logger:       logger,
		MaxOrderUSDC: maxOrder,
	}
	orderHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		Repo:         store,
		Orchestrator: orchestrator,
		Auth:         auth,
		Logger:       logger,
	}
	adminHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.MarketSync, func(ctx context.Context) {
			result, err := orchestrator.RunSyncAndSettle(ctx)
			if err != nil {
				logger.Warn("cron market sync failed", zap.Error(err))
				return
			}
			if result.Skipped {
				return
			}
			logger.Info("cron market sync ok",
				zap.Int("added", len(result.Report.AddedTracked)),
				zap.Int("removed", len(result.Report.RemovedTracked)),
				zap.Int("resolved", len(result.Report.ClosedWithWinners)),
				zap.Int("payouts", len(result.PayoutLogs)),
			)
		})
		if err != nil {
			logger.Warn("cron register market sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
