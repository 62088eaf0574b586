package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ugcads-backend/config"
	"ugcads-backend/internal/api"
	"ugcads-backend/internal/database"
	"ugcads-backend/internal/generation"
	"ugcads-backend/internal/identity"
	"ugcads-backend/internal/notify"
	"ugcads-backend/internal/payment/whop"
	"ugcads-backend/internal/services"
	"ugcads-backend/internal/storage"
	"ugcads-backend/internal/storage/oss"
	"ugcads-backend/internal/utils"
	"ugcads-backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// @title ugcads-backend API
// @version 1.0
// @description Token-metered UGC ad video generation for Whop apps.

// @BasePath /api/v1

// @securityDefinitions.apikey WhopToken
// @in header
// @name x-whop-user-token

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	zlog := logger.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect database", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = database.ConnectRedis(ctx, cfg)
		if err != nil {
			zlog.Fatal("Failed to connect redis", zap.String("addr", cfg.RedisFullAddr()), zap.Error(err))
		}
		defer rdb.Close()
	}

	store, err := storage.New(cfg)
	if err != nil {
		zlog.Fatal("Failed to init storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}

	verifier, err := identity.NewVerifier(identity.Config{
		PublicKeyPEM: cfg.WhopTokenPublicKey,
		Secret:       cfg.WhopTokenSecret,
		AppID:        cfg.WhopAppID,
		Issuer:       cfg.WhopTokenIssuer,
	})
	if err != nil {
		zlog.Fatal("Failed to init token verifier", zap.Error(err))
	}

	whopClient := whop.NewClient(whop.Config{
		APIKey:        cfg.WhopAPIKey,
		AppID:         cfg.WhopAppID,
		BaseURL:       cfg.WhopAPIBaseURL,
		WebhookSecret: cfg.WhopWebhookSecret,
	}, utils.NewHTTPClient(15*time.Second, zlog), zlog)

	pricing := services.DefaultPricing()
	pricing.VideoCost = cfg.VideoCostTokens
	pricing.SceneCost = cfg.SceneCostTokens
	pricing.UploadCost = cfg.UploadCostTokens
	pricing.TokensPerDollar = cfg.FallbackTokensPerDollar

	var locker services.Locker
	var queue services.JobQueue
	var genQueue *generation.Queue
	if rdb != nil {
		locker = services.NewRedisLocker(rdb, zlog)
		genQueue = generation.NewQueue(rdb)
		if cfg.GenerationAPIURL != "" {
			queue = genQueue
		}
	}

	hub := notify.NewHub(zlog)
	go hub.Run(ctx)

	ledger := services.NewLedger(db, locker, zlog)
	var profiles services.ProfileProvider
	if cfg.WhopAPIKey != "" {
		profiles = whopClient
	}
	users := services.NewUserService(db, rdb, profiles, zlog)
	videos := services.NewVideoService(services.VideoDeps{
		DB:       db,
		Ledger:   ledger,
		Storage:  store,
		Queue:    queue,
		Notifier: hub,
		Pricing:  pricing,
		Logger:   zlog,
	})
	payments := services.NewPaymentService(whopClient, ledger, pricing, zlog)

	if queue != nil {
		dispatcher := generation.NewDispatcher(generation.Config{
			APIURL:      cfg.GenerationAPIURL,
			APIKey:      cfg.GenerationAPIKey,
			CallbackURL: cfg.CallbackURL(),
			MaxAttempts: cfg.GenerationMaxAttempts,
		}, genQueue, videos, utils.NewHTTPClient(30*time.Second, zlog), zlog)
		go dispatcher.Run(ctx)
	} else {
		zlog.Warn("Generation dispatch disabled; jobs wait for the callback endpoint")
	}

	deps := api.Deps{
		Config:   cfg,
		Logger:   zlog,
		Verifier: verifier,
		Users:    users,
		Ledger:   ledger,
		Videos:   videos,
		Payments: payments,
		Hub:      hub,
	}
	if rdb != nil {
		deps.Blocks = services.NewBlocklist(rdb)
	}
	if cfg.StorageDriver == "oss" && cfg.OSSRoleArn != "" {
		deps.Issuer = oss.NewSTSIssuer(storage.OSSConfig(cfg))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server shutdown failed", zap.Error(err))
	}
}
