package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appconfig "physitutor/config"
	"physitutor/internal/audit"
	"physitutor/internal/cache"
	"physitutor/internal/catalog"
	aiconfig "physitutor/internal/config"
	"physitutor/internal/logger"
	"physitutor/internal/repository"
	"physitutor/internal/service"
	"physitutor/internal/store"
	"physitutor/internal/transport/rest"
	"physitutor/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// AI collaborator config
	ai := aiconfig.DefaultAIConfig()
	if ai.IsEnabled() {
		zlog.Info("AI collaborator configured",
			zap.String("feedbackModel", ai.Models.Feedback),
			zap.String("reasoningModel", ai.Models.Reasoning),
			zap.String("transferModel", ai.Models.Transfer))
	} else {
		zlog.Warn("GEMINI_API_KEY not set, AI enrichment disabled")
	}

	// Postgres pool
	pool, err := repository.NewPool(ctx, cfg.DB.URL, repository.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zlog.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.InitSchema(ctx, pool); err != nil {
		zlog.Fatal("Failed to init schema", zap.Error(err))
	}
	zlog.Info("Connected to Postgres")

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		zlog.Fatal("Failed to ping Redis", zap.Error(err))
	}
	zlog.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Question catalog
	cat := catalog.New()
	loaded, err := cat.LoadDir(cfg.QuestionsDir, zlog)
	if err != nil {
		zlog.Fatal("Failed to load question catalog", zap.String("dir", cfg.QuestionsDir), zap.Error(err))
	}
	zlog.Info("Question catalog loaded", zap.Int("questions", loaded))

	// Audit trail
	sink, err := audit.New(cfg.LogsDir)
	if err != nil {
		zlog.Fatal("Failed to init audit logger", zap.String("dir", cfg.LogsDir), zap.Error(err))
	}

	// WebSocket hub
	wsHub := ws.NewHub()

	// Services
	sessions := store.NewSessionStore()
	durable := repository.NewStore(pool)
	stats := cache.NewStatsCache(rdb)
	authSvc := service.NewAuthService()
	evaluator := service.NewEvaluatorService(ai, zlog)

	dialogueSvc := service.NewDialogueService(
		cat, sessions, durable, evaluator, sink, stats, zlog,
		cfg.EscalationThreshold, cfg.PromptVersion,
	)
	dialogueSvc.SetBroadcaster(wsHub)
	dialogueSvc.SetAssetsDir(cfg.QuestionsDir)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		DialogueService: dialogueSvc,
		Sessions:        sessions,
		WSHub:           wsHub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
