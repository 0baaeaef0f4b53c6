package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"schoolportal/backend/config"
	"schoolportal/backend/internal/api/handler"
	"schoolportal/backend/internal/api/router"
	"schoolportal/backend/internal/repository"
	"schoolportal/backend/internal/service"
	"schoolportal/backend/internal/slotgrid"
	"schoolportal/backend/pkg/database"
	"schoolportal/backend/pkg/jwt"
	applogger "schoolportal/backend/pkg/logger"
	"schoolportal/backend/pkg/redis"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config failed: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting scheduling core",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("getting underlying sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	// Redis is optional. Without it the week-grid cache is skipped and
	// every read goes to Postgres.
	var cache *redis.Client
	cache, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without the week-grid cache", zap.Error(err))
		cache = nil
	}

	grid, err := slotgrid.New(slotsFromConfig(cfg.Schedule.Slots))
	if err != nil {
		logger.Fatal("invalid slot grid configuration", zap.Error(err))
	}

	jwtMgr := jwt.NewManager(&cfg.Auth)

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, grid, cache, logger)
	h := handler.NewHandler(svc, grid)

	engine := router.Setup(cfg, h, jwtMgr, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if closeDB, err := db.DB(); err == nil && closeDB != nil {
		closeDB.Close()
	}
	if cache != nil {
		cache.Close()
	}

	logger.Info("server stopped")
}

func slotsFromConfig(in []config.SlotConfig) []slotgrid.Slot {
	out := make([]slotgrid.Slot, 0, len(in))
	for _, s := range in {
		out = append(out, slotgrid.Slot{
			Number:    s.Number,
			Name:      s.Name,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			IsBreak:   s.IsBreak,
		})
	}
	return out
}
