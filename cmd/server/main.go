// Package main provides the API server entry point for the wrapped service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stacks-wrapped/internal/api"
	"github.com/stacks-wrapped/internal/config"
	"github.com/stacks-wrapped/internal/hiro"
	"github.com/stacks-wrapped/internal/logging"
	"github.com/stacks-wrapped/internal/storage"
	"github.com/stacks-wrapped/internal/wrapped"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewLogger(logging.LevelError, logging.FormatJSON).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := logging.NewLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("structured logging initialized")

	// Redis is optional: without it every request recomputes.
	var cache wrapped.ResultCache
	redisCache, err := storage.NewRedisCache(&cfg.Redis)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, running without response cache")
	} else {
		defer redisCache.Close()
		cache = storage.NewWrappedResultCache(redisCache, cfg.Cache.TTL)
		logger.WithField("ttl", cfg.Cache.TTL.String()).Info("response cache enabled")
	}

	client := hiro.NewClient(hiro.Options{
		BaseURL:        cfg.Hiro.BaseURL,
		RequestTimeout: cfg.Hiro.RequestTimeout,
		PageSize:       cfg.Hiro.PageSize,
		RequestsPerSec: cfg.Hiro.RequestsPerSec,
	})

	service := wrapped.NewService(wrapped.Options{
		Provider:          client,
		Cache:             cache,
		TargetYear:        cfg.Wrapped.TargetYear,
		MaxTransactions:   cfg.Wrapped.MaxTransactions,
		LookbackMonths:    cfg.Wrapped.LookbackMonths,
		EnrichConcurrency: cfg.Wrapped.EnrichConcurrency,
		Logger:            logger,
	})

	server := api.NewServer(&api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RequestsPerSec:  cfg.Server.RequestsPerSec,
	}, service, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
