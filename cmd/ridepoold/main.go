package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ridepool/internal/config"
	"ridepool/internal/obs"
	"ridepool/internal/stub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	state := stub.NewState(cfg.PageSize)
	fixtures := stub.DefaultFixtures()
	if cfg.FixturesPath != "" {
		loaded, err := stub.LoadFixtures(cfg.FixturesPath)
		if err != nil {
			logger.Warn("fixtures load failed, using defaults", "path", cfg.FixturesPath, "error", err)
		} else {
			fixtures = loaded
		}
	}
	state.Seed(fixtures)
	logger.Info("stub state seeded", "conversations", len(fixtures))

	hub := stub.NewHub(logger)
	defer hub.Close()

	router := stub.NewRouter(state, hub, cfg.StubTokens, logger)
	server := stub.NewServer(cfg, router, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("stub backend starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stub backend stopped")
}
