package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roleplay-coach-go/internal/api"
	"roleplay-coach-go/internal/coach"
	"roleplay-coach-go/internal/config"
	"roleplay-coach-go/internal/evaluation"
	"roleplay-coach-go/internal/llm"
	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/prompts"
	"roleplay-coach-go/internal/realtime"
	"roleplay-coach-go/internal/storage"
)

func main() {
	cfg := config.Load() // loads .env

	log := logger.New()
	log.WithField("service", "roleplay-coach-go").WithField("environment", cfg.Environment).Info("starting service")

	client, err := llm.FromConfig(cfg)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("no model backend configured; coaching and grading are disabled")
	case err != nil:
		log.WithError(err).Fatal("failed to build model client")
	}

	catalog, err := prompts.Load(cfg.ScenariosPath)
	if err != nil {
		log.WithError(err).WithField("scenarios_path", cfg.ScenariosPath).Fatal("failed to load scenarios")
	}

	log.WithField("db_path", cfg.DBPath).Info("opening attempts store")
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open attempts store")
	}
	defer store.Close()

	deps := api.Deps{
		Gate:      coach.New(client, coach.ConfigFrom(cfg)),
		Evaluator: evaluation.New(client, evaluation.ConfigFrom(cfg)),
		Store:     store,
		Catalog:   catalog,
	}
	if cfg.OpenAIAPIKey != "" {
		deps.Relay = realtime.New(realtime.ConfigFrom(cfg))
	} else {
		log.Warn("OPENAI_API_KEY not set; voice sessions are disabled")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.New(deps).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown did not finish cleanly")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
