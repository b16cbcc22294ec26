package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/journeyhub/journeyhub/internal/auth"
	"github.com/journeyhub/journeyhub/internal/config"
	"github.com/journeyhub/journeyhub/internal/notify"
	"github.com/journeyhub/journeyhub/internal/server"
	"github.com/journeyhub/journeyhub/internal/service"
	"github.com/journeyhub/journeyhub/internal/storage/sqlite"
	"github.com/journeyhub/journeyhub/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	hub := notify.NewHub(slog.Default())

	expiry := service.NewExpirationService(store, hub)
	admission := service.NewAdmissionService(store, tokens, hub, expiry)
	journeys := service.NewJourneyService(store)
	expenses := service.NewExpenseService(store, expiry)

	router := server.NewRouter(server.RouterConfig{
		Tokens:                tokens,
		Admission:             admission,
		Journeys:              journeys,
		Expenses:              expenses,
		Hub:                   hub,
		SessionTTL:            cfg.SessionTTL,
		RateLimitEnabled:      cfg.RateLimitEnabled,
		JoinRequestsPerMinute: cfg.JoinRequestsPerMinute,
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
