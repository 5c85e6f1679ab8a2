package main

import (
	"context"
	"errors"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/adapters/oauth/google"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

//go:generate swag init --dir ../../ --generalInfo cmd/server/main.go --output ../../internal/adapters/handler/http/docs --outputTypes go --parseInternal

// @title        Ballot API
// @version      1.0
// @description  Candidate registry, single-vote casting and tally reporting.
// @BasePath     /
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal(err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	clock := ports.SystemClock{}

	candidateSvc := services.NewCandidateService(store.Candidates, clock, logger)
	voteSvc := services.NewVoteService(store.Votes, clock, logger)
	reportSvc := services.NewReportService(candidateSvc)
	userSvc := services.NewUserService(store.Users)
	accessSvc := services.NewAccessService(store.Users, logger)
	authSvc := services.NewAuthService(store.Users, google.NewVerifier(), clock, services.AuthOptions{
		JWTSecret:      cfg.JWTSecret,
		GoogleClientID: cfg.GoogleClientID,
		AdminEmails:    cfg.AdminEmails,
	}, logger)

	handler := http.NewHandler(http.Handlers{
		Candidates: http.NewCandidateHandler(candidateSvc),
		Votes:      http.NewVoteHandler(voteSvc, reportSvc),
		Users:      http.NewUserHandler(userSvc),
		Auth: http.NewAuthHandler(authSvc, cfg.AuthRedirectURL, http.CookieOptions{
			Domain:   cfg.CookieDomain,
			Secure:   cfg.CookieSecure,
			SameSite: cfg.CookieSameSite,
		}),
		Health: http.NewHealthHandler(store),
	}, http.RouterOptions{
		JWTSecret: cfg.JWTSecret,
		Access:    accessSvc,
		Logger:    logger,
	})

	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("http server starting", "event", "http_server_starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("http server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
	}
}
