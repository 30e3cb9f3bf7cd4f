package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/gatehouse/internal/config"
	"github.com/dukerupert/gatehouse/internal/database"
	"github.com/dukerupert/gatehouse/internal/email"
	"github.com/dukerupert/gatehouse/internal/logging"
	"github.com/dukerupert/gatehouse/internal/server"
	"github.com/dukerupert/gatehouse/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens, err := token.NewService(cfg.AccessSecret, cfg.RefreshSecret)
	if err != nil {
		logger.Error("failed to build token service", "error", err)
		os.Exit(1)
	}

	mailer := email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
	if !mailer.Configured() {
		logger.Warn("email client not configured; OTP delivery will fail")
	}

	srv := server.New(db, tokens, mailer, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Hourly cleanup: stale OTP pairs and rate limiter entries.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if count, err := srv.UserStore().ClearExpiredOTPs(); err != nil {
					logger.Error("clear expired otps", "error", err)
				} else if count > 0 {
					logger.Info("cleared expired otps", "count", count)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	go func() {
		logger.Info("gatehouse listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
