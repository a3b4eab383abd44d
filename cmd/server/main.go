package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/klyr-waitlist/config"
	"github.com/akeren/klyr-waitlist/domain"
	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()
	logger.Info("Klyr waitlist server starting")

	autoMigrate := slices.ContainsFunc(os.Args[1:], func(arg string) bool {
		arg = strings.ToLower(arg)
		return arg == "--auto-migrate" || arg == "-m"
	})

	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err)
		os.Exit(1)
	}

	if err := domain.SetupCoreDomain(appConfig); err != nil {
		logger.Error("Failed to set up domains", "error", err)
		appConfig.Cleanup()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			appConfig.Cleanup()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received; draining requests")
	}

	// Pending confirmation emails are flushed by Cleanup after the listener closes.
	timeout := utils.GetPositiveDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	appConfig.Cleanup()

	logger.Info("Graceful shutdown completed")
}
