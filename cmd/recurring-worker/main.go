package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"moneta/internal/amqp"
	"moneta/internal/config"
	"moneta/internal/core"
	applog "moneta/internal/log"
	"moneta/internal/services"
	"moneta/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.NewComponent(applog.ComponentRecurring)
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Confirmed occurrences become real transactions, so the worker
	// publishes sync events like the API does. The broker stays optional.
	var publisher services.SyncPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, sync events will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	transactions := services.NewTransactionService(repo, publisher)
	recurring := services.NewRecurringService(repo, transactions)
	loans := services.NewLoanService(repo, transactions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		now := time.Now()
		today := core.NewDate(now.Year(), int(now.Month()), now.Day())

		generated, err := recurring.GeneratePending(ctx, today)
		if err != nil {
			logger.Error("Failed to generate pending occurrences", "error", err)
		} else if generated > 0 {
			logger.Info("Generated pending occurrences", "count", generated)
		}

		overdue, err := loans.MarkOverdue(ctx, today)
		if err != nil {
			logger.Error("Failed to mark overdue installments", "error", err)
		} else if overdue > 0 {
			logger.Info("Marked overdue installments", "count", overdue)
		}
	}

	// Run once on startup so a restart never delays due occurrences.
	runOnce()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Recurring worker running", "interval", cfg.RecurringInterval.String())

	for {
		select {
		case <-ticker.C:
			runOnce()
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			logger.Info("Recurring worker stopped gracefully")
			return
		case <-ctx.Done():
			return
		}
	}
}
