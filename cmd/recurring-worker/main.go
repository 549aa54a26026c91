package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/amqp"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/config"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	applog "github.com/akinalpfdn/ExpenseTracker-sub000/internal/log"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/services"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentRecurrence
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.Location())
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Instances are exported by tracker-worker; publishing is optional and
	// the pending scan covers lost messages.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized - instances will sync via tracker-worker")
		}
	} else {
		logger.Info("AMQP disabled - instances will not be pushed to the export worker")
	}

	processor := services.NewRecurringProcessor(repo, repo, publisher, dates.NewCalendar(cfg.Location()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring template processor configured",
		"interval", cfg.RecurringInterval,
		"timezone", cfg.Timezone,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	// Run initial processing on startup
	logger.Info("Running initial recurring template processing...")
	if count, err := processor.ProcessTemplates(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "instances_created", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Processing recurring templates...")
				count, err := processor.ProcessTemplates(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", "error", err)
				} else {
					logger.Info("Periodic processing complete",
						"instances_created", count,
						"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down recurring-worker...")
	cancel()

	time.Sleep(2 * time.Second)
	logger.Info("Recurring-worker shutdown complete")
}
