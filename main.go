package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/artie-labs/dimload/lib/checkpoint"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/destination/utils"
	"github.com/artie-labs/dimload/lib/logger"
	"github.com/artie-labs/dimload/lib/telemetry/metrics"
	"github.com/artie-labs/dimload/models"
	"github.com/artie-labs/dimload/processes/load"
)

func main() {
	// Parse args into settings.
	settings, err := config.LoadSettings(os.Args, true)
	if err != nil {
		logger.Fatal("Failed to initialize config", slog.Any("err", err))
	}

	if settings.LoadID == "" {
		settings.LoadID = uuid.NewString()
	}

	// Initialize default logger
	_logger, usingSentry := logger.NewLogger(settings)
	slog.SetDefault(_logger)
	if usingSentry {
		defer sentry.Flush(logger.SentryFlushTimeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsClient := metrics.LoadExporter(settings.Config)
	registry, err := models.Registry()
	if err != nil {
		logger.Fatal("Failed to build table registry", slog.Any("err", err))
	}

	dest, err := utils.Load(ctx, settings.Config)
	if err != nil {
		logger.Fatal("Failed to load destination", slog.Any("err", err))
	}
	defer dest.Close()

	checkpoints, err := checkpoint.Load(ctx, settings.Config.Checkpoint)
	if err != nil {
		logger.Fatal("Failed to load checkpoint store", slog.Any("err", err))
	}
	defer checkpoints.Close()

	loader, err := load.NewLoader(dest, registry, checkpoints, metricsClient)
	if err != nil {
		logger.Fatal("Failed to create loader", slog.Any("err", err))
	}

	slog.Info("Config is loaded",
		slog.String("destination", string(settings.Config.Output)),
		slog.Int("chunkSize", settings.Config.ChunkSize),
		slog.Int("tables", len(settings.Config.Tables)),
	)

	summary, err := loader.Run(ctx, settings.LoadID)
	for _, table := range summary.Tables {
		slog.Info("Table summary",
			slog.String("table", table.Table),
			slog.Bool("done", table.Done()),
			slog.Bool("skipped", table.Skipped),
			slog.Int("nextChunk", table.NextChunk),
			slog.Int("totalChunks", table.TotalChunks),
		)
	}

	if err != nil {
		// Exiting skips the deferred calls. Fatal flushes Sentry itself.
		dest.Close()
		checkpoints.Close()
		logger.Fatal("Load did not complete, rerun with the same load id to resume", slog.String("loadID", settings.LoadID), slog.Any("err", err))
	}
}
