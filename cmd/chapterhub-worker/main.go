package main

import (
	"os"

	"chapterhub/internal/cli"
	"chapterhub/internal/log"
	"chapterhub/internal/services"
	gsheet "chapterhub/internal/sheets/google"
	"chapterhub/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting chapterhub-worker", log.FieldOperation, log.OpStartup)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	if result.Publisher == nil {
		logger.Error("AMQP broker unavailable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	// Budget export is optional.
	var exporter worker.Exporter
	if cfg.SheetsEnabled() {
		sheets, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetPrefix:        cfg.GoogleSheetPrefix,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = services.NewExportProcessor(
			result.Backend,
			services.NewBudgetService(result.Backend, result.Backend),
			sheets,
			services.ExportProcessorConfig{
				Interval:    cfg.ExportInterval,
				Concurrency: cfg.ExportConcurrency,
			},
		)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	activity := services.NewActivityProcessor(result.Backend)
	w := worker.NewActivityWorker(result.Publisher, activity.HandleTaskStatusChanged, exporter, logger.Logger)

	if err := w.Run(ctx); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
