package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"chapterhub/internal/cli"
	apphttp "chapterhub/internal/http"
	"chapterhub/internal/identity"
	"chapterhub/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	deps := apphttp.Deps{
		Store:          result.Backend,
		Ready:          result.Backend.Ping,
		Resolver:       identity.NewResolver(result.Backend, cfg.IdentityCacheSize, cfg.IdentityCacheTTL),
		DefaultUserID:  cfg.DefaultUserID,
		WeekStart:      cfg.FirstWeekday(),
		Location:       cfg.Location(),
		RequestTimeout: cfg.RequestTimeout,
		WriteRateLimit: cfg.WriteRateLimit,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	}
	// A nil *amqp.Client must not become a non-nil interface.
	if result.Publisher != nil {
		deps.Publisher = result.Publisher
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting chapterhub server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"activity_messages", result.Publisher != nil,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
