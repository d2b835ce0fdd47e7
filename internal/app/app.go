package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/internal/config"
	"github.com/you/glucopredict/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Run serves until SIGINT or SIGTERM, then drains requests and closes the stores.
func Run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, cfg, log)
}

// Serve is Run with a caller-controlled lifetime.
func Serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log = logging.OrNop(log)
	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	if cfg.Model.Warmup {
		if err := c.InferenceSvc.Ready(ctx); err != nil {
			log.Warn("model warmup failed, will retry on first request", "error", err)
		} else {
			log.Info("model loaded")
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      c.Router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
