// Command docextract-web serves the upload-and-extract web interface.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cortexa-LLC/mcp/src/docextract/config"
	"github.com/Cortexa-LLC/mcp/src/docextract/converter"
	"github.com/Cortexa-LLC/mcp/src/docextract/store"
	"github.com/Cortexa-LLC/mcp/src/docextract/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	x, err := converter.New(cfg, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Server.StorePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()

	srv := web.New(x, st, web.Options{
		UploadDir:      cfg.Server.UploadDir,
		MaxUploadBytes: cfg.MaxFileSizeBytes,
		Formats:        converter.SupportedFormats(),
		Supported:      converter.IsSupported,
		Logger:         logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", cfg.Server.ListenAddr,
			"primary", x.Primary(),
			"fallback", x.Fallback(),
			"ocr", converter.OCRAvailable(cfg),
			"store", cfg.Server.StorePath,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
