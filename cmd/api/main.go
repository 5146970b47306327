package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-admin/internal/app"
	"shop-admin/internal/observability"
)

func main() {
	logger := observability.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runtime, err := app.Build(ctx, app.Options{LoadDotEnv: true, Logger: logger})
	if err != nil {
		logger.Error("startup_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	if err := serve(ctx, runtime); err != nil {
		logger.Error("server_failed", map[string]any{"error": err.Error()})
		_ = runtime.Close()
		os.Exit(1)
	}
	if err := runtime.Close(); err != nil {
		logger.Error("shutdown_failed", map[string]any{"error": err.Error()})
	}
}

func serve(ctx context.Context, runtime *app.Runtime) error {
	server := &http.Server{
		Addr:              runtime.Addr,
		Handler:           runtime.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		runtime.Logger.Info("server_start", map[string]any{"addr": runtime.Addr})
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	runtime.Logger.Info("server_stop", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
