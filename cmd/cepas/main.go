package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cepas/internal/app"
	"cepas/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	log := logger.NewFromEnv().With("version", version)
	log.Info("cepas: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Critical("cepas: init failed", "err", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.Error("cepas: closing database pool failed", "err", err)
		}
	}()

	srv := application.HTTPServer()
	serverErrCh := make(chan error, 1)
	go func() {
		log.Info("http: listening", "addr", srv.Addr)
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("cepas: shutdown signal received")
	case err := <-serverErrCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Critical("http: server failed", "addr", srv.Addr, "err", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http: graceful shutdown failed", "err", err)
		return 1
	}

	log.Info("cepas: stopped")
	return 0
}
