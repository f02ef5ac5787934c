// Package main runs the config API as a plain HTTP server for local and container use.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/resphone/resphone/internal/bootstrap"
	"github.com/resphone/resphone/internal/config"
	"github.com/resphone/resphone/internal/devserver"
	"github.com/resphone/resphone/internal/logx"
)

func main() {
	env := config.MustLoad()
	logger := logx.New(os.Stderr, env.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := bootstrap.NewBlobStore(ctx, env)
	if err != nil {
		log.Fatal(err)
	}
	app, err := bootstrap.NewApp(env, b, logger)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           devserver.NewRouter(app.Handle, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "operation", "startup", "addr", env.HTTPAddr, "backend", env.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
