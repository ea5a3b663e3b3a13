package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drake/feeheat/internal/mockserver"
)

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	refresh := flag.Duration("refresh", 1500*time.Millisecond, "How often a new snapshot is published")
	cols := flag.Int("cols", 40, "Fee-rate buckets (x)")
	rows := flag.Int("rows", 20, "Size buckets (y)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random walk seed")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mockserver.New(
		mockserver.WithGenerator(mockserver.NewGenerator(*cols, *rows, *seed)),
		mockserver.WithLogger(logger),
	)
	go srv.Run(ctx, *refresh)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("mock backend listening", "addr", *addr, "refresh", *refresh)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
