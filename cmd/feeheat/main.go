package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"github.com/drake/feeheat/config"
	"github.com/drake/feeheat/debug"
	"github.com/drake/feeheat/labels"
	"github.com/drake/feeheat/network"
	"github.com/drake/feeheat/session"
	"github.com/drake/feeheat/source"
	"github.com/drake/feeheat/ui"
	"github.com/drake/feeheat/ui/heatmap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "feeheat:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.File(), "Path to config.yaml")
	baseURL := flag.String("url", config.DefaultBaseURL, "Backend base URL")
	interval := flag.Duration("interval", config.DefaultInterval, "Poll interval")
	rowKB := flag.Float64("row-kb", config.DefaultRowKB, "kB represented by one size bucket")
	labelScript := flag.String("labels", "", "Lua script defining x_label(v) and/or y_label(v)")
	scale := flag.String("scale", config.DefaultScale, "Colour scale: linear or log")
	simpleUI := flag.Bool("simple", false, "Print frames to stdout instead of the TUI")
	debugFlag := flag.Bool("debug", false, "Enable debug logging and the stats monitor")
	flag.Parse()

	// A missing default config file is fine; a missing explicit one is not.
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := config.Load(*configPath, !explicit)
	if err != nil {
		return err
	}

	// Flags override the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.BaseURL = *baseURL
		case "interval":
			cfg.Interval = config.Duration(*interval)
		case "row-kb":
			cfg.RowKB = *rowKB
		case "labels":
			cfg.LabelScript = *labelScript
		case "scale":
			cfg.Scale = *scale
		case "simple":
			cfg.Simple = *simpleUI
		case "debug":
			cfg.Debug = *debugFlag
		}
	})
	cfg.Debug = cfg.Debug || debug.Enabled()
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	logger, closeLog := setupLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)

	sc, err := heatmap.ParseScale(cfg.Scale)
	if err != nil {
		return err
	}

	var formatter labels.Formatter = labels.NewDefault(cfg.RowKB)
	if cfg.LabelScript != "" {
		lf, err := labels.LoadLua(cfg.LabelScript, formatter, logger)
		if err != nil {
			return fmt.Errorf("label script: %w", err)
		}
		defer lf.Close()
		formatter = lf
	}

	client := network.NewHTTPClient(cfg.BaseURL,
		network.WithTimeout(cfg.RequestTimeout.Std()),
		network.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	modelCfg := ui.ModelConfig{
		Labels:   formatter,
		Scale:    sc,
		Endpoint: client.URL(),
	}
	if !clipboard.Unsupported {
		modelCfg.Clipboard = clipboard.WriteAll
	}

	var surface ui.UI
	if cfg.Simple {
		surface = ui.NewConsoleUI(modelCfg, os.Stdin, os.Stdout)
	} else {
		surface = ui.NewBubbleTeaUI(modelCfg)
	}

	sess := session.New(func() session.Starter {
		return source.New(client,
			source.WithInterval(cfg.Interval.Std()),
			source.WithLogger(logger),
		)
	}, surface,
		session.WithLogger(logger),
		session.WithEndpoint(client.URL()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Debug {
		debug.NewMonitor(sess, client, logger).Start(ctx)
	}

	// The TUI reads ctrl+c as a key; signals matter for console mode
	// and for kill from another terminal.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal", "signal", sig)
			sess.Quit()
		case <-ctx.Done():
		}
	}()

	logger.Info("starting feeheat",
		"endpoint", client.URL(),
		"interval", cfg.Interval.Std(),
		"simple", cfg.Simple,
	)

	start := time.Now()
	if err := sess.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	logger.Info("stopped", "uptime", time.Since(start).Round(time.Second))
	return nil
}

// setupLogger writes to stderr in console mode. The TUI owns the terminal,
// so there logs go to feeheat.log in the config directory.
func setupLogger(cfg config.Config) (*slog.Logger, func()) {
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Simple {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}
	}

	// Logging is best effort in TUI mode
	path := config.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { f.Close() }
}
