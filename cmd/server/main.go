package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"github.com/lodgeops/propex/internal/config"
	"github.com/lodgeops/propex/internal/history"
	"github.com/lodgeops/propex/internal/logging"
	"github.com/lodgeops/propex/internal/settings"
	"github.com/lodgeops/propex/internal/upstream"
	"github.com/lodgeops/propex/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upstream", cfg.Upstream.BaseURL,
		"history_enabled", cfg.History.Enabled,
	)

	settingsPath := cfg.Settings.Path
	if settingsPath == "" {
		settingsPath, err = settings.DefaultPath()
		if err != nil {
			slog.Error("failed to resolve settings path", "error", err)
			os.Exit(1)
		}
	}
	store := settings.NewStore(settingsPath)

	var hist *history.Store
	if cfg.History.Enabled {
		histPath := cfg.History.Path
		if histPath == "" {
			histPath, err = history.DefaultPath()
			if err != nil {
				slog.Error("failed to resolve history path", "error", err)
				os.Exit(1)
			}
		}
		hist, err = history.Open(histPath)
		if err != nil {
			// History is a convenience; run without it rather than refuse to start.
			slog.Warn("history store unavailable, continuing without it", "error", err)
			hist = nil
		} else {
			defer hist.Close()
			if pruned, err := hist.Prune(cfg.History.Retention); err != nil {
				slog.Warn("history prune failed", "error", err)
			} else if pruned > 0 {
				slog.Info("pruned old history entries", "count", pruned)
			}
		}
	}

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, slog.Default())
	server := web.NewServer(cfg, store, client, hist)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if cfg.Server.OpenBrowser {
		url := fmt.Sprintf("http://%s/", cfg.Server.Addr())
		go func() {
			// Give the listener a moment to come up first.
			time.Sleep(time.Second)
			if err := browser.OpenURL(url); err != nil {
				slog.Warn("could not open browser", "url", url, "error", err)
			}
		}()
	}

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
