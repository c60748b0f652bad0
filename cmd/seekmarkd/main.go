// SPDX-License-Identifier: MIT

// seekmarkd is the playback position companion daemon. It remembers
// where you stopped watching and seeks back there when you return.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/seekmark/seekmark/internal/config"
	"github.com/seekmark/seekmark/internal/daemon"
	xlog "github.com/seekmark/seekmark/internal/log"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the configuration is loaded.
	xlog.Configure(xlog.Config{
		Level:   "info",
		Service: "seekmark",
		Version: version,
	})
	logger := xlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config path: explicit via --config, otherwise ${SEEKMARK_DATA}/config.yaml
	// when it exists.
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString("SEEKMARK_DATA", ""))
		if dataDir != "" {
			autoPath := filepath.Join(dataDir, "config.yaml")
			if _, err := os.Stat(autoPath); err == nil {
				effectiveConfigPath = autoPath
			}
		}
	}

	loader := config.NewLoader(effectiveConfigPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "config.load_failed").
			Str(xlog.FieldPath, effectiveConfigPath).
			Msg("failed to load configuration")
	}

	// Re-apply the level now that the configuration is known.
	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if effectiveConfigPath != "" {
		logger.Info().
			Str(xlog.FieldEvent, "config.loaded").
			Str(xlog.FieldPath, effectiveConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(xlog.FieldEvent, "config.loaded").
			Msg("loaded configuration from environment and defaults")
	}

	holder := config.NewHolder(cfg, loader, effectiveConfigPath)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().
			Err(err).
			Str(xlog.FieldEvent, "config.watcher_failed").
			Msg("config hot reload unavailable")
	}

	d, err := daemon.New(holder)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.init_failed").
			Msg("failed to initialise daemon")
	}

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().
			Err(err).
			Str(xlog.FieldEvent, "daemon.run_failed").
			Msg("daemon exited with error")
	}

	logger.Info().Str(xlog.FieldEvent, "daemon.exit").Msg("shutdown complete")
}
