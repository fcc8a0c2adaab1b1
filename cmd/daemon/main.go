// SPDX-License-Identifier: MIT

// daemon serves experiment configurations over HTTP: it loads a config
// file, watches it for changes, validates submitted documents and keeps
// a history of resolved snapshots.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/confplane/expconf/internal/api"
	"github.com/confplane/expconf/internal/config"
	"github.com/confplane/expconf/internal/experiment"
	xlog "github.com/confplane/expconf/internal/log"
	"github.com/confplane/expconf/internal/registry"
	"github.com/confplane/expconf/internal/schema"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to experiment config file (YAML)")
	listenAddr := flag.String("listen", ":8080", "HTTP listen address")
	dataDir := flag.String("data", "", "snapshot store directory (empty disables snapshots)")
	rateLimit := flag.Int("rate-limit", 0, "per-IP requests per minute (0 disables)")
	lenient := flag.Bool("lenient", false, "allow unknown configuration sections")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xlog.Configure(xlog.Config{
		Level:   os.Getenv("EXPCONF_LOG_LEVEL"),
		Service: "expconf",
		Version: version,
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := schema.Strict
	if *lenient {
		mode = schema.Lenient
	}

	var holder *config.Holder
	if *configPath != "" {
		loader := config.NewLoader(*configPath, experiment.Schema(), mode)
		doc, err := loader.Load()
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "config.load_failed").
				Str("config_path", *configPath).
				Msg("failed to load configuration")
		}
		holder = config.NewHolder(doc, loader)
		logger.Info().
			Str("event", "config.loaded").
			Str("path", *configPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.none").
			Msg("no config file given, serving validate/resolve only")
	}

	var store *registry.Store
	if *dataDir != "" {
		var err error
		store, err = registry.Open(*dataDir)
		if err != nil {
			logger.Fatal().
				Err(err).
				Str("event", "registry.open_failed").
				Str("data_dir", *dataDir).
				Msg("failed to open snapshot store")
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Str("event", "registry.close_failed").Msg("snapshot store close failed")
			}
		}()
	}

	server := api.New(api.Options{
		Holder:       holder,
		Registry:     store,
		Schema:       experiment.Schema(),
		RateLimitRPM: *rateLimit,
	})

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if the
	// watcher cannot be started.
	if holder != nil {
		if err := holder.StartWatcher(ctx); err != nil {
			logger.Warn().
				Err(err).
				Str("event", "config.watcher_start_failed").
				Msg("failed to start config watcher")
		}
		defer holder.Stop()

		// SIGHUP triggers a manual reload.
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, syscall.SIGHUP)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					logger.Info().
						Str("event", "config.reload_signal").
						Msg("received SIGHUP, reloading config")
					if err := holder.Reload(context.Background()); err != nil {
						logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		logger.Info().
			Str("event", "http.listen").
			Str("addr", *listenAddr).
			Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}
	logger.Info().Str("event", "daemon.stopped").Msg("shutdown complete")
}
