// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/douglasArantes/wikibrowser-service/internal/claims"
	"github.com/douglasArantes/wikibrowser-service/internal/config"
	"github.com/douglasArantes/wikibrowser-service/internal/locator"
	"github.com/douglasArantes/wikibrowser-service/internal/metrics"
	"github.com/douglasArantes/wikibrowser-service/internal/mirror"
	"github.com/douglasArantes/wikibrowser-service/internal/server"
	"github.com/douglasArantes/wikibrowser-service/internal/sparql"
	"github.com/douglasArantes/wikibrowser-service/internal/thumbnail"
	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the wikibrowser service",
		Long:  "Load configuration, wire all subsystems, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return wberr.Wrap(err, wberr.CodeCLISetupFailure, "loading config")
	}

	setupLogging(viper.GetBool("verbose"))

	thumbs := thumbnail.NewCache()
	m := metrics.New(func() float64 { return float64(thumbs.Len()) })

	queries := sparql.NewClient(cfg.Sparql.Endpoint, cfg.Sparql.Timeout)

	var loc claims.ArticleLocator
	if cfg.Locator.BaseURL != "" {
		loc = locator.NewClient(cfg.Locator.BaseURL, cfg.Locator.Timeout)
	}

	mir, err := mirror.New(mirror.Config{
		Backend: cfg.Mirror.Backend,
		Neo4j: mirror.Neo4jConfig{
			URI:      cfg.Mirror.Neo4j.URI,
			Username: cfg.Mirror.Neo4j.Username,
			Password: cfg.Mirror.Neo4j.Password,
		},
		SQLite: mirror.SQLiteConfig{Path: cfg.Mirror.SQLite.Path},
	})
	if err != nil {
		return wberr.Wrap(err, wberr.CodeCLISetupFailure, "creating graph mirror")
	}
	defer func() {
		if err := mir.Close(); err != nil {
			slog.Warn("closing graph mirror", "error", err)
		}
	}()

	explorer := claims.NewExplorer(queries, loc, thumbs, mir, m).
		WithMirrorTimeout(cfg.Mirror.Timeout)

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.CORS.Origins,
		DefaultLang: cfg.Lang.Default,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
	}, m)
	if err != nil {
		return wberr.Wrap(err, wberr.CodeCLISetupFailure, "creating server")
	}
	srv.RegisterClaimsService(explorer)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting wikibrowser",
		"listen", cfg.Networking.Listen,
		"sparql_endpoint", cfg.Sparql.Endpoint,
		"mirror_backend", cfg.Mirror.Backend)

	return srv.Start(ctx)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
