package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"custom-list-skill/internal/bootstrap"
	"custom-list-skill/internal/config"
	"custom-list-skill/internal/observability"
	"custom-list-skill/internal/server"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "skill-server",
		Short:         "Custom list skill hosted as a web service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve skill requests over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, configFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			if err := serve(cmd.Context(), cfg); err != nil {
				slog.Error("skill server failed", "err", err)
				return err
			}
			return nil
		},
	}
	config.BindServeFlags(cmd, v)
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.SetupLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)
	if cfg.Observability.ServiceVersion == "dev" {
		cfg.Observability.ServiceVersion = version
	}

	tracing, err := bootstrap.StartTracing(ctx, cfg.Observability)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(flushCtx); err != nil {
			slog.Warn("tracer shutdown failed", "err", err)
		}
	}()

	metrics := observability.NewMetrics()
	s, err := bootstrap.NewSkill(ctx, cfg, bootstrap.ModeWebService, metrics)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		Path:            cfg.Server.Path,
		RateLimit:       cfg.Server.RateLimit,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, s, metrics)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
