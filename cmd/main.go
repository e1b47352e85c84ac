package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/viper"

	"custom-list-skill/handler"
	"custom-list-skill/internal/bootstrap"
	"custom-list-skill/internal/config"
	"custom-list-skill/internal/observability"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load(viper.New(), os.Getenv("SKILL_CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	observability.SetupLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)

	tracing, err := bootstrap.StartTracing(ctx, cfg.Observability)
	if err != nil {
		slog.Error("failed to start tracing", "err", err)
		os.Exit(1)
	}

	// ---- Skill ----
	metrics := observability.NewMetrics()
	s, err := bootstrap.NewSkill(ctx, cfg, bootstrap.ModeLambda, metrics)
	if err != nil {
		slog.Error("failed to create skill", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(s, handler.WithFlusher(tracing))
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(func() {
		_ = tracing.Shutdown(context.Background())
	}))
}
