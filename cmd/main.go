package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "github.com/immxrtalbeast/skillsync/internal/api/http"
	"github.com/immxrtalbeast/skillsync/internal/config"
	"github.com/immxrtalbeast/skillsync/internal/executor"
	"github.com/immxrtalbeast/skillsync/internal/hub"
	"github.com/immxrtalbeast/skillsync/internal/room"
	"github.com/immxrtalbeast/skillsync/lib/logger/slogpretty"
	"github.com/immxrtalbeast/skillsync/pkg/metrics"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := room.NewRegistry(cfg.Room, log)

	m := metrics.New(nil, func() float64 { return float64(registry.Len()) })
	registry.OnDrop(m.Dropped.Inc)
	registry.StartJanitor(ctx)

	var runner executor.Runner
	if cfg.Executor.URL != "" {
		runner = executor.NewJudge0Client(cfg.Executor, log)
		log.Info("execution bridge configured", slog.String("url", cfg.Executor.URL))
	} else {
		runner = executor.StubRunner{}
		log.Info("execution service not configured, using stub runner")
	}

	eventHub := hub.New(registry, runner, m, cfg.Executor.Timeout, log)
	hubController := httpapi.NewHubController(eventHub, log)

	router := httpapi.SetupRouter(hubController, cfg.HTTP.AllowedOrigins)

	log.Info("starting application", slog.String("addr", cfg.HTTP.Address))
	if err := router.Run(cfg.HTTP.Address); err != nil {
		log.Error("http server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
