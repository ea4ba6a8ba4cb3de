package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange/hyperliquid"
	"cluster-monitor/internal/metrics"
	"cluster-monitor/internal/monitor"
	"cluster-monitor/internal/web"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadConfig("config")
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	logger.Info().
		Int("port", cfg.App.Port).
		Int("accounts", len(cfg.Cluster)).
		Strs("tracked_coins", cfg.TrackedCoins).
		Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := hyperliquid.NewClient(ctx, cfg.Hyperliquid)
	cache := monitor.NewCache()
	m := metrics.New("cluster_monitor")
	hub := web.NewHub(cache, logger.With().Str("component", "ws").Logger())

	mon := monitor.New(cfg, client, cache, m, logger.With().Str("component", "monitor").Logger())
	mon.OnPublish(hub.Broadcast)

	// The server does not wait for the first refresh; /api/data serves
	// the empty snapshot until then.
	go func() {
		if err := mon.Start(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("monitor stopped")
		}
	}()

	srv := web.NewServer(cfg.App.Port, cache, hub, m, cfg.TrackedCoins, cfg.App.RefreshIntervalSec, logger.With().Str("component", "web").Logger())
	if err := srv.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("shutdown complete")
}
