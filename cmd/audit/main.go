// One-shot cluster audit: prints current exposure and realized funding
// to stdout instead of serving the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange"
	"cluster-monitor/internal/exchange/hyperliquid"
	"cluster-monitor/internal/monitor"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "config", "directory containing config.yaml")
	days := flag.Int("days", 1, "funding lookback window in days")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	client := hyperliquid.NewClient(ctx, cfg.Hyperliquid)

	if err := run(ctx, cfg, client, *days, os.Stdout, logger); err != nil {
		logger.Fatal().Err(err).Msg("audit failed")
	}
}

func run(ctx context.Context, cfg *config.Config, client exchange.AccountDataClient, days int, out io.Writer, logger zerolog.Logger) error {
	positions := make([]monitor.Position, 0)
	for _, acct := range cfg.Cluster {
		state, err := client.AccountState(ctx, acct.Address)
		if err != nil {
			return fmt.Errorf("failed to fetch account state for %s: %w", acct.Label, err)
		}
		positions = append(positions, monitor.NormalizeAccount(acct.Label, state)...)
	}

	if len(positions) == 0 {
		fmt.Fprintln(out, "No open positions found. Skipping exposure calculations.")
	} else {
		rawMids, err := client.MidPrices(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch mid prices: %w", err)
		}
		positions = monitor.ValuePositions(positions, monitor.NewPriceBook(rawMids))

		summary := monitor.BuildSummary(positions, 0)

		fmt.Fprintln(out, "--- CLUSTER STATUS ---")
		fmt.Fprintf(out, "Total Spot Exposure: $%.2f\n", summary.SpotExposure)
		fmt.Fprintf(out, "Total Perp Exposure: $%.2f\n", summary.PerpExposure)
		fmt.Fprintf(out, "NET CLUSTER DELTA:   $%.2f\n", summary.NetDelta)
		if summary.Hedged {
			fmt.Fprintln(out, "Status: BASIS TRADE (Hedged)")
		} else {
			fmt.Fprintln(out, "Status: DIRECTIONAL EXPOSURE (Unhedged)")
		}
		fmt.Fprintln(out)
	}

	// Funding is independent of open positions: a flat book can still
	// have collected payments inside the window.
	window := time.Duration(days) * 24 * time.Hour
	records, total := monitor.CollectFunding(ctx, client, cfg.Cluster, window, logger)

	for _, rec := range records {
		fmt.Fprintf(out, "%s Realized Funding: $%.2f\n", rec.Account, rec.Funding24h)
	}
	fmt.Fprintf(out, "--- TOTAL CLUSTER YIELD (%dd): $%.2f ---\n", days, total)
	return nil
}
