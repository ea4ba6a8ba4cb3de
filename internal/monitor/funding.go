package monitor

import (
	"context"
	"time"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange"

	"github.com/rs/zerolog"
)

type FundingRecord struct {
	Account    string  `json:"account"`
	Funding24h float64 `json:"funding_24h"`
}

// FundingWindow is the trailing window the dashboard reports.
const FundingWindow = 24 * time.Hour

// CollectFunding sums realized funding per account over the trailing
// window. A failed fetch degrades that account to zero and never aborts
// the rest of the cluster. Returns the per-account records (one per
// account, in roster order) and their total.
func CollectFunding(ctx context.Context, client exchange.AccountDataClient, cluster []config.Account, window time.Duration, logger zerolog.Logger) ([]FundingRecord, float64) {
	sinceMs := time.Now().Add(-window).UnixMilli()

	records := make([]FundingRecord, 0, len(cluster))
	var total float64
	for _, acct := range cluster {
		events, err := client.FundingHistory(ctx, acct.Address, sinceMs)
		if err != nil {
			logger.Warn().Err(err).Str("account", acct.Label).Msg("funding fetch failed, recording zero")
			records = append(records, FundingRecord{Account: acct.Label, Funding24h: 0})
			continue
		}

		var sum float64
		for _, ev := range events {
			sum += parseFloat(ev.Usdc)
		}
		sum = round2(sum)
		records = append(records, FundingRecord{Account: acct.Label, Funding24h: sum})
		total += sum
	}

	return records, total
}
