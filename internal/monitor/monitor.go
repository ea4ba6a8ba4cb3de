package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange"
	"cluster-monitor/internal/metrics"

	"github.com/rs/zerolog"
)

// ErrAlreadyStarted is returned by Start when a refresh loop is already
// running; only one loop may exist per process.
var ErrAlreadyStarted = errors.New("monitor already started")

// Monitor drives the refresh loop: fetch cluster state, normalize, price,
// aggregate, collect funding, publish.
type Monitor struct {
	cluster  []config.Account
	interval time.Duration
	client   exchange.AccountDataClient
	cache    *Cache
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	started atomic.Bool
	notify  func(Snapshot)
}

func New(cfg *config.Config, client exchange.AccountDataClient, cache *Cache, m *metrics.Metrics, logger zerolog.Logger) *Monitor {
	return &Monitor{
		cluster:  cfg.Cluster,
		interval: cfg.App.RefreshInterval(),
		client:   client,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

// OnPublish registers a callback invoked after each successful publish.
// Must be called before Start.
func (m *Monitor) OnPublish(fn func(Snapshot)) {
	m.notify = fn
}

// Start runs the refresh loop until ctx is cancelled. The first cycle
// runs immediately; afterwards cycles run on a fixed interval. A failed
// cycle is logged and the previous snapshot stays published.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	m.logger.Info().
		Int("accounts", len(m.cluster)).
		Dur("interval", m.interval).
		Msg("starting refresh loop")

	m.runCycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("stopping refresh loop")
			return ctx.Err()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	start := time.Now()
	snap, err := m.refresh(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("refresh failed, keeping previous snapshot")
		m.metrics.CycleFailed()
		return
	}

	m.cache.Publish(snap)
	m.metrics.CycleDone(time.Since(start), snap.Summary.NumPositions, snap.Summary.NetDelta)
	if m.notify != nil {
		m.notify(snap)
	}

	m.logger.Info().
		Int("positions", snap.Summary.NumPositions).
		Float64("net_delta", snap.Summary.NetDelta).
		Bool("hedged", snap.Summary.Hedged).
		Str("at", *snap.LastUpdated).
		Msg("data refreshed")
}

// refresh builds a complete new snapshot. Nothing is published unless
// every step except per-account funding succeeds.
func (m *Monitor) refresh(ctx context.Context) (Snapshot, error) {
	positions := make([]Position, 0)
	for _, acct := range m.cluster {
		state, err := m.client.AccountState(ctx, acct.Address)
		if err != nil {
			return Snapshot{}, fmt.Errorf("account %s: %w", acct.Label, err)
		}
		positions = append(positions, NormalizeAccount(acct.Label, state)...)
	}

	rawMids, err := m.client.MidPrices(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("mid prices: %w", err)
	}
	positions = ValuePositions(positions, NewPriceBook(rawMids))

	byCoin, byAccount := Aggregate(positions)
	funding, totalFunding := CollectFunding(ctx, m.client, m.cluster, FundingWindow, m.logger)
	summary := BuildSummary(positions, totalFunding)

	ts := time.Now().UTC().Format(TimeFormat)
	return Snapshot{
		Positions:   positions,
		Summary:     summary,
		ByCoin:      byCoin,
		ByAccount:   byAccount,
		Funding:     funding,
		LastUpdated: &ts,
	}, nil
}
