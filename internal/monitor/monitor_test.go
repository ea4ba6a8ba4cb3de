package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{RefreshIntervalSec: 1},
		Cluster: []config.Account{
			{Label: "Master_Trading", Address: "0xaaa"},
			{Label: "Agent_1", Address: "0xbbb"},
		},
	}
}

func testClient() *fakeClient {
	return &fakeClient{
		states: map[string]*exchange.AccountState{
			"0xaaa": {
				PerpPositions: []exchange.PerpPosition{{Coin: "BTC", Szi: "-1.5"}},
				SpotBalances:  []exchange.SpotBalance{{Coin: "BTC", Total: "1.5"}},
			},
			"0xbbb": {
				PerpPositions: []exchange.PerpPosition{{Coin: "ETH", Szi: "10"}},
			},
		},
		mids: map[string]string{
			"BTC/USDC": "60000",
			"BTC":      "59000",
			"ETH":      "3000",
		},
		funding: map[string][]exchange.FundingEvent{
			"0xaaa": {{Coin: "BTC", Usdc: "5.5"}},
		},
	}
}

func newTestMonitor(client *fakeClient) (*Monitor, *Cache) {
	cache := NewCache()
	m := New(testConfig(), client, cache, nil, zerolog.Nop())
	return m, cache
}

func TestRefresh_BuildsCompleteSnapshot(t *testing.T) {
	m, _ := newTestMonitor(testClient())

	snap, err := m.refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Positions, 3)
	// roster order, perps before spot within an account
	assert.Equal(t, "Master_Trading", snap.Positions[0].Account)
	assert.Equal(t, KindPerp, snap.Positions[0].Kind)
	assert.Equal(t, -88500.0, snap.Positions[0].USDValue) // -1.5 * 59000
	assert.Equal(t, 90000.0, snap.Positions[1].USDValue)  // 1.5 * 60000 (spot key)
	assert.Equal(t, "Agent_1", snap.Positions[2].Account)

	assert.Equal(t, 90000.0, snap.Summary.SpotExposure)
	assert.Equal(t, -58500.0, snap.Summary.PerpExposure) // -88500 + 30000
	assert.Equal(t, 31500.0, snap.Summary.NetDelta)
	assert.False(t, snap.Summary.Hedged)
	assert.Equal(t, 5.5, snap.Summary.TotalFunding24h)
	assert.Equal(t, 3, snap.Summary.NumPositions)

	require.Len(t, snap.Funding, 2)
	assert.Equal(t, 5.5, snap.Funding[0].Funding24h)
	assert.Zero(t, snap.Funding[1].Funding24h)

	require.NotNil(t, snap.LastUpdated)
	_, err = time.Parse(TimeFormat, *snap.LastUpdated)
	assert.NoError(t, err)
}

func TestRefresh_IdempotentModuloTimestamp(t *testing.T) {
	m, _ := newTestMonitor(testClient())

	first, err := m.refresh(context.Background())
	require.NoError(t, err)
	second, err := m.refresh(context.Background())
	require.NoError(t, err)

	first.LastUpdated = nil
	second.LastUpdated = nil

	a, err := sonic.Marshal(first)
	require.NoError(t, err)
	b, err := sonic.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "identical upstream data must produce identical snapshots")
}

func TestRunCycle_FailedCycleKeepsPreviousSnapshot(t *testing.T) {
	client := testClient()
	m, cache := newTestMonitor(client)

	m.runCycle(context.Background())
	published := cache.Current()
	require.NotNil(t, published.LastUpdated)

	client.midsErr = errUpstream
	m.runCycle(context.Background())

	after := cache.Current()
	assert.Equal(t, published, after, "failed cycle must not touch the cache")
}

func TestRunCycle_TotalFailureLeavesCacheEmpty(t *testing.T) {
	client := testClient()
	client.stateErr = errUpstream
	m, cache := newTestMonitor(client)

	m.runCycle(context.Background())

	snap := cache.Current()
	assert.Nil(t, snap.LastUpdated)
	assert.Empty(t, snap.Positions)
	assert.False(t, cache.Ready())
}

func TestStart_SecondStartRejected(t *testing.T) {
	m, _ := newTestMonitor(testClient())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	// wait for the first cycle to land
	require.Eventually(t, func() bool { return m.started.Load() }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, m.Start(ctx), ErrAlreadyStarted)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStart_NotifiesOnPublish(t *testing.T) {
	m, _ := newTestMonitor(testClient())

	got := make(chan Snapshot, 1)
	m.OnPublish(func(s Snapshot) { got <- s })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	select {
	case snap := <-got:
		assert.Equal(t, 3, snap.Summary.NumPositions)
	case <-time.After(time.Second):
		t.Fatal("no publish notification")
	}
}

func TestCache_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	m, cache := newTestMonitor(testClient())

	base, err := m.refresh(context.Background())
	require.NoError(t, err)

	// A second, smaller snapshot to alternate with.
	small := emptySnapshot()
	ts := time.Now().UTC().Format(TimeFormat)
	small.LastUpdated = &ts

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				cache.Publish(base)
			} else {
				cache.Publish(small)
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				snap := cache.Current()
				// summary must always describe the position list it was
				// published with
				assert.Equal(t, snap.Summary.NumPositions, len(snap.Positions))
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
