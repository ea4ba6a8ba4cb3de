package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cluster-monitor/internal/config"
	"cluster-monitor/internal/exchange"

	"github.com/sonirico/go-hyperliquid"
)

// Client wraps the Hyperliquid Info API. The monitor is read-only, so no
// Exchange (signing) client is created.
type Client struct {
	cfg        config.HyperliquidConfig
	info       *hyperliquid.Info
	httpClient *http.Client
}

func NewClient(ctx context.Context, cfg config.HyperliquidConfig) *Client {
	// NewInfo(ctx, baseURL, skipWS, meta, spotMeta, opts...)
	info := hyperliquid.NewInfo(ctx, cfg.BaseURL, true, nil, nil)

	return &Client{
		cfg:  cfg,
		info: info,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ exchange.AccountDataClient = (*Client)(nil)

func (c *Client) AccountState(ctx context.Context, address string) (*exchange.AccountState, error) {
	state, err := c.info.UserState(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user state for %s: %w", address, err)
	}

	out := &exchange.AccountState{}
	for _, ap := range state.AssetPositions {
		out.PerpPositions = append(out.PerpPositions, exchange.PerpPosition{
			Coin: ap.Position.Coin,
			Szi:  ap.Position.Szi,
		})
	}

	// Spot balances live behind a separate endpoint.
	spot, err := c.info.SpotUserState(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spot state for %s: %w", address, err)
	}
	for _, b := range spot.Balances {
		out.SpotBalances = append(out.SpotBalances, exchange.SpotBalance{
			Coin:  b.Coin,
			Total: b.Total,
		})
	}

	return out, nil
}

func (c *Client) MidPrices(ctx context.Context) (map[string]string, error) {
	mids, err := c.info.AllMids(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mids: %w", err)
	}

	out := make(map[string]string, len(mids))
	for k, v := range mids {
		out[string(k)] = string(v)
	}
	return out, nil
}

// userFunding response entries. The SDK's UserFundingHistory type does not
// carry the per-event usdc delta, so the info endpoint is queried directly.
type userFundingEntry struct {
	Time  int64        `json:"time"`
	Delta fundingDelta `json:"delta"`
}

type fundingDelta struct {
	Coin string `json:"coin"`
	Usdc string `json:"usdc"`
}

func (c *Client) FundingHistory(ctx context.Context, address string, sinceMs int64) ([]exchange.FundingEvent, error) {
	reqBody, err := json.Marshal(map[string]any{
		"type":      "userFunding",
		"user":      address,
		"startTime": sinceMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode funding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/info", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build funding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch funding history for %s: %w", address, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read funding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("funding request for %s failed with status %d: %s", address, resp.StatusCode, body)
	}

	var entries []userFundingEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode funding response: %w", err)
	}

	events := make([]exchange.FundingEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, exchange.FundingEvent{
			Coin: e.Delta.Coin,
			Usdc: e.Delta.Usdc,
			Time: e.Time,
		})
	}
	return events, nil
}
