package exchange

import "context"

// AccountDataClient is the read-only view of the exchange the monitor needs.
type AccountDataClient interface {
	// AccountState returns the open perp positions and spot balances for
	// one address.
	AccountState(ctx context.Context, address string) (*AccountState, error)

	// MidPrices returns the current mid price for every instrument,
	// keyed the way the exchange keys them (bare coin for perps,
	// "COIN/USDC" for spot pairs).
	MidPrices(ctx context.Context) (map[string]string, error)

	// FundingHistory returns the funding payments credited to an address
	// since sinceMs (milliseconds epoch).
	FundingHistory(ctx context.Context, address string, sinceMs int64) ([]FundingEvent, error)
}

// Raw account state as reported by the exchange. Numeric fields stay
// strings here; coercion happens downstream.
type AccountState struct {
	PerpPositions []PerpPosition
	SpotBalances  []SpotBalance
}

type PerpPosition struct {
	Coin string
	Szi  string // signed size, negative = short
}

type SpotBalance struct {
	Coin  string
	Total string
}

type FundingEvent struct {
	Coin string
	Usdc string
	Time int64
}
