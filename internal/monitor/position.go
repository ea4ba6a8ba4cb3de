package monitor

import (
	"strconv"

	"cluster-monitor/internal/exchange"
)

type Kind string

const (
	KindSpot Kind = "SPOT"
	KindPerp Kind = "PERP"
)

// Position is one account's holding in one instrument, perp or spot
// reduced to a common shape. Price and USDValue are filled in by the
// valuation pass.
type Position struct {
	Account  string  `json:"account"`
	Coin     string  `json:"coin"`
	Size     float64 `json:"size"`
	Kind     Kind    `json:"kind"`
	Price    float64 `json:"price"`
	USDValue float64 `json:"usd_value"`
}

// NormalizeAccount flattens one account's raw state into positions.
// Perp sizes are signed (negative = short); spot totals must be strictly
// positive. Zero-size entries and unparseable numerics are dropped.
func NormalizeAccount(account string, state *exchange.AccountState) []Position {
	if state == nil {
		return nil
	}

	var out []Position
	for _, p := range state.PerpPositions {
		if size := parseFloat(p.Szi); size != 0 {
			out = append(out, Position{
				Account: account,
				Coin:    p.Coin,
				Size:    size,
				Kind:    KindPerp,
			})
		}
	}
	for _, b := range state.SpotBalances {
		if total := parseFloat(b.Total); total > 0 {
			out = append(out, Position{
				Account: account,
				Coin:    b.Coin,
				Size:    total,
				Kind:    KindSpot,
			})
		}
	}
	return out
}

// parseFloat is the uniform best-effort numeric coercion: anything the
// exchange sends that doesn't parse counts as zero.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
