package monitor

import "math"

// PriceBook maps instrument keys to mid prices. Hyperliquid keys perps by
// bare coin ("BTC") and spot pairs as "BTC/USDC".
type PriceBook map[string]float64

func NewPriceBook(raw map[string]string) PriceBook {
	book := make(PriceBook, len(raw))
	for key, val := range raw {
		book[key] = parseFloat(val)
	}
	return book
}

// Resolve returns the mid price for a coin. Spot tries the "COIN/USDC"
// pair first and falls back to the bare coin key; perps use the bare key.
// An unknown coin resolves to 0 rather than an error so the position
// stays visible with zero value.
func (b PriceBook) Resolve(coin string, kind Kind) float64 {
	if kind == KindSpot {
		if px, ok := b[coin+"/USDC"]; ok {
			return px
		}
	}
	return b[coin]
}

// ValuePositions fills in Price and USDValue for every position.
// Sizes are rounded to 4 decimals, prices and USD values to 2; the
// rounded USD value is what every downstream aggregate sums.
func ValuePositions(positions []Position, book PriceBook) []Position {
	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		price := book.Resolve(p.Coin, p.Kind)
		p.USDValue = round2(p.Size * price)
		p.Size = round4(p.Size)
		p.Price = round2(price)
		out = append(out, p)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
