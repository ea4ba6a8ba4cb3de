package monitor

import (
	"math"
	"sort"
)

type CoinAggregate struct {
	Coin    string  `json:"coin"`
	SpotUSD float64 `json:"spot_usd"`
	PerpUSD float64 `json:"perp_usd"`
}

type AccountAggregate struct {
	Account string  `json:"account"`
	SpotUSD float64 `json:"spot_usd"`
	PerpUSD float64 `json:"perp_usd"`
}

type Summary struct {
	SpotExposure    float64 `json:"spot_exposure"`
	PerpExposure    float64 `json:"perp_exposure"`
	NetDelta        float64 `json:"net_delta"`
	Hedged          bool    `json:"hedged"`
	TotalFunding24h float64 `json:"total_funding_24h"`
	NumPositions    int     `json:"num_positions"`
}

// Aggregate folds valued positions into per-coin and per-account spot/perp
// buckets. Coins are sorted descending by gross bucket size
// (|spot| + |perp|); accounts keep the order they were first seen in.
func Aggregate(positions []Position) ([]CoinAggregate, []AccountAggregate) {
	byCoin := make(map[string]*CoinAggregate)
	byAccount := make(map[string]*AccountAggregate)
	var coinOrder, accountOrder []string

	for _, p := range positions {
		c, ok := byCoin[p.Coin]
		if !ok {
			c = &CoinAggregate{Coin: p.Coin}
			byCoin[p.Coin] = c
			coinOrder = append(coinOrder, p.Coin)
		}
		a, ok := byAccount[p.Account]
		if !ok {
			a = &AccountAggregate{Account: p.Account}
			byAccount[p.Account] = a
			accountOrder = append(accountOrder, p.Account)
		}

		if p.Kind == KindSpot {
			c.SpotUSD += p.USDValue
			a.SpotUSD += p.USDValue
		} else {
			c.PerpUSD += p.USDValue
			a.PerpUSD += p.USDValue
		}
	}

	coins := make([]CoinAggregate, 0, len(coinOrder))
	for _, name := range coinOrder {
		c := byCoin[name]
		coins = append(coins, CoinAggregate{
			Coin:    c.Coin,
			SpotUSD: round2(c.SpotUSD),
			PerpUSD: round2(c.PerpUSD),
		})
	}
	sort.SliceStable(coins, func(i, j int) bool {
		return gross(coins[i]) > gross(coins[j])
	})

	accounts := make([]AccountAggregate, 0, len(accountOrder))
	for _, name := range accountOrder {
		a := byAccount[name]
		accounts = append(accounts, AccountAggregate{
			Account: a.Account,
			SpotUSD: round2(a.SpotUSD),
			PerpUSD: round2(a.PerpUSD),
		})
	}

	return coins, accounts
}

func gross(c CoinAggregate) float64 {
	return math.Abs(c.SpotUSD) + math.Abs(c.PerpUSD)
}

// BuildSummary computes the cluster-wide rollup from valued positions.
func BuildSummary(positions []Position, totalFunding float64) Summary {
	var spot, perp float64
	for _, p := range positions {
		if p.Kind == KindSpot {
			spot += p.USDValue
		} else {
			perp += p.USDValue
		}
	}
	net := spot + perp

	return Summary{
		SpotExposure:    round2(spot),
		PerpExposure:    round2(perp),
		NetDelta:        round2(net),
		Hedged:          hedged(spot, net),
		TotalFunding24h: round2(totalFunding),
		NumPositions:    len(positions),
	}
}

// hedged classifies net exposure: within 5% of gross spot exposure when
// there is a spot book, within $1000 absolute when there is none. The
// relative threshold is meaningless against a zero spot base, hence the
// asymmetry.
func hedged(spotExposure, netDelta float64) bool {
	if spotExposure != 0 {
		return math.Abs(netDelta) < math.Abs(spotExposure)*0.05
	}
	return math.Abs(netDelta) < 1000
}
