package monitor

import "sync"

// TimeFormat is the wire format of last_updated.
const TimeFormat = "2006-01-02 15:04:05 UTC"

// Snapshot is the complete result of one refresh cycle. It is built in
// full before being published and never mutated afterwards.
type Snapshot struct {
	Positions   []Position         `json:"positions"`
	Summary     Summary            `json:"summary"`
	ByCoin      []CoinAggregate    `json:"by_coin"`
	ByAccount   []AccountAggregate `json:"by_account"`
	Funding     []FundingRecord    `json:"funding"`
	LastUpdated *string            `json:"last_updated"`
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Positions: []Position{},
		ByCoin:    []CoinAggregate{},
		ByAccount: []AccountAggregate{},
		Funding:   []FundingRecord{},
	}
}

// Cache holds the one published snapshot. Publish replaces it wholesale,
// so readers either see the previous snapshot or the new one, never a
// mix. A nil LastUpdated means no cycle has succeeded yet.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewCache() *Cache {
	return &Cache{snap: emptySnapshot()}
}

func (c *Cache) Publish(snap Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}

func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.LastUpdated != nil
}
