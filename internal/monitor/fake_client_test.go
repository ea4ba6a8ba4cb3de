package monitor

import (
	"context"
	"errors"

	"cluster-monitor/internal/exchange"
)

// fakeClient serves canned exchange data keyed by address.
type fakeClient struct {
	states     map[string]*exchange.AccountState
	mids       map[string]string
	funding    map[string][]exchange.FundingEvent
	stateErr   error
	midsErr    error
	fundingErr map[string]error
}

var _ exchange.AccountDataClient = (*fakeClient)(nil)

func (f *fakeClient) AccountState(ctx context.Context, address string) (*exchange.AccountState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	if st, ok := f.states[address]; ok {
		return st, nil
	}
	return &exchange.AccountState{}, nil
}

func (f *fakeClient) MidPrices(ctx context.Context) (map[string]string, error) {
	if f.midsErr != nil {
		return nil, f.midsErr
	}
	return f.mids, nil
}

func (f *fakeClient) FundingHistory(ctx context.Context, address string, sinceMs int64) ([]exchange.FundingEvent, error) {
	if err := f.fundingErr[address]; err != nil {
		return nil, err
	}
	return f.funding[address], nil
}

var errUpstream = errors.New("upstream unreachable")
