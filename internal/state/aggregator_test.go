package state

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"easysave/internal/model"
)

type fakeLedger struct {
	balances        map[string]string
	interests       map[string]string
	lockedBalances  map[string]string
	lockedInterests map[string]string
	rates           map[string]int64
	goal            model.GoalState
	goalErr         error
	interestErrs    map[string]error
	poolCount       uint64
	poolCountErr    error
	poolErrs        map[uint64]error
	pools           map[uint64]model.PoolView
	history         []model.HistoryEntry
}

func (f *fakeLedger) lookup(m map[string]string, symbol string) (string, error) {
	if v, ok := m[symbol]; ok {
		return v, nil
	}
	return "0", nil
}

func (f *fakeLedger) Balance(_ context.Context, symbol string) (string, error) {
	return f.lookup(f.balances, symbol)
}

func (f *fakeLedger) Interest(_ context.Context, symbol string) (string, error) {
	if err := f.interestErrs[symbol]; err != nil {
		return "0", err
	}
	return f.lookup(f.interests, symbol)
}

func (f *fakeLedger) LockedBalance(_ context.Context, symbol string) (string, error) {
	return f.lookup(f.lockedBalances, symbol)
}

func (f *fakeLedger) LockedInterest(_ context.Context, symbol string) (string, error) {
	return f.lookup(f.lockedInterests, symbol)
}

func (f *fakeLedger) Rate(_ context.Context, symbol string) (int64, error) {
	return f.rates[symbol], nil
}

func (f *fakeLedger) Goal(context.Context) (model.GoalState, error) {
	if f.goalErr != nil {
		return model.GoalState{TargetAmount: "0"}, f.goalErr
	}
	return f.goal, nil
}

func (f *fakeLedger) PoolCount(context.Context) (uint64, error) {
	return f.poolCount, f.poolCountErr
}

func (f *fakeLedger) Pool(_ context.Context, id uint64) (model.PoolView, error) {
	if err := f.poolErrs[id]; err != nil {
		return model.PoolView{}, err
	}
	if pool, ok := f.pools[id]; ok {
		return pool, nil
	}
	return model.PoolView{ID: id, Balance: "0", TargetAmount: "0", Token: "Unknown"}, nil
}

func (f *fakeLedger) History(context.Context) ([]model.HistoryEntry, error) {
	return f.history, nil
}

func testTokens() []model.TokenDescriptor {
	return []model.TokenDescriptor{
		{Symbol: "mUSDC", Address: common.HexToAddress("0x1000000000000000000000000000000000000001")},
		{Symbol: "mDAI", Address: common.HexToAddress("0x1000000000000000000000000000000000000002")},
		{Symbol: "mUSDT", Address: common.HexToAddress("0x1000000000000000000000000000000000000003")},
	}
}

func TestRefreshPopulatesEveryKey(t *testing.T) {
	agg := NewAggregator(&fakeLedger{}, testTokens(), nil)

	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, symbol := range []string{"mUSDC", "mDAI", "mUSDT"} {
		maps := map[string]map[string]string{
			"balances":         snap.Balances,
			"interests":        snap.Interests,
			"locked balances":  snap.LockedBalances,
			"locked interests": snap.LockedInterests,
		}
		for name, m := range maps {
			if _, ok := m[symbol]; !ok {
				t.Fatalf("missing %s entry for %s", name, symbol)
			}
		}
		if _, ok := snap.Rates[symbol]; !ok {
			t.Fatalf("missing rate entry for %s", symbol)
		}
	}

	if snap.Goal.Achieved || snap.Goal.Deadline != 0 || snap.Goal.TargetAmount != "0" {
		t.Fatalf("expected default goal, got %+v", snap.Goal)
	}
}

func TestRefreshIsolatesSingleReadFailure(t *testing.T) {
	ledger := &fakeLedger{
		balances:     map[string]string{"mUSDC": "100", "mDAI": "50", "mUSDT": "25"},
		interests:    map[string]string{"mUSDC": "1.5", "mDAI": "0.8", "mUSDT": "0.2"},
		interestErrs: map[string]error{"mDAI": errors.New("call calculateInterest: boom")},
	}
	agg := NewAggregator(ledger, testTokens(), nil)

	snap, err := agg.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Interests["mDAI"] != "0" {
		t.Fatalf("failed read should default to zero, got %q", snap.Interests["mDAI"])
	}
	if snap.Interests["mUSDC"] != "1.5" || snap.Interests["mUSDT"] != "0.2" {
		t.Fatalf("unaffected interests changed: %+v", snap.Interests)
	}
	if snap.Balances["mDAI"] != "50" {
		t.Fatalf("other fields of the failing token should survive, got %q", snap.Balances["mDAI"])
	}
}

func TestRefreshNoSession(t *testing.T) {
	agg := NewAggregator(nil, testTokens(), nil)
	if _, err := agg.Refresh(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := agg.RefreshPools(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCurrentReplacedWholesale(t *testing.T) {
	ledger := &fakeLedger{balances: map[string]string{"mUSDC": "10"}}
	agg := NewAggregator(ledger, testTokens(), nil)

	if _, ok := agg.Current(); ok {
		t.Fatalf("expected no snapshot before first refresh")
	}

	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := agg.Current()

	ledger.balances["mUSDC"] = "250"
	if _, err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := agg.Current()

	if first.Balances["mUSDC"] != "10" {
		t.Fatalf("earlier snapshot mutated: %q", first.Balances["mUSDC"])
	}
	if second.Balances["mUSDC"] != "250" {
		t.Fatalf("refresh not visible: %q", second.Balances["mUSDC"])
	}
}

func TestRefreshPoolsSkipsFailedIDs(t *testing.T) {
	ledger := &fakeLedger{
		poolCount: 3,
		poolErrs:  map[uint64]error{2: errors.New("call pools: boom")},
		pools: map[uint64]model.PoolView{
			1: {ID: 1, Balance: "5", TargetAmount: "100", Token: "mUSDC"},
			3: {ID: 3, Balance: "1", TargetAmount: "40", Token: "mDAI"},
		},
	}
	agg := NewAggregator(ledger, testTokens(), nil)

	pools, err := agg.RefreshPools(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pools) != 2 || pools[0].ID != 1 || pools[1].ID != 3 {
		t.Fatalf("expected pools [1 3], got %+v", pools)
	}
}

func TestRefreshPoolsCountFailure(t *testing.T) {
	ledger := &fakeLedger{poolCountErr: fmt.Errorf("call poolCount: boom")}
	agg := NewAggregator(ledger, testTokens(), nil)
	if _, err := agg.RefreshPools(context.Background()); err == nil {
		t.Fatalf("expected error when pool count is unavailable")
	}
}
