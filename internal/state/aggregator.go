package state

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"easysave/internal/model"
)

// ErrNoSession reports a refresh attempted without a bound session.
// This is the only fatal failure mode; individual read failures are
// absorbed into zero defaults.
var ErrNoSession = errors.New("no active session")

// Ledger is the read surface the aggregator consumes.
type Ledger interface {
	Balance(ctx context.Context, symbol string) (string, error)
	Interest(ctx context.Context, symbol string) (string, error)
	LockedBalance(ctx context.Context, symbol string) (string, error)
	LockedInterest(ctx context.Context, symbol string) (string, error)
	Rate(ctx context.Context, symbol string) (int64, error)
	Goal(ctx context.Context) (model.GoalState, error)
	PoolCount(ctx context.Context) (uint64, error)
	Pool(ctx context.Context, id uint64) (model.PoolView, error)
	History(ctx context.Context) ([]model.HistoryEntry, error)
}

// Aggregator merges the per-token read battery into immutable snapshots.
// A new snapshot replaces the previous one wholesale.
type Aggregator struct {
	ledger   Ledger
	tokens   []model.TokenDescriptor
	logger   *zap.Logger
	snapshot snapshotSlot
}

// NewAggregator binds the aggregator to a session's ledger handle and
// its fixed token set.
func NewAggregator(ledger Ledger, tokens []model.TokenDescriptor, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{ledger: ledger, tokens: tokens, logger: logger}
}

// Refresh issues the five per-token reads plus the account goal read,
// each in isolation: any single failure is logged and replaced with the
// zero default, never aborting the round. The merge is keyed by symbol,
// so read completion order cannot change the result.
func (a *Aggregator) Refresh(ctx context.Context) (model.BalanceSnapshot, error) {
	if a == nil || a.ledger == nil {
		return model.BalanceSnapshot{}, ErrNoSession
	}

	symbols := make([]string, 0, len(a.tokens))
	for _, token := range a.tokens {
		symbols = append(symbols, token.Symbol)
	}
	snap := model.NewBalanceSnapshot(symbols)

	for _, token := range a.tokens {
		symbol := token.Symbol

		if balance, err := a.ledger.Balance(ctx, symbol); err == nil {
			snap.Balances[symbol] = balance
		} else {
			a.logger.Warn("balance read failed", zap.String("token", symbol), zap.Error(err))
		}

		if interest, err := a.ledger.Interest(ctx, symbol); err == nil {
			snap.Interests[symbol] = interest
		} else {
			a.logger.Warn("interest read failed", zap.String("token", symbol), zap.Error(err))
		}

		if locked, err := a.ledger.LockedBalance(ctx, symbol); err == nil {
			snap.LockedBalances[symbol] = locked
		} else {
			a.logger.Warn("locked balance read failed", zap.String("token", symbol), zap.Error(err))
		}

		if lockedInterest, err := a.ledger.LockedInterest(ctx, symbol); err == nil {
			snap.LockedInterests[symbol] = lockedInterest
		} else {
			a.logger.Warn("locked interest read failed", zap.String("token", symbol), zap.Error(err))
		}

		if rate, err := a.ledger.Rate(ctx, symbol); err == nil {
			snap.Rates[symbol] = rate
		} else {
			a.logger.Warn("rate read failed", zap.String("token", symbol), zap.Error(err))
		}
	}

	if goal, err := a.ledger.Goal(ctx); err == nil {
		snap.Goal = goal
	} else {
		a.logger.Warn("goal read failed", zap.Error(err))
	}

	a.snapshot.store(snap)
	return snap, nil
}

// Current returns the most recent snapshot, if one has been produced.
func (a *Aggregator) Current() (model.BalanceSnapshot, bool) {
	return a.snapshot.load()
}

// RefreshPools enumerates pool ids 1..count. A failing id is logged and
// omitted; enumeration continues with the next id.
func (a *Aggregator) RefreshPools(ctx context.Context) ([]model.PoolView, error) {
	if a == nil || a.ledger == nil {
		return nil, ErrNoSession
	}

	count, err := a.ledger.PoolCount(ctx)
	if err != nil {
		return nil, err
	}

	pools := make([]model.PoolView, 0, count)
	for id := uint64(1); id <= count; id++ {
		pool, err := a.ledger.Pool(ctx, id)
		if err != nil {
			a.logger.Warn("pool read failed", zap.Uint64("pool_id", id), zap.Error(err))
			continue
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// History returns the account's typed ledger history.
func (a *Aggregator) History(ctx context.Context) ([]model.HistoryEntry, error) {
	if a == nil || a.ledger == nil {
		return nil, ErrNoSession
	}
	return a.ledger.History(ctx)
}
