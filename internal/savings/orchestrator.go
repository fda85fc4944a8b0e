package savings

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"easysave/internal/amount"
	"easysave/internal/model"
	"easysave/internal/status"
)

// Validation and scheduling failures, reported before any ledger call
// and without a status transition.
var (
	ErrInvalidAmount     = errors.New("amount must be a positive decimal")
	ErrInvalidDuration   = errors.New("duration must be between 1 and 365 days")
	ErrInvalidPoolID     = errors.New("pool id must be positive")
	ErrOperationInFlight = errors.New("another operation is in flight")
)

// Gateway is the write surface the orchestrator drives.
type Gateway interface {
	Approve(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error)
	Deposit(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error)
	BatchDeposit(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error)
	Withdraw(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error)
	LockDeposit(ctx context.Context, symbol string, amountWei *big.Int, durationSeconds int64) (*types.Transaction, error)
	WithdrawLocked(ctx context.Context, symbol string) (*types.Transaction, error)
	SetGoal(ctx context.Context, targetWei *big.Int, durationSeconds int64) (*types.Transaction, error)
	CreatePool(ctx context.Context, symbol string, targetWei *big.Int, durationSeconds int64) (*types.Transaction, error)
	Contribute(ctx context.Context, poolID uint64, amountWei *big.Int) (*types.Transaction, error)
	WaitForFinality(ctx context.Context, tx *types.Transaction) error
}

// Refresher re-derives the balance snapshot after a successful pipeline.
type Refresher interface {
	Refresh(ctx context.Context) (model.BalanceSnapshot, error)
}

// Orchestrator executes named pipelines of one or two ledger writes,
// publishing each lifecycle transition to the status channel. At most
// one pipeline is in flight at a time; a concurrent invocation fails
// fast instead of racing the single status slot.
type Orchestrator struct {
	gateway   Gateway
	refresher Refresher
	status    *status.Channel
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(gateway Gateway, refresher Refresher, statusChannel *status.Channel, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gateway:   gateway,
		refresher: refresher,
		status:    statusChannel,
		logger:    logger,
	}
}

// step is one ledger write inside a pipeline: the pending message is
// published before the write is submitted and awaited.
type step struct {
	message string
	submit  func(ctx context.Context) (*types.Transaction, error)
}

func (o *Orchestrator) run(ctx context.Context, label, successMessage string, steps []step) error {
	if !o.mu.TryLock() {
		return ErrOperationInFlight
	}
	defer o.mu.Unlock()

	for _, s := range steps {
		o.status.Publish(model.OperationStatus{Phase: model.PhasePending, Message: s.message})

		tx, err := s.submit(ctx)
		if err == nil {
			err = o.gateway.WaitForFinality(ctx, tx)
		}
		if err != nil {
			o.logger.Warn("pipeline step failed", zap.String("pipeline", label), zap.String("step", s.message), zap.Error(err))
			o.status.Publish(model.OperationStatus{Phase: model.PhaseError, Message: failureMessage(label, err)})
			return err
		}
	}

	o.status.Publish(model.OperationStatus{Phase: model.PhaseSuccess, Message: successMessage})
	o.logger.Info("pipeline complete", zap.String("pipeline", label))

	if o.refresher != nil {
		if _, err := o.refresher.Refresh(ctx); err != nil {
			// The operation itself already succeeded; the stale
			// snapshot is reported, not a reversal.
			o.logger.Warn("refresh after success failed", zap.String("pipeline", label), zap.Error(err))
			o.status.Publish(model.OperationStatus{Phase: model.PhaseError, Message: fmt.Sprintf("Balance refresh failed: %s", err.Error())})
		}
	}
	return nil
}

func parseAmount(raw string) (*big.Int, error) {
	if !amount.Positive(raw) {
		return nil, ErrInvalidAmount
	}
	wei, err := amount.ToWei(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return wei, nil
}

// Deposit approves the exact amount, then deposits it. The same wei
// value backs both writes so the authorization matches the movement.
func (o *Orchestrator) Deposit(ctx context.Context, symbol, rawAmount string) error {
	wei, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	return o.run(ctx, "Deposit", fmt.Sprintf("Successfully deposited %s %s", rawAmount, symbol), []step{
		{
			message: fmt.Sprintf("Approving %s transfer...", symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Approve(ctx, symbol, wei)
			},
		},
		{
			message: fmt.Sprintf("Depositing %s %s...", rawAmount, symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Deposit(ctx, symbol, wei)
			},
		},
	})
}

// BatchDeposit is the single-call deposit variant.
func (o *Orchestrator) BatchDeposit(ctx context.Context, symbol, rawAmount string) error {
	wei, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	return o.run(ctx, "Deposit", fmt.Sprintf("Successfully deposited %s %s", rawAmount, symbol), []step{
		{
			message: fmt.Sprintf("Depositing %s %s...", rawAmount, symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.BatchDeposit(ctx, symbol, wei)
			},
		},
	})
}

// Withdraw moves a deposited amount back to the account.
func (o *Orchestrator) Withdraw(ctx context.Context, symbol, rawAmount string) error {
	wei, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	return o.run(ctx, "Withdrawal", fmt.Sprintf("Successfully withdrew %s %s", rawAmount, symbol), []step{
		{
			message: fmt.Sprintf("Withdrawing %s %s...", rawAmount, symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Withdraw(ctx, symbol, wei)
			},
		},
	})
}

// LockDeposit approves the exact amount, then locks it for the given
// number of days.
func (o *Orchestrator) LockDeposit(ctx context.Context, symbol, rawAmount string, days int64) error {
	wei, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	if !validDuration(days) {
		return ErrInvalidDuration
	}
	seconds := DaysToSeconds(days)
	return o.run(ctx, "Lock deposit", fmt.Sprintf("Successfully locked %s %s for %d days", rawAmount, symbol, days), []step{
		{
			message: fmt.Sprintf("Approving %s transfer for lock...", symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Approve(ctx, symbol, wei)
			},
		},
		{
			message: fmt.Sprintf("Locking %s %s...", rawAmount, symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.LockDeposit(ctx, symbol, wei, seconds)
			},
		},
	})
}

// WithdrawLocked releases the matured locked balance for the token.
func (o *Orchestrator) WithdrawLocked(ctx context.Context, symbol string) error {
	return o.run(ctx, "Withdrawal", fmt.Sprintf("Successfully withdrew locked %s", symbol), []step{
		{
			message: fmt.Sprintf("Withdrawing locked %s...", symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.WithdrawLocked(ctx, symbol)
			},
		},
	})
}

// SetGoal records a savings goal due in the given number of days.
func (o *Orchestrator) SetGoal(ctx context.Context, rawTarget string, days int64) error {
	wei, err := parseAmount(rawTarget)
	if err != nil {
		return err
	}
	if !validDuration(days) {
		return ErrInvalidDuration
	}
	seconds := DaysToSeconds(days)
	due := time.Now().AddDate(0, 0, int(days)).Format("2006-01-02")
	return o.run(ctx, "Goal setting", fmt.Sprintf("Goal set: %s by %s", rawTarget, due), []step{
		{
			message: "Setting savings goal...",
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.SetGoal(ctx, wei, seconds)
			},
		},
	})
}

// CreatePool creates a shared savings pool for the token.
func (o *Orchestrator) CreatePool(ctx context.Context, symbol, rawTarget string, days int64) error {
	wei, err := parseAmount(rawTarget)
	if err != nil {
		return err
	}
	if !validDuration(days) {
		return ErrInvalidDuration
	}
	seconds := DaysToSeconds(days)
	due := time.Now().AddDate(0, 0, int(days)).Format("2006-01-02")
	return o.run(ctx, "Pool creation", fmt.Sprintf("Pool created: %s %s by %s", rawTarget, symbol, due), []step{
		{
			message: fmt.Sprintf("Creating pool with %s...", symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.CreatePool(ctx, symbol, wei, seconds)
			},
		},
	})
}

// Contribute approves the exact amount, then contributes it to the pool.
func (o *Orchestrator) Contribute(ctx context.Context, poolID uint64, symbol, rawAmount string) error {
	wei, err := parseAmount(rawAmount)
	if err != nil {
		return err
	}
	if poolID == 0 {
		return ErrInvalidPoolID
	}
	return o.run(ctx, "Contribution", fmt.Sprintf("Successfully contributed %s %s to pool %d", rawAmount, symbol, poolID), []step{
		{
			message: fmt.Sprintf("Approving %s transfer...", symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Approve(ctx, symbol, wei)
			},
		},
		{
			message: fmt.Sprintf("Contributing %s %s to pool...", rawAmount, symbol),
			submit: func(ctx context.Context) (*types.Transaction, error) {
				return o.gateway.Contribute(ctx, poolID, wei)
			},
		},
	})
}
