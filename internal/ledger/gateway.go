package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"easysave/internal/amount"
	"easysave/internal/chain"
	"easysave/internal/model"
)

// ErrReverted reports a transaction that was mined but failed on the ledger.
var ErrReverted = errors.New("execution reverted")

// Gas limits mirror the contract's known cost envelope per action.
const (
	approveGasLimit = 100_000
	setGoalGasLimit = 200_000
	actionGasLimit  = 300_000
)

const priceFeedDecimals = 8

// Gateway is a typed facade over the SavingsPool contract, the supported
// ERC20 tokens, and the optional price feed. It translates call shapes
// only; no caching, no retries.
type Gateway struct {
	chain    *chain.Client
	account  common.Address
	signer   *bind.TransactOpts
	savings  *bind.BoundContract
	feed     *bind.BoundContract
	spender  common.Address
	tokens   []model.TokenDescriptor
	bySymbol map[string]*bind.BoundContract
}

// New binds the savings pool, one contract per token, and the price feed
// when configured.
func New(chainClient *chain.Client, account common.Address, signer *bind.TransactOpts, savingsAddr common.Address, feedAddr *common.Address, tokens []model.TokenDescriptor) (*Gateway, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("signer is nil")
	}

	poolABI, err := savingsPoolABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse savings pool abi: %w", err)
	}
	tokenABI, err := erc20ABIInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	backend := chainClient.Backend()
	g := &Gateway{
		chain:    chainClient,
		account:  account,
		signer:   signer,
		savings:  bind.NewBoundContract(savingsAddr, poolABI, backend, backend, backend),
		spender:  savingsAddr,
		tokens:   tokens,
		bySymbol: make(map[string]*bind.BoundContract, len(tokens)),
	}
	for _, token := range tokens {
		g.bySymbol[token.Symbol] = bind.NewBoundContract(token.Address, tokenABI, backend, backend, backend)
	}

	if feedAddr != nil {
		feedABI, err := priceFeedABIInstance()
		if err != nil {
			return nil, fmt.Errorf("parse price feed abi: %w", err)
		}
		g.feed = bind.NewBoundContract(*feedAddr, feedABI, backend, backend, backend)
	}

	return g, nil
}

// Tokens returns the descriptor set the gateway was bound with.
func (g *Gateway) Tokens() []model.TokenDescriptor {
	return g.tokens
}

func (g *Gateway) tokenAddress(symbol string) (common.Address, error) {
	for _, token := range g.tokens {
		if token.Symbol == symbol {
			return token.Address, nil
		}
	}
	return common.Address{}, fmt.Errorf("unknown token %q", symbol)
}

func (g *Gateway) tokenSymbol(address common.Address) string {
	for _, token := range g.tokens {
		if token.Address == address {
			return token.Symbol
		}
	}
	return "Unknown"
}

func (g *Gateway) callSavings(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error {
	opts := &bind.CallOpts{Context: ctx, From: g.account}
	if err := g.savings.Call(opts, out, method, args...); err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	return nil
}

func (g *Gateway) readWeiAmount(ctx context.Context, method, symbol string) (string, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return "0", err
	}
	var out []interface{}
	if err := g.callSavings(ctx, &out, method, g.account, addr); err != nil {
		return "0", err
	}
	wei, err := asBigInt(out[0])
	if err != nil {
		return "0", fmt.Errorf("%s: %w", method, err)
	}
	return amount.FromWei(wei), nil
}

// Balance returns the account's deposited balance for the token.
func (g *Gateway) Balance(ctx context.Context, symbol string) (string, error) {
	return g.readWeiAmount(ctx, "getBalance", symbol)
}

// Interest returns the interest accrued on the deposited balance.
func (g *Gateway) Interest(ctx context.Context, symbol string) (string, error) {
	return g.readWeiAmount(ctx, "calculateInterest", symbol)
}

// LockedBalance returns the account's locked balance for the token.
func (g *Gateway) LockedBalance(ctx context.Context, symbol string) (string, error) {
	return g.readWeiAmount(ctx, "getLockedBalance", symbol)
}

// LockedInterest returns the interest accrued on the locked balance.
func (g *Gateway) LockedInterest(ctx context.Context, symbol string) (string, error) {
	return g.readWeiAmount(ctx, "calculateLockedInterest", symbol)
}

// Rate returns the configured interest rate for the token in whole percent.
func (g *Gateway) Rate(ctx context.Context, symbol string) (int64, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return 0, err
	}
	var out []interface{}
	if err := g.callSavings(ctx, &out, "tokenRates", addr); err != nil {
		return 0, err
	}
	rate, err := asBigInt(out[0])
	if err != nil {
		return 0, fmt.Errorf("tokenRates: %w", err)
	}
	return rate.Int64(), nil
}

// Goal returns the account's savings goal.
func (g *Gateway) Goal(ctx context.Context) (model.GoalState, error) {
	var out []interface{}
	if err := g.callSavings(ctx, &out, "userGoals", g.account); err != nil {
		return model.GoalState{TargetAmount: "0"}, err
	}
	target, err := asBigInt(out[0])
	if err != nil {
		return model.GoalState{TargetAmount: "0"}, fmt.Errorf("userGoals target: %w", err)
	}
	deadline, err := asBigInt(out[1])
	if err != nil {
		return model.GoalState{TargetAmount: "0"}, fmt.Errorf("userGoals deadline: %w", err)
	}
	achieved, ok := out[2].(bool)
	if !ok {
		return model.GoalState{TargetAmount: "0"}, fmt.Errorf("userGoals achieved: unexpected type %T", out[2])
	}
	return model.GoalState{
		TargetAmount: amount.FromWei(target),
		Deadline:     deadline.Int64(),
		Achieved:     achieved,
	}, nil
}

type historyRecord struct {
	Action    string
	Amount    *big.Int
	Timestamp *big.Int
	Token     common.Address
}

// History returns the account's recorded ledger actions.
func (g *Gateway) History(ctx context.Context) ([]model.HistoryEntry, error) {
	var out []interface{}
	if err := g.callSavings(ctx, &out, "getUserHistory", g.account); err != nil {
		return nil, err
	}
	records := *abi.ConvertType(out[0], new([]historyRecord)).(*[]historyRecord)

	entries := make([]model.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, model.HistoryEntry{
			Action:    record.Action,
			Amount:    amount.FromWei(record.Amount),
			Timestamp: record.Timestamp.Int64(),
			Token:     g.tokenSymbol(record.Token),
		})
	}
	return entries, nil
}

// PoolCount returns the number of pools created on the ledger.
func (g *Gateway) PoolCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.callSavings(ctx, &out, "poolCount"); err != nil {
		return 0, err
	}
	count, err := asBigInt(out[0])
	if err != nil {
		return 0, fmt.Errorf("poolCount: %w", err)
	}
	return count.Uint64(), nil
}

// Pool reads the descriptor and current balance for one pool id.
func (g *Gateway) Pool(ctx context.Context, id uint64) (model.PoolView, error) {
	poolID := new(big.Int).SetUint64(id)

	var desc []interface{}
	if err := g.callSavings(ctx, &desc, "pools", poolID); err != nil {
		return model.PoolView{}, err
	}
	token, err := asAddress(desc[0])
	if err != nil {
		return model.PoolView{}, fmt.Errorf("pools token: %w", err)
	}
	target, err := asBigInt(desc[1])
	if err != nil {
		return model.PoolView{}, fmt.Errorf("pools target: %w", err)
	}

	var bal []interface{}
	if err := g.callSavings(ctx, &bal, "getPoolBalance", poolID); err != nil {
		return model.PoolView{}, err
	}
	balance, err := asBigInt(bal[0])
	if err != nil {
		return model.PoolView{}, fmt.Errorf("getPoolBalance: %w", err)
	}

	return model.PoolView{
		ID:           id,
		Balance:      amount.FromWei(balance),
		TargetAmount: amount.FromWei(target),
		Token:        g.tokenSymbol(token),
	}, nil
}

// LatestPrice returns the feed's latest answer in its 8-decimal units.
func (g *Gateway) LatestPrice(ctx context.Context) (string, error) {
	if g.feed == nil {
		return "0", fmt.Errorf("price feed is not configured")
	}
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, From: g.account}
	if err := g.feed.Call(opts, &out, "latestRoundData"); err != nil {
		return "0", fmt.Errorf("call latestRoundData: %w", err)
	}
	answer, err := asBigInt(out[1])
	if err != nil {
		return "0", fmt.Errorf("latestRoundData answer: %w", err)
	}
	return decimal.NewFromBigInt(answer, -priceFeedDecimals).String(), nil
}

func (g *Gateway) transactOpts(ctx context.Context, gasLimit uint64) *bind.TransactOpts {
	opts := *g.signer
	opts.Context = ctx
	opts.GasLimit = gasLimit
	return &opts
}

// Approve grants the savings pool a spend authorization for the exact
// wei amount on the given token.
func (g *Gateway) Approve(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error) {
	token, ok := g.bySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", symbol)
	}
	tx, err := token.Transact(g.transactOpts(ctx, approveGasLimit), "approve", g.spender, amountWei)
	if err != nil {
		return nil, fmt.Errorf("approve %s: %w", symbol, err)
	}
	return tx, nil
}

func (g *Gateway) transactSavings(ctx context.Context, gasLimit uint64, method string, args ...interface{}) (*types.Transaction, error) {
	tx, err := g.savings.Transact(g.transactOpts(ctx, gasLimit), method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}

// Deposit moves an approved wei amount of the token into the pool.
func (g *Gateway) Deposit(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "deposit", addr, amountWei)
}

// BatchDeposit is the single-call deposit variant without a separate
// authorization step.
func (g *Gateway) BatchDeposit(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "batchDeposit", addr, amountWei)
}

// Withdraw moves a wei amount of the token back to the account.
func (g *Gateway) Withdraw(ctx context.Context, symbol string, amountWei *big.Int) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "withdraw", addr, amountWei)
}

// LockDeposit locks an approved wei amount for durationSeconds.
func (g *Gateway) LockDeposit(ctx context.Context, symbol string, amountWei *big.Int, durationSeconds int64) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "lockDeposit", addr, amountWei, big.NewInt(durationSeconds))
}

// WithdrawLocked releases the account's matured locked balance.
func (g *Gateway) WithdrawLocked(ctx context.Context, symbol string) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "withdrawLocked", addr)
}

// SetGoal records a savings goal of targetWei due in durationSeconds.
func (g *Gateway) SetGoal(ctx context.Context, targetWei *big.Int, durationSeconds int64) (*types.Transaction, error) {
	return g.transactSavings(ctx, setGoalGasLimit, "setGoal", targetWei, big.NewInt(durationSeconds))
}

// CreatePool creates a shared pool for the token.
func (g *Gateway) CreatePool(ctx context.Context, symbol string, targetWei *big.Int, durationSeconds int64) (*types.Transaction, error) {
	addr, err := g.tokenAddress(symbol)
	if err != nil {
		return nil, err
	}
	return g.transactSavings(ctx, actionGasLimit, "createPool", addr, targetWei, big.NewInt(durationSeconds))
}

// Contribute moves an approved wei amount into an existing pool.
func (g *Gateway) Contribute(ctx context.Context, poolID uint64, amountWei *big.Int) (*types.Transaction, error) {
	return g.transactSavings(ctx, actionGasLimit, "contributeToPool", new(big.Int).SetUint64(poolID), amountWei)
}

// WaitForFinality suspends until the ledger confirms the transaction.
// A mined-but-failed transaction reports ErrReverted.
func (g *Gateway) WaitForFinality(ctx context.Context, tx *types.Transaction) error {
	receipt, err := g.chain.WaitMined(ctx, tx)
	if err != nil {
		return fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return fmt.Errorf("transaction %s: %w", tx.Hash().Hex(), ErrReverted)
	}
	return nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}
