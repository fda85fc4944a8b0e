package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"easysave/internal/chain"
	"easysave/internal/ledger"
	"easysave/internal/model"
)

// Connection failures. All are fatal to the session being established;
// the caller retries Connect.
var (
	ErrProviderUnavailable = errors.New("wallet provider unavailable")
	ErrWrongNetwork        = errors.New("wrong network")
	ErrAuthorizationDenied = errors.New("account authorization denied")
)

// Provider is the wallet boundary: network identity, account
// authorization, and a transaction signer.
type Provider interface {
	Available() bool
	NetworkID(ctx context.Context) (*big.Int, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	Signer() (*bind.TransactOpts, error)
}

// Session binds an authorized account to its ledger gateway. It is
// either fully populated or absent; Connect replaces it wholesale.
type Session struct {
	Account common.Address
	Ledger  *ledger.Gateway
	Tokens  []model.TokenDescriptor
}

// Settings identifies the supported network and contract set.
type Settings struct {
	ChainID     uint64
	SavingsPool common.Address
	PriceFeed   *common.Address
	Tokens      []model.TokenDescriptor
}

// Connect validates the provider's network, requests account
// authorization, and binds the ledger handles. No handle is bound
// before the network check passes.
func Connect(ctx context.Context, provider Provider, chainClient *chain.Client, settings Settings, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if provider == nil || !provider.Available() {
		return nil, ErrProviderUnavailable
	}

	networkID, err := provider.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: network id: %v", ErrProviderUnavailable, err)
	}
	if !networkID.IsUint64() || networkID.Uint64() != settings.ChainID {
		return nil, fmt.Errorf("%w: connected to chain %s, want %d", ErrWrongNetwork, networkID, settings.ChainID)
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: no accounts authorized", ErrAuthorizationDenied)
	}
	account := accounts[0]

	signer, err := provider.Signer()
	if err != nil {
		return nil, fmt.Errorf("%w: signer: %v", ErrAuthorizationDenied, err)
	}

	gateway, err := ledger.New(chainClient, account, signer, settings.SavingsPool, settings.PriceFeed, settings.Tokens)
	if err != nil {
		return nil, fmt.Errorf("bind ledger: %w", err)
	}

	logger.Info("session established",
		zap.String("account", account.Hex()),
		zap.Uint64("chain_id", settings.ChainID),
		zap.Int("tokens", len(settings.Tokens)),
	)

	return &Session{
		Account: account,
		Ledger:  gateway,
		Tokens:  settings.Tokens,
	}, nil
}
