package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"easysave/internal/chain"
)

// KeyProvider is a Provider backed by a local private key and an RPC
// endpoint. Account authorization is implicit in holding the key.
type KeyProvider struct {
	chain   *chain.Client
	key     *ecdsa.PrivateKey
	chainID *big.Int
}

// NewKeyProvider parses a hex private key and binds it to the chain.
func NewKeyProvider(chainClient *chain.Client, privateKeyHex string, chainID uint64) (*KeyProvider, error) {
	hexKey := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyProvider{
		chain:   chainClient,
		key:     key,
		chainID: new(big.Int).SetUint64(chainID),
	}, nil
}

func (p *KeyProvider) Available() bool {
	return p != nil && p.chain != nil && p.key != nil
}

func (p *KeyProvider) NetworkID(ctx context.Context) (*big.Int, error) {
	return p.chain.ChainID(ctx)
}

func (p *KeyProvider) RequestAccounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{crypto.PubkeyToAddress(p.key.PublicKey)}, nil
}

func (p *KeyProvider) Signer() (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	return opts, nil
}
