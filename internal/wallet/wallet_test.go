package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"easysave/internal/chain"
	"easysave/internal/model"
)

type fakeProvider struct {
	available        bool
	networkID        *big.Int
	networkErr       error
	accounts         []common.Address
	accountsErr      error
	accountsRequests int
	signer           *bind.TransactOpts
}

func (p *fakeProvider) Available() bool { return p.available }

func (p *fakeProvider) NetworkID(context.Context) (*big.Int, error) {
	return p.networkID, p.networkErr
}

func (p *fakeProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	p.accountsRequests++
	return p.accounts, p.accountsErr
}

func (p *fakeProvider) Signer() (*bind.TransactOpts, error) { return p.signer, nil }

func testSettings() Settings {
	return Settings{
		ChainID:     11155111,
		SavingsPool: common.HexToAddress("0x2000000000000000000000000000000000000001"),
		Tokens: []model.TokenDescriptor{
			{Symbol: "mUSDC", Address: common.HexToAddress("0x1000000000000000000000000000000000000001")},
			{Symbol: "mDAI", Address: common.HexToAddress("0x1000000000000000000000000000000000000002")},
			{Symbol: "mUSDT", Address: common.HexToAddress("0x1000000000000000000000000000000000000003")},
		},
	}
}

func testChainClient(t *testing.T) *chain.Client {
	t.Helper()
	client, err := chain.NewClient(context.Background(), "http://127.0.0.1:8545")
	if err != nil {
		t.Fatalf("new chain client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func testSigner(t *testing.T) *bind.TransactOpts {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(11155111))
	if err != nil {
		t.Fatalf("transactor: %v", err)
	}
	return opts
}

func TestConnectProviderUnavailable(t *testing.T) {
	_, err := Connect(context.Background(), nil, testChainClient(t), testSettings(), nil)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	_, err = Connect(context.Background(), &fakeProvider{available: false}, testChainClient(t), testSettings(), nil)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestConnectWrongNetwork(t *testing.T) {
	provider := &fakeProvider{available: true, networkID: big.NewInt(1)}

	_, err := Connect(context.Background(), provider, testChainClient(t), testSettings(), nil)
	if !errors.Is(err, ErrWrongNetwork) {
		t.Fatalf("expected ErrWrongNetwork, got %v", err)
	}
	if provider.accountsRequests != 0 {
		t.Fatalf("no account authorization should be requested on wrong network, got %d", provider.accountsRequests)
	}
}

func TestConnectAuthorizationDenied(t *testing.T) {
	provider := &fakeProvider{
		available:   true,
		networkID:   big.NewInt(11155111),
		accountsErr: errors.New("user denied"),
	}
	_, err := Connect(context.Background(), provider, testChainClient(t), testSettings(), nil)
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected ErrAuthorizationDenied, got %v", err)
	}

	provider = &fakeProvider{available: true, networkID: big.NewInt(11155111)}
	_, err = Connect(context.Background(), provider, testChainClient(t), testSettings(), nil)
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("expected ErrAuthorizationDenied for empty accounts, got %v", err)
	}
}

func TestConnectBindsSession(t *testing.T) {
	account := common.HexToAddress("0x3000000000000000000000000000000000000009")
	provider := &fakeProvider{
		available: true,
		networkID: big.NewInt(11155111),
		accounts:  []common.Address{account},
		signer:    testSigner(t),
	}

	session, err := Connect(context.Background(), provider, testChainClient(t), testSettings(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Account != account {
		t.Fatalf("account mismatch: %s != %s", session.Account.Hex(), account.Hex())
	}
	if session.Ledger == nil {
		t.Fatalf("expected ledger handle to be bound")
	}
	if len(session.Tokens) != 3 {
		t.Fatalf("expected 3 token handles, got %d", len(session.Tokens))
	}
}

func TestKeyProviderAccounts(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	provider, err := NewKeyProvider(testChainClient(t), hexKey, 11155111)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !provider.Available() {
		t.Fatalf("expected provider to be available")
	}

	accounts, err := provider.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)
	if len(accounts) != 1 || accounts[0] != want {
		t.Fatalf("accounts mismatch: %v, want [%s]", accounts, want.Hex())
	}

	signer, err := provider.Signer()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signer.From != want {
		t.Fatalf("signer from mismatch: %s != %s", signer.From.Hex(), want.Hex())
	}
}

func TestNewKeyProviderInvalid(t *testing.T) {
	if _, err := NewKeyProvider(testChainClient(t), "", 11155111); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := NewKeyProvider(testChainClient(t), "zz", 11155111); err == nil {
		t.Fatalf("expected error for malformed key")
	}
}
