package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseTokens(t *testing.T) {
	pairs := []string{
		"mUSDC=0x1000000000000000000000000000000000000001",
		"mDAI=0x1000000000000000000000000000000000000002",
		"mUSDT=0x1000000000000000000000000000000000000003",
	}

	tokens, err := ParseTokens(pairs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[0].Symbol != "mUSDC" || tokens[1].Symbol != "mDAI" || tokens[2].Symbol != "mUSDT" {
		t.Fatalf("token order mismatch: %+v", tokens)
	}
	want := common.HexToAddress("0x1000000000000000000000000000000000000002")
	if tokens[1].Address != want {
		t.Fatalf("address mismatch: %s != %s", tokens[1].Address.Hex(), want.Hex())
	}
}

func TestParseTokensInvalid(t *testing.T) {
	cases := [][]string{
		nil,
		{"mUSDC"},
		{"=0x1000000000000000000000000000000000000001"},
		{"mUSDC=not-an-address"},
		{
			"mUSDC=0x1000000000000000000000000000000000000001",
			"mDAI=0x1000000000000000000000000000000000000001",
		},
	}
	for _, pairs := range cases {
		if _, err := ParseTokens(pairs); err == nil {
			t.Fatalf("expected error for %v", pairs)
		}
	}
}
