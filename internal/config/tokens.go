package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"easysave/internal/model"
)

// ParseTokens parses "symbol=address" pairs into token descriptors,
// preserving the configured order.
func ParseTokens(pairs []string) ([]model.TokenDescriptor, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one token is required")
	}

	tokens := make([]model.TokenDescriptor, 0, len(pairs))
	seen := make(map[common.Address]struct{}, len(pairs))
	for _, pair := range pairs {
		symbol, addr, ok := strings.Cut(pair, "=")
		symbol = strings.TrimSpace(symbol)
		addr = strings.TrimSpace(addr)
		if !ok || symbol == "" || addr == "" {
			return nil, fmt.Errorf("invalid token pair %q, want symbol=address", pair)
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid token address %q", addr)
		}
		address := common.HexToAddress(addr)
		if _, dup := seen[address]; dup {
			return nil, fmt.Errorf("duplicate token address %q", addr)
		}
		seen[address] = struct{}{}
		tokens = append(tokens, model.TokenDescriptor{Symbol: symbol, Address: address})
	}

	return tokens, nil
}
