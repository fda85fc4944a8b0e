package model

import "github.com/ethereum/go-ethereum/common"

// TokenDescriptor identifies one supported savings token.
// The set is fixed at session start; identity is the address.
type TokenDescriptor struct {
	Symbol  string
	Address common.Address
}
