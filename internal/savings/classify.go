package savings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	"easysave/internal/ledger"
)

// WriteErrorKind classifies a failed ledger write. Classification only
// selects the message shown to the user; every kind is a terminal error.
type WriteErrorKind int

const (
	KindUnknown WriteErrorKind = iota
	KindUserRejectedSigning
	KindInsufficientFunds
	KindProviderCircuitBreaker
	KindLedgerReverted
)

// userRejectedCode is the EIP-1193 code for a signing request the user
// turned down.
const userRejectedCode = 4001

const circuitBreakerMessage = "Wallet provider circuit breaker triggered. Please try again later or check your RPC settings."

// Classify inspects the machine-readable reason when present, then the
// message text, falling back to Unknown.
func Classify(err error) WriteErrorKind {
	if err == nil {
		return KindUnknown
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return KindUserRejectedSigning
	}
	if errors.Is(err, ledger.ErrReverted) {
		return KindLedgerReverted
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "circuit breaker"):
		return KindProviderCircuitBreaker
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "user rejected"):
		return KindUserRejectedSigning
	case strings.Contains(msg, "insufficient funds"):
		return KindInsufficientFunds
	case strings.Contains(msg, "execution reverted"), strings.Contains(msg, "revert"):
		return KindLedgerReverted
	default:
		return KindUnknown
	}
}

// failureMessage renders the user-facing text for a failed pipeline.
func failureMessage(label string, err error) string {
	switch Classify(err) {
	case KindProviderCircuitBreaker:
		return circuitBreakerMessage
	case KindUserRejectedSigning:
		return fmt.Sprintf("%s failed: transaction rejected by user", label)
	case KindInsufficientFunds:
		return fmt.Sprintf("%s failed: insufficient funds", label)
	default:
		return fmt.Sprintf("%s failed: %s", label, err.Error())
	}
}
