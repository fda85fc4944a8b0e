package model

// GoalState is the account's savings goal as stored on the ledger.
// The zero value stands in until the first successful read.
type GoalState struct {
	TargetAmount string
	Deadline     int64
	Achieved     bool
}

// BalanceSnapshot is one immutable view of all derived balance state.
// Every known token symbol has an entry in every map; a failed read
// leaves the zero-equivalent default for that field only.
type BalanceSnapshot struct {
	Balances        map[string]string
	Interests       map[string]string
	LockedBalances  map[string]string
	LockedInterests map[string]string
	Rates           map[string]int64
	Goal            GoalState
}

// NewBalanceSnapshot returns a snapshot pre-populated with zero values
// for every given symbol.
func NewBalanceSnapshot(symbols []string) BalanceSnapshot {
	snap := BalanceSnapshot{
		Balances:        make(map[string]string, len(symbols)),
		Interests:       make(map[string]string, len(symbols)),
		LockedBalances:  make(map[string]string, len(symbols)),
		LockedInterests: make(map[string]string, len(symbols)),
		Rates:           make(map[string]int64, len(symbols)),
		Goal:            GoalState{TargetAmount: "0"},
	}
	for _, symbol := range symbols {
		snap.Balances[symbol] = "0"
		snap.Interests[symbol] = "0"
		snap.LockedBalances[symbol] = "0"
		snap.LockedInterests[symbol] = "0"
		snap.Rates[symbol] = 0
	}
	return snap
}
