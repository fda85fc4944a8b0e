package model

// HistoryEntry is one recorded ledger action for the account.
type HistoryEntry struct {
	Action    string
	Amount    string
	Timestamp int64
	Token     string
}
