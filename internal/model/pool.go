package model

// PoolView is one savings pool as derived from the ledger, ordered by ID
// in listings. Pools whose reads fail are omitted rather than padded.
type PoolView struct {
	ID           uint64
	Balance      string
	TargetAmount string
	Token        string
}
