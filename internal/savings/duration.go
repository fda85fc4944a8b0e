package savings

// SecondsPerDay converts day-denominated inputs at the orchestrator
// boundary; the ledger sees seconds only.
const SecondsPerDay = 86400

const (
	minDurationDays = 1
	maxDurationDays = 365
)

// DaysToSeconds converts a day count to seconds exactly.
func DaysToSeconds(days int64) int64 {
	return days * SecondsPerDay
}

func validDuration(days int64) bool {
	return days >= minDurationDays && days <= maxDurationDays
}
