package model

// Phase is the lifecycle stage of the most recent operation.
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// OperationStatus is the single current lifecycle value consumed by
// presentation. Each new operation overwrites the previous one.
type OperationStatus struct {
	Phase   Phase
	Message string
}
