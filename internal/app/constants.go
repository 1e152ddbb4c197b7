package app

// Phase is the controller's distribution state.
type Phase string

const (
	// PhaseIdle means no distribution is in progress; the engine owns the table.
	PhaseIdle Phase = "idle"
	// PhaseDistributing means the operator is seeding factories by hand.
	PhaseDistributing Phase = "distributing"
)
