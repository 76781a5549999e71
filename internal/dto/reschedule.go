package dto

// RescheduleRequest starts the two-tier reschedule flow for an interview.
type RescheduleRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// SlotChange describes one candidate's move during a reschedule.
type SlotChange struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	OldSlot     string `json:"oldSlot"`
	NewSlot     string `json:"newSlot"`
}

// Reschedule method identifiers.
const (
	RescheduleMethodSwap    = "SWAP"
	RescheduleMethodRebuild = "REBUILD"
)

// RescheduleResponse is always returned, also on domain failures, so the
// caller can show what happened.
type RescheduleResponse struct {
	Success            bool         `json:"success"`
	Method             string       `json:"method,omitempty"`
	Message            string       `json:"message"`
	ErrorCode          string       `json:"errorCode,omitempty"`
	AffectedCandidates []SlotChange `json:"affectedCandidates,omitempty"`
	Scheduled          int          `json:"scheduled,omitempty"`
	Unscheduled        int          `json:"unscheduled,omitempty"`
}
