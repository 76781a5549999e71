package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Action type constants recorded in the history trail.
const (
	ActionComplete   = "COMPLETE"
	ActionReschedule = "RESCHEDULE"
	ActionCancel     = "CANCEL"
	ActionReactivate = "REACTIVATE"
)

// ActionSnapshot captures the interview fields an undo needs to restore.
type ActionSnapshot struct {
	InterviewID     string          `json:"interview_id"`
	CandidateID     string          `json:"candidate_id"`
	Status          InterviewStatus `json:"status"`
	DayNumber       int             `json:"day_number"`
	SlotLabel       string          `json:"slot_label"`
	RescheduleCount int             `json:"reschedule_count"`
}

// Value marshals the snapshot to JSON for persistence.
func (s ActionSnapshot) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal action snapshot: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the snapshot.
func (s *ActionSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = ActionSnapshot{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ActionSnapshot", value)
	}
	if len(data) == 0 {
		*s = ActionSnapshot{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal action snapshot: %w", err)
	}
	return nil
}

// ActionHistory records a mutation applied to an interview so it can be
// audited and, for completions, undone.
type ActionHistory struct {
	ID          string         `db:"id" json:"id"`
	InterviewID string         `db:"interview_id" json:"interview_id"`
	Action      string         `db:"action" json:"action"`
	Before      ActionSnapshot `db:"before_state" json:"before"`
	After       ActionSnapshot `db:"after_state" json:"after"`
	ActorID     *string        `db:"actor_id" json:"actor_id,omitempty"`
	Undone      bool           `db:"undone" json:"undone"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ActionHistoryFilter describes query params for the history listing.
type ActionHistoryFilter struct {
	InterviewID string
	Action      string
	Page        int
	PageSize    int
}
