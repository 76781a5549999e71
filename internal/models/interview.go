package models

import "time"

// InterviewStatus tracks the lifecycle of a scheduled interview.
type InterviewStatus string

const (
	InterviewStatusScheduled InterviewStatus = "SCHEDULED"
	InterviewStatusCompleted InterviewStatus = "COMPLETED"
	InterviewStatusCancelled InterviewStatus = "CANCELLED"
)

// Interview represents a two-interviewer slot assignment for a candidate.
type Interview struct {
	ID               string          `db:"id" json:"id"`
	CandidateID      string          `db:"candidate_id" json:"candidate_id"`
	InterviewerOneID string          `db:"interviewer_one_id" json:"interviewer_one_id"`
	InterviewerTwoID string          `db:"interviewer_two_id" json:"interviewer_two_id"`
	DayNumber        int             `db:"day_number" json:"day_number"`
	SlotLabel        string          `db:"slot_label" json:"slot_label"`
	StartTime        time.Time       `db:"start_time" json:"start_time"`
	EndTime          time.Time       `db:"end_time" json:"end_time"`
	Status           InterviewStatus `db:"status" json:"status"`

	RescheduleCount     int        `db:"reschedule_count" json:"reschedule_count"`
	LastRescheduledFrom *string    `db:"last_rescheduled_from" json:"last_rescheduled_from,omitempty"`
	LastRescheduledTo   *string    `db:"last_rescheduled_to" json:"last_rescheduled_to,omitempty"`
	LastRescheduledAt   *time.Time `db:"last_rescheduled_at" json:"last_rescheduled_at,omitempty"`
	RescheduleReason    *string    `db:"reschedule_reason" json:"reschedule_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsCompleted reports whether the interview reached its terminal state.
func (i Interview) IsCompleted() bool {
	return i.Status == InterviewStatusCompleted
}

// InterviewDetail joins an interview with the people involved, for listings.
type InterviewDetail struct {
	Interview
	CandidateName      string `db:"candidate_name" json:"candidate_name"`
	CandidateEmail     string `db:"candidate_email" json:"candidate_email"`
	InterviewerOneName string `db:"interviewer_one_name" json:"interviewer_one_name"`
	InterviewerTwoName string `db:"interviewer_two_name" json:"interviewer_two_name"`
}

// BookedSlot identifies an occupied calendar cell.
type BookedSlot struct {
	DayNumber int    `db:"day_number" json:"day_number"`
	SlotLabel string `db:"slot_label" json:"slot_label"`
}

// InterviewFilter describes query params for listing interviews.
type InterviewFilter struct {
	Status        *InterviewStatus
	CandidateID   string
	InterviewerID string
	DayNumber     *int
	FromDay       *int
	ToDay         *int
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// ScheduleStats summarises the current interview pipeline.
type ScheduleStats struct {
	TotalCandidates int            `json:"total_candidates"`
	Scheduled       int            `json:"scheduled"`
	Completed       int            `json:"completed"`
	Cancelled       int            `json:"cancelled"`
	Pending         int            `json:"pending"`
	DaysUsed        int            `json:"days_used"`
	WeeksUsed       int            `json:"weeks_used"`
	PerDayLoad      map[string]int `json:"per_day_load,omitempty"`
}
