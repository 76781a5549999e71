package models

import "time"

// CandidateStatus tracks a candidate through the scheduling pipeline.
type CandidateStatus string

const (
	CandidateStatusPending   CandidateStatus = "PENDING"
	CandidateStatusScheduled CandidateStatus = "SCHEDULED"
	CandidateStatusCompleted CandidateStatus = "COMPLETED"
)

// Candidate represents an interviewee stored in the candidates table.
type Candidate struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Email        string          `db:"email" json:"email"`
	RollNumber   string          `db:"roll_number" json:"roll_number"`
	Department   string          `db:"department" json:"department"`
	Year         int             `db:"year" json:"year"`
	Availability Availability    `db:"availability" json:"availability"`
	Status       CandidateStatus `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// CandidateFilter describes query params for listing candidates.
type CandidateFilter struct {
	Status     *CandidateStatus
	Department string
	Year       *int
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
