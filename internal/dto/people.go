package dto

import "github.com/noah-isme/interview-scheduler-api/internal/models"

// CreateCandidateRequest registers a new candidate with their availability.
type CreateCandidateRequest struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Email        string              `json:"email" validate:"required,email"`
	RollNumber   string              `json:"rollNumber" validate:"required,max=50"`
	Department   string              `json:"department" validate:"omitempty,max=100"`
	Year         int                 `json:"year" validate:"omitempty,min=1,max=6"`
	Availability models.Availability `json:"availability" validate:"required"`
}

// UpdateCandidateRequest changes candidate details or availability.
type UpdateCandidateRequest struct {
	Name         *string              `json:"name" validate:"omitempty,max=200"`
	Email        *string              `json:"email" validate:"omitempty,email"`
	Department   *string              `json:"department" validate:"omitempty,max=100"`
	Year         *int                 `json:"year" validate:"omitempty,min=1,max=6"`
	Availability *models.Availability `json:"availability"`
}

// CreateInterviewerRequest registers a panel member.
type CreateInterviewerRequest struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Email        string              `json:"email" validate:"required,email"`
	Availability models.Availability `json:"availability" validate:"required"`
}

// UpdateInterviewerRequest changes panel member details or availability.
type UpdateInterviewerRequest struct {
	Name         *string              `json:"name" validate:"omitempty,max=200"`
	Email        *string              `json:"email" validate:"omitempty,email"`
	Availability *models.Availability `json:"availability"`
	Active       *bool                `json:"active"`
}
