package dto

import "github.com/noah-isme/interview-scheduler-api/internal/models"

// GenerateScheduleRequest instructs the engine to build the interview schedule.
type GenerateScheduleRequest struct {
	Strategy string `json:"strategy" validate:"omitempty,oneof=least_available most_available random balanced"`
	// DryRun computes the schedule without persisting it.
	DryRun bool `json:"dryRun"`
	// Seed fixes the shuffle order for the random strategy.
	Seed *int64 `json:"seed"`
}

// ScheduleRunResponse summarises one engine run.
type ScheduleRunResponse struct {
	Strategy    string                        `json:"strategy"`
	DryRun      bool                          `json:"dryRun"`
	Candidates  int                           `json:"candidates"`
	Scheduled   int                           `json:"scheduled"`
	Unscheduled []models.UnscheduledCandidate `json:"unscheduled"`
	DaysUsed    int                           `json:"daysUsed"`
	WeeksUsed   int                           `json:"weeksUsed"`
	Load        models.LoadStats              `json:"load"`
}
