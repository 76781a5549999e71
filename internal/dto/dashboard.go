package dto

import (
	"time"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

// TodayResponse lists the interviews of the current campaign day.
type TodayResponse struct {
	DayNumber  int                      `json:"dayNumber"`
	WeekNumber int                      `json:"weekNumber"`
	Weekday    string                   `json:"weekday"`
	Date       time.Time                `json:"date"`
	Interviews []models.InterviewDetail `json:"interviews"`
}
