package dto

// CreateReportRequest queues an asynchronous export.
type CreateReportRequest struct {
	Type     string `json:"type" validate:"required,oneof=schedule comparison"`
	Format   string `json:"format" validate:"required,oneof=csv pdf"`
	Strategy string `json:"strategy" validate:"omitempty,oneof=least_available most_available random balanced"`
	FromDay  *int   `json:"fromDay" validate:"omitempty,min=1"`
	ToDay    *int   `json:"toDay" validate:"omitempty,min=1"`
	Runs     int    `json:"runs" validate:"omitempty,min=1,max=50"`
}
