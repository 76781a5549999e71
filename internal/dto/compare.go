package dto

// CompareRequest runs every strategy against the current candidate pool.
type CompareRequest struct {
	// Runs repeats each strategy to smooth out shuffle noise. 1 by default.
	Runs int    `json:"runs" validate:"omitempty,min=1,max=50"`
	Seed *int64 `json:"seed"`
}
