package models

// Strategy identifiers accepted by the scheduling engine.
const (
	StrategyLeastAvailable = "least_available"
	StrategyMostAvailable  = "most_available"
	StrategyRandom         = "random"
	StrategyBalanced       = "balanced"
)

// Strategies lists every engine strategy in comparison order.
var Strategies = []string{
	StrategyLeastAvailable,
	StrategyMostAvailable,
	StrategyRandom,
	StrategyBalanced,
}

// ValidStrategy reports whether name is a known strategy identifier.
func ValidStrategy(name string) bool {
	for _, s := range Strategies {
		if s == name {
			return true
		}
	}
	return false
}

// UnscheduledCandidate explains why a candidate could not be placed.
type UnscheduledCandidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

// LoadStats summarises per-day interview counts for a schedule.
type LoadStats struct {
	Average  float64 `json:"average"`
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Variance int     `json:"variance"`
}

// StrategyOutcome captures a single engine run for one strategy.
type StrategyOutcome struct {
	Strategy        string                 `json:"strategy"`
	Scheduled       int                    `json:"scheduled"`
	Unscheduled     []UnscheduledCandidate `json:"unscheduled"`
	DaysUsed        int                    `json:"days_used"`
	WeeksUsed       int                    `json:"weeks_used"`
	ExecutionTimeMS float64                `json:"execution_time_ms"`
	Load            LoadStats              `json:"load"`
}

// ComparisonResult aggregates one outcome per strategy.
type ComparisonResult struct {
	Candidates int               `json:"candidates"`
	Outcomes   []StrategyOutcome `json:"outcomes"`
}

// StrategyAggregate summarises repeated runs of a single strategy.
type StrategyAggregate struct {
	Strategy     string  `json:"strategy"`
	Runs         int     `json:"runs"`
	MinDaysUsed  int     `json:"min_days_used"`
	MaxDaysUsed  int     `json:"max_days_used"`
	AvgDaysUsed  float64 `json:"avg_days_used"`
	AvgScheduled float64 `json:"avg_scheduled"`
}

// MultiRunComparison aggregates repeated comparison runs.
type MultiRunComparison struct {
	Candidates int                 `json:"candidates"`
	Runs       int                 `json:"runs"`
	Aggregates []StrategyAggregate `json:"aggregates"`
}
