package service

import (
	"math/rand"
	"sort"
	"time"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

// Unscheduled reason strings surfaced to the caller.
const (
	ReasonNoCommonSlots = "no common slots"
	ReasonHorizon       = "no slot found within horizon"
)

// Assignment is one engine placement, not yet persisted.
type Assignment struct {
	CandidateID string
	DayNumber   int
	SlotLabel   string
	StartTime   time.Time
	EndTime     time.Time
}

// EngineOptions tunes a single scheduling run.
type EngineOptions struct {
	Strategy    string
	StartDate   time.Time
	HorizonDays int
	// MinDay restricts placements to day numbers >= MinDay. Zero means no
	// restriction. Rebuilds use it to keep the current week untouched.
	MinDay int
	// Booked seeds the occupied (day, slot) cells, e.g. interviews that
	// survive a rebuild.
	Booked map[string]struct{}
}

// EngineResult is the outcome of one scheduling run.
type EngineResult struct {
	Assignments []Assignment
	Unscheduled []models.UnscheduledCandidate
	DaysUsed    int
	WeeksUsed   int
	PerDayLoad  map[int]int
}

// Engine places candidates into shared availability slots using one of four
// greedy strategies. It is pure: all persistence happens in the services.
type Engine struct {
	rng *rand.Rand
}

// NewEngine builds an engine seeded from the current time.
func NewEngine() *Engine {
	return &Engine{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewEngineWithSeed builds an engine with a deterministic shuffle order.
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

type scoredCandidate struct {
	candidate models.Candidate
	score     int
}

// Run schedules the candidates against a two-person panel.
func (e *Engine) Run(candidates []models.Candidate, one, two models.Interviewer, opts EngineOptions) EngineResult {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 999
	}
	minDay := opts.MinDay
	if minDay < 1 {
		minDay = 1
	}

	booked := make(map[string]struct{}, len(opts.Booked))
	for k := range opts.Booked {
		booked[k] = struct{}{}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoredCandidate{
			candidate: c,
			score:     availabilityScore(c.Availability, one.Availability, two.Availability),
		})
	}

	orderCandidates(scored, opts.Strategy, e.rng)

	result := EngineResult{PerDayLoad: make(map[int]int)}
	dayLoad := make(map[int]int)

	for _, sc := range scored {
		if sc.score == 0 {
			result.Unscheduled = append(result.Unscheduled, models.UnscheduledCandidate{
				CandidateID: sc.candidate.ID,
				Name:        sc.candidate.Name,
				Reason:      ReasonNoCommonSlots,
			})
			continue
		}

		var placed *Assignment
		if opts.Strategy == models.StrategyBalanced {
			placed = e.placeBalanced(sc.candidate, one, two, booked, dayLoad, minDay, opts.HorizonDays, opts.StartDate)
		} else {
			placed = e.placeEarliest(sc.candidate, one, two, booked, minDay, opts.HorizonDays, opts.StartDate)
		}

		if placed == nil {
			result.Unscheduled = append(result.Unscheduled, models.UnscheduledCandidate{
				CandidateID: sc.candidate.ID,
				Name:        sc.candidate.Name,
				Reason:      ReasonHorizon,
			})
			continue
		}

		booked[slotKey(placed.DayNumber, placed.SlotLabel)] = struct{}{}
		dayLoad[placed.DayNumber]++
		result.Assignments = append(result.Assignments, *placed)
		if placed.DayNumber > result.DaysUsed {
			result.DaysUsed = placed.DayNumber
		}
	}

	result.WeeksUsed = weekNumber(result.DaysUsed)
	if result.DaysUsed == 0 {
		result.WeeksUsed = 0
	}
	for day, load := range dayLoad {
		result.PerDayLoad[day] = load
	}

	return result
}

// orderCandidates applies the strategy's candidate ordering in place. Sorts
// are stable so input order breaks ties.
func orderCandidates(scored []scoredCandidate, strategy string, rng *rand.Rand) {
	switch strategy {
	case models.StrategyMostAvailable:
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].score > scored[j].score
		})
	case models.StrategyRandom:
		for i := len(scored) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			scored[i], scored[j] = scored[j], scored[i]
		}
	case models.StrategyLeastAvailable, models.StrategyBalanced:
		fallthrough
	default:
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].score < scored[j].score
		})
	}
}

// openSlotsForDay returns the unbooked three-way slots on a day. The slots
// arrive sorted by start time from commonSlots, so earliest comes first.
func openSlotsForDay(c models.Candidate, one, two models.Interviewer, booked map[string]struct{}, dayNumber int) []string {
	weekday := weekdayForDay(dayNumber)

	var open []string
	for _, slot := range commonSlots(c.Availability, one.Availability, two.Availability, weekday) {
		if _, taken := booked[slotKey(dayNumber, slot)]; taken {
			continue
		}
		open = append(open, slot)
	}
	return open
}

// placeEarliest scans days in ascending order and takes the first open slot.
func (e *Engine) placeEarliest(c models.Candidate, one, two models.Interviewer, booked map[string]struct{}, minDay, horizon int, startDate time.Time) *Assignment {
	for day := minDay; day <= horizon; day++ {
		open := openSlotsForDay(c, one, two, booked, day)
		if len(open) == 0 {
			continue
		}
		return e.assignment(c, day, open[0], startDate)
	}
	return nil
}

// placeBalanced collects every feasible day, then fills the least loaded one.
// Equal loads resolve to the earliest day.
func (e *Engine) placeBalanced(c models.Candidate, one, two models.Interviewer, booked map[string]struct{}, dayLoad map[int]int, minDay, horizon int, startDate time.Time) *Assignment {
	type feasibleDay struct {
		day  int
		load int
		slot string
	}

	var days []feasibleDay
	for day := minDay; day <= horizon; day++ {
		open := openSlotsForDay(c, one, two, booked, day)
		if len(open) == 0 {
			continue
		}
		days = append(days, feasibleDay{day: day, load: dayLoad[day], slot: open[0]})
	}
	if len(days) == 0 {
		return nil
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].load < days[j].load
	})

	pick := days[0]
	return e.assignment(c, pick.day, pick.slot, startDate)
}

func (e *Engine) assignment(c models.Candidate, day int, slot string, startDate time.Time) *Assignment {
	start := resolveStartTime(day, slot, startDate)
	return &Assignment{
		CandidateID: c.ID,
		DayNumber:   day,
		SlotLabel:   slot,
		StartTime:   start,
		EndTime:     start.Add(interviewDuration),
	}
}

// LoadStatsFor summarises the per-day distribution of a run. Only days that
// received interviews count toward the average.
func LoadStatsFor(perDayLoad map[int]int) models.LoadStats {
	if len(perDayLoad) == 0 {
		return models.LoadStats{}
	}

	total := 0
	min := -1
	max := 0
	for _, load := range perDayLoad {
		total += load
		if min < 0 || load < min {
			min = load
		}
		if load > max {
			max = load
		}
	}

	return models.LoadStats{
		Average:  float64(total) / float64(len(perDayLoad)),
		Min:      min,
		Max:      max,
		Variance: max - min,
	}
}
