package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

func engineCandidate(id string, availability models.Availability) models.Candidate {
	return models.Candidate{
		ID:           id,
		Name:         "Candidate " + id,
		Email:        id + "@example.com",
		Availability: availability,
		Status:       models.CandidateStatusPending,
	}
}

func enginePanel(availability models.Availability) (models.Interviewer, models.Interviewer) {
	one := models.Interviewer{ID: "iv-1", Name: "Interviewer One", Availability: availability, Active: true}
	two := models.Interviewer{ID: "iv-2", Name: "Interviewer Two", Availability: availability, Active: true}
	return one, two
}

func TestEngineLeastAvailableSchedulesTightestFirst(t *testing.T) {
	panel := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	one, two := enginePanel(panel)

	wide := engineCandidate("c-wide", panel)
	narrow := engineCandidate("c-narrow", models.Availability{"tuesday": {"2PM-3:30PM"}})

	result := NewEngine().Run([]models.Candidate{wide, narrow}, one, two, EngineOptions{
		Strategy:  models.StrategyLeastAvailable,
		StartDate: campaignStart,
	})

	require.Len(t, result.Assignments, 2)
	require.Empty(t, result.Unscheduled)
	// The narrow candidate goes first and claims its only slot.
	assert.Equal(t, "c-narrow", result.Assignments[0].CandidateID)
	assert.Equal(t, 2, result.Assignments[0].DayNumber)
	assert.Equal(t, "2PM-3:30PM", result.Assignments[0].SlotLabel)
	assert.Equal(t, 1, result.Assignments[1].DayNumber)
	assert.Equal(t, "9:30AM-10:30AM", result.Assignments[1].SlotLabel)
}

func TestEngineNeverDoubleBooksASlot(t *testing.T) {
	panel := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	one, two := enginePanel(panel)

	candidates := []models.Candidate{
		engineCandidate("c-1", panel),
		engineCandidate("c-2", panel),
		engineCandidate("c-3", panel),
	}

	result := NewEngine().Run(candidates, one, two, EngineOptions{
		Strategy:  models.StrategyLeastAvailable,
		StartDate: campaignStart,
	})

	require.Len(t, result.Assignments, 3)
	seen := make(map[string]struct{})
	for _, a := range result.Assignments {
		key := slotKey(a.DayNumber, a.SlotLabel)
		_, taken := seen[key]
		require.False(t, taken, "slot %s assigned twice", key)
		seen[key] = struct{}{}
	}
	assert.Equal(t, 2, result.DaysUsed)
	assert.Equal(t, 1, result.WeeksUsed)
}

func TestEngineReportsCandidatesWithoutCommonSlots(t *testing.T) {
	one, two := enginePanel(models.Availability{"monday": {"9:30AM-10:30AM"}})

	schedulable := engineCandidate("c-ok", models.Availability{"monday": {"9:30AM-10:30AM"}})
	disjoint := engineCandidate("c-none", models.Availability{"friday": {"7PM-8:30PM"}})

	result := NewEngine().Run([]models.Candidate{schedulable, disjoint}, one, two, EngineOptions{
		Strategy:  models.StrategyLeastAvailable,
		StartDate: campaignStart,
	})

	require.Len(t, result.Assignments, 1)
	require.Len(t, result.Unscheduled, 1)
	assert.Equal(t, "c-none", result.Unscheduled[0].CandidateID)
	assert.Equal(t, ReasonNoCommonSlots, result.Unscheduled[0].Reason)
}

func TestEngineReportsHorizonExhaustion(t *testing.T) {
	availability := models.Availability{"monday": {"9:30AM-10:30AM"}}
	one, two := enginePanel(availability)

	candidates := []models.Candidate{
		engineCandidate("c-1", availability),
		engineCandidate("c-2", availability),
	}

	result := NewEngine().Run(candidates, one, two, EngineOptions{
		Strategy:    models.StrategyLeastAvailable,
		StartDate:   campaignStart,
		HorizonDays: 1,
	})

	require.Len(t, result.Assignments, 1)
	require.Len(t, result.Unscheduled, 1)
	assert.Equal(t, "c-2", result.Unscheduled[0].CandidateID)
	assert.Equal(t, ReasonHorizon, result.Unscheduled[0].Reason)
}

func TestEngineRandomIsDeterministicWithSeed(t *testing.T) {
	panel := models.Availability{
		"monday":    {"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM"},
		"tuesday":   {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"wednesday": {"7PM-8:30PM"},
	}
	one, two := enginePanel(panel)

	candidates := []models.Candidate{
		engineCandidate("c-1", panel),
		engineCandidate("c-2", panel),
		engineCandidate("c-3", panel),
		engineCandidate("c-4", panel),
		engineCandidate("c-5", panel),
	}

	opts := EngineOptions{Strategy: models.StrategyRandom, StartDate: campaignStart}
	first := NewEngineWithSeed(42).Run(candidates, one, two, opts)
	second := NewEngineWithSeed(42).Run(candidates, one, two, opts)

	require.Equal(t, first.Assignments, second.Assignments)
	require.Empty(t, first.Unscheduled)
}

func TestEngineBalancedSpreadsAcrossDays(t *testing.T) {
	panel := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM"},
		"tuesday": {"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM"},
	}
	one, two := enginePanel(panel)

	candidates := []models.Candidate{
		engineCandidate("c-1", panel),
		engineCandidate("c-2", panel),
	}

	result := NewEngine().Run(candidates, one, two, EngineOptions{
		Strategy:  models.StrategyBalanced,
		StartDate: campaignStart,
	})

	require.Len(t, result.Assignments, 2)
	assert.Equal(t, 1, result.Assignments[0].DayNumber)
	assert.Equal(t, 2, result.Assignments[1].DayNumber)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, result.PerDayLoad)
}

func TestEngineBalancedYieldsLowerVarianceThanLeastAvailable(t *testing.T) {
	panel := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM"},
		"tuesday": {"9:30AM-10:30AM", "10:30AM-11:30AM", "2PM-3:30PM"},
	}
	one, two := enginePanel(panel)

	candidates := []models.Candidate{
		engineCandidate("c-1", panel),
		engineCandidate("c-2", panel),
		engineCandidate("c-3", panel),
		engineCandidate("c-4", panel),
	}

	opts := EngineOptions{StartDate: campaignStart, HorizonDays: 2}

	opts.Strategy = models.StrategyLeastAvailable
	least := NewEngine().Run(candidates, one, two, opts)
	require.Empty(t, least.Unscheduled)

	opts.Strategy = models.StrategyBalanced
	balanced := NewEngine().Run(candidates, one, two, opts)
	require.Empty(t, balanced.Unscheduled)

	leastStats := LoadStatsFor(least.PerDayLoad)
	balancedStats := LoadStatsFor(balanced.PerDayLoad)

	// Earliest-first packs day 1 full before touching day 2; balanced
	// alternates and keeps the spread flat.
	assert.Equal(t, map[int]int{1: 3, 2: 1}, least.PerDayLoad)
	assert.Equal(t, map[int]int{1: 2, 2: 2}, balanced.PerDayLoad)
	assert.Less(t, balancedStats.Variance, leastStats.Variance)
}

func TestEngineHonoursMinDayAndBookedSlots(t *testing.T) {
	availability := models.Availability{"monday": {"9:30AM-10:30AM", "10:30AM-11:30AM"}}
	one, two := enginePanel(availability)

	candidate := engineCandidate("c-1", availability)
	booked := map[string]struct{}{
		slotKey(6, "9:30AM-10:30AM"): {},
	}

	result := NewEngine().Run([]models.Candidate{candidate}, one, two, EngineOptions{
		Strategy:  models.StrategyLeastAvailable,
		StartDate: campaignStart,
		MinDay:    6,
		Booked:    booked,
	})

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, 6, result.Assignments[0].DayNumber)
	assert.Equal(t, "10:30AM-11:30AM", result.Assignments[0].SlotLabel)
	assert.Equal(t, 2, result.WeeksUsed)
}

func TestLoadStatsFor(t *testing.T) {
	stats := LoadStatsFor(map[int]int{1: 3, 2: 1, 3: 2})

	assert.InDelta(t, 2.0, stats.Average, 0.0001)
	assert.Equal(t, 1, stats.Min)
	assert.Equal(t, 3, stats.Max)
	assert.Equal(t, 2, stats.Variance)

	assert.Equal(t, models.LoadStats{}, LoadStatsFor(nil))
}
