package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type compareCandidateStub struct {
	pool []models.Candidate
}

func (s *compareCandidateStub) ListAll(ctx context.Context) ([]models.Candidate, error) {
	return s.pool, nil
}

func newCompareService(pool []models.Candidate, panel []models.Interviewer) *CompareService {
	return NewCompareService(
		&compareCandidateStub{pool: pool},
		&panelStub{interviewers: panel},
		zap.NewNop(),
		SchedulerConfig{StartDate: campaignStart, HorizonDays: 30},
	)
}

func TestCompareRunsEveryStrategy(t *testing.T) {
	availability := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	pool := []models.Candidate{
		engineCandidate("c-1", availability),
		engineCandidate("c-2", availability),
	}

	result, err := newCompareService(pool, defaultPanel()).Compare(context.Background(), dto.CompareRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Candidates)
	require.Len(t, result.Outcomes, len(models.Strategies))
	for i, outcome := range result.Outcomes {
		assert.Equal(t, models.Strategies[i], outcome.Strategy)
		assert.Equal(t, 2, outcome.Scheduled)
		assert.Empty(t, outcome.Unscheduled)
		assert.NotNil(t, outcome.Unscheduled)
		assert.GreaterOrEqual(t, outcome.ExecutionTimeMS, 0.0)
	}
}

func TestCompareCountsUnschedulable(t *testing.T) {
	pool := []models.Candidate{
		engineCandidate("c-none", models.Availability{"friday": {"7PM-8:30PM"}}),
	}

	result, err := newCompareService(pool, defaultPanel()).Compare(context.Background(), dto.CompareRequest{})
	require.NoError(t, err)

	for _, outcome := range result.Outcomes {
		assert.Equal(t, 0, outcome.Scheduled, outcome.Strategy)
		require.Len(t, outcome.Unscheduled, 1, outcome.Strategy)
		assert.Equal(t, ReasonNoCommonSlots, outcome.Unscheduled[0].Reason)
	}
}

func TestCompareRequiresPanel(t *testing.T) {
	_, err := newCompareService(nil, defaultPanel()[:1]).Compare(context.Background(), dto.CompareRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestCompareMultiRunAggregates(t *testing.T) {
	availability := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	pool := []models.Candidate{
		engineCandidate("c-1", availability),
		engineCandidate("c-2", availability),
		engineCandidate("c-3", availability),
	}

	seed := int64(7)
	result, err := newCompareService(pool, defaultPanel()).CompareMultiRun(context.Background(), dto.CompareRequest{Runs: 3, Seed: &seed})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Runs)
	assert.Equal(t, 3, result.Candidates)
	require.Len(t, result.Aggregates, len(models.Strategies))
	for _, agg := range result.Aggregates {
		assert.Equal(t, 3, agg.Runs, agg.Strategy)
		assert.LessOrEqual(t, agg.MinDaysUsed, agg.MaxDaysUsed, agg.Strategy)
		assert.InDelta(t, 3.0, agg.AvgScheduled, 0.0001, agg.Strategy)
		assert.GreaterOrEqual(t, agg.AvgDaysUsed, float64(agg.MinDaysUsed), agg.Strategy)
		assert.LessOrEqual(t, agg.AvgDaysUsed, float64(agg.MaxDaysUsed), agg.Strategy)
	}
}

func TestCompareMultiRunDefaultsRuns(t *testing.T) {
	result, err := newCompareService(nil, defaultPanel()).CompareMultiRun(context.Background(), dto.CompareRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Runs)
}
