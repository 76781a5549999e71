package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type compareCandidateReader interface {
	ListAll(ctx context.Context) ([]models.Candidate, error)
}

// CompareService runs every strategy against the full candidate pool without
// persisting anything, so coordinators can pick the best fit.
type CompareService struct {
	candidates   compareCandidateReader
	interviewers panelReader
	logger       *zap.Logger
	cfg          SchedulerConfig
}

// NewCompareService wires comparison dependencies.
func NewCompareService(candidates compareCandidateReader, interviewers panelReader, logger *zap.Logger, cfg SchedulerConfig) *CompareService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 999
	}
	return &CompareService{
		candidates:   candidates,
		interviewers: interviewers,
		logger:       logger,
		cfg:          cfg,
	}
}

// Compare runs each strategy once and reports per-strategy outcomes.
func (s *CompareService) Compare(ctx context.Context, req dto.CompareRequest) (*models.ComparisonResult, error) {
	pool, one, two, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.ComparisonResult{Candidates: len(pool)}
	for _, strategy := range models.Strategies {
		engine := s.engineFor(strategy, req.Seed)

		started := time.Now()
		run := engine.Run(pool, one, two, EngineOptions{
			Strategy:    strategy,
			StartDate:   s.cfg.StartDate,
			HorizonDays: s.cfg.HorizonDays,
		})
		elapsed := time.Since(started)

		unscheduled := run.Unscheduled
		if unscheduled == nil {
			unscheduled = []models.UnscheduledCandidate{}
		}
		result.Outcomes = append(result.Outcomes, models.StrategyOutcome{
			Strategy:        strategy,
			Scheduled:       len(run.Assignments),
			Unscheduled:     unscheduled,
			DaysUsed:        run.DaysUsed,
			WeeksUsed:       run.WeeksUsed,
			ExecutionTimeMS: float64(elapsed.Microseconds()) / 1000.0,
			Load:            LoadStatsFor(run.PerDayLoad),
		})
	}

	s.logger.Info("strategies compared", zap.Int("candidates", len(pool)))
	return result, nil
}

// CompareMultiRun repeats each strategy and aggregates day usage, smoothing
// out shuffle noise in the random strategy.
func (s *CompareService) CompareMultiRun(ctx context.Context, req dto.CompareRequest) (*models.MultiRunComparison, error) {
	runs := req.Runs
	if runs < 1 {
		runs = 5
	}

	pool, one, two, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.MultiRunComparison{Candidates: len(pool), Runs: runs}
	for _, strategy := range models.Strategies {
		agg := models.StrategyAggregate{Strategy: strategy, Runs: runs}
		totalDays := 0
		totalScheduled := 0

		for i := 0; i < runs; i++ {
			engine := s.engineFor(strategy, req.Seed)
			if req.Seed != nil {
				engine = NewEngineWithSeed(*req.Seed + int64(i))
			}

			run := engine.Run(pool, one, two, EngineOptions{
				Strategy:    strategy,
				StartDate:   s.cfg.StartDate,
				HorizonDays: s.cfg.HorizonDays,
			})

			totalDays += run.DaysUsed
			totalScheduled += len(run.Assignments)
			if i == 0 || run.DaysUsed < agg.MinDaysUsed {
				agg.MinDaysUsed = run.DaysUsed
			}
			if run.DaysUsed > agg.MaxDaysUsed {
				agg.MaxDaysUsed = run.DaysUsed
			}
		}

		agg.AvgDaysUsed = float64(totalDays) / float64(runs)
		agg.AvgScheduled = float64(totalScheduled) / float64(runs)
		result.Aggregates = append(result.Aggregates, agg)
	}

	return result, nil
}

func (s *CompareService) load(ctx context.Context) ([]models.Candidate, models.Interviewer, models.Interviewer, error) {
	interviewers, err := s.interviewers.ListActive(ctx)
	if err != nil {
		return nil, models.Interviewer{}, models.Interviewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interviewers")
	}
	if len(interviewers) < 2 {
		return nil, models.Interviewer{}, models.Interviewer{}, appErrors.ErrConfiguration
	}

	pool, err := s.candidates.ListAll(ctx)
	if err != nil {
		return nil, models.Interviewer{}, models.Interviewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load candidates")
	}

	return pool, interviewers[0], interviewers[1], nil
}

func (s *CompareService) engineFor(strategy string, seed *int64) *Engine {
	if seed != nil {
		return NewEngineWithSeed(*seed)
	}
	return NewEngine()
}
