package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type schedulerCandidateStore interface {
	ListByStatus(ctx context.Context, status models.CandidateStatus) ([]models.Candidate, error)
	BulkUpdateStatusTx(ctx context.Context, tx *sqlx.Tx, ids []string, status models.CandidateStatus) error
}

type panelReader interface {
	ListActive(ctx context.Context) ([]models.Interviewer, error)
}

type schedulerInterviewStore interface {
	ListOccupiedSlots(ctx context.Context) ([]models.BookedSlot, error)
	BulkCreateTx(ctx context.Context, tx *sqlx.Tx, interviews []models.Interview) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SchedulerConfig carries the campaign calendar parameters every run shares.
type SchedulerConfig struct {
	StartDate   time.Time
	HorizonDays int
}

// SchedulerService runs the engine over pending candidates and persists the
// resulting schedule.
type SchedulerService struct {
	candidates   schedulerCandidateStore
	interviewers panelReader
	interviews   schedulerInterviewStore
	tx           txProvider
	cache        cacheInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          SchedulerConfig
	metrics      *MetricsService
}

// NewSchedulerService wires scheduler dependencies.
func NewSchedulerService(
	candidates schedulerCandidateStore,
	interviewers panelReader,
	interviews schedulerInterviewStore,
	tx txProvider,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 999
	}
	return &SchedulerService{
		candidates:   candidates,
		interviewers: interviewers,
		interviews:   interviews,
		tx:           tx,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// WithMetrics attaches the Prometheus instrumentation. A nil receiver on the
// metrics side is safe, so this stays optional.
func (s *SchedulerService) WithMetrics(m *MetricsService) *SchedulerService {
	s.metrics = m
	return s
}

// Generate schedules every pending candidate with the requested strategy.
func (s *SchedulerService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = models.StrategyLeastAvailable
	}

	one, two, err := s.panel(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.candidates.ListByStatus(ctx, models.CandidateStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load pending candidates")
	}

	// Cells held by earlier runs stay off limits, otherwise consecutive
	// generates would double-book them.
	occupied, err := s.interviews.ListOccupiedSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load occupied slots")
	}
	bookedSet := make(map[string]struct{}, len(occupied))
	for _, b := range occupied {
		bookedSet[slotKey(b.DayNumber, b.SlotLabel)] = struct{}{}
	}

	engine := NewEngine()
	if req.Seed != nil {
		engine = NewEngineWithSeed(*req.Seed)
	}

	started := time.Now()
	result := engine.Run(pending, one, two, EngineOptions{
		Strategy:    strategy,
		StartDate:   s.cfg.StartDate,
		HorizonDays: s.cfg.HorizonDays,
		Booked:      bookedSet,
	})
	s.metrics.ObserveEngineRun(strategy, time.Since(started))

	resp := &dto.ScheduleRunResponse{
		Strategy:    strategy,
		DryRun:      req.DryRun,
		Candidates:  len(pending),
		Scheduled:   len(result.Assignments),
		Unscheduled: result.Unscheduled,
		DaysUsed:    result.DaysUsed,
		WeeksUsed:   result.WeeksUsed,
		Load:        LoadStatsFor(result.PerDayLoad),
	}
	if resp.Unscheduled == nil {
		resp.Unscheduled = []models.UnscheduledCandidate{}
	}

	if req.DryRun {
		return resp, nil
	}

	if err := s.persist(ctx, one, two, result.Assignments); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.logger.Info("schedule generated",
		zap.String("strategy", strategy),
		zap.Int("scheduled", resp.Scheduled),
		zap.Int("unscheduled", len(resp.Unscheduled)),
		zap.Int("days_used", resp.DaysUsed),
	)

	return resp, nil
}

// panel returns the two active interviewers forming the scheduling panel.
func (s *SchedulerService) panel(ctx context.Context) (models.Interviewer, models.Interviewer, error) {
	interviewers, err := s.interviewers.ListActive(ctx)
	if err != nil {
		return models.Interviewer{}, models.Interviewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interviewers")
	}
	if len(interviewers) < 2 {
		return models.Interviewer{}, models.Interviewer{}, appErrors.ErrConfiguration
	}
	return interviewers[0], interviewers[1], nil
}

func (s *SchedulerService) persist(ctx context.Context, one, two models.Interviewer, assignments []Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin schedule persist")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	interviews := make([]models.Interview, 0, len(assignments))
	scheduledIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		interviews = append(interviews, models.Interview{
			CandidateID:      a.CandidateID,
			InterviewerOneID: one.ID,
			InterviewerTwoID: two.ID,
			DayNumber:        a.DayNumber,
			SlotLabel:        a.SlotLabel,
			StartTime:        a.StartTime,
			EndTime:          a.EndTime,
			Status:           models.InterviewStatusScheduled,
		})
		scheduledIDs = append(scheduledIDs, a.CandidateID)
	}

	if err = s.interviews.BulkCreateTx(ctx, tx, interviews); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist schedule")
	}
	if err = s.candidates.BulkUpdateStatusTx(ctx, tx, scheduledIDs, models.CandidateStatusScheduled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update candidate statuses")
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit schedule persist")
	}
	return nil
}

func (s *SchedulerService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
