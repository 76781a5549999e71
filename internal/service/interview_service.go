package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type interviewStore interface {
	List(ctx context.Context, filter models.InterviewFilter) ([]models.InterviewDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Interview, error)
	FindDetailByID(ctx context.Context, id string) (*models.InterviewDetail, error)
	ListByDay(ctx context.Context, dayNumber int) ([]models.InterviewDetail, error)
	SlotTaken(ctx context.Context, dayNumber int, slotLabel string) (bool, error)
	CountActiveForCandidate(ctx context.Context, candidateID string) (int, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.InterviewStatus) error
	CountByStatus(ctx context.Context) (map[models.InterviewStatus]int, error)
	PerDayLoad(ctx context.Context) (map[int]int, error)
	MaxDayNumber(ctx context.Context) (int, error)
}

type candidateStatusStore interface {
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.CandidateStatus) error
	CountByStatus(ctx context.Context) (map[models.CandidateStatus]int, error)
}

type actionHistoryStore interface {
	List(ctx context.Context, filter models.ActionHistoryFilter) ([]models.ActionHistory, int, error)
	LatestForInterview(ctx context.Context, interviewID, action string) (*models.ActionHistory, error)
	RecordTx(ctx context.Context, tx *sqlx.Tx, entry *models.ActionHistory) error
	MarkUndoneTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// InterviewConfig tunes the interview lifecycle service.
type InterviewConfig struct {
	StartDate time.Time
	CacheTTL  time.Duration
}

// InterviewService serves the day-to-day operational views and the interview
// lifecycle transitions (complete, cancel, undo).
type InterviewService struct {
	interviews interviewStore
	candidates candidateStatusStore
	history    actionHistoryStore
	tx         txProvider
	cache      dashboardCache
	logger     *zap.Logger
	cfg        InterviewConfig
	now        func() time.Time
}

// NewInterviewService wires interview lifecycle dependencies.
func NewInterviewService(
	interviews interviewStore,
	candidates candidateStatusStore,
	history actionHistoryStore,
	tx txProvider,
	cache dashboardCache,
	logger *zap.Logger,
	cfg InterviewConfig,
) *InterviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &InterviewService{
		interviews: interviews,
		candidates: candidates,
		history:    history,
		tx:         tx,
		cache:      cache,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock for tests.
func (s *InterviewService) WithClock(now func() time.Time) *InterviewService {
	s.now = now
	return s
}

// List returns interviews matching the filter.
func (s *InterviewService) List(ctx context.Context, filter models.InterviewFilter) ([]models.InterviewDetail, *models.Pagination, error) {
	interviews, total, err := s.interviews.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list interviews")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return interviews, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one interview with the people involved.
func (s *InterviewService) Get(ctx context.Context, id string) (*models.InterviewDetail, error) {
	detail, err := s.interviews.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interview")
	}
	return detail, nil
}

// Today lists the interviews of the current campaign day, cached briefly.
func (s *InterviewService) Today(ctx context.Context) (*dto.TodayResponse, error) {
	dayNumber := dayNumberForDate(s.now(), s.cfg.StartDate)
	cacheKey := fmt.Sprintf("dashboard:today:%d", dayNumber)

	if s.cache != nil {
		var cached dto.TodayResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	interviews, err := s.interviews.ListByDay(ctx, dayNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load today interviews")
	}
	if interviews == nil {
		interviews = []models.InterviewDetail{}
	}

	monday := firstMonday(s.cfg.StartDate)
	week := (dayNumber - 1) / 5
	weekdayIndex := (dayNumber - 1) % 5

	resp := &dto.TodayResponse{
		DayNumber:  dayNumber,
		WeekNumber: weekNumber(dayNumber),
		Weekday:    weekdayForDay(dayNumber),
		Date:       monday.AddDate(0, 0, week*7+weekdayIndex),
		Interviews: interviews,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("today cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// Stats summarises the pipeline, cached briefly.
func (s *InterviewService) Stats(ctx context.Context) (*models.ScheduleStats, error) {
	const cacheKey = "dashboard:stats"

	if s.cache != nil {
		var cached models.ScheduleStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	candidateCounts, err := s.candidates.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count candidates")
	}
	interviewCounts, err := s.interviews.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count interviews")
	}
	load, err := s.interviews.PerDayLoad(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load per day counts")
	}
	maxDay, err := s.interviews.MaxDayNumber(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load max day")
	}

	total := 0
	for _, n := range candidateCounts {
		total += n
	}

	stats := &models.ScheduleStats{
		TotalCandidates: total,
		Scheduled:       interviewCounts[models.InterviewStatusScheduled],
		Completed:       interviewCounts[models.InterviewStatusCompleted],
		Cancelled:       interviewCounts[models.InterviewStatusCancelled],
		Pending:         candidateCounts[models.CandidateStatusPending],
		DaysUsed:        maxDay,
		WeeksUsed:       weekNumber(maxDay),
		PerDayLoad:      make(map[string]int, len(load)),
	}
	if maxDay == 0 {
		stats.WeeksUsed = 0
	}
	for day, n := range load {
		stats.PerDayLoad[fmt.Sprintf("day%d", day)] = n
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Complete marks an interview and its candidate as done. Completed
// interviews are immutable afterwards, except through Undo.
func (s *InterviewService) Complete(ctx context.Context, id string, actorID *string) error {
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return err
	}
	if interview.IsCompleted() {
		return appErrors.ErrAlreadyCompleted
	}

	return s.transition(ctx, interview, models.InterviewStatusCompleted, models.CandidateStatusCompleted, models.ActionComplete, actorID)
}

// Cancel takes an interview off the calendar and returns the candidate to
// the pending pool.
func (s *InterviewService) Cancel(ctx context.Context, id string, actorID *string) error {
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return err
	}
	if interview.IsCompleted() {
		return appErrors.ErrAlreadyCompleted
	}
	if interview.Status == models.InterviewStatusCancelled {
		return appErrors.Clone(appErrors.ErrConflict, "interview is already cancelled")
	}

	return s.transition(ctx, interview, models.InterviewStatusCancelled, models.CandidateStatusPending, models.ActionCancel, actorID)
}

// Reactivate puts a cancelled interview back on the calendar. The original
// cell must still be free and the candidate must not hold another active
// interview, since both could have changed while the interview sat cancelled.
func (s *InterviewService) Reactivate(ctx context.Context, id string, actorID *string) error {
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return err
	}
	if interview.Status != models.InterviewStatusCancelled {
		return appErrors.Clone(appErrors.ErrConflict, "only cancelled interviews can be reactivated")
	}

	taken, err := s.interviews.SlotTaken(ctx, interview.DayNumber, interview.SlotLabel)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check slot occupancy")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "slot is already occupied by another interview")
	}

	active, err := s.interviews.CountActiveForCandidate(ctx, interview.CandidateID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "count candidate interviews")
	}
	if active > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "candidate already has an active interview")
	}

	return s.transition(ctx, interview, models.InterviewStatusScheduled, models.CandidateStatusScheduled, models.ActionReactivate, actorID)
}

// UndoComplete reverses the most recent completion of an interview.
func (s *InterviewService) UndoComplete(ctx context.Context, id string, actorID *string) error {
	interview, err := s.loadInterview(ctx, id)
	if err != nil {
		return err
	}
	if !interview.IsCompleted() {
		return appErrors.Clone(appErrors.ErrConflict, "interview is not completed")
	}

	entry, err := s.history.LatestForInterview(ctx, id, models.ActionComplete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no completion to undo")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load completion history")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin undo")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.interviews.UpdateStatusTx(ctx, tx, id, entry.Before.Status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "restore interview status")
	}
	if err = s.candidates.UpdateStatusTx(ctx, tx, interview.CandidateID, models.CandidateStatusScheduled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "restore candidate status")
	}
	if err = s.history.MarkUndoneTx(ctx, tx, entry.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "mark completion undone")
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit undo")
	}

	s.invalidate(ctx)
	s.logger.Info("completion undone", zap.String("interview_id", id))
	return nil
}

// History lists the action trail.
func (s *InterviewService) History(ctx context.Context, filter models.ActionHistoryFilter) ([]models.ActionHistory, *models.Pagination, error) {
	entries, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list action history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *InterviewService) loadInterview(ctx context.Context, id string) (*models.Interview, error) {
	interview, err := s.interviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interview")
	}
	return interview, nil
}

func (s *InterviewService) transition(ctx context.Context, interview *models.Interview, interviewStatus models.InterviewStatus, candidateStatus models.CandidateStatus, action string, actorID *string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin transition")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.interviews.UpdateStatusTx(ctx, tx, interview.ID, interviewStatus); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update interview status")
	}
	if err = s.candidates.UpdateStatusTx(ctx, tx, interview.CandidateID, candidateStatus); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update candidate status")
	}

	entry := &models.ActionHistory{
		InterviewID: interview.ID,
		Action:      action,
		ActorID:     actorID,
		Before: models.ActionSnapshot{
			InterviewID:     interview.ID,
			CandidateID:     interview.CandidateID,
			Status:          interview.Status,
			DayNumber:       interview.DayNumber,
			SlotLabel:       interview.SlotLabel,
			RescheduleCount: interview.RescheduleCount,
		},
		After: models.ActionSnapshot{
			InterviewID:     interview.ID,
			CandidateID:     interview.CandidateID,
			Status:          interviewStatus,
			DayNumber:       interview.DayNumber,
			SlotLabel:       interview.SlotLabel,
			RescheduleCount: interview.RescheduleCount,
		},
	}
	if err = s.history.RecordTx(ctx, tx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record action history")
	}

	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit transition")
	}

	s.invalidate(ctx)
	s.logger.Info("interview transitioned",
		zap.String("interview_id", interview.ID),
		zap.String("action", action),
		zap.String("status", string(interviewStatus)),
	)
	return nil
}

func (s *InterviewService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
