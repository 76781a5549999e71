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

type rescheduleInterviewStore interface {
	FindByID(ctx context.Context, id string) (*models.Interview, error)
	ListFutureActive(ctx context.Context, afterDay int) ([]models.Interview, error)
	ListBookedSlots(ctx context.Context, afterDay int) ([]models.BookedSlot, error)
	ReassignCandidateTx(ctx context.Context, tx *sqlx.Tx, interviewID, newCandidateID, fromCandidateID string, at time.Time, reason string) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
	DeleteFutureActiveTx(ctx context.Context, tx *sqlx.Tx, afterDay int) ([]string, error)
	BulkCreateTx(ctx context.Context, tx *sqlx.Tx, interviews []models.Interview) error
}

type rescheduleCandidateStore interface {
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Candidate, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.CandidateStatus) error
	BulkUpdateStatusTx(ctx context.Context, tx *sqlx.Tx, ids []string, status models.CandidateStatus) error
}

type actionRecorder interface {
	RecordTx(ctx context.Context, tx *sqlx.Tx, entry *models.ActionHistory) error
}

// RescheduleConfig tunes the two-tier reschedule flow.
type RescheduleConfig struct {
	StartDate   time.Time
	HorizonDays int
	// Cooldown is the window during which a candidate may not move back
	// into a slot they were just moved out of.
	Cooldown time.Duration
}

// RescheduleService moves candidates between slots without touching the
// current week or any completed interview. Tier 1 swaps two interviews that
// share a weekday and start time; tier 2 rebuilds every future week.
type RescheduleService struct {
	interviews   rescheduleInterviewStore
	candidates   rescheduleCandidateStore
	interviewers panelReader
	history      actionRecorder
	tx           txProvider
	cache        cacheInvalidator
	logger       *zap.Logger
	cfg          RescheduleConfig
	now          func() time.Time
	metrics      *MetricsService
}

// NewRescheduleService wires reschedule dependencies.
func NewRescheduleService(
	interviews rescheduleInterviewStore,
	candidates rescheduleCandidateStore,
	interviewers panelReader,
	history actionRecorder,
	tx txProvider,
	cache cacheInvalidator,
	logger *zap.Logger,
	cfg RescheduleConfig,
) *RescheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 24 * time.Hour
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 999
	}
	return &RescheduleService{
		interviews:   interviews,
		candidates:   candidates,
		interviewers: interviewers,
		history:      history,
		tx:           tx,
		cache:        cache,
		logger:       logger,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests use it to pin the cooldown.
func (s *RescheduleService) WithClock(now func() time.Time) *RescheduleService {
	s.now = now
	return s
}

// WithMetrics attaches the Prometheus instrumentation.
func (s *RescheduleService) WithMetrics(m *MetricsService) *RescheduleService {
	s.metrics = m
	return s
}

// Reschedule runs the two-tier protocol for one interview. Domain failures
// (missing, completed, loop) come back inside the response, not as errors.
func (s *RescheduleService) Reschedule(ctx context.Context, interviewID string, req dto.RescheduleRequest) (*dto.RescheduleResponse, error) {
	reason := req.Reason
	if reason == "" {
		reason = "candidate unavailable"
	}

	interview, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.RescheduleResponse{
				Success:   false,
				Message:   "interview not found",
				ErrorCode: appErrors.ErrNotFound.Code,
			}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interview")
	}

	if interview.IsCompleted() {
		return &dto.RescheduleResponse{
			Success:   false,
			Message:   appErrors.ErrAlreadyCompleted.Message,
			ErrorCode: appErrors.ErrAlreadyCompleted.Code,
		}, nil
	}

	if s.isLoop(interview) {
		return &dto.RescheduleResponse{
			Success:   false,
			Message:   appErrors.ErrLoopDetected.Message,
			ErrorCode: appErrors.ErrLoopDetected.Code,
		}, nil
	}

	currentWeekEnd := weekNumber(interview.DayNumber) * 5

	future, err := s.interviews.ListFutureActive(ctx, currentWeekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load future interviews")
	}

	if swap := findSwapTarget(interview, future); swap != nil {
		return s.doSwap(ctx, interview, swap, reason)
	}

	return s.rebuild(ctx, interview, currentWeekEnd, reason)
}

// isLoop reports whether the interview's slot was just vacated by its own
// current candidate inside the cooldown window.
func (s *RescheduleService) isLoop(interview *models.Interview) bool {
	if interview.LastRescheduledFrom == nil || interview.LastRescheduledAt == nil {
		return false
	}
	if *interview.LastRescheduledFrom != interview.CandidateID {
		return false
	}
	return s.now().Sub(*interview.LastRescheduledAt) < s.cfg.Cooldown
}

// findSwapTarget picks the first future interview on the same weekday at the
// same start time. The input is ordered by day then start time, so the
// earliest matching slot always wins.
func findSwapTarget(interview *models.Interview, future []models.Interview) *models.Interview {
	weekday := weekdayForDay(interview.DayNumber)
	hour, minute := interview.StartTime.Hour(), interview.StartTime.Minute()

	for i := range future {
		other := &future[i]
		if weekdayForDay(other.DayNumber) != weekday {
			continue
		}
		if other.StartTime.Hour() != hour || other.StartTime.Minute() != minute {
			continue
		}
		return other
	}
	return nil
}

func (s *RescheduleService) doSwap(ctx context.Context, interview, swap *models.Interview, reason string) (*dto.RescheduleResponse, error) {
	origCandidate, err := s.candidates.FindByID(ctx, interview.CandidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load candidate")
	}
	swapCandidate, err := s.candidates.FindByID(ctx, swap.CandidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load swap candidate")
	}

	// The requesting side carries the caller's reason; the partner's row
	// records that it moved to make room.
	partnerReason := fmt.Sprintf("swapped with %s due to: %s", origCandidate.Name, reason)

	now := s.now()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin swap")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.interviews.ReassignCandidateTx(ctx, tx, interview.ID, swap.CandidateID, interview.CandidateID, now, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "swap original interview")
	}
	if err = s.interviews.ReassignCandidateTx(ctx, tx, swap.ID, interview.CandidateID, swap.CandidateID, now, partnerReason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "swap target interview")
	}
	if err = s.candidates.UpdateStatusTx(ctx, tx, interview.CandidateID, models.CandidateStatusScheduled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update candidate status")
	}
	if err = s.candidates.UpdateStatusTx(ctx, tx, swap.CandidateID, models.CandidateStatusScheduled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update swap candidate status")
	}

	if s.history != nil {
		entries := []*models.ActionHistory{
			swapHistory(interview, swap.CandidateID),
			swapHistory(swap, interview.CandidateID),
		}
		for _, entry := range entries {
			if err = s.history.RecordTx(ctx, tx, entry); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record reschedule history")
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit swap")
	}

	s.invalidateDashboard(ctx)
	s.metrics.ObserveReschedule(dto.RescheduleMethodSwap)
	s.logger.Info("interviews swapped",
		zap.String("interview_id", interview.ID),
		zap.String("swap_interview_id", swap.ID),
		zap.Int("day", interview.DayNumber),
		zap.Int("swap_day", swap.DayNumber),
	)

	return &dto.RescheduleResponse{
		Success: true,
		Method:  dto.RescheduleMethodSwap,
		Message: fmt.Sprintf("swapped %s with %s", origCandidate.Name, swapCandidate.Name),
		AffectedCandidates: []dto.SlotChange{
			{
				CandidateID: origCandidate.ID,
				Name:        origCandidate.Name,
				OldSlot:     fmt.Sprintf("Day %d", interview.DayNumber),
				NewSlot:     fmt.Sprintf("Day %d", swap.DayNumber),
			},
			{
				CandidateID: swapCandidate.ID,
				Name:        swapCandidate.Name,
				OldSlot:     fmt.Sprintf("Day %d", swap.DayNumber),
				NewSlot:     fmt.Sprintf("Day %d", interview.DayNumber),
			},
		},
	}, nil
}

func (s *RescheduleService) rebuild(ctx context.Context, interview *models.Interview, currentWeekEnd int, reason string) (*dto.RescheduleResponse, error) {
	one, two, err := s.panel(ctx)
	if err != nil {
		return nil, err
	}

	future, err := s.interviews.ListFutureActive(ctx, currentWeekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load future interviews")
	}

	candidateIDs := make([]string, 0, len(future)+1)
	for _, f := range future {
		candidateIDs = append(candidateIDs, f.CandidateID)
	}
	candidateIDs = append(candidateIDs, interview.CandidateID)

	pool, err := s.candidates.ListByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load reschedule candidates")
	}

	booked, err := s.interviews.ListBookedSlots(ctx, currentWeekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load booked slots")
	}
	bookedSet := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		bookedSet[slotKey(b.DayNumber, b.SlotLabel)] = struct{}{}
	}

	result := NewEngine().Run(pool, one, two, EngineOptions{
		Strategy:    models.StrategyLeastAvailable,
		StartDate:   s.cfg.StartDate,
		HorizonDays: s.cfg.HorizonDays,
		MinDay:      currentWeekEnd + 1,
		Booked:      bookedSet,
	})

	now := s.now()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin rebuild")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.interviews.DeleteTx(ctx, tx, interview.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "remove original interview")
	}
	displaced, err := s.interviews.DeleteFutureActiveTx(ctx, tx, currentWeekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "remove future interviews")
	}
	displaced = append(displaced, interview.CandidateID)
	if err = s.candidates.BulkUpdateStatusTx(ctx, tx, displaced, models.CandidateStatusPending); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reset candidate statuses")
	}

	newInterviews := make([]models.Interview, 0, len(result.Assignments))
	scheduledIDs := make([]string, 0, len(result.Assignments))
	rescheduledAt := now
	requestReason := reason
	displacedReason := "displaced by schedule rebuild"
	for _, a := range result.Assignments {
		rowReason := &displacedReason
		if a.CandidateID == interview.CandidateID {
			rowReason = &requestReason
		}
		newInterviews = append(newInterviews, models.Interview{
			CandidateID:       a.CandidateID,
			InterviewerOneID:  one.ID,
			InterviewerTwoID:  two.ID,
			DayNumber:         a.DayNumber,
			SlotLabel:         a.SlotLabel,
			StartTime:         a.StartTime,
			EndTime:           a.EndTime,
			Status:            models.InterviewStatusScheduled,
			RescheduleCount:   1,
			LastRescheduledAt: &rescheduledAt,
			RescheduleReason:  rowReason,
		})
		scheduledIDs = append(scheduledIDs, a.CandidateID)
	}
	if err = s.interviews.BulkCreateTx(ctx, tx, newInterviews); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist rebuilt schedule")
	}
	if err = s.candidates.BulkUpdateStatusTx(ctx, tx, scheduledIDs, models.CandidateStatusScheduled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update rebuilt candidate statuses")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit rebuild")
	}

	s.invalidateDashboard(ctx)
	s.metrics.ObserveReschedule(dto.RescheduleMethodRebuild)
	s.logger.Info("future schedule rebuilt",
		zap.String("interview_id", interview.ID),
		zap.Int("after_day", currentWeekEnd),
		zap.Int("rescheduled", len(newInterviews)),
		zap.Int("unscheduled", len(result.Unscheduled)),
	)

	return &dto.RescheduleResponse{
		Success:     true,
		Method:      dto.RescheduleMethodRebuild,
		Message:     fmt.Sprintf("rebuilt future schedule, %d interviews rescheduled", len(newInterviews)),
		Scheduled:   len(newInterviews),
		Unscheduled: len(result.Unscheduled),
	}, nil
}

func (s *RescheduleService) panel(ctx context.Context) (models.Interviewer, models.Interviewer, error) {
	interviewers, err := s.interviewers.ListActive(ctx)
	if err != nil {
		return models.Interviewer{}, models.Interviewer{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load interviewers")
	}
	if len(interviewers) < 2 {
		return models.Interviewer{}, models.Interviewer{}, appErrors.ErrConfiguration
	}
	return interviewers[0], interviewers[1], nil
}

func (s *RescheduleService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func swapHistory(interview *models.Interview, newCandidateID string) *models.ActionHistory {
	return &models.ActionHistory{
		InterviewID: interview.ID,
		Action:      models.ActionReschedule,
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
			CandidateID:     newCandidateID,
			Status:          interview.Status,
			DayNumber:       interview.DayNumber,
			SlotLabel:       interview.SlotLabel,
			RescheduleCount: interview.RescheduleCount + 1,
		},
	}
}
