package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type candidateStore interface {
	List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error)
	FindByID(ctx context.Context, id string) (*models.Candidate, error)
	Create(ctx context.Context, candidate *models.Candidate) error
	Update(ctx context.Context, candidate *models.Candidate) error
	Delete(ctx context.Context, id string) error
}

// CandidateService manages the candidate pool.
type CandidateService struct {
	store     candidateStore
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCandidateService wires candidate dependencies.
func NewCandidateService(store candidateStore, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CandidateService{store: store, cache: cache, validator: validate, logger: logger}
}

// List returns candidates with filter and pagination metadata.
func (s *CandidateService) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, *models.Pagination, error) {
	candidates, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return candidates, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single candidate.
func (s *CandidateService) Get(ctx context.Context, id string) (*models.Candidate, error) {
	candidate, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	return candidate, nil
}

// Create registers a new candidate in PENDING state.
func (s *CandidateService) Create(ctx context.Context, req dto.CreateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}
	if err := validateAvailability(req.Availability); err != nil {
		return nil, err
	}

	candidate := &models.Candidate{
		Name:         req.Name,
		Email:        req.Email,
		RollNumber:   req.RollNumber,
		Department:   req.Department,
		Year:         req.Year,
		Availability: req.Availability,
		Status:       models.CandidateStatusPending,
	}
	if err := s.store.Create(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "failed to create candidate")
	}

	s.invalidate(ctx)
	s.logger.Info("candidate created", zap.String("candidate_id", candidate.ID), zap.String("roll_number", candidate.RollNumber))
	return candidate, nil
}

// Update applies partial changes to an existing candidate.
func (s *CandidateService) Update(ctx context.Context, id string, req dto.UpdateCandidateRequest) (*models.Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate payload")
	}

	candidate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		candidate.Name = *req.Name
	}
	if req.Email != nil {
		candidate.Email = *req.Email
	}
	if req.Department != nil {
		candidate.Department = *req.Department
	}
	if req.Year != nil {
		candidate.Year = *req.Year
	}
	if req.Availability != nil {
		if err := validateAvailability(*req.Availability); err != nil {
			return nil, err
		}
		candidate.Availability = *req.Availability
	}

	if err := s.store.Update(ctx, candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update candidate")
	}

	s.invalidate(ctx)
	return candidate, nil
}

// Delete removes a candidate. Scheduled candidates must be rescheduled or
// cancelled first.
func (s *CandidateService) Delete(ctx context.Context, id string) error {
	candidate, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if candidate.Status == models.CandidateStatusScheduled {
		return appErrors.Clone(appErrors.ErrConflict, "candidate has a scheduled interview")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete candidate")
	}

	s.invalidate(ctx)
	return nil
}

func (s *CandidateService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

// validateAvailability ensures weekday keys are valid and every slot label has
// a parseable start time.
func validateAvailability(av models.Availability) error {
	known := make(map[string]struct{}, len(models.Weekdays))
	for _, day := range models.Weekdays {
		known[day] = struct{}{}
	}
	for day, slots := range av {
		if _, ok := known[day]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", day))
		}
		for _, slot := range slots {
			if _, ok := parseSlotStart(slot); !ok {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unparseable slot label %q", slot))
			}
		}
	}
	return nil
}
