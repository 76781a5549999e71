package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type interviewerStore interface {
	List(ctx context.Context, filter models.InterviewerFilter) ([]models.Interviewer, int, error)
	ListActive(ctx context.Context) ([]models.Interviewer, error)
	FindByID(ctx context.Context, id string) (*models.Interviewer, error)
	Create(ctx context.Context, interviewer *models.Interviewer) error
	Update(ctx context.Context, interviewer *models.Interviewer) error
	Delete(ctx context.Context, id string) error
}

// InterviewerService manages panel members.
type InterviewerService struct {
	store     interviewerStore
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInterviewerService wires interviewer dependencies.
func NewInterviewerService(store interviewerStore, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *InterviewerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InterviewerService{store: store, cache: cache, validator: validate, logger: logger}
}

// List returns interviewers with pagination metadata.
func (s *InterviewerService) List(ctx context.Context, filter models.InterviewerFilter) ([]models.Interviewer, *models.Pagination, error) {
	interviewers, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interviewers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return interviewers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single interviewer.
func (s *InterviewerService) Get(ctx context.Context, id string) (*models.Interviewer, error) {
	interviewer, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "interviewer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interviewer")
	}
	return interviewer, nil
}

// Create registers a new active panel member.
func (s *InterviewerService) Create(ctx context.Context, req dto.CreateInterviewerRequest) (*models.Interviewer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interviewer payload")
	}
	if err := validateAvailability(req.Availability); err != nil {
		return nil, err
	}

	interviewer := &models.Interviewer{
		Name:         req.Name,
		Email:        req.Email,
		Availability: req.Availability,
		Active:       true,
	}
	if err := s.store.Create(ctx, interviewer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "failed to create interviewer")
	}

	s.invalidate(ctx)
	s.logger.Info("interviewer created", zap.String("interviewer_id", interviewer.ID))
	return interviewer, nil
}

// Update applies partial changes to an existing interviewer.
func (s *InterviewerService) Update(ctx context.Context, id string, req dto.UpdateInterviewerRequest) (*models.Interviewer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid interviewer payload")
	}

	interviewer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		interviewer.Name = *req.Name
	}
	if req.Email != nil {
		interviewer.Email = *req.Email
	}
	if req.Availability != nil {
		if err := validateAvailability(*req.Availability); err != nil {
			return nil, err
		}
		interviewer.Availability = *req.Availability
	}
	if req.Active != nil {
		if !*req.Active {
			if err := s.ensurePanelSurvives(ctx, id); err != nil {
				return nil, err
			}
		}
		interviewer.Active = *req.Active
	}

	if err := s.store.Update(ctx, interviewer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update interviewer")
	}

	s.invalidate(ctx)
	return interviewer, nil
}

// Delete removes a panel member, refusing when fewer than two active
// interviewers would remain.
func (s *InterviewerService) Delete(ctx context.Context, id string) error {
	interviewer, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if interviewer.Active {
		if err := s.ensurePanelSurvives(ctx, id); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete interviewer")
	}

	s.invalidate(ctx)
	return nil
}

func (s *InterviewerService) ensurePanelSurvives(ctx context.Context, excludeID string) error {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active panel")
	}
	remaining := 0
	for _, iv := range active {
		if iv.ID != excludeID {
			remaining++
		}
	}
	if remaining < 2 {
		return appErrors.Clone(appErrors.ErrConfiguration, "at least two active interviewers must remain")
	}
	return nil
}

func (s *InterviewerService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
