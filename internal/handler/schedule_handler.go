package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
	"github.com/noah-isme/interview-scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResponse, error)
}

type strategyComparator interface {
	Compare(ctx context.Context, req dto.CompareRequest) (*models.ComparisonResult, error)
	CompareMultiRun(ctx context.Context, req dto.CompareRequest) (*models.MultiRunComparison, error)
}

// ScheduleHandler exposes the schedule generation and comparison endpoints.
type ScheduleHandler struct {
	generator  scheduleGenerator
	comparator strategyComparator
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(generator *service.SchedulerService, comparator *service.CompareService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, comparator: comparator}
}

// Generate godoc
// @Summary Generate the interview schedule for pending candidates
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Compare godoc
// @Summary Compare all scheduling strategies without persisting
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.CompareRequest true "Compare payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/compare [post]
func (h *ScheduleHandler) Compare(c *gin.Context) {
	var req dto.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid compare payload"))
		return
	}

	if req.Runs > 1 {
		result, err := h.comparator.CompareMultiRun(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
		return
	}

	result, err := h.comparator.Compare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
