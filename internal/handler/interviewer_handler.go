package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
	"github.com/noah-isme/interview-scheduler-api/pkg/response"
)

type interviewerManager interface {
	List(ctx context.Context, filter models.InterviewerFilter) ([]models.Interviewer, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Interviewer, error)
	Create(ctx context.Context, req dto.CreateInterviewerRequest) (*models.Interviewer, error)
	Update(ctx context.Context, id string, req dto.UpdateInterviewerRequest) (*models.Interviewer, error)
	Delete(ctx context.Context, id string) error
}

// InterviewerHandler exposes panel member endpoints.
type InterviewerHandler struct {
	service interviewerManager
}

// NewInterviewerHandler constructs the handler.
func NewInterviewerHandler(svc *service.InterviewerService) *InterviewerHandler {
	return &InterviewerHandler{service: svc}
}

// List godoc
// @Summary List interviewers
// @Tags Interviewers
// @Produce json
// @Param active query boolean false "Active filter"
// @Param search query string false "Name or email"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interviewers [get]
func (h *InterviewerHandler) List(c *gin.Context) {
	filter := models.InterviewerFilter{
		Search:    c.Query("search"),
		Page:      intQuery(c, "page"),
		PageSize:  intQuery(c, "pageSize"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}

	interviewers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interviewers, pagination)
}

// Get godoc
// @Summary Get interviewer
// @Tags Interviewers
// @Produce json
// @Param id path string true "Interviewer ID"
// @Success 200 {object} response.Envelope
// @Router /interviewers/{id} [get]
func (h *InterviewerHandler) Get(c *gin.Context) {
	interviewer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interviewer, nil)
}

// Create godoc
// @Summary Register interviewer
// @Tags Interviewers
// @Accept json
// @Produce json
// @Param payload body dto.CreateInterviewerRequest true "Interviewer payload"
// @Success 201 {object} response.Envelope
// @Router /interviewers [post]
func (h *InterviewerHandler) Create(c *gin.Context) {
	var req dto.CreateInterviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interviewer payload"))
		return
	}
	interviewer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, interviewer)
}

// Update godoc
// @Summary Update interviewer
// @Tags Interviewers
// @Accept json
// @Produce json
// @Param id path string true "Interviewer ID"
// @Param payload body dto.UpdateInterviewerRequest true "Interviewer payload"
// @Success 200 {object} response.Envelope
// @Router /interviewers/{id} [put]
func (h *InterviewerHandler) Update(c *gin.Context) {
	var req dto.UpdateInterviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid interviewer payload"))
		return
	}
	interviewer, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interviewer, nil)
}

// Delete godoc
// @Summary Delete interviewer
// @Tags Interviewers
// @Param id path string true "Interviewer ID"
// @Success 204
// @Router /interviewers/{id} [delete]
func (h *InterviewerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
