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

type interviewManager interface {
	List(ctx context.Context, filter models.InterviewFilter) ([]models.InterviewDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.InterviewDetail, error)
	Today(ctx context.Context) (*dto.TodayResponse, error)
	Stats(ctx context.Context) (*models.ScheduleStats, error)
	Complete(ctx context.Context, id string, actorID *string) error
	Cancel(ctx context.Context, id string, actorID *string) error
	Reactivate(ctx context.Context, id string, actorID *string) error
	UndoComplete(ctx context.Context, id string, actorID *string) error
	History(ctx context.Context, filter models.ActionHistoryFilter) ([]models.ActionHistory, *models.Pagination, error)
}

type rescheduler interface {
	Reschedule(ctx context.Context, interviewID string, req dto.RescheduleRequest) (*dto.RescheduleResponse, error)
}

// InterviewHandler exposes interview listing, lifecycle and reschedule
// endpoints plus the operational dashboard.
type InterviewHandler struct {
	service    interviewManager
	reschedule rescheduler
}

// NewInterviewHandler constructs the handler.
func NewInterviewHandler(svc *service.InterviewService, reschedule *service.RescheduleService) *InterviewHandler {
	return &InterviewHandler{service: svc, reschedule: reschedule}
}

// List godoc
// @Summary List interviews
// @Tags Interviews
// @Produce json
// @Param status query string false "Interview status"
// @Param candidateId query string false "Candidate ID"
// @Param interviewerId query string false "Interviewer ID"
// @Param day query int false "Day number"
// @Param fromDay query int false "Day range start"
// @Param toDay query int false "Day range end"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /interviews [get]
func (h *InterviewHandler) List(c *gin.Context) {
	filter := models.InterviewFilter{
		CandidateID:   c.Query("candidateId"),
		InterviewerID: c.Query("interviewerId"),
		Page:          intQuery(c, "page"),
		PageSize:      intQuery(c, "pageSize"),
		SortBy:        c.Query("sortBy"),
		SortOrder:     c.Query("sortOrder"),
	}
	if status := c.Query("status"); status != "" {
		s := models.InterviewStatus(status)
		filter.Status = &s
	}
	if day := intQuery(c, "day"); day > 0 {
		filter.DayNumber = &day
	}
	if from := intQuery(c, "fromDay"); from > 0 {
		filter.FromDay = &from
	}
	if to := intQuery(c, "toDay"); to > 0 {
		filter.ToDay = &to
	}

	interviews, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interviews, pagination)
}

// Get godoc
// @Summary Get interview
// @Tags Interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 200 {object} response.Envelope
// @Router /interviews/{id} [get]
func (h *InterviewHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Today godoc
// @Summary List today's interviews
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/today [get]
func (h *InterviewHandler) Today(c *gin.Context) {
	result, err := h.service.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Stats godoc
// @Summary Summarise the scheduling pipeline
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *InterviewHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Complete godoc
// @Summary Mark an interview as completed
// @Tags Interviews
// @Param id path string true "Interview ID"
// @Success 204
// @Router /interviews/{id}/complete [post]
func (h *InterviewHandler) Complete(c *gin.Context) {
	if err := h.service.Complete(c.Request.Context(), c.Param("id"), actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel an interview and return the candidate to the pool
// @Tags Interviews
// @Param id path string true "Interview ID"
// @Success 204
// @Router /interviews/{id}/cancel [post]
func (h *InterviewHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reactivate godoc
// @Summary Put a cancelled interview back on the calendar
// @Tags Interviews
// @Param id path string true "Interview ID"
// @Success 204
// @Router /interviews/{id}/reactivate [post]
func (h *InterviewHandler) Reactivate(c *gin.Context) {
	if err := h.service.Reactivate(c.Request.Context(), c.Param("id"), actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UndoComplete godoc
// @Summary Undo the most recent completion of an interview
// @Tags Interviews
// @Param id path string true "Interview ID"
// @Success 204
// @Router /interviews/{id}/undo-complete [post]
func (h *InterviewHandler) UndoComplete(c *gin.Context) {
	if err := h.service.UndoComplete(c.Request.Context(), c.Param("id"), actorIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reschedule godoc
// @Summary Reschedule an interview via swap or calendar rebuild
// @Tags Interviews
// @Accept json
// @Produce json
// @Param id path string true "Interview ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /interviews/{id}/reschedule [post]
func (h *InterviewHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	result, err := h.reschedule.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary List the interview action history
// @Tags Interviews
// @Produce json
// @Param interviewId query string false "Interview ID"
// @Param action query string false "Action type"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *InterviewHandler) History(c *gin.Context) {
	filter := models.ActionHistoryFilter{
		InterviewID: c.Query("interviewId"),
		Action:      c.Query("action"),
		Page:        intQuery(c, "page"),
		PageSize:    intQuery(c, "pageSize"),
	}
	entries, pagination, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
