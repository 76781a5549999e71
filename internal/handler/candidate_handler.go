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

type candidateManager interface {
	List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Candidate, error)
	Create(ctx context.Context, req dto.CreateCandidateRequest) (*models.Candidate, error)
	Update(ctx context.Context, id string, req dto.UpdateCandidateRequest) (*models.Candidate, error)
	Delete(ctx context.Context, id string) error
}

// CandidateHandler exposes candidate pool endpoints.
type CandidateHandler struct {
	service candidateManager
}

// NewCandidateHandler constructs the handler.
func NewCandidateHandler(svc *service.CandidateService) *CandidateHandler {
	return &CandidateHandler{service: svc}
}

// List godoc
// @Summary List candidates
// @Tags Candidates
// @Produce json
// @Param status query string false "Pipeline status"
// @Param department query string false "Department"
// @Param year query int false "Year"
// @Param search query string false "Name, email or roll number"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /candidates [get]
func (h *CandidateHandler) List(c *gin.Context) {
	filter := models.CandidateFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Page:       intQuery(c, "page"),
		PageSize:   intQuery(c, "pageSize"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}
	if status := c.Query("status"); status != "" {
		s := models.CandidateStatus(status)
		filter.Status = &s
	}
	if year := intQuery(c, "year"); year > 0 {
		filter.Year = &year
	}

	candidates, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, pagination)
}

// Get godoc
// @Summary Get candidate
// @Tags Candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id} [get]
func (h *CandidateHandler) Get(c *gin.Context) {
	candidate, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// Create godoc
// @Summary Register candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param payload body dto.CreateCandidateRequest true "Candidate payload"
// @Success 201 {object} response.Envelope
// @Router /candidates [post]
func (h *CandidateHandler) Create(c *gin.Context) {
	var req dto.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}
	candidate, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, candidate)
}

// Update godoc
// @Summary Update candidate
// @Tags Candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param payload body dto.UpdateCandidateRequest true "Candidate payload"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id} [put]
func (h *CandidateHandler) Update(c *gin.Context) {
	var req dto.UpdateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}
	candidate, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidate, nil)
}

// Delete godoc
// @Summary Delete candidate
// @Tags Candidates
// @Param id path string true "Candidate ID"
// @Success 204
// @Router /candidates/{id} [delete]
func (h *CandidateHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func intQuery(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
