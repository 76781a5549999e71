package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
	"github.com/noah-isme/interview-scheduler-api/pkg/response"
)

type reportManager interface {
	Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*models.ReportJob, error)
	Get(ctx context.Context, id string) (*models.ReportJob, error)
	Download(ctx context.Context, id string) (*os.File, string, error)
}

// ReportHandler exposes asynchronous export endpoints.
type ReportHandler struct {
	service reportManager
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Create godoc
// @Summary Queue an asynchronous schedule or comparison export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	userID := ""
	if actor := actorIDFromContext(c); actor != nil {
		userID = *actor
	}

	job, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Get godoc
// @Summary Get report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Report job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished report file
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Report job ID"
// @Success 200
// @Router /reports/{id}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, filename, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := "text/csv"
	if filepath.Ext(filename) == ".pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
