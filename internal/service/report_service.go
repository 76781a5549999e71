package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/repository"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
	"github.com/noah-isme/interview-scheduler-api/pkg/export"
	"github.com/noah-isme/interview-scheduler-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
}

type reportInterviewReader interface {
	ListDetails(ctx context.Context, fromDay, toDay *int) ([]models.InterviewDetail, error)
}

type comparisonRunner interface {
	Compare(ctx context.Context, req dto.CompareRequest) (*models.ComparisonResult, error)
	CompareMultiRun(ctx context.Context, req dto.CompareRequest) (*models.MultiRunComparison, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportConfig configures the async export pipeline.
type ReportConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	DownloadBasePath  string
	// CleanupInterval is how often expired export files are purged. Zero
	// disables the purge loop.
	CleanupInterval time.Duration
	// Retention is how long generated files stay downloadable.
	Retention time.Duration
}

// ReportService queues and processes asynchronous schedule exports.
type ReportService struct {
	store      reportJobStore
	interviews reportInterviewReader
	comparator comparisonRunner
	storage    reportStorage
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ReportConfig

	queue *jobs.Queue
}

// NewReportService wires the report pipeline and its worker queue.
func NewReportService(store reportJobStore, interviews reportInterviewReader, comparator comparisonRunner, storage reportStorage, validate *validator.Validate, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DownloadBasePath == "" {
		cfg.DownloadBasePath = "/api/v1/reports"
	}

	s := &ReportService{
		store:      store,
		interviews: interviews,
		comparator: comparator,
		storage:    storage,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches workers and re-enqueues jobs left queued by a previous run.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.cfg.CleanupInterval > 0 {
		go s.cleanupLoop(ctx)
	}

	queued, err := s.store.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range queued {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type), Payload: job.ID}); err != nil {
			s.logger.Warn("failed to re-enqueue report job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ReportService) cleanupLoop(ctx context.Context) {
	retention := s.cfg.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(retention)
			if err != nil {
				s.logger.Warn("report file cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("purged expired report files", zap.Int("count", len(deleted)))
			}
		}
	}
}

// Stop drains the worker pool.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create validates the request, persists the job row and enqueues it.
func (s *ReportService) Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	if req.FromDay != nil && req.ToDay != nil && *req.ToDay < *req.FromDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "toDay must not precede fromDay")
	}

	job := &models.ReportJob{
		Type: models.ReportType(req.Type),
		Params: models.ReportJobParams{
			Format:   models.ReportFormat(req.Format),
			Strategy: req.Strategy,
			FromDay:  req.FromDay,
			ToDay:    req.ToDay,
			Runs:     req.Runs,
		},
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: req.Type, Payload: job.ID}); err != nil {
		s.failJob(ctx, job.ID, fmt.Sprintf("enqueue failed: %v", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("type", req.Type), zap.String("format", req.Format))
	return job, nil
}

// Get returns job metadata by ID.
func (s *ReportService) Get(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return job, nil
}

// Download opens the rendered file for a finished job.
func (s *ReportService) Download(ctx context.Context, id string) (*os.File, string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != models.ReportStatusFinished {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "report is not finished yet")
	}

	filename := s.filename(job)
	file, err := s.storage.Open(filename)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file is no longer available")
	}
	return file, filename, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	id, _ := job.Payload.(string)
	if id == "" {
		id = job.ID
	}

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", id, err)
	}
	if record.Status == models.ReportStatusFinished {
		return nil
	}

	processing := models.ReportStatusProcessing
	progress := 10
	if err := s.store.Update(ctx, id, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	var data []byte
	var renderErr error
	switch record.Type {
	case models.ReportTypeSchedule:
		data, renderErr = s.renderSchedule(ctx, record)
	case models.ReportTypeComparison:
		data, renderErr = s.renderComparison(ctx, record)
	default:
		renderErr = fmt.Errorf("unknown report type %q", record.Type)
	}
	if renderErr != nil {
		s.failJob(ctx, id, renderErr.Error())
		return renderErr
	}

	filename := s.filename(record)
	if _, err := s.storage.Save(filename, data); err != nil {
		s.failJob(ctx, id, err.Error())
		return fmt.Errorf("save report file: %w", err)
	}

	finished := models.ReportStatusFinished
	done := 100
	now := time.Now().UTC()
	resultURL := fmt.Sprintf("%s/%s/download", s.cfg.DownloadBasePath, record.ID)
	if err := s.store.Update(ctx, id, repository.UpdateReportJobParams{
		Status:     &finished,
		Progress:   &done,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalise report job: %w", err)
	}

	s.logger.Info("report job finished", zap.String("job_id", id), zap.String("file", filename))
	return nil
}

func (s *ReportService) renderSchedule(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	interviews, err := s.interviews.ListDetails(ctx, job.Params.FromDay, job.Params.ToDay)
	if err != nil {
		return nil, fmt.Errorf("load interviews: %w", err)
	}

	headers := []string{"Day", "Slot", "Candidate", "Email", "Interviewer 1", "Interviewer 2", "Status", "Rescheduled"}
	rows := make([]map[string]string, 0, len(interviews))
	for _, iv := range interviews {
		rows = append(rows, map[string]string{
			"Day":           strconv.Itoa(iv.DayNumber),
			"Slot":          iv.SlotLabel,
			"Candidate":     iv.CandidateName,
			"Email":         iv.CandidateEmail,
			"Interviewer 1": iv.InterviewerOneName,
			"Interviewer 2": iv.InterviewerTwoName,
			"Status":        string(iv.Status),
			"Rescheduled":   strconv.Itoa(iv.RescheduleCount),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	if job.Params.Format == models.ReportFormatPDF {
		summary := []string{
			fmt.Sprintf("Interviews: %d", len(interviews)),
			fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)),
		}
		return s.pdf.Render(dataset, "Interview Schedule", summary...)
	}
	return s.csv.Render(dataset)
}

func (s *ReportService) renderComparison(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	req := dto.CompareRequest{Runs: job.Params.Runs}

	if job.Params.Runs > 1 {
		result, err := s.comparator.CompareMultiRun(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("run comparison: %w", err)
		}
		headers := []string{"Strategy", "Runs", "Min Days", "Max Days", "Avg Days", "Avg Scheduled"}
		rows := make([]map[string]string, 0, len(result.Aggregates))
		for _, agg := range result.Aggregates {
			rows = append(rows, map[string]string{
				"Strategy":      agg.Strategy,
				"Runs":          strconv.Itoa(agg.Runs),
				"Min Days":      strconv.Itoa(agg.MinDaysUsed),
				"Max Days":      strconv.Itoa(agg.MaxDaysUsed),
				"Avg Days":      fmt.Sprintf("%.2f", agg.AvgDaysUsed),
				"Avg Scheduled": fmt.Sprintf("%.2f", agg.AvgScheduled),
			})
		}
		dataset := export.Dataset{Headers: headers, Rows: rows}
		if job.Params.Format == models.ReportFormatPDF {
			summary := []string{fmt.Sprintf("Candidates: %d, runs per strategy: %d", result.Candidates, result.Runs)}
			return s.pdf.Render(dataset, "Strategy Comparison", summary...)
		}
		return s.csv.Render(dataset)
	}

	result, err := s.comparator.Compare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("run comparison: %w", err)
	}
	headers := []string{"Strategy", "Scheduled", "Unscheduled", "Days Used", "Weeks Used", "Max Load", "Load Variance", "Time (ms)"}
	rows := make([]map[string]string, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		rows = append(rows, map[string]string{
			"Strategy":      outcome.Strategy,
			"Scheduled":     strconv.Itoa(outcome.Scheduled),
			"Unscheduled":   strconv.Itoa(len(outcome.Unscheduled)),
			"Days Used":     strconv.Itoa(outcome.DaysUsed),
			"Weeks Used":    strconv.Itoa(outcome.WeeksUsed),
			"Max Load":      strconv.Itoa(outcome.Load.Max),
			"Load Variance": strconv.Itoa(outcome.Load.Variance),
			"Time (ms)":     fmt.Sprintf("%.3f", outcome.ExecutionTimeMS),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}
	if job.Params.Format == models.ReportFormatPDF {
		summary := []string{fmt.Sprintf("Candidates: %d", result.Candidates)}
		return s.pdf.Render(dataset, "Strategy Comparison", summary...)
	}
	return s.csv.Render(dataset)
}

func (s *ReportService) failJob(ctx context.Context, id, message string) {
	failed := models.ReportStatusFailed
	now := time.Now().UTC()
	if err := s.store.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark report job as failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *ReportService) filename(job *models.ReportJob) string {
	return fmt.Sprintf("%s-%s.%s", job.Type, job.ID, job.Params.Format)
}
