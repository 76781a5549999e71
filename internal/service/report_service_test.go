package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	"github.com/noah-isme/interview-scheduler-api/internal/repository"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
	"github.com/noah-isme/interview-scheduler-api/pkg/jobs"
	"github.com/noah-isme/interview-scheduler-api/pkg/storage"
)

// reportStoreStub is mutex guarded because queue workers update jobs from
// their own goroutines.
type reportStoreStub struct {
	mu     sync.Mutex
	nextID int
	jobsMu map[string]*models.ReportJob
}

func newReportStoreStub() *reportStoreStub {
	return &reportStoreStub{jobsMu: make(map[string]*models.ReportJob)}
}

func (s *reportStoreStub) Create(ctx context.Context, job *models.ReportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	job.ID = fmt.Sprintf("job-%d", s.nextID)
	job.CreatedAt = time.Now().UTC()
	copied := *job
	s.jobsMu[job.ID] = &copied
	return nil
}

func (s *reportStoreStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobsMu[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *reportStoreStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobsMu[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *reportStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReportJob
	for _, job := range s.jobsMu {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *reportStoreStub) status(t *testing.T, id string) models.ReportStatus {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobsMu[id]
	require.True(t, ok, "job %s not stored", id)
	return job.Status
}

type reportInterviewsStub struct {
	details []models.InterviewDetail
}

func (s *reportInterviewsStub) ListDetails(ctx context.Context, fromDay, toDay *int) ([]models.InterviewDetail, error) {
	return s.details, nil
}

type comparatorStub struct {
	singleCalls   int
	multiCalls    int
	singleOutcome *models.ComparisonResult
	multiOutcome  *models.MultiRunComparison
}

func (s *comparatorStub) Compare(ctx context.Context, req dto.CompareRequest) (*models.ComparisonResult, error) {
	s.singleCalls++
	return s.singleOutcome, nil
}

func (s *comparatorStub) CompareMultiRun(ctx context.Context, req dto.CompareRequest) (*models.MultiRunComparison, error) {
	s.multiCalls++
	return s.multiOutcome, nil
}

type reportFixture struct {
	service    *ReportService
	store      *reportStoreStub
	comparator *comparatorStub
	storage    *storage.LocalStorage
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	localStorage, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f := &reportFixture{
		store: newReportStoreStub(),
		comparator: &comparatorStub{
			singleOutcome: &models.ComparisonResult{
				Candidates: 2,
				Outcomes: []models.StrategyOutcome{
					{Strategy: models.StrategyLeastAvailable, Scheduled: 2, Unscheduled: []models.UnscheduledCandidate{}, DaysUsed: 1, WeeksUsed: 1},
				},
			},
			multiOutcome: &models.MultiRunComparison{
				Candidates: 2,
				Runs:       3,
				Aggregates: []models.StrategyAggregate{
					{Strategy: models.StrategyBalanced, Runs: 3, MinDaysUsed: 1, MaxDaysUsed: 2, AvgDaysUsed: 1.5, AvgScheduled: 2},
				},
			},
		},
		storage: localStorage,
	}

	detail := models.InterviewDetail{
		Interview:          *scheduledInterview("iv-1", "c-1", 1, "9:30AM-10:30AM"),
		CandidateName:      "Alice",
		CandidateEmail:     "alice@example.com",
		InterviewerOneName: "One",
		InterviewerTwoName: "Two",
	}

	f.service = NewReportService(
		f.store,
		&reportInterviewsStub{details: []models.InterviewDetail{detail}},
		f.comparator,
		localStorage,
		nil,
		zap.NewNop(),
		ReportConfig{WorkerConcurrency: 1, WorkerRetries: 1},
	)
	return f
}

func TestReportCreateRejectsInvalidRange(t *testing.T) {
	f := newReportFixture(t)

	from, to := 5, 3
	_, err := f.service.Create(context.Background(), "u-1", dto.CreateReportRequest{
		Type:    "schedule",
		Format:  "csv",
		FromDay: &from,
		ToDay:   &to,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportCreateRejectsUnknownType(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.service.Create(context.Background(), "u-1", dto.CreateReportRequest{Type: "inventory", Format: "csv"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReportCreateFailsJobWhenQueueDown(t *testing.T) {
	f := newReportFixture(t)

	// The queue was never started, so enqueueing must fail and the job row
	// must record the failure.
	job, err := f.service.Create(context.Background(), "u-1", dto.CreateReportRequest{Type: "schedule", Format: "csv"})
	require.Error(t, err)
	require.Nil(t, job)

	assert.Equal(t, models.ReportStatusFailed, f.store.status(t, "job-1"))
}

func TestReportPipelineRendersScheduleCSV(t *testing.T) {
	f := newReportFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.service.Start(ctx)
	defer f.service.Stop()

	job, err := f.service.Create(ctx, "u-1", dto.CreateReportRequest{Type: "schedule", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, "u-1", job.CreatedBy)

	require.Eventually(t, func() bool {
		return f.store.status(t, job.ID) == models.ReportStatusFinished
	}, 5*time.Second, 10*time.Millisecond)

	stored, err := f.store.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	assert.Equal(t, fmt.Sprintf("/api/v1/reports/%s/download", job.ID), *stored.ResultURL)
	require.NotNil(t, stored.FinishedAt)

	file, filename, err := f.service.Download(ctx, job.ID)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	assert.Equal(t, fmt.Sprintf("schedule-%s.csv", job.ID), filename)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Day,Slot,Candidate"))
	assert.Contains(t, string(content), "Alice")
}

func TestReportProcessComparisonChoosesMultiRun(t *testing.T) {
	f := newReportFixture(t)

	job := &models.ReportJob{
		Type:   models.ReportTypeComparison,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV, Runs: 3},
		Status: models.ReportStatusQueued,
	}
	require.NoError(t, f.store.Create(context.Background(), job))

	require.NoError(t, f.service.process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	assert.Equal(t, 1, f.comparator.multiCalls)
	assert.Equal(t, 0, f.comparator.singleCalls)
	assert.Equal(t, models.ReportStatusFinished, f.store.status(t, job.ID))
}

func TestReportProcessComparisonSingleRun(t *testing.T) {
	f := newReportFixture(t)

	job := &models.ReportJob{
		Type:   models.ReportTypeComparison,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	require.NoError(t, f.store.Create(context.Background(), job))

	require.NoError(t, f.service.process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	assert.Equal(t, 1, f.comparator.singleCalls)
	assert.Equal(t, 0, f.comparator.multiCalls)
}

func TestReportProcessSkipsFinishedJob(t *testing.T) {
	f := newReportFixture(t)

	job := &models.ReportJob{
		Type:   models.ReportTypeSchedule,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusFinished,
	}
	require.NoError(t, f.store.Create(context.Background(), job))

	require.NoError(t, f.service.process(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))
	assert.Equal(t, 0, f.comparator.singleCalls)
}

func TestReportDownloadRequiresFinishedJob(t *testing.T) {
	f := newReportFixture(t)

	job := &models.ReportJob{
		Type:   models.ReportTypeSchedule,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusProcessing,
	}
	require.NoError(t, f.store.Create(context.Background(), job))

	_, _, err := f.service.Download(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}
