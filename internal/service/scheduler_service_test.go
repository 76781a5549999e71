package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/dto"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

// txProviderMock hands out real transactions backed by sqlmock so the
// Tx-taking repository methods receive a usable handle.
type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) *txProviderMock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { _ = sqlxDB.Close() })
	return &txProviderMock{db: sqlxDB, mock: mock}
}

func (p *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

// noTxProvider fails the test when a transaction is requested.
type noTxProvider struct {
	t *testing.T
}

func (p noTxProvider) BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error) {
	p.t.Fatal("unexpected transaction")
	return nil, nil
}

type schedulerCandidateStub struct {
	pending      []models.Candidate
	updatedIDs   []string
	updatedState models.CandidateStatus
}

func (s *schedulerCandidateStub) ListByStatus(ctx context.Context, status models.CandidateStatus) ([]models.Candidate, error) {
	return s.pending, nil
}

func (s *schedulerCandidateStub) BulkUpdateStatusTx(ctx context.Context, tx *sqlx.Tx, ids []string, status models.CandidateStatus) error {
	s.updatedIDs = append(s.updatedIDs, ids...)
	s.updatedState = status
	return nil
}

type panelStub struct {
	interviewers []models.Interviewer
}

func (s *panelStub) ListActive(ctx context.Context) ([]models.Interviewer, error) {
	return s.interviewers, nil
}

type interviewWriterStub struct {
	occupied []models.BookedSlot
	created  []models.Interview
}

func (s *interviewWriterStub) ListOccupiedSlots(ctx context.Context) ([]models.BookedSlot, error) {
	return s.occupied, nil
}

func (s *interviewWriterStub) BulkCreateTx(ctx context.Context, tx *sqlx.Tx, interviews []models.Interview) error {
	s.created = append(s.created, interviews...)
	return nil
}

type cacheStub struct {
	patterns []string
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type schedulerFixture struct {
	service    *SchedulerService
	candidates *schedulerCandidateStub
	writer     *interviewWriterStub
	cache      *cacheStub
	txMock     *txProviderMock
}

func newSchedulerFixture(t *testing.T, pending []models.Candidate, panel []models.Interviewer, tx txProvider) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		candidates: &schedulerCandidateStub{pending: pending},
		writer:     &interviewWriterStub{},
		cache:      &cacheStub{},
	}
	if tx == nil {
		f.txMock = newTxProviderMock(t)
		tx = f.txMock
	}
	f.service = NewSchedulerService(
		f.candidates,
		&panelStub{interviewers: panel},
		f.writer,
		tx,
		f.cache,
		nil,
		zap.NewNop(),
		SchedulerConfig{StartDate: campaignStart, HorizonDays: 30},
	)
	return f
}

func defaultPanel() []models.Interviewer {
	availability := models.Availability{
		"monday":  {"9:30AM-10:30AM", "10:30AM-11:30AM"},
		"tuesday": {"2PM-3:30PM"},
	}
	return []models.Interviewer{
		{ID: "iv-1", Name: "Interviewer One", Availability: availability, Active: true},
		{ID: "iv-2", Name: "Interviewer Two", Availability: availability, Active: true},
	}
}

func TestSchedulerGeneratePersistsSchedule(t *testing.T) {
	pending := []models.Candidate{
		engineCandidate("c-1", models.Availability{"monday": {"9:30AM-10:30AM"}}),
	}
	f := newSchedulerFixture(t, pending, defaultPanel(), nil)
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	resp, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyLeastAvailable, resp.Strategy)
	assert.Equal(t, 1, resp.Scheduled)
	assert.Empty(t, resp.Unscheduled)

	require.Len(t, f.writer.created, 1)
	created := f.writer.created[0]
	assert.Equal(t, "c-1", created.CandidateID)
	assert.Equal(t, "iv-1", created.InterviewerOneID)
	assert.Equal(t, "iv-2", created.InterviewerTwoID)
	assert.Equal(t, models.InterviewStatusScheduled, created.Status)

	assert.Equal(t, []string{"c-1"}, f.candidates.updatedIDs)
	assert.Equal(t, models.CandidateStatusScheduled, f.candidates.updatedState)
	assert.Contains(t, f.cache.patterns, "dashboard:*")
	assert.NoError(t, f.txMock.mock.ExpectationsWereMet())
}

func TestSchedulerGenerateDryRunDoesNotPersist(t *testing.T) {
	pending := []models.Candidate{
		engineCandidate("c-1", models.Availability{"monday": {"9:30AM-10:30AM"}}),
	}
	f := newSchedulerFixture(t, pending, defaultPanel(), noTxProvider{t: t})

	resp, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{DryRun: true})
	require.NoError(t, err)

	assert.True(t, resp.DryRun)
	assert.Equal(t, 1, resp.Scheduled)
	assert.Empty(t, f.writer.created)
	assert.Empty(t, f.candidates.updatedIDs)
	assert.Empty(t, f.cache.patterns)
}

func TestSchedulerGenerateRequiresTwoInterviewers(t *testing.T) {
	f := newSchedulerFixture(t, nil, defaultPanel()[:1], noTxProvider{t: t})

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestSchedulerGenerateRejectsUnknownStrategy(t *testing.T) {
	f := newSchedulerFixture(t, nil, defaultPanel(), noTxProvider{t: t})

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{Strategy: "alphabetical"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestSchedulerGenerateSkipsSlotsHeldByEarlierRuns(t *testing.T) {
	// A previous run already placed an interview at day 1 9:30AM. A new run
	// over a fresh pending candidate must not issue that cell again.
	pending := []models.Candidate{
		engineCandidate("c-2", models.Availability{"monday": {"9:30AM-10:30AM", "10:30AM-11:30AM"}}),
	}
	f := newSchedulerFixture(t, pending, defaultPanel(), nil)
	f.writer.occupied = []models.BookedSlot{{DayNumber: 1, SlotLabel: "9:30AM-10:30AM"}}
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	resp, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Scheduled)
	require.Len(t, f.writer.created, 1)
	created := f.writer.created[0]
	assert.Equal(t, 1, created.DayNumber)
	assert.Equal(t, "10:30AM-11:30AM", created.SlotLabel)
}

func TestSchedulerGenerateRecordsEngineRunMetric(t *testing.T) {
	pending := []models.Candidate{
		engineCandidate("c-1", models.Availability{"monday": {"9:30AM-10:30AM"}}),
	}
	f := newSchedulerFixture(t, pending, defaultPanel(), noTxProvider{t: t})
	metrics := NewMetricsService()
	f.service.WithMetrics(metrics)

	_, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{DryRun: true})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.engineRuns.WithLabelValues(models.StrategyLeastAvailable)), 0.0001)
}

func TestSchedulerGenerateReportsUnschedulable(t *testing.T) {
	pending := []models.Candidate{
		engineCandidate("c-none", models.Availability{"friday": {"7PM-8:30PM"}}),
	}
	f := newSchedulerFixture(t, pending, defaultPanel(), noTxProvider{t: t})

	resp, err := f.service.Generate(context.Background(), dto.GenerateScheduleRequest{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Scheduled)
	require.Len(t, resp.Unscheduled, 1)
	assert.Equal(t, ReasonNoCommonSlots, resp.Unscheduled[0].Reason)
}
