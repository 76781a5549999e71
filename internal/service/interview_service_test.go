package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/interview-scheduler-api/pkg/errors"
)

type interviewStatusChange struct {
	id     string
	status models.InterviewStatus
}

type interviewStoreStub struct {
	byID        map[string]*models.Interview
	byDay       []models.InterviewDetail
	byDayCalls  int
	counts      map[models.InterviewStatus]int
	load        map[int]int
	maxDay      int
	slotTaken   bool
	activeCount int

	statusUpdates []interviewStatusChange
}

func (s *interviewStoreStub) List(ctx context.Context, filter models.InterviewFilter) ([]models.InterviewDetail, int, error) {
	return s.byDay, len(s.byDay), nil
}

func (s *interviewStoreStub) FindByID(ctx context.Context, id string) (*models.Interview, error) {
	interview, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *interview
	return &copied, nil
}

func (s *interviewStoreStub) FindDetailByID(ctx context.Context, id string) (*models.InterviewDetail, error) {
	interview, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.InterviewDetail{Interview: *interview}, nil
}

func (s *interviewStoreStub) ListByDay(ctx context.Context, dayNumber int) ([]models.InterviewDetail, error) {
	s.byDayCalls++
	return s.byDay, nil
}

func (s *interviewStoreStub) SlotTaken(ctx context.Context, dayNumber int, slotLabel string) (bool, error) {
	return s.slotTaken, nil
}

func (s *interviewStoreStub) CountActiveForCandidate(ctx context.Context, candidateID string) (int, error) {
	return s.activeCount, nil
}

func (s *interviewStoreStub) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.InterviewStatus) error {
	s.statusUpdates = append(s.statusUpdates, interviewStatusChange{id: id, status: status})
	return nil
}

func (s *interviewStoreStub) CountByStatus(ctx context.Context) (map[models.InterviewStatus]int, error) {
	return s.counts, nil
}

func (s *interviewStoreStub) PerDayLoad(ctx context.Context) (map[int]int, error) {
	return s.load, nil
}

func (s *interviewStoreStub) MaxDayNumber(ctx context.Context) (int, error) {
	return s.maxDay, nil
}

type candidateStatusStub struct {
	updates []statusChange
	counts  map[models.CandidateStatus]int
}

func (s *candidateStatusStub) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.CandidateStatus) error {
	s.updates = append(s.updates, statusChange{ids: []string{id}, status: status})
	return nil
}

func (s *candidateStatusStub) CountByStatus(ctx context.Context) (map[models.CandidateStatus]int, error) {
	return s.counts, nil
}

type actionHistoryStub struct {
	latest    *models.ActionHistory
	latestErr error

	recorded []*models.ActionHistory
	undone   []string
}

func (s *actionHistoryStub) List(ctx context.Context, filter models.ActionHistoryFilter) ([]models.ActionHistory, int, error) {
	return nil, 0, nil
}

func (s *actionHistoryStub) LatestForInterview(ctx context.Context, interviewID, action string) (*models.ActionHistory, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	return s.latest, nil
}

func (s *actionHistoryStub) RecordTx(ctx context.Context, tx *sqlx.Tx, entry *models.ActionHistory) error {
	s.recorded = append(s.recorded, entry)
	return nil
}

func (s *actionHistoryStub) MarkUndoneTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	s.undone = append(s.undone, id)
	return nil
}

// memoryCache is a map-backed dashboardCache; values round-trip through JSON
// the same way the Redis cache serialises them.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range c.entries {
		delete(c.entries, key)
	}
	return nil
}

type interviewFixture struct {
	service    *InterviewService
	interviews *interviewStoreStub
	candidates *candidateStatusStub
	history    *actionHistoryStub
	cache      *memoryCache
	txMock     *txProviderMock
}

func newInterviewFixture(t *testing.T, interviews *interviewStoreStub, tx txProvider) *interviewFixture {
	t.Helper()
	f := &interviewFixture{
		interviews: interviews,
		candidates: &candidateStatusStub{},
		history:    &actionHistoryStub{},
		cache:      newMemoryCache(),
	}
	if tx == nil {
		f.txMock = newTxProviderMock(t)
		tx = f.txMock
	}
	f.service = NewInterviewService(
		f.interviews,
		f.candidates,
		f.history,
		tx,
		f.cache,
		zap.NewNop(),
		InterviewConfig{StartDate: campaignStart, CacheTTL: time.Minute},
	).WithClock(func() time.Time { return rescheduleNow })
	return f
}

func TestCompleteTransitionsInterviewAndCandidate(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, nil)
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	actor := "user-1"
	require.NoError(t, f.service.Complete(context.Background(), "iv-1", &actor))

	require.Equal(t, []interviewStatusChange{{id: "iv-1", status: models.InterviewStatusCompleted}}, f.interviews.statusUpdates)
	require.Equal(t, []statusChange{{ids: []string{"c-1"}, status: models.CandidateStatusCompleted}}, f.candidates.updates)

	require.Len(t, f.history.recorded, 1)
	entry := f.history.recorded[0]
	assert.Equal(t, models.ActionComplete, entry.Action)
	assert.Equal(t, &actor, entry.ActorID)
	assert.Equal(t, models.InterviewStatusScheduled, entry.Before.Status)
	assert.Equal(t, models.InterviewStatusCompleted, entry.After.Status)
	assert.NoError(t, f.txMock.mock.ExpectationsWereMet())
}

func TestCompleteIsRejectedTwice(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCompleted
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, noTxProvider{t: t})

	err := f.service.Complete(context.Background(), "iv-1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyCompleted))
}

func TestCancelReturnsCandidateToPending(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, nil)
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	require.NoError(t, f.service.Cancel(context.Background(), "iv-1", nil))

	require.Equal(t, []interviewStatusChange{{id: "iv-1", status: models.InterviewStatusCancelled}}, f.interviews.statusUpdates)
	require.Equal(t, []statusChange{{ids: []string{"c-1"}, status: models.CandidateStatusPending}}, f.candidates.updates)
	require.Len(t, f.history.recorded, 1)
	assert.Equal(t, models.ActionCancel, f.history.recorded[0].Action)
}

func TestReactivateRequiresCancelledInterview(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, noTxProvider{t: t})

	err := f.service.Reactivate(context.Background(), "iv-1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestReactivateRestoresCancelledInterview(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCancelled
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, nil)
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	require.NoError(t, f.service.Reactivate(context.Background(), "iv-1", nil))

	require.Equal(t, []interviewStatusChange{{id: "iv-1", status: models.InterviewStatusScheduled}}, f.interviews.statusUpdates)
	require.Equal(t, []statusChange{{ids: []string{"c-1"}, status: models.CandidateStatusScheduled}}, f.candidates.updates)
	require.Len(t, f.history.recorded, 1)
	assert.Equal(t, models.ActionReactivate, f.history.recorded[0].Action)
}

func TestReactivateRejectsOccupiedSlot(t *testing.T) {
	// Another interview claimed the cell while this one sat cancelled.
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCancelled
	f := newInterviewFixture(t, &interviewStoreStub{
		byID:      map[string]*models.Interview{"iv-1": interview},
		slotTaken: true,
	}, noTxProvider{t: t})

	err := f.service.Reactivate(context.Background(), "iv-1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, f.interviews.statusUpdates)
}

func TestReactivateRejectsBusyCandidate(t *testing.T) {
	// The candidate was rescheduled elsewhere after the cancellation.
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCancelled
	f := newInterviewFixture(t, &interviewStoreStub{
		byID:        map[string]*models.Interview{"iv-1": interview},
		activeCount: 1,
	}, noTxProvider{t: t})

	err := f.service.Reactivate(context.Background(), "iv-1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, f.interviews.statusUpdates)
}

func TestUndoCompleteRestoresRecordedStatus(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCompleted
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, nil)
	f.history.latest = &models.ActionHistory{
		ID:          "h-1",
		InterviewID: "iv-1",
		Action:      models.ActionComplete,
		Before:      models.ActionSnapshot{Status: models.InterviewStatusScheduled},
		After:       models.ActionSnapshot{Status: models.InterviewStatusCompleted},
	}
	f.txMock.mock.ExpectBegin()
	f.txMock.mock.ExpectCommit()

	require.NoError(t, f.service.UndoComplete(context.Background(), "iv-1", nil))

	require.Equal(t, []interviewStatusChange{{id: "iv-1", status: models.InterviewStatusScheduled}}, f.interviews.statusUpdates)
	require.Equal(t, []statusChange{{ids: []string{"c-1"}, status: models.CandidateStatusScheduled}}, f.candidates.updates)
	assert.Equal(t, []string{"h-1"}, f.history.undone)
	assert.NoError(t, f.txMock.mock.ExpectationsWereMet())
}

func TestUndoCompleteWithoutHistoryEntry(t *testing.T) {
	interview := scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")
	interview.Status = models.InterviewStatusCompleted
	f := newInterviewFixture(t, &interviewStoreStub{byID: map[string]*models.Interview{"iv-1": interview}}, noTxProvider{t: t})
	f.history.latestErr = sql.ErrNoRows

	err := f.service.UndoComplete(context.Background(), "iv-1", nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestTodayComputesDayAndCaches(t *testing.T) {
	// The fixture clock is Tuesday 2026-03-03, campaign day 2.
	detail := models.InterviewDetail{Interview: *scheduledInterview("iv-1", "c-1", 2, "9:30AM-10:30AM")}
	f := newInterviewFixture(t, &interviewStoreStub{byDay: []models.InterviewDetail{detail}}, noTxProvider{t: t})

	resp, err := f.service.Today(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.DayNumber)
	assert.Equal(t, 1, resp.WeekNumber)
	assert.Equal(t, "tuesday", resp.Weekday)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), resp.Date)
	require.Len(t, resp.Interviews, 1)

	// Second call is served from the cache.
	_, err = f.service.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.interviews.byDayCalls)
}

func TestStatsSummarisesPipeline(t *testing.T) {
	f := newInterviewFixture(t, &interviewStoreStub{
		counts: map[models.InterviewStatus]int{
			models.InterviewStatusScheduled: 3,
			models.InterviewStatusCompleted: 1,
			models.InterviewStatusCancelled: 1,
		},
		load:   map[int]int{1: 2, 2: 3},
		maxDay: 7,
	}, noTxProvider{t: t})
	f.candidates.counts = map[models.CandidateStatus]int{
		models.CandidateStatusPending:   2,
		models.CandidateStatusScheduled: 3,
		models.CandidateStatusCompleted: 1,
	}

	stats, err := f.service.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalCandidates)
	assert.Equal(t, 3, stats.Scheduled)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 7, stats.DaysUsed)
	assert.Equal(t, 2, stats.WeeksUsed)
	assert.Equal(t, map[string]int{"day1": 2, "day2": 3}, stats.PerDayLoad)
}
