package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

func interviewRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "candidate_id", "interviewer_one_id", "interviewer_two_id", "day_number", "slot_label", "start_time", "end_time", "status", "reschedule_count", "last_rescheduled_from", "last_rescheduled_to", "last_rescheduled_at", "reschedule_reason", "created_at", "updated_at"}).
		AddRow("iv-1", "c-1", "o-1", "o-2", 2, "9:30AM-10:30AM", now, now.Add(time.Hour), "SCHEDULED", 0, nil, nil, nil, nil, now, now)
}

func TestInterviewRepositoryListFutureActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT id, candidate_id, .+ FROM interviews WHERE day_number > \\$1 AND status = \\$2 ORDER BY day_number ASC, start_time ASC").
		WithArgs(5, models.InterviewStatusScheduled).
		WillReturnRows(interviewRows())

	interviews, err := repo.ListFutureActive(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, interviews, 1)
	assert.Equal(t, "iv-1", interviews[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewRepositoryListBookedSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT day_number, slot_label FROM interviews WHERE day_number > \\$1 AND status = \\$2").
		WithArgs(5, models.InterviewStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"day_number", "slot_label"}).AddRow(6, "9:30AM-10:30AM"))

	booked, err := repo.ListBookedSlots(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, 6, booked[0].DayNumber)
}

func TestInterviewRepositoryListOccupiedSlots(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT day_number, slot_label FROM interviews WHERE status <> \\$1").
		WithArgs(models.InterviewStatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"day_number", "slot_label"}).
			AddRow(1, "9:30AM-10:30AM").
			AddRow(2, "2PM-3:30PM"))

	occupied, err := repo.ListOccupiedSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, occupied, 2)
	assert.Equal(t, 1, occupied[0].DayNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewRepositorySlotTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM interviews WHERE day_number = \\$1 AND slot_label = \\$2 AND status <> \\$3").
		WithArgs(3, "2PM-3:30PM", models.InterviewStatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.SlotTaken(context.Background(), 3, "2PM-3:30PM")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestInterviewRepositoryCountActiveForCandidate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM interviews WHERE candidate_id = \\$1 AND status <> \\$2").
		WithArgs("c-1", models.InterviewStatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountActiveForCandidate(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInterviewRepositoryReassignCandidateTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE interviews SET candidate_id = \\$1, last_rescheduled_from = \\$2, last_rescheduled_to = \\$1, last_rescheduled_at = \\$3, reschedule_count = reschedule_count \\+ 1, reschedule_reason = \\$4, updated_at = \\$3 WHERE id = \\$5").
		WithArgs("c-2", "c-1", at, "candidate unavailable", "iv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ReassignCandidateTx(context.Background(), tx, "iv-1", "c-2", "c-1", at, "candidate unavailable"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewRepositoryDeleteFutureActiveTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM interviews WHERE day_number > \\$1 AND status = \\$2 RETURNING candidate_id").
		WithArgs(5, models.InterviewStatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"candidate_id"}).AddRow("c-1").AddRow("c-2"))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	displaced, err := repo.DeleteFutureActiveTx(context.Background(), tx, 5)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, []string{"c-1", "c-2"}, displaced)
}

func TestInterviewRepositoryBulkCreateTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO interviews").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	interviews := []models.Interview{{
		CandidateID:      "c-1",
		InterviewerOneID: "o-1",
		InterviewerTwoID: "o-2",
		DayNumber:        1,
		SlotLabel:        "9:30AM-10:30AM",
		StartTime:        time.Now().UTC(),
		EndTime:          time.Now().UTC().Add(time.Hour),
	}}
	require.NoError(t, repo.BulkCreateTx(context.Background(), tx, interviews))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewRepositoryMaxDayNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(day_number\\), 0\\) FROM interviews WHERE status <> \\$1").
		WithArgs(models.InterviewStatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))

	max, err := repo.MaxDayNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, max)
}

func TestInterviewRepositoryListDetailsWithRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInterviewRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "candidate_id", "interviewer_one_id", "interviewer_two_id", "day_number", "slot_label", "start_time", "end_time", "status", "reschedule_count", "last_rescheduled_from", "last_rescheduled_to", "last_rescheduled_at", "reschedule_reason", "created_at", "updated_at", "candidate_name", "candidate_email", "interviewer_one_name", "interviewer_two_name"}).
		AddRow("iv-1", "c-1", "o-1", "o-2", 2, "9:30AM-10:30AM", now, now.Add(time.Hour), "SCHEDULED", 0, nil, nil, nil, nil, now, now, "Alice", "alice@example.com", "One", "Two")

	from, to := 1, 5
	mock.ExpectQuery("SELECT i\\.id, .+ FROM interviews i JOIN candidates c .+ WHERE 1=1 AND i\\.day_number >= \\$1 AND i\\.day_number <= \\$2 ORDER BY i\\.day_number ASC, i\\.start_time ASC").
		WithArgs(from, to).
		WillReturnRows(rows)

	details, err := repo.ListDetails(context.Background(), &from, &to)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Alice", details[0].CandidateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
