package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

const interviewColumns = "id, candidate_id, interviewer_one_id, interviewer_two_id, day_number, slot_label, start_time, end_time, status, reschedule_count, last_rescheduled_from, last_rescheduled_to, last_rescheduled_at, reschedule_reason, created_at, updated_at"

const interviewDetailColumns = `i.id, i.candidate_id, i.interviewer_one_id, i.interviewer_two_id, i.day_number, i.slot_label, i.start_time, i.end_time, i.status, i.reschedule_count, i.last_rescheduled_from, i.last_rescheduled_to, i.last_rescheduled_at, i.reschedule_reason, i.created_at, i.updated_at, c.name AS candidate_name, c.email AS candidate_email, o1.name AS interviewer_one_name, o2.name AS interviewer_two_name`

const interviewDetailJoins = `FROM interviews i JOIN candidates c ON c.id = i.candidate_id JOIN interviewers o1 ON o1.id = i.interviewer_one_id JOIN interviewers o2 ON o2.id = i.interviewer_two_id`

// InterviewRepository provides persistence for interviews.
type InterviewRepository struct {
	db *sqlx.DB
}

// NewInterviewRepository creates a new interview repository.
func NewInterviewRepository(db *sqlx.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// List returns interview details with optional filtering and pagination.
func (r *InterviewRepository) List(ctx context.Context, filter models.InterviewFilter) ([]models.InterviewDetail, int, error) {
	base := interviewDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CandidateID != "" {
		conditions = append(conditions, fmt.Sprintf("i.candidate_id = $%d", len(args)+1))
		args = append(args, filter.CandidateID)
	}
	if filter.InterviewerID != "" {
		conditions = append(conditions, fmt.Sprintf("(i.interviewer_one_id = $%d OR i.interviewer_two_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.InterviewerID)
	}
	if filter.DayNumber != nil {
		conditions = append(conditions, fmt.Sprintf("i.day_number = $%d", len(args)+1))
		args = append(args, *filter.DayNumber)
	}
	if filter.FromDay != nil {
		conditions = append(conditions, fmt.Sprintf("i.day_number >= $%d", len(args)+1))
		args = append(args, *filter.FromDay)
	}
	if filter.ToDay != nil {
		conditions = append(conditions, fmt.Sprintf("i.day_number <= $%d", len(args)+1))
		args = append(args, *filter.ToDay)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_number": true,
		"start_time": true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_number"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY i.%s %s, i.start_time ASC LIMIT %d OFFSET %d", interviewDetailColumns, base, sortBy, order, size, offset)
	var interviews []models.InterviewDetail
	if err := r.db.SelectContext(ctx, &interviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list interviews: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interviews: %w", err)
	}

	return interviews, total, nil
}

// FindByID loads an interview by id.
func (r *InterviewRepository) FindByID(ctx context.Context, id string) (*models.Interview, error) {
	query := fmt.Sprintf("SELECT %s FROM interviews WHERE id = $1", interviewColumns)
	var interview models.Interview
	if err := r.db.GetContext(ctx, &interview, query, id); err != nil {
		return nil, err
	}
	return &interview, nil
}

// FindDetailByID loads an interview with the people involved.
func (r *InterviewRepository) FindDetailByID(ctx context.Context, id string) (*models.InterviewDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE i.id = $1", interviewDetailColumns, interviewDetailJoins)
	var detail models.InterviewDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByDay returns the interviews of one day ordered by start time.
func (r *InterviewRepository) ListByDay(ctx context.Context, dayNumber int) ([]models.InterviewDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE i.day_number = $1 ORDER BY i.start_time ASC", interviewDetailColumns, interviewDetailJoins)
	var interviews []models.InterviewDetail
	if err := r.db.SelectContext(ctx, &interviews, query, dayNumber); err != nil {
		return nil, fmt.Errorf("list interviews by day: %w", err)
	}
	return interviews, nil
}

// ListDetails returns every interview in the optional day range, ordered by
// day and start time. Intended for exports, so it does not paginate.
func (r *InterviewRepository) ListDetails(ctx context.Context, fromDay, toDay *int) ([]models.InterviewDetail, error) {
	base := interviewDetailJoins + " WHERE 1=1"
	var args []interface{}
	if fromDay != nil {
		base += fmt.Sprintf(" AND i.day_number >= $%d", len(args)+1)
		args = append(args, *fromDay)
	}
	if toDay != nil {
		base += fmt.Sprintf(" AND i.day_number <= $%d", len(args)+1)
		args = append(args, *toDay)
	}
	query := fmt.Sprintf("SELECT %s %s ORDER BY i.day_number ASC, i.start_time ASC", interviewDetailColumns, base)
	var interviews []models.InterviewDetail
	if err := r.db.SelectContext(ctx, &interviews, query, args...); err != nil {
		return nil, fmt.Errorf("list interview details: %w", err)
	}
	return interviews, nil
}

// ListFutureActive returns scheduled interviews after the given day in a
// deterministic order: earliest day first, then earliest start time.
func (r *InterviewRepository) ListFutureActive(ctx context.Context, afterDay int) ([]models.Interview, error) {
	query := fmt.Sprintf("SELECT %s FROM interviews WHERE day_number > $1 AND status = $2 ORDER BY day_number ASC, start_time ASC", interviewColumns)
	var interviews []models.Interview
	if err := r.db.SelectContext(ctx, &interviews, query, afterDay, models.InterviewStatusScheduled); err != nil {
		return nil, fmt.Errorf("list future interviews: %w", err)
	}
	return interviews, nil
}

// ListBookedSlots returns the occupied calendar cells after the given day for
// interviews that must not move (completed ones survive rebuilds).
func (r *InterviewRepository) ListBookedSlots(ctx context.Context, afterDay int) ([]models.BookedSlot, error) {
	const query = `SELECT day_number, slot_label FROM interviews WHERE day_number > $1 AND status = $2`
	var booked []models.BookedSlot
	if err := r.db.SelectContext(ctx, &booked, query, afterDay, models.InterviewStatusCompleted); err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	return booked, nil
}

// ListOccupiedSlots returns every calendar cell held by a scheduled or
// completed interview across the whole campaign. New scheduling runs seed the
// engine with these so a cell is never issued twice.
func (r *InterviewRepository) ListOccupiedSlots(ctx context.Context) ([]models.BookedSlot, error) {
	const query = `SELECT day_number, slot_label FROM interviews WHERE status <> $1`
	var occupied []models.BookedSlot
	if err := r.db.SelectContext(ctx, &occupied, query, models.InterviewStatusCancelled); err != nil {
		return nil, fmt.Errorf("list occupied slots: %w", err)
	}
	return occupied, nil
}

// SlotTaken reports whether an active interview already holds the cell.
func (r *InterviewRepository) SlotTaken(ctx context.Context, dayNumber int, slotLabel string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM interviews WHERE day_number = $1 AND slot_label = $2 AND status <> $3`, dayNumber, slotLabel, models.InterviewStatusCancelled); err != nil {
		return false, fmt.Errorf("check slot occupancy: %w", err)
	}
	return count > 0, nil
}

// CountActiveForCandidate returns how many non-cancelled interviews a
// candidate currently holds.
func (r *InterviewRepository) CountActiveForCandidate(ctx context.Context, candidateID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM interviews WHERE candidate_id = $1 AND status <> $2`, candidateID, models.InterviewStatusCancelled); err != nil {
		return 0, fmt.Errorf("count candidate interviews: %w", err)
	}
	return count, nil
}

// Create stores a new interview record.
func (r *InterviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	prepareInterview(interview)
	const query = `INSERT INTO interviews (id, candidate_id, interviewer_one_id, interviewer_two_id, day_number, slot_label, start_time, end_time, status, reschedule_count, last_rescheduled_from, last_rescheduled_to, last_rescheduled_at, reschedule_reason, created_at, updated_at) VALUES (:id, :candidate_id, :interviewer_one_id, :interviewer_two_id, :day_number, :slot_label, :start_time, :end_time, :status, :reschedule_count, :last_rescheduled_from, :last_rescheduled_to, :last_rescheduled_at, :reschedule_reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, interview); err != nil {
		return fmt.Errorf("create interview: %w", err)
	}
	return nil
}

// BulkCreateTx inserts many interviews using an existing transaction.
func (r *InterviewRepository) BulkCreateTx(ctx context.Context, tx *sqlx.Tx, interviews []models.Interview) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `INSERT INTO interviews (id, candidate_id, interviewer_one_id, interviewer_two_id, day_number, slot_label, start_time, end_time, status, reschedule_count, last_rescheduled_from, last_rescheduled_to, last_rescheduled_at, reschedule_reason, created_at, updated_at) VALUES (:id, :candidate_id, :interviewer_one_id, :interviewer_two_id, :day_number, :slot_label, :start_time, :end_time, :status, :reschedule_count, :last_rescheduled_from, :last_rescheduled_to, :last_rescheduled_at, :reschedule_reason, :created_at, :updated_at)`
	for i := range interviews {
		prepareInterview(&interviews[i])
		if _, err := sqlx.NamedExecContext(ctx, tx, query, &interviews[i]); err != nil {
			return fmt.Errorf("bulk insert interview: %w", err)
		}
	}
	return nil
}

// ReassignCandidateTx moves a different candidate into an interview slot and
// stamps the reschedule trail, including why the move happened. Used by swaps.
func (r *InterviewRepository) ReassignCandidateTx(ctx context.Context, tx *sqlx.Tx, interviewID, newCandidateID, fromCandidateID string, at time.Time, reason string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	const query = `UPDATE interviews SET candidate_id = $1, last_rescheduled_from = $2, last_rescheduled_to = $1, last_rescheduled_at = $3, reschedule_count = reschedule_count + 1, reschedule_reason = $4, updated_at = $3 WHERE id = $5`
	if _, err := tx.ExecContext(ctx, query, newCandidateID, fromCandidateID, at, reason, interviewID); err != nil {
		return fmt.Errorf("reassign interview candidate: %w", err)
	}
	return nil
}

// UpdateStatus changes an interview's lifecycle state.
func (r *InterviewRepository) UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE interviews SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update interview status: %w", err)
	}
	return nil
}

// UpdateStatusTx changes an interview's lifecycle state within a transaction.
func (r *InterviewRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.InterviewStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE interviews SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update interview status: %w", err)
	}
	return nil
}

// DeleteTx removes an interview within a transaction.
func (r *InterviewRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	return nil
}

// DeleteFutureActiveTx removes every scheduled interview after the given day
// and returns the ids of the displaced candidates. Completed interviews stay
// in place and cancelled ones are kept as records; both scopes mirror
// ListFutureActive so the rebuild pool matches exactly what was removed.
func (r *InterviewRepository) DeleteFutureActiveTx(ctx context.Context, tx *sqlx.Tx, afterDay int) ([]string, error) {
	if tx == nil {
		return nil, fmt.Errorf("nil transaction provided")
	}
	const query = `DELETE FROM interviews WHERE day_number > $1 AND status = $2 RETURNING candidate_id`
	var candidateIDs []string
	if err := tx.SelectContext(ctx, &candidateIDs, query, afterDay, models.InterviewStatusScheduled); err != nil {
		return nil, fmt.Errorf("delete future interviews: %w", err)
	}
	return candidateIDs, nil
}

// CountByStatus returns interview totals grouped by lifecycle state.
func (r *InterviewRepository) CountByStatus(ctx context.Context) (map[models.InterviewStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) AS total FROM interviews GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count interviews by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.InterviewStatus]int)
	for rows.Next() {
		var status models.InterviewStatus
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan interview status count: %w", err)
		}
		counts[status] = total
	}
	return counts, rows.Err()
}

// PerDayLoad returns active interview counts per day number.
func (r *InterviewRepository) PerDayLoad(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT day_number, COUNT(*) AS total FROM interviews WHERE status <> $1 GROUP BY day_number ORDER BY day_number ASC`, models.InterviewStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("load interviews per day: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	load := make(map[int]int)
	for rows.Next() {
		var day, total int
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("scan per day load: %w", err)
		}
		load[day] = total
	}
	return load, rows.Err()
}

// MaxDayNumber returns the last day holding an active interview.
func (r *InterviewRepository) MaxDayNumber(ctx context.Context) (int, error) {
	var max int
	if err := r.db.GetContext(ctx, &max, `SELECT COALESCE(MAX(day_number), 0) FROM interviews WHERE status <> $1`, models.InterviewStatusCancelled); err != nil {
		return 0, fmt.Errorf("max interview day: %w", err)
	}
	return max, nil
}

func prepareInterview(interview *models.Interview) {
	if interview.ID == "" {
		interview.ID = uuid.NewString()
	}
	if interview.Status == "" {
		interview.Status = models.InterviewStatusScheduled
	}
	now := time.Now().UTC()
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = now
	}
	interview.UpdatedAt = now
}
