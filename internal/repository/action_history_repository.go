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

const actionHistoryColumns = "id, interview_id, action, before_state, after_state, actor_id, undone, created_at"

// ActionHistoryRepository provides persistence for the interview action trail.
type ActionHistoryRepository struct {
	db *sqlx.DB
}

// NewActionHistoryRepository creates a new action history repository.
func NewActionHistoryRepository(db *sqlx.DB) *ActionHistoryRepository {
	return &ActionHistoryRepository{db: db}
}

// List returns history entries newest first.
func (r *ActionHistoryRepository) List(ctx context.Context, filter models.ActionHistoryFilter) ([]models.ActionHistory, int, error) {
	base := "FROM action_history WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InterviewID != "" {
		conditions = append(conditions, fmt.Sprintf("interview_id = $%d", len(args)+1))
		args = append(args, filter.InterviewID)
	}
	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", actionHistoryColumns, base, size, offset)
	var entries []models.ActionHistory
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list action history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count action history: %w", err)
	}

	return entries, total, nil
}

// FindByID loads a history entry by id.
func (r *ActionHistoryRepository) FindByID(ctx context.Context, id string) (*models.ActionHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM action_history WHERE id = $1", actionHistoryColumns)
	var entry models.ActionHistory
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LatestForInterview returns the most recent non-undone entry of a given
// action for an interview, if any.
func (r *ActionHistoryRepository) LatestForInterview(ctx context.Context, interviewID, action string) (*models.ActionHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM action_history WHERE interview_id = $1 AND action = $2 AND undone = FALSE ORDER BY created_at DESC LIMIT 1", actionHistoryColumns)
	var entry models.ActionHistory
	if err := r.db.GetContext(ctx, &entry, query, interviewID, action); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Record stores a new history entry.
func (r *ActionHistoryRepository) Record(ctx context.Context, entry *models.ActionHistory) error {
	prepareActionHistory(entry)
	const query = `INSERT INTO action_history (id, interview_id, action, before_state, after_state, actor_id, undone, created_at) VALUES (:id, :interview_id, :action, :before_state, :after_state, :actor_id, :undone, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("record action history: %w", err)
	}
	return nil
}

// RecordTx stores a new history entry within a transaction.
func (r *ActionHistoryRepository) RecordTx(ctx context.Context, tx *sqlx.Tx, entry *models.ActionHistory) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	prepareActionHistory(entry)
	const query = `INSERT INTO action_history (id, interview_id, action, before_state, after_state, actor_id, undone, created_at) VALUES (:id, :interview_id, :action, :before_state, :after_state, :actor_id, :undone, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, query, entry); err != nil {
		return fmt.Errorf("record action history: %w", err)
	}
	return nil
}

// MarkUndoneTx flags a history entry as undone within a transaction.
func (r *ActionHistoryRepository) MarkUndoneTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE action_history SET undone = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark action undone: %w", err)
	}
	return nil
}

func prepareActionHistory(entry *models.ActionHistory) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
}
