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

const interviewerColumns = "id, name, email, availability, active, created_at, updated_at"

// InterviewerRepository provides persistence for interview panel members.
type InterviewerRepository struct {
	db *sqlx.DB
}

// NewInterviewerRepository creates a new interviewer repository.
func NewInterviewerRepository(db *sqlx.DB) *InterviewerRepository {
	return &InterviewerRepository{db: db}
}

// List returns interviewers with optional filtering and pagination.
func (r *InterviewerRepository) List(ctx context.Context, filter models.InterviewerFilter) ([]models.Interviewer, int, error) {
	base := "FROM interviewers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"email":      true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", interviewerColumns, base, sortBy, order, size, offset)
	var interviewers []models.Interviewer
	if err := r.db.SelectContext(ctx, &interviewers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list interviewers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interviewers: %w", err)
	}

	return interviewers, total, nil
}

// ListActive returns active interviewers in creation order. The first two
// form the scheduling panel.
func (r *InterviewerRepository) ListActive(ctx context.Context) ([]models.Interviewer, error) {
	query := fmt.Sprintf("SELECT %s FROM interviewers WHERE active = TRUE ORDER BY created_at ASC", interviewerColumns)
	var interviewers []models.Interviewer
	if err := r.db.SelectContext(ctx, &interviewers, query); err != nil {
		return nil, fmt.Errorf("list active interviewers: %w", err)
	}
	return interviewers, nil
}

// FindByID loads an interviewer by id.
func (r *InterviewerRepository) FindByID(ctx context.Context, id string) (*models.Interviewer, error) {
	query := fmt.Sprintf("SELECT %s FROM interviewers WHERE id = $1", interviewerColumns)
	var interviewer models.Interviewer
	if err := r.db.GetContext(ctx, &interviewer, query, id); err != nil {
		return nil, err
	}
	return &interviewer, nil
}

// Create stores a new interviewer record.
func (r *InterviewerRepository) Create(ctx context.Context, interviewer *models.Interviewer) error {
	if interviewer.ID == "" {
		interviewer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if interviewer.CreatedAt.IsZero() {
		interviewer.CreatedAt = now
	}
	interviewer.UpdatedAt = now

	const query = `INSERT INTO interviewers (id, name, email, availability, active, created_at, updated_at) VALUES (:id, :name, :email, :availability, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, interviewer); err != nil {
		return fmt.Errorf("create interviewer: %w", err)
	}
	return nil
}

// Update modifies an interviewer record.
func (r *InterviewerRepository) Update(ctx context.Context, interviewer *models.Interviewer) error {
	interviewer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE interviewers SET name = :name, email = :email, availability = :availability, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, interviewer); err != nil {
		return fmt.Errorf("update interviewer: %w", err)
	}
	return nil
}

// Delete removes an interviewer by id.
func (r *InterviewerRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM interviewers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete interviewer: %w", err)
	}
	return nil
}
