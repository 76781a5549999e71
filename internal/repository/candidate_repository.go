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

const candidateColumns = "id, name, email, roll_number, department, year, availability, status, created_at, updated_at"

// CandidateRepository provides persistence for candidates.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new candidate repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// List returns candidates with optional filtering and pagination.
func (r *CandidateRepository) List(ctx context.Context, filter models.CandidateFilter) ([]models.Candidate, int, error) {
	base := "FROM candidates WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, *filter.Year)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR roll_number ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":        true,
		"roll_number": true,
		"department":  true,
		"status":      true,
		"created_at":  true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", candidateColumns, base, sortBy, order, size, offset)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	return candidates, total, nil
}

// ListAll returns every candidate ordered by roll number, for engine runs.
func (r *CandidateRepository) ListAll(ctx context.Context) ([]models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates ORDER BY roll_number ASC", candidateColumns)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("list all candidates: %w", err)
	}
	return candidates, nil
}

// ListByStatus returns candidates in a given pipeline state.
func (r *CandidateRepository) ListByStatus(ctx context.Context, status models.CandidateStatus) ([]models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE status = $1 ORDER BY roll_number ASC", candidateColumns)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, status); err != nil {
		return nil, fmt.Errorf("list candidates by status: %w", err)
	}
	return candidates, nil
}

// ListByIDs returns the candidates matching the given ids.
func (r *CandidateRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM candidates WHERE id IN (?)", candidateColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build candidates by ids: %w", err)
	}
	query = r.db.Rebind(query)
	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("list candidates by ids: %w", err)
	}
	return candidates, nil
}

// FindByID loads a candidate by id.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := fmt.Sprintf("SELECT %s FROM candidates WHERE id = $1", candidateColumns)
	var candidate models.Candidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// Create stores a new candidate record.
func (r *CandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if candidate.Status == "" {
		candidate.Status = models.CandidateStatusPending
	}
	now := time.Now().UTC()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	candidate.UpdatedAt = now

	const query = `INSERT INTO candidates (id, name, email, roll_number, department, year, availability, status, created_at, updated_at) VALUES (:id, :name, :email, :roll_number, :department, :year, :availability, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// Update modifies a candidate record.
func (r *CandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	candidate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE candidates SET name = :name, email = :email, roll_number = :roll_number, department = :department, year = :year, availability = :availability, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, candidate); err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return nil
}

// UpdateStatus changes a single candidate's pipeline state.
func (r *CandidateRepository) UpdateStatus(ctx context.Context, id string, status models.CandidateStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE candidates SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update candidate status: %w", err)
	}
	return nil
}

// UpdateStatusTx changes a candidate's pipeline state within a transaction.
func (r *CandidateRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status models.CandidateStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE candidates SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update candidate status: %w", err)
	}
	return nil
}

// BulkUpdateStatusTx moves many candidates to the same state in one statement.
func (r *CandidateRepository) BulkUpdateStatusTx(ctx context.Context, tx *sqlx.Tx, ids []string, status models.CandidateStatus) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE candidates SET status = ?, updated_at = ? WHERE id IN (?)`, status, time.Now().UTC(), ids)
	if err != nil {
		return fmt.Errorf("build bulk status update: %w", err)
	}
	query = tx.Rebind(query)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk update candidate status: %w", err)
	}
	return nil
}

// Delete removes a candidate by id.
func (r *CandidateRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}
	return nil
}

// CountByStatus returns candidate totals grouped by pipeline state.
func (r *CandidateRepository) CountByStatus(ctx context.Context) (map[models.CandidateStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) AS total FROM candidates GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count candidates by status: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.CandidateStatus]int)
	for rows.Next() {
		var status models.CandidateStatus
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan candidate status count: %w", err)
		}
		counts[status] = total
	}
	return counts, rows.Err()
}
