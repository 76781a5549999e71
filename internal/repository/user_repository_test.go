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

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("u-1", "admin@example.com", "hash", "Admin User", "ADMIN", true, nil, now, now)
}

func TestUserRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT id, email, .+ FROM users WHERE 1=1 ORDER BY created_at DESC LIMIT 20 OFFSET 0").
		WillReturnRows(userRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE 1=1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersAndPages(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleCoordinator
	active := true
	mock.ExpectQuery("SELECT id, email, .+ FROM users WHERE 1=1 AND role = \\$1 AND active = \\$2 AND \\(LOWER\\(email\\) LIKE \\$3 OR LOWER\\(full_name\\) LIKE \\$3\\) ORDER BY created_at DESC LIMIT 10 OFFSET 10").
		WithArgs(role, active, "%ann%").
		WillReturnRows(userRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE 1=1 AND role = \\$1 AND active = \\$2").
		WithArgs(role, active, "%ann%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	users, total, err := repo.List(context.Background(), models.UserFilter{
		Role:     &role,
		Active:   &active,
		Search:   "Ann",
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
