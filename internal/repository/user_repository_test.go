package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "full_name", "role", "batch", "department", "active", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "student@example.com", "hash", "Student", string(models.RoleStudent), "E-2", "CSE", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = $1 LIMIT 1")).
		WithArgs("student@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " Student@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", user.Email)
	assert.Equal(t, models.Cohort{Batch: "E-2", Department: "CSE"}, user.Cohort())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIDsByRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE role = $1 AND active = TRUE")).
		WithArgs(string(models.RoleAdmin)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("admin-1").AddRow("admin-2"))

	ids, err := repo.ListIDsByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin-1", "admin-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudentsByCohortSkipsWildcardLists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "batch", "department"}).
		AddRow("s1", "Ana", "ana@example.com", "E-2", "CSE")
	mock.ExpectQuery(`FROM users WHERE role = \$1 AND active = TRUE AND department = ANY\(\$2\) ORDER BY full_name, id`).
		WithArgs(string(models.RoleStudent), sqlmock.AnyArg()).
		WillReturnRows(rows)

	students, err := repo.ListStudentsByCohort(context.Background(), models.AudienceFilter{
		Audience:    []string{"E-1", models.AudienceAll},
		Departments: []string{"CSE"},
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudentsByCohortNarrowsBothLists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`AND batch = ANY\(\$2\) AND department = ANY\(\$3\)`).
		WithArgs(string(models.RoleStudent), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "batch", "department"}))

	students, err := repo.ListStudentsByCohort(context.Background(), models.AudienceFilter{
		Audience:    []string{"E-2"},
		Departments: []string{"ECE"},
	})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrefilterValues(t *testing.T) {
	assert.Nil(t, prefilterValues(nil, models.AudienceAll))
	assert.Nil(t, prefilterValues([]string{"E-1", "all"}, models.AudienceAll))
	// wildcard match is exact; "All" is an ordinary value
	assert.Equal(t, []string{"All"}, prefilterValues([]string{"All"}, models.AudienceAll))
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionSessionRequestApprove, Resource: "session_request"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserNormalisesEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	batch, dept := "E-2", "CSE"
	user := &models.User{
		Email:        " Ana@Example.edu ",
		PasswordHash: "hash",
		FullName:     "Ana",
		Role:         models.RoleStudent,
		Batch:        &batch,
		Department:   &dept,
		Active:       true,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, email, password_hash")).
		WithArgs(sqlmock.AnyArg(), "ana@example.edu", "hash", "Ana", models.RoleStudent, &batch, &dept, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserWrapsError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(sql.ErrConnDone)

	err := repo.Create(context.Background(), &models.User{Email: "a@example.edu", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
