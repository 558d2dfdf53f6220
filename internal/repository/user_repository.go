package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, batch, department, active, created_at, updated_at`

// UserRepository provides database access for users and student cohorts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListIDsByRole returns identifiers of all active users holding the role.
func (r *UserRepository) ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	const query = `SELECT id FROM users WHERE role = $1 AND active = TRUE ORDER BY created_at`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, role); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return ids, nil
}

// ListStudentsByCohort narrows active students by the exact-match target lists. A list
// holding its wildcard (or empty) adds no condition. Callers must still apply the
// eligibility rule to the result.
func (r *UserRepository) ListStudentsByCohort(ctx context.Context, filter models.AudienceFilter) ([]models.StudentProfile, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, full_name, email, COALESCE(batch, '') AS batch, COALESCE(department, '') AS department
	FROM users WHERE role = $1 AND active = TRUE`)
	args := []interface{}{models.RoleStudent}

	if batches := prefilterValues(filter.Audience, models.AudienceAll); batches != nil {
		args = append(args, pq.Array(batches))
		builder.WriteString(fmt.Sprintf(" AND batch = ANY($%d)", len(args)))
	}
	if departments := prefilterValues(filter.Departments, models.DepartmentAll); departments != nil {
		args = append(args, pq.Array(departments))
		builder.WriteString(fmt.Sprintf(" AND department = ANY($%d)", len(args)))
	}
	builder.WriteString(" ORDER BY full_name, id")

	var students []models.StudentProfile
	if err := r.db.SelectContext(ctx, &students, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list students by cohort: %w", err)
	}
	return students, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, full_name, role, batch, department, active, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :full_name, :role, :batch, :department, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// prefilterValues returns nil when no SQL narrowing applies for the list.
func prefilterValues(values []string, wildcard string) []string {
	if len(values) == 0 {
		return nil
	}
	for _, v := range values {
		if v == wildcard {
			return nil
		}
	}
	return values
}
