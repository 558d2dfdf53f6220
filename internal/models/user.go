package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleFaculty UserRole = "FACULTY"
	RoleAlumni  UserRole = "ALUMNI"
	RoleStudent UserRole = "STUDENT"
)

// ProposerRoles may submit session requests.
var ProposerRoles = []UserRole{RoleFaculty, RoleAlumni}

// IsProposer reports whether the role may propose sessions.
func (r UserRole) IsProposer() bool {
	for _, role := range ProposerRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	Role         UserRole  `db:"role" json:"role"`
	Batch        *string   `db:"batch" json:"batch,omitempty"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Cohort returns the eligibility attributes of the user.
func (u User) Cohort() Cohort {
	return Cohort{Batch: deref(u.Batch), Department: deref(u.Department)}
}

// StudentProfile is the projection used by eligibility queries and attendance reports.
type StudentProfile struct {
	ID         string `db:"id" json:"id"`
	FullName   string `db:"full_name" json:"fullName"`
	Email      string `db:"email" json:"email"`
	Batch      string `db:"batch" json:"batch"`
	Department string `db:"department" json:"department"`
}

// Cohort returns the eligibility attributes of the student.
func (p StudentProfile) Cohort() Cohort {
	return Cohort{Batch: p.Batch, Department: p.Department}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
