package models

const (
	// AudienceAll admits every cohort year.
	AudienceAll = "all"
	// DepartmentAll admits every department.
	DepartmentAll = "ALL"
)

// Cohort holds a student's year-tag (e.g. "E-2") and department (e.g. "CSE").
type Cohort struct {
	Batch      string
	Department string
}

// AudienceFilter is the pair of target lists attached to requests and sessions.
type AudienceFilter struct {
	Audience    []string
	Departments []string
}

// WithDefaults replaces empty lists with their wildcards.
func (f AudienceFilter) WithDefaults() AudienceFilter {
	out := AudienceFilter{Audience: f.Audience, Departments: f.Departments}
	if len(out.Audience) == 0 {
		out.Audience = []string{AudienceAll}
	}
	if len(out.Departments) == 0 {
		out.Departments = []string{DepartmentAll}
	}
	return out
}
