package service

import "github.com/noah-isme/alumni-connect-api/internal/models"

// IsEligible reports whether a student's cohort is admitted by the target lists. The
// audience list must hold "all" or the student's batch, and the department list must hold
// "ALL" or the student's department. Matching is exact and empty lists act as wildcards.
func IsEligible(student models.Cohort, target models.AudienceFilter) bool {
	target = target.WithDefaults()
	return admits(target.Audience, models.AudienceAll, student.Batch) &&
		admits(target.Departments, models.DepartmentAll, student.Department)
}

// FilterEligible returns the students admitted by the target, preserving order. It is
// defined only in terms of IsEligible so bulk and single checks cannot diverge.
func FilterEligible(students []models.StudentProfile, target models.AudienceFilter) []models.StudentProfile {
	out := make([]models.StudentProfile, 0, len(students))
	for _, student := range students {
		if IsEligible(student.Cohort(), target) {
			out = append(out, student)
		}
	}
	return out
}

func admits(list []string, wildcard, value string) bool {
	for _, entry := range list {
		if entry == wildcard {
			return true
		}
		if value != "" && entry == value {
			return true
		}
	}
	return false
}

func studentIDs(students []models.StudentProfile) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
