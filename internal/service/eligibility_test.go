package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func TestIsEligible(t *testing.T) {
	cases := []struct {
		name   string
		cohort models.Cohort
		target models.AudienceFilter
		want   bool
	}{
		{"wildcards", models.Cohort{Batch: "E-2", Department: "CSE"}, models.AudienceFilter{Audience: []string{"all"}, Departments: []string{"ALL"}}, true},
		{"empty lists default to wildcards", models.Cohort{Batch: "E-1", Department: "ME"}, models.AudienceFilter{}, true},
		{"exact match", models.Cohort{Batch: "E-2", Department: "CSE"}, models.AudienceFilter{Audience: []string{"E-2"}, Departments: []string{"CSE"}}, true},
		{"batch mismatch", models.Cohort{Batch: "E-3", Department: "CSE"}, models.AudienceFilter{Audience: []string{"E-2"}, Departments: []string{"CSE"}}, false},
		{"department mismatch", models.Cohort{Batch: "E-2", Department: "ECE"}, models.AudienceFilter{Audience: []string{"E-2"}, Departments: []string{"CSE"}}, false},
		{"wildcard case is exact", models.Cohort{Batch: "E-2", Department: "CSE"}, models.AudienceFilter{Audience: []string{"ALL"}, Departments: []string{"all"}}, false},
		{"no substring match", models.Cohort{Batch: "E-2", Department: "CS"}, models.AudienceFilter{Audience: []string{"E-2"}, Departments: []string{"CSE"}}, false},
		{"missing cohort only matches wildcards", models.Cohort{}, models.AudienceFilter{Audience: []string{""}, Departments: []string{"ALL"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsEligible(tc.cohort, tc.target))
		})
	}
}

func TestFilterEligibleMatchesSingleCheck(t *testing.T) {
	batches := []string{"E-1", "E-2", "E-3", ""}
	departments := []string{"CSE", "ECE", "ME", ""}
	var students []models.StudentProfile
	for _, b := range batches {
		for _, d := range departments {
			students = append(students, models.StudentProfile{ID: fmt.Sprintf("%s/%s", b, d), Batch: b, Department: d})
		}
	}
	targets := []models.AudienceFilter{
		{},
		{Audience: []string{"E-2"}, Departments: []string{"CSE"}},
		{Audience: []string{"E-1", "E-3"}},
		{Departments: []string{"ECE", "ALL"}},
		{Audience: []string{"all", "E-9"}, Departments: []string{"ME"}},
		{Audience: []string{"nobody"}},
	}

	for _, target := range targets {
		bulk := map[string]bool{}
		for _, s := range FilterEligible(students, target) {
			bulk[s.ID] = true
		}
		for _, s := range students {
			assert.Equal(t, IsEligible(s.Cohort(), target), bulk[s.ID], "student %s target %+v", s.ID, target)
		}
	}
}

func TestFilterEligibleScenario(t *testing.T) {
	a := models.StudentProfile{ID: "A", Batch: "E-2", Department: "CSE"}
	b := models.StudentProfile{ID: "B", Batch: "E-3", Department: "CSE"}
	got := FilterEligible([]models.StudentProfile{a, b}, models.AudienceFilter{Audience: []string{"E-2"}, Departments: []string{"CSE"}})
	assert.Equal(t, []models.StudentProfile{a}, got)
}
