package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTimeDimension(t *testing.T) {
	dim := NewTimeDimension(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2025, dim.Year)
	assert.Equal(t, 1, dim.Quarter)
	assert.Equal(t, 3, dim.Month)
	assert.Equal(t, "2025-03", dim.YearMonth)
	assert.Equal(t, "2025-Q1", dim.YearQuarter)
	assert.Equal(t, "Mars 2025", dim.MonthName)
	assert.Equal(t, "Q1 2025", dim.QuarterName)
}

func TestNewTimeDimensionQuarterBoundaries(t *testing.T) {
	cases := []struct {
		month   time.Month
		quarter int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.June, 2},
		{time.July, 3},
		{time.September, 3},
		{time.October, 4},
		{time.December, 4},
	}

	for _, tc := range cases {
		dim := NewTimeDimension(time.Date(2025, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.quarter, dim.Quarter, "месяц %s", tc.month)
	}
}

func TestNewTimeDimensionFrenchLabels(t *testing.T) {
	dim := NewTimeDimension(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Janvier 2025", dim.MonthName)

	dim = NewTimeDimension(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Décembre 2025", dim.MonthName)
}

func TestBuildProjectTypeKey(t *testing.T) {
	key := BuildProjectTypeKey(ProjectTypeForfait, "Data", ProjectStatusActive, false)
	assert.Equal(t, "forfait_Data_active_external", key)

	key = BuildProjectTypeKey(ProjectTypeRegie, "", ProjectStatusCompleted, true)
	assert.Equal(t, "regie_null_completed_internal", key)
}

func TestBuildProjectTypeKeyDeterministic(t *testing.T) {
	first := BuildProjectTypeKey(ProjectTypeForfait, "Web", ProjectStatusActive, false)
	second := BuildProjectTypeKey(ProjectTypeForfait, "Web", ProjectStatusActive, false)
	assert.Equal(t, first, second)
}

func TestBuildContributorKey(t *testing.T) {
	key := BuildContributorKey(42, "Alice Martin", RoleProjectManager, true)

	assert.Contains(t, key, "42_project_manager_active_")
	// Хеш имени дает 32 шестнадцатеричных символа
	assert.Len(t, key, len("42_project_manager_active_")+32)
}

func TestBuildContributorKeyDistinguishesRoles(t *testing.T) {
	manager := BuildContributorKey(42, "Alice Martin", RoleProjectManager, true)
	sales := BuildContributorKey(42, "Alice Martin", RoleSalesPerson, true)
	assert.NotEqual(t, manager, sales)
}

func TestBuildContributorKeyDistinguishesNameSnapshots(t *testing.T) {
	before := BuildContributorKey(42, "Alice Martin", RoleProjectManager, true)
	after := BuildContributorKey(42, "Alice Durand", RoleProjectManager, true)
	assert.NotEqual(t, before, after)
}

func TestNewContributorDimensionFallsBackToEmail(t *testing.T) {
	dim := NewContributorDimension(7, "", "alice@example.com", RoleSalesPerson)
	assert.Equal(t, "alice@example.com", dim.Name)
	assert.True(t, dim.IsActive)
}
