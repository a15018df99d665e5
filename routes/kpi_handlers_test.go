// routes/kpi_handlers_test.go
package routes

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_erp/analytics/models"
)

func TestParseFilters(t *testing.T) {
	values := url.Values{
		"project_type":       {"forfait"},
		"project_manager_id": {"7"},
		"technology_id":      {"3"},
	}

	filters, err := parseFilters(values)

	require.NoError(t, err)
	assert.Equal(t, models.KPIFilters{
		ProjectType:      "forfait",
		ProjectManagerID: 7,
		TechnologyID:     3,
	}, filters)
}

func TestParseFiltersEmpty(t *testing.T) {
	filters, err := parseFilters(url.Values{})

	require.NoError(t, err)
	assert.True(t, filters.IsEmpty())
}

func TestParseFiltersInvalidID(t *testing.T) {
	_, err := parseFilters(url.Values{"sales_person_id": {"семь"}})
	assert.Error(t, err)
}

func TestParsePeriodDefaultsToMonth(t *testing.T) {
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

	start, end, err := parsePeriod(url.Values{}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriodToday(t *testing.T) {
	now := time.Date(2025, time.March, 14, 23, 0, 0, 0, time.UTC)

	start, end, err := parsePeriod(url.Values{"period": {"today"}}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, start, end)
}

func TestParsePeriodWeekStartsMonday(t *testing.T) {
	// 14 марта 2025 — пятница
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

	start, end, err := parsePeriod(url.Values{"period": {"week"}}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestParsePeriodWeekOnSunday(t *testing.T) {
	// Воскресенье относится к завершающейся неделе
	now := time.Date(2025, time.March, 16, 12, 0, 0, 0, time.UTC)

	start, _, err := parsePeriod(url.Values{"period": {"week"}}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), start)
}

func TestParsePeriodQuarter(t *testing.T) {
	now := time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC)

	start, end, err := parsePeriod(url.Values{"period": {"quarter"}}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriodYear(t *testing.T) {
	now := time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC)

	start, end, err := parsePeriod(url.Values{"period": {"year"}}, now)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriodCustom(t *testing.T) {
	values := url.Values{
		"period": {"custom"},
		"from":   {"2025-02-01"},
		"to":     {"2025-02-15"},
	}

	start, end, err := parsePeriod(values, time.Now())

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), end)
}

func TestParsePeriodCustomInverted(t *testing.T) {
	values := url.Values{
		"period": {"custom"},
		"from":   {"2025-02-15"},
		"to":     {"2025-02-01"},
	}

	_, _, err := parsePeriod(values, time.Now())
	assert.Error(t, err)
}

func TestParsePeriodCustomMissingBounds(t *testing.T) {
	_, _, err := parsePeriod(url.Values{"period": {"custom"}}, time.Now())
	assert.Error(t, err)
}

func TestParsePeriodUnknown(t *testing.T) {
	_, _, err := parsePeriod(url.Values{"period": {"decade"}}, time.Now())
	assert.Error(t, err)
}
