package materialize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_erp/analytics/models"
)

func TestPeriodRangeMonthly(t *testing.T) {
	start, end, err := PeriodRange(
		time.Date(2025, time.February, 15, 10, 30, 0, 0, time.UTC),
		models.GranularityMonthly,
	)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodRangeMonthlyLeapYear(t *testing.T) {
	_, end, err := PeriodRange(
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		models.GranularityMonthly,
	)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodRangeQuarterly(t *testing.T) {
	start, end, err := PeriodRange(
		time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC),
		models.GranularityQuarterly,
	)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodRangeYearly(t *testing.T) {
	start, end, err := PeriodRange(
		time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		models.GranularityYearly,
	)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestPeriodRangeUnknownGranularity(t *testing.T) {
	_, _, err := PeriodRange(time.Now(), "weekly")
	assert.Error(t, err)
}

func TestParsePeriodMonth(t *testing.T) {
	date, isYear, err := ParsePeriod("2025-03")

	require.NoError(t, err)
	assert.False(t, isYear)
	assert.Equal(t, 2025, date.Year())
	assert.Equal(t, time.March, date.Month())
}

func TestParsePeriodYear(t *testing.T) {
	date, isYear, err := ParsePeriod("2025")

	require.NoError(t, err)
	assert.True(t, isYear)
	assert.Equal(t, 2025, date.Year())
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, period := range []string{"", "март", "2025-3", "2025/03", "2025-13"} {
		_, _, err := ParsePeriod(period)
		assert.Error(t, err, "период %q", period)
	}
}
