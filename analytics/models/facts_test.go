package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGranularity(t *testing.T) {
	assert.NoError(t, ValidateGranularity(GranularityMonthly))
	assert.NoError(t, ValidateGranularity(GranularityQuarterly))
	assert.NoError(t, ValidateGranularity(GranularityYearly))

	assert.Error(t, ValidateGranularity("weekly"))
	assert.Error(t, ValidateGranularity(""))
}

func TestNewFactMetricsStartsAtZero(t *testing.T) {
	fact := NewFactMetrics(FactKey{TimeID: 1, Granularity: GranularityMonthly})

	assert.Equal(t, 0, fact.ProjectCount)
	assert.Equal(t, 0, fact.OrderCount)
	assert.True(t, fact.TotalRevenue.IsZero())
	assert.True(t, fact.TotalCosts.IsZero())
	assert.True(t, fact.GrossMargin.IsZero())
}

func TestRecalculateMargins(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalRevenue = decimal.NewFromInt(1000)
	fact.TotalCosts = decimal.NewFromInt(250)

	fact.RecalculateMargins()

	assert.True(t, fact.GrossMargin.Equal(decimal.NewFromInt(750)))
	assert.True(t, fact.MarginPercentage.Equal(decimal.NewFromInt(75)),
		"ожидалось 75, получено %s", fact.MarginPercentage)
}

func TestRecalculateMarginsZeroRevenue(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalCosts = decimal.NewFromInt(500)

	fact.RecalculateMargins()

	// Маржа отрицательная, но процент не определен без выручки
	assert.True(t, fact.GrossMargin.Equal(decimal.NewFromInt(-500)))
	assert.True(t, fact.MarginPercentage.IsZero())
}

func TestRecalculateAverageOrderValue(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalRevenue = decimal.NewFromInt(900)
	fact.PendingRevenue = decimal.NewFromInt(100)
	fact.OrderCount = 3

	fact.RecalculateAverageOrderValue()

	expected, err := decimal.NewFromString("333.33")
	require.NoError(t, err)
	assert.True(t, fact.AverageOrderValue.Equal(expected),
		"ожидалось 333.33, получено %s", fact.AverageOrderValue)
}

func TestRecalculateAverageOrderValueNoOrders(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalRevenue = decimal.NewFromInt(900)

	fact.RecalculateAverageOrderValue()

	assert.True(t, fact.AverageOrderValue.IsZero())
}

func TestRecalculateUtilization(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalSoldDays = decimal.NewFromInt(40)
	fact.TotalWorkedDays = decimal.NewFromInt(30)

	fact.RecalculateUtilization()

	expected := decimal.NewFromInt(75)
	assert.True(t, fact.UtilizationRate.Equal(expected),
		"ожидалось 75, получено %s", fact.UtilizationRate)
}

func TestRecalculateUtilizationNoSoldDays(t *testing.T) {
	fact := NewFactMetrics(FactKey{})
	fact.TotalWorkedDays = decimal.NewFromInt(30)

	fact.RecalculateUtilization()

	assert.True(t, fact.UtilizationRate.IsZero())
}
