package facts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_erp/analytics/models"
)

func monthlyKey() models.FactKey {
	return models.FactKey{
		TimeID:        1,
		ProjectTypeID: 2,
		Granularity:   models.GranularityMonthly,
	}
}

func TestGetCreatesZeroRowOnce(t *testing.T) {
	acc := NewAccumulator()

	first := acc.Get(monthlyKey())
	second := acc.Get(monthlyKey())

	assert.Same(t, first, second)
	assert.Equal(t, 1, acc.Len())
	assert.True(t, first.TotalRevenue.IsZero())
}

func TestFoldSignedOrder(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	project := &models.Project{
		ID:     10,
		Status: models.ProjectStatusActive,
	}
	order := &models.OrderOLTP{
		ID:          100,
		Status:      models.OrderStatusSigned,
		TotalAmount: decimal.NewFromInt(1000),
	}

	acc.Fold(fact, project, order)

	assert.Equal(t, 1, fact.ProjectCount)
	assert.Equal(t, 1, fact.ActiveProjectCount)
	assert.Equal(t, 1, fact.OrderCount)
	assert.Equal(t, 1, fact.WonOrderCount)
	assert.Equal(t, 1, fact.SignedOrderCount)
	assert.True(t, fact.TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, fact.TotalCosts.IsZero())
	assert.True(t, fact.GrossMargin.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 10, fact.LastProjectID)
	assert.Equal(t, 100, fact.LastOrderID)
}

func TestFoldPendingOrder(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	project := &models.Project{Status: models.ProjectStatusActive}
	order := &models.OrderOLTP{
		Status:      models.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(500),
	}

	acc.Fold(fact, project, order)

	assert.Equal(t, 1, fact.PendingOrderCount)
	assert.Equal(t, 0, fact.WonOrderCount)
	assert.True(t, fact.TotalRevenue.IsZero())
	assert.True(t, fact.PendingRevenue.Equal(decimal.NewFromInt(500)))
	// Средняя стоимость заказа учитывает потенциальную выручку
	assert.True(t, fact.AverageOrderValue.Equal(decimal.NewFromInt(500)))
}

func TestFoldLostOrderDoesNotMoveMoney(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	project := &models.Project{Status: models.ProjectStatusCompleted}
	order := &models.OrderOLTP{
		Status:      models.OrderStatusLost,
		TotalAmount: decimal.NewFromInt(900),
	}

	acc.Fold(fact, project, order)

	assert.Equal(t, 1, fact.CompletedProjectCount)
	assert.Equal(t, 1, fact.LostOrderCount)
	assert.True(t, fact.TotalRevenue.IsZero())
	assert.True(t, fact.PendingRevenue.IsZero())
}

func TestFoldProjectWithoutOrders(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	project := &models.Project{
		ID:              11,
		Status:          models.ProjectStatusActive,
		PurchasesAmount: decimal.NewFromInt(200),
	}

	acc.Fold(fact, project, nil)

	assert.Equal(t, 1, fact.ProjectCount)
	assert.Equal(t, 0, fact.OrderCount)
	assert.True(t, fact.TotalCosts.Equal(decimal.NewFromInt(200)))
	assert.True(t, fact.GrossMargin.Equal(decimal.NewFromInt(-200)))
	assert.Equal(t, 11, fact.LastProjectID)
	assert.Equal(t, 0, fact.LastOrderID)
}

func TestFoldTimesheetCosts(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	// Дневная ставка 600 дает часовую 75; 16 часов стоят 1200
	project := &models.Project{
		Status:        models.ProjectStatusActive,
		TotalSoldDays: decimal.NewFromInt(4),
		Timesheets: []models.TimesheetOLTP{
			{Hours: decimal.NewFromInt(16), DailyCost: decimal.NewFromInt(600)},
		},
	}

	acc.Fold(fact, project, nil)

	assert.True(t, fact.TotalCosts.Equal(decimal.NewFromInt(1200)),
		"ожидалось 1200, получено %s", fact.TotalCosts)
	assert.True(t, fact.TotalWorkedDays.Equal(decimal.NewFromInt(2)))
	assert.True(t, fact.TotalSoldDays.Equal(decimal.NewFromInt(4)))

	// 2 отработанных дня из 4 проданных
	assert.True(t, fact.UtilizationRate.Equal(decimal.NewFromInt(50)),
		"ожидалось 50, получено %s", fact.UtilizationRate)
}

func TestFoldSkipsTimesheetsWithoutRate(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	project := &models.Project{
		Status: models.ProjectStatusActive,
		Timesheets: []models.TimesheetOLTP{
			{Hours: decimal.NewFromInt(8), DailyCost: decimal.Zero},
		},
	}

	acc.Fold(fact, project, nil)

	// Запись без ставки не стоит ничего, но часы учитываются
	assert.True(t, fact.TotalCosts.IsZero())
	assert.True(t, fact.TotalWorkedDays.Equal(decimal.NewFromInt(1)))
}

func TestFoldAccumulatesAcrossProjects(t *testing.T) {
	acc := NewAccumulator()
	fact := acc.Get(monthlyKey())

	first := &models.Project{Status: models.ProjectStatusActive}
	second := &models.Project{Status: models.ProjectStatusCompleted}

	acc.Fold(fact, first, &models.OrderOLTP{
		Status:      models.OrderStatusWon,
		TotalAmount: decimal.NewFromInt(300),
	})
	acc.Fold(fact, second, &models.OrderOLTP{
		Status:      models.OrderStatusWon,
		TotalAmount: decimal.NewFromInt(700),
	})

	assert.Equal(t, 2, fact.ProjectCount)
	assert.Equal(t, 2, fact.WonOrderCount)
	assert.True(t, fact.TotalRevenue.Equal(decimal.NewFromInt(1000)))

	expected, err := decimal.NewFromString("500")
	require.NoError(t, err)
	assert.True(t, fact.AverageOrderValue.Equal(expected))
}

func TestFoldSeparatesGranularities(t *testing.T) {
	acc := NewAccumulator()

	monthly := monthlyKey()
	quarterly := monthly
	quarterly.Granularity = models.GranularityQuarterly

	project := &models.Project{Status: models.ProjectStatusActive}

	acc.Fold(acc.Get(monthly), project, nil)
	acc.Fold(acc.Get(quarterly), project, nil)

	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 1, acc.Get(monthly).ProjectCount)
	assert.Equal(t, 1, acc.Get(quarterly).ProjectCount)
}
