package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_erp/analytics/cache"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// fakeFactReader отдает заранее подготовленные агрегаты витрины
type fakeFactReader struct {
	aggregate      *KPIAggregate
	evolution      []models.MonthRecord
	aggregateCalls int
}

func (f *fakeFactReader) AggregateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*KPIAggregate, error) {
	f.aggregateCalls++
	return f.aggregate, nil
}

func (f *fakeFactReader) ProjectBreakdowns(startDate, endDate time.Time, filters models.KPIFilters) (*Breakdowns, error) {
	return &Breakdowns{
		ByType:       map[string]int{"forfait": 2},
		ByClientType: map[string]int{"client": 2},
		ByCategory:   map[string]int{},
	}, nil
}

func (f *fakeFactReader) TopContributors(startDate, endDate time.Time, filters models.KPIFilters, limit int) ([]models.ContributorStat, error) {
	return []models.ContributorStat{{Name: "Alice Martin", Revenue: 5000}}, nil
}

func (f *fakeFactReader) ActiveContributorCount() (int, error) {
	return 4, nil
}

func (f *fakeFactReader) MonthlyEvolution(startDate, endDate time.Time, filters models.KPIFilters) ([]models.MonthRecord, error) {
	return f.evolution, nil
}

// fakeRealtime фиксирует обращения к расчету на лету
type fakeRealtime struct {
	kpiCalls       int
	evolutionCalls int
}

func (f *fakeRealtime) CalculateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*models.KPIReport, error) {
	f.kpiCalls++
	return &models.KPIReport{
		Revenue: models.RevenueMetrics{TotalRevenue: 777},
		Source:  models.SourceRealtime,
	}, nil
}

func (f *fakeRealtime) CalculateMonthlyEvolution(months int, filters models.KPIFilters) ([]models.MonthRecord, error) {
	f.evolutionCalls++
	return []models.MonthRecord{{Month: "2025-01", Revenue: 777}}, nil
}

func newTestService(reader *fakeFactReader, realtime *fakeRealtime) *ReadService {
	logger := utils.NewMetricsLogger(false)
	return NewReadService(reader, realtime, cache.NewReportCache(time.Minute, logger), logger, 5)
}

func testPeriod() (time.Time, time.Time) {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
}

func TestGetKPIsMaterialized(t *testing.T) {
	reader := &fakeFactReader{
		aggregate: &KPIAggregate{
			TotalRevenue:    10000,
			TotalCosts:      4000,
			GrossMargin:     6000,
			TotalProjects:   2,
			TotalOrders:     4,
			WonOrders:       3,
			TotalWorkedDays: 10,
			TotalSoldDays:   20,
		},
	}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	start, end := testPeriod()
	report, err := service.GetKPIs(start, end, models.KPIFilters{})

	require.NoError(t, err)
	assert.Equal(t, models.SourceMaterialized, report.Source)
	assert.Equal(t, 0, realtime.kpiCalls)

	assert.Equal(t, 10000.0, report.Revenue.TotalRevenue)
	assert.Equal(t, 75.0, report.Orders.ConversionRate)
	assert.Equal(t, 4, report.Contributors.Active)
	assert.Equal(t, 2, report.Projects.ByType["forfait"])

	// Январь 2025: 23 рабочих дня
	assert.Equal(t, 23, report.Time.WorkingDaysInPeriod)
	assert.Equal(t, 80.0, report.Time.TotalHours)
	assert.Equal(t, 160.0, report.Time.TheoreticalCapacity)
}

func TestGetKPIsFallsBackWhenEmpty(t *testing.T) {
	reader := &fakeFactReader{aggregate: &KPIAggregate{}}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	start, end := testPeriod()
	report, err := service.GetKPIs(start, end, models.KPIFilters{})

	require.NoError(t, err)
	assert.Equal(t, models.SourceRealtime, report.Source)
	assert.Equal(t, 1, realtime.kpiCalls)
	assert.Equal(t, 777.0, report.Revenue.TotalRevenue)
}

func TestGetKPIsNoFallbackWhenOnlyCosts(t *testing.T) {
	// Затраты без выручки — это данные, а не пустая витрина
	reader := &fakeFactReader{aggregate: &KPIAggregate{TotalCosts: 500}}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	start, end := testPeriod()
	report, err := service.GetKPIs(start, end, models.KPIFilters{})

	require.NoError(t, err)
	assert.Equal(t, models.SourceMaterialized, report.Source)
	assert.Equal(t, 0, realtime.kpiCalls)
}

func TestGetKPIsUsesCache(t *testing.T) {
	reader := &fakeFactReader{aggregate: &KPIAggregate{TotalRevenue: 1000}}
	service := newTestService(reader, &fakeRealtime{})

	start, end := testPeriod()

	_, err := service.GetKPIs(start, end, models.KPIFilters{})
	require.NoError(t, err)

	_, err = service.GetKPIs(start, end, models.KPIFilters{})
	require.NoError(t, err)

	assert.Equal(t, 1, reader.aggregateCalls)
}

func TestGetKPIsCacheKeyedByFilters(t *testing.T) {
	reader := &fakeFactReader{aggregate: &KPIAggregate{TotalRevenue: 1000}}
	service := newTestService(reader, &fakeRealtime{})

	start, end := testPeriod()

	_, err := service.GetKPIs(start, end, models.KPIFilters{})
	require.NoError(t, err)

	_, err = service.GetKPIs(start, end, models.KPIFilters{ProjectType: "forfait"})
	require.NoError(t, err)

	assert.Equal(t, 2, reader.aggregateCalls)
}

func TestGetKPIsCachesRealtimeResult(t *testing.T) {
	reader := &fakeFactReader{aggregate: &KPIAggregate{}}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	start, end := testPeriod()

	_, err := service.GetKPIs(start, end, models.KPIFilters{})
	require.NoError(t, err)

	report, err := service.GetKPIs(start, end, models.KPIFilters{})
	require.NoError(t, err)

	assert.Equal(t, 1, realtime.kpiCalls)
	assert.Equal(t, models.SourceRealtime, report.Source)
}

func TestGetMonthlyEvolutionMaterialized(t *testing.T) {
	reader := &fakeFactReader{
		evolution: []models.MonthRecord{
			{Month: "2025-01", MonthLabel: "Janvier 2025", Revenue: 1000},
			{Month: "2025-02", MonthLabel: "Février 2025", Revenue: 2000},
		},
	}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	records, err := service.GetMonthlyEvolution(12, models.KPIFilters{})

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 0, realtime.evolutionCalls)
}

func TestGetMonthlyEvolutionFallsBackWhenEmpty(t *testing.T) {
	reader := &fakeFactReader{}
	realtime := &fakeRealtime{}
	service := newTestService(reader, realtime)

	records, err := service.GetMonthlyEvolution(12, models.KPIFilters{})

	require.NoError(t, err)
	assert.Equal(t, 1, realtime.evolutionCalls)
	require.Len(t, records, 1)
	assert.Equal(t, "2025-01", records[0].Month)
}

func TestEvolutionWindow(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	start, end := evolutionWindow(now, 3)

	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestCountWorkingDays(t *testing.T) {
	// Неделя с понедельника по воскресенье содержит 5 рабочих дней
	monday := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	sunday := monday.AddDate(0, 0, 6)
	assert.Equal(t, 5, CountWorkingDays(monday, sunday))

	// Одиночная суббота не содержит рабочих дней
	saturday := time.Date(2025, time.January, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, CountWorkingDays(saturday, saturday))

	// Январь 2025: 23 рабочих дня
	assert.Equal(t, 23, CountWorkingDays(
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
	))
}
