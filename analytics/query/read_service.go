package query

import (
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/cache"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// KPIAggregate содержит агрегаты строк фактов за период
type KPIAggregate struct {
	TotalRevenue        float64
	TotalCosts          float64
	GrossMargin         float64
	AvgMarginPercentage float64
	TotalProjects       int
	ActiveProjects      int
	CompletedProjects   int
	TotalOrders         int
	PendingOrders       int
	WonOrders           int
	SignedOrders        int
	LostOrders          int
	PendingRevenue      float64
	TotalWorkedDays     float64
	TotalSoldDays       float64
	AvgUtilization      float64
}

// Breakdowns содержит разбивки проектов по осям измерений
type Breakdowns struct {
	ByType       map[string]int
	ByClientType map[string]int
	ByCategory   map[string]int
}

// FactReader абстрагирует агрегирующие запросы к таблице фактов
type FactReader interface {
	// AggregateKPIs агрегирует строки фактов за период с учетом фильтров
	AggregateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*KPIAggregate, error)

	// ProjectBreakdowns строит разбивки проектов по типу, типу клиента и категории
	ProjectBreakdowns(startDate, endDate time.Time, filters models.KPIFilters) (*Breakdowns, error)

	// TopContributors возвращает топ контрибьюторов по выручке
	TopContributors(startDate, endDate time.Time, filters models.KPIFilters, limit int) ([]models.ContributorStat, error)

	// ActiveContributorCount возвращает количество активных контрибьюторов
	ActiveContributorCount() (int, error)

	// MonthlyEvolution группирует месячные факты по годам и месяцам
	MonthlyEvolution(startDate, endDate time.Time, filters models.KPIFilters) ([]models.MonthRecord, error)
}

// RealtimeCalculator — контракт сервиса расчета метрик на лету
// Вызывается только когда материализованные данные отсутствуют
type RealtimeCalculator interface {
	CalculateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*models.KPIReport, error)
	CalculateMonthlyEvolution(months int, filters models.KPIFilters) ([]models.MonthRecord, error)
}

// ReadService отвечает за чтение KPI из звёздной схемы
// по схеме cache-aside с деградацией к расчету на лету
type ReadService struct {
	reader   FactReader
	realtime RealtimeCalculator
	cache    *cache.ReportCache
	logger   *utils.MetricsLogger
	topLimit int
}

// NewReadService создает новый экземпляр ReadService
func NewReadService(reader FactReader, realtime RealtimeCalculator, reportCache *cache.ReportCache, logger *utils.MetricsLogger, topLimit int) *ReadService {
	return &ReadService{
		reader:   reader,
		realtime: realtime,
		cache:    reportCache,
		logger:   logger,
		topLimit: topLimit,
	}
}

// GetKPIs возвращает KPI-отчет за период с учетом фильтров
// Пустой материализованный агрегат (нулевые выручка и затраты)
// не считается ошибкой и прозрачно делегируется расчету на лету
func (s *ReadService) GetKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*models.KPIReport, error) {
	cacheKey := cache.Key("kpis",
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
		filters.Key(),
	)

	var cached models.KPIReport
	if s.cache.Get(cacheKey, &cached) {
		return &cached, nil
	}

	aggregate, err := s.reader.AggregateKPIs(startDate, endDate, filters)
	if err != nil {
		return nil, fmt.Errorf("ошибка при агрегации строк фактов: %w", err)
	}

	// Нулевые выручка и затраты означают отсутствие материализованных данных
	if aggregate.TotalRevenue == 0 && aggregate.TotalCosts == 0 {
		s.logger.Info("Нет данных в звёздной схеме за %s - %s, расчет на лету",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

		report, err := s.realtime.CalculateKPIs(startDate, endDate, filters)
		if err != nil {
			return nil, fmt.Errorf("ошибка при расчете KPI на лету: %w", err)
		}

		report.Source = models.SourceRealtime
		s.cache.Set(cacheKey, report)
		return report, nil
	}

	report, err := s.assembleReport(startDate, endDate, filters, aggregate)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, report)
	return report, nil
}

// assembleReport собирает полный отчет из агрегатов и подзапросов-разбивок
func (s *ReadService) assembleReport(startDate, endDate time.Time, filters models.KPIFilters, aggregate *KPIAggregate) (*models.KPIReport, error) {
	breakdowns, err := s.reader.ProjectBreakdowns(startDate, endDate, filters)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении разбивок проектов: %w", err)
	}

	topContributors, err := s.reader.TopContributors(startDate, endDate, filters, s.topLimit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при построении топа контрибьюторов: %w", err)
	}

	activeContributors, err := s.reader.ActiveContributorCount()
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете активных контрибьюторов: %w", err)
	}

	conversionRate := 0.0
	if aggregate.TotalOrders > 0 {
		conversionRate = round2(float64(aggregate.WonOrders) / float64(aggregate.TotalOrders) * 100)
	}

	// Рабочие дни считаются по календарю, независимо от таблицы фактов
	workingDays := CountWorkingDays(startDate, endDate)

	return &models.KPIReport{
		Period: models.PeriodMetrics{
			Start: startDate,
			End:   endDate,
		},
		Revenue: models.RevenueMetrics{
			TotalRevenue: aggregate.TotalRevenue,
			TotalCost:    aggregate.TotalCosts,
			TotalMargin:  aggregate.GrossMargin,
			MarginRate:   aggregate.AvgMarginPercentage,
		},
		Projects: models.ProjectMetrics{
			Total:        aggregate.TotalProjects,
			Active:       aggregate.ActiveProjects,
			Completed:    aggregate.CompletedProjects,
			InPeriod:     aggregate.TotalProjects,
			ByType:       breakdowns.ByType,
			ByClientType: breakdowns.ByClientType,
			ByCategory:   breakdowns.ByCategory,
		},
		Orders: models.OrderMetrics{
			Total:          aggregate.TotalOrders,
			Pending:        aggregate.PendingOrders,
			Won:            aggregate.WonOrders,
			Signed:         aggregate.SignedOrders,
			Lost:           aggregate.LostOrders,
			ConversionRate: conversionRate,
			PendingRevenue: aggregate.PendingRevenue,
		},
		Contributors: models.ContributorMetrics{
			Active: activeContributors,
			Top:    topContributors,
		},
		Time: models.TimeMetrics{
			TotalHours:          aggregate.TotalWorkedDays * 8,
			TotalDays:           aggregate.TotalWorkedDays,
			WorkingDaysInPeriod: workingDays,
			TheoreticalCapacity: aggregate.TotalSoldDays * 8,
			OccupationRate:      aggregate.AvgUtilization,
		},
		Source: models.SourceMaterialized,
	}, nil
}

// GetMonthlyEvolution возвращает помесячную эволюцию выручки и маржи
// за последние months полных календарных месяцев
func (s *ReadService) GetMonthlyEvolution(months int, filters models.KPIFilters) ([]models.MonthRecord, error) {
	startDate, endDate := evolutionWindow(time.Now(), months)

	cacheKey := cache.Key("evolution",
		fmt.Sprintf("%d", months),
		startDate.Format("2006-01-02"),
		filters.Key(),
	)

	var cached []models.MonthRecord
	if s.cache.Get(cacheKey, &cached) {
		return cached, nil
	}

	records, err := s.reader.MonthlyEvolution(startDate, endDate, filters)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении помесячной эволюции: %w", err)
	}

	// Пустой результат целиком делегируется расчету на лету
	if len(records) == 0 {
		s.logger.Info("Нет данных эволюции в звёздной схеме, расчет на лету")

		records, err = s.realtime.CalculateMonthlyEvolution(months, filters)
		if err != nil {
			return nil, fmt.Errorf("ошибка при расчете эволюции на лету: %w", err)
		}
	}

	s.cache.Set(cacheKey, records)
	return records, nil
}

// evolutionWindow возвращает окно последних months полных
// календарных месяцев, заканчивающееся текущим месяцем
func evolutionWindow(now time.Time, months int) (time.Time, time.Time) {
	year, month, _ := now.Date()
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	endDate := monthStart.AddDate(0, 1, -1)
	startDate := monthStart.AddDate(0, -(months - 1), 0)
	return startDate, endDate
}

// CountWorkingDays считает количество рабочих дней (пн-пт)
// в интервале [startDate, endDate] включительно
func CountWorkingDays(startDate, endDate time.Time) int {
	workingDays := 0

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			workingDays++
		}
	}

	return workingDays
}

// round2 округляет значение до двух знаков
func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
