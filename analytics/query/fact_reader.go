package query

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// MySQLFactReader реализация FactReader поверх звёздной схемы в MySQL
type MySQLFactReader struct {
	olapDB *sql.DB
	logger *utils.MetricsLogger
}

// NewMySQLFactReader создает новый экземпляр MySQLFactReader
func NewMySQLFactReader(olapDB *sql.DB, logger *utils.MetricsLogger) *MySQLFactReader {
	return &MySQLFactReader{
		olapDB: olapDB,
		logger: logger,
	}
}

// filterClause строит соединения и предикаты для динамических фильтров
// Каждый заданный фильтр добавляет одно соединение с условием равенства
func filterClause(filters models.KPIFilters) (string, []interface{}) {
	var joins string
	var args []interface{}

	if filters.ProjectType != "" {
		joins += `
		JOIN erp_analytics.dim_project_type dpt
			ON f.dim_project_type_id = dpt.id AND dpt.project_type = ?`
		args = append(args, filters.ProjectType)
	}

	if filters.ProjectManagerID != 0 {
		joins += `
		JOIN erp_analytics.dim_contributor dpm
			ON f.dim_project_manager_id = dpm.id AND dpm.user_id = ?`
		args = append(args, filters.ProjectManagerID)
	}

	if filters.SalesPersonID != 0 {
		joins += `
		JOIN erp_analytics.dim_contributor dsp
			ON f.dim_sales_person_id = dsp.id AND dsp.user_id = ?`
		args = append(args, filters.SalesPersonID)
	}

	if filters.ProjectDirectorID != 0 {
		joins += `
		JOIN erp_analytics.dim_contributor dpd
			ON f.dim_project_director_id = dpd.id AND dpd.user_id = ?`
		args = append(args, filters.ProjectDirectorID)
	}

	if filters.TechnologyID != 0 {
		// Фильтр по технологии требует соединения с исходным проектом
		joins += `
		JOIN erp.project_technologies ptech
			ON ptech.project_id = f.last_project_id AND ptech.technology_id = ?`
		args = append(args, filters.TechnologyID)
	}

	if filters.ServiceCategoryID != 0 {
		joins += `
		JOIN erp.projects psc
			ON psc.id = f.last_project_id AND psc.service_category_id = ?`
		args = append(args, filters.ServiceCategoryID)
	}

	return joins, args
}

// AggregateKPIs агрегирует строки фактов за период с учетом фильтров
func (r *MySQLFactReader) AggregateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*KPIAggregate, error) {
	joins, args := filterClause(filters)

	query := fmt.Sprintf(`
		SELECT
			IFNULL(SUM(f.total_revenue), 0),
			IFNULL(SUM(f.total_costs), 0),
			IFNULL(SUM(f.gross_margin), 0),
			IFNULL(AVG(f.margin_percentage), 0),
			IFNULL(SUM(f.project_count), 0),
			IFNULL(SUM(f.active_project_count), 0),
			IFNULL(SUM(f.completed_project_count), 0),
			IFNULL(SUM(f.order_count), 0),
			IFNULL(SUM(f.pending_order_count), 0),
			IFNULL(SUM(f.won_order_count), 0),
			IFNULL(SUM(f.signed_order_count), 0),
			IFNULL(SUM(f.lost_order_count), 0),
			IFNULL(SUM(f.pending_revenue), 0),
			IFNULL(SUM(f.total_worked_days), 0),
			IFNULL(SUM(f.total_sold_days), 0),
			IFNULL(AVG(f.utilization_rate), 0)
		FROM erp_analytics.fact_project_metrics f
		JOIN erp_analytics.dim_time dt ON f.dim_time_id = dt.id %s
		WHERE dt.date_value BETWEEN ? AND ?
	`, joins)

	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	var agg KPIAggregate
	err := r.olapDB.QueryRow(query, args...).Scan(
		&agg.TotalRevenue,
		&agg.TotalCosts,
		&agg.GrossMargin,
		&agg.AvgMarginPercentage,
		&agg.TotalProjects,
		&agg.ActiveProjects,
		&agg.CompletedProjects,
		&agg.TotalOrders,
		&agg.PendingOrders,
		&agg.WonOrders,
		&agg.SignedOrders,
		&agg.LostOrders,
		&agg.PendingRevenue,
		&agg.TotalWorkedDays,
		&agg.TotalSoldDays,
		&agg.AvgUtilization,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка при агрегации фактов за период: %w", err)
	}

	return &agg, nil
}

// ProjectBreakdowns строит разбивки проектов по типу, типу клиента
// и категории услуг отдельными группирующими запросами
func (r *MySQLFactReader) ProjectBreakdowns(startDate, endDate time.Time, filters models.KPIFilters) (*Breakdowns, error) {
	byType, err := r.groupProjects(startDate, endDate, filters, "dpt2.project_type")
	if err != nil {
		return nil, fmt.Errorf("ошибка при разбивке по типу проекта: %w", err)
	}

	byClientRaw, err := r.groupProjects(startDate, endDate, filters,
		"IF(dpt2.is_internal, 'internal', 'client')")
	if err != nil {
		return nil, fmt.Errorf("ошибка при разбивке по типу клиента: %w", err)
	}

	byCategory, err := r.groupProjects(startDate, endDate, filters,
		"IFNULL(dpt2.service_category, '')")
	if err != nil {
		return nil, fmt.Errorf("ошибка при разбивке по категории услуг: %w", err)
	}

	// Проекты без категории не попадают в разбивку по категориям
	delete(byCategory, "")

	return &Breakdowns{
		ByType:       byType,
		ByClientType: byClientRaw,
		ByCategory:   byCategory,
	}, nil
}

// groupProjects выполняет один группирующий запрос по выражению оси
func (r *MySQLFactReader) groupProjects(startDate, endDate time.Time, filters models.KPIFilters, axis string) (map[string]int, error) {
	joins, args := filterClause(filters)

	query := fmt.Sprintf(`
		SELECT %s, IFNULL(SUM(f.project_count), 0)
		FROM erp_analytics.fact_project_metrics f
		JOIN erp_analytics.dim_time dt ON f.dim_time_id = dt.id
		JOIN erp_analytics.dim_project_type dpt2 ON f.dim_project_type_id = dpt2.id %s
		WHERE dt.date_value BETWEEN ? AND ?
		GROUP BY %s
	`, axis, joins, axis)

	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	rows, err := r.olapDB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}

	return result, rows.Err()
}

// TopContributors возвращает топ контрибьюторов по выручке,
// сгруппированный по измерению руководителя проекта
func (r *MySQLFactReader) TopContributors(startDate, endDate time.Time, filters models.KPIFilters, limit int) ([]models.ContributorStat, error) {
	joins, args := filterClause(filters)

	query := fmt.Sprintf(`
		SELECT dc.name_value,
			IFNULL(SUM(f.total_revenue), 0),
			IFNULL(SUM(f.total_worked_days), 0)
		FROM erp_analytics.fact_project_metrics f
		JOIN erp_analytics.dim_time dt ON f.dim_time_id = dt.id
		JOIN erp_analytics.dim_contributor dc ON f.dim_project_manager_id = dc.id %s
		WHERE dt.date_value BETWEEN ? AND ?
		GROUP BY dc.id, dc.name_value
		ORDER BY SUM(f.total_revenue) DESC
		LIMIT ?
	`, joins)

	args = append(args, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), limit)

	rows, err := r.olapDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе топа контрибьюторов: %w", err)
	}
	defer rows.Close()

	var stats []models.ContributorStat
	for rows.Next() {
		var stat models.ContributorStat
		if err := rows.Scan(&stat.Name, &stat.Revenue, &stat.WorkedDays); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании топа контрибьюторов: %w", err)
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// ActiveContributorCount возвращает количество активных контрибьюторов
// Один пользователь под несколькими ролями считается один раз
func (r *MySQLFactReader) ActiveContributorCount() (int, error) {
	var count int
	err := r.olapDB.QueryRow(`
		SELECT COUNT(DISTINCT user_id)
		FROM erp_analytics.dim_contributor
		WHERE is_active = 1
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчете активных контрибьюторов: %w", err)
	}

	return count, nil
}

// MonthlyEvolution группирует месячные факты по годам и месяцам
func (r *MySQLFactReader) MonthlyEvolution(startDate, endDate time.Time, filters models.KPIFilters) ([]models.MonthRecord, error) {
	joins, args := filterClause(filters)

	query := fmt.Sprintf(`
		SELECT dt.period_year_month, dt.month_name,
			IFNULL(SUM(f.total_revenue), 0),
			IFNULL(SUM(f.total_costs), 0),
			IFNULL(SUM(f.gross_margin), 0)
		FROM erp_analytics.fact_project_metrics f
		JOIN erp_analytics.dim_time dt ON f.dim_time_id = dt.id %s
		WHERE dt.date_value BETWEEN ? AND ?
			AND f.granularity = ?
		GROUP BY dt.year_value, dt.month_value, dt.period_year_month, dt.month_name
		ORDER BY dt.year_value ASC, dt.month_value ASC
	`, joins)

	args = append(args,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
		models.GranularityMonthly,
	)

	rows, err := r.olapDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе помесячной эволюции: %w", err)
	}
	defer rows.Close()

	var records []models.MonthRecord
	for rows.Next() {
		var rec models.MonthRecord
		if err := rows.Scan(&rec.Month, &rec.MonthLabel, &rec.Revenue, &rec.Cost, &rec.Margin); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании помесячной эволюции: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
