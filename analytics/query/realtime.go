package query

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// RealtimeService рассчитывает KPI напрямую из OLTP базы данных
// Используется как запасной путь, когда звёздная схема пуста для периода;
// форма результата совпадает с материализованным путем
type RealtimeService struct {
	oltpDB   *sql.DB
	logger   *utils.MetricsLogger
	topLimit int
}

// NewRealtimeService создает новый экземпляр RealtimeService
func NewRealtimeService(oltpDB *sql.DB, logger *utils.MetricsLogger, topLimit int) *RealtimeService {
	return &RealtimeService{
		oltpDB:   oltpDB,
		logger:   logger,
		topLimit: topLimit,
	}
}

// realtimeProject — проекция проекта для расчетов на лету
type realtimeProject struct {
	ID              int
	Status          string
	ProjectType     string
	IsInternal      bool
	ServiceCategory string
}

// projectPredicate строит предикаты фильтров по таблице проектов
func projectPredicate(filters models.KPIFilters) (string, []interface{}) {
	var where string
	var args []interface{}

	if filters.ProjectType != "" {
		where += " AND p.project_type = ?"
		args = append(args, filters.ProjectType)
	}

	if filters.ProjectManagerID != 0 {
		where += " AND p.project_manager_id = ?"
		args = append(args, filters.ProjectManagerID)
	}

	if filters.SalesPersonID != 0 {
		where += " AND p.sales_person_id = ?"
		args = append(args, filters.SalesPersonID)
	}

	if filters.ProjectDirectorID != 0 {
		where += " AND p.project_director_id = ?"
		args = append(args, filters.ProjectDirectorID)
	}

	if filters.TechnologyID != 0 {
		where += ` AND EXISTS (
			SELECT 1 FROM erp.project_technologies pt
			WHERE pt.project_id = p.id AND pt.technology_id = ?)`
		args = append(args, filters.TechnologyID)
	}

	if filters.ServiceCategoryID != 0 {
		where += " AND p.service_category_id = ?"
		args = append(args, filters.ServiceCategoryID)
	}

	return where, args
}

// CalculateKPIs рассчитывает полный KPI-отчет за период напрямую из OLTP
func (s *RealtimeService) CalculateKPIs(startDate, endDate time.Time, filters models.KPIFilters) (*models.KPIReport, error) {
	projects, err := s.filteredProjects(startDate, endDate, filters)
	if err != nil {
		return nil, err
	}

	projectIDs := make([]int, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	revenue, orders, err := s.calculateOrderMetrics(startDate, endDate, projectIDs)
	if err != nil {
		return nil, err
	}

	totalCost, err := s.calculateCosts(projectIDs)
	if err != nil {
		return nil, err
	}

	// Маржа пересчитывается из выручки и затрат
	revenue.TotalCost = totalCost
	revenue.TotalMargin = revenue.TotalRevenue - totalCost
	if revenue.TotalRevenue > 0 {
		revenue.MarginRate = round2(revenue.TotalMargin / revenue.TotalRevenue * 100)
	}

	contributors, err := s.calculateContributorMetrics(startDate, endDate, projectIDs)
	if err != nil {
		return nil, err
	}

	timeMetrics, err := s.calculateTimeMetrics(startDate, endDate, projectIDs, contributors.Active)
	if err != nil {
		return nil, err
	}

	return &models.KPIReport{
		Period: models.PeriodMetrics{
			Start: startDate,
			End:   endDate,
		},
		Revenue:      revenue,
		Projects:     projectBreakdown(projects),
		Orders:       orders,
		Contributors: contributors,
		Time:         timeMetrics,
		Source:       models.SourceRealtime,
	}, nil
}

// filteredProjects извлекает проекты периода с учетом фильтров
func (s *RealtimeService) filteredProjects(startDate, endDate time.Time, filters models.KPIFilters) ([]realtimeProject, error) {
	where, args := projectPredicate(filters)

	query := fmt.Sprintf(`
		SELECT p.id, p.status, p.project_type, p.is_internal, IFNULL(sc.name, '')
		FROM erp.projects p
		LEFT JOIN erp.service_categories sc ON p.service_category_id = sc.id
		WHERE p.start_date <= ? AND (p.end_date >= ? OR p.end_date IS NULL) %s
	`, where)

	queryArgs := append([]interface{}{
		endDate.Format("2006-01-02"),
		startDate.Format("2006-01-02"),
	}, args...)

	rows, err := s.oltpDB.Query(query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при извлечении проектов для расчета на лету: %w", err)
	}
	defer rows.Close()

	var projects []realtimeProject
	for rows.Next() {
		var p realtimeProject
		if err := rows.Scan(&p.ID, &p.Status, &p.ProjectType, &p.IsInternal, &p.ServiceCategory); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании проекта: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// projectBreakdown строит итоги и разбивки по списку проектов
func projectBreakdown(projects []realtimeProject) models.ProjectMetrics {
	metrics := models.ProjectMetrics{
		Total:        len(projects),
		InPeriod:     len(projects),
		ByType:       map[string]int{},
		ByClientType: map[string]int{},
		ByCategory:   map[string]int{},
	}

	for _, p := range projects {
		switch p.Status {
		case models.ProjectStatusActive:
			metrics.Active++
		case models.ProjectStatusCompleted:
			metrics.Completed++
		}

		metrics.ByType[p.ProjectType]++

		if p.IsInternal {
			metrics.ByClientType["internal"]++
		} else {
			metrics.ByClientType["client"]++
		}

		if p.ServiceCategory != "" {
			metrics.ByCategory[p.ServiceCategory]++
		}
	}

	return metrics
}

// calculateOrderMetrics считает метрики заказов и выручку периода
func (s *RealtimeService) calculateOrderMetrics(startDate, endDate time.Time, projectIDs []int) (models.RevenueMetrics, models.OrderMetrics, error) {
	var revenue models.RevenueMetrics
	var orders models.OrderMetrics

	if len(projectIDs) == 0 {
		return revenue, orders, nil
	}

	query := fmt.Sprintf(`
		SELECT o.status, o.total_amount
		FROM erp.orders o
		WHERE o.created_at BETWEEN ? AND ?
			AND o.project_id IN (%s)
	`, idPlaceholders(len(projectIDs)))

	args := append([]interface{}{startDate, endDate}, idArgs(projectIDs)...)

	rows, err := s.oltpDB.Query(query, args...)
	if err != nil {
		return revenue, orders, fmt.Errorf("ошибка при извлечении заказов для расчета на лету: %w", err)
	}
	defer rows.Close()

	totalRevenue := decimal.Zero
	pendingRevenue := decimal.Zero

	for rows.Next() {
		var status, amountStr string
		if err := rows.Scan(&status, &amountStr); err != nil {
			return revenue, orders, fmt.Errorf("ошибка при сканировании заказа: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return revenue, orders, fmt.Errorf("ошибка при разборе суммы заказа: %w", err)
		}

		orders.Total++
		switch status {
		case models.OrderStatusPending:
			orders.Pending++
			pendingRevenue = pendingRevenue.Add(amount)
		case models.OrderStatusWon:
			orders.Won++
			totalRevenue = totalRevenue.Add(amount)
		case models.OrderStatusSigned:
			orders.Signed++
			totalRevenue = totalRevenue.Add(amount)
		case models.OrderStatusLost, models.OrderStatusAbandoned:
			orders.Lost++
		}
	}

	if err := rows.Err(); err != nil {
		return revenue, orders, err
	}

	// Конверсия считается только по решенным заказам
	decided := orders.Won + orders.Signed + orders.Lost
	if decided > 0 {
		orders.ConversionRate = round2(float64(orders.Won+orders.Signed) / float64(decided) * 100)
	}

	revenue.TotalRevenue, _ = totalRevenue.Round(2).Float64()
	orders.PendingRevenue, _ = pendingRevenue.Round(2).Float64()

	return revenue, orders, nil
}

// calculateCosts считает затраты проектов:
// закупки плюс стоимость списанного времени по дневным ставкам
func (s *RealtimeService) calculateCosts(projectIDs []int) (float64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}

	var purchases, timeCosts float64

	query := fmt.Sprintf(`
		SELECT IFNULL(SUM(p.purchases_amount), 0)
		FROM erp.projects p
		WHERE p.id IN (%s)
	`, idPlaceholders(len(projectIDs)))

	if err := s.oltpDB.QueryRow(query, idArgs(projectIDs)...).Scan(&purchases); err != nil {
		return 0, fmt.Errorf("ошибка при подсчете закупок: %w", err)
	}

	query = fmt.Sprintf(`
		SELECT IFNULL(SUM(ROUND(ROUND(c.cjm / 8, 4) * t.hours, 2)), 0)
		FROM erp.timesheets t
		JOIN erp.contributors c ON t.contributor_id = c.id
		WHERE t.project_id IN (%s)
	`, idPlaceholders(len(projectIDs)))

	if err := s.oltpDB.QueryRow(query, idArgs(projectIDs)...).Scan(&timeCosts); err != nil {
		return 0, fmt.Errorf("ошибка при подсчете стоимости времени: %w", err)
	}

	return purchases + timeCosts, nil
}

// calculateContributorMetrics считает активных контрибьюторов
// и топ по выручке, сгруппированный по руководителям проектов
func (s *RealtimeService) calculateContributorMetrics(startDate, endDate time.Time, projectIDs []int) (models.ContributorMetrics, error) {
	var metrics models.ContributorMetrics

	err := s.oltpDB.QueryRow(
		"SELECT COUNT(*) FROM erp.contributors WHERE active = 1",
	).Scan(&metrics.Active)
	if err != nil {
		return metrics, fmt.Errorf("ошибка при подсчете активных контрибьюторов: %w", err)
	}

	if len(projectIDs) == 0 {
		return metrics, nil
	}

	query := fmt.Sprintf(`
		SELECT IFNULL(NULLIF(u.full_name, ''), u.email),
			IFNULL(SUM(o.total_amount), 0)
		FROM erp.orders o
		JOIN erp.projects p ON o.project_id = p.id
		JOIN erp.users u ON p.project_manager_id = u.id
		WHERE o.status IN (?, ?)
			AND o.created_at BETWEEN ? AND ?
			AND p.id IN (%s)
		GROUP BY u.id
		ORDER BY SUM(o.total_amount) DESC
		LIMIT ?
	`, idPlaceholders(len(projectIDs)))

	args := append([]interface{}{
		models.OrderStatusWon, models.OrderStatusSigned, startDate, endDate,
	}, idArgs(projectIDs)...)
	args = append(args, s.topLimit)

	rows, err := s.oltpDB.Query(query, args...)
	if err != nil {
		return metrics, fmt.Errorf("ошибка при запросе топа контрибьюторов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stat models.ContributorStat
		if err := rows.Scan(&stat.Name, &stat.Revenue); err != nil {
			return metrics, fmt.Errorf("ошибка при сканировании топа контрибьюторов: %w", err)
		}
		metrics.Top = append(metrics.Top, stat)
	}

	if err := rows.Err(); err != nil {
		return metrics, err
	}

	workedDays, err := s.workedDaysByManager(startDate, endDate, projectIDs)
	if err != nil {
		return metrics, err
	}

	for i := range metrics.Top {
		metrics.Top[i].WorkedDays = workedDays[metrics.Top[i].Name]
	}

	return metrics, nil
}

// workedDaysByManager считает отработанные дни периода,
// сгруппированные по руководителям проектов
func (s *RealtimeService) workedDaysByManager(startDate, endDate time.Time, projectIDs []int) (map[string]float64, error) {
	query := fmt.Sprintf(`
		SELECT IFNULL(NULLIF(u.full_name, ''), u.email),
			IFNULL(SUM(t.hours), 0) / 8
		FROM erp.timesheets t
		JOIN erp.projects p ON t.project_id = p.id
		JOIN erp.users u ON p.project_manager_id = u.id
		WHERE t.work_date BETWEEN ? AND ?
			AND t.project_id IN (%s)
		GROUP BY u.id
	`, idPlaceholders(len(projectIDs)))

	args := append([]interface{}{
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	}, idArgs(projectIDs)...)

	rows, err := s.oltpDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчете отработанных дней: %w", err)
	}
	defer rows.Close()

	workedDays := make(map[string]float64)
	for rows.Next() {
		var name string
		var days float64
		if err := rows.Scan(&name, &days); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании отработанных дней: %w", err)
		}
		workedDays[name] = days
	}

	return workedDays, rows.Err()
}

// calculateTimeMetrics считает часы, рабочие дни и занятость периода
func (s *RealtimeService) calculateTimeMetrics(startDate, endDate time.Time, projectIDs []int, activeContributors int) (models.TimeMetrics, error) {
	var metrics models.TimeMetrics

	if len(projectIDs) > 0 {
		query := fmt.Sprintf(`
			SELECT IFNULL(SUM(t.hours), 0)
			FROM erp.timesheets t
			WHERE t.work_date BETWEEN ? AND ?
				AND t.project_id IN (%s)
		`, idPlaceholders(len(projectIDs)))

		args := append([]interface{}{
			startDate.Format("2006-01-02"),
			endDate.Format("2006-01-02"),
		}, idArgs(projectIDs)...)

		if err := s.oltpDB.QueryRow(query, args...).Scan(&metrics.TotalHours); err != nil {
			return metrics, fmt.Errorf("ошибка при подсчете часов периода: %w", err)
		}
	}

	metrics.TotalDays = round2(metrics.TotalHours / 8)
	metrics.WorkingDaysInPeriod = CountWorkingDays(startDate, endDate)

	// Теоретическая емкость: контрибьюторы × рабочие дни × 8 часов
	metrics.TheoreticalCapacity = float64(activeContributors * metrics.WorkingDaysInPeriod * 8)
	if metrics.TheoreticalCapacity > 0 {
		metrics.OccupationRate = round2(metrics.TotalHours / metrics.TheoreticalCapacity * 100)
	}

	return metrics, nil
}

// CalculateMonthlyEvolution рассчитывает помесячную эволюцию на лету,
// вызывая полный расчет KPI для каждого месяца окна
func (s *RealtimeService) CalculateMonthlyEvolution(months int, filters models.KPIFilters) ([]models.MonthRecord, error) {
	records := make([]models.MonthRecord, 0, months)
	now := time.Now()
	year, month, _ := now.Date()
	currentMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	for i := months - 1; i >= 0; i-- {
		monthStart := currentMonth.AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)

		report, err := s.CalculateKPIs(monthStart, monthEnd, filters)
		if err != nil {
			return nil, fmt.Errorf("ошибка при расчете эволюции за %s: %w",
				monthStart.Format("2006-01"), err)
		}

		dim := models.NewTimeDimension(monthStart)
		records = append(records, models.MonthRecord{
			Month:      dim.YearMonth,
			MonthLabel: dim.MonthName,
			Revenue:    report.Revenue.TotalRevenue,
			Cost:       report.Revenue.TotalCost,
			Margin:     report.Revenue.TotalMargin,
		})
	}

	return records, nil
}

// idPlaceholders строит список плейсхолдеров для IN-условия
func idPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs преобразует идентификаторы в аргументы запроса
func idArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
