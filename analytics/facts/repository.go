package facts

import (
	"database/sql"
	"fmt"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// MySQLFactRepository реализация хранилища фактов для MySQL
type MySQLFactRepository struct {
	db     *sql.DB
	logger *utils.MetricsLogger
}

// NewMySQLFactRepository создает новый экземпляр MySQLFactRepository
func NewMySQLFactRepository(db *sql.DB, logger *utils.MetricsLogger) *MySQLFactRepository {
	return &MySQLFactRepository{
		db:     db,
		logger: logger,
	}
}

// FlushRun записывает все строки фактов запуска одной транзакцией
// Upsert по уникальному кортежу измерений перезаписывает меры целиком,
// поэтому запись идемпотентна относительно повторной материализации периода
func (r *MySQLFactRepository) FlushRun(facts []*models.FactMetrics) error {
	if len(facts) == 0 {
		return nil
	}

	// Используем транзакцию для атомарной записи
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при создании транзакции: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO erp_analytics.fact_project_metrics
		(dim_time_id, dim_project_type_id, dim_project_manager_id,
		 dim_sales_person_id, dim_project_director_id, granularity,
		 project_count, active_project_count, completed_project_count,
		 order_count, pending_order_count, won_order_count,
		 signed_order_count, lost_order_count, contributor_count,
		 total_revenue, total_costs, gross_margin, margin_percentage,
		 pending_revenue, average_order_value,
		 total_sold_days, total_worked_days, utilization_rate,
		 calculated_at, last_project_id, last_order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		project_count = VALUES(project_count),
		active_project_count = VALUES(active_project_count),
		completed_project_count = VALUES(completed_project_count),
		order_count = VALUES(order_count),
		pending_order_count = VALUES(pending_order_count),
		won_order_count = VALUES(won_order_count),
		signed_order_count = VALUES(signed_order_count),
		lost_order_count = VALUES(lost_order_count),
		contributor_count = VALUES(contributor_count),
		total_revenue = VALUES(total_revenue),
		total_costs = VALUES(total_costs),
		gross_margin = VALUES(gross_margin),
		margin_percentage = VALUES(margin_percentage),
		pending_revenue = VALUES(pending_revenue),
		average_order_value = VALUES(average_order_value),
		total_sold_days = VALUES(total_sold_days),
		total_worked_days = VALUES(total_worked_days),
		utilization_rate = VALUES(utilization_rate),
		calculated_at = VALUES(calculated_at),
		last_project_id = VALUES(last_project_id),
		last_order_id = VALUES(last_order_id)
	`)
	if err != nil {
		return fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	// Вставляем строки фактов
	for _, fact := range facts {
		_, err = stmt.Exec(
			fact.TimeID,
			fact.ProjectTypeID,
			fact.ProjectManagerID,
			fact.SalesPersonID,
			fact.ProjectDirectorID,
			fact.Granularity,
			fact.ProjectCount,
			fact.ActiveProjectCount,
			fact.CompletedProjectCount,
			fact.OrderCount,
			fact.PendingOrderCount,
			fact.WonOrderCount,
			fact.SignedOrderCount,
			fact.LostOrderCount,
			fact.ContributorCount,
			fact.TotalRevenue.StringFixed(2),
			fact.TotalCosts.StringFixed(2),
			fact.GrossMargin.StringFixed(2),
			fact.MarginPercentage.StringFixed(2),
			fact.PendingRevenue.StringFixed(2),
			fact.AverageOrderValue.StringFixed(2),
			fact.TotalSoldDays.StringFixed(2),
			fact.TotalWorkedDays.StringFixed(2),
			fact.UtilizationRate.StringFixed(2),
			fact.CalculatedAt,
			fact.LastProjectID,
			fact.LastOrderID,
		)
		if err != nil {
			return fmt.Errorf("ошибка при записи строки фактов (time=%d, type=%d): %w",
				fact.TimeID, fact.ProjectTypeID, err)
		}
	}

	// Фиксируем транзакцию
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	r.logger.Info("Записано %d строк фактов", len(facts))
	return nil
}

// DeleteForYear удаляет все строки фактов, временное измерение которых
// попадает в заданный год; используется при полном пересчете года
func (r *MySQLFactRepository) DeleteForYear(year int) error {
	result, err := r.db.Exec(`
		DELETE f FROM erp_analytics.fact_project_metrics f
		JOIN erp_analytics.dim_time t ON f.dim_time_id = t.id
		WHERE t.year_value = ?
	`, year)
	if err != nil {
		return fmt.Errorf("ошибка при удалении фактов за %d год: %w", year, err)
	}

	deleted, _ := result.RowsAffected()
	r.logger.Info("Удалено %d строк фактов за %d год", deleted, year)
	return nil
}
