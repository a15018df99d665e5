package dimensions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// Resolver отвечает за поиск или создание строк измерений
// Каждое разрешение выполняется одним атомарным upsert-запросом по
// уникальному естественному ключу и фиксируется немедленно, поэтому
// последующие разрешения в рамках того же запуска видят новую строку
type Resolver struct {
	olapDB *sql.DB
	logger *utils.MetricsLogger
}

// NewResolver создает новый экземпляр Resolver
func NewResolver(olapDB *sql.DB, logger *utils.MetricsLogger) *Resolver {
	return &Resolver{
		olapDB: olapDB,
		logger: logger,
	}
}

// ResolveTime находит или создает строку временного измерения по дате
func (r *Resolver) ResolveTime(date time.Time) (int, error) {
	dim := models.NewTimeDimension(date)

	result, err := r.olapDB.Exec(`
		INSERT INTO erp_analytics.dim_time
		(date_value, year_value, quarter_value, month_value,
		 period_year_month, period_year_quarter, month_name, quarter_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`,
		dim.Date.Format("2006-01-02"),
		dim.Year,
		dim.Quarter,
		dim.Month,
		dim.YearMonth,
		dim.YearQuarter,
		dim.MonthName,
		dim.QuarterName,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка при разрешении временного измерения %s: %w",
			dim.Date.Format("2006-01-02"), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID временного измерения: %w", err)
	}

	r.logger.Debug("Временное измерение %s разрешено в ID %d", dim.YearMonth, id)
	return int(id), nil
}

// ResolveProjectType находит или создает строку измерения типа проекта
// Идентичность определяется составным ключом из четырех исходных полей
func (r *Resolver) ResolveProjectType(project *models.Project) (int, error) {
	dim := models.NewProjectTypeDimension(
		project.ProjectType,
		project.ServiceCategory,
		project.Status,
		project.IsInternal,
	)

	var serviceCategory sql.NullString
	if dim.ServiceCategory != "" {
		serviceCategory = sql.NullString{String: dim.ServiceCategory, Valid: true}
	}

	result, err := r.olapDB.Exec(`
		INSERT INTO erp_analytics.dim_project_type
		(project_type, service_category, status_value, is_internal, composite_key)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`,
		dim.ProjectType,
		serviceCategory,
		dim.Status,
		dim.IsInternal,
		dim.CompositeKey,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка при разрешении измерения типа проекта %s: %w", dim.CompositeKey, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID измерения типа проекта: %w", err)
	}

	return int(id), nil
}

// ResolveContributor находит или создает строку измерения контрибьютора
// для пары (пользователь, роль); поиск ограничен активными строками
// Для отсутствующего пользователя возвращается 0
func (r *Resolver) ResolveContributor(user *models.ProjectContributor, role string) (int, error) {
	if user == nil {
		return 0, nil
	}

	dim := models.NewContributorDimension(user.ID, user.Name, user.Email, role)

	result, err := r.olapDB.Exec(`
		INSERT INTO erp_analytics.dim_contributor
		(user_id, name_value, role_value, is_active, composite_key)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`,
		dim.UserID,
		dim.Name,
		dim.Role,
		dim.IsActive,
		dim.CompositeKey,
	)
	if err != nil {
		return 0, fmt.Errorf("ошибка при разрешении измерения контрибьютора %d (%s): %w",
			user.ID, role, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID измерения контрибьютора: %w", err)
	}

	return int(id), nil
}
