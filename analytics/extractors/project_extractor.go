package extractors

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// ProjectExtractor отвечает за извлечение проектов из OLTP
// вместе с их заказами и таймшитами для материализации
type ProjectExtractor struct {
	oltpDB *sql.DB
	logger *utils.MetricsLogger
}

// NewProjectExtractor создает новый экземпляр ProjectExtractor
func NewProjectExtractor(oltpDB *sql.DB, logger *utils.MetricsLogger) *ProjectExtractor {
	return &ProjectExtractor{
		oltpDB: oltpDB,
		logger: logger,
	}
}

// ExtractProjectsForPeriod извлекает все проекты, активное окно которых
// пересекается с периодом [startDate, endDate], включая их заказы и таймшиты
func (e *ProjectExtractor) ExtractProjectsForPeriod(startDate, endDate time.Time) ([]*models.Project, error) {
	extractStart := time.Now()

	projects, err := e.extractProjects(startDate, endDate)
	if err != nil {
		return nil, err
	}

	if len(projects) == 0 {
		e.logger.Debug("Нет проектов в периоде %s - %s",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
		return projects, nil
	}

	byID := make(map[int]*models.Project, len(projects))
	ids := make([]int, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	if err := e.attachOrders(byID, ids); err != nil {
		return nil, err
	}

	if err := e.attachTimesheets(byID, ids); err != nil {
		return nil, err
	}

	e.logger.Debug("Извлечено %d проектов за %v", len(projects), time.Since(extractStart))
	return projects, nil
}

// extractProjects извлекает проекты, пересекающиеся с периодом,
// вместе со ссылками на руководителя, коммерсанта и директора
func (e *ProjectExtractor) extractProjects(startDate, endDate time.Time) ([]*models.Project, error) {
	rows, err := e.oltpDB.Query(`
		SELECT
			p.id, p.name, p.status, p.project_type,
			IFNULL(sc.name, ''), p.is_internal,
			IFNULL(p.purchases_amount, 0), IFNULL(p.total_sold_days, 0),
			p.start_date, p.end_date,
			pm.id, IFNULL(pm.full_name, ''), IFNULL(pm.email, ''),
			sp.id, IFNULL(sp.full_name, ''), IFNULL(sp.email, ''),
			pd.id, IFNULL(pd.full_name, ''), IFNULL(pd.email, '')
		FROM erp.projects p
		LEFT JOIN erp.service_categories sc ON p.service_category_id = sc.id
		LEFT JOIN erp.users pm ON p.project_manager_id = pm.id
		LEFT JOIN erp.users sp ON p.sales_person_id = sp.id
		LEFT JOIN erp.users pd ON p.project_director_id = pd.id
		WHERE p.start_date <= ? AND (p.end_date >= ? OR p.end_date IS NULL)
		ORDER BY p.id
	`, endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("ошибка при извлечении проектов: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		var purchases, soldDays string
		var endDate sql.NullTime
		var pmID, spID, pdID sql.NullInt64
		var pmName, pmEmail, spName, spEmail, pdName, pdEmail string

		err := rows.Scan(
			&p.ID, &p.Name, &p.Status, &p.ProjectType,
			&p.ServiceCategory, &p.IsInternal,
			&purchases, &soldDays,
			&p.StartDate, &endDate,
			&pmID, &pmName, &pmEmail,
			&spID, &spName, &spEmail,
			&pdID, &pdName, &pdEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании проекта: %w", err)
		}

		p.PurchasesAmount, err = decimal.NewFromString(purchases)
		if err != nil {
			return nil, fmt.Errorf("ошибка при разборе суммы закупок проекта %d: %w", p.ID, err)
		}

		p.TotalSoldDays, err = decimal.NewFromString(soldDays)
		if err != nil {
			return nil, fmt.Errorf("ошибка при разборе проданных дней проекта %d: %w", p.ID, err)
		}

		if endDate.Valid {
			p.EndDate = &endDate.Time
		}

		p.ProjectManager = contributorRef(pmID, pmName, pmEmail)
		p.SalesPerson = contributorRef(spID, spName, spEmail)
		p.ProjectDirector = contributorRef(pdID, pdName, pdEmail)

		projects = append(projects, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по проектам: %w", err)
	}

	return projects, nil
}

// attachOrders загружает заказы извлеченных проектов
func (e *ProjectExtractor) attachOrders(byID map[int]*models.Project, ids []int) error {
	query := fmt.Sprintf(`
		SELECT o.id, o.project_id, o.status, o.total_amount, o.created_at
		FROM erp.orders o
		WHERE o.project_id IN (%s)
		ORDER BY o.id
	`, placeholders(len(ids)))

	rows, err := e.oltpDB.Query(query, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("ошибка при извлечении заказов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.OrderOLTP
		var amount string

		if err := rows.Scan(&o.ID, &o.ProjectID, &o.Status, &amount, &o.CreatedAt); err != nil {
			return fmt.Errorf("ошибка при сканировании заказа: %w", err)
		}

		o.TotalAmount, err = decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("ошибка при разборе суммы заказа %d: %w", o.ID, err)
		}

		if p, ok := byID[o.ProjectID]; ok {
			p.Orders = append(p.Orders, o)
		}
	}

	return rows.Err()
}

// attachTimesheets загружает таймшиты извлеченных проектов
// вместе с дневной ставкой (CJM) контрибьютора
func (e *ProjectExtractor) attachTimesheets(byID map[int]*models.Project, ids []int) error {
	query := fmt.Sprintf(`
		SELECT t.id, t.project_id, t.contributor_id, t.hours, IFNULL(c.cjm, 0), t.work_date
		FROM erp.timesheets t
		LEFT JOIN erp.contributors c ON t.contributor_id = c.id
		WHERE t.project_id IN (%s)
		ORDER BY t.id
	`, placeholders(len(ids)))

	rows, err := e.oltpDB.Query(query, intArgs(ids)...)
	if err != nil {
		return fmt.Errorf("ошибка при извлечении таймшитов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts models.TimesheetOLTP
		var hours, cjm string

		if err := rows.Scan(&ts.ID, &ts.ProjectID, &ts.ContributorID, &hours, &cjm, &ts.WorkDate); err != nil {
			return fmt.Errorf("ошибка при сканировании таймшита: %w", err)
		}

		ts.Hours, err = decimal.NewFromString(hours)
		if err != nil {
			return fmt.Errorf("ошибка при разборе часов таймшита %d: %w", ts.ID, err)
		}

		ts.DailyCost, err = decimal.NewFromString(cjm)
		if err != nil {
			return fmt.Errorf("ошибка при разборе дневной ставки таймшита %d: %w", ts.ID, err)
		}

		if p, ok := byID[ts.ProjectID]; ok {
			p.Timesheets = append(p.Timesheets, ts)
		}
	}

	return rows.Err()
}

// contributorRef строит ссылку на пользователя из nullable-колонок
func contributorRef(id sql.NullInt64, name, email string) *models.ProjectContributor {
	if !id.Valid {
		return nil
	}

	return &models.ProjectContributor{
		ID:    int(id.Int64),
		Name:  name,
		Email: email,
	}
}

// placeholders строит список плейсхолдеров "?, ?, ..." для IN-условия
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// intArgs преобразует идентификаторы в аргументы запроса
func intArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
