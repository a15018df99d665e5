// database/filter_options.go
package database

import (
	"database/sql"
	"fmt"
)

// MySQLFilterRepository извлекает допустимые значения фильтров из OLTP базы
type MySQLFilterRepository struct {
	db *sql.DB
}

// NewMySQLFilterRepository создает новый экземпляр MySQLFilterRepository
func NewMySQLFilterRepository(db *sql.DB) *MySQLFilterRepository {
	return &MySQLFilterRepository{db: db}
}

// GetFilterOptions возвращает значения для выпадающих списков дашборда
// В списках участников остаются только пользователи, закрепленные за проектами
func (r *MySQLFilterRepository) GetFilterOptions() (*FilterOptions, error) {
	options := &FilterOptions{}

	types, err := r.projectTypes()
	if err != nil {
		return nil, err
	}
	options.ProjectTypes = types

	options.ProjectManagers, err = r.usersByRole("project_manager_id")
	if err != nil {
		return nil, err
	}

	options.SalesPersons, err = r.usersByRole("sales_person_id")
	if err != nil {
		return nil, err
	}

	options.ProjectDirectors, err = r.usersByRole("project_director_id")
	if err != nil {
		return nil, err
	}

	options.Technologies, err = r.referenceItems("technologies")
	if err != nil {
		return nil, err
	}

	options.ServiceCategories, err = r.referenceItems("service_categories")
	if err != nil {
		return nil, err
	}

	return options, nil
}

// projectTypes возвращает список используемых типов проектов
func (r *MySQLFilterRepository) projectTypes() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT project_type
		FROM projects
		ORDER BY project_type
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе типов проектов: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var projectType string
		if err := rows.Scan(&projectType); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании типа проекта: %w", err)
		}
		types = append(types, projectType)
	}

	return types, rows.Err()
}

// usersByRole возвращает пользователей, встречающихся в указанной роли проекта
func (r *MySQLFilterRepository) usersByRole(roleColumn string) ([]OptionItem, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT u.id, IFNULL(NULLIF(u.full_name, ''), u.email)
		FROM users u
		JOIN projects p ON p.%s = u.id
		ORDER BY 2
	`, roleColumn)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе пользователей по роли %s: %w", roleColumn, err)
	}
	defer rows.Close()

	return scanOptionItems(rows)
}

// referenceItems возвращает содержимое справочной таблицы (id, name)
func (r *MySQLFilterRepository) referenceItems(table string) ([]OptionItem, error) {
	query := fmt.Sprintf("SELECT id, name FROM %s ORDER BY name", table)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе справочника %s: %w", table, err)
	}
	defer rows.Close()

	return scanOptionItems(rows)
}

func scanOptionItems(rows *sql.Rows) ([]OptionItem, error) {
	var items []OptionItem
	for rows.Next() {
		var item OptionItem
		if err := rows.Scan(&item.ID, &item.Label); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании пункта списка: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
