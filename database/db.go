// database/db.go
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// OptionItem — один пункт выпадающего списка фильтров дашборда
type OptionItem struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// FilterOptions — допустимые значения динамических фильтров дашборда
type FilterOptions struct {
	ProjectTypes      []string     `json:"project_types"`
	ProjectManagers   []OptionItem `json:"project_managers"`
	SalesPersons      []OptionItem `json:"sales_persons"`
	ProjectDirectors  []OptionItem `json:"project_directors"`
	Technologies      []OptionItem `json:"technologies"`
	ServiceCategories []OptionItem `json:"service_categories"`
}

// Connect открывает соединение с базой данных по DSN и проверяет его
func Connect(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка при открытии соединения с БД: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка при проверке соединения с БД: %w", err)
	}

	return db, nil
}
