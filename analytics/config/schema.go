package config

import (
	"database/sql"
	"fmt"
)

// Таблицы звёздной схемы в erp_analytics
// Уникальные ключи измерений обеспечивают атомарный get-or-create,
// уникальный ключ фактов — идемпотентный upsert при перематериализации
var starSchemaTables = []string{
	`CREATE TABLE IF NOT EXISTS erp_analytics.dim_time (
		id INT AUTO_INCREMENT PRIMARY KEY,
		date_value DATE NOT NULL,
		year_value INT NOT NULL,
		quarter_value INT NOT NULL,
		month_value INT NOT NULL,
		period_year_month VARCHAR(20) NOT NULL,
		period_year_quarter VARCHAR(20) NOT NULL,
		month_name VARCHAR(50) NOT NULL,
		quarter_name VARCHAR(50) NOT NULL,
		UNIQUE KEY uniq_dim_time_date (date_value)
	);`,

	`CREATE TABLE IF NOT EXISTS erp_analytics.dim_project_type (
		id INT AUTO_INCREMENT PRIMARY KEY,
		project_type VARCHAR(20) NOT NULL,
		service_category VARCHAR(50) NULL,
		status_value VARCHAR(20) NOT NULL,
		is_internal TINYINT(1) NOT NULL DEFAULT 0,
		composite_key VARCHAR(150) NOT NULL,
		UNIQUE KEY uniq_dim_project_type_key (composite_key)
	);`,

	`CREATE TABLE IF NOT EXISTS erp_analytics.dim_contributor (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		name_value VARCHAR(180) NOT NULL,
		role_value VARCHAR(50) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		composite_key VARCHAR(250) NOT NULL,
		UNIQUE KEY uniq_dim_contributor_key (composite_key)
	);`,

	`CREATE TABLE IF NOT EXISTS erp_analytics.fact_project_metrics (
		id INT AUTO_INCREMENT PRIMARY KEY,
		dim_time_id INT NOT NULL,
		dim_project_type_id INT NOT NULL,
		dim_project_manager_id INT NOT NULL DEFAULT 0,
		dim_sales_person_id INT NOT NULL DEFAULT 0,
		dim_project_director_id INT NOT NULL DEFAULT 0,
		granularity VARCHAR(20) NOT NULL,
		project_count INT NOT NULL DEFAULT 0,
		active_project_count INT NOT NULL DEFAULT 0,
		completed_project_count INT NOT NULL DEFAULT 0,
		order_count INT NOT NULL DEFAULT 0,
		pending_order_count INT NOT NULL DEFAULT 0,
		won_order_count INT NOT NULL DEFAULT 0,
		signed_order_count INT NOT NULL DEFAULT 0,
		lost_order_count INT NOT NULL DEFAULT 0,
		contributor_count INT NOT NULL DEFAULT 0,
		total_revenue DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		total_costs DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		gross_margin DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		margin_percentage DECIMAL(5,2) NOT NULL DEFAULT 0.00,
		pending_revenue DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		average_order_value DECIMAL(15,2) NOT NULL DEFAULT 0.00,
		total_sold_days DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		total_worked_days DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		utilization_rate DECIMAL(5,2) NOT NULL DEFAULT 0.00,
		calculated_at DATETIME NOT NULL,
		last_project_id INT NOT NULL DEFAULT 0,
		last_order_id INT NOT NULL DEFAULT 0,
		UNIQUE KEY uniq_fact_metrics (
			dim_time_id, dim_project_type_id, dim_project_manager_id,
			dim_sales_person_id, dim_project_director_id, granularity
		),
		KEY idx_fact_metrics_time (dim_time_id),
		KEY idx_fact_metrics_granularity (granularity)
	);`,
}

// EnsureStarSchema создает таблицы звёздной схемы, если они еще не существуют
func EnsureStarSchema(db *sql.DB) error {
	for _, query := range starSchemaTables {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("ошибка при создании таблицы звёздной схемы: %w", err)
		}
	}

	return nil
}
