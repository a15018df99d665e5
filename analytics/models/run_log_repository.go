package models

import (
	"database/sql"
	"fmt"
	"time"
)

// MySQLRunLogRepository реализация RunLogRepository для MySQL
type MySQLRunLogRepository struct {
	db *sql.DB
}

// NewMySQLRunLogRepository создает новый экземпляр MySQLRunLogRepository
func NewMySQLRunLogRepository(db *sql.DB) *MySQLRunLogRepository {
	return &MySQLRunLogRepository{
		db: db,
	}
}

// CreateRunLogTable создает таблицу журнала запусков, если она не существует
func (r *MySQLRunLogRepository) CreateRunLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS erp_analytics.materialization_run_log (
		id CHAR(36) PRIMARY KEY,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		period_date DATE NOT NULL,
		granularity VARCHAR(20) NOT NULL,
		projects_processed INT DEFAULT 0,
		facts_written INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT
	);
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы materialization_run_log: %w", err)
	}

	return nil
}

// CreateEntry создает новую запись о запуске материализации
func (r *MySQLRunLogRepository) CreateEntry(runID string, startTime, periodDate time.Time, granularity string) error {
	query := `
	INSERT INTO erp_analytics.materialization_run_log (id, start_time, period_date, granularity, status)
	VALUES (?, ?, ?, ?, 'in_progress')
	`

	_, err := r.db.Exec(query, runID, startTime, periodDate.Format("2006-01-02"), granularity)
	if err != nil {
		return fmt.Errorf("ошибка при создании записи о запуске материализации: %w", err)
	}

	return nil
}

// MarkSuccess обновляет запись при успешном завершении запуска
func (r *MySQLRunLogRepository) MarkSuccess(runID string, endTime time.Time, projectsProcessed, factsWritten int) error {
	executionTime, err := r.executionSeconds(runID, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE erp_analytics.materialization_run_log
	SET
		end_time = ?,
		status = 'success',
		projects_processed = ?,
		facts_written = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, projectsProcessed, factsWritten, executionTime, runID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске материализации: %w", err)
	}

	return nil
}

// MarkFailure обновляет запись при неудачном завершении запуска
func (r *MySQLRunLogRepository) MarkFailure(runID string, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionSeconds(runID, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE erp_analytics.materialization_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, executionTime, runID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске материализации: %w", err)
	}

	return nil
}

// executionSeconds рассчитывает длительность запуска в секундах
func (r *MySQLRunLogRepository) executionSeconds(runID string, endTime time.Time) (float64, error) {
	var startTime time.Time
	err := r.db.QueryRow(
		"SELECT start_time FROM erp_analytics.materialization_run_log WHERE id = ?", runID,
	).Scan(&startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении времени начала запуска: %w", err)
	}

	return endTime.Sub(startTime).Seconds(), nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске
func (r *MySQLRunLogRepository) GetLastSuccessfulRun() (*MaterializationRunLog, error) {
	query := `
	SELECT
		id, start_time, end_time, status, period_date, granularity,
		projects_processed, facts_written, IFNULL(error_message, ''), execution_time_seconds
	FROM erp_analytics.materialization_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	var log MaterializationRunLog
	err := r.db.QueryRow(query).Scan(
		&log.ID, &log.StartTime, &log.EndTime, &log.Status, &log.PeriodDate, &log.Granularity,
		&log.ProjectsProcessed, &log.FactsWritten, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет успешных запусков
		}
		return nil, fmt.Errorf("ошибка при получении последнего успешного запуска: %w", err)
	}

	return &log, nil
}

// GetRecentRuns получает запуски материализации за последние N дней
func (r *MySQLRunLogRepository) GetRecentRuns(days int) ([]MaterializationRunLog, error) {
	query := `
	SELECT
		id, start_time, IFNULL(end_time, NOW()), status, period_date, granularity,
		projects_processed, facts_written, IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)
	FROM erp_analytics.materialization_run_log
	WHERE start_time >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY start_time DESC
	`

	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала запусков: %w", err)
	}
	defer rows.Close()

	var logs []MaterializationRunLog
	for rows.Next() {
		var log MaterializationRunLog
		err := rows.Scan(
			&log.ID, &log.StartTime, &log.EndTime, &log.Status, &log.PeriodDate, &log.Granularity,
			&log.ProjectsProcessed, &log.FactsWritten, &log.ErrorMessage, &log.ExecutionTimeSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи журнала запусков: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по журналу запусков: %w", err)
	}

	return logs, nil
}
