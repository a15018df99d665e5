package models

import (
	"time"
)

// MaterializationRunLog представляет запись журнала запусков материализации
type MaterializationRunLog struct {
	ID                   string    `json:"id"` // UUID запуска
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	PeriodDate           time.Time `json:"period_date"`
	Granularity          string    `json:"granularity"`
	ProjectsProcessed    int       `json:"projects_processed"`
	FactsWritten         int       `json:"facts_written"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunLogRepository представляет репозиторий журнала запусков материализации
type RunLogRepository interface {
	// CreateEntry создает новую запись о запуске материализации
	CreateEntry(runID string, startTime, periodDate time.Time, granularity string) error

	// MarkSuccess обновляет запись при успешном завершении запуска
	MarkSuccess(runID string, endTime time.Time, projectsProcessed, factsWritten int) error

	// MarkFailure обновляет запись при неудачном завершении запуска
	MarkFailure(runID string, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске
	GetLastSuccessfulRun() (*MaterializationRunLog, error)

	// GetRecentRuns получает запуски за последние N дней
	GetRecentRuns(days int) ([]MaterializationRunLog, error)
}
