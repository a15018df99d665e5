// routes/api_routes.go
package routes

import (
	"github.com/LilVoxy/coursework_erp/analytics/cache"
	"github.com/LilVoxy/coursework_erp/analytics/materialize"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/query"
	"github.com/LilVoxy/coursework_erp/database"
	"github.com/LilVoxy/coursework_erp/middleware"
	"github.com/gorilla/mux"
)

// Dependencies — зависимости обработчиков API дашборда
type Dependencies struct {
	ReadService *query.ReadService
	Job         *materialize.Job
	RunLogRepo  models.RunLogRepository
	FilterRepo  *database.MySQLFilterRepository
	Cache       *cache.ReportCache
}

// SetupRoutes настраивает все маршруты API аналитики
func SetupRoutes(router *mux.Router, deps Dependencies) {
	// Применяем CORS middleware
	router.Use(middleware.CORSMiddleware)

	// API KPI-отчетов
	router.HandleFunc("/api/analytics/kpis", GetKPIsHandler(deps.ReadService)).Methods("GET", "OPTIONS")

	// API помесячной эволюции
	router.HandleFunc("/api/analytics/evolution", GetEvolutionHandler(deps.ReadService)).Methods("GET", "OPTIONS")

	// API значений фильтров
	router.HandleFunc("/api/analytics/filters", GetFiltersHandler(deps.FilterRepo)).Methods("GET", "OPTIONS")

	// API запуска пересчета
	router.HandleFunc("/api/analytics/recalculate", RecalculateHandler(deps.Job, deps.Cache)).Methods("POST", "OPTIONS")

	// API журнала запусков материализации
	router.HandleFunc("/api/analytics/runs", GetRunsHandler(deps.RunLogRepo)).Methods("GET", "OPTIONS")
}
