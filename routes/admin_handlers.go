// routes/admin_handlers.go
package routes

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/LilVoxy/coursework_erp/analytics/cache"
	"github.com/LilVoxy/coursework_erp/analytics/materialize"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/database"
)

// RecalculateResponse структура ответа API запуска пересчета
type RecalculateResponse struct {
	Status string `json:"status"`
	Period string `json:"period"`
}

// RunsResponse структура ответа API журнала запусков
type RunsResponse struct {
	Runs []models.MaterializationRunLog `json:"runs"`
}

// RecalculateHandler запускает пересчет витрины за период
// Параметр period принимает "2025" (полный пересчет года) или "2025-03"
func RecalculateHandler(job *materialize.Job, reportCache *cache.ReportCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			http.Error(w, "Отсутствует обязательный параметр period", http.StatusBadRequest)
			return
		}

		date, isYear, err := materialize.ParsePeriod(period)
		if err != nil {
			http.Error(w, "Неверный формат параметра period (ожидается 2025 или 2025-03)", http.StatusBadRequest)
			return
		}

		if isYear {
			err = job.RecomputeYear(date.Year())
		} else {
			err = job.Materialize(date, models.GranularityMonthly)
		}

		if err != nil {
			log.Printf("❌ Ошибка при пересчете периода %s: %v", period, err)
			http.Error(w, "Ошибка при пересчете витрины", http.StatusInternalServerError)
			return
		}

		// Сбрасываем кеш отчетов, чтобы дашборд увидел свежие данные
		reportCache.Flush()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(RecalculateResponse{
			Status: "success",
			Period: period,
		}); err != nil {
			log.Printf("❌ Ошибка при кодировании JSON: %v", err)
			http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Пересчет периода %s завершен", period)
	}
}

// GetRunsHandler возвращает журнал запусков материализации
func GetRunsHandler(runLogRepo models.RunLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 365 {
				http.Error(w, "Неверный формат параметра days", http.StatusBadRequest)
				return
			}
			days = parsed
		}

		runs, err := runLogRepo.GetRecentRuns(days)
		if err != nil {
			log.Printf("❌ Ошибка при запросе журнала запусков: %v", err)
			http.Error(w, "Ошибка при получении журнала запусков", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(RunsResponse{Runs: runs}); err != nil {
			log.Printf("❌ Ошибка при кодировании JSON: %v", err)
			http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Отправлен журнал из %d запусков за %d дней", len(runs), days)
	}
}

// GetFiltersHandler возвращает допустимые значения фильтров дашборда
func GetFiltersHandler(filterRepo *database.MySQLFilterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := filterRepo.GetFilterOptions()
		if err != nil {
			log.Printf("❌ Ошибка при запросе значений фильтров: %v", err)
			http.Error(w, "Ошибка при получении значений фильтров", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(options); err != nil {
			log.Printf("❌ Ошибка при кодировании JSON: %v", err)
			http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
			return
		}
	}
}
