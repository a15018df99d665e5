// routes/kpi_handlers.go
package routes

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/query"
)

// EvolutionResponse структура ответа API для помесячной эволюции
type EvolutionResponse struct {
	Months []models.MonthRecord `json:"months"`
}

// parseFilters извлекает динамические фильтры из параметров запроса
func parseFilters(values map[string][]string) (models.KPIFilters, error) {
	get := func(name string) string {
		if v, ok := values[name]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	getInt := func(name string) (int, error) {
		raw := get(name)
		if raw == "" {
			return 0, nil
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("неверный формат параметра %s", name)
		}
		return id, nil
	}

	filters := models.KPIFilters{ProjectType: get("project_type")}

	var err error
	if filters.ProjectManagerID, err = getInt("project_manager_id"); err != nil {
		return filters, err
	}
	if filters.SalesPersonID, err = getInt("sales_person_id"); err != nil {
		return filters, err
	}
	if filters.ProjectDirectorID, err = getInt("project_director_id"); err != nil {
		return filters, err
	}
	if filters.TechnologyID, err = getInt("technology_id"); err != nil {
		return filters, err
	}
	if filters.ServiceCategoryID, err = getInt("service_category_id"); err != nil {
		return filters, err
	}

	return filters, nil
}

// parsePeriod преобразует именованный период дашборда в границы дат
// Поддерживаются today, week, month, quarter, year и custom (from/to)
func parsePeriod(values map[string][]string, now time.Time) (time.Time, time.Time, error) {
	get := func(name string) string {
		if v, ok := values[name]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	period := get("period")
	if period == "" {
		period = "month"
	}

	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	switch period {
	case "today":
		return today, today, nil
	case "week":
		// Неделя начинается с понедельника
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), nil
	case "month":
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	case "quarter":
		quarterMonth := time.Month((int(month)-1)/3*3 + 1)
		start := time.Date(year, quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 3, -1), nil
	case "year":
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), nil
	case "custom":
		from, err := time.Parse("2006-01-02", get("from"))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("неверный формат параметра from")
		}
		to, err := time.Parse("2006-01-02", get("to"))
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("неверный формат параметра to")
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("параметр to раньше параметра from")
		}
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("неизвестный период: %s", period)
	}
}

// GetKPIsHandler обрабатывает запросы KPI-отчета за период
func GetKPIsHandler(readService *query.ReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()

		startDate, endDate, err := parsePeriod(values, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		filters, err := parseFilters(values)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		report, err := readService.GetKPIs(startDate, endDate, filters)
		if err != nil {
			log.Printf("❌ Ошибка при получении KPI: %v", err)
			http.Error(w, "Ошибка при расчете KPI", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			log.Printf("❌ Ошибка при кодировании JSON: %v", err)
			http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Отправлен KPI-отчет за %s — %s (источник: %s)",
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), report.Source)
	}
}

// GetEvolutionHandler обрабатывает запросы помесячной эволюции выручки
func GetEvolutionHandler(readService *query.ReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()

		months := 12
		if raw := r.URL.Query().Get("months"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 36 {
				http.Error(w, "Неверный формат параметра months", http.StatusBadRequest)
				return
			}
			months = parsed
		}

		filters, err := parseFilters(values)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		records, err := readService.GetMonthlyEvolution(months, filters)
		if err != nil {
			log.Printf("❌ Ошибка при получении эволюции: %v", err)
			http.Error(w, "Ошибка при расчете эволюции", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(EvolutionResponse{Months: records}); err != nil {
			log.Printf("❌ Ошибка при кодировании JSON: %v", err)
			http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
			return
		}

		log.Printf("✅ Отправлена эволюция за %d месяцев", months)
	}
}
