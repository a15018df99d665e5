package materialize

import (
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/models"
)

// PeriodRange возвращает границы календарного периода,
// которому принадлежит дата при заданной гранулярности
func PeriodRange(date time.Time, granularity string) (time.Time, time.Time, error) {
	year, month, _ := date.Date()

	switch granularity {
	case models.GranularityMonthly:
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	case models.GranularityQuarterly:
		quarterStartMonth := time.Month((int(month)-1)/3*3 + 1)
		start := time.Date(year, quarterStartMonth, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, -1)
		return start, end, nil
	case models.GranularityYearly:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("неподдерживаемая гранулярность: %s", granularity)
	}
}

// ParsePeriod разбирает период командной строки:
// "2025" — весь год, "2025-03" — конкретный месяц
// Возвращает дату начала периода и признак, что период охватывает год
func ParsePeriod(period string) (time.Time, bool, error) {
	if date, err := time.Parse("2006-01", period); err == nil {
		return date, false, nil
	}

	if date, err := time.Parse("2006", period); err == nil {
		return date, true, nil
	}

	return time.Time{}, false, fmt.Errorf("неверный формат периода %q, ожидается YYYY или YYYY-MM", period)
}
