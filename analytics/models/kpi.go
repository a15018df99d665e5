package models

import (
	"fmt"
	"time"
)

// Источник данных KPI-отчета
const (
	SourceMaterialized = "materialized"
	SourceRealtime     = "realtime"
)

// KPIFilters представляет закрытый набор динамических фильтров дашборда
// Нулевые значения означают отсутствие фильтра
type KPIFilters struct {
	ProjectType       string `json:"project_type,omitempty"`
	ProjectManagerID  int    `json:"project_manager_id,omitempty"`
	SalesPersonID     int    `json:"sales_person_id,omitempty"`
	ProjectDirectorID int    `json:"project_director_id,omitempty"`
	TechnologyID      int    `json:"technology_id,omitempty"`
	ServiceCategoryID int    `json:"service_category_id,omitempty"`
}

// IsEmpty сообщает, задан ли хотя бы один фильтр
func (f KPIFilters) IsEmpty() bool {
	return f == KPIFilters{}
}

// Key возвращает каноническое строковое представление фильтров
// Используется при построении ключей кеша
func (f KPIFilters) Key() string {
	return fmt.Sprintf("pt=%s|pm=%d|sp=%d|pd=%d|tech=%d|sc=%d",
		f.ProjectType, f.ProjectManagerID, f.SalesPersonID,
		f.ProjectDirectorID, f.TechnologyID, f.ServiceCategoryID)
}

// PeriodMetrics описывает период отчета
type PeriodMetrics struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RevenueMetrics — финансовые итоги периода
type RevenueMetrics struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	TotalMargin  float64 `json:"total_margin"`
	MarginRate   float64 `json:"margin_rate"`
}

// ProjectMetrics — итоги по проектам с разбивками
type ProjectMetrics struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Completed    int            `json:"completed"`
	InPeriod     int            `json:"in_period"`
	ByType       map[string]int `json:"by_type"`
	ByClientType map[string]int `json:"by_client_type"`
	ByCategory   map[string]int `json:"by_category"`
}

// OrderMetrics — итоги по заказам
type OrderMetrics struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Won            int     `json:"won"`
	Signed         int     `json:"signed"`
	Lost           int     `json:"lost"`
	ConversionRate float64 `json:"conversion_rate"`
	PendingRevenue float64 `json:"pending_revenue"`
}

// ContributorStat — одна строка топа контрибьюторов по выручке
type ContributorStat struct {
	Name       string  `json:"name"`
	Revenue    float64 `json:"revenue"`
	WorkedDays float64 `json:"worked_days"`
}

// ContributorMetrics — итоги по контрибьюторам
type ContributorMetrics struct {
	Active int               `json:"active"`
	Top    []ContributorStat `json:"top"`
}

// TimeMetrics — итоги по времени и занятости
type TimeMetrics struct {
	TotalHours          float64 `json:"total_hours"`
	TotalDays           float64 `json:"total_days"`
	WorkingDaysInPeriod int     `json:"working_days_in_period"`
	TheoreticalCapacity float64 `json:"theoretical_capacity"`
	OccupationRate      float64 `json:"occupation_rate"`
}

// KPIReport — полный KPI-отчет за период
// Поле Source различает предрассчитанный и рассчитанный на лету результат
type KPIReport struct {
	Period       PeriodMetrics      `json:"period"`
	Revenue      RevenueMetrics     `json:"revenue"`
	Projects     ProjectMetrics     `json:"projects"`
	Orders       OrderMetrics       `json:"orders"`
	Contributors ContributorMetrics `json:"contributors"`
	Time         TimeMetrics        `json:"time"`
	Source       string             `json:"source"`
}

// MonthRecord — одна точка помесячной эволюции выручки и маржи
type MonthRecord struct {
	Month      string  `json:"month"`       // Формат: "2025-01"
	MonthLabel string  `json:"month_label"` // Формат: "Janvier 2025"
	Revenue    float64 `json:"revenue"`
	Cost       float64 `json:"cost"`
	Margin     float64 `json:"margin"`
}
