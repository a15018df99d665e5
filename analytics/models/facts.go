package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Поддерживаемые гранулярности фактов
const (
	GranularityMonthly   = "monthly"
	GranularityQuarterly = "quarterly"
	GranularityYearly    = "yearly"
)

// ValidateGranularity проверяет, что гранулярность поддерживается
func ValidateGranularity(granularity string) error {
	switch granularity {
	case GranularityMonthly, GranularityQuarterly, GranularityYearly:
		return nil
	default:
		return fmt.Errorf("неподдерживаемая гранулярность: %s", granularity)
	}
}

// FactKey определяет зерно накопления фактов:
// кортеж измерений + гранулярность
// Нулевые идентификаторы контрибьюторов означают отсутствие измерения
type FactKey struct {
	TimeID           int
	ProjectTypeID    int
	ProjectManagerID int
	SalesPersonID    int
	ProjectDirectorID int
	Granularity      string
}

// FactMetrics представляет строку таблицы фактов fact_project_metrics
// Аддитивные счетчики и денежные меры накапливаются сверткой,
// производные поля пересчитываются после каждого обновления
type FactMetrics struct {
	ID int
	FactKey

	// Базовые счетчики
	ProjectCount          int
	ActiveProjectCount    int
	CompletedProjectCount int
	OrderCount            int
	PendingOrderCount     int
	WonOrderCount         int
	SignedOrderCount      int
	LostOrderCount        int
	ContributorCount      int

	// Финансовые меры
	TotalRevenue      decimal.Decimal
	TotalCosts        decimal.Decimal
	GrossMargin       decimal.Decimal
	MarginPercentage  decimal.Decimal
	PendingRevenue    decimal.Decimal
	AverageOrderValue decimal.Decimal

	// Временные меры
	TotalSoldDays   decimal.Decimal
	TotalWorkedDays decimal.Decimal
	UtilizationRate decimal.Decimal

	// Метаданные
	CalculatedAt  time.Time
	LastProjectID int
	LastOrderID   int
}

// NewFactMetrics создает нулевую строку фактов для заданного кортежа измерений
func NewFactMetrics(key FactKey) *FactMetrics {
	return &FactMetrics{
		FactKey:           key,
		TotalRevenue:      decimal.Zero,
		TotalCosts:        decimal.Zero,
		GrossMargin:       decimal.Zero,
		MarginPercentage:  decimal.Zero,
		PendingRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalSoldDays:     decimal.Zero,
		TotalWorkedDays:   decimal.Zero,
		UtilizationRate:   decimal.Zero,
		CalculatedAt:      time.Now(),
	}
}

var decimalHundred = decimal.NewFromInt(100)

// RecalculateMargins пересчитывает маржу и процент маржи
// Инвариант: GrossMargin == TotalRevenue - TotalCosts после каждой свертки
func (f *FactMetrics) RecalculateMargins() {
	f.GrossMargin = f.TotalRevenue.Sub(f.TotalCosts)

	if f.TotalRevenue.IsPositive() {
		f.MarginPercentage = f.GrossMargin.
			DivRound(f.TotalRevenue, 4).
			Mul(decimalHundred).
			Round(2)
	} else {
		f.MarginPercentage = decimal.Zero
	}
}

// RecalculateAverageOrderValue пересчитывает среднюю стоимость заказа
// Считается как (подтвержденная выручка + потенциальная) / количество заказов
func (f *FactMetrics) RecalculateAverageOrderValue() {
	if f.OrderCount <= 0 {
		return
	}

	total := f.TotalRevenue.Add(f.PendingRevenue)
	f.AverageOrderValue = total.DivRound(decimal.NewFromInt(int64(f.OrderCount)), 2)
}

// RecalculateUtilization пересчитывает коэффициент занятости (%)
// Определен только при положительном количестве проданных дней
func (f *FactMetrics) RecalculateUtilization() {
	if !f.TotalSoldDays.IsPositive() {
		return
	}

	f.UtilizationRate = f.TotalWorkedDays.
		DivRound(f.TotalSoldDays, 4).
		Mul(decimalHundred).
		Round(2)
}
