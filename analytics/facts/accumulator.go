package facts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilVoxy/coursework_erp/analytics/models"
)

var decimalEight = decimal.NewFromInt(8)

// Accumulator накапливает строки фактов в рамках одного запуска материализации
// Строки начинаются с нулевых значений и на фиксации перезаписывают
// существующие строки тех же кортежей, поэтому повторная материализация
// периода не приводит к двойному счету
type Accumulator struct {
	run map[models.FactKey]*models.FactMetrics
}

// NewAccumulator создает новый аккумулятор для запуска материализации
func NewAccumulator() *Accumulator {
	return &Accumulator{
		run: make(map[models.FactKey]*models.FactMetrics),
	}
}

// Get возвращает строку фактов для кортежа измерений,
// создавая нулевую строку при первом обращении
func (a *Accumulator) Get(key models.FactKey) *models.FactMetrics {
	if fact, ok := a.run[key]; ok {
		return fact
	}

	fact := models.NewFactMetrics(key)
	a.run[key] = fact
	return fact
}

// Facts возвращает все накопленные строки фактов запуска
func (a *Accumulator) Facts() []*models.FactMetrics {
	facts := make([]*models.FactMetrics, 0, len(a.run))
	for _, fact := range a.run {
		facts = append(facts, fact)
	}
	return facts
}

// Len возвращает количество накопленных строк фактов
func (a *Accumulator) Len() int {
	return len(a.run)
}

// Fold сворачивает меры одного проекта (и опционально заказа) в строку фактов
// Проект без заказов сворачивается один раз с order == nil и вносит вклад
// только в счетчики проектов и метрики затрат и времени
func (a *Accumulator) Fold(fact *models.FactMetrics, project *models.Project, order *models.OrderOLTP) {
	// Базовые счетчики
	fact.ProjectCount++

	switch project.Status {
	case models.ProjectStatusActive:
		fact.ActiveProjectCount++
	case models.ProjectStatusCompleted:
		fact.CompletedProjectCount++
	}

	if order != nil {
		fact.OrderCount++

		switch order.Status {
		case models.OrderStatusPending:
			fact.PendingOrderCount++
			fact.PendingRevenue = fact.PendingRevenue.Add(order.TotalAmount)
		case models.OrderStatusWon:
			fact.WonOrderCount++
			fact.TotalRevenue = fact.TotalRevenue.Add(order.TotalAmount)
		case models.OrderStatusSigned:
			fact.WonOrderCount++
			fact.SignedOrderCount++
			fact.TotalRevenue = fact.TotalRevenue.Add(order.TotalAmount)
		case models.OrderStatusLost, models.OrderStatusAbandoned:
			// Учитываются в количестве заказов, но не двигают денежные меры
			fact.LostOrderCount++
		}

		fact.RecalculateAverageOrderValue()
	}

	// Затраты и маржа
	fact.TotalCosts = fact.TotalCosts.Add(projectCosts(project))
	fact.RecalculateMargins()

	// Временные меры и занятость
	fact.TotalSoldDays = fact.TotalSoldDays.Add(project.TotalSoldDays)
	fact.TotalWorkedDays = fact.TotalWorkedDays.Add(projectWorkedDays(project))
	fact.RecalculateUtilization()

	// Метаданные трассировки
	fact.CalculatedAt = time.Now()
	fact.LastProjectID = project.ID
	if order != nil {
		fact.LastOrderID = order.ID
	}
}

// projectCosts считает затраты проекта:
// сумма закупок плюс почасовая стоимость списанного времени,
// где часовая ставка выводится из дневной (CJM / 8)
func projectCosts(project *models.Project) decimal.Decimal {
	costs := project.PurchasesAmount

	for _, ts := range project.Timesheets {
		if ts.DailyCost.IsZero() {
			continue
		}

		hourlyCost := ts.DailyCost.DivRound(decimalEight, 4)
		costs = costs.Add(hourlyCost.Mul(ts.Hours).Round(2))
	}

	return costs
}

// projectWorkedDays считает отработанные дни проекта
// как сумму часов таймшитов, приведенную к дням (часы / 8)
func projectWorkedDays(project *models.Project) decimal.Decimal {
	workedDays := decimal.Zero

	for _, ts := range project.Timesheets {
		workedDays = workedDays.Add(ts.Hours.DivRound(decimalEight, 2))
	}

	return workedDays
}
