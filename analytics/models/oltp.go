package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы проектов в исходной OLTP базе данных
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusCancelled = "cancelled"
)

// Статусы заказов (коммерческих предложений) в OLTP
const (
	OrderStatusPending   = "a_signer"
	OrderStatusWon       = "gagne"
	OrderStatusSigned    = "signe"
	OrderStatusLost      = "perdu"
	OrderStatusAbandoned = "abandonne"
)

// Типы проектов
const (
	ProjectTypeForfait = "forfait"
	ProjectTypeRegie   = "regie"
)

// ProjectContributor представляет ссылку проекта на пользователя
// (руководитель проекта, коммерсант, директор проекта)
type ProjectContributor struct {
	ID    int
	Name  string
	Email string
}

// Project представляет проект в исходной OLTP базе данных
// Для материализации проект извлекается вместе с заказами и таймшитами
type Project struct {
	ID              int
	Name            string
	Status          string
	ProjectType     string
	ServiceCategory string // пустая строка, если категория не назначена
	IsInternal      bool
	PurchasesAmount decimal.Decimal
	TotalSoldDays   decimal.Decimal
	StartDate       time.Time
	EndDate         *time.Time // nil для открытых проектов

	ProjectManager  *ProjectContributor
	SalesPerson     *ProjectContributor
	ProjectDirector *ProjectContributor

	Orders     []OrderOLTP
	Timesheets []TimesheetOLTP
}

// OrderOLTP представляет заказ в исходной OLTP базе данных
type OrderOLTP struct {
	ID          int
	ProjectID   int
	Status      string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// TimesheetOLTP представляет запись учета времени в OLTP
// DailyCost — дневная ставка контрибьютора, привязанного к записи
type TimesheetOLTP struct {
	ID            int
	ProjectID     int
	ContributorID int
	Hours         decimal.Decimal
	DailyCost     decimal.Decimal
	WorkDate      time.Time
}
