package models

import (
	"crypto/md5"
	"fmt"
	"time"
)

// Роли контрибьюторов в измерении dim_contributor
const (
	RoleProjectManager  = "project_manager"
	RoleSalesPerson     = "sales_person"
	RoleProjectDirector = "project_director"
)

// Названия месяцев для меток временного измерения
var monthNames = []string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// TimeDimension представляет временное измерение в звёздной схеме
// Одна строка на каждую материализованную календарную дату
type TimeDimension struct {
	ID          int
	Date        time.Time
	Year        int
	Quarter     int
	Month       int
	YearMonth   string // Формат: "2025-01"
	YearQuarter string // Формат: "2025-Q1"
	MonthName   string // Формат: "Janvier 2025"
	QuarterName string // Формат: "Q1 2025"
}

// NewTimeDimension создает строку временного измерения с производными полями
// Все атрибуты вычисляются из даты один раз при создании и больше не меняются
func NewTimeDimension(date time.Time) *TimeDimension {
	date = date.Truncate(24 * time.Hour)
	year := date.Year()
	month := int(date.Month())
	quarter := (month-1)/3 + 1

	return &TimeDimension{
		Date:        date,
		Year:        year,
		Quarter:     quarter,
		Month:       month,
		YearMonth:   fmt.Sprintf("%04d-%02d", year, month),
		YearQuarter: fmt.Sprintf("%04d-Q%d", year, quarter),
		MonthName:   fmt.Sprintf("%s %d", monthNames[month-1], year),
		QuarterName: fmt.Sprintf("Q%d %d", quarter, year),
	}
}

// ProjectTypeDimension представляет измерение типов проектов
// Одна строка на уникальную комбинацию (тип, категория, статус, внутренний)
type ProjectTypeDimension struct {
	ID              int
	ProjectType     string // forfait, regie
	ServiceCategory string // пустая строка, если категория не задана
	Status          string // active, completed, cancelled
	IsInternal      bool
	CompositeKey    string
}

// NewProjectTypeDimension создает строку измерения типа проекта
func NewProjectTypeDimension(projectType, serviceCategory, status string, isInternal bool) *ProjectTypeDimension {
	return &ProjectTypeDimension{
		ProjectType:     projectType,
		ServiceCategory: serviceCategory,
		Status:          status,
		IsInternal:      isInternal,
		CompositeKey:    BuildProjectTypeKey(projectType, serviceCategory, status, isInternal),
	}
}

// BuildProjectTypeKey строит составной ключ измерения типа проекта
// Один и тот же набор атрибутов всегда дает один и тот же ключ
func BuildProjectTypeKey(projectType, serviceCategory, status string, isInternal bool) string {
	if serviceCategory == "" {
		serviceCategory = "null"
	}

	clientType := "external"
	if isInternal {
		clientType = "internal"
	}

	return fmt.Sprintf("%s_%s_%s_%s", projectType, serviceCategory, status, clientType)
}

// ContributorDimension представляет измерение контрибьюторов
// Один пользователь может присутствовать несколько раз под разными ролями
type ContributorDimension struct {
	ID           int
	UserID       int
	Name         string // снимок имени на момент первого появления
	Role         string
	IsActive     bool
	CompositeKey string
}

// NewContributorDimension создает строку измерения контрибьютора
// При отсутствии имени используется email в качестве снимка
func NewContributorDimension(userID int, name, email, role string) *ContributorDimension {
	if name == "" {
		name = email
	}

	return &ContributorDimension{
		UserID:       userID,
		Name:         name,
		Role:         role,
		IsActive:     true,
		CompositeKey: BuildContributorKey(userID, name, role, true),
	}
}

// BuildContributorKey строит составной ключ измерения контрибьютора
func BuildContributorKey(userID int, name, role string, isActive bool) string {
	state := "inactive"
	if isActive {
		state = "active"
	}

	// Хеш имени добавляется для уникальности снимка
	return fmt.Sprintf("%d_%s_%s_%x", userID, role, state, md5.Sum([]byte(name)))
}
