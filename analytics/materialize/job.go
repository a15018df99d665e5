package materialize

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LilVoxy/coursework_erp/analytics/dimensions"
	"github.com/LilVoxy/coursework_erp/analytics/extractors"
	"github.com/LilVoxy/coursework_erp/analytics/facts"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// Job оркестрирует материализацию метрик:
// извлекает проекты периода, разрешает измерения, сворачивает факты
// и фиксирует результат одной транзакцией в конце запуска
// Запуски не сериализуются между собой — одновременные запуски
// по пересекающимся периодам должен исключать внешний планировщик
type Job struct {
	resolver   *dimensions.Resolver
	extractor  *extractors.ProjectExtractor
	factRepo   *facts.MySQLFactRepository
	runLogRepo models.RunLogRepository
	logger     *utils.MetricsLogger
}

// NewJob создает новый экземпляр Job
func NewJob(oltpDB, olapDB *sql.DB, runLogRepo models.RunLogRepository, logger *utils.MetricsLogger) *Job {
	return &Job{
		resolver:   dimensions.NewResolver(olapDB, logger),
		extractor:  extractors.NewProjectExtractor(oltpDB, logger),
		factRepo:   facts.NewMySQLFactRepository(olapDB, logger),
		runLogRepo: runLogRepo,
		logger:     logger,
	}
}

// Materialize выполняет материализацию метрик для периода,
// которому принадлежит дата, при заданной гранулярности
func (j *Job) Materialize(date time.Time, granularity string) error {
	// Гранулярность проверяется до начала любой работы
	if err := models.ValidateGranularity(granularity); err != nil {
		return err
	}

	startTime := time.Now()
	runID := uuid.NewString()
	j.logger.LogRunStart(date, granularity)

	if err := j.runLogRepo.CreateEntry(runID, startTime, date, granularity); err != nil {
		j.logger.Error("Ошибка при создании записи журнала запусков: %v", err)
		return fmt.Errorf("ошибка при создании записи журнала запусков: %w", err)
	}

	projectsProcessed, factsWritten, err := j.materializePeriod(date, granularity)
	if err != nil {
		j.logger.Error("Ошибка при материализации периода %s (%s): %v",
			date.Format("2006-01-02"), granularity, err)
		if logErr := j.runLogRepo.MarkFailure(runID, time.Now(), err.Error()); logErr != nil {
			j.logger.Error("Ошибка при обновлении журнала запусков: %v", logErr)
		}
		return fmt.Errorf("ошибка при материализации периода %s (%s): %w",
			date.Format("2006-01-02"), granularity, err)
	}

	if err := j.runLogRepo.MarkSuccess(runID, time.Now(), projectsProcessed, factsWritten); err != nil {
		j.logger.Error("Ошибка при обновлении журнала запусков: %v", err)
	}

	j.logger.LogRunComplete(startTime, projectsProcessed, factsWritten)
	return nil
}

// materializePeriod выполняет один проход материализации:
// вся свертка происходит в памяти, запись фактов — одной транзакцией,
// поэтому при любой ошибке пакет не сохраняется частично
func (j *Job) materializePeriod(date time.Time, granularity string) (int, int, error) {
	startDate, endDate, err := PeriodRange(date, granularity)
	if err != nil {
		return 0, 0, err
	}

	// 1. Разрешаем временное измерение по началу периода,
	// чтобы повторный запуск в любой день попадал в те же кортежи
	timeID, err := j.resolver.ResolveTime(startDate)
	if err != nil {
		return 0, 0, err
	}

	// 2. Извлекаем проекты, пересекающиеся с периодом
	projects, err := j.extractor.ExtractProjectsForPeriod(startDate, endDate)
	if err != nil {
		return 0, 0, err
	}

	// 3. Сворачиваем каждый проект в строки фактов
	accumulator := facts.NewAccumulator()
	for _, project := range projects {
		if err := j.foldProject(accumulator, project, timeID, granularity); err != nil {
			return 0, 0, err
		}
	}

	// 4. Фиксируем накопленные факты одной транзакцией
	if err := j.factRepo.FlushRun(accumulator.Facts()); err != nil {
		return 0, 0, err
	}

	return len(projects), accumulator.Len(), nil
}

// foldProject разрешает измерения проекта и сворачивает каждый его заказ
// (или проект без заказов один раз) в соответствующую строку фактов
func (j *Job) foldProject(accumulator *facts.Accumulator, project *models.Project, timeID int, granularity string) error {
	projectTypeID, err := j.resolver.ResolveProjectType(project)
	if err != nil {
		return err
	}

	managerID, err := j.resolver.ResolveContributor(project.ProjectManager, models.RoleProjectManager)
	if err != nil {
		return err
	}

	salesID, err := j.resolver.ResolveContributor(project.SalesPerson, models.RoleSalesPerson)
	if err != nil {
		return err
	}

	directorID, err := j.resolver.ResolveContributor(project.ProjectDirector, models.RoleProjectDirector)
	if err != nil {
		return err
	}

	key := models.FactKey{
		TimeID:            timeID,
		ProjectTypeID:     projectTypeID,
		ProjectManagerID:  managerID,
		SalesPersonID:     salesID,
		ProjectDirectorID: directorID,
		Granularity:       granularity,
	}

	if len(project.Orders) == 0 {
		// Проект без заказов все равно вносит вклад в метрики затрат и времени
		accumulator.Fold(accumulator.Get(key), project, nil)
		return nil
	}

	for i := range project.Orders {
		accumulator.Fold(accumulator.Get(key), project, &project.Orders[i])
	}

	return nil
}

// RecomputeYear полностью пересчитывает метрики за год:
// сначала удаляются все факты года, затем выполняется материализация
// по месяцам, кварталам и году целиком
// Это единственный путь, гарантирующий отсутствие устаревших кортежей
func (j *Job) RecomputeYear(year int) error {
	j.logger.Info("Полный пересчет метрик за %d год", year)

	if err := j.factRepo.DeleteForYear(year); err != nil {
		return err
	}

	// Помесячная материализация
	for month := time.January; month <= time.December; month++ {
		date := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		if err := j.Materialize(date, models.GranularityMonthly); err != nil {
			return err
		}
	}

	// Поквартальная материализация
	for quarter := 0; quarter < 4; quarter++ {
		date := time.Date(year, time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
		if err := j.Materialize(date, models.GranularityQuarterly); err != nil {
			return err
		}
	}

	// Годовая материализация
	date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if err := j.Materialize(date, models.GranularityYearly); err != nil {
		return err
	}

	j.logger.Info("Пересчет метрик за %d год завершен", year)
	return nil
}
