package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/config"
	"github.com/LilVoxy/coursework_erp/analytics/materialize"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
	"github.com/go-co-op/gocron"
)

type MetricsRunner struct {
	config        config.MetricsConfig
	dbConnections *config.DBConnections
	logger        *utils.MetricsLogger
	job           *materialize.Job
	runLogRepo    models.RunLogRepository
}

// NewMetricsRunner создает новый экземпляр MetricsRunner
func NewMetricsRunner() (*MetricsRunner, error) {
	// Получаем конфигурацию
	metricsConfig := config.GetConfig()

	// Инициализируем логгер
	logger := utils.NewMetricsLogger(metricsConfig.EnableDetailedLogging)
	logger.Info("Инициализация Metrics Runner")

	// Подключаемся к базам данных
	connections, err := config.ConnectDatabases(metricsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базам данных: %w", err)
	}

	// Создаем звёздную схему, если она еще не существует
	if err := config.EnsureStarSchema(connections.OLAPDB); err != nil {
		config.CloseDatabases(connections)
		return nil, fmt.Errorf("ошибка при создании звёздной схемы: %w", err)
	}

	// Инициализируем репозиторий журнала запусков
	runLogRepo := models.NewMySQLRunLogRepository(connections.OLAPDB)
	if err := runLogRepo.CreateRunLogTable(); err != nil {
		config.CloseDatabases(connections)
		return nil, fmt.Errorf("ошибка при создании таблицы журнала запусков: %w", err)
	}

	// Создаем задание материализации
	job := materialize.NewJob(connections.OLTPDB, connections.OLAPDB, runLogRepo, logger)

	return &MetricsRunner{
		config:        metricsConfig,
		dbConnections: connections,
		logger:        logger,
		job:           job,
		runLogRepo:    runLogRepo,
	}, nil
}

// Close закрывает соединения с базами данных
func (r *MetricsRunner) Close() {
	r.logger.Info("Завершение работы Metrics Runner")
	config.CloseDatabases(r.dbConnections)
}

// ExecuteCurrentPeriods материализует текущий месяц, квартал и год
// Используется планировщиком для поддержания свежести витрины
func (r *MetricsRunner) ExecuteCurrentPeriods() error {
	now := time.Now()

	for _, granularity := range []string{
		models.GranularityMonthly,
		models.GranularityQuarterly,
		models.GranularityYearly,
	} {
		if err := r.job.Materialize(now, granularity); err != nil {
			return fmt.Errorf("ошибка материализации (%s): %w", granularity, err)
		}
	}

	return nil
}

// StartScheduler запускает планировщик для регулярной материализации
func (r *MetricsRunner) StartScheduler(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Запуск планировщика материализации с интервалом %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("Запланированный запуск материализации")
		if err := r.ExecuteCurrentPeriods(); err != nil {
			r.logger.Error("Ошибка при выполнении запланированной материализации: %v", err)
		}
	})

	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	r.logger.Info("Планировщик материализации остановлен")
}

// RunOnce материализует один период, заданный строкой "2025" или "2025-03"
func RunOnce(period string) {
	runner, err := NewMetricsRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Metrics Runner: %v", err)
	}
	defer runner.Close()

	if period == "" {
		// Без явного периода обновляем текущие месяц, квартал и год
		if err := runner.ExecuteCurrentPeriods(); err != nil {
			log.Fatalf("Ошибка при материализации текущих периодов: %v", err)
		}
		return
	}

	date, isYear, err := materialize.ParsePeriod(period)
	if err != nil {
		log.Fatalf("Ошибка при разборе периода %q: %v", period, err)
	}

	if isYear {
		if err := runner.job.RecomputeYear(date.Year()); err != nil {
			log.Fatalf("Ошибка при пересчете года %d: %v", date.Year(), err)
		}
		return
	}

	if err := runner.job.Materialize(date, models.GranularityMonthly); err != nil {
		log.Fatalf("Ошибка при материализации периода %s: %v", period, err)
	}
}

// RunRecompute полностью пересчитывает витрину за указанный год
func RunRecompute(year int) {
	runner, err := NewMetricsRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Metrics Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.job.RecomputeYear(year); err != nil {
		log.Fatalf("Ошибка при пересчете года %d: %v", year, err)
	}
}

// RunScheduled запускает материализацию по расписанию
func RunScheduled() {
	// Создаем контекст, который будет отменен при получении сигнала завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		log.Println("Получен сигнал завершения. Останавливаем Metrics Runner...")
		cancel()
	}()

	runner, err := NewMetricsRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании Metrics Runner: %v", err)
	}
	defer runner.Close()

	lastRun, err := runner.runLogRepo.GetLastSuccessfulRun()
	if err != nil {
		runner.logger.Error("Не удалось получить информацию о последнем успешном запуске: %v", err)
	} else if lastRun != nil {
		runner.logger.Info("Последний успешный запуск: %v (период %s, гранулярность %s)",
			lastRun.EndTime, lastRun.PeriodDate.Format("2006-01-02"), lastRun.Granularity)
	}

	// Сразу обновляем текущие периоды, затем работаем по расписанию
	if err := runner.ExecuteCurrentPeriods(); err != nil {
		runner.logger.Error("Ошибка при первичной материализации: %v", err)
	}

	runner.StartScheduler(ctx)
}

func main() {
	// Параметры командной строки
	modePtr := flag.String("mode", "scheduled", "Режим работы: scheduled, once или recompute")
	periodPtr := flag.String("period", "", "Период для режима once: 2025 или 2025-03")
	yearPtr := flag.Int("year", time.Now().Year(), "Год для режима recompute")

	flag.Parse()

	log.Println("Запуск Metrics Runner в режиме:", *modePtr)

	switch *modePtr {
	case "once":
		RunOnce(*periodPtr)
	case "recompute":
		RunRecompute(*yearPtr)
	case "scheduled":
		RunScheduled()
	default:
		log.Println("Неизвестный режим работы:", *modePtr)
		log.Println("Доступные режимы: scheduled, once, recompute")
		os.Exit(1)
	}

	log.Println("Metrics Runner завершил работу")
}
