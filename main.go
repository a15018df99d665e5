// main.go
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LilVoxy/coursework_erp/analytics/cache"
	"github.com/LilVoxy/coursework_erp/analytics/config"
	"github.com/LilVoxy/coursework_erp/analytics/materialize"
	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/query"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
	"github.com/LilVoxy/coursework_erp/database"
	"github.com/LilVoxy/coursework_erp/routes"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
)

func main() {
	log.Println("Запуск сервера аналитики...")

	// Получаем конфигурацию
	metricsConfig := config.GetConfig()
	logger := utils.NewMetricsLogger(metricsConfig.EnableDetailedLogging)

	// Подключаемся к OLTP и OLAP базам данных
	connections, err := config.ConnectDatabases(metricsConfig)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к базам данных: %v", err)
	}
	defer config.CloseDatabases(connections)

	// Создаем звёздную схему, если она еще не существует
	if err := config.EnsureStarSchema(connections.OLAPDB); err != nil {
		log.Fatalf("❌ Не удалось создать звёздную схему: %v", err)
	}

	// Инициализируем репозиторий журнала запусков
	runLogRepo := models.NewMySQLRunLogRepository(connections.OLAPDB)
	if err := runLogRepo.CreateRunLogTable(); err != nil {
		log.Fatalf("❌ Не удалось создать таблицу журнала запусков: %v", err)
	}

	// Собираем сервис чтения KPI: витрина, запасной путь и кеш
	factReader := query.NewMySQLFactReader(connections.OLAPDB, logger)
	realtimeService := query.NewRealtimeService(connections.OLTPDB, logger, metricsConfig.TopContributorsLimit)
	reportCache := cache.NewReportCache(metricsConfig.CacheTTL, logger)
	readService := query.NewReadService(factReader, realtimeService, reportCache, logger, metricsConfig.TopContributorsLimit)

	// Задание материализации для пересчета по запросу
	job := materialize.NewJob(connections.OLTPDB, connections.OLAPDB, runLogRepo, logger)

	// Репозиторий значений фильтров дашборда
	filterRepo := database.NewMySQLFilterRepository(connections.OLTPDB)

	// Создаем маршрутизатор и регистрируем обработчики
	router := mux.NewRouter()
	routes.SetupRoutes(router, routes.Dependencies{
		ReadService: readService,
		Job:         job,
		RunLogRepo:  runLogRepo,
		FilterRepo:  filterRepo,
		Cache:       reportCache,
	})

	// Настраиваем сервер
	server := &http.Server{
		Addr:         ":8080",
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		log.Printf("✅ Сервер аналитики запущен на http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Ошибка запуска сервера: %v", err)
		}
	}()

	// Канал для сигналов завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Ожидаем сигнал завершения
	<-stop
	log.Println("⚠️ Получен сигнал завершения, закрываем соединения...")

	log.Println("👋 Сервер аналитики остановлен")
}
