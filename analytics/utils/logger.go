package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// MetricsLogger представляет логгер движка метрик
type MetricsLogger struct {
	infoLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	isVerbose   bool
}

// NewMetricsLogger создает новый экземпляр логгера движка метрик
func NewMetricsLogger(verbose bool) *MetricsLogger {
	// Создаем или открываем лог-файл для записи
	currentTime := time.Now().Format("2006-01-02")
	logFileName := fmt.Sprintf("metrics_log_%s.log", currentTime)

	file, err := os.OpenFile(logFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Не удалось открыть или создать файл лога: %v", err)
	}

	// Инициализируем логгеры для разных уровней
	infoLogger := log.New(file, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger := log.New(file, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	debugLogger := log.New(file, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)

	return &MetricsLogger{
		infoLogger:  infoLogger,
		errorLogger: errorLogger,
		debugLogger: debugLogger,
		isVerbose:   verbose,
	}
}

// Info логирует информационное сообщение
func (l *MetricsLogger) Info(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.infoLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("INFO:", msg)
}

// Error логирует сообщение об ошибке
func (l *MetricsLogger) Error(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.errorLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("ERROR:", msg)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *MetricsLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}

	msg := fmt.Sprintf(format, v...)
	l.debugLogger.Println(msg)

	// Также выводим в стандартный вывод
	log.Println("DEBUG:", msg)
}

// LogRunStart логирует начало запуска материализации
func (l *MetricsLogger) LogRunStart(date time.Time, granularity string) {
	l.Info("Начало материализации метрик: период %s, гранулярность %s",
		date.Format("2006-01-02"), granularity)
}

// LogRunComplete логирует завершение запуска материализации
func (l *MetricsLogger) LogRunComplete(startTime time.Time, projectsProcessed, factsWritten int) {
	duration := time.Since(startTime)
	l.Info("Материализация завершена. Длительность: %v", duration)
	l.Info("Обработано: %d проектов, записано %d строк фактов", projectsProcessed, factsWritten)
}
