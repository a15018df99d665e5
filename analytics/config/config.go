package config

import (
	"time"
)

// MetricsConfig содержит конфигурацию движка метрик
type MetricsConfig struct {
	// Конфигурация для подключения к OLTP БД (исходной)
	OLTPConfig DatabaseConfig `json:"oltp_config"`

	// Конфигурация для подключения к OLAP БД (звёздная схема)
	OLAPConfig DatabaseConfig `json:"olap_config"`

	// Интервал планового запуска материализации
	RunInterval time.Duration `json:"run_interval"`

	// Время жизни кешированных отчетов
	CacheTTL time.Duration `json:"cache_ttl"`

	// Размер топа контрибьюторов в KPI-отчете
	TopContributorsLimit int `json:"top_contributors_limit"`

	// Включение/отключение подробного логирования
	EnableDetailedLogging bool `json:"enable_detailed_logging"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// Значения конфигурации по умолчанию
var (
	DefaultOLTPConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "Vjnbkmlf40782",
		DBName:   "erp",
	}

	DefaultOLAPConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "Vjnbkmlf40782",
		DBName:   "erp_analytics",
	}

	DefaultMetricsConfig = MetricsConfig{
		OLTPConfig:            DefaultOLTPConfig,
		OLAPConfig:            DefaultOLAPConfig,
		RunInterval:           6 * time.Hour,
		CacheTTL:              30 * time.Minute,
		TopContributorsLimit:  5,
		EnableDetailedLogging: true,
	}
)

// GetConfig возвращает конфигурацию движка метрик
func GetConfig() MetricsConfig {
	return DefaultMetricsConfig
}
