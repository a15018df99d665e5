package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	gocache "github.com/patrickmn/go-cache"

	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

// ReportCache представляет TTL-кеш готовых отчетов
// Отчеты сериализуются в JSON и сжимаются snappy перед сохранением,
// ключи строятся как детерминированный хеш параметров запроса
// Недоступность кеша неотличима от промаха: любая ошибка чтения
// приводит к пересчету отчета
type ReportCache struct {
	store  *gocache.Cache
	logger *utils.MetricsLogger
}

// NewReportCache создает новый кеш отчетов с заданным временем жизни
func NewReportCache(ttl time.Duration, logger *utils.MetricsLogger) *ReportCache {
	return &ReportCache{
		store:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// Key строит детерминированный ключ кеша из частей параметров запроса
func Key(prefix string, parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "|"))
	return fmt.Sprintf("%s:%016x", prefix, sum)
}

// Get читает отчет из кеша и десериализует его в v
// Возвращает false при промахе или поврежденной записи
func (c *ReportCache) Get(key string, v interface{}) bool {
	entry, found := c.store.Get(key)
	if !found {
		return false
	}

	compressed, ok := entry.([]byte)
	if !ok {
		return false
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		c.logger.Error("Ошибка при распаковке кешированного отчета %s: %v", key, err)
		c.store.Delete(key)
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Error("Ошибка при десериализации кешированного отчета %s: %v", key, err)
		c.store.Delete(key)
		return false
	}

	return true
}

// Set сохраняет отчет в кеш со стандартным временем жизни
func (c *ReportCache) Set(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Ошибка при сериализации отчета %s: %v", key, err)
		return
	}

	c.store.SetDefault(key, snappy.Encode(nil, data))
}

// Flush полностью очищает кеш отчетов
func (c *ReportCache) Flush() {
	c.store.Flush()
}
