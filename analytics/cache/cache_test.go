package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LilVoxy/coursework_erp/analytics/models"
	"github.com/LilVoxy/coursework_erp/analytics/utils"
)

func newTestCache(t *testing.T, ttl time.Duration) *ReportCache {
	t.Helper()
	return NewReportCache(ttl, utils.NewMetricsLogger(false))
}

func TestKeyDeterministic(t *testing.T) {
	first := Key("kpis", "2025-01-01", "2025-01-31", "pt=forfait")
	second := Key("kpis", "2025-01-01", "2025-01-31", "pt=forfait")

	assert.Equal(t, first, second)
	assert.Contains(t, first, "kpis:")
}

func TestKeyDistinguishesParts(t *testing.T) {
	january := Key("kpis", "2025-01-01", "2025-01-31")
	february := Key("kpis", "2025-02-01", "2025-02-28")
	assert.NotEqual(t, january, february)

	kpis := Key("kpis", "2025-01-01")
	evolution := Key("evolution", "2025-01-01")
	assert.NotEqual(t, kpis, evolution)
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c := newTestCache(t, time.Minute)

	report := &models.KPIReport{
		Revenue: models.RevenueMetrics{TotalRevenue: 1500.50},
		Source:  models.SourceMaterialized,
	}

	key := Key("kpis", "2025-01-01", "2025-01-31")
	c.Set(key, report)

	var got models.KPIReport
	assert.True(t, c.Get(key, &got))
	assert.Equal(t, 1500.50, got.Revenue.TotalRevenue)
	assert.Equal(t, models.SourceMaterialized, got.Source)
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t, time.Minute)

	var got models.KPIReport
	assert.False(t, c.Get(Key("kpis", "нет такого"), &got))
}

func TestGetExpiredEntry(t *testing.T) {
	c := newTestCache(t, time.Millisecond)

	key := Key("kpis", "2025-01-01")
	c.Set(key, &models.KPIReport{})

	time.Sleep(5 * time.Millisecond)

	var got models.KPIReport
	assert.False(t, c.Get(key, &got))
}

func TestFlush(t *testing.T) {
	c := newTestCache(t, time.Minute)

	key := Key("kpis", "2025-01-01")
	c.Set(key, &models.KPIReport{})
	c.Flush()

	var got models.KPIReport
	assert.False(t, c.Get(key, &got))
}

func TestGetDeletesCorruptEntry(t *testing.T) {
	c := newTestCache(t, time.Minute)

	// Запись не в формате snappy имитирует поврежденный кеш
	key := Key("kpis", "битая запись")
	c.store.SetDefault(key, []byte("не snappy"))

	var got models.KPIReport
	assert.False(t, c.Get(key, &got))

	_, found := c.store.Get(key)
	assert.False(t, found)
}
