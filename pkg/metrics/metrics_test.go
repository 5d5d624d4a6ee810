package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	m := NewManager("page-assist", "store.test")

	counter := m.NewCounterVec("migrated_total", []string{"entity"})
	counter.WithLabelValues("prompts").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(counter.WithLabelValues("prompts")))

	// 独立 registry, 重复注册不会影响其他实例
	other := NewManager("page-assist", "store.test")
	other.NewCounterVec("migrated_total", []string{"entity"})

	n, err := testutil.GatherAndCount(m.Registry(), "page_assist_store_test_migrated_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFmtFixer(t *testing.T) {
	assert.Equal(t, "a_b_c", FmtFixer("a.b-c"))
}

func TestGaugeVec(t *testing.T) {
	m := NewManager("page-assist", "store")
	gauge := m.NewGaugeVec("verify_mismatch", []string{"entity"})
	gauge.WithLabelValues("prompts").Set(-2)
	assert.Equal(t, float64(-2), testutil.ToFloat64(gauge.WithLabelValues("prompts")))

	n, err := testutil.GatherAndCount(m.Registry(), "page_assist_store_verify_mismatch")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}
