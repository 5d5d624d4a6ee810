package metrics

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager 每个 Core 持有自己的 registry, 多个实例之间互不干扰
type Manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

func NewManager(ns, system string) *Manager {
	m := &Manager{
		namespace: ns,
		system:    system,
		registry:  prometheus.NewRegistry(),
	}
	m.register(collectors.NewGoCollector())
	return m
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) register(c prometheus.Collector) {
	if err := m.registry.Register(c); err != nil {
		slog.Warn("failed to register collector", slog.String("namespace", m.namespace), slog.String("error", err.Error()))
	}
}

func emptyLabels(labels []string) []string {
	return make([]string, len(labels))
}

func (m *Manager) opts(name, help string) (string, string, string, string) {
	return FmtFixer(m.namespace), FmtFixer(m.system), FmtFixer(name),
		fmt.Sprintf("%s %s of /%s/%s", name, help, m.namespace, m.system)
}

// NewCounterVec 注册后先写入一组空 label, 保证 /metrics 中始终可见
func (m *Manager) NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	var o prometheus.CounterOpts
	o.Namespace, o.Subsystem, o.Name, o.Help = m.opts(name, "count")
	vec := prometheus.NewCounterVec(o, labels)
	vec.WithLabelValues(emptyLabels(labels)...).Add(0)

	m.register(vec)
	return vec
}

func (m *Manager) NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	var o prometheus.HistogramOpts
	o.Namespace, o.Subsystem, o.Name, o.Help = m.opts(name, "duration")
	vec := prometheus.NewHistogramVec(o, labels)
	vec.WithLabelValues(emptyLabels(labels)...).Observe(0)

	m.register(vec)
	return vec
}

// NewGaugeVec gauge 不预置空 label, 取值完全由调用方设置
func (m *Manager) NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	var o prometheus.GaugeOpts
	o.Namespace, o.Subsystem, o.Name, o.Help = m.opts(name, "gauge")
	vec := prometheus.NewGaugeVec(o, labels)

	m.register(vec)
	return vec
}

func (m *Manager) ExportHandler() gin.HandlerFunc {
	h := promhttp.InstrumentMetricHandler(
		m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

var nameReplacer = strings.NewReplacer(".", "_", "-", "_")

func FmtFixer(in string) string {
	return nameReplacer.Replace(in)
}
