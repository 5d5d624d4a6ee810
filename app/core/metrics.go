package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pageassist/localstore/pkg/metrics"
	"github.com/pageassist/localstore/pkg/types"
)

type Metrics struct {
	manager *metrics.Manager

	apiResponseTime   *prometheus.HistogramVec
	apiErrorCounter   *prometheus.CounterVec
	migratedRecords   *prometheus.CounterVec
	migrationErrors   *prometheus.CounterVec
	importResults     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	reconcileRemoved  *prometheus.CounterVec
	verifyMismatch    *prometheus.GaugeVec
}

func NewMetrics(ns, system string) *Metrics {
	manager := metrics.NewManager(ns, system)

	m := &Metrics{
		manager:           manager,
		apiResponseTime:   manager.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:   manager.NewCounterVec("api_error", []string{"method", "api", "status"}),
		migratedRecords:   manager.NewCounterVec("migrated_records", []string{"entity"}),
		migrationErrors:   manager.NewCounterVec("migration_errors", []string{"group"}),
		importResults:     manager.NewCounterVec("import_results", []string{"kind", "outcome"}),
		operationDuration: manager.NewHistogramVec("operation_duration", []string{"operation"}),
		reconcileRemoved:  manager.NewCounterVec("reconcile_removed", []string{"entity"}),
		verifyMismatch:    manager.NewGaugeVec("verify_mismatch", []string{"entity"}),
	}

	return m
}

func (m *Metrics) Manager() *metrics.Manager {
	return m.manager
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) OperationTimer(operation string) *prometheus.Timer {
	return prometheus.NewTimer(m.operationDuration.WithLabelValues(operation))
}

func (m *Metrics) MigratedAdd(entity string, count int) {
	if count > 0 {
		m.migratedRecords.WithLabelValues(entity).Add(float64(count))
	}
}

func (m *Metrics) MigrationErrorInc(group string) {
	m.migrationErrors.WithLabelValues(group).Inc()
}

func (m *Metrics) ImportResultAdd(r types.ImportResult) {
	kind := string(r.Kind)
	for outcome, n := range map[string]int{
		"inserted": r.Inserted,
		"replaced": r.Replaced,
		"merged":   r.Merged,
		"skipped":  r.Skipped,
	} {
		if n > 0 {
			m.importResults.WithLabelValues(kind, outcome).Add(float64(n))
		}
	}
}

func (m *Metrics) ReconcileAdd(r types.ReconcileResult) {
	for entity, n := range map[string]int{
		"message":       r.OrphanMessages,
		"session_files": r.OrphanSessionFiles,
		"vector":        r.OrphanVectors,
		"custom_model":  r.OrphanModels,
	} {
		if n > 0 {
			m.reconcileRemoved.WithLabelValues(entity).Add(float64(n))
		}
	}
}

// VerifySet 记录最近一次校验中结构化存储与旧存储的数量差
func (m *Metrics) VerifySet(counts types.VerifyCounts) {
	m.verifyMismatch.WithLabelValues("chat_histories").Set(float64(counts.Current.ChatHistories - counts.Legacy.ChatHistories))
	m.verifyMismatch.WithLabelValues("prompts").Set(float64(counts.Current.Prompts - counts.Legacy.Prompts))
	m.verifyMismatch.WithLabelValues("webshares").Set(float64(counts.Current.Webshares - counts.Legacy.Webshares))
}
