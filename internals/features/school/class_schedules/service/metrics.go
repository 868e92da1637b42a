package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics: semua method aman dipanggil pada *Metrics nil (test tanpa registry).
type Metrics struct {
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	retries          *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	skipped          prometheus.Counter
	auditPending     prometheus.Gauge
	auditFlushErrors prometheus.Counter
}

// NewMetrics mendaftarkan collector ke reg. reg nil = collector tidak didaftarkan.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jadwalku",
			Subsystem: "class_schedule",
			Name:      "mutations_total",
			Help:      "Mutasi jadwal per operasi & hasil.",
		}, []string{"operation", "outcome"}),
		mutationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jadwalku",
			Subsystem: "class_schedule",
			Name:      "mutation_duration_seconds",
			Help:      "Durasi mutasi termasuk retry.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jadwalku",
			Subsystem: "class_schedule",
			Name:      "retries_total",
			Help:      "Percobaan ulang karena race / store down.",
		}, []string{"operation", "reason"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jadwalku",
			Subsystem: "class_schedule",
			Name:      "conflicts_total",
			Help:      "Bentrok room/instruktur yang ditolak.",
		}, []string{"kind"}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "jadwalku",
			Subsystem: "class_schedule",
			Name:      "unparsable_records_skipped_total",
			Help:      "Record lama dengan hari/jam rusak yang dilewati saat cek bentrok / availability.",
		}),
		auditPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "jadwalku",
			Subsystem: "audit",
			Name:      "pending_records",
			Help:      "Transaction record yang belum di-flush.",
		}),
		auditFlushErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "jadwalku",
			Subsystem: "audit",
			Name:      "flush_failures_total",
			Help:      "Flush transaction log yang gagal.",
		}),
	}
}

func (mt *Metrics) mutation(op, outcome string, seconds float64) {
	if mt == nil {
		return
	}
	mt.mutations.WithLabelValues(op, outcome).Inc()
	mt.mutationDuration.WithLabelValues(op).Observe(seconds)
}

func (mt *Metrics) retry(op, reason string) {
	if mt == nil {
		return
	}
	mt.retries.WithLabelValues(op, reason).Inc()
}

func (mt *Metrics) conflict(kind ConflictKind) {
	if mt == nil {
		return
	}
	mt.conflicts.WithLabelValues(string(kind)).Inc()
}

func (mt *Metrics) skippedRecord() {
	if mt == nil {
		return
	}
	mt.skipped.Inc()
}

func (mt *Metrics) pending(n int) {
	if mt == nil {
		return
	}
	mt.auditPending.Set(float64(n))
}

func (mt *Metrics) flushFailed() {
	if mt == nil {
		return
	}
	mt.auditFlushErrors.Inc()
}
