package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the domain counters exported by the service layer.
type Metrics struct {
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	usageDegraded   prometheus.Counter
	reconcileRuns   prometheus.Counter
	reconcileOrphan prometheus.Counter
}

// NewMetrics creates the service counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_uploads_total",
				Help: "Upload attempts by outcome.",
			},
			[]string{"result"},
		),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storage_upload_bytes_total",
			Help: "Bytes committed by successful uploads.",
		}),
		usageDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storage_usage_degraded_total",
			Help: "Usage computations that could not enumerate the object host.",
		}),
		reconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storage_reconcile_runs_total",
			Help: "Completed reconcile sweeps.",
		}),
		reconcileOrphan: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storage_reconcile_orphans_total",
			Help: "Orphaned objects removed by the reconciler.",
		}),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.uploadBytes, m.usageDegraded, m.reconcileRuns, m.reconcileOrphan} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

const (
	uploadCommitted = "committed"
	uploadReplayed  = "replayed"
	uploadRejected  = "rejected"
	uploadFailed    = "failed"
)

func (m *Metrics) upload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) committed(size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(uploadCommitted).Inc()
	m.uploadBytes.Add(float64(size))
}

func (m *Metrics) degraded() {
	if m == nil {
		return
	}
	m.usageDegraded.Inc()
}

func (m *Metrics) reconciled(orphans int) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	m.reconcileOrphan.Add(float64(orphans))
}
