package progress

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// LogObserver emits structured logs for progress streams. It is useful during
// development or audits where no metrics backend is available.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver wires a Zap logger to the Observer interface.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

// Publish logs the event using structured fields.
func (o *LogObserver) Publish(evt Event) {
	total := "?"
	if evt.Total != TotalUnknown {
		total = strconv.Itoa(evt.Total)
	}
	o.logger.Info("progress",
		zap.String("run_id", evt.RunID.String()),
		zap.String("institution", evt.Institution),
		zap.String("phase", string(evt.Phase)),
		zap.Int("current", evt.Current),
		zap.String("total", total),
	)
}

// PrometheusObserver exports progress gauges partitioned by institution and
// phase.
type PrometheusObserver struct {
	current *prometheus.GaugeVec
	total   *prometheus.GaugeVec
}

// NewPrometheusObserver registers the collectors against the provided
// registry (the default registerer when nil).
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		current: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "harvest_progress_current",
			Help: "Items completed so far, partitioned by institution and phase.",
		}, []string{"institution", "phase"}),
		total: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "harvest_progress_total",
			Help: "Expected item total, partitioned by institution and phase; -1 while unknown.",
		}, []string{"institution", "phase"}),
	}
	for _, c := range []prometheus.Collector{o.current, o.total} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Publish updates the gauges for the event's institution/phase pair.
func (o *PrometheusObserver) Publish(evt Event) {
	o.current.WithLabelValues(evt.Institution, string(evt.Phase)).Set(float64(evt.Current))
	o.total.WithLabelValues(evt.Institution, string(evt.Phase)).Set(float64(evt.Total))
}
