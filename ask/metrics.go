package ask

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/synth"
)

const (
	stageProfile    = "profile"
	stageSynthesize = "synthesize"
	stageAnswer     = "answer"
)

type metrics struct {
	stageDuration *prometheus.HistogramVec
	rejected      *prometheus.CounterVec
	invocations   *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbask_stage_duration_seconds",
				Help:    "Duration of pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbask_sql_rejected_total",
				Help: "Total number of generated queries rejected by validation rule.",
			},
			[]string{"rule"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbask_invocations_total",
				Help: "Total number of invocations by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.stageDuration, m.rejected, m.invocations} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// outcome maps an invocation error to its metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrUnsupportedDialect):
		return "unsupported_dialect"
	case errors.Is(err, core.ErrConnection):
		return "connection"
	case errors.Is(err, core.ErrQueryExecution):
		return "query"
	case errors.Is(err, core.ErrInvalidSQL):
		return "invalid_sql"
	case errors.Is(err, core.ErrGenerationService):
		return "generation"
	default:
		return "error"
	}
}

func (m *metrics) observeRejection(err error) {
	var verr *synth.ValidationError
	if errors.As(err, &verr) {
		m.rejected.WithLabelValues(string(verr.Rule)).Inc()
	}
}
