package nest

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/flatnest/errors"
)

const (
	pathLabel  = "path"
	opLabel    = "op"
	phaseLabel = "phase"
	kindLabel  = "kind"

	pathZeroCopy = "zero_copy"
	pathGeneric  = "generic"
)

type metrics struct {
	cntSerialize *prometheus.CounterVec
	cntLeaves    *prometheus.CounterVec
	cntErrors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		cntSerialize: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatnest_serialize_total",
			Help: "Count of Serialize calls by the path that produced the buffer",
		}, []string{pathLabel}),
		cntLeaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatnest_leaves_total",
			Help: "Count of leaves moved between nested values and flat buffers",
		}, []string{opLabel}),
		cntErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatnest_errors_total",
			Help: "Count of failed codec calls by phase and kind",
		}, []string{phaseLabel, kindLabel}),
	}

	for _, c := range []prometheus.Collector{m.cntSerialize, m.cntLeaves, m.cntErrors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "register metrics")
		}
	}
	return m, nil
}

// A nil *metrics records nothing.

func (m *metrics) serialized(path string, leaves int) {
	if m == nil {
		return
	}
	m.cntSerialize.WithLabelValues(path).Inc()
	m.cntLeaves.WithLabelValues(string(errors.PhaseSerialize)).Add(float64(leaves))
}

func (m *metrics) deserialized(leaves int) {
	if m == nil {
		return
	}
	m.cntLeaves.WithLabelValues(string(errors.PhaseDeserialize)).Add(float64(leaves))
}

func (m *metrics) failed(err error) {
	if m == nil || err == nil {
		return
	}
	phase, kind, _ := errors.Classify(err)
	m.cntErrors.WithLabelValues(string(phase), string(kind)).Inc()
}
