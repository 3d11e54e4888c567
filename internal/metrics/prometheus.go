// Package metrics exposes Prometheus counters/histograms for the engine and
// a dedicated HTTP listener to serve them, grounded on the teacher's
// internal/metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the registered counters, gauge and histogram. The engine
// increments RetrainsTotal, MidBurstTimeoutsTotal and DTEInactivityTimeouts;
// the other metrics are registered and exported, but nothing records
// against them.
type Metrics struct {
	IndicatorsSentTotal     *prometheus.CounterVec
	IndicatorsReceivedTotal *prometheus.CounterVec
	FramesSentTotal         prometheus.Counter
	FramesReceivedTotal     prometheus.Counter
	FrameCRCFailuresTotal   prometheus.Counter
	RetrainsTotal           *prometheus.CounterVec
	MidBurstTimeoutsTotal   prometheus.Counter
	DTEInactivityTimeouts   prometheus.Counter
	QueueDepth              prometheus.Gauge
	ModemRestartDuration    prometheus.Histogram
}

// New constructs and registers the engine's Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		IndicatorsSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "t31_indicators_sent_total",
			Help: "The total number of T.38 indicators sent, by indicator type",
		}, []string{"indicator"}),
		IndicatorsReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "t31_indicators_received_total",
			Help: "The total number of T.38 indicators received, by indicator type",
		}, []string{"indicator"}),
		FramesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "t31_hdlc_frames_sent_total",
			Help: "The total number of HDLC frames sent toward the modem path",
		}),
		FramesReceivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "t31_hdlc_frames_received_total",
			Help: "The total number of HDLC frames delivered to the DTE",
		}),
		FrameCRCFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "t31_hdlc_fcs_failures_total",
			Help: "The total number of HDLC frames dropped for a bad FCS",
		}),
		RetrainsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "t31_retrains_total",
			Help: "The total number of modem restarts, by new modem role",
		}, []string{"modem"}),
		MidBurstTimeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "t31_mid_burst_timeouts_total",
			Help: "The total number of T.38 mid-burst receive timeouts",
		}),
		DTEInactivityTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "t31_dte_inactivity_timeouts_total",
			Help: "The total number of DTE inactivity timeouts during HDLC/stuffed TX",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "t31_rx_queue_depth",
			Help: "The current number of messages queued for DTE delivery",
		}),
		ModemRestartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "t31_modem_restart_duration_seconds",
			Help:    "Wall time spent inside restart_modem",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.IndicatorsSentTotal)
	prometheus.MustRegister(m.IndicatorsReceivedTotal)
	prometheus.MustRegister(m.FramesSentTotal)
	prometheus.MustRegister(m.FramesReceivedTotal)
	prometheus.MustRegister(m.FrameCRCFailuresTotal)
	prometheus.MustRegister(m.RetrainsTotal)
	prometheus.MustRegister(m.MidBurstTimeoutsTotal)
	prometheus.MustRegister(m.DTEInactivityTimeouts)
	prometheus.MustRegister(m.QueueDepth)
	prometheus.MustRegister(m.ModemRestartDuration)
}

func (m *Metrics) RecordIndicatorSent(indicator string) {
	m.IndicatorsSentTotal.WithLabelValues(indicator).Inc()
}

func (m *Metrics) RecordIndicatorReceived(indicator string) {
	m.IndicatorsReceivedTotal.WithLabelValues(indicator).Inc()
}

func (m *Metrics) RecordRetrain(modem string) {
	m.RetrainsTotal.WithLabelValues(modem).Inc()
}

func (m *Metrics) SetQueueDepth(depth float64) {
	m.QueueDepth.Set(depth)
}
