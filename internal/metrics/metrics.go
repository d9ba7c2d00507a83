package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TradeRobot/internal/model"
)

// Recorder exposes evaluation-cycle metrics to Prometheus.
type Recorder struct {
	cycles        *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	baseline      *prometheus.GaugeVec
	seriesBars    *prometheus.GaugeVec
	cycleDuration prometheus.Histogram
	fetchErrors   *prometheus.CounterVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traderobot_cycles_total",
			Help: "Evaluation cycles by result",
		}, []string{"result"}),
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traderobot_decisions_total",
			Help: "Decisions emitted by successful cycles",
		}, []string{"decision"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "traderobot_last_price",
			Help: "Latest close seen by the evaluation",
		}, []string{"symbol"}),
		baseline: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "traderobot_baseline",
			Help: "Robust baseline of the current series",
		}, []string{"symbol"}),
		seriesBars: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "traderobot_series_bars",
			Help: "Bars held in the series store",
		}, []string{"symbol"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "traderobot_cycle_duration_seconds",
			Help:    "Duration of evaluation cycles",
			Buckets: prometheus.DefBuckets,
		}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "traderobot_fetch_errors_total",
			Help: "Data source failures by source and kind",
		}, []string{"source", "kind"}),
	}
}

// RecordEvaluation records the outcome of a successful cycle.
func (r *Recorder) RecordEvaluation(symbol string, bars int, ev *model.Evaluation) {
	r.cycles.WithLabelValues("ok").Inc()
	r.decisions.WithLabelValues(string(ev.Decision)).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(ev.Price)
	r.baseline.WithLabelValues(symbol).Set(ev.Baseline)
	r.seriesBars.WithLabelValues(symbol).Set(float64(bars))
}

// RecordFailure counts a failed cycle.
func (r *Recorder) RecordFailure() {
	r.cycles.WithLabelValues("error").Inc()
}

// RecordSkipped counts a trigger dropped because a cycle was already running.
func (r *Recorder) RecordSkipped() {
	r.cycles.WithLabelValues("skipped").Inc()
}

// RecordFetchError counts a data source failure.
func (r *Recorder) RecordFetchError(source, kind string) {
	r.fetchErrors.WithLabelValues(source, kind).Inc()
}

// ObserveCycle records cycle latency in seconds.
func (r *Recorder) ObserveCycle(seconds float64) {
	r.cycleDuration.Observe(seconds)
}

// Cycles exposes the cycle counter for inspection.
func (r *Recorder) Cycles() *prometheus.CounterVec {
	return r.cycles
}
