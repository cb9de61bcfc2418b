package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the serial audio monitor
type Metrics struct {
	// Serial ingest metrics
	BytesRead       prometheus.Counter
	FramesDecoded   prometheus.Counter
	DecoderResyncs  prometheus.Counter
	PayloadTimeouts prometheus.Counter

	// Ring buffer metrics
	SamplesPushed  prometheus.Counter
	SamplesDropped prometheus.Counter
	RingFill       prometheus.Gauge
	PopUnderruns   prometheus.Counter

	// Playback metrics
	BlocksPlayed      prometheus.Counter
	PlaybackUnderruns prometheus.Counter

	// Analysis metrics
	AnalysisCycles   prometheus.Counter
	AnalysisDuration prometheus.Histogram
	SignalRMS        prometheus.Gauge
	SignalPeak       prometheus.Gauge
	EnvironmentState prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Serial ingest metrics
		BytesRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_serial_bytes_read_total",
			Help: "Total number of bytes read from the serial source",
		}),
		FramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_frames_decoded_total",
			Help: "Total number of complete sample frames decoded",
		}),
		DecoderResyncs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_decoder_resyncs_total",
			Help: "Total number of decoder resynchronization events",
		}),
		PayloadTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_decoder_payload_timeouts_total",
			Help: "Total number of partial payloads abandoned on timeout",
		}),

		// Ring buffer metrics
		SamplesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_ring_samples_pushed_total",
			Help: "Total number of samples written to the ring buffer",
		}),
		SamplesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_ring_samples_dropped_total",
			Help: "Total number of oldest samples overwritten on overflow",
		}),
		RingFill: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "samon_ring_fill_samples",
			Help: "Current number of samples buffered for the playback consumer",
		}),
		PopUnderruns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_ring_underruns_total",
			Help: "Total number of destructive reads that came up short",
		}),

		// Playback metrics
		BlocksPlayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_playback_blocks_total",
			Help: "Total number of blocks delivered to the audio sink",
		}),
		PlaybackUnderruns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_playback_underruns_total",
			Help: "Total number of playback blocks padded with silence",
		}),

		// Analysis metrics
		AnalysisCycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "samon_analysis_cycles_total",
			Help: "Total number of analysis cycles executed",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "samon_analysis_duration_seconds",
			Help:    "Time spent per analysis cycle",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10), // 0.1ms to ~51ms
		}),
		SignalRMS: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "samon_signal_rms",
			Help: "RMS of the most recently analyzed block",
		}),
		SignalPeak: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "samon_signal_peak",
			Help: "Peak magnitude of the most recently analyzed block",
		}),
		EnvironmentState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "samon_environment_state",
			Help: "Current ambient classification (0=calm, 1=normal, 2=noisy)",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samon_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "samon_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "samon_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordBytesRead adds to the serial bytes counter
func (m *Metrics) RecordBytesRead(n int) {
	m.BytesRead.Add(float64(n))
}

// RecordFrameDecoded increments the decoded frame counter
func (m *Metrics) RecordFrameDecoded(samples int) {
	m.FramesDecoded.Inc()
	m.SamplesPushed.Add(float64(samples))
}

// RecordDecoderCounters bumps the resync/timeout counters by the delta
// between two decoder stats snapshots
func (m *Metrics) RecordDecoderCounters(resyncs, timeouts, prevResyncs, prevTimeouts uint64) {
	if resyncs > prevResyncs {
		m.DecoderResyncs.Add(float64(resyncs - prevResyncs))
	}
	if timeouts > prevTimeouts {
		m.PayloadTimeouts.Add(float64(timeouts - prevTimeouts))
	}
}

// RecordRingFill updates the ring fill gauge
func (m *Metrics) RecordRingFill(available int) {
	m.RingFill.Set(float64(available))
}

// RecordRingCounters bumps the dropped/underrun counters by the delta
// between two ring stats snapshots
func (m *Metrics) RecordRingCounters(dropped, underruns, prevDropped, prevUnderruns uint64) {
	if dropped > prevDropped {
		m.SamplesDropped.Add(float64(dropped - prevDropped))
	}
	if underruns > prevUnderruns {
		m.PopUnderruns.Add(float64(underruns - prevUnderruns))
	}
}

// RecordAnalysis records one analysis cycle
func (m *Metrics) RecordAnalysis(durationSeconds, rms, peak float64, state int) {
	m.AnalysisCycles.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
	m.SignalRMS.Set(rms)
	m.SignalPeak.Set(peak)
	m.EnvironmentState.Set(float64(state))
}

// RecordBlockPlayed records one block delivered to the audio sink
func (m *Metrics) RecordBlockPlayed(underrun bool) {
	m.BlocksPlayed.Inc()
	if underrun {
		m.PlaybackUnderruns.Inc()
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
