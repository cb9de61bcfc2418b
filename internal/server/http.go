package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kamalbura/serial-audio-monitor/internal/config"
	"github.com/Kamalbura/serial-audio-monitor/internal/metrics"
	"github.com/Kamalbura/serial-audio-monitor/internal/pipeline"
	"github.com/Kamalbura/serial-audio-monitor/internal/playback"
)

// HTTPServer provides HTTP API endpoints for monitoring
type HTTPServer struct {
	server *http.Server
	logger *slog.Logger
	config *config.Config
	pipe   *pipeline.Pipeline
	coord  *playback.Coordinator // nil when playback is disabled
	m      *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server. coord may be nil when
// playback is disabled.
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, pipe *pipeline.Pipeline, coord *playback.Coordinator, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		pipe:      pipe,
		coord:     coord,
		m:         m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.m.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.m.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	decStats := h.pipe.DecoderStats()
	ringStats := h.pipe.RingStats()

	playbackStatus := "disabled"
	if h.coord != nil {
		playbackStatus = "running"
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "serial-audio-monitor",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"decoder": map[string]interface{}{
				"status":           "running",
				"frames_decoded":   decStats.FramesDecoded,
				"resyncs":          decStats.Resyncs,
				"payload_timeouts": decStats.PayloadTimeouts,
			},
			"ring_buffer": map[string]interface{}{
				"status":    "running",
				"available": ringStats.Available,
				"capacity":  ringStats.Capacity,
			},
			"playback": map[string]interface{}{
				"status": playbackStatus,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":      time.Since(h.startTime).String(),
		"timestamp":   time.Now().UTC(),
		"decoder":     h.pipe.DecoderStats(),
		"ring_buffer": h.pipe.RingStats(),
		"latest":      h.pipe.Latest(),
		"rms_history": h.pipe.RMSHistory(),
	}
	if h.coord != nil {
		stats["playback"] = h.coord.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"serial": map[string]interface{}{
			"port":            h.config.Serial.Port,
			"baud":            h.config.Serial.Baud,
			"read_timeout_ms": h.config.Serial.ReadTimeoutMs,
		},
		"audio": map[string]interface{}{
			"sample_rate":   h.config.Audio.SampleRate,
			"block_size":    h.config.Audio.BlockSize,
			"ring_capacity": h.config.Audio.GetRingCapacity(),
			"playback":      h.config.Audio.Playback,
		},
		"protocol": map[string]interface{}{
			"payload_timeout_ms": h.config.Protocol.PayloadTimeoutMs,
			"max_frame_samples":  h.config.Protocol.MaxFrameSamples,
		},
		"filter": map[string]interface{}{
			"dc_coefficient": h.config.Filter.DCCoefficient,
			"lowpass_cutoff": h.config.Filter.LowpassCutoff,
			"lowpass_order":  h.config.Filter.LowpassOrder,
		},
		"classify": map[string]interface{}{
			"calm_threshold":  h.config.Classify.CalmThreshold,
			"noisy_threshold": h.config.Classify.NoisyThreshold,
			"diff_threshold":  h.config.Classify.DiffThreshold,
		},
		"analysis": map[string]interface{}{
			"interval_ms":    h.config.Analysis.IntervalMs,
			"history_length": h.config.Analysis.HistoryLength,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Serial Audio Monitor",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Service health check",
			"GET /stats":   "Decoder, buffer, playback and signal statistics",
			"GET /config":  "Get service configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}
