package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kamalbura/serial-audio-monitor/internal/classify"
	"github.com/Kamalbura/serial-audio-monitor/internal/config"
	"github.com/Kamalbura/serial-audio-monitor/internal/dsp"
	"github.com/Kamalbura/serial-audio-monitor/internal/metrics"
	"github.com/Kamalbura/serial-audio-monitor/internal/pipeline"
	"github.com/Kamalbura/serial-audio-monitor/internal/playback"
	"github.com/Kamalbura/serial-audio-monitor/internal/protocol"
	"github.com/Kamalbura/serial-audio-monitor/internal/server"
	"github.com/Kamalbura/serial-audio-monitor/internal/source"
)

const (
	serviceName    = "serial-audio-monitor"
	serviceVersion = "1.0.0"
)

func main() {
	// Parse command line flags; port/baud/play override the config file
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	port := flag.String("port", "", "Serial port (e.g., /dev/ttyUSB0 or COM3)")
	baud := flag.Int("baud", 0, "Baud rate")
	play := flag.Bool("play", false, "Enable audio playback")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *play {
		cfg.Audio.Playback = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
	)
	logger.Info("Configuration loaded",
		slog.String("serial_port", cfg.Serial.Port),
		slog.Int("baud", cfg.Serial.Baud),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("block_size", cfg.Audio.BlockSize),
		slog.Int("ring_capacity", cfg.Audio.GetRingCapacity()),
		slog.Bool("playback", cfg.Audio.Playback),
		slog.Float64("calm_threshold", cfg.Classify.CalmThreshold),
		slog.Float64("noisy_threshold", cfg.Classify.NoisyThreshold),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Open the byte source. Without a source there is nothing to do.
	src, err := source.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.GetReadTimeout())
	if err != nil {
		logger.Error("Failed to open serial source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Serial source opened",
		slog.String("port", cfg.Serial.Port),
		slog.Int("baud", cfg.Serial.Baud),
	)

	// Assemble the pipeline
	pipeCfg := pipeline.Config{
		SampleRate:    cfg.Audio.SampleRate,
		BlockSize:     cfg.Audio.BlockSize,
		RingCapacity:  cfg.Audio.GetRingCapacity(),
		ReadChunk:     cfg.Serial.ReadChunk,
		Interval:      cfg.Analysis.GetInterval(),
		HistoryLen:    cfg.Analysis.HistoryLength,
		DiffThreshold: cfg.Classify.DiffThreshold,
		Thresholds: classify.Thresholds{
			Calm:  cfg.Classify.CalmThreshold,
			Noisy: cfg.Classify.NoisyThreshold,
		},
		Decoder: protocol.Config{
			MaxFrameSamples: cfg.Protocol.MaxFrameSamples,
			PayloadTimeout:  cfg.Protocol.GetPayloadTimeout(),
		},
		Filter: dsp.FilterConfig{
			DCCoefficient: cfg.Filter.DCCoefficient,
			CutoffHz:      cfg.Filter.LowpassCutoff,
			Order:         cfg.Filter.LowpassOrder,
			SampleRate:    float64(cfg.Audio.SampleRate),
		},
	}

	pipe, err := pipeline.New(pipeCfg, src, logger, appMetrics)
	if err != nil {
		logger.Error("Failed to create pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize playback (optional). A sink failure is reported but does
	// not stop the analysis path.
	var coord *playback.Coordinator
	var sink *playback.Sink
	if cfg.Audio.Playback {
		proc, err := dsp.NewProcessor(pipeCfg.Filter)
		if err != nil {
			logger.Error("Failed to create playback processor", slog.String("error", err.Error()))
			os.Exit(1)
		}
		coord, err = playback.NewCoordinator(pipe.Ring(), proc, cfg.Audio.BlockSize, appMetrics)
		if err != nil {
			logger.Error("Failed to create playback coordinator", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sink, err = playback.NewSink(coord, cfg.Audio.SampleRate, cfg.Audio.BlockSize, logger)
		if err != nil {
			logger.Warn("Audio sink unavailable, continuing without playback",
				slog.String("error", err.Error()),
			)
			coord = nil
			sink = nil
		}
	}

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, pipe, coord, appMetrics)
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start everything
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pipe.Start(ctx); err != nil {
		logger.Error("Failed to start pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if sink != nil {
		if err := sink.Start(); err != nil {
			logger.Warn("Failed to start audio sink, continuing without playback",
				slog.String("error", err.Error()),
			)
			sink.Stop()
			sink = nil
		}
	}

	if httpServer != nil {
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// Stop the audio sink so nothing pulls from the ring anymore
	if sink != nil {
		sink.Stop()
	}

	// Stop the pipeline (toggles streaming off and joins both loops)
	if err := pipe.Stop(); err != nil {
		logger.Error("Error stopping pipeline", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
