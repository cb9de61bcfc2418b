package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete monitor configuration
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Audio    AudioConfig    `yaml:"audio"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Filter   FilterConfig   `yaml:"filter"`
	Classify ClassifyConfig `yaml:"classify"`
	Analysis AnalysisConfig `yaml:"analysis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SerialConfig contains the byte-source link parameters
type SerialConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
	ReadChunk     int    `yaml:"read_chunk"` // bytes per Read call
}

// AudioConfig contains audio pipeline parameters
type AudioConfig struct {
	SampleRate   int  `yaml:"sample_rate"`
	BlockSize    int  `yaml:"block_size"`    // samples per playback block
	RingCapacity int  `yaml:"ring_capacity"` // samples; 0 selects 2*block_size
	Playback     bool `yaml:"playback"`
}

// ProtocolConfig contains frame decoder parameters
type ProtocolConfig struct {
	PayloadTimeoutMs int `yaml:"payload_timeout_ms"`
	MaxFrameSamples  int `yaml:"max_frame_samples"`
}

// FilterConfig contains the processing chain parameters
type FilterConfig struct {
	DCCoefficient float64 `yaml:"dc_coefficient"`
	LowpassCutoff float64 `yaml:"lowpass_cutoff"` // Hz
	LowpassOrder  int     `yaml:"lowpass_order"`
}

// ClassifyConfig contains ambient classification thresholds
type ClassifyConfig struct {
	CalmThreshold  float64 `yaml:"calm_threshold"`
	NoisyThreshold float64 `yaml:"noisy_threshold"`
	DiffThreshold  float64 `yaml:"diff_threshold"`
}

// AnalysisConfig contains the observer loop parameters
type AnalysisConfig struct {
	IntervalMs    int `yaml:"interval_ms"`
	HistoryLength int `yaml:"history_length"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is supplied. The
// serial port has no sensible default and must come from the file or a
// command-line flag.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Baud:          115200,
			ReadTimeoutMs: 100,
			ReadChunk:     4096,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			BlockSize:  256,
		},
		Protocol: ProtocolConfig{
			PayloadTimeoutMs: 500,
			MaxFrameSamples:  4096,
		},
		Filter: FilterConfig{
			DCCoefficient: 0.995,
			LowpassCutoff: 3000,
			LowpassOrder:  4,
		},
		Classify: ClassifyConfig{
			CalmThreshold:  500,
			NoisyThreshold: 5000,
			DiffThreshold:  1000,
		},
		Analysis: AnalysisConfig{
			IntervalMs:    100,
			HistoryLength: 100,
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Address: "127.0.0.1",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file, layered over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Serial.Validate(); err != nil {
		return fmt.Errorf("serial config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Protocol.Validate(); err != nil {
		return fmt.Errorf("protocol config: %w", err)
	}

	if err := c.Filter.Validate(c.Audio.SampleRate); err != nil {
		return fmt.Errorf("filter config: %w", err)
	}

	if err := c.Classify.Validate(); err != nil {
		return fmt.Errorf("classify config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates serial link configuration
func (s *SerialConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if s.Baud < 1200 {
		return fmt.Errorf("baud must be at least 1200, got %d", s.Baud)
	}

	if s.ReadTimeoutMs < 1 {
		return fmt.Errorf("read_timeout_ms must be at least 1, got %d", s.ReadTimeoutMs)
	}

	if s.ReadChunk < 64 {
		return fmt.Errorf("read_chunk must be at least 64 bytes, got %d", s.ReadChunk)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.BlockSize < 64 || a.BlockSize > 4096 {
		return fmt.Errorf("block_size must be between 64 and 4096 samples, got %d", a.BlockSize)
	}

	if a.RingCapacity != 0 && a.RingCapacity < a.BlockSize {
		return fmt.Errorf("ring_capacity (%d) must be at least one block (%d)", a.RingCapacity, a.BlockSize)
	}

	return nil
}

// Validate validates protocol configuration
func (p *ProtocolConfig) Validate() error {
	if p.PayloadTimeoutMs < 1 {
		return fmt.Errorf("payload_timeout_ms must be at least 1, got %d", p.PayloadTimeoutMs)
	}

	if p.MaxFrameSamples < 1 {
		return fmt.Errorf("max_frame_samples must be at least 1, got %d", p.MaxFrameSamples)
	}

	return nil
}

// Validate validates filter configuration
func (f *FilterConfig) Validate(sampleRate int) error {
	if f.DCCoefficient <= 0 || f.DCCoefficient >= 1 {
		return fmt.Errorf("dc_coefficient must be in (0, 1), got %g", f.DCCoefficient)
	}

	if f.LowpassCutoff <= 0 || f.LowpassCutoff >= float64(sampleRate)/2 {
		return fmt.Errorf("lowpass_cutoff must be in (0, %d) Hz, got %g", sampleRate/2, f.LowpassCutoff)
	}

	if f.LowpassOrder <= 0 || f.LowpassOrder%2 != 0 {
		return fmt.Errorf("lowpass_order must be a positive even number, got %d", f.LowpassOrder)
	}

	return nil
}

// Validate validates classification thresholds
func (c *ClassifyConfig) Validate() error {
	if c.CalmThreshold <= 0 {
		return fmt.Errorf("calm_threshold must be positive, got %g", c.CalmThreshold)
	}

	if c.NoisyThreshold <= c.CalmThreshold {
		return fmt.Errorf("noisy_threshold (%g) must be greater than calm_threshold (%g)",
			c.NoisyThreshold, c.CalmThreshold)
	}

	if c.DiffThreshold <= 0 {
		return fmt.Errorf("diff_threshold must be positive, got %g", c.DiffThreshold)
	}

	return nil
}

// Validate validates observer loop configuration
func (a *AnalysisConfig) Validate() error {
	if a.IntervalMs < 10 {
		return fmt.Errorf("interval_ms must be at least 10, got %d", a.IntervalMs)
	}

	if a.HistoryLength < 1 {
		return fmt.Errorf("history_length must be at least 1, got %d", a.HistoryLength)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetReadTimeout returns the serial read timeout as a time.Duration
func (s *SerialConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// GetPayloadTimeout returns the decoder payload timeout as a time.Duration
func (p *ProtocolConfig) GetPayloadTimeout() time.Duration {
	return time.Duration(p.PayloadTimeoutMs) * time.Millisecond
}

// GetInterval returns the analysis interval as a time.Duration
func (a *AnalysisConfig) GetInterval() time.Duration {
	return time.Duration(a.IntervalMs) * time.Millisecond
}

// GetRingCapacity returns the configured ring capacity, defaulting to two
// playback blocks of slack
func (a *AudioConfig) GetRingCapacity() int {
	if a.RingCapacity > 0 {
		return a.RingCapacity
	}
	return 2 * a.BlockSize
}
