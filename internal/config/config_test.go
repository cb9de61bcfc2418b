package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	return cfg
}

func TestDefaultConfigValidAfterPort(t *testing.T) {
	// The defaults carry everything except the serial port, which must come
	// from the file or a flag.
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to fail without a serial port")
	}

	cfg.Serial.Port = "/dev/ttyUSB0"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config with port should validate, got: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
	}{
		{
			name:        "valid config",
			modify:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty port",
			modify:      func(c *Config) { c.Serial.Port = "" },
			expectError: true,
		},
		{
			name:        "baud too low",
			modify:      func(c *Config) { c.Serial.Baud = 300 },
			expectError: true,
		},
		{
			name:        "read chunk too small",
			modify:      func(c *Config) { c.Serial.ReadChunk = 16 },
			expectError: true,
		},
		{
			name:        "sample rate too low",
			modify:      func(c *Config) { c.Audio.SampleRate = 4000 },
			expectError: true,
		},
		{
			name:        "block size too large",
			modify:      func(c *Config) { c.Audio.BlockSize = 8192 },
			expectError: true,
		},
		{
			name:        "ring smaller than a block",
			modify:      func(c *Config) { c.Audio.RingCapacity = 100 },
			expectError: true,
		},
		{
			name:        "ring capacity zero means default",
			modify:      func(c *Config) { c.Audio.RingCapacity = 0 },
			expectError: false,
		},
		{
			name:        "zero payload timeout",
			modify:      func(c *Config) { c.Protocol.PayloadTimeoutMs = 0 },
			expectError: true,
		},
		{
			name:        "dc coefficient out of range",
			modify:      func(c *Config) { c.Filter.DCCoefficient = 1.0 },
			expectError: true,
		},
		{
			name:        "cutoff above nyquist",
			modify:      func(c *Config) { c.Filter.LowpassCutoff = 9000 },
			expectError: true,
		},
		{
			name:        "odd filter order",
			modify:      func(c *Config) { c.Filter.LowpassOrder = 3 },
			expectError: true,
		},
		{
			name:        "noisy below calm threshold",
			modify:      func(c *Config) { c.Classify.NoisyThreshold = 400 },
			expectError: true,
		},
		{
			name:        "negative diff threshold",
			modify:      func(c *Config) { c.Classify.DiffThreshold = -1 },
			expectError: true,
		},
		{
			name:        "interval too short",
			modify:      func(c *Config) { c.Analysis.IntervalMs = 5 },
			expectError: true,
		},
		{
			name:        "zero history length",
			modify:      func(c *Config) { c.Analysis.HistoryLength = 0 },
			expectError: true,
		},
		{
			name:        "invalid http port",
			modify:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
		},
		{
			name: "http disabled skips http checks",
			modify: func(c *Config) {
				c.HTTP.Enabled = false
				c.HTTP.Port = 0
				c.HTTP.Address = ""
			},
			expectError: false,
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
serial:
  port: /dev/ttyACM1
  baud: 2000000

audio:
  sample_rate: 16000
  block_size: 128
  playback: true

classify:
  calm_threshold: 300
  noisy_threshold: 4000

logging:
  level: debug
  format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// File values land where written.
	if cfg.Serial.Port != "/dev/ttyACM1" {
		t.Errorf("Port = %q, want /dev/ttyACM1", cfg.Serial.Port)
	}
	if cfg.Serial.Baud != 2000000 {
		t.Errorf("Baud = %d, want 2000000", cfg.Serial.Baud)
	}
	if cfg.Audio.BlockSize != 128 {
		t.Errorf("BlockSize = %d, want 128", cfg.Audio.BlockSize)
	}
	if !cfg.Audio.Playback {
		t.Error("Expected playback enabled")
	}
	if cfg.Classify.CalmThreshold != 300 {
		t.Errorf("CalmThreshold = %g, want 300", cfg.Classify.CalmThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}

	// Unspecified values keep their defaults.
	if cfg.Serial.ReadChunk != 4096 {
		t.Errorf("ReadChunk = %d, want default 4096", cfg.Serial.ReadChunk)
	}
	if cfg.Filter.DCCoefficient != 0.995 {
		t.Errorf("DCCoefficient = %g, want default 0.995", cfg.Filter.DCCoefficient)
	}
	if cfg.Analysis.IntervalMs != 100 {
		t.Errorf("IntervalMs = %d, want default 100", cfg.Analysis.IntervalMs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("serial: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	content := `
serial:
  port: /dev/ttyUSB0
audio:
  sample_rate: 96000
`
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error for out-of-range sample rate")
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Serial.GetReadTimeout(); got != 100*time.Millisecond {
		t.Errorf("GetReadTimeout = %v, want 100ms", got)
	}
	if got := cfg.Protocol.GetPayloadTimeout(); got != 500*time.Millisecond {
		t.Errorf("GetPayloadTimeout = %v, want 500ms", got)
	}
	if got := cfg.Analysis.GetInterval(); got != 100*time.Millisecond {
		t.Errorf("GetInterval = %v, want 100ms", got)
	}
}

func TestGetRingCapacity(t *testing.T) {
	cfg := validConfig()

	// Zero selects two blocks of slack.
	cfg.Audio.RingCapacity = 0
	if got := cfg.Audio.GetRingCapacity(); got != 2*cfg.Audio.BlockSize {
		t.Errorf("GetRingCapacity = %d, want %d", got, 2*cfg.Audio.BlockSize)
	}

	cfg.Audio.RingCapacity = 1024
	if got := cfg.Audio.GetRingCapacity(); got != 1024 {
		t.Errorf("GetRingCapacity = %d, want 1024", got)
	}
}
