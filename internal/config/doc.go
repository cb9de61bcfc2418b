// Package config provides configuration loading and validation for the
// serial audio monitor. It handles YAML-based configuration with struct
// validation covering the serial link, audio pipeline, filters, classifier
// thresholds, HTTP API and logging.
package config
