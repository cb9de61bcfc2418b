// Package server implements the HTTP monitoring API: health, pipeline and
// playback statistics, sanitized configuration and Prometheus metrics.
// The audio pipeline runs independently of this surface.
package server
