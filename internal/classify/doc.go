// Package classify maps block statistics to a discrete ambient-noise state.
// Classification is memoryless: each cycle is judged on its own statistics
// with no smoothing or hysteresis, so borderline input can oscillate between
// adjacent states. Consumers that need stability must debounce downstream.
package classify
