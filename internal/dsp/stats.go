package dsp

import "math"

// DefaultDiffThreshold partitions absolute first differences into the low
// and high spectral energy buckets.
const DefaultDiffThreshold = 1000.0

// BlockStats holds the statistics derived from a single block of samples.
// They are recomputed fresh for every analysis cycle, never accumulated.
type BlockStats struct {
	RMS        float64 `json:"rms"`
	Peak       float64 `json:"peak"`
	LowEnergy  float64 `json:"low_energy"`
	HighEnergy float64 `json:"high_energy"`
}

// Analyze computes RMS, peak and the spectral energy split for one block.
//
// The energy split is a cheap proxy for spectral tilt: the absolute first
// difference of consecutive samples is summed below and at/above the
// threshold, each sum normalized by the block length. Slowly varying
// (low-frequency) signals land in LowEnergy, rapidly varying ones in
// HighEnergy.
func Analyze(x []float64, diffThreshold float64) BlockStats {
	if len(x) == 0 {
		return BlockStats{}
	}

	var sumSq, peak, low, high float64
	for i, v := range x {
		sumSq += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
		if i > 0 {
			d := math.Abs(v - x[i-1])
			if d < diffThreshold {
				low += d
			} else {
				high += d
			}
		}
	}

	n := float64(len(x))
	return BlockStats{
		RMS:        math.Sqrt(sumSq / n),
		Peak:       peak,
		LowEnergy:  low / n,
		HighEnergy: high / n,
	}
}
