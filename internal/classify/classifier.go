package classify

import "fmt"

// State is the ambient-noise classification of the current block.
type State int

const (
	StateCalm State = iota
	StateNormal
	StateNoisy
)

// Default RMS thresholds for raw 16-bit sample magnitudes.
const (
	DefaultCalmThreshold  = 500.0
	DefaultNoisyThreshold = 5000.0
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateCalm:
		return "Calm"
	case StateNormal:
		return "Normal"
	case StateNoisy:
		return "Noisy"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Thresholds holds the RMS boundaries used by Classify.
type Thresholds struct {
	Calm  float64
	Noisy float64
}

// DefaultThresholds returns the standard threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{Calm: DefaultCalmThreshold, Noisy: DefaultNoisyThreshold}
}

// Classify maps statistics to a state, evaluated in fixed priority order:
//
//  1. Calm when rms is below the calm threshold or low-frequency energy
//     dominates (low > 2*high).
//  2. Noisy when rms is above the noisy threshold or high-frequency energy
//     dominates (high > 2*low).
//  3. Normal otherwise.
//
// The function is pure; no state is retained between calls.
func Classify(rms, lowEnergy, highEnergy float64, t Thresholds) State {
	switch {
	case rms < t.Calm || lowEnergy > 2*highEnergy:
		return StateCalm
	case rms > t.Noisy || highEnergy > 2*lowEnergy:
		return StateNoisy
	default:
		return StateNormal
	}
}
