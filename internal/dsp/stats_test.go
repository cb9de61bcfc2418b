package dsp

import (
	"math"
	"testing"
)

func TestAnalyzeKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		wantRMS  float64
		wantPeak float64
	}{
		{
			name:     "empty block",
			input:    nil,
			wantRMS:  0,
			wantPeak: 0,
		},
		{
			name:     "constant block",
			input:    []float64{100, 100, 100, 100},
			wantRMS:  100,
			wantPeak: 100,
		},
		{
			name:     "alternating sign",
			input:    []float64{-300, 300, -300, 300},
			wantRMS:  300,
			wantPeak: 300,
		},
		{
			name:     "single spike",
			input:    []float64{0, 0, 4000, 0},
			wantRMS:  2000,
			wantPeak: 4000,
		},
		{
			name:     "negative peak",
			input:    []float64{-5000, 10, 10, 10},
			wantRMS:  math.Sqrt((5000*5000 + 3*10*10) / 4.0),
			wantPeak: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.input, DefaultDiffThreshold)
			if math.Abs(got.RMS-tt.wantRMS) > 1e-9 {
				t.Errorf("RMS = %g, want %g", got.RMS, tt.wantRMS)
			}
			if got.Peak != tt.wantPeak {
				t.Errorf("Peak = %g, want %g", got.Peak, tt.wantPeak)
			}
		})
	}
}

func TestAnalyzeEnergySplit(t *testing.T) {
	// Differences strictly below the threshold accumulate in LowEnergy, the
	// rest in HighEnergy, each normalized by the block length.
	input := []float64{0, 100, 0, 3000, 0} // diffs: 100, 100, 3000, 3000
	got := Analyze(input, 1000)

	wantLow := (100.0 + 100.0) / 5.0
	wantHigh := (3000.0 + 3000.0) / 5.0

	if math.Abs(got.LowEnergy-wantLow) > 1e-9 {
		t.Errorf("LowEnergy = %g, want %g", got.LowEnergy, wantLow)
	}
	if math.Abs(got.HighEnergy-wantHigh) > 1e-9 {
		t.Errorf("HighEnergy = %g, want %g", got.HighEnergy, wantHigh)
	}
}

func TestAnalyzeEnergyPartition(t *testing.T) {
	// Every difference lands in exactly one bucket: the bucket sums must add
	// up to the total normalized difference energy, for any threshold.
	input := make([]float64, 64)
	for i := range input {
		input[i] = 2000 * math.Sin(2*math.Pi*float64(i)/7)
	}

	var total float64
	for i := 1; i < len(input); i++ {
		total += math.Abs(input[i] - input[i-1])
	}
	total /= float64(len(input))

	for _, threshold := range []float64{0, 500, 1000, 1e9} {
		got := Analyze(input, threshold)
		if sum := got.LowEnergy + got.HighEnergy; math.Abs(sum-total) > 1e-9 {
			t.Errorf("threshold %g: low+high = %g, want %g", threshold, sum, total)
		}
	}
}

func TestAnalyzeSlowVsFastSignals(t *testing.T) {
	// A slowly varying ramp is all low energy; a large square wave is all
	// high energy.
	slow := make([]float64, 32)
	for i := range slow {
		slow[i] = float64(i * 10)
	}
	got := Analyze(slow, DefaultDiffThreshold)
	if got.HighEnergy != 0 {
		t.Errorf("Ramp should have no high energy, got %g", got.HighEnergy)
	}
	if got.LowEnergy == 0 {
		t.Error("Ramp should have non-zero low energy")
	}

	fast := make([]float64, 32)
	for i := range fast {
		if i%2 == 0 {
			fast[i] = 4000
		} else {
			fast[i] = -4000
		}
	}
	got = Analyze(fast, DefaultDiffThreshold)
	if got.LowEnergy != 0 {
		t.Errorf("Square wave should have no low energy, got %g", got.LowEnergy)
	}
	if got.HighEnergy == 0 {
		t.Error("Square wave should have non-zero high energy")
	}
}
