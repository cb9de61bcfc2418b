package dsp

import (
	"fmt"
	"math"
)

// Default filter parameters, matching the microphone deployment:
// 16 kHz sample rate, 3 kHz low-pass cutoff, order-4 Butterworth,
// DC blocker coefficient 0.995.
const (
	DefaultDCCoefficient = 0.995
	DefaultCutoffHz      = 3000.0
	DefaultLowpassOrder  = 4
)

// DCBlocker is a one-pole DC removal filter:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// On constant input the output converges toward zero, stripping sensor and
// amplifier bias. State persists across blocks until Reset.
type DCBlocker struct {
	r       float64
	prevIn  float64
	prevOut float64
}

// NewDCBlocker creates a DC blocker with coefficient r (0 < r < 1).
func NewDCBlocker(r float64) (*DCBlocker, error) {
	if r <= 0 || r >= 1 {
		return nil, fmt.Errorf("dc coefficient must be in (0, 1), got %g", r)
	}
	return &DCBlocker{r: r}, nil
}

// ProcessBlock filters the block in place.
func (d *DCBlocker) ProcessBlock(x []float64) {
	prevIn, prevOut := d.prevIn, d.prevOut
	for i, in := range x {
		out := in - prevIn + d.r*prevOut
		prevIn = in
		prevOut = out
		x[i] = out
	}
	d.prevIn, d.prevOut = prevIn, prevOut
}

// Reset clears the filter state.
func (d *DCBlocker) Reset() {
	d.prevIn = 0
	d.prevOut = 0
}

// biquad is one second-order IIR section in direct form II transposed.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (s *biquad) processBlock(x []float64) {
	z1, z2 := s.z1, s.z2
	for i, in := range x {
		out := s.b0*in + z1
		z1 = s.b1*in - s.a1*out + z2
		z2 = s.b2*in - s.a2*out
		x[i] = out
	}
	s.z1, s.z2 = z1, z2
}

func (s *biquad) reset() {
	s.z1 = 0
	s.z2 = 0
}

// Lowpass is an even-order Butterworth low-pass filter realized as a
// cascade of biquad sections. Section Q values follow the Butterworth pole
// placement Q_k = 1 / (2*sin(pi*(2k+1)/(2N))); the per-section coefficients
// come from the RBJ audio EQ cookbook low-pass formulas.
type Lowpass struct {
	sections []biquad
}

// NewLowpass designs an order-N Butterworth low-pass for the given cutoff
// and sample rate. The order must be a positive even number and the cutoff
// must lie below the Nyquist frequency.
func NewLowpass(cutoffHz, sampleRate float64, order int) (*Lowpass, error) {
	if order <= 0 || order%2 != 0 {
		return nil, fmt.Errorf("lowpass order must be a positive even number, got %d", order)
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 {
		return nil, fmt.Errorf("cutoff %g Hz must be in (0, %g)", cutoffHz, sampleRate/2)
	}

	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	sections := make([]biquad, order/2)
	for k := range sections {
		q := 1 / (2 * math.Sin(math.Pi*float64(2*k+1)/float64(2*order)))
		alpha := sinW0 / (2 * q)
		a0 := 1 + alpha
		sections[k] = biquad{
			b0: (1 - cosW0) / 2 / a0,
			b1: (1 - cosW0) / a0,
			b2: (1 - cosW0) / 2 / a0,
			a1: -2 * cosW0 / a0,
			a2: (1 - alpha) / a0,
		}
	}
	return &Lowpass{sections: sections}, nil
}

// ProcessBlock filters the block in place.
func (l *Lowpass) ProcessBlock(x []float64) {
	for i := range l.sections {
		l.sections[i].processBlock(x)
	}
}

// Reset clears the state of every section.
func (l *Lowpass) Reset() {
	for i := range l.sections {
		l.sections[i].reset()
	}
}

// FilterConfig selects the processing chain parameters.
type FilterConfig struct {
	DCCoefficient float64
	CutoffHz      float64
	Order         int
	SampleRate    float64
}

// Processor applies the full chain — DC removal followed by low-pass
// smoothing — to sample blocks in place. The same chain is used for both
// playback and analysis so what is heard matches what is classified; each
// consumer owns its own Processor because filter state is mutable.
//
// ProcessBlock performs no allocation and is safe to call from a real-time
// audio callback. Processor is not safe for concurrent use.
type Processor struct {
	dc *DCBlocker
	lp *Lowpass
}

// NewProcessor builds a processor from the filter configuration.
func NewProcessor(cfg FilterConfig) (*Processor, error) {
	dc, err := NewDCBlocker(cfg.DCCoefficient)
	if err != nil {
		return nil, fmt.Errorf("dc blocker: %w", err)
	}
	lp, err := NewLowpass(cfg.CutoffHz, cfg.SampleRate, cfg.Order)
	if err != nil {
		return nil, fmt.Errorf("lowpass: %w", err)
	}
	return &Processor{dc: dc, lp: lp}, nil
}

// ProcessBlock filters the block in place: DC removal, then low-pass.
func (p *Processor) ProcessBlock(x []float64) {
	p.dc.ProcessBlock(x)
	p.lp.ProcessBlock(x)
}

// Reset clears all filter state.
func (p *Processor) Reset() {
	p.dc.Reset()
	p.lp.Reset()
}
