package playback

import (
	"fmt"
	"sync/atomic"

	"github.com/Kamalbura/serial-audio-monitor/internal/audio"
	"github.com/Kamalbura/serial-audio-monitor/internal/dsp"
	"github.com/Kamalbura/serial-audio-monitor/internal/metrics"
)

// sampleScale normalizes int16 samples into the sink's [-1, 1] float range.
const sampleScale = 1.0 / 32768.0

// Coordinator is the pull interface invoked by the audio sink's real-time
// thread. Provide must return within the block deadline, so it performs no
// allocation and no blocking I/O: it pops from the ring (zero-filling on
// underrun), runs the filter chain on preallocated scratch, and normalizes
// into the caller's buffer. It owns its Processor; filter state carries
// across blocks for glitch-free output.
type Coordinator struct {
	ring      *audio.Ring
	proc      *dsp.Processor
	blockSize int
	m         *metrics.Metrics

	ibuf []int16
	fbuf []float64

	blocks    atomic.Uint64
	underruns atomic.Uint64
}

// Stats is a snapshot of playback counters for monitoring.
type Stats struct {
	BlocksProvided uint64 `json:"blocks_provided"`
	Underruns      uint64 `json:"underruns"`
}

// NewCoordinator creates a coordinator pulling from ring and filtering with
// proc. blockSize bounds the scratch buffers; larger requests are served in
// blockSize chunks. The metrics handle may be nil.
func NewCoordinator(ring *audio.Ring, proc *dsp.Processor, blockSize int, m *metrics.Metrics) (*Coordinator, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &Coordinator{
		ring:      ring,
		proc:      proc,
		blockSize: blockSize,
		m:         m,
		ibuf:      make([]int16, blockSize),
		fbuf:      make([]float64, blockSize),
	}, nil
}

// Provide fills out with processed, normalized samples. On underrun the
// missing tail arrives as silence (the ring zero-fills) and the underrun
// counter is incremented; Provide never fails and never blocks beyond the
// ring's copy-length critical section.
func (c *Coordinator) Provide(out []float32) {
	underrun := false
	for len(out) > 0 {
		n := len(out)
		if n > c.blockSize {
			n = c.blockSize
		}
		got := c.ring.PopBlock(c.ibuf[:n])
		if got < n {
			underrun = true
		}
		for i := 0; i < n; i++ {
			c.fbuf[i] = float64(c.ibuf[i])
		}
		c.proc.ProcessBlock(c.fbuf[:n])
		for i := 0; i < n; i++ {
			out[i] = float32(c.fbuf[i] * sampleScale)
		}
		out = out[n:]
	}

	c.blocks.Add(1)
	if underrun {
		c.underruns.Add(1)
	}
	if c.m != nil {
		c.m.RecordBlockPlayed(underrun)
	}
}

// Stats returns a snapshot of the playback counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		BlocksProvided: c.blocks.Load(),
		Underruns:      c.underruns.Load(),
	}
}
