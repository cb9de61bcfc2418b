package audio

import (
	"fmt"
	"sync"
)

// Ring is a fixed-capacity circular buffer of signed 16-bit samples.
//
// The serial-reading producer pushes samples; when the buffer is full the
// oldest sample is overwritten (drop-oldest) rather than blocking the writer.
// The playback consumer pops destructively from the oldest end; observers
// take non-destructive snapshots of the most recent samples. All operations
// hold the mutex only for the duration of copying, so neither side can stall
// the other for longer than one block copy.
type Ring struct {
	mu  sync.Mutex
	buf []int16

	w     int // next write index
	avail int // samples available to the destructive reader
	total uint64

	dropped   uint64
	popped    uint64
	underruns uint64
}

// RingStats is a snapshot of ring buffer counters for monitoring.
type RingStats struct {
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
	Pushed    uint64 `json:"samples_pushed"`
	Popped    uint64 `json:"samples_popped"`
	Dropped   uint64 `json:"samples_dropped"`
	Underruns uint64 `json:"underruns"`
}

// NewRing creates a ring buffer holding capacity samples.
func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be positive, got %d", capacity)
	}
	return &Ring{buf: make([]int16, capacity)}, nil
}

// Capacity returns the fixed capacity in samples.
func (r *Ring) Capacity() int {
	return len(r.buf)
}

// Push appends one sample, overwriting the oldest when full. It never
// blocks and never fails.
func (r *Ring) Push(s int16) {
	r.mu.Lock()
	r.push(s)
	r.mu.Unlock()
}

// PushBlock appends a block of samples under a single lock acquisition.
func (r *Ring) PushBlock(samples []int16) {
	r.mu.Lock()
	for _, s := range samples {
		r.push(s)
	}
	r.mu.Unlock()
}

func (r *Ring) push(s int16) {
	r.buf[r.w] = s
	r.w++
	if r.w == len(r.buf) {
		r.w = 0
	}
	r.total++
	if r.avail < len(r.buf) {
		r.avail++
	} else {
		r.dropped++
	}
}

// PopBlock destructively reads the oldest len(dst) samples into dst and
// returns how many were actually available. When fewer than len(dst) are
// buffered, the missing tail is zero-filled and exactly one underrun is
// recorded. PopBlock never blocks and never allocates.
func (r *Ring) PopBlock(dst []int16) int {
	r.mu.Lock()
	n := r.avail
	if n > len(dst) {
		n = len(dst)
	}
	start := r.w - r.avail
	if start < 0 {
		start += len(r.buf)
	}
	first := copy(dst[:n], r.buf[start:min(start+n, len(r.buf))])
	if first < n {
		copy(dst[first:n], r.buf[:n-first])
	}
	r.avail -= n
	r.popped += uint64(n)
	if n < len(dst) {
		r.underruns++
	}
	r.mu.Unlock()

	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return n
}

// Snapshot non-destructively copies the most recently written len(dst)
// samples into dst in arrival order. Samples already consumed by PopBlock
// remain visible as long as they have not been overwritten. When fewer than
// len(dst) samples have ever been written, the leading (oldest) positions
// are zero-filled so callers always receive a full block.
func (r *Ring) Snapshot(dst []int16) {
	r.mu.Lock()
	n := len(dst)
	if n > len(r.buf) {
		n = len(r.buf)
	}
	if uint64(n) > r.total {
		n = int(r.total)
	}
	pad := len(dst) - n
	start := r.w - n
	if start < 0 {
		start += len(r.buf)
	}
	first := copy(dst[pad:], r.buf[start:min(start+n, len(r.buf))])
	if first < n {
		copy(dst[pad+first:], r.buf[:n-first])
	}
	r.mu.Unlock()

	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
}

// Available returns the number of samples the destructive reader can pop.
func (r *Ring) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.avail
}

// Stats returns a snapshot of the ring counters.
func (r *Ring) Stats() RingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RingStats{
		Capacity:  len(r.buf),
		Available: r.avail,
		Pushed:    r.total,
		Popped:    r.popped,
		Dropped:   r.dropped,
		Underruns: r.underruns,
	}
}
