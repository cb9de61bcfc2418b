package audio

import (
	"sync"
	"testing"
)

func ramp(n int, start int16) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = start + int16(i)
	}
	return samples
}

func TestNewRing(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int
		expectError bool
	}{
		{name: "valid capacity", capacity: 512, expectError: false},
		{name: "capacity of one", capacity: 1, expectError: false},
		{name: "zero capacity", capacity: 0, expectError: true},
		{name: "negative capacity", capacity: -8, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRing(tt.capacity)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if r.Capacity() != tt.capacity {
				t.Errorf("Expected capacity %d, got %d", tt.capacity, r.Capacity())
			}
			if r.Available() != 0 {
				t.Errorf("Expected empty ring, got %d available", r.Available())
			}
		})
	}
}

func TestDropOldestInvariant(t *testing.T) {
	// After pushing N > C samples, a snapshot of C samples returns exactly
	// the last C pushed, in arrival order.
	const capacity = 16
	const n = 50

	r, err := NewRing(capacity)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(n, 0))

	snap := make([]int16, capacity)
	r.Snapshot(snap)

	for i := 0; i < capacity; i++ {
		want := int16(n - capacity + i)
		if snap[i] != want {
			t.Errorf("snapshot[%d] = %d, want %d", i, snap[i], want)
		}
	}

	stats := r.Stats()
	if stats.Pushed != n {
		t.Errorf("Expected %d pushed, got %d", n, stats.Pushed)
	}
	if stats.Dropped != n-capacity {
		t.Errorf("Expected %d dropped, got %d", n-capacity, stats.Dropped)
	}
}

func TestPopBlockFIFO(t *testing.T) {
	r, err := NewRing(32)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(20, 100))

	dst := make([]int16, 10)
	if got := r.PopBlock(dst); got != 10 {
		t.Fatalf("Expected 10 samples, got %d", got)
	}
	for i := range dst {
		if dst[i] != int16(100+i) {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], 100+i)
		}
	}

	// Second pop continues where the first left off.
	if got := r.PopBlock(dst); got != 10 {
		t.Fatalf("Expected 10 samples, got %d", got)
	}
	for i := range dst {
		if dst[i] != int16(110+i) {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], 110+i)
		}
	}

	if stats := r.Stats(); stats.Underruns != 0 {
		t.Errorf("Expected no underruns, got %d", stats.Underruns)
	}
}

func TestPopBlockUnderrun(t *testing.T) {
	r, err := NewRing(32)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(4, 1)) // 1 2 3 4

	dst := make([]int16, 10)
	for i := range dst {
		dst[i] = -1 // sentinel to catch missing zero-fill
	}

	got := r.PopBlock(dst)
	if got != 4 {
		t.Fatalf("Expected 4 available samples, got %d", got)
	}
	for i := 0; i < 4; i++ {
		if dst[i] != int16(1+i) {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], 1+i)
		}
	}
	for i := 4; i < 10; i++ {
		if dst[i] != 0 {
			t.Errorf("dst[%d] = %d, want zero-fill", i, dst[i])
		}
	}

	// Exactly one underrun per short pop.
	if stats := r.Stats(); stats.Underruns != 1 {
		t.Errorf("Expected exactly 1 underrun, got %d", stats.Underruns)
	}

	r.PopBlock(dst)
	if stats := r.Stats(); stats.Underruns != 2 {
		t.Errorf("Expected 2 underruns after empty pop, got %d", stats.Underruns)
	}
}

func TestSnapshotDoesNotConsume(t *testing.T) {
	r, err := NewRing(32)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(8, 0))

	snap := make([]int16, 8)
	r.Snapshot(snap)
	r.Snapshot(snap) // repeatable

	if r.Available() != 8 {
		t.Errorf("Snapshot must not consume; expected 8 available, got %d", r.Available())
	}

	// The destructive reader still sees everything.
	dst := make([]int16, 8)
	if got := r.PopBlock(dst); got != 8 {
		t.Errorf("Expected 8 samples after snapshots, got %d", got)
	}
}

func TestSnapshotSeesPoppedSamples(t *testing.T) {
	// Popped samples stay visible to observers until overwritten, so
	// analysis does not compete with playback for the same data.
	r, err := NewRing(32)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(8, 0))
	dst := make([]int16, 8)
	r.PopBlock(dst)

	snap := make([]int16, 8)
	r.Snapshot(snap)
	for i := range snap {
		if snap[i] != int16(i) {
			t.Errorf("snapshot[%d] = %d, want %d", i, snap[i], i)
		}
	}
}

func TestSnapshotZeroFillsWhenShort(t *testing.T) {
	r, err := NewRing(32)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(3, 5)) // 5 6 7

	snap := make([]int16, 8)
	for i := range snap {
		snap[i] = -1
	}
	r.Snapshot(snap)

	for i := 0; i < 5; i++ {
		if snap[i] != 0 {
			t.Errorf("snap[%d] = %d, want leading zero-fill", i, snap[i])
		}
	}
	for i := 0; i < 3; i++ {
		if snap[5+i] != int16(5+i) {
			t.Errorf("snap[%d] = %d, want %d", 5+i, snap[5+i], 5+i)
		}
	}
}

func TestWraparoundPop(t *testing.T) {
	// Force the write cursor to wrap and verify pop order stays FIFO.
	r, err := NewRing(8)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	r.PushBlock(ramp(6, 0))
	dst := make([]int16, 4)
	r.PopBlock(dst) // consume 0..3

	r.PushBlock(ramp(6, 6)) // 6..11, wraps

	out := make([]int16, 8)
	got := r.PopBlock(out)
	if got != 8 {
		t.Fatalf("Expected 8 samples, got %d", got)
	}
	for i := 0; i < 8; i++ {
		if out[i] != int16(4+i) {
			t.Errorf("out[%d] = %d, want %d", i, out[i], 4+i)
		}
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	// Producer pushes blocks while the consumer pops; nothing should race
	// or deadlock, and counters must reconcile.
	r, err := NewRing(1024)
	if err != nil {
		t.Fatalf("Failed to create ring: %v", err)
	}

	const blocks = 200
	const blockSize = 64

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < blocks; i++ {
			r.PushBlock(ramp(blockSize, int16(i)))
		}
	}()

	go func() {
		defer wg.Done()
		dst := make([]int16, blockSize)
		for i := 0; i < blocks; i++ {
			r.PopBlock(dst)
		}
	}()

	wg.Wait()

	stats := r.Stats()
	if stats.Pushed != blocks*blockSize {
		t.Errorf("Expected %d pushed, got %d", blocks*blockSize, stats.Pushed)
	}
	if stats.Popped+uint64(stats.Available)+stats.Dropped != stats.Pushed {
		t.Errorf("Counter mismatch: popped=%d available=%d dropped=%d pushed=%d",
			stats.Popped, stats.Available, stats.Dropped, stats.Pushed)
	}
}
