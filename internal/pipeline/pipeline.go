package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Kamalbura/serial-audio-monitor/internal/audio"
	"github.com/Kamalbura/serial-audio-monitor/internal/classify"
	"github.com/Kamalbura/serial-audio-monitor/internal/dsp"
	"github.com/Kamalbura/serial-audio-monitor/internal/metrics"
	"github.com/Kamalbura/serial-audio-monitor/internal/protocol"
	"github.com/Kamalbura/serial-audio-monitor/internal/source"
)

// Config contains the pipeline parameters.
type Config struct {
	SampleRate   int
	BlockSize    int           // samples per analysis/playback block
	RingCapacity int           // samples
	ReadChunk    int           // bytes per source read
	Interval     time.Duration // analysis cadence
	HistoryLen   int           // retained RMS history entries

	DiffThreshold float64
	Thresholds    classify.Thresholds
	Decoder       protocol.Config
	Filter        dsp.FilterConfig
}

// Statistics is the result of one analysis cycle. Recomputed fresh each
// cycle from the current block; never accumulated.
type Statistics struct {
	RMS        float64        `json:"rms"`
	Peak       float64        `json:"peak"`
	LowEnergy  float64        `json:"low_energy"`
	HighEnergy float64        `json:"high_energy"`
	Spectrum   []float64      `json:"spectrum"`
	State      classify.State `json:"state"`
	Timestamp  time.Time      `json:"timestamp"`
}

// StatsSink receives every analysis cycle's statistics. Visualization
// front-ends implement this; publishing happens on the observer goroutine,
// so implementations must return promptly.
type StatsSink interface {
	Publish(Statistics)
}

// Pipeline owns the source, decoder, ring buffer, filter state and
// statistics history. There is no ambient global state: everything the
// stream touches lives here and follows the Start/Stop lifecycle.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	m      *metrics.Metrics

	src      source.Source
	decoder  *protocol.Decoder
	ring     *audio.Ring
	proc     *dsp.Processor
	spectrum *dsp.SpectrumAnalyzer
	sink     StatsSink

	cancel context.CancelFunc
	group  *errgroup.Group

	mu       sync.RWMutex
	started  bool
	latest   Statistics
	decStats protocol.Stats
	history  []float64
	histPos  int
	histLen  int
}

// New assembles a pipeline around the given byte source. The metrics handle
// may be nil.
func New(cfg Config, src source.Source, logger *slog.Logger, m *metrics.Metrics) (*Pipeline, error) {
	ring, err := audio.NewRing(cfg.RingCapacity)
	if err != nil {
		return nil, fmt.Errorf("ring buffer: %w", err)
	}

	proc, err := dsp.NewProcessor(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("signal processor: %w", err)
	}

	spectrum, err := dsp.NewSpectrumAnalyzer(cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum analyzer: %w", err)
	}

	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = 4096
	}
	if cfg.HistoryLen <= 0 {
		cfg.HistoryLen = 100
	}

	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		m:        m,
		src:      src,
		decoder:  protocol.NewDecoder(cfg.Decoder),
		ring:     ring,
		proc:     proc,
		spectrum: spectrum,
		history:  make([]float64, cfg.HistoryLen),
	}, nil
}

// SetStatsSink registers the visualization sink. Must be called before
// Start.
func (p *Pipeline) SetStatsSink(sink StatsSink) {
	p.sink = sink
}

// Ring exposes the sample buffer for the playback consumer.
func (p *Pipeline) Ring() *audio.Ring {
	return p.ring
}

// Start toggles streaming on at the source and launches the producer and
// observer goroutines.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already started")
	}
	p.started = true
	p.mu.Unlock()

	if err := p.src.ToggleStreaming(); err != nil {
		return fmt.Errorf("failed to start upstream streaming: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	group, gctx := errgroup.WithContext(ctx)
	p.group = group
	group.Go(func() error { return p.produceLoop(gctx) })
	group.Go(func() error { return p.observeLoop(gctx) })

	p.logger.Info("Pipeline started",
		slog.Int("sample_rate", p.cfg.SampleRate),
		slog.Int("block_size", p.cfg.BlockSize),
		slog.Int("ring_capacity", p.cfg.RingCapacity),
		slog.Duration("analysis_interval", p.cfg.Interval),
	)
	return nil
}

// Stop toggles streaming off at the source, cancels both loops, closes the
// source to unblock any pending read and waits for the loops to exit.
// Cancellation is cooperative; no loop is interrupted mid-operation.
func (p *Pipeline) Stop() error {
	if err := p.src.ToggleStreaming(); err != nil {
		p.logger.Warn("Failed to stop upstream streaming", slog.String("error", err.Error()))
	}

	if p.cancel != nil {
		p.cancel()
	}
	if err := p.src.Close(); err != nil {
		p.logger.Warn("Error closing source", slog.String("error", err.Error()))
	}

	var err error
	if p.group != nil {
		err = p.group.Wait()
	}

	ds := p.DecoderStats()
	rs := p.ring.Stats()
	p.logger.Info("Pipeline stopped",
		slog.Uint64("frames_decoded", ds.FramesDecoded),
		slog.Uint64("resyncs", ds.Resyncs),
		slog.Uint64("payload_timeouts", ds.PayloadTimeouts),
		slog.Uint64("samples_dropped", rs.Dropped),
		slog.Uint64("underruns", rs.Underruns),
	)
	return err
}

// produceLoop reads bytes from the source, feeds the decoder and writes
// decoded frames into the ring. Reads are bounded by the source's timeout,
// so the loop observes cancellation promptly; empty reads still run the
// decoder's payload-timeout check so a corrupt size field cannot hang us.
func (p *Pipeline) produceLoop(ctx context.Context) error {
	buf := make([]byte, p.cfg.ReadChunk)
	var prev protocol.Stats

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := p.src.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("source read: %w", err)
		}

		frames := p.decoder.Feed(buf[:n])
		for _, f := range frames {
			p.ring.PushBlock(f.Samples)
			if p.m != nil {
				p.m.RecordFrameDecoded(len(f.Samples))
			}
		}

		ds := p.decoder.Stats()
		if p.m != nil {
			p.m.RecordBytesRead(n)
			p.m.RecordDecoderCounters(ds.Resyncs, ds.PayloadTimeouts, prev.Resyncs, prev.PayloadTimeouts)
		}
		if ds.Resyncs > prev.Resyncs {
			p.logger.Debug("Decoder resynchronized",
				slog.Uint64("resyncs", ds.Resyncs),
			)
		}
		prev = ds

		p.mu.Lock()
		p.decStats = ds
		p.mu.Unlock()
	}
}

// observeLoop periodically snapshots the most recent block, runs the filter
// chain and statistics, classifies the environment and retains the result
// for the monitoring surface. It never competes with playback for samples:
// snapshots are non-destructive.
func (p *Pipeline) observeLoop(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	snap := make([]int16, p.cfg.BlockSize)
	block := make([]float64, p.cfg.BlockSize)
	spec := make([]float64, p.cfg.BlockSize/2)
	var prevRing audio.RingStats

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		start := time.Now()

		p.ring.Snapshot(snap)
		for i, s := range snap {
			block[i] = float64(s)
		}
		p.proc.ProcessBlock(block)

		st := dsp.Analyze(block, p.cfg.DiffThreshold)
		if err := p.spectrum.Magnitudes(block, spec); err != nil {
			return fmt.Errorf("spectrum: %w", err)
		}
		state := classify.Classify(st.RMS, st.LowEnergy, st.HighEnergy, p.cfg.Thresholds)

		stats := Statistics{
			RMS:        st.RMS,
			Peak:       st.Peak,
			LowEnergy:  st.LowEnergy,
			HighEnergy: st.HighEnergy,
			Spectrum:   append([]float64(nil), spec...),
			State:      state,
			Timestamp:  time.Now(),
		}

		p.mu.Lock()
		p.latest = stats
		p.history[p.histPos] = st.RMS
		p.histPos = (p.histPos + 1) % len(p.history)
		if p.histLen < len(p.history) {
			p.histLen++
		}
		p.mu.Unlock()

		if p.m != nil {
			p.m.RecordAnalysis(time.Since(start).Seconds(), st.RMS, st.Peak, int(state))
			rs := p.ring.Stats()
			p.m.RecordRingFill(rs.Available)
			p.m.RecordRingCounters(rs.Dropped, rs.Underruns, prevRing.Dropped, prevRing.Underruns)
			prevRing = rs
		}
		if p.sink != nil {
			p.sink.Publish(stats)
		}
	}
}

// Latest returns the most recent analysis cycle's statistics.
func (p *Pipeline) Latest() Statistics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// RMSHistory returns the retained RMS values, oldest first.
func (p *Pipeline) RMSHistory() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]float64, p.histLen)
	start := p.histPos - p.histLen
	if start < 0 {
		start += len(p.history)
	}
	for i := 0; i < p.histLen; i++ {
		out[i] = p.history[(start+i)%len(p.history)]
	}
	return out
}

// DecoderStats returns the most recently observed decoder counters.
func (p *Pipeline) DecoderStats() protocol.Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.decStats
}

// RingStats returns the ring buffer counters.
func (p *Pipeline) RingStats() audio.RingStats {
	return p.ring.Stats()
}
