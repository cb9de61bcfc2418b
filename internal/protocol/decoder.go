package protocol

import (
	"encoding/binary"
	"time"
)

// Wire format constants. A frame on the serial link is
// [0xAA 0x55][size:2 big-endian, in samples][payload: size*2 little-endian int16].
const (
	MagicByte1 = 0xAA
	MagicByte2 = 0x55

	// HeaderSize is magic (2) plus the sample-count field (2).
	HeaderSize = 4

	// ControlToggle is the single control byte sent upstream to toggle
	// streaming on or off at the source.
	ControlToggle = 's'

	// DefaultMaxFrameSamples caps the size field. A larger value is treated
	// as corruption and triggers immediate resynchronization instead of
	// waiting out the payload timeout.
	DefaultMaxFrameSamples = 4096

	// DefaultPayloadTimeout bounds how long the decoder waits for the rest
	// of a payload once the size field is known.
	DefaultPayloadTimeout = 500 * time.Millisecond
)

// Frame is one decoded packet of signed 16-bit PCM samples. Frames are
// immutable once emitted by the decoder.
type Frame struct {
	Samples []int16
}

// decoderState tracks the position in the framing state machine.
type decoderState int

const (
	stateSeekMagic1 decoderState = iota
	stateSeekMagic2
	stateReadSize
	stateReadPayload
)

// Config contains decoder tuning parameters.
type Config struct {
	// MaxFrameSamples is the largest size field accepted before the frame
	// is considered corrupt. Zero selects DefaultMaxFrameSamples.
	MaxFrameSamples int

	// PayloadTimeout bounds the wait for a complete payload after the size
	// field has been read. Zero selects DefaultPayloadTimeout.
	PayloadTimeout time.Duration
}

// Stats is a snapshot of decoder counters for monitoring.
type Stats struct {
	FramesDecoded   uint64 `json:"frames_decoded"`
	SamplesDecoded  uint64 `json:"samples_decoded"`
	Resyncs         uint64 `json:"resyncs"`
	PayloadTimeouts uint64 `json:"payload_timeouts"`
}

// Decoder turns an unstructured byte stream into discrete sample frames.
// It consumes input incrementally via Feed and never blocks waiting for
// bytes it does not have. Corrupt input is absorbed by byte-by-byte
// resynchronization and surfaced only through counters, never as an error.
//
// Decoder is not safe for concurrent use; it belongs to the producer
// goroutine that reads the byte source.
type Decoder struct {
	maxSamples int
	timeout    time.Duration
	now        func() time.Time

	state    decoderState
	sizeBuf  [2]byte
	sizeN    int
	payload  []byte
	payloadN int
	deadline time.Time

	frames   uint64
	samples  uint64
	resyncs  uint64
	timeouts uint64
}

// NewDecoder creates a decoder with the given configuration.
func NewDecoder(cfg Config) *Decoder {
	if cfg.MaxFrameSamples <= 0 {
		cfg.MaxFrameSamples = DefaultMaxFrameSamples
	}
	if cfg.PayloadTimeout <= 0 {
		cfg.PayloadTimeout = DefaultPayloadTimeout
	}
	return &Decoder{
		maxSamples: cfg.MaxFrameSamples,
		timeout:    cfg.PayloadTimeout,
		now:        time.Now,
		payload:    make([]byte, 0, cfg.MaxFrameSamples*2),
	}
}

// Feed consumes the next chunk of the byte stream and returns zero or more
// complete frames, in order. Feeding an empty (or nil) chunk is valid and
// only runs the payload-timeout check; the producer does this when a read
// times out with no data so a corrupt size field cannot stall the pipeline.
func (d *Decoder) Feed(data []byte) []Frame {
	d.checkPayloadTimeout()

	var frames []Frame
	for i := 0; i < len(data); {
		b := data[i]

		switch d.state {
		case stateSeekMagic1:
			if b == MagicByte1 {
				d.state = stateSeekMagic2
			}
			i++

		case stateSeekMagic2:
			if b == MagicByte2 {
				d.state = stateReadSize
				d.sizeN = 0
				i++
				continue
			}
			// Mismatch: resync and re-examine this same byte as a
			// potential first magic byte. Do not advance i.
			d.resyncs++
			d.state = stateSeekMagic1

		case stateReadSize:
			d.sizeBuf[d.sizeN] = b
			d.sizeN++
			i++
			if d.sizeN < 2 {
				continue
			}
			size := int(binary.BigEndian.Uint16(d.sizeBuf[:]))
			if size == 0 || size > d.maxSamples {
				d.resyncs++
				d.state = stateSeekMagic1
				continue
			}
			d.payload = d.payload[:size*2]
			d.payloadN = 0
			d.deadline = d.now().Add(d.timeout)
			d.state = stateReadPayload

		case stateReadPayload:
			n := copy(d.payload[d.payloadN:], data[i:])
			d.payloadN += n
			i += n
			if d.payloadN < len(d.payload) {
				continue
			}
			frames = append(frames, d.emitFrame())
			d.state = stateSeekMagic1
		}
	}
	return frames
}

// emitFrame converts the completed payload into a frame.
func (d *Decoder) emitFrame() Frame {
	samples := make([]int16, len(d.payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(d.payload[i*2:]))
	}
	d.frames++
	d.samples += uint64(len(samples))
	return Frame{Samples: samples}
}

// checkPayloadTimeout abandons a partial payload whose deadline has passed,
// discarding the partial packet and returning to magic search.
func (d *Decoder) checkPayloadTimeout() {
	if d.state != stateReadPayload {
		return
	}
	if d.now().After(d.deadline) {
		d.timeouts++
		d.payloadN = 0
		d.state = stateSeekMagic1
	}
}

// Stats returns a snapshot of the decoder counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		FramesDecoded:   d.frames,
		SamplesDecoded:  d.samples,
		Resyncs:         d.resyncs,
		PayloadTimeouts: d.timeouts,
	}
}
