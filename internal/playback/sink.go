package playback

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/gen2brain/malgo"
)

// Sink drives a mono float32 output device at the configured sample rate
// and block size, pulling every block from the coordinator. Initialization
// failure is reported to the caller so a deployment can keep the analysis
// path running without audio output.
type Sink struct {
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	coord   *Coordinator
	logger  *slog.Logger
	scratch []float32
}

// NewSink opens the default playback device.
func NewSink(coord *Coordinator, sampleRate, blockSize int, logger *slog.Logger) (*Sink, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	s := &Sink{
		ctx:     ctx,
		coord:   coord,
		logger:  logger,
		scratch: make([]float32, blockSize),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(blockSize)
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: s.onData,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	s.device = device

	return s, nil
}

// onData is the device callback. It runs on the audio thread.
func (s *Sink) onData(outputSamples, _ []byte, frameCount uint32) {
	n := int(frameCount)
	if n > len(s.scratch) {
		// The device asked for more than one configured block. Grows once,
		// then the buffer is reused.
		s.scratch = make([]float32, n)
	}
	block := s.scratch[:n]
	s.coord.Provide(block)
	for i, v := range block {
		binary.LittleEndian.PutUint32(outputSamples[i*4:], math.Float32bits(v))
	}
}

// Start begins pulling blocks on the device cadence.
func (s *Sink) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	s.logger.Info("Playback device started")
	return nil
}

// Stop stops the device and releases the audio context.
func (s *Sink) Stop() {
	s.device.Uninit()
	if err := s.ctx.Uninit(); err != nil {
		s.logger.Warn("Error releasing audio context", slog.String("error", err.Error()))
	}
	s.ctx.Free()
	s.logger.Info("Playback device stopped")
}
