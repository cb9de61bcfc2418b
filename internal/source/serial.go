package source

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/Kamalbura/serial-audio-monitor/internal/protocol"
)

// Source is a byte stream with bounded-timeout reads and upstream streaming
// control. Read returns (0, nil) when the timeout elapses without data; the
// producer uses such empty reads to run the decoder's payload-timeout check.
type Source interface {
	io.ReadCloser

	// ToggleStreaming sends the control byte that flips streaming on or
	// off at the upstream device.
	ToggleStreaming() error
}

// SerialSource reads the sample stream from a serial port.
type SerialSource struct {
	port serial.Port
	name string
}

// OpenSerial opens the named port at the given baud rate. The read timeout
// bounds every Read call so the producer loop can observe cancellation.
// Failure to open is fatal to the pipeline; there is nothing to ingest
// without a source.
func OpenSerial(portName string, baud int, readTimeout time.Duration) (*SerialSource, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	return &SerialSource{port: port, name: portName}, nil
}

// Read reads available bytes, returning (0, nil) on timeout.
func (s *SerialSource) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

// ToggleStreaming writes the streaming toggle byte to the device.
func (s *SerialSource) ToggleStreaming() error {
	if _, err := s.port.Write([]byte{protocol.ControlToggle}); err != nil {
		return fmt.Errorf("failed to write streaming toggle to %s: %w", s.name, err)
	}
	return nil
}

// Close closes the underlying port, unblocking any pending Read.
func (s *SerialSource) Close() error {
	return s.port.Close()
}

// Name returns the port name for logging.
func (s *SerialSource) Name() string {
	return s.name
}
