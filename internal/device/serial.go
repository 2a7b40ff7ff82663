package device

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	serial "go.bug.st/serial"
)

// SerialDevice implements Device using go.bug.st/serial.
type SerialDevice struct {
	mu      sync.Mutex
	wmu     sync.Mutex
	port    serial.Port
	pending []byte
	dev     string
	baud    int
}

// NewSerialDevice creates and opens a serial device with the given path and baudrate.
func NewSerialDevice(dev string, baud int) (*SerialDevice, error) {
	s := &SerialDevice{dev: dev, baud: baud}
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open ensures that the serial port is ready for use.
func (s *SerialDevice) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return nil
	}
	p, err := serial.Open(s.dev, &serial.Mode{BaudRate: s.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial %s: %w", s.dev, err)
	}
	s.port = p
	s.pending = s.pending[:0]
	return nil
}

// Close closes the underlying serial connection.
func (s *SerialDevice) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ReadLine reads a single line from the serial port, blocking until newline
// or timeout. The timeout is applied to the port itself, so nothing keeps
// reading in the background once it expires.
func (s *SerialDevice) ReadLine(timeout time.Duration) (string, error) {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return "", ErrNotOpen
	}

	if timeout <= 0 {
		timeout = serial.NoTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		return "", fmt.Errorf("set read timeout: %w", err)
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 128)
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := string(s.pending[:i+1])
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			return line, nil
		}
		n, err := port.Read(buf)
		if err != nil {
			return "", err
		}
		// go.bug.st/serial reports an expired timeout as a zero-length read.
		if n == 0 {
			if timeout == serial.NoTimeout || time.Now().Before(deadline) {
				continue
			}
			return "", ErrReadTimeout
		}
		s.pending = append(s.pending, buf[:n]...)
	}
}

// WriteLine writes a single line followed by '\n' to the serial port.
func (s *SerialDevice) WriteLine(line string) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := port.Write(append([]byte(line), '\n'))
	return err
}
