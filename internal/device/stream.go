package device

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// StreamDevice implements Device over a net.Conn. NewPipe pairs two of them
// in memory so the rover client and the simulator can talk without a PTY.
type StreamDevice struct {
	conn    net.Conn
	r       *bufio.Reader
	pending string
	wmu     sync.Mutex
}

// NewStreamDevice wraps conn as a line device.
func NewStreamDevice(conn net.Conn) *StreamDevice {
	return &StreamDevice{conn: conn, r: bufio.NewReader(conn)}
}

// NewPipe returns the two ends of an in-memory full duplex link.
func NewPipe() (*StreamDevice, *StreamDevice) {
	a, b := net.Pipe()
	return NewStreamDevice(a), NewStreamDevice(b)
}

// ReadLine reads one line, honoring a positive timeout via the read deadline.
func (s *StreamDevice) ReadLine(timeout time.Duration) (string, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	chunk, err := s.r.ReadString('\n')
	line := s.pending + chunk
	s.pending = ""
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			// Keep a partial line for the next call.
			s.pending = line
			return "", ErrReadTimeout
		}
		if errors.Is(err, io.ErrClosedPipe) {
			return line, io.EOF
		}
		return line, err
	}
	return line, nil
}

// WriteLine writes s followed by '\n'.
func (s *StreamDevice) WriteLine(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.conn.Write(append([]byte(line), '\n'))
	return err
}

// Close closes the connection. The peer sees io.EOF.
func (s *StreamDevice) Close() error {
	return s.conn.Close()
}
