// Package monitor decodes the status telemetry stream of a leadscrew
// controller on the host.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"goels/protocol"
)

// DefaultQueueSize is the report channel depth
const DefaultQueueSize = 64

// Options configure a Monitor
type Options struct {
	// RetryEOF treats io.EOF as a read timeout and keeps reading, which is
	// how a serial port with a read timeout reports "no data yet". Leave it
	// false when reading a capture file.
	RetryEOF bool

	QueueSize int
}

// Stats are the decoder counters
type Stats struct {
	Frames    uint32
	BadFrames uint32
	Gaps      uint32
	Dropped   uint32 // reports lost because the consumer fell behind
}

// Monitor reads a byte stream in a goroutine and delivers decoded reports
type Monitor struct {
	port io.ReadCloser
	opts Options

	fifo    *protocol.FifoBuffer
	decoder *protocol.Decoder
	reports chan protocol.StatusReport

	mu      sync.Mutex
	dropped uint32
	err     error

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a monitor on port. Call Start to begin reading.
func New(port io.ReadCloser, opts Options) (*Monitor, error) {
	if port == nil {
		return nil, errors.New("monitor port is nil")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	m := &Monitor{
		port:    port,
		opts:    opts,
		fifo:    protocol.NewFifoBuffer(4 * protocol.MessageMax),
		reports: make(chan protocol.StatusReport, opts.QueueSize),
		done:    make(chan struct{}),
	}
	m.decoder = protocol.NewDecoder(m.deliver)
	return m, nil
}

// Start launches the read goroutine
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.readLoop()
}

// Reports is closed when the read goroutine exits
func (m *Monitor) Reports() <-chan protocol.StatusReport {
	return m.reports
}

// Stop closes the port and waits for the read goroutine
func (m *Monitor) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.done)
		err = m.port.Close()
	})
	m.wg.Wait()
	return err
}

// Err returns the error that ended the read goroutine, if any
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Stats returns a snapshot of the decoder counters
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Frames:    m.decoder.Frames,
		BadFrames: m.decoder.BadFrames,
		Gaps:      m.decoder.Gaps,
		Dropped:   m.dropped,
	}
}

func (m *Monitor) readLoop() {
	defer m.wg.Done()
	defer close(m.reports)

	buf := make([]byte, 256)
	for {
		n, err := m.port.Read(buf)
		if n > 0 {
			m.mu.Lock()
			m.fifo.Write(buf[:n])
			m.decoder.Receive(m.fifo)
			m.mu.Unlock()
		}
		if err == nil {
			continue
		}

		select {
		case <-m.done:
			return
		default:
		}
		if errors.Is(err, io.EOF) && m.opts.RetryEOF {
			continue
		}
		if !errors.Is(err, io.EOF) {
			m.mu.Lock()
			m.err = fmt.Errorf("read telemetry: %w", err)
			m.mu.Unlock()
		}
		return
	}
}

// deliver runs under m.mu from the read goroutine
func (m *Monitor) deliver(r protocol.StatusReport) {
	select {
	case m.reports <- r:
	default:
		m.dropped++
	}
}
