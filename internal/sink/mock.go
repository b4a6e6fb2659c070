package sink

import (
	"sync"
	"time"

	"github.com/anandp/direnderer/internal/format"
)

// Mock is an in-process Transport used by tests and by operators
// without real target hardware: Discover always succeeds, Open always
// accepts the requested format verbatim, and a background goroutine
// drives PullFunc at the negotiated cycle time, recording every buffer
// it receives so a test can assert on it.
type Mock struct {
	Caps format.SinkCapabilities
	MTU  int

	mu       sync.Mutex
	online   bool
	paused   bool
	pull     PullFunc
	stopCh   chan struct{}
	wg       sync.WaitGroup
	cycle    time.Duration
	format   format.AudioFormat
	Received [][]byte // buffers handed to pull since the last Open
}

func NewMock(caps format.SinkCapabilities) *Mock {
	return &Mock{Caps: caps, MTU: 1500}
}

func (m *Mock) Discover(targetIndex int) (TargetHandle, error) {
	return TargetHandle{Name: "mock", Addr: "127.0.0.1", MTU: m.MTU}, nil
}

func (m *Mock) Capabilities() format.SinkCapabilities {
	return m.Caps
}

func (m *Mock) Open(f format.AudioFormat) (format.AudioFormat, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopWorkerLocked()
	m.format = f
	m.cycle = CycleTime(f, m.MTU)
	m.online = true
	m.paused = false
	m.Received = nil
	m.startWorkerLocked()
	return f, m.cycle, nil
}

func (m *Mock) SetPullFunc(fn PullFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pull = fn
}

func (m *Mock) startWorkerLocked() {
	stopCh := make(chan struct{})
	m.stopCh = stopCh
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cycle)
		defer ticker.Stop()
		bufSize := m.cycleBytesLocked()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				m.mu.Lock()
				fn := m.pull
				paused := m.paused
				m.mu.Unlock()
				if fn == nil || paused {
					continue
				}
				buf := make([]byte, bufSize)
				fn(buf)
				m.mu.Lock()
				m.Received = append(m.Received, buf)
				m.mu.Unlock()
			}
		}
	}()
}

func (m *Mock) stopWorkerLocked() {
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
}

func (m *Mock) cycleBytesLocked() int {
	if m.format.IsDSD {
		samples := int(float64(m.format.SampleRate) * m.cycle.Seconds())
		return samples * m.format.Channels / 8
	}
	bytesPerSample := 4
	if m.format.BitDepth <= 16 {
		bytesPerSample = 2
	}
	samples := int(float64(m.format.SampleRate) * m.cycle.Seconds())
	return samples * m.format.Channels * bytesPerSample
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	return nil
}

func (m *Mock) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	return nil
}

func (m *Mock) Stop(immediate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = false
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.stopWorkerLocked()
	m.online = false
	m.mu.Unlock()
	m.wg.Wait()
	return nil
}

func (m *Mock) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Mock) BufferEmpty() bool {
	return true
}
