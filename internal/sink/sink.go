package sink

import (
	"errors"
	"time"

	"github.com/anandp/direnderer/internal/format"
)

var (
	// ErrAmbiguousTarget is returned by Discover when more than one
	// target answers and no index was given to disambiguate.
	ErrAmbiguousTarget = errors.New("sink: multiple targets found, index required")
	// ErrNoTargetFound is returned by Discover when the LAN scan finds nothing.
	ErrNoTargetFound = errors.New("sink: no target found")
	// ErrNotOpen is returned by operations that require an open sink.
	ErrNotOpen = errors.New("sink: not open")
)

// TargetHandle identifies a discovered LAN sink target.
type TargetHandle struct {
	Name string
	Addr string
	MTU  int
}

// PullFunc is called by the sink's own worker once per cycle with a
// zero-filled scratch buffer for the pipeline to populate; see
// AudioPipeline.Pull, which AudioPipeline wires in as this callback.
type PullFunc func(out []byte)

// Transport is the opaque LAN audio-sink client contract. Discovery,
// MTU probing, and wire framing of the physical protocol are left to
// a concrete implementation; AudioPipeline and TrackEngine depend only
// on this interface.
type Transport interface {
	// Discover performs a synchronous LAN scan with retries. targetIndex
	// < 0 means "no preference"; if more than one target is found and
	// no preference was given, returns ErrAmbiguousTarget.
	Discover(targetIndex int) (TargetHandle, error)

	// Capabilities reports the formats the current target accepts.
	Capabilities() format.SinkCapabilities

	// Open negotiates format with the target; the returned format is
	// the operative one (the target may downgrade it) and cycleTime is
	// the transfer cadence computed from MTU and byte rate.
	Open(f format.AudioFormat) (operative format.AudioFormat, cycleTime time.Duration, err error)

	// SetPullFunc installs the callback the sink's worker invokes once
	// per cycle to fill its next outgoing buffer.
	SetPullFunc(fn PullFunc)

	Pause() error
	Resume() error
	Stop(immediate bool) error
	Close() error
	IsOnline() bool
	BufferEmpty() bool
}

// CycleTime computes the transfer cadence from the negotiated format
// and the target's MTU: one MTU-sized payload should carry roughly one
// cycle of audio, clamped to [100µs, 50ms].
func CycleTime(f format.AudioFormat, mtu int) time.Duration {
	var byteRate int
	if f.IsDSD {
		// f.SampleRate is the DSD bit rate; one bit per sample per channel.
		byteRate = f.SampleRate * f.Channels / 8
	} else {
		bytesPerSample := 4
		if f.BitDepth <= 16 {
			bytesPerSample = 2
		}
		byteRate = f.SampleRate * f.Channels * bytesPerSample
	}
	if byteRate <= 0 {
		return 10 * time.Millisecond
	}
	cycle := time.Duration(float64(mtu) / float64(byteRate) * float64(time.Second))
	if cycle < 100*time.Microsecond {
		cycle = 100 * time.Microsecond
	}
	if cycle > 50*time.Millisecond {
		cycle = 50 * time.Millisecond
	}
	return cycle
}
