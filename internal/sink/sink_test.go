package sink

import (
	"testing"
	"time"

	"github.com/anandp/direnderer/internal/format"
)

func TestCycleTime_ClampedToRange(t *testing.T) {
	cases := []struct {
		name string
		f    format.AudioFormat
		mtu  int
	}{
		{"pcm-44100-16-2-small-mtu", format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, 64},
		{"pcm-384000-32-2-jumbo-mtu", format.AudioFormat{SampleRate: 384000, BitDepth: 32, Channels: 2}, 16128},
		{"dsd64-stereo", format.AudioFormat{SampleRate: 2822400, BitDepth: 1, Channels: 2, IsDSD: true}, 1500},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CycleTime(c.f, c.mtu)
			if got < 100*time.Microsecond || got > 50*time.Millisecond {
				t.Fatalf("CycleTime = %v, want within [100us, 50ms]", got)
			}
		})
	}
}

func TestMock_OpenAndPull(t *testing.T) {
	caps := format.SinkCapabilities{PCMBitDepths: []int{32, 24, 16}}
	m := NewMock(caps)
	received := make(chan []byte, 8)
	m.SetPullFunc(func(out []byte) {
		for i := range out {
			out[i] = 0x42
		}
		received <- out
	})

	f := format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}
	operative, cycle, err := m.Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !operative.Equal(f) {
		t.Fatalf("operative format changed unexpectedly: %+v", operative)
	}
	if cycle <= 0 {
		t.Fatalf("cycle = %v, want > 0", cycle)
	}

	select {
	case buf := <-received:
		if len(buf) == 0 {
			t.Fatalf("expected non-empty pulled buffer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a pull")
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if m.IsOnline() {
		t.Fatalf("IsOnline() = true after Close")
	}
}
