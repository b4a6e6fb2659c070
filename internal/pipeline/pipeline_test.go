package pipeline

import (
	"io"
	"testing"
	"time"

	"github.com/anandp/direnderer/internal/format"
	"github.com/anandp/direnderer/internal/sink"
)

// fakeSink is a no-op sink.Transport sufficient for driving Configure
// and Pull directly in tests without a negotiation round-trip.
type fakeSink struct {
	pull sink.PullFunc
}

func (f *fakeSink) Discover(int) (sink.TargetHandle, error) { return sink.TargetHandle{}, nil }
func (f *fakeSink) Capabilities() format.SinkCapabilities    { return format.SinkCapabilities{} }
func (f *fakeSink) Open(fmt format.AudioFormat) (format.AudioFormat, time.Duration, error) {
	return fmt, 0, nil
}
func (f *fakeSink) SetPullFunc(fn sink.PullFunc) { f.pull = fn }
func (f *fakeSink) Pause() error                 { return nil }
func (f *fakeSink) Resume() error                { return nil }
func (f *fakeSink) Stop(bool) error              { return nil }
func (f *fakeSink) Close() error                 { return nil }
func (f *fakeSink) IsOnline() bool               { return true }
func (f *fakeSink) BufferEmpty() bool            { return true }

// fakeSource hands back a fixed repeating pattern of PCM bytes.
type fakeSource struct {
	calls int
	eofAt int
}

func (s *fakeSource) ReadSamples(out []byte, n int) (int, error) {
	s.calls++
	if s.eofAt > 0 && s.calls > s.eofAt {
		return 0, io.EOF
	}
	for i := range out {
		out[i] = 0x7F
	}
	channels := 2
	return len(out) / (channels * 2), nil
}

func newTestPipeline(t *testing.T) (*AudioPipeline, *fakeSink) {
	t.Helper()
	fs := &fakeSink{}
	p := &AudioPipeline{sinkT: fs}
	fs.SetPullFunc(p.Pull)
	return p, fs
}

func TestPIPE1_NoAudioBeforePrefill(t *testing.T) {
	p, _ := newTestPipeline(t)
	info := format.TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	plan := format.Plan{Format: format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, Kind: format.ConvertNone}
	p.Configure(info, plan, 1.0)
	p.postOnlineRemaining.Store(0) // isolate prefill behavior from the stabilization window

	out := make([]byte, 64)
	p.Pull(out)
	for _, b := range out {
		if b != pcmSilenceByte {
			t.Fatalf("Pull before prefill returned non-silence byte %#x", b)
		}
	}
}

func TestPIPE2_UnderrunFillsExactlySilence(t *testing.T) {
	p, _ := newTestPipeline(t)
	info := format.TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	plan := format.Plan{Format: format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, Kind: format.ConvertNone}
	p.Configure(info, plan, 1.0)
	p.prefillComplete.Store(true)
	p.postOnlineRemaining.Store(0)

	// Ring is empty (nothing produced), so any pull is an underrun.
	out := make([]byte, 256)
	for i := range out {
		out[i] = 0xAA // poison, to prove Pull actually overwrites every byte
	}
	p.Pull(out)
	for i, b := range out {
		if b != pcmSilenceByte {
			t.Fatalf("byte %d = %#x, want silence %#x on underrun", i, b, pcmSilenceByte)
		}
	}
}

func TestProducerTick_FillsRingAndCompletesPrefill(t *testing.T) {
	p, _ := newTestPipeline(t)
	info := format.TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	plan := format.Plan{Format: format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, Kind: format.ConvertNone}
	p.Configure(info, plan, 1.0)

	src := &fakeSource{}
	for i := 0; i < 20 && !p.PrefillComplete(); i++ {
		if _, err := p.ProducerTick(src); err != nil {
			t.Fatalf("ProducerTick: %v", err)
		}
	}
	if !p.PrefillComplete() {
		t.Fatalf("prefill never completed after repeated producer ticks")
	}
}

func TestProducerTick_PropagatesEOF(t *testing.T) {
	p, _ := newTestPipeline(t)
	info := format.TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	plan := format.Plan{Format: format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, Kind: format.ConvertNone}
	p.Configure(info, plan, 1.0)

	src := &fakeSource{eofAt: 0}
	src.eofAt = 1
	if _, err := p.ProducerTick(src); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	if _, err := p.ProducerTick(src); err != io.EOF {
		t.Fatalf("second tick err = %v, want io.EOF", err)
	}
}

func TestShutdownSilence_TakesPriorityOverRingData(t *testing.T) {
	p, _ := newTestPipeline(t)
	info := format.TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	plan := format.Plan{Format: format.AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}, Kind: format.ConvertNone}
	p.Configure(info, plan, 1.0)
	p.prefillComplete.Store(true)
	p.postOnlineRemaining.Store(0)

	src := &fakeSource{}
	if _, err := p.ProducerTick(src); err != nil {
		t.Fatalf("ProducerTick: %v", err)
	}

	p.RequestShutdownSilence(2)
	out := make([]byte, 16)
	p.Pull(out)
	for _, b := range out {
		if b != pcmSilenceByte {
			t.Fatalf("shutdown-silence cycle returned non-silence byte %#x", b)
		}
	}
}
