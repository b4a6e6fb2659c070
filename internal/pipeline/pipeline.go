package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/anandp/direnderer/internal/format"
	"github.com/anandp/direnderer/internal/log"
	"github.com/anandp/direnderer/internal/ring"
	"github.com/anandp/direnderer/internal/sink"
)

// ChunkSamplesDSD and ChunkSamplesPCM are the per-producer-cycle sample
// counts. 32768 DSD samples are about 11.6ms at DSD64; 8192 PCM samples
// are about 186ms at 44.1kHz and about 21ms at 384kHz.
const (
	ChunkSamplesDSD = 32768
	ChunkSamplesPCM = 8192
)

// Prefill targets, expressed in milliseconds of audio.
const (
	PrefillMsDSD           = 200
	PrefillMsPCM           = 50
	PrefillMsLowBitratePCM = 100
)

// Default ring sizes, in seconds of audio.
const (
	DefaultRingSecondsDSD = 0.8
	DefaultRingSecondsPCM = 1.0
)

const pcmSilenceByte = 0x00
const dsdSilenceByte = 0x69

// postOnlineStabilizeCycles is how many consumer cycles are forced to
// silence right after a sink (re)open, covering the handshake window
// before a freshly (re)connected sink's cadence has settled.
const postOnlineStabilizeCycles = 50

// SampleSource is the narrow surface AudioPipeline needs from a
// decoder: decode.Decoder satisfies this directly.
type SampleSource interface {
	ReadSamples(out []byte, n int) (int, error)
}

// AudioPipeline owns the ring buffer and sink handle, and mediates
// between the engine-driven producer and the sink-driven consumer.
type AudioPipeline struct {
	sinkT sink.Transport

	mu     sync.RWMutex // config_mutex: guards fields the consumer reads
	ring   *ring.RingBuffer
	plan   format.Plan
	info   format.TrackInfo
	prefillTargetBytes int
	monitorTap MonitorTap

	prefillComplete        atomic.Bool
	stopRequested          atomic.Bool
	shutdownSilenceCounter atomic.Int32
	postOnlineRemaining    atomic.Int32
}

func New(sinkT sink.Transport) *AudioPipeline {
	p := &AudioPipeline{sinkT: sinkT}
	sinkT.SetPullFunc(p.Pull)
	return p
}

// Configure (re)builds the ring for a newly negotiated sink format and
// resets prefill/stabilization state. Must only be called while the
// producer is paused and the sink is not yet accepting pulls for the
// new format (the engine's format-change choreography guarantees this).
func (p *AudioPipeline) Configure(info format.TrackInfo, plan format.Plan, ringSeconds float64) {
	byteRate := wireByteRate(plan.Format)
	size := clampRingSize(int(float64(byteRate) * ringSeconds))
	silence := byte(pcmSilenceByte)
	if plan.Format.IsDSD {
		silence = dsdSilenceByte
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ring == nil || p.ring.Size() != size {
		p.ring = ring.New(size, silence)
	} else {
		p.ring.SetSilenceByte(silence)
		p.ring.Clear()
	}
	p.info = info
	p.plan = plan
	p.prefillTargetBytes = prefillTargetBytes(plan.Format, byteRate)
	p.prefillComplete.Store(false)
	p.stopRequested.Store(false)
	p.shutdownSilenceCounter.Store(0)
	p.postOnlineRemaining.Store(postOnlineStabilizeCycles)
}

func clampRingSize(n int) int {
	const minSize = 16 * 1024
	const maxSize = 64 * 1024 * 1024
	if n < minSize {
		return minSize
	}
	if n > maxSize {
		return maxSize
	}
	return n
}

func wireByteRate(f format.AudioFormat) int {
	if f.IsDSD {
		return f.SampleRate * f.Channels / 8
	}
	bytesPerSample := 4
	if f.BitDepth <= 16 {
		bytesPerSample = 2
	}
	return f.SampleRate * f.Channels * bytesPerSample
}

func prefillTargetBytes(f format.AudioFormat, byteRate int) int {
	ms := PrefillMsPCM
	switch {
	case f.IsDSD:
		ms = PrefillMsDSD
	case f.SampleRate <= 48000 && f.BitDepth <= 16:
		ms = PrefillMsLowBitratePCM
	}
	return byteRate * ms / 1000
}

// ChunkSamples returns the per-cycle sample count the producer should
// request from the decoder for the given sink format.
func ChunkSamples(f format.AudioFormat) int {
	if f.IsDSD {
		return ChunkSamplesDSD
	}
	return ChunkSamplesPCM
}

// CycleDuration is the ideal interval between producer ticks for the
// given chunk size and sample rate.
func CycleDuration(sampleRate, chunkSamples int) time.Duration {
	if sampleRate <= 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(chunkSamples) * time.Second / time.Duration(sampleRate)
}

// sourceBufferSize is how many wire bytes src.ReadSamples needs for n
// samples of the decoder's native (not sink) format.
func sourceBufferSize(info format.TrackInfo, n int) int {
	if info.IsDSD {
		return n * info.Channels / 8
	}
	wb := 2
	if info.BitDepth > 16 {
		wb = 4
	}
	return n * info.Channels * wb
}

// ProducerTick pulls one chunk from src and pushes it into the ring
// through the configured conversion plan. Returns the number of
// samples actually read and the source's error; io.EOF is returned once src is exhausted (not itself an error the
// caller need treat as fatal — it drives end-of-stream handling).
func (p *AudioPipeline) ProducerTick(src SampleSource) (int, error) {
	p.mu.RLock()
	info := p.info
	plan := p.plan
	p.mu.RUnlock()

	chunkSamples := ChunkSamples(plan.Format)
	scratch := make([]byte, sourceBufferSize(info, chunkSamples))

	n, err := src.ReadSamples(scratch, chunkSamples)
	if n > 0 {
		inLen := sourceBufferSize(info, n)
		p.push(scratch[:inLen], info, plan)
		p.maybeCompletePrefill()
	}
	return n, err
}

func (p *AudioPipeline) push(data []byte, info format.TrackInfo, plan format.Plan) {
	p.mu.RLock()
	r := p.ring
	tap := p.monitorTap
	p.mu.RUnlock()
	if r == nil {
		return
	}
	switch plan.Kind {
	case format.ConvertNone:
		r.Push(data)
	case format.ConvertPack24:
		r.PushPack24(data)
	case format.ConvertUpsample16to32:
		r.PushUpsample16to32(data)
	case format.ConvertDSDPlanar:
		var table *[256]byte
		if plan.BitReverse {
			table = ring.BitReverseTable
		}
		r.PushDSDPlanar(data, info.Channels, table, plan.ByteSwap)
	}
	if tap != nil && !plan.Format.IsDSD {
		tap.Push(pcmToInt16(data, info.BitDepth))
	}
}

// MonitorTap receives downconverted-to-int16 PCM frames for an optional
// diagnostics listener; monitor.Tap satisfies this.
type MonitorTap interface {
	Push(frame []int16)
}

// SetMonitorTap installs (or, with nil, removes) the diagnostics tap
// every PCM push also feeds. DSD tracks have nothing to tap.
func (p *AudioPipeline) SetMonitorTap(tap MonitorTap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monitorTap = tap
}

// pcmToInt16 downconverts wire-format little-endian PCM to int16,
// taking the top 16 bits of each 4-byte word for 24/32-bit audio.
func pcmToInt16(data []byte, bitDepth int) []int16 {
	if bitDepth <= 16 {
		out := make([]int16, len(data)/2)
		for i := range out {
			out[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
		}
		return out
	}
	out := make([]int16, len(data)/4)
	for i := range out {
		off := i * 4
		v := int32(uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24)
		out[i] = int16(v >> 16)
	}
	return out
}

func (p *AudioPipeline) maybeCompletePrefill() {
	if p.prefillComplete.Load() {
		return
	}
	p.mu.RLock()
	r := p.ring
	target := p.prefillTargetBytes
	p.mu.RUnlock()
	if r != nil && r.Available() >= target {
		p.prefillComplete.Store(true)
	}
}

// Pull is the sink's consumer callback: it resolves, in order, shutdown
// silence, a pending stop, an incomplete prefill, the post-reopen
// stabilization window, then a normal ring pop with underrun fallback.
func (p *AudioPipeline) Pull(out []byte) {
	p.mu.RLock()
	r := p.ring
	silenceByte := silenceByteFor(p.plan.Format)
	p.mu.RUnlock()

	if c := p.shutdownSilenceCounter.Load(); c > 0 {
		fillSilence(out, silenceByte)
		p.shutdownSilenceCounter.Add(-1)
		return
	}
	if p.stopRequested.Load() {
		fillSilence(out, silenceByte)
		return
	}
	if !p.prefillComplete.Load() {
		fillSilence(out, silenceByte)
		return
	}
	if rem := p.postOnlineRemaining.Load(); rem > 0 {
		fillSilence(out, silenceByte)
		p.postOnlineRemaining.Add(-1)
		return
	}
	if r == nil || r.Available() < len(out) {
		log.Warnf("pipeline: underrun, need %d bytes", len(out))
		fillSilence(out, silenceByte)
		return
	}
	r.Pop(out, len(out))
}

func fillSilence(out []byte, b byte) {
	for i := range out {
		out[i] = b
	}
}

// RequestShutdownSilence arms the next n consumer cycles to emit
// silence instead of ring data, letting the DAC mute cleanly before a
// sink close or format change.
func (p *AudioPipeline) RequestShutdownSilence(cycles int) {
	p.shutdownSilenceCounter.Store(int32(cycles))
}

// RequestStop marks the pipeline stopped: the consumer emits silence
// unconditionally until the next Configure clears the flag.
func (p *AudioPipeline) RequestStop() {
	p.stopRequested.Store(true)
}

// PrefillComplete reports whether the ring has reached its prefill
// target since the last Configure.
func (p *AudioPipeline) PrefillComplete() bool {
	return p.prefillComplete.Load()
}

// Clear empties the ring and resets the prefill flag without touching
// the negotiated plan or silence byte — used after a seek, which needs
// a clean ring but not a full reconfigure.
func (p *AudioPipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ring != nil {
		p.ring.Clear()
	}
	p.prefillComplete.Store(false)
}

func silenceByteFor(f format.AudioFormat) byte {
	if f.IsDSD {
		return dsdSilenceByte
	}
	return pcmSilenceByte
}
