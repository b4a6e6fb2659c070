package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anandp/direnderer/internal/decode"
	"github.com/anandp/direnderer/internal/format"
	"github.com/anandp/direnderer/internal/log"
	"github.com/anandp/direnderer/internal/pipeline"
	"github.com/anandp/direnderer/internal/sink"
)

// State is where a TrackEngine sits in its playback lifecycle.
type State int32

const (
	Stopped State = iota
	Playing
	Paused
	Transitioning
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Transitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

var (
	// ErrNoCurrentTrack is returned by Play and Seek when no track has
	// been set via SetCurrentURI.
	ErrNoCurrentTrack = errors.New("engine: no current track")
	// ErrSeekOutOfRange is returned by Seek when the target lies outside
	// [0, duration] and duration is known.
	ErrSeekOutOfRange = errors.New("engine: seek position out of range")
)

// Callbacks are invoked outside any engine lock; implementations must
// not call back into the engine synchronously.
type Callbacks struct {
	OnTrackChange func(uri string, meta map[string]string, trackNumber int)
	OnStateChange func(s State)
}

// Config tunes the engine's timing. DefaultConfig returns values for
// typical LAN conditions.
type Config struct {
	// FormatChangeSettleDelay is how long the engine waits after
	// silencing the pipeline and before closing the sink on a format
	// change, giving a receiving DAC time to mute cleanly.
	FormatChangeSettleDelay time.Duration
	// ShutdownSilenceCyclesPCM/DSD is how many sink (consumer) cycles of
	// forced silence precede a sink close on a format-change transition.
	ShutdownSilenceCyclesPCM int
	ShutdownSilenceCyclesDSD int
	RingSecondsPCM           float64
	RingSecondsDSD           float64
	// ProducerCallbackTimeout bounds how long Stop waits for an in-flight
	// producer tick to finish before it proceeds anyway.
	ProducerCallbackTimeout time.Duration
}

// DefaultConfig matches the constants pipeline itself assumes when no
// override is given.
func DefaultConfig() Config {
	return Config{
		FormatChangeSettleDelay: 600 * time.Millisecond,
		ShutdownSilenceCyclesPCM: 30,
		ShutdownSilenceCyclesDSD: 100,
		RingSecondsPCM:           pipeline.DefaultRingSecondsPCM,
		RingSecondsDSD:           pipeline.DefaultRingSecondsDSD,
		ProducerCallbackTimeout:  5 * time.Second,
	}
}

// TrackEngine owns the current and next decoder, drives the pipeline's
// producer side on a steady cadence, and sequences gapless and
// format-change transitions at end of stream.
type TrackEngine struct {
	mu        sync.Mutex // engine_mutex
	pendingMu sync.Mutex // pending_mutex, strictly narrower than engine_mutex

	state atomic.Int32

	sinkT    sink.Transport
	pipeline *pipeline.AudioPipeline
	cfg      Config
	cb       Callbacks

	currentURI  string
	currentMeta map[string]string
	current     *decode.Decoder
	currentFmt  format.AudioFormat
	trackNumber int

	pendingNextURI  string
	pendingNextMeta map[string]string
	pendingNextSet  bool

	samplesPlayed atomic.Int64

	guard        *callbackGuard
	cancelRun    context.CancelFunc
	producerDone chan struct{}
}

// NewTrackEngine wires a TrackEngine to the given sink and pipeline.
// The caller owns sinkT's discovery/Open lifecycle up to the first
// SetCurrentURI call.
func NewTrackEngine(sinkT sink.Transport, pipe *pipeline.AudioPipeline, cfg Config, cb Callbacks) *TrackEngine {
	e := &TrackEngine{
		sinkT:    sinkT,
		pipeline: pipe,
		cfg:      cfg,
		cb:       cb,
		guard:    newCallbackGuard(),
	}
	e.state.Store(int32(Stopped))
	return e
}

// SetCallbacks replaces the engine's track/state-change callbacks;
// used by callers (such as RendererFacade) that must construct the
// engine before they can build the closures that reference it.
func (e *TrackEngine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cb = cb
}

// State returns the engine's current lifecycle state.
func (e *TrackEngine) State() State {
	return State(e.state.Load())
}

func (e *TrackEngine) setState(s State) {
	e.state.Store(int32(s))
	if e.cb.OnStateChange != nil {
		e.cb.OnStateChange(s)
	}
}

// SetCurrentURI replaces whatever is currently loaded/playing with uri,
// opening it, negotiating its sink format, and starting its producer
// loop. If a track is already playing, this is equivalent to Stop
// followed by SetCurrentURI (SM2): the old producer is quiesced before
// the new decoder is opened.
func (e *TrackEngine) SetCurrentURI(uri string, meta map[string]string) error {
	e.Stop()

	if err := e.openCurrent(uri, meta); err != nil {
		return err
	}

	e.pendingMu.Lock()
	e.pendingNextSet = false
	e.pendingMu.Unlock()

	return e.startProducer()
}

// openCurrent opens uri, negotiates its sink format, (re)configures the
// pipeline for it, and swaps it in as the current track, closing
// whatever decoder was previously current. It does not touch producer
// or state; callers decide whether/when to start ticking.
func (e *TrackEngine) openCurrent(uri string, meta map[string]string) error {
	d := &decode.Decoder{}
	if err := d.Open(uri); err != nil {
		return err
	}
	info := d.Info()
	plan, err := format.Adapt(info, e.sinkT.Capabilities())
	if err != nil {
		d.Close()
		return err
	}
	operative, _, err := e.sinkT.Open(plan.Format)
	if err != nil {
		d.Close()
		return err
	}

	ringSeconds := e.cfg.RingSecondsPCM
	if plan.Format.IsDSD {
		ringSeconds = e.cfg.RingSecondsDSD
	}
	e.pipeline.Configure(info, plan, ringSeconds)

	e.mu.Lock()
	if e.current != nil {
		e.current.Close()
	}
	e.current = d
	e.currentURI = uri
	e.currentMeta = meta
	e.currentFmt = operative
	e.trackNumber++
	trackNumber := e.trackNumber
	e.mu.Unlock()

	if e.cb.OnTrackChange != nil {
		e.cb.OnTrackChange(uri, meta, trackNumber)
	}
	return nil
}

// SetNextURI arms a pending next track, drained automatically at end
// of stream while Playing. Setting it again before it drains replaces
// the prior pending track.
func (e *TrackEngine) SetNextURI(uri string, meta map[string]string) {
	e.pendingMu.Lock()
	e.pendingNextURI = uri
	e.pendingNextMeta = meta
	e.pendingNextSet = true
	e.pendingMu.Unlock()
}

// Play resumes a paused engine or starts the producer for a track set
// via SetCurrentURI while the engine was stopped.
func (e *TrackEngine) Play() error {
	e.mu.Lock()
	uri, meta := e.currentURI, e.currentMeta
	hasCurrent := e.current != nil
	e.mu.Unlock()

	if uri == "" {
		return ErrNoCurrentTrack
	}

	switch e.State() {
	case Playing:
		return nil
	case Paused:
		if err := e.sinkT.Resume(); err != nil {
			return err
		}
		e.setState(Playing)
		return nil
	case Stopped:
		// Stop retains the URI but closes the decoder and drains the
		// sink; a subsequent play reopens from position 0 (the decoder
		// re-opening and the producer's first tick taking over from
		// there, rather than resuming a stale connection).
		if !hasCurrent {
			if err := e.openCurrent(uri, meta); err != nil {
				return err
			}
		}
		return e.startProducer()
	default:
		return nil
	}
}

// Pause stops the producer from advancing but leaves the sink open and
// the pipeline's ring intact so Play resumes instantly.
func (e *TrackEngine) Pause() error {
	if e.State() != Playing {
		return nil
	}
	if err := e.sinkT.Pause(); err != nil {
		return err
	}
	e.setState(Paused)
	return nil
}

// Stop halts the producer, mutes the sink, and returns to Stopped
// within ProducerCallbackTimeout regardless of what the producer loop
// was doing (SM1). Safe to call when already stopped.
func (e *TrackEngine) Stop() error {
	if e.State() == Stopped {
		return nil
	}
	e.pipeline.RequestStop()

	if e.cancelRun != nil {
		e.cancelRun()
	}
	deadline := time.Now().Add(e.cfg.ProducerCallbackTimeout)
	if e.producerDone != nil {
		select {
		case <-e.producerDone:
		case <-time.After(e.cfg.ProducerCallbackTimeout):
			log.Warnf("engine: producer loop did not exit within %s", e.cfg.ProducerCallbackTimeout)
		}
	}
	e.guard.waitComplete(time.Until(deadline))

	_ = e.sinkT.Stop(true)
	e.setState(Stopped)

	e.mu.Lock()
	if e.current != nil {
		e.current.Close()
		e.current = nil
	}
	e.mu.Unlock()

	return nil
}

// Seek repositions the current track (DEC1). Unsupported on DSD and on
// a stream with no current decoder.
func (e *TrackEngine) Seek(seconds float64) error {
	e.mu.Lock()
	d := e.current
	info := format.TrackInfo{}
	if d != nil {
		info = d.Info()
	}
	e.mu.Unlock()
	if d == nil {
		return ErrNoCurrentTrack
	}
	if dur := info.Duration(); dur > 0 && (seconds < 0 || seconds > dur) {
		return ErrSeekOutOfRange
	}
	if seconds < 0 {
		seconds = 0
	}
	if err := d.Seek(seconds); err != nil {
		return err
	}
	e.samplesPlayed.Store(int64(seconds * float64(info.SampleRate)))
	e.pipeline.Clear()
	return nil
}

// Position returns elapsed playback position in seconds for the
// current track.
func (e *TrackEngine) Position() float64 {
	e.mu.Lock()
	d := e.current
	e.mu.Unlock()
	if d == nil {
		return 0
	}
	rate := d.Info().SampleRate
	if rate <= 0 {
		return 0
	}
	return float64(e.samplesPlayed.Load()) / float64(rate)
}

// Duration returns the current track's total length in seconds, or 0
// if unknown (live stream, or no current decoder).
func (e *TrackEngine) Duration() float64 {
	e.mu.Lock()
	d := e.current
	e.mu.Unlock()
	if d == nil {
		return 0
	}
	return d.Info().Duration()
}

func (e *TrackEngine) startProducer() error {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelRun = cancel
	e.producerDone = make(chan struct{})
	e.setState(Playing)
	go e.runProducer(ctx, e.producerDone)
	return nil
}

// runProducer drives ProducerTick on a steady cadence until the
// context is cancelled (Stop) or the current track's decoder is
// exhausted and end-of-stream handling decides there is nothing left
// to play. Track transitions loop back to the top rather than
// recursing, so a long session of gapless tracks never grows the
// call stack.
func (e *TrackEngine) runProducer(ctx context.Context, done chan struct{}) {
	defer close(done)

	e.mu.Lock()
	d := e.current
	plan := e.currentFmt
	e.mu.Unlock()

	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if e.State() == Paused {
			next = time.Now().Add(10 * time.Millisecond)
			sleepUntil(ctx, next)
			continue
		}

		end := e.guard.begin()
		n, err := e.pipeline.ProducerTick(d)
		end()

		if n > 0 {
			e.samplesPlayed.Add(int64(n))
		}

		if err != nil {
			cont, newDecoder, newFmt := e.handleEndOfStream(ctx)
			if !cont {
				e.setState(Stopped)
				return
			}
			d = newDecoder
			plan = newFmt
			next = time.Now()
			continue
		}

		chunk := pipeline.ChunkSamples(plan)
		cycle := pipeline.CycleDuration(plan.SampleRate, chunk)
		next = next.Add(cycle)
		sleepUntil(ctx, next)
	}
}

// sleepUntil sleeps until deadline using an absolute target rather
// than a fixed relative duration, so cumulative tick overhead never
// drifts the cadence.
func sleepUntil(ctx context.Context, deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// handleEndOfStream resolves a pending next track, if any, into either
// a gapless continuation (operative sink format unchanged: swap
// decoders in place, no sink close/reopen) or a format-change
// transition (silence the pipeline, settle, reopen the sink, reconfigure
// the pipeline, then continue). Returns false when there is nothing
// left to play.
func (e *TrackEngine) handleEndOfStream(ctx context.Context) (bool, *decode.Decoder, format.AudioFormat) {
	e.pendingMu.Lock()
	uri, meta, has := e.pendingNextURI, e.pendingNextMeta, e.pendingNextSet
	e.pendingNextSet = false
	e.pendingMu.Unlock()

	if !has {
		return false, nil, format.AudioFormat{}
	}

	next := &decode.Decoder{}
	if err := next.Open(uri); err != nil {
		log.Warnf("engine: preload of %q failed: %v", uri, err)
		return false, nil, format.AudioFormat{}
	}
	info := next.Info()
	plan, err := format.Adapt(info, e.sinkT.Capabilities())
	if err != nil {
		log.Warnf("engine: no sink format for %q: %v", uri, err)
		next.Close()
		return false, nil, format.AudioFormat{}
	}

	e.mu.Lock()
	prevFmt := e.currentFmt
	prev := e.current
	e.mu.Unlock()

	var operative format.AudioFormat
	if prevFmt.Equal(plan.Format) {
		// Gapless (GP1): same operative format, no sink close/reopen.
		operative = prevFmt
	} else {
		// Format change (GP2): mute, settle, then reopen the sink.
		e.setState(Transitioning)
		cycles := e.cfg.ShutdownSilenceCyclesPCM
		if prevFmt.IsDSD {
			cycles = e.cfg.ShutdownSilenceCyclesDSD
		}
		e.pipeline.RequestShutdownSilence(cycles)
		sleepUntil(ctx, time.Now().Add(e.cfg.FormatChangeSettleDelay))

		_ = e.sinkT.Close()
		op, _, err := e.sinkT.Open(plan.Format)
		if err != nil {
			log.Warnf("engine: sink reopen failed for %q: %v", uri, err)
			next.Close()
			return false, nil, format.AudioFormat{}
		}
		operative = op
		ringSeconds := e.cfg.RingSecondsPCM
		if plan.Format.IsDSD {
			ringSeconds = e.cfg.RingSecondsDSD
		}
		e.pipeline.Configure(info, plan, ringSeconds)
	}

	e.mu.Lock()
	e.current = next
	e.currentURI = uri
	e.currentMeta = meta
	e.currentFmt = operative
	e.trackNumber++
	trackNumber := e.trackNumber
	e.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	e.samplesPlayed.Store(0)
	e.setState(Playing)

	if e.cb.OnTrackChange != nil {
		e.cb.OnTrackChange(uri, meta, trackNumber)
	}

	return true, next, operative
}
