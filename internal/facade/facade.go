package facade

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/anandp/direnderer/internal/decode"
	"github.com/anandp/direnderer/internal/engine"
	"github.com/anandp/direnderer/internal/log"
)

// Events is what RendererFacade emits upstream to the control layer.
// Track- and state-change handlers can run while facade_mutex is held
// (when a facade call such as SetCurrentURI or Stop triggers them);
// they must not call back into the facade synchronously.
type Events struct {
	OnTrackChange func(uri string, meta map[string]string, trackNumber int)
	OnStateChange func(s engine.State)
	OnPositionTick func(position, duration float64)
}

// RendererFacade serializes every inbound control callback against
// facade_mutex before driving the engine, and fans engine/pipeline
// state back out as upstream events, including a once-a-second
// position tick run on its own goroutine.
type RendererFacade struct {
	mu sync.Mutex // facade_mutex

	eng    *engine.TrackEngine
	events Events

	tickerStop chan struct{}
	tickerDone chan struct{}

	// volume/mute are pass-through state only: the renderer core has no
	// gain stage, so setting them has no audio effect.
	volume atomic.Int32
	muted  atomic.Bool
}

// New wires a RendererFacade around an already-constructed TrackEngine.
// The engine's own Callbacks should forward into this facade's
// handleTrackChange/handleStateChange so upstream events flow through
// one place.
func New(eng *engine.TrackEngine, events Events) *RendererFacade {
	f := &RendererFacade{eng: eng, events: events}
	f.volume.Store(100)
	return f
}

// EngineCallbacks returns the engine.Callbacks this facade expects to
// be wired into the TrackEngine constructor, so track/state changes
// are relayed upstream without the engine knowing about the facade.
func (f *RendererFacade) EngineCallbacks() engine.Callbacks {
	return engine.Callbacks{
		OnTrackChange: f.handleTrackChange,
		OnStateChange: f.handleStateChange,
	}
}

func (f *RendererFacade) handleTrackChange(uri string, meta map[string]string, trackNumber int) {
	if f.events.OnTrackChange != nil {
		f.events.OnTrackChange(uri, meta, trackNumber)
	}
}

func (f *RendererFacade) handleStateChange(s engine.State) {
	if f.events.OnStateChange != nil {
		f.events.OnStateChange(s)
	}
}

// SetCurrentURI auto-stops a non-stopped engine before arming uri,
// since some control points issue setCurrentURI without a prior stop
// and an in-place swap would race the producer against a decoder
// that's about to be closed out from under it.
func (f *RendererFacade) SetCurrentURI(uri string, meta map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.eng.State() != engine.Stopped {
		if err := f.eng.Stop(); err != nil {
			log.Warnf("facade: auto-stop before setCurrentURI failed: %v", err)
		}
	}
	return f.eng.SetCurrentURI(uri, meta)
}

// SetNextURI arms the engine's pending next-track slot.
func (f *RendererFacade) SetNextURI(uri string, meta map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eng.SetNextURI(uri, meta)
}

// Play resumes a paused sink, or, when the engine is stopped, has it
// reopen the retained track from position 0 and restart its producer.
func (f *RendererFacade) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eng.Play()
}

func (f *RendererFacade) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eng.Pause()
}

func (f *RendererFacade) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eng.Stop()
}

func (f *RendererFacade) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eng.Seek(seconds)
}

// SeekString accepts any of the three wire forms the control layer
// may send: "HH:MM:SS[.mmm]", "MM:SS", or a decimal number of seconds.
func (f *RendererFacade) SeekString(s string) error {
	seconds, err := decode.ParseTimeString(s)
	if err != nil {
		return err
	}
	return f.Seek(seconds)
}

func (f *RendererFacade) State() engine.State {
	return f.eng.State()
}

// GetVolume/SetVolume/GetMute/SetMute are pass-through state the
// control layer expects to round-trip; the renderer core applies no
// gain or mute to the audio path itself.
func (f *RendererFacade) GetVolume() int { return int(f.volume.Load()) }

func (f *RendererFacade) SetVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	f.volume.Store(int32(v))
}

func (f *RendererFacade) GetMute() bool { return f.muted.Load() }

func (f *RendererFacade) SetMute(m bool) { f.muted.Store(m) }

// StartPositionTicks launches the dedicated once-a-second position
// thread; StopPositionTicks stops it. A second StartPositionTicks while
// the thread runs is a no-op, and StopPositionTicks is idempotent.
func (f *RendererFacade) StartPositionTicks() {
	f.mu.Lock()
	if f.tickerStop != nil {
		f.mu.Unlock()
		return
	}
	f.tickerStop = make(chan struct{})
	f.tickerDone = make(chan struct{})
	stop := f.tickerStop
	done := f.tickerDone
	f.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if f.events.OnPositionTick == nil {
					continue
				}
				pos := f.eng.Position()
				dur := f.eng.Duration()
				f.events.OnPositionTick(pos, dur)
			}
		}
	}()
}

func (f *RendererFacade) StopPositionTicks() {
	f.mu.Lock()
	stop := f.tickerStop
	done := f.tickerDone
	f.tickerStop = nil
	f.tickerDone = nil
	f.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
