package facade

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/anandp/direnderer/internal/engine"
)

func TestStartStopPositionTicks_NoPanicAndStopsCleanly(t *testing.T) {
	var ticks atomic.Int32
	f := &RendererFacade{
		eng: engine.NewTrackEngine(nil, nil, engine.DefaultConfig(), engine.Callbacks{}),
		events: Events{
			OnPositionTick: func(pos, dur float64) { ticks.Add(1) },
		},
	}
	f.StartPositionTicks()
	f.StartPositionTicks() // second call must be a harmless no-op
	time.Sleep(10 * time.Millisecond)
	f.StopPositionTicks()
	f.StopPositionTicks() // idempotent

	if f.tickerStop != nil {
		t.Fatalf("tickerStop not cleared after StopPositionTicks")
	}
}

func TestEngineCallbacks_RelayToEvents(t *testing.T) {
	var gotURI string
	var gotState engine.State
	f := &RendererFacade{
		eng: engine.NewTrackEngine(nil, nil, engine.DefaultConfig(), engine.Callbacks{}),
		events: Events{
			OnTrackChange: func(uri string, meta map[string]string, n int) { gotURI = uri },
			OnStateChange: func(s engine.State) { gotState = s },
		},
	}
	cb := f.EngineCallbacks()
	cb.OnTrackChange("track.wav", nil, 1)
	cb.OnStateChange(engine.Playing)

	if gotURI != "track.wav" {
		t.Fatalf("gotURI = %q, want track.wav", gotURI)
	}
	if gotState != engine.Playing {
		t.Fatalf("gotState = %v, want Playing", gotState)
	}
}
