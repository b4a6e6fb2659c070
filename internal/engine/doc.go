// Package engine implements TrackEngine: the state machine that owns
// the current and next decoder, drives the producer side of an
// AudioPipeline on a steady cadence, and sequences gapless and
// format-change track transitions.
//
// TrackEngine is driven by a RendererFacade, which serializes control
// callbacks against its own mutex before calling into here; TrackEngine
// additionally guards its own mutable state with engine_mutex and the
// pending next-URI slot with a separate, narrower pending_mutex, per
// the lock-ordering rule: facade_mutex, then engine_mutex, then
// pending_mutex, then the pipeline's own config_mutex and push_mutex.
package engine
