// Package facade implements RendererFacade: the single entry point a
// control layer calls into, serializing inbound control callbacks
// against one mutex, driving a TrackEngine, and emitting track-change,
// state-change, and once-a-second position events upstream.
package facade
