// Package monitor provides a read-only WebRTC diagnostics tap: it lets
// a browser listen in on whatever PCM the pipeline is currently
// pushing into the ring, encoded to Opus, without ever blocking the
// audio producer. It has no bearing on the sink's own wire format —
// DSD and non-Opus-rate PCM tracks simply have nothing to tap.
package monitor
