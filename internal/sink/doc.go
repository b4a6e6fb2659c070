// Package sink defines the opaque LAN audio-sink wire-protocol
// boundary (discover, negotiate, submit, pull) as a Go interface, and
// provides a reference in-process implementation used by tests and by
// operators without a real target hardware to exercise against.
//
// The real wire protocol — discovery framing, MTU probing, the actual
// byte layout a physical DAC target expects — is deliberately out of
// scope: SinkTransport exists so AudioPipeline and TrackEngine can be
// built and tested against a known contract without depending on any
// concrete transport.
package sink
