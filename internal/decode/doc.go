// Package decode opens a URI, reports its native TrackInfo, and
// streams lazily-decoded PCM samples or raw DSD packets from it on
// demand.
//
// A Decoder owns exactly one underlying container/codec backend chosen
// by probing the URI's content (probe.go); for DSD it also keeps
// per-channel remainder buffers that carry surplus bytes across
// ReadSamples calls. DSD
// containers (.dsf, .dff) are never handed to a codec: their packet
// payloads are forwarded unchanged, normalized to a common
// planar-by-channel layout regardless of source container.
//
//	d := &decode.Decoder{}
//	if err := d.Open(uri); err != nil { ... }
//	info := d.Info()
//	buf := make([]byte, 8192*info.Channels*4)
//	n, err := d.ReadSamples(buf, 8192)
package decode
