// Package format holds the track/sink data model shared by the decoder
// and the pipeline, and the Adapt function that decides, from a
// decoded track's native format and a sink's declared capabilities,
// which sink format to negotiate and which ring-buffer push variant
// converts one into the other.
//
//	plan, err := format.Adapt(trackInfo, sinkCaps)
//	if err != nil {
//	    // ErrUnsupportedFormat: sink accepts nothing compatible with the track
//	}
//	switch plan.Kind {
//	case format.ConvertNone:
//	    ring.Push(chunk)
//	case format.ConvertPack24:
//	    ring.PushPack24(chunk)
//	case format.ConvertUpsample16to32:
//	    ring.PushUpsample16to32(chunk)
//	case format.ConvertDSDPlanar:
//	    var table *[256]byte // ring.BitReverseTable when plan.BitReverse
//	    ring.PushDSDPlanar(chunk, info.Channels, table, plan.ByteSwap)
//	}
package format
