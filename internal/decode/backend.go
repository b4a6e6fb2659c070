package decode

import "io"

// pcmBackend is the narrow interface every container/codec-specific
// decoder implements. It mirrors drgolem-simpleFilePlayer's
// musicDecoder (GetFormat/DecodeSamples/Open/Close) generalized to a
// seekable stream instead of a bare file path, and to frame counts
// instead of decoder-specific sample units.
//
// DecodeFrames writes interleaved PCM words into out, sized by the
// caller as n*channels*wordBytes(bits). 16-bit sources emit 2-byte
// little-endian words; 24- and 32-bit sources both emit 4-byte
// left-justified little-endian S32 words (see format.wordDepth for why
// this is safe for push_pack_24).
//
// Open receives both the already-opened seekable stream and, when the
// URI resolved to a local path, that path. The pure-Go wav/aiff/ogg-vorbis
// backends decode from rs directly (so they can stream straight out of
// an HTTP URI via seekinghttp); the cgo-backed flac/mp3/ogg-opus backends
// wrap libraries that only take a file path, so for a remote URI the
// decoder has already spooled rs to a temp file and path points at it.
type pcmBackend interface {
	Open(rs io.ReadSeeker, path string) error
	Format() (rate, channels, bits int, compressed bool)
	DecodeFrames(n int, out []byte) (int, error)
	Close() error
}

// wordBytes returns the wire word width for a given semantic bit depth.
func wordBytes(bitDepth int) int {
	if bitDepth <= 16 {
		return 2
	}
	return 4
}
