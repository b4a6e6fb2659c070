package decode

import (
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// aiffBackend decodes uncompressed PCM AIFF/AIFC, the big-endian
// cousin of WAV: a container the retrieval pack's examples don't cover
// directly but that shares go-audio's IntBuffer convention with WAV,
// grounded on ik5-audpbx/formats/aiff.
type aiffBackend struct {
	dec      *aiff.Decoder
	rate     int
	channels int
	bits     int
	intBuf   *audio.IntBuffer
}

func (b *aiffBackend) Open(rs io.ReadSeeker, _ string) error {
	b.dec = aiff.NewDecoder(rs)
	if !b.dec.IsValidFile() {
		return ErrUnknownContainer
	}
	b.rate = int(b.dec.SampleRate)
	b.channels = int(b.dec.NumChans)
	b.bits = int(b.dec.BitDepth)
	if b.bits == 0 {
		b.bits = 24
	}
	b.intBuf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: b.channels, SampleRate: b.rate},
		SourceBitDepth: b.bits,
	}
	return nil
}

func (b *aiffBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, b.bits, false
}

func (b *aiffBackend) DecodeFrames(n int, out []byte) (int, error) {
	if cap(b.intBuf.Data) < n*b.channels {
		b.intBuf.Data = make([]int, n*b.channels)
	}
	b.intBuf.Data = b.intBuf.Data[:n*b.channels]

	if err := b.dec.PCMBuffer(b.intBuf); err != nil {
		return 0, err
	}
	got := len(b.intBuf.Data)
	if got == 0 {
		return 0, io.EOF
	}
	frames := got / b.channels
	writeS32LEFromInts(out, b.intBuf.Data[:got], b.bits)
	return frames, nil
}

func (b *aiffBackend) Close() error { return nil }
