package decode

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBackend decodes uncompressed PCM WAVE, preserving native bit
// depth (16/24/32) rather than flattening to 16-bit, grounded on
// ik5-audpbx's formats/wav package which wraps the same go-audio/wav
// library.
type wavBackend struct {
	dec      *wav.Decoder
	rate     int
	channels int
	bits     int
	intBuf   *audio.IntBuffer
}

func (b *wavBackend) Open(rs io.ReadSeeker, _ string) error {
	b.dec = wav.NewDecoder(rs)
	if !b.dec.IsValidFile() {
		return ErrUnknownContainer
	}
	b.rate = int(b.dec.SampleRate)
	b.channels = int(b.dec.NumChans)
	b.bits = int(b.dec.BitDepth)
	if b.bits == 0 {
		b.bits = 24 // default when the header's bit depth field is absent/invalid
	}
	b.intBuf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: b.channels, SampleRate: b.rate},
		SourceBitDepth: b.bits,
	}
	return nil
}

func (b *wavBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, b.bits, false
}

func (b *wavBackend) DecodeFrames(n int, out []byte) (int, error) {
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

func (b *wavBackend) Close() error { return nil }

// writeS32LEFromInts packs decoded integer samples into little-endian
// wire words: 2 bytes for 16-bit, 4 bytes left-justified for 24/32-bit.
func writeS32LEFromInts(out []byte, samples []int, bitDepth int) {
	wb := wordBytes(bitDepth)
	shift := uint(0)
	if bitDepth > 16 {
		shift = uint(32 - bitDepth)
	}
	for i, s := range samples {
		v := int32(s) << shift
		off := i * wb
		if wb == 2 {
			out[off] = byte(v)
			out[off+1] = byte(v >> 8)
		} else {
			out[off] = byte(v)
			out[off+1] = byte(v >> 8)
			out[off+2] = byte(v >> 16)
			out[off+3] = byte(v >> 24)
		}
	}
}
