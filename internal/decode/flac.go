package decode

import (
	"io"

	"github.com/drgolem/go-flac/flac"
)

// flacBackend wraps drgolem/go-flac's frame decoder, grounded directly
// on drgolem-simpleFilePlayer/main.go's
// `flac.NewFlacFrameDecoder(16)` usage. The library decodes to 16-bit
// PCM regardless of the source's native depth, so FLAC tracks always
// report IsCompressed=true and BitDepth=16 downstream.
type flacBackend struct {
	dec      *flac.FlacFrameDecoder
	channels int
	rate     int
}

func (b *flacBackend) Open(rs io.ReadSeeker, path string) error {
	if path == "" {
		var err error
		path, err = spoolToTempFile(rs, "*.flac")
		if err != nil {
			return err
		}
	}
	dec, err := flac.NewFlacFrameDecoder(16)
	if err != nil {
		return err
	}
	if err := dec.Open(path); err != nil {
		return err
	}
	b.dec = dec
	b.rate, b.channels, _ = dec.GetFormat()
	return nil
}

func (b *flacBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, 16, true
}

func (b *flacBackend) DecodeFrames(n int, out []byte) (int, error) {
	frames, err := b.dec.DecodeSamples(n, out)
	if err != nil {
		return 0, err
	}
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

func (b *flacBackend) Close() error {
	if b.dec != nil {
		return b.dec.Close()
	}
	return nil
}
