package decode

import (
	"io"

	"github.com/drgolem/go-opus/opus"
)

// oggOpusBackend wraps drgolem/go-opus's file-level decoder, grounded
// on drgolem-simpleFilePlayer/decoders/oggopusfile.go. Like mp3/flac,
// it needs a real file path, so remote URIs are spooled to a temp file
// first.
type oggOpusBackend struct {
	dec      *opus.OpusFileDecoder
	rate     int
	channels int
}

func (b *oggOpusBackend) Open(rs io.ReadSeeker, path string) error {
	if path == "" {
		var err error
		path, err = spoolToTempFile(rs, "*.opus")
		if err != nil {
			return err
		}
	}
	dec, err := opus.NewOpusFileDecoder(path)
	if err != nil {
		return err
	}
	b.dec = dec
	b.channels = dec.Channels()
	b.rate = dec.SampleRate()
	return nil
}

func (b *oggOpusBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, 16, true
}

func (b *oggOpusBackend) DecodeFrames(n int, out []byte) (int, error) {
	frames, err := b.dec.DecodeSamples(n, out)
	if err != nil {
		return 0, err
	}
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

func (b *oggOpusBackend) Close() error {
	if b.dec != nil {
		b.dec.Close()
	}
	return nil
}
