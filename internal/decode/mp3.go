package decode

import (
	"io"

	"github.com/drgolem/go-mpg123/mpg123"
)

// mp3Backend wraps drgolem/go-mpg123, grounded on
// drgolem-simpleFilePlayer/main.go's `mpg123.NewDecoder("")` usage
// (empty string selects mpg123's default output format/decoder).
type mp3Backend struct {
	dec      *mpg123.Mpg123Decoder
	rate     int
	channels int
}

func (b *mp3Backend) Open(rs io.ReadSeeker, path string) error {
	if path == "" {
		var err error
		path, err = spoolToTempFile(rs, "*.mp3")
		if err != nil {
			return err
		}
	}
	dec, err := mpg123.NewDecoder("")
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

func (b *mp3Backend) Format() (int, int, int, bool) {
	return b.rate, b.channels, 16, true
}

func (b *mp3Backend) DecodeFrames(n int, out []byte) (int, error) {
	frames, err := b.dec.DecodeSamples(n, out)
	if err != nil {
		return 0, err
	}
	if frames == 0 {
		return 0, io.EOF
	}
	return frames, nil
}

func (b *mp3Backend) Close() error {
	if b.dec != nil {
		b.dec.Delete()
	}
	return nil
}
