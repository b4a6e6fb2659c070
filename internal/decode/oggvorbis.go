package decode

import (
	"bufio"
	"io"
	"math"

	"github.com/drgolem/go-ogg/ogg"
	"github.com/jfreymuth/vorbis"
)

// oggPageReader is the narrow surface this package needs from
// go-ogg's reader.
type oggPageReader interface {
	Next() bool
	Scan() ([]byte, error)
	Close()
}

// oggVorbisBackend decodes Ogg/Vorbis: go-ogg unpacks Ogg pages,
// jfreymuth/vorbis decodes the Vorbis packets inside them to float32,
// which is then scaled to 16-bit PCM.
type oggVorbisBackend struct {
	oggReader oggPageReader
	decoder   vorbis.Decoder
	closer    io.Closer
	channels  int
	rate      int
	leftover  []int16 // interleaved samples decoded but not yet delivered
}

func (b *oggVorbisBackend) Open(rs io.ReadSeeker, _ string) error {
	br := bufio.NewReader(rs)
	oggReader, err := ogg.NewOggReader(br)
	if err != nil {
		return err
	}
	b.oggReader = oggReader
	if rc, ok := rs.(io.Closer); ok {
		b.closer = rc
	}

	headersNeeded := 3
	for headersNeeded > 0 && oggReader.Next() {
		p, err := oggReader.Scan()
		if err != nil {
			return err
		}
		if err := b.decoder.ReadHeader(p); err != nil {
			return err
		}
		headersNeeded--
	}

	b.channels = b.decoder.Channels()
	b.rate = b.decoder.SampleRate()
	return nil
}

func (b *oggVorbisBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, 16, true
}

func (b *oggVorbisBackend) DecodeFrames(n int, out []byte) (int, error) {
	need := n * b.channels
	for len(b.leftover) < need {
		if !b.oggReader.Next() {
			break
		}
		packet, err := b.oggReader.Scan()
		if err != nil {
			return 0, err
		}
		floats, err := b.decoder.Decode(packet)
		if err != nil {
			return 0, err
		}
		for _, f := range floats {
			s := int16(math.Floor(float64(f) * 32767))
			b.leftover = append(b.leftover, s)
		}
	}
	if len(b.leftover) == 0 {
		return 0, io.EOF
	}
	take := need
	if take > len(b.leftover) {
		take = len(b.leftover)
	}
	for i := 0; i < take; i++ {
		out[i*2] = byte(b.leftover[i])
		out[i*2+1] = byte(b.leftover[i] >> 8)
	}
	b.leftover = b.leftover[take:]
	return take / b.channels, nil
}

func (b *oggVorbisBackend) Close() error {
	if b.oggReader != nil {
		b.oggReader.Close()
	}
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}
