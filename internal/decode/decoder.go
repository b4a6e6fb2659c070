package decode

import (
	"io"
	"strings"

	"github.com/anandp/direnderer/internal/format"
)

// Decoder is the container/codec-agnostic streaming source a track
// engine opens one per track: Open resolves a URI and picks a backend,
// ReadSamples pulls the next chunk of wire-format samples, Seek
// repositions, Close releases everything. PCM and DSD take different
// internal paths (DSD never opens a codec) but present one contract.
type Decoder struct {
	uri  string
	rs   io.ReadSeekCloser
	size int64

	backend pcmBackend // nil when the stream is DSD
	dsd     *dsdBackend

	info format.TrackInfo
	eof  bool

	// dsdRemainder holds per-channel leftover planar DSD bytes that
	// didn't divide evenly into a caller's requested sample count; kept
	// separate per channel (rather than one flat buffer) so samples
	// from successive raw reads never get spliced into the wrong
	// channel's segment.
	dsdRemainder [][]byte
}

// Open resolves uri (a local path, file:// URI, or http(s):// URI),
// sniffs its container, and opens the matching backend.
func (d *Decoder) Open(uri string) error {
	rs, size, err := openURI(uri)
	if err != nil {
		return err
	}
	kind, err := probe(rs)
	if err != nil {
		rs.Close()
		return err
	}

	localPath := localFilePath(uri)

	if kind == containerDSF || kind == containerDFF {
		b := &dsdBackend{}
		if err := b.Open(rs, localPath); err != nil {
			rs.Close()
			return err
		}
		rate, channels, _, _ := b.Format()
		d.dsd = b
		d.rs = rs
		d.size = size
		d.uri = uri
		d.info = format.TrackInfo{
			SampleRate:        rate,
			BitDepth:          1,
			Channels:          channels,
			Codec:             "dsd",
			IsDSD:             true,
			DSDMultiplier:     dsdMultiplier(rate),
			DSDSourceBitOrder: b.sourceBitOrder(),
		}
		return nil
	}

	backend, err := newBackend(kind)
	if err != nil {
		rs.Close()
		return err
	}
	if err := backend.Open(rs, localPath); err != nil {
		rs.Close()
		return err
	}
	rate, channels, bits, compressed := backend.Format()
	d.backend = backend
	d.rs = rs
	d.size = size
	d.uri = uri
	d.info = format.TrackInfo{
		SampleRate:   rate,
		BitDepth:     bits,
		Channels:     channels,
		Codec:        codecName(kind),
		IsCompressed: compressed,
	}
	return nil
}

// Info returns the track's native format, fixed for the life of this
// open stream.
func (d *Decoder) Info() format.TrackInfo {
	return d.info
}

// ReadSamples fills out with up to n samples' (per channel) worth of
// wire-format data and returns how many samples per channel it wrote.
// A short read with a nil error means a format-specific packet
// boundary, not end of stream; io.EOF means the stream is exhausted.
func (d *Decoder) ReadSamples(out []byte, n int) (int, error) {
	if d.dsd != nil {
		return d.readDSDSamples(out, n)
	}
	if d.backend == nil {
		return 0, ErrNotOpen
	}
	frames, err := d.backend.DecodeFrames(n, out)
	if err == io.EOF {
		d.eof = true
	}
	return frames, err
}

func (d *Decoder) readDSDSamples(out []byte, n int) (int, error) {
	channels := d.info.Channels
	needPerChannel := n / 8
	if needPerChannel <= 0 {
		return 0, nil
	}
	if d.dsdRemainder == nil {
		d.dsdRemainder = make([][]byte, channels)
	}
	for minChannelLen(d.dsdRemainder) < needPerChannel {
		chunk, err := d.dsd.ReadRaw(needPerChannel * channels)
		if err != nil {
			if err == io.EOF {
				d.eof = true
				break
			}
			return 0, err
		}
		perCh := len(chunk) / channels
		for c := 0; c < channels; c++ {
			d.dsdRemainder[c] = append(d.dsdRemainder[c], chunk[c*perCh:(c+1)*perCh]...)
		}
	}

	avail := minChannelLen(d.dsdRemainder)
	if avail == 0 {
		return 0, io.EOF
	}
	take := needPerChannel
	if take > avail {
		take = avail
	}
	for c := 0; c < channels; c++ {
		copy(out[c*take:(c+1)*take], d.dsdRemainder[c][:take])
		d.dsdRemainder[c] = d.dsdRemainder[c][take:]
	}
	return take * 8, nil
}

func minChannelLen(segs [][]byte) int {
	if len(segs) == 0 {
		return 0
	}
	m := len(segs[0])
	for _, s := range segs[1:] {
		if len(s) < m {
			m = len(s)
		}
	}
	return m
}

// Seek repositions the stream to the given offset in seconds. Raw DSD
// streams have no native seek and refuse it outright; compressed and
// PCM backends expose none of the libraries' own seek hooks either, so
// this reopens the URI from scratch and discards frames up to the
// target position.
func (d *Decoder) Seek(seconds float64) error {
	if d.dsd != nil {
		return ErrSeekUnsupported
	}
	if d.backend == nil {
		return ErrNotOpen
	}
	targetFrame := int64(seconds * float64(d.info.SampleRate))
	uri := d.uri
	d.closeCurrent()
	if err := d.Open(uri); err != nil {
		return err
	}
	return d.discardFrames(targetFrame)
}

func (d *Decoder) discardFrames(target int64) error {
	if target <= 0 {
		return nil
	}
	const chunkFrames = 4096
	bytesPerFrame := d.info.Channels * wordBytes(d.info.BitDepth)
	scratch := make([]byte, chunkFrames*bytesPerFrame)

	remaining := target
	for remaining > 0 {
		want := chunkFrames
		if int64(want) > remaining {
			want = int(remaining)
		}
		n, err := d.backend.DecodeFrames(want, scratch)
		if n > 0 {
			remaining -= int64(n)
		}
		if err != nil {
			if err == io.EOF {
				d.eof = true
				return nil
			}
			return err
		}
		if n == 0 {
			break
		}
	}
	return nil
}

// IsEOF reports whether the stream has been exhausted.
func (d *Decoder) IsEOF() bool {
	return d.eof
}

func (d *Decoder) closeCurrent() {
	if d.backend != nil {
		d.backend.Close()
		d.backend = nil
	}
	if d.dsd != nil {
		d.dsd.Close()
		d.dsd = nil
	}
	if d.rs != nil {
		d.rs.Close()
		d.rs = nil
	}
	d.eof = false
	d.dsdRemainder = nil
}

// Close releases the open backend and underlying stream.
func (d *Decoder) Close() error {
	d.closeCurrent()
	return nil
}

func newBackend(kind containerKind) (pcmBackend, error) {
	switch kind {
	case containerWAV:
		return &wavBackend{}, nil
	case containerAIFF:
		return &aiffBackend{}, nil
	case containerFLAC:
		return &flacBackend{}, nil
	case containerMP3:
		return &mp3Backend{}, nil
	case containerOggVorbis:
		return &oggVorbisBackend{}, nil
	case containerOggOpus:
		return &oggOpusBackend{}, nil
	default:
		return nil, ErrUnknownContainer
	}
}

func codecName(kind containerKind) string {
	switch kind {
	case containerWAV:
		return "wav"
	case containerAIFF:
		return "aiff"
	case containerFLAC:
		return "flac"
	case containerMP3:
		return "mp3"
	case containerOggVorbis:
		return "vorbis"
	case containerOggOpus:
		return "opus"
	default:
		return "unknown"
	}
}

// dsdMultiplier maps a raw DSD bit rate to its DSD64/128/256/512/1024
// name (all are exact multiples of the CD-derived 44100 Hz base rate).
func dsdMultiplier(rate int) int {
	if rate <= 0 {
		return 0
	}
	return rate / 44100
}

func localFilePath(uri string) string {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return ""
	}
	return strings.TrimPrefix(uri, "file://")
}
