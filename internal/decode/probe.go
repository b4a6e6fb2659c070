package decode

import (
	"bytes"
	"io"

	"github.com/anandp/direnderer/internal/format"
)

// containerKind identifies the sniffed container family. Detection
// follows the same "read the leading magic, fall back to header
// parsing" pattern drgolem-simpleFilePlayer's GetOggFileStreamType uses
// for distinguishing Vorbis from Opus inside an Ogg stream.
type containerKind int

const (
	containerUnknown containerKind = iota
	containerWAV
	containerAIFF
	containerFLAC
	containerMP3
	containerOggVorbis
	containerOggOpus
	containerDSF
	containerDFF
)

var (
	oggVorbisPattern = [6]byte{'v', 'o', 'r', 'b', 'i', 's'}
	oggOpusPattern   = [8]byte{'O', 'p', 'u', 's', 'H', 'e', 'a', 'd'}
)

// probe sniffs the container kind from a seekable stream's leading
// bytes, then rewinds to offset 0 so the caller's backend can parse
// the header itself.
func probe(rs io.ReadSeeker) (containerKind, error) {
	head := make([]byte, 64)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return containerUnknown, err
	}
	head = head[:n]
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		return containerUnknown, serr
	}

	switch {
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("RIFF")):
		return containerWAV, nil
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("FORM")):
		return containerAIFF, nil
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("fLaC")):
		return containerFLAC, nil
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("DSD ")):
		return containerDSF, nil
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("FRM8")):
		return containerDFF, nil
	case len(head) >= 4 && bytes.Equal(head[0:4], []byte("OggS")):
		return probeOgg(head)
	case len(head) >= 3 && (bytes.Equal(head[0:3], []byte("ID3")) || (head[0] == 0xFF && head[1]&0xE0 == 0xE0)):
		return containerMP3, nil
	}
	return containerUnknown, ErrUnknownContainer
}

// probeOgg looks inside the first Ogg page's payload for the Vorbis or
// Opus identification-header magic, mirroring drgolem's
// GetOggFileStreamType.
func probeOgg(head []byte) (containerKind, error) {
	if len(head) < 28 {
		return containerUnknown, ErrUnknownContainer
	}
	// Ogg page header is 27 bytes + segment table; the codec
	// identification packet starts right after. We only need a
	// handful of leading bytes of that packet, which for both Vorbis
	// and Opus sit a fixed two bytes past a type/version byte.
	payload := head[27:]
	if len(payload) >= 7 && payload[0] == 1 && bytes.Equal(payload[1:7], oggVorbisPattern[:]) {
		return containerOggVorbis, nil
	}
	if len(payload) >= 8 && bytes.Equal(payload[0:8], oggOpusPattern[:]) {
		return containerOggOpus, nil
	}
	return containerUnknown, ErrUnknownContainer
}

func bitOrderForDSDContainer(k containerKind) format.BitOrder {
	switch k {
	case containerDSF:
		return format.BitOrderLSBFirst
	case containerDFF:
		return format.BitOrderMSBFirst
	default:
		return format.BitOrderUnknown
	}
}
