package engine

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWAV writes a minimal uncompressed-PCM WAVE file with
// silent sample data and returns its path, for engine tests that need
// a real, openable Decoder without reaching into decode package
// internals.
func writeTestWAV(t *testing.T, sampleRate, channels, bitsPerSample, frames int) string {
	t.Helper()

	blockAlign := channels * bitsPerSample / 8
	dataSize := frames * blockAlign
	byteRate := sampleRate * blockAlign

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, "RIFF"...)
	buf = appendU32(buf, uint32(36+dataSize))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = appendU32(buf, 16)
	buf = appendU16(buf, 1) // PCM
	buf = appendU16(buf, uint16(channels))
	buf = appendU32(buf, uint32(sampleRate))
	buf = appendU32(buf, uint32(byteRate))
	buf = appendU16(buf, uint16(blockAlign))
	buf = appendU16(buf, uint16(bitsPerSample))

	buf = append(buf, "data"...)
	buf = appendU32(buf, uint32(dataSize))
	buf = append(buf, make([]byte, dataSize)...)

	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing fixture wav: %v", err)
	}
	return path
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
