package decode

import (
	"io"
	"os"
)

// spoolToTempFile copies a remote stream to a local temp file so that
// cgo-backed decoders needing a real file path (flac/mp3/ogg-opus) can
// open a URI the same way they open a local file. rs is left positioned
// at EOF; callers that also need rs afterward should not call this.
func spoolToTempFile(rs io.Reader, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, rs); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
