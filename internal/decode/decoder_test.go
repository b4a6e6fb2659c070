package decode

import (
	"io"
	"testing"
)

// fakeBackend is a minimal in-memory pcmBackend for exercising Decoder
// composition without a real codec library.
type fakeBackend struct {
	rate, channels, bits int
	frames               [][]byte // one slice of interleaved bytes per DecodeFrames call
	pos                  int
	opens                int
}

func (f *fakeBackend) Open(rs io.ReadSeeker, path string) error {
	f.opens++
	return nil
}

func (f *fakeBackend) Format() (int, int, int, bool) {
	return f.rate, f.channels, f.bits, false
}

func (f *fakeBackend) DecodeFrames(n int, out []byte) (int, error) {
	if f.pos >= len(f.frames) {
		return 0, io.EOF
	}
	chunk := f.frames[f.pos]
	f.pos++
	copy(out, chunk)
	return len(chunk) / (f.channels * wordBytes(f.bits)), nil
}

func (f *fakeBackend) Close() error { return nil }

func TestDecoder_ReadSamples_DelegatesToBackend(t *testing.T) {
	fb := &fakeBackend{
		rate: 44100, channels: 2, bits: 16,
		frames: [][]byte{{1, 0, 2, 0}, {3, 0, 4, 0}},
	}
	d := &Decoder{backend: fb}
	d.info.Channels = 2
	d.info.BitDepth = 16

	out := make([]byte, 64)
	n, err := d.ReadSamples(out, 1)
	if err != nil || n != 1 {
		t.Fatalf("ReadSamples = %d, %v, want 1, nil", n, err)
	}

	n, err = d.ReadSamples(out, 1)
	if err != nil || n != 1 {
		t.Fatalf("second ReadSamples = %d, %v, want 1, nil", n, err)
	}

	n, err = d.ReadSamples(out, 1)
	if err != io.EOF {
		t.Fatalf("third ReadSamples err = %v, want io.EOF", err)
	}
	if !d.IsEOF() {
		t.Fatalf("IsEOF() = false after EOF read")
	}
}

func TestDecoder_ReadSamples_NotOpen(t *testing.T) {
	d := &Decoder{}
	if _, err := d.ReadSamples(make([]byte, 4), 1); err != ErrNotOpen {
		t.Fatalf("err = %v, want ErrNotOpen", err)
	}
}

func TestDecoder_Seek_RejectsOnDSD(t *testing.T) {
	d := &Decoder{dsd: &dsdBackend{}}
	if err := d.Seek(1.0); err != ErrSeekUnsupported {
		t.Fatalf("err = %v, want ErrSeekUnsupported", err)
	}
}

func TestLocalFilePath(t *testing.T) {
	cases := map[string]string{
		"http://h/a.wav":  "",
		"https://h/a.wav": "",
		"file:///tmp/a":   "/tmp/a",
		"/tmp/a.wav":      "/tmp/a.wav",
	}
	for in, want := range cases {
		if got := localFilePath(in); got != want {
			t.Fatalf("localFilePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDSDMultiplier(t *testing.T) {
	cases := map[int]int{
		2822400:  64,
		5644800:  128,
		11289600: 256,
		0:        0,
	}
	for rate, want := range cases {
		if got := dsdMultiplier(rate); got != want {
			t.Fatalf("dsdMultiplier(%d) = %d, want %d", rate, got, want)
		}
	}
}
