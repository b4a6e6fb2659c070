package ring

import (
	"bytes"
	"testing"
)

func TestInvariant_AvailableFreeSize(t *testing.T) {
	r := New(32, 0x00)
	for _, n := range []int{0, 1, 5, 31, 100} {
		data := make([]byte, n)
		r.Push(data)
		if got := r.Available() + r.Free() + 1; got != r.Size() {
			t.Fatalf("available+free+1 = %d, want %d", got, r.Size())
		}
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	r := New(16, 0x00)
	in := []byte{1, 2, 3, 4, 5}
	n := r.Push(in)
	if n != len(in) {
		t.Fatalf("Push returned %d, want %d", n, len(in))
	}
	out := make([]byte, 10)
	got := r.Pop(out, 10)
	if got != len(in) {
		t.Fatalf("Pop returned %d, want min(10,5)=%d", got, len(in))
	}
	if !bytes.Equal(out[:got], in) {
		t.Fatalf("Pop bytes = %v, want %v", out[:got], in)
	}
}

func TestPushTruncatesToFreeSpace(t *testing.T) {
	r := New(4, 0x00) // 3 usable bytes (1 reserved)
	in := []byte{1, 2, 3, 4, 5}
	n := r.Push(in)
	if n != 3 {
		t.Fatalf("Push returned %d, want 3", n)
	}
}

func TestPushPack24(t *testing.T) {
	r := New(64, 0x00)
	// two S32 LE samples
	s1 := int32(0x12345678)
	s2 := int32(-123456)
	in := make([]byte, 8)
	putS32LE(in[0:4], s1)
	putS32LE(in[4:8], s2)

	consumed := r.PushPack24(in)
	if consumed != 8 {
		t.Fatalf("consumed = %d, want 8", consumed)
	}
	out := make([]byte, 6)
	r.Pop(out, 6)

	want := []byte{
		byte(s1 >> 8), byte(s1 >> 16), byte(s1 >> 24),
		byte(s2 >> 8), byte(s2 >> 16), byte(s2 >> 24),
	}
	if !bytes.Equal(out, want) {
		t.Fatalf("PushPack24 bytes = %v, want %v", out, want)
	}
}

func TestPushUpsample16to32(t *testing.T) {
	r := New(64, 0x00)
	in := []byte{0x34, 0x12} // lo, hi
	consumed := r.PushUpsample16to32(in)
	if consumed != 2 {
		t.Fatalf("consumed = %d, want 2", consumed)
	}
	out := make([]byte, 4)
	r.Pop(out, 4)
	want := []byte{0, 0, 0x34, 0x12}
	if !bytes.Equal(out, want) {
		t.Fatalf("PushUpsample16to32 bytes = %v, want %v", out, want)
	}
}

func TestPushDSDPlanarBasic(t *testing.T) {
	r := New(64, 0x69)
	L := []byte{0xA1, 0xA2, 0xA3, 0xA4}
	R := []byte{0xB1, 0xB2, 0xB3, 0xB4}
	in := append(append([]byte{}, L...), R...)

	consumed := r.PushDSDPlanar(in, 2, nil, false)
	if consumed != 8 {
		t.Fatalf("consumed = %d, want 8", consumed)
	}
	out := make([]byte, 8)
	r.Pop(out, 8)
	want := append(append([]byte{}, L...), R...)
	if !bytes.Equal(out, want) {
		t.Fatalf("interleave = %v, want %v", out, want)
	}
}

func TestPushDSDPlanarByteSwap(t *testing.T) {
	r := New(64, 0x69)
	L := []byte{0xA1, 0xA2, 0xA3, 0xA4}
	R := []byte{0xB1, 0xB2, 0xB3, 0xB4}
	in := append(append([]byte{}, L...), R...)

	r.PushDSDPlanar(in, 2, nil, true)
	out := make([]byte, 8)
	r.Pop(out, 8)
	want := []byte{0xA4, 0xA3, 0xA2, 0xA1, 0xB4, 0xB3, 0xB2, 0xB1}
	if !bytes.Equal(out, want) {
		t.Fatalf("byte-swapped interleave = %v, want %v", out, want)
	}
}

func TestPushDSDPlanarBitReverse(t *testing.T) {
	r := New(64, 0x69)
	in := []byte{0b1000_0001, 0x00, 0x00, 0x00}
	r.PushDSDPlanar(in, 1, BitReverseTable, false)
	out := make([]byte, 4)
	r.Pop(out, 4)
	if out[0] != 0b1000_0001 { // palindromic mirror
		t.Fatalf("bit-reverse of %08b = %08b, want %08b", in[0], out[0], in[0])
	}
	in2 := []byte{0b0000_0001, 0x00, 0x00, 0x00}
	r2 := New(64, 0x69)
	r2.PushDSDPlanar(in2, 1, BitReverseTable, false)
	out2 := make([]byte, 4)
	r2.Pop(out2, 4)
	if out2[0] != 0b1000_0000 {
		t.Fatalf("bit-reverse of %08b = %08b, want %08b", in2[0], out2[0], byte(0b1000_0000))
	}
}

func TestPushDSDPlanarDropsIncompleteTrailingGroup(t *testing.T) {
	r := New(64, 0x69)
	// 6 bytes per channel: one full 4-byte group plus 2 trailing bytes to drop
	L := []byte{1, 2, 3, 4, 9, 9}
	R := []byte{5, 6, 7, 8, 9, 9}
	in := append(append([]byte{}, L...), R...)

	consumed := r.PushDSDPlanar(in, 2, nil, false)
	if consumed != 8 { // 4 bytes per channel, 2 channels
		t.Fatalf("consumed = %d, want 8", consumed)
	}
}

func TestClearFillsSilence(t *testing.T) {
	r := New(8, 0x69)
	r.Push([]byte{1, 2, 3})
	r.Clear()
	if r.Available() != 0 {
		t.Fatalf("Available after Clear = %d, want 0", r.Available())
	}
	for i, b := range r.buf {
		if b != 0x69 {
			t.Fatalf("buf[%d] = %#x after Clear, want silence 0x69", i, b)
		}
	}
	out := make([]byte, 8)
	n := r.Pop(out, 8)
	if n != 0 {
		t.Fatalf("expected empty ring after Clear, popped %d", n)
	}
}

func putS32LE(dst []byte, v int32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
