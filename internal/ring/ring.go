package ring

import "sync/atomic"

// RingBuffer is a fixed-capacity SPSC byte ring. The zero value is not
// usable; construct with New.
type RingBuffer struct {
	buf         []byte
	size        uint64
	silenceByte byte

	// write is advanced only by the producer; read only by the consumer.
	// Both are monotonically increasing byte counts, not wrapped indices,
	// so Available/Free never need to reason about cursor wraparound.
	write atomic.Uint64
	read  atomic.Uint64
}

// New creates a ring buffer of the given size in bytes, filled with
// silenceByte. size need not be a power of two.
func New(size int, silenceByte byte) *RingBuffer {
	if size < 1 {
		size = 1
	}
	r := &RingBuffer{
		buf:         make([]byte, size),
		size:        uint64(size),
		silenceByte: silenceByte,
	}
	r.FillWithSilence()
	return r
}

// Size returns the capacity of the ring in bytes.
func (r *RingBuffer) Size() int { return int(r.size) }

// SilenceByte returns the byte used to pad underruns and to pre-fill the
// buffer on construction or Clear.
func (r *RingBuffer) SilenceByte() byte { return r.silenceByte }

// SetSilenceByte changes the byte future Clear/FillWithSilence calls
// pad with — used on a format change between PCM and DSD, which each
// have a different silence value, without reallocating the backing
// array. Only legal when no producer or consumer is concurrently
// executing against the buffer.
func (r *RingBuffer) SetSilenceByte(b byte) {
	r.silenceByte = b
}

// Available returns the number of bytes ready for Pop.
func (r *RingBuffer) Available() int {
	return int(r.write.Load() - r.read.Load())
}

// Free returns the number of bytes a producer may Push before the ring
// is full. One slot is always reserved so that a full ring can be told
// apart from an empty one.
func (r *RingBuffer) Free() int {
	return int(r.size) - r.Available() - 1
}

// Clear resets the ring to empty and overwrites its contents with
// silence. Only legal when no producer or consumer is concurrently
// executing against the buffer.
func (r *RingBuffer) Clear() {
	r.write.Store(0)
	r.read.Store(0)
	r.FillWithSilence()
}

// FillWithSilence overwrites the entire backing array with the silence
// byte. Does not move the cursors.
func (r *RingBuffer) FillWithSilence() {
	for i := range r.buf {
		r.buf[i] = r.silenceByte
	}
}

func (r *RingBuffer) idx(pos uint64) uint64 {
	return pos % r.size
}

func (r *RingBuffer) writeByte(pos uint64, b byte) {
	r.buf[r.idx(pos)] = b
}

// Push appends raw bytes, truncating to whatever free space allows.
// Returns the number of bytes actually accepted.
func (r *RingBuffer) Push(data []byte) int {
	free := r.Free()
	n := len(data)
	if n > free {
		n = free
	}
	w := r.write.Load()
	for i := 0; i < n; i++ {
		r.writeByte(w+uint64(i), data[i])
	}
	r.write.Store(w + uint64(n))
	return n
}

// PushPack24 consumes 4-byte little-endian S32 input samples and writes
// 3-byte S24 samples: the low byte of each S32 is dropped, the upper 24
// bits are kept in little-endian order. Returns the number of input
// bytes consumed (always a multiple of 4).
func (r *RingBuffer) PushPack24(data []byte) int {
	groupsIn := len(data) / 4
	groupsOut := r.Free() / 3
	groups := groupsIn
	if groupsOut < groups {
		groups = groupsOut
	}
	w := r.write.Load()
	out := w
	for g := 0; g < groups; g++ {
		s := data[g*4 : g*4+4]
		r.writeByte(out, s[1])
		r.writeByte(out+1, s[2])
		r.writeByte(out+2, s[3])
		out += 3
	}
	r.write.Store(out)
	return groups * 4
}

// PushUpsample16to32 consumes 2-byte little-endian S16 input samples and
// writes 4-byte little-endian S32 samples with the source bits placed in
// the upper half (low two bytes zero). Returns the number of input bytes
// consumed (always a multiple of 2).
func (r *RingBuffer) PushUpsample16to32(data []byte) int {
	groupsIn := len(data) / 2
	groupsOut := r.Free() / 4
	groups := groupsIn
	if groupsOut < groups {
		groups = groupsOut
	}
	w := r.write.Load()
	out := w
	for g := 0; g < groups; g++ {
		lo := data[g*2]
		hi := data[g*2+1]
		r.writeByte(out, 0)
		r.writeByte(out+1, 0)
		r.writeByte(out+2, lo)
		r.writeByte(out+3, hi)
		out += 4
	}
	r.write.Store(out)
	return groups * 2
}

// PushDSDPlanar consumes planar-by-channel DSD bytes (all of channel 0,
// then all of channel 1, ...) in 4-byte groups and writes one 4-byte
// group per channel, interleaved round-robin. If bitReverseTable is
// non-nil, every output byte is mapped through it first (used to flip
// DSD bit order between MSB-first and LSB-first sources/sinks). If
// byteSwap is true, the 4 bytes of each group are written in reverse
// order (used when the sink wants little-endian DSD words).
//
// Incomplete trailing groups — channel segments whose length isn't a
// multiple of 4 — are dropped. Returns the number of input bytes
// logically consumed across all channel segments (groupsPerChannel * 4
// per channel).
func (r *RingBuffer) PushDSDPlanar(data []byte, channels int, bitReverseTable *[256]byte, byteSwap bool) int {
	if channels < 1 || len(data) == 0 {
		return 0
	}
	segmentLen := len(data) / channels
	groupsPerChannel := segmentLen / 4

	maxGroupsByOutput := r.Free() / (channels * 4)
	if maxGroupsByOutput < groupsPerChannel {
		groupsPerChannel = maxGroupsByOutput
	}
	if groupsPerChannel <= 0 {
		return 0
	}

	w := r.write.Load()
	out := w
	var group [4]byte
	for i := 0; i < groupsPerChannel; i++ {
		for ch := 0; ch < channels; ch++ {
			srcOff := ch*segmentLen + i*4
			copy(group[:], data[srcOff:srcOff+4])
			if bitReverseTable != nil {
				for b := 0; b < 4; b++ {
					group[b] = bitReverseTable[group[b]]
				}
			}
			if byteSwap {
				group[0], group[1], group[2], group[3] = group[3], group[2], group[1], group[0]
			}
			for b := 0; b < 4; b++ {
				r.writeByte(out, group[b])
				out++
			}
		}
	}
	r.write.Store(out)
	return groupsPerChannel * 4 * channels
}

// Pop copies up to n bytes out of the ring into dest (which must have
// length >= n) and returns the number of bytes actually copied.
func (r *RingBuffer) Pop(dest []byte, n int) int {
	avail := r.Available()
	if n > avail {
		n = avail
	}
	if n > len(dest) {
		n = len(dest)
	}
	rd := r.read.Load()
	for i := 0; i < n; i++ {
		dest[i] = r.buf[r.idx(rd+uint64(i))]
	}
	r.read.Store(rd + uint64(n))
	return n
}
