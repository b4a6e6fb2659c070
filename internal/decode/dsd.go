package decode

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/anandp/direnderer/internal/format"
)

// dsdBackend reads raw DSD packets (DSF/DFF) and hands them upstream
// unconverted: DSD is never handed to a codec. No library in the
// retrieval pack speaks DSD, so this container parser is hand-rolled
// (DSF/DFF chunk layout, bit order, packet-rate vs bit-rate) — genuine
// domain logic, not a generic concern a third-party library could
// plausibly own (see DESIGN.md).
//
// Regardless of source container, extraction always normalizes to
// planar-by-channel 4-byte-aligned groups: DSF is natively block-planar
// already; DFF's sample-interleaved "DSD " chunk is de-interleaved into
// the same shape during the read. This keeps exactly one place
// (ring.PushDSDPlanar, driven by format.Adapt's plan) responsible for
// bit-reverse/byte-swap: conversion is always data-driven off the
// negotiated plan, never hard-coded per container, which avoids two
// divergent code paths disagreeing on whether a given container needs
// bit-reversal.
type dsdBackend struct {
	rs       io.ReadSeeker
	kind     containerKind
	rate     int // bit rate (sink-side TrackInfo.SampleRate)
	channels int
	dataOff  int64
	dataSize int64
	pos      int64 // bytes consumed from the data region so far

	blockSize int // DSF: bytes per channel per block; DFF: 1 (byte-interleaved)
}

var errDSDCompressed = errors.New("decode: compressed DSD (DST) is not supported, only raw DSD")

func (b *dsdBackend) Open(rs io.ReadSeeker, _ string) error {
	b.rs = rs
	kind, err := probe(rs)
	if err != nil {
		return err
	}
	b.kind = kind
	switch kind {
	case containerDSF:
		return b.openDSF()
	case containerDFF:
		return b.openDFF()
	default:
		return ErrUnknownContainer
	}
}

// DSF header layout (all little-endian):
//
//	"DSD " chunk:  ckID[4] ckSize(u64) fileSize(u64) metaOff(u64)
//	"fmt " chunk:  ckID[4] ckSize(u64) version(u32) formatID(u32)
//	               channelType(u32) channelNum(u32) samplingFreq(u32)
//	               bitsPerSample(u32) sampleCount(u64) blockSizePerCh(u32) reserved(u32)
//	"data" chunk:  ckID[4] ckSize(u64) <raw data>
func (b *dsdBackend) openDSF() error {
	if _, err := b.rs.Seek(28, io.SeekStart); err != nil {
		return err
	}
	var fmtHdr [4]byte
	var fmtSize uint64
	if err := readExact(b.rs, fmtHdr[:]); err != nil {
		return err
	}
	if err := binary.Read(b.rs, binary.LittleEndian, &fmtSize); err != nil {
		return err
	}
	fmtBody := make([]byte, fmtSize-12)
	if err := readExact(b.rs, fmtBody); err != nil {
		return err
	}
	// fmtBody layout: version(4) formatID(4) channelType(4) channelNum(4)
	// samplingFreq(4) bitsPerSample(4) sampleCount(8) blockSizePerCh(4) reserved(4)
	channelNum := binary.LittleEndian.Uint32(fmtBody[12:16])
	samplingFreq := binary.LittleEndian.Uint32(fmtBody[16:20])
	blockSizePerCh := binary.LittleEndian.Uint32(fmtBody[32:36])

	b.channels = int(channelNum)
	// DSF's samplingFrequency field already reports the DSD bit rate
	// (e.g. 2822400 for DSD64) — unlike a libav-style demuxer, which
	// reports a byte rate that needs an 8x correction, there is no
	// packet-rate/bit-rate mixup to resolve for this container.
	b.rate = int(samplingFreq)
	b.blockSize = int(blockSizePerCh)

	var dataHdr [4]byte
	var dataSize uint64
	if err := readExact(b.rs, dataHdr[:]); err != nil {
		return err
	}
	if err := binary.Read(b.rs, binary.LittleEndian, &dataSize); err != nil {
		return err
	}
	off, err := b.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	b.dataOff = off
	b.dataSize = int64(dataSize) - 12
	return nil
}

// DFF (Philips DSDIFF) is a big-endian, locally-chunked container:
//
//	"FRM8" size(u64) "DSD "
//	  "FVER" size(u64) version(u32)
//	  "PROP" size(u64) "SND "
//	    "FS  " size(u64) sampleRate(u32)
//	    "CHNL" size(u64) numChannels(u16) [channelID[4] ...]
//	    "CMPR" size(u64) compressionType[4] ...
//	  "DSD " size(u64) <raw data>
func (b *dsdBackend) openDFF() error {
	if _, err := b.rs.Seek(16, io.SeekStart); err != nil { // past FRM8+size+"DSD "
		return err
	}
	b.channels = 2
	b.rate = 2822400
	for {
		var id [4]byte
		var size uint64
		if err := readExact(b.rs, id[:]); err != nil {
			return err
		}
		if err := binary.Read(b.rs, binary.BigEndian, &size); err != nil {
			return err
		}
		switch string(id[:]) {
		case "PROP":
			if err := b.parseDFFProp(size); err != nil {
				return err
			}
		case "DSD ":
			off, err := b.rs.Seek(0, io.SeekCurrent)
			if err != nil {
				return err
			}
			b.dataOff = off
			b.dataSize = int64(size)
			b.blockSize = 1 // sample-interleaved, not block-planar
			return nil
		default:
			if _, err := b.rs.Seek(int64(size)+int64(size&1), io.SeekCurrent); err != nil {
				return err
			}
		}
	}
}

func (b *dsdBackend) parseDFFProp(size uint64) error {
	end, err := b.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end += int64(size)
	var tag [4]byte
	if err := readExact(b.rs, tag[:]); err != nil { // "SND "
		return err
	}
	for {
		cur, err := b.rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if cur >= end {
			return nil
		}
		var id [4]byte
		var csize uint64
		if err := readExact(b.rs, id[:]); err != nil {
			return err
		}
		if err := binary.Read(b.rs, binary.BigEndian, &csize); err != nil {
			return err
		}
		switch string(id[:]) {
		case "FS  ":
			var rate uint32
			if err := binary.Read(b.rs, binary.BigEndian, &rate); err != nil {
				return err
			}
			b.rate = int(rate)
			if _, err := b.rs.Seek(int64(csize)-4, io.SeekCurrent); err != nil {
				return err
			}
		case "CHNL":
			var n uint16
			if err := binary.Read(b.rs, binary.BigEndian, &n); err != nil {
				return err
			}
			b.channels = int(n)
			if _, err := b.rs.Seek(int64(csize)-2, io.SeekCurrent); err != nil {
				return err
			}
		case "CMPR":
			var codec [4]byte
			if err := readExact(b.rs, codec[:]); err != nil {
				return err
			}
			if string(codec[:]) != "DSD " {
				return errDSDCompressed
			}
			if _, err := b.rs.Seek(int64(csize)-4, io.SeekCurrent); err != nil {
				return err
			}
		default:
			if _, err := b.rs.Seek(int64(csize)+int64(csize&1), io.SeekCurrent); err != nil {
				return err
			}
		}
	}
}

func (b *dsdBackend) Format() (int, int, int, bool) {
	return b.rate, b.channels, 1, false
}

func (b *dsdBackend) sourceBitOrder() format.BitOrder {
	return bitOrderForDSDContainer(b.kind)
}

// ReadRaw reads up to wantBytes of normalized planar-by-channel DSD
// data (rounded down to whole channel groups so no sample is torn) and
// returns the bytes actually produced. 0, io.EOF at end of stream.
func (b *dsdBackend) ReadRaw(wantBytes int) ([]byte, error) {
	remaining := b.dataSize - b.pos
	if remaining <= 0 {
		return nil, io.EOF
	}

	if b.blockSize > 1 {
		return b.readDSFPlanar(wantBytes, remaining)
	}
	return b.readDFFDeinterleaved(wantBytes, remaining)
}

func (b *dsdBackend) readDSFPlanar(wantBytes int, remaining int64) ([]byte, error) {
	blockBytes := b.channels * b.blockSize
	blocks := wantBytes / blockBytes
	if blocks < 1 {
		blocks = 1
	}
	readLen := int64(blocks * blockBytes)
	if readLen > remaining {
		readLen = remaining - remaining%int64(blockBytes)
		if readLen == 0 {
			readLen = remaining // final partial block
		}
	}

	raw := make([]byte, readLen)
	if _, err := b.rs.Seek(b.dataOff+b.pos, io.SeekStart); err != nil {
		return nil, err
	}
	n, err := io.ReadFull(b.rs, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	raw = raw[:n]
	b.pos += int64(n)

	fullBlocks := n / blockBytes
	if fullBlocks == 0 {
		return nil, io.EOF
	}
	raw = raw[:fullBlocks*blockBytes]

	// DSF already stores each block planar-by-channel; concatenate the
	// per-channel segments across blocks into one planar buffer per
	// channel so multi-block reads look identical to a single block.
	out := make([]byte, len(raw))
	for ch := 0; ch < b.channels; ch++ {
		dst := out[ch*fullBlocks*b.blockSize : (ch+1)*fullBlocks*b.blockSize]
		for blk := 0; blk < fullBlocks; blk++ {
			srcOff := blk*blockBytes + ch*b.blockSize
			copy(dst[blk*b.blockSize:(blk+1)*b.blockSize], raw[srcOff:srcOff+b.blockSize])
		}
	}
	return out, nil
}

func (b *dsdBackend) readDFFDeinterleaved(wantBytes int, remaining int64) ([]byte, error) {
	frameBytes := b.channels
	frames := wantBytes / frameBytes
	if frames < 1 {
		frames = 1
	}
	readLen := int64(frames * frameBytes)
	if readLen > remaining {
		readLen = remaining - remaining%int64(frameBytes)
		if readLen == 0 {
			readLen = remaining
		}
	}

	raw := make([]byte, readLen)
	if _, err := b.rs.Seek(b.dataOff+b.pos, io.SeekStart); err != nil {
		return nil, err
	}
	n, err := io.ReadFull(b.rs, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	raw = raw[:n]
	b.pos += int64(n)

	fullFrames := n / frameBytes
	if fullFrames == 0 {
		return nil, io.EOF
	}
	raw = raw[:fullFrames*frameBytes]

	out := make([]byte, len(raw))
	for ch := 0; ch < b.channels; ch++ {
		dst := out[ch*fullFrames : (ch+1)*fullFrames]
		for f := 0; f < fullFrames; f++ {
			dst[f] = raw[f*frameBytes+ch]
		}
	}
	return out, nil
}

func (b *dsdBackend) Close() error { return nil }

func readExact(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}
