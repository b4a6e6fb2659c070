package format

import "testing"

func TestAdaptPCM_PrefersHighestAcceptedDepth(t *testing.T) {
	info := TrackInfo{SampleRate: 44100, BitDepth: 32, Channels: 2}
	caps := SinkCapabilities{PCMBitDepths: []int{16, 24, 32}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if plan.Format.BitDepth != 32 || plan.Kind != ConvertNone {
		t.Fatalf("plan = %+v, want 32-bit/ConvertNone", plan)
	}
}

func TestAdaptPCM_32DecoderInto24Sink(t *testing.T) {
	info := TrackInfo{SampleRate: 96000, BitDepth: 32, Channels: 2}
	caps := SinkCapabilities{PCMBitDepths: []int{24}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if plan.Kind != ConvertPack24 {
		t.Fatalf("Kind = %v, want ConvertPack24", plan.Kind)
	}
}

func TestAdaptPCM_16DecoderInto32Sink(t *testing.T) {
	info := TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	caps := SinkCapabilities{PCMBitDepths: []int{32}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if plan.Kind != ConvertUpsample16to32 {
		t.Fatalf("Kind = %v, want ConvertUpsample16to32", plan.Kind)
	}
}

func TestAdaptPCM_24BitSourceWordWidth(t *testing.T) {
	// 24-bit audio travels as a 4-byte left-justified S32 word; a
	// 24-bit-capable sink still needs Pack24, and a 32-bit-only sink
	// can take the word unconverted.
	info := TrackInfo{SampleRate: 192000, BitDepth: 24, Channels: 2}

	plan, err := Adapt(info, SinkCapabilities{PCMBitDepths: []int{24}})
	if err != nil || plan.Kind != ConvertPack24 {
		t.Fatalf("24-bit source into 24-bit sink: plan=%+v err=%v, want ConvertPack24", plan, err)
	}

	plan, err = Adapt(info, SinkCapabilities{PCMBitDepths: []int{32}})
	if err != nil || plan.Kind != ConvertNone {
		t.Fatalf("24-bit source into 32-bit sink: plan=%+v err=%v, want ConvertNone", plan, err)
	}
}

func TestAdaptPCM_NoCompatibleDepth(t *testing.T) {
	info := TrackInfo{SampleRate: 44100, BitDepth: 16, Channels: 2}
	caps := SinkCapabilities{PCMBitDepths: []int{24}}
	_, err := Adapt(info, caps)
	if err != ErrUnsupportedFormat {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAdaptDSD_BitReverseWhenOrdersDiffer(t *testing.T) {
	info := TrackInfo{SampleRate: 2822400, Channels: 2, IsDSD: true, DSDMultiplier: 64, DSDSourceBitOrder: BitOrderMSBFirst}
	caps := SinkCapabilities{DSDLayouts: []DSDLayout{{BitOrder: BitOrderLSBFirst, Endianness: EndianBig}}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if !plan.BitReverse {
		t.Fatal("BitReverse = false, want true (MSB source into LSB sink)")
	}
	if plan.ByteSwap {
		t.Fatal("ByteSwap = true, want false (big-endian sink)")
	}
}

func TestAdaptDSD_NoBitReverseWhenOrdersMatch(t *testing.T) {
	info := TrackInfo{SampleRate: 2822400, Channels: 2, IsDSD: true, DSDSourceBitOrder: BitOrderLSBFirst}
	caps := SinkCapabilities{DSDLayouts: []DSDLayout{{BitOrder: BitOrderLSBFirst, Endianness: EndianLittle}}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if plan.BitReverse {
		t.Fatal("BitReverse = true, want false")
	}
	if !plan.ByteSwap {
		t.Fatal("ByteSwap = false, want true (little-endian sink)")
	}
}

func TestAdaptDSD_TryOrder(t *testing.T) {
	info := TrackInfo{SampleRate: 2822400, Channels: 2, IsDSD: true, DSDSourceBitOrder: BitOrderLSBFirst}
	caps := SinkCapabilities{DSDLayouts: []DSDLayout{
		{BitOrder: BitOrderMSBFirst, Endianness: EndianBig},
		{BitOrder: BitOrderLSBFirst, Endianness: EndianBig},
	}}
	plan, err := Adapt(info, caps)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if plan.Format.DSDBitOrder != BitOrderLSBFirst {
		t.Fatalf("chose %v, want the first matching entry in dsdTryOrder", plan.Format.DSDBitOrder)
	}
}

func TestAudioFormatEqual(t *testing.T) {
	a := AudioFormat{SampleRate: 44100, BitDepth: 16, Channels: 2}
	b := a
	if !a.Equal(b) {
		t.Fatal("identical formats should be Equal")
	}
	b.IsDSD = true
	b.DSDBitOrder = BitOrderLSBFirst
	if a.Equal(b) {
		t.Fatal("PCM vs DSD formats should not be Equal")
	}

	c := AudioFormat{IsDSD: true, SampleRate: 2822400, BitDepth: 1, Channels: 2, DSDBitOrder: BitOrderLSBFirst}
	d := c
	d.DSDBitOrder = BitOrderMSBFirst
	if c.Equal(d) {
		t.Fatal("differing DSD bit order should not be Equal")
	}
}
