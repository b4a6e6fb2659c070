package format

import "errors"

// ErrUnsupportedFormat is returned by Adapt when no sink-declared
// capability is compatible with the track's native format.
var ErrUnsupportedFormat = errors.New("format: no sink capability matches track format")

// ConversionKind names which RingBuffer push variant a Plan requires.
type ConversionKind int

const (
	ConvertNone ConversionKind = iota
	ConvertPack24
	ConvertUpsample16to32
	ConvertDSDPlanar
)

// Plan is the result of FormatAdapter: the negotiated sink format and
// which conversion the producer must apply on every push.
type Plan struct {
	Format     AudioFormat
	Kind       ConversionKind
	BitReverse bool // DSD only: source bit order != sink bit order
	ByteSwap   bool // DSD only: sink endianness is little
}

// pcmTryOrder is the bit-depth preference order: try 32-bit, then
// 24-bit, then 16-bit.
var pcmTryOrder = []int{32, 24, 16}

// dsdTryOrder is the (bit-order, endianness) preference order:
// (LSB,BIG), (MSB,BIG), (LSB,LITTLE), (MSB,LITTLE).
var dsdTryOrder = []DSDLayout{
	{BitOrder: BitOrderLSBFirst, Endianness: EndianBig},
	{BitOrder: BitOrderMSBFirst, Endianness: EndianBig},
	{BitOrder: BitOrderLSBFirst, Endianness: EndianLittle},
	{BitOrder: BitOrderMSBFirst, Endianness: EndianLittle},
}

// Adapt decides a sink AudioFormat and conversion plan for a track,
// given what the sink declares it can accept.
func Adapt(info TrackInfo, caps SinkCapabilities) (Plan, error) {
	if info.IsDSD {
		return adaptDSD(info, caps)
	}
	return adaptPCM(info, caps)
}

// wordDepth is the actual wire word width a Decoder emits for a given
// TrackInfo.BitDepth: 16-bit samples are carried in 2-byte words; 24-
// and 32-bit samples both travel as 4-byte left-justified S32 words
// (the same convention libavcodec uses for AV_SAMPLE_FMT_S32-backed
// 24-bit audio), so push_pack_24's ">>8/>>16/>>24" extraction is
// correct regardless of whether the source was true 32-bit or 24-bit-
// in-32-bit-container.
func wordDepth(bitDepth int) int {
	if bitDepth <= 16 {
		return 16
	}
	return 32
}

func adaptPCM(info TrackInfo, caps SinkCapabilities) (Plan, error) {
	produced := wordDepth(info.BitDepth)
	for _, depth := range pcmTryOrder {
		if !caps.supportsPCM(depth) {
			continue
		}
		plan := Plan{Format: AudioFormat{
			SampleRate: info.SampleRate,
			BitDepth:   depth,
			Channels:   info.Channels,
		}}
		switch {
		case produced == 32 && depth == 24:
			plan.Kind = ConvertPack24
		case produced == 16 && depth == 32:
			plan.Kind = ConvertUpsample16to32
		case produced == 32 && depth == 32:
			plan.Kind = ConvertNone
		case produced == 16 && depth == 16:
			plan.Kind = ConvertNone
		default:
			// Decoder format and sink-accepted depth disagree in a way
			// with no defined conversion (e.g. a 16-bit decode into a
			// 24-bit-only sink); try the next depth the sink accepts
			// instead of guessing a lossy path.
			continue
		}
		return plan, nil
	}
	return Plan{}, ErrUnsupportedFormat
}

func adaptDSD(info TrackInfo, caps SinkCapabilities) (Plan, error) {
	for _, layout := range dsdTryOrder {
		if !caps.supportsDSD(layout) {
			continue
		}
		return Plan{
			Format: AudioFormat{
				SampleRate:  info.SampleRate,
				BitDepth:    1,
				Channels:    info.Channels,
				IsDSD:       true,
				DSDBitOrder: layout.BitOrder,
			},
			Kind:       ConvertDSDPlanar,
			BitReverse: info.DSDSourceBitOrder != layout.BitOrder,
			ByteSwap:   layout.Endianness == EndianLittle,
		}, nil
	}
	return Plan{}, ErrUnsupportedFormat
}
