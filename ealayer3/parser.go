package ealayer3

import (
	"fmt"
	"log/slog"

	"github.com/mycophonic/ealayer3/bitio"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

// Variant selects which per-granule side-info field layout a sub-frame uses.
// Versions 6 and 7 share one layout; version 5 uses a slightly different one
// (mode_extension is unconditional, and scfsi is read per channel rather
// than once per frame).
type Variant int

const (
	variantAuto Variant = iota
	VariantV5
	VariantV6
)

func variantForVersion(version uint32) (Variant, error) {
	switch version {
	case 5:
		return VariantV5, nil
	case 6, 7:
		return VariantV6, nil
	default:
		return variantAuto, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// Parser decodes a sequence of concatenated EALayer3 sub-frames from one or
// more blocks into Frames, maintaining reservoir and stream-count state
// across block boundaries.
//
// The reservoir here belongs to the EALayer3 sub-frame layer, not to the
// reassembled MP3 bitstream: it is a separate instance from the one used by
// package mp3frame, which performs its own reservoir accounting when it
// repacks completed Granules into real MP3 frames. Since main_data_begin is
// carried per granule in this format rather than per frame, and no sub-frame
// field states a frame size to derive leftover reservoir bytes from, the
// reservoir is modeled here as a plain FIFO of byte-aligned granule
// payloads: each granule's fully spliced output is appended to the tail and
// the buffer is trimmed to its most recent 511 bytes. main_data_begin counts
// back from the tail to where a granule's reservoir bits start.
type Parser struct {
	forceVariant Variant
	log          *slog.Logger

	reservoir []byte

	haveStreamCount bool
	streamCount     int
}

// Option configures a Parser at construction.
type Option func(*Parser)

// WithForcedVariant overrides the field-layout variant normally selected by
// each sub-frame's own version nibble. The version nibble is still read and
// validated against {5, 6, 7}; only the side-info layout choice is forced.
func WithForcedVariant(v Variant) Option {
	return func(p *Parser) {
		p.forceVariant = v
	}
}

// WithLogger threads an explicit logger handle into the parser, in place of
// a package-level global verbose flag. A nil logger (the default) disables
// logging.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// New constructs a Parser with empty reservoir and stream-count state.
func New(opts ...Option) *Parser {
	p := &Parser{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}

	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}

	return p
}

// StreamCount returns the declared stream count, or 0 if no sub-frame has
// been parsed yet.
func (p *Parser) StreamCount() int {
	return p.streamCount
}

// ReservoirUsed returns the number of bytes currently held in the reservoir.
func (p *Parser) ReservoirUsed() int {
	return len(p.reservoir)
}

// StreamIndexBits returns the bit width needed to encode a stream index in
// [0, streamCount), per the stream_index field-sizing rule: ceil(log2(N)),
// collapsing to 0 bits when there is only one stream. Exported for reuse by
// package generator, which writes the same field in reverse.
func StreamIndexBits(streamCount int) uint {
	return streamIndexBits(streamCount)
}

func streamIndexBits(streamCount int) uint {
	if streamCount <= 1 {
		return 0
	}

	bits := uint(0)
	for (1 << bits) < streamCount {
		bits++
	}

	return bits
}

// ParseBlock parses every sub-frame packed into payload, invoking onFrame
// for each one in order. Parser state (reservoir, stream count) persists
// across calls, matching a block loader's "preserve continuity across
// blocks" contract.
func (p *Parser) ParseBlock(payload []byte, onFrame func(Frame) error) error {
	r := bitio.NewReader(payload)

	for {
		remainingBytes := (r.Len() - r.Tell()) / 8
		if remainingBytes < 1 {
			return nil
		}

		frame, err := p.parseSubFrame(r)
		if err != nil {
			return err
		}

		if err := onFrame(frame); err != nil {
			return err
		}
	}
}

func (p *Parser) parseSubFrame(r *bitio.Reader) (Frame, error) {
	version := r.ReadBits(4)
	streamCountMarker := r.ReadBits(4)

	if !p.haveStreamCount {
		p.streamCount = int(streamCountMarker) + 1
		p.haveStreamCount = true

		p.log.Debug("declared stream count", "streams", p.streamCount, "sub-frame version", version)
	}

	streamIndex := int(r.ReadBits(streamIndexBits(p.streamCount)))
	if streamIndex >= p.streamCount {
		return Frame{}, fmt.Errorf("%w: %d >= %d", ErrStreamIndexOutOfRange, streamIndex, p.streamCount)
	}

	variant, err := variantForVersion(version)
	if err != nil {
		return Frame{}, err
	}

	if p.forceVariant != variantAuto {
		variant = p.forceVariant
	}

	frame := Frame{StreamIndex: streamIndex}

	for gi := 0; gi < 2; gi++ {
		g, err := p.parseGranule(r, gi, variant)
		if err != nil {
			return Frame{}, err
		}

		frame.Granules[gi] = g
	}

	return frame, nil
}

func (p *Parser) parseGranule(r *bitio.Reader, index int, variant Variant) (Granule, error) {
	used := r.ReadBit()
	if used == 0 {
		return Granule{Index: index, Used: false}, nil
	}

	g := Granule{Index: index, Used: true}

	g.Version = mpegaudio.Version(r.ReadBits(2))
	g.SampleRateIdx = int(r.ReadBits(2))
	g.SampleRate = mpegaudio.SampleRate(g.Version, g.SampleRateIdx)
	g.ChannelMode = mpegaudio.ChannelMode(r.ReadBits(2))

	channels := g.ChannelMode.Channels()

	switch {
	case variant == VariantV5:
		g.ModeExtension = uint8(r.ReadBits(2))
	case g.ChannelMode == mpegaudio.ChannelJointStereo:
		g.ModeExtension = uint8(r.ReadBits(2))
	}

	sideInfo1Bits := uint(15)
	if g.Version != mpegaudio.Version1 {
		sideInfo1Bits = 19
	}

	g.ChannelInfo = make([]ChannelInfo, channels)

	for ch := 0; ch < channels; ch++ {
		g.ChannelInfo[ch].Size = uint16(r.ReadBits(12))
		g.ChannelInfo[ch].SideInfo[0] = r.ReadBits(32)
		g.ChannelInfo[ch].SideInfo[1] = r.ReadBits(sideInfo1Bits)
	}

	if g.Version == mpegaudio.Version1 && index == 1 {
		switch variant {
		case VariantV5:
			for ch := range g.ChannelInfo {
				g.ChannelInfo[ch].Scfsi = uint8(r.ReadBits(4))
			}
		default:
			shared := uint8(r.ReadBits(4))
			for ch := range g.ChannelInfo {
				g.ChannelInfo[ch].Scfsi = shared
			}
		}
	}

	mainDataBegin := int(r.ReadBits(mpegaudio.MainDataBeginBits(g.Version)))

	dataSizeBits := 0
	for _, ci := range g.ChannelInfo {
		dataSizeBits += int(ci.Size)
	}

	g.DataSizeBits = dataSizeBits
	g.DataSize = (dataSizeBits + 7) / 8

	if dataSizeBits > 0 {
		data, err := p.spliceMainData(r, dataSizeBits, mainDataBegin)
		if err != nil {
			return Granule{}, err
		}

		g.Data = data

		r.SeekToNextByte()
	}

	return g, nil
}

// spliceMainData assembles one granule's main-data bits: the last
// mainDataBegin bytes of the reservoir first (read oldest first), then
// whatever remains read fresh from r. The whole spliced output is then
// pushed onto the reservoir, which is trimmed to its most recent 511 bytes.
func (p *Parser) spliceMainData(r *bitio.Reader, dataSizeBits, mainDataBegin int) ([]byte, error) {
	if mainDataBegin > len(p.reservoir) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrReservoirUnderflow, mainDataBegin, len(p.reservoir))
	}

	out := bitio.NewWriter((dataSizeBits + 7) / 8)

	resReader := bitio.NewReader(p.reservoir[len(p.reservoir)-mainDataBegin:])
	resBitsLeft := mainDataBegin * 8
	remaining := dataSizeBits

	for remaining > 0 {
		if resBitsLeft > 0 {
			n := minInt(32, minInt(resBitsLeft, remaining))
			out.WriteBits(resReader.ReadBits(uint(n)), uint(n))
			resBitsLeft -= n
			remaining -= n

			continue
		}

		if r.PastEnd() {
			return nil, ErrMainDataOverrun
		}

		n := minInt(32, remaining)
		out.WriteBits(r.ReadBits(uint(n)), uint(n))
		remaining -= n
	}

	out.WriteToNextByte()

	data := out.BytesWritten()

	p.reservoir = append(p.reservoir, data...)
	if len(p.reservoir) > 511 {
		p.reservoir = p.reservoir[len(p.reservoir)-511:]
	}

	return data, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
