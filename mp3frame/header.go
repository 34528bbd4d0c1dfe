package mp3frame

import (
	"github.com/mycophonic/ealayer3/bitio"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

// mpegHeader is the decoded 4-byte MPEG Layer III frame header.
type mpegHeader struct {
	Version       mpegaudio.Version
	CRCAbsent     bool
	BitrateIndex  int
	SampleRateIdx int
	Padding       bool
	Private       bool
	ChannelMode   mpegaudio.ChannelMode
	ModeExtension uint8
	Copyright     bool
	Original      bool
	Emphasis      uint8
}

func (h mpegHeader) sampleRate() int {
	return mpegaudio.SampleRate(h.Version, h.SampleRateIdx)
}

func (h mpegHeader) bitrate() int {
	return mpegaudio.Bitrate(h.Version, h.BitrateIndex)
}

func (h mpegHeader) channels() int {
	return h.ChannelMode.Channels()
}

func (h mpegHeader) frameSize() int {
	return mpegaudio.FrameSize(h.Version, h.bitrate(), h.sampleRate(), h.Padding)
}

// decodeMpegHeader parses a raw 4-byte frame header.
func decodeMpegHeader(buf [4]byte) (mpegHeader, error) {
	r := bitio.NewReader(buf[:])

	sync := r.ReadBits(11)
	if sync != 0x7FF {
		return mpegHeader{}, ErrMpegSyncLost
	}

	var h mpegHeader

	h.Version = mpegaudio.Version(r.ReadBits(2))

	layer := r.ReadBits(2)
	if layer != 0b01 {
		return mpegHeader{}, ErrNotLayerIII
	}

	h.CRCAbsent = r.ReadBit() != 0
	h.BitrateIndex = int(r.ReadBits(4))
	h.SampleRateIdx = int(r.ReadBits(2))
	h.Padding = r.ReadBit() != 0
	h.Private = r.ReadBit() != 0
	h.ChannelMode = mpegaudio.ChannelMode(r.ReadBits(2))
	h.ModeExtension = uint8(r.ReadBits(2))
	h.Copyright = r.ReadBit() != 0
	h.Original = r.ReadBit() != 0
	h.Emphasis = uint8(r.ReadBits(2))

	return h, nil
}

// encodeMpegHeader writes the 4-byte frame header.
func encodeMpegHeader(h mpegHeader) [4]byte {
	w := bitio.NewWriter(4)

	w.WriteBits(0x7FF, 11)
	w.WriteBits(uint32(h.Version), 2)
	w.WriteBits(0b01, 2)
	w.WriteBit(boolBit(h.CRCAbsent))
	w.WriteBits(uint32(h.BitrateIndex), 4)
	w.WriteBits(uint32(h.SampleRateIdx), 2)
	w.WriteBit(boolBit(h.Padding))
	w.WriteBit(boolBit(h.Private))
	w.WriteBits(uint32(h.ChannelMode), 2)
	w.WriteBits(uint32(h.ModeExtension), 2)
	w.WriteBit(boolBit(h.Copyright))
	w.WriteBit(boolBit(h.Original))
	w.WriteBits(uint32(h.Emphasis), 2)

	var out [4]byte
	copy(out[:], w.Bytes())

	return out
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}

	return 0
}
