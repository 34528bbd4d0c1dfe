// Package ealayer3 decodes a block's EALayer3 payload into a sequence of
// MPEG Layer III granules, in the v5 and v6/v7 sub-frame layouts.
package ealayer3

import "github.com/mycophonic/ealayer3/mpegaudio"

// ChannelInfo is a single channel's per-granule side-info.
type ChannelInfo struct {
	Scfsi uint8 // 4-bit scale-factor selection; meaningful only for granule 1 under MPEG-1
	Size  uint16 // bit length of this channel's main-data contribution (0..4095)

	// SideInfo holds the opaque 32+(15|19) bits of per-channel side
	// information, preserved verbatim for round-trip.
	SideInfo [2]uint32
}

// Granule is half of an MPEG-1 frame (576 samples), or the sole used
// granule of an MPEG-2/2.5 frame.
type Granule struct {
	Version       mpegaudio.Version
	SampleRateIdx int
	SampleRate    int
	ChannelMode   mpegaudio.ChannelMode
	ModeExtension uint8
	Index         int // 0 or 1, position within the frame

	ChannelInfo []ChannelInfo // len == Channels(ChannelMode)

	Data         []byte // byte-aligned main-data, padded with undefined trailing bits
	DataSizeBits int
	DataSize     int  // ceil(DataSizeBits / 8)
	Used         bool // false for a placeholder granule
}

// Channels returns the channel count for this granule.
func (g Granule) Channels() int {
	return g.ChannelMode.Channels()
}

// Frame is one MPEG-1/2/2.5 Layer III audio frame, parsed from an EALayer3
// sub-frame.
type Frame struct {
	Granules    [2]Granule
	StreamIndex int
}
