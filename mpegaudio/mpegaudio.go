// Package mpegaudio holds shared MPEG-1/2/2.5 Layer III constants: sample
// rate and bitrate tables, side-info sizing, and the frame-size formula.
// Both the forward (EALayer3 -> MP3) and reverse (MP3 -> EALayer3) paths
// build on the same tables so the two directions stay mechanically
// consistent.
package mpegaudio

// Version is the raw 2-bit MPEG version field, kept at its on-the-wire
// value rather than remapped, since every table below is indexed by it
// directly.
type Version uint8

const (
	Version2_5      Version = 0
	VersionReserved Version = 1
	Version2        Version = 2
	Version1        Version = 3
)

// ChannelMode is the raw 2-bit channel mode field.
type ChannelMode uint8

const (
	ChannelStereo      ChannelMode = 0
	ChannelJointStereo ChannelMode = 1
	ChannelDual        ChannelMode = 2
	ChannelMono        ChannelMode = 3
)

// Channels returns 1 for Mono, 2 otherwise.
func (m ChannelMode) Channels() int {
	if m == ChannelMono {
		return 1
	}

	return 2
}

// SampleRateTable mirrors the MPEG fixed table: row = Version, column =
// sample_rate_index. The reserved version row and the reserved index-3
// column are zero.
var SampleRateTable = [4][4]int{
	{11025, 12000, 8000, 0}, // MPEG 2.5
	{0, 0, 0, 0},            // reserved
	{22050, 24000, 16000, 0}, // MPEG 2
	{44100, 48000, 32000, 0}, // MPEG 1
}

// SampleRate looks up the sample rate in Hz for a version and index.
func SampleRate(v Version, idx int) int {
	return SampleRateTable[v][idx]
}

// bitrateLayer3MPEG1 is the Layer III bitrate table (kbps*1000) for MPEG-1.
var bitrateLayer3MPEG1 = [16]int{
	0, 32000, 40000, 48000, 56000, 64000, 80000, 96000,
	112000, 128000, 160000, 192000, 224000, 256000, 320000, 0,
}

// bitrateLayer3MPEG2 is the Layer III bitrate table shared by MPEG-2 and
// MPEG-2.5.
var bitrateLayer3MPEG2 = [16]int{
	0, 8000, 16000, 24000, 32000, 40000, 48000, 56000,
	64000, 80000, 96000, 112000, 128000, 144000, 160000, 0,
}

// Bitrate returns the Layer III bitrate in bits/second for a version and
// bitrate index. Index 0 ("free format") and index 15 (reserved) both
// return 0.
func Bitrate(v Version, index int) int {
	if v == Version1 {
		return bitrateLayer3MPEG1[index]
	}

	return bitrateLayer3MPEG2[index]
}

// FrameSize computes the total MPEG Layer III frame size in bytes,
// including the 4-byte header, given the already-resolved bitrate and
// sample rate.
func FrameSize(v Version, bitrateBps, sampleRate int, padding bool) int {
	coefficient := 72
	if v == Version1 {
		coefficient = 144
	}

	size := coefficient * bitrateBps / sampleRate

	if padding {
		size++
	}

	return size
}

// SideInfoSize returns the side-info block size in bytes for a version and
// channel count.
func SideInfoSize(v Version, channels int) int {
	if v == Version1 {
		if channels == 1 {
			return 17
		}

		return 32
	}

	if channels == 1 {
		return 9
	}

	return 17
}

// MainDataBeginBits returns the bit width of the main_data_begin field.
func MainDataBeginBits(v Version) uint {
	if v == Version1 {
		return 9
	}

	return 8
}

// PrivateBits returns the bit width of the side-info private-bits field.
func PrivateBits(v Version, channels int) uint {
	if v == Version1 {
		if channels == 1 {
			return 5
		}

		return 3
	}

	if channels == 1 {
		return 1
	}

	return 2
}

// SamplesPerFrame returns the PCM sample count carried by one frame: 1152
// for MPEG-1, 576 for MPEG-2/2.5.
func SamplesPerFrame(v Version) int {
	if v == Version1 {
		return 1152
	}

	return 576
}

// MaxFrameSize is the hard upper bound on a single MPEG Layer III frame,
// matching the source tool's fixed frame scratch buffer. Any input frame
// exceeding it is malformed.
const MaxFrameSize = 2880

// MaxStreams is the CLI output-file cap for "-s all".
const MaxStreams = 32
