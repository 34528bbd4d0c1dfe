package mp3frame

import (
	"fmt"

	"github.com/mycophonic/ealayer3/bitio"
	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

// Assembler builds standards-compliant MPEG Layer III frame bytes from
// parsed granules, maintaining the bit reservoir and padding accumulator
// across frames.
//
// backlog holds granule main-data bytes that have been generated but not
// yet physically written into a frame body; it is drained oldest-first,
// at most bodyCapacity bytes per frame, with any remainder carried to the
// next call. main_data_begin for a frame is exactly the backlog length
// measured before that frame's own fresh bytes are appended to it, which
// by induction is always within the reservoir's 511-byte bound.
type Assembler struct {
	backlog  []byte
	padAccum int
}

// NewAssembler constructs an Assembler with an empty reservoir.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// ReservoirUsed returns the number of undrained backlog bytes.
func (a *Assembler) ReservoirUsed() int {
	return len(a.backlog)
}

// AssembleFrame produces the bytes of one standards-compliant MPEG Layer
// III frame from fr.
func (a *Assembler) AssembleFrame(fr ealayer3.Frame) ([]byte, error) {
	g := fr.Granules[0]
	if !g.Used {
		g = fr.Granules[1]
	}

	if !g.Used {
		return nil, fmt.Errorf("mp3frame: frame has no used granule")
	}

	channels := g.Channels()
	sideInfoSize := mpegaudio.SideInfoSize(g.Version, channels)

	fresh, err := combinedMainDataBytes(fr)
	if err != nil {
		return nil, err
	}

	backlogBefore := len(a.backlog)
	a.backlog = append(a.backlog, fresh...)

	maxReservoir := (1 << mpegaudio.MainDataBeginBits(g.Version)) - 1

	need := len(a.backlog) - maxReservoir
	if need < 0 {
		need = 0
	}

	bitrateIdx := 0

	for idx := 1; idx <= 14; idx++ {
		bitrate := mpegaudio.Bitrate(g.Version, idx)
		if bitrate == 0 {
			continue
		}

		bodyCapacity := mpegaudio.FrameSize(g.Version, bitrate, g.SampleRate, false) - 4 - sideInfoSize
		if bodyCapacity >= need {
			bitrateIdx = idx
			break
		}
	}

	if bitrateIdx == 0 {
		return nil, fmt.Errorf("%w: need %d bytes of body capacity", ErrNoSuitableBitrate, need)
	}

	frameSize, padding := a.nextFrameSize(g.Version, mpegaudio.Bitrate(g.Version, bitrateIdx), g.SampleRate)
	if frameSize > mpegaudio.MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	bodyCapacity := frameSize - 4 - sideInfoSize
	if bodyCapacity < need {
		return nil, fmt.Errorf("%w: chosen frame body %d bytes short of %d", ErrGranuleTooLarge, bodyCapacity, need)
	}

	toWrite := minInt(len(a.backlog), bodyCapacity)
	body := a.backlog[:toWrite]
	a.backlog = a.backlog[toWrite:]

	hdr := mpegHeader{
		Version:       g.Version,
		CRCAbsent:     true,
		BitrateIndex:  bitrateIdx,
		SampleRateIdx: g.SampleRateIdx,
		Padding:       padding,
		ChannelMode:   g.ChannelMode,
		ModeExtension: g.ModeExtension,
		Emphasis:      0,
	}

	out := make([]byte, 0, frameSize)

	headerBytes := encodeMpegHeader(hdr)
	out = append(out, headerBytes[:]...)

	sideInfo := encodeSideInfo(fr, g.Version, channels, backlogBefore)
	out = append(out, sideInfo...)

	out = append(out, body...)

	for len(out) < frameSize {
		out = append(out, 0)
	}

	return out, nil
}

// combinedMainDataBytes repacks granule0's and granule1's main-data bits
// back-to-back without the per-granule byte alignment EALayer3 sub-frames
// carry, matching standard MP3's contiguous granule0||granule1 main-data
// layout.
func combinedMainDataBytes(fr ealayer3.Frame) ([]byte, error) {
	totalBits := 0
	for _, g := range fr.Granules {
		if g.Used {
			totalBits += g.DataSizeBits
		}
	}

	w := bitio.NewWriter((totalBits + 7) / 8)

	for _, g := range fr.Granules {
		if !g.Used || g.DataSizeBits == 0 {
			continue
		}

		r := bitio.NewReader(g.Data)

		remaining := g.DataSizeBits
		for remaining > 0 {
			n := minInt(32, remaining)
			w.WriteBits(r.ReadBits(uint(n)), uint(n))
			remaining -= n
		}
	}

	w.WriteToNextByte()

	return w.BytesWritten(), nil
}

// encodeSideInfo writes main_data_begin, private bits, MPEG-1's shared
// per-channel scfsi, then per granule per channel size/side_info.
func encodeSideInfo(fr ealayer3.Frame, version mpegaudio.Version, channels, mainDataBegin int) []byte {
	sideInfoSize := mpegaudio.SideInfoSize(version, channels)
	w := bitio.NewWriter(sideInfoSize)

	w.WriteBits(uint32(mainDataBegin), mpegaudio.MainDataBeginBits(version))
	w.WriteBits(0, mpegaudio.PrivateBits(version, channels))

	if version == mpegaudio.Version1 {
		g1 := fr.Granules[1]
		for ch := 0; ch < channels; ch++ {
			var scfsi uint8
			if ch < len(g1.ChannelInfo) {
				scfsi = g1.ChannelInfo[ch].Scfsi
			}

			w.WriteBits(uint32(scfsi), 4)
		}
	}

	sideInfo1Bits := uint(15)
	if version != mpegaudio.Version1 {
		sideInfo1Bits = 19
	}

	granuleCount := 1
	if version == mpegaudio.Version1 {
		granuleCount = 2
	}

	for gi := 0; gi < granuleCount; gi++ {
		g := fr.Granules[gi]

		for ch := 0; ch < channels; ch++ {
			var ci ealayer3.ChannelInfo
			if ch < len(g.ChannelInfo) {
				ci = g.ChannelInfo[ch]
			}

			w.WriteBits(uint32(ci.Size), 12)
			w.WriteBits(ci.SideInfo[0], 32)
			w.WriteBits(ci.SideInfo[1], sideInfo1Bits)
		}
	}

	return w.Bytes()
}

// nextFrameSize computes this frame's size and padding bit, advancing the
// running padding accumulator so that, averaged over many frames, the
// emitted byte rate matches bitrate/sampleRate exactly.
func (a *Assembler) nextFrameSize(v mpegaudio.Version, bitrateBps, sampleRate int) (int, bool) {
	coefficient := 72
	if v == mpegaudio.Version1 {
		coefficient = 144
	}

	numerator := coefficient * bitrateBps
	base := numerator / sampleRate
	remainder := numerator % sampleRate

	a.padAccum += remainder

	padding := false
	if a.padAccum >= sampleRate {
		a.padAccum -= sampleRate
		padding = true
	}

	size := base
	if padding {
		size++
	}

	return size, padding
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
