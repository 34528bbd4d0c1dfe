package mp3frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/mycophonic/ealayer3/bitio"
	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

// Parser reads standards-compliant MPEG Layer III frames one at a time
// from a byte stream, reconstructing the shared Frame/Granule/ChannelInfo
// representation and maintaining its own reservoir across calls.
type Parser struct {
	r         *bufio.Reader
	reservoir []byte
}

// NewParser wraps r for sequential frame-at-a-time reading.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: bufio.NewReaderSize(r, 8192)}
}

// ReservoirUsed returns the number of bytes currently held in the
// reservoir.
func (p *Parser) ReservoirUsed() int {
	return len(p.reservoir)
}

// NextFrame reads and returns the next non-empty frame, skipping any ID3v2
// tag and any empty frames (all channel sizes zero) in between, per
// next_non_empty_frame. It returns io.EOF once the stream is exhausted.
func (p *Parser) NextFrame() (ealayer3.Frame, error) {
	for {
		fr, err := p.nextFrameRaw()
		if err != nil {
			return ealayer3.Frame{}, err
		}

		if frameIsEmpty(fr) {
			continue
		}

		return fr, nil
	}
}

func frameIsEmpty(fr ealayer3.Frame) bool {
	for _, g := range fr.Granules {
		if !g.Used {
			continue
		}

		for _, ci := range g.ChannelInfo {
			if ci.Size != 0 {
				return false
			}
		}
	}

	return true
}

func (p *Parser) nextFrameRaw() (ealayer3.Frame, error) {
	if err := p.skipID3v2(); err != nil {
		return ealayer3.Frame{}, err
	}

	b0, err := p.r.ReadByte()
	if err != nil {
		return ealayer3.Frame{}, err
	}

	if b0 != 0xFF {
		return ealayer3.Frame{}, ErrMpegSyncLost
	}

	var rest [3]byte
	if _, err := io.ReadFull(p.r, rest[:]); err != nil {
		return ealayer3.Frame{}, fmt.Errorf("mp3frame: reading frame header: %w", err)
	}

	hdr, err := decodeMpegHeader([4]byte{b0, rest[0], rest[1], rest[2]})
	if err != nil {
		return ealayer3.Frame{}, err
	}

	frameSize := hdr.frameSize()
	if frameSize > mpegaudio.MaxFrameSize || frameSize < 4 {
		return ealayer3.Frame{}, ErrFrameTooLarge
	}

	if !hdr.CRCAbsent {
		var crc [2]byte
		if _, err := io.ReadFull(p.r, crc[:]); err != nil {
			return ealayer3.Frame{}, fmt.Errorf("mp3frame: reading CRC: %w", err)
		}
	}

	headerSize := 4
	if !hdr.CRCAbsent {
		headerSize += 2
	}

	body := make([]byte, frameSize-headerSize)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return ealayer3.Frame{}, fmt.Errorf("mp3frame: reading frame body: %w", err)
	}

	return p.parseBody(hdr, body)
}

func (p *Parser) skipID3v2() error {
	for {
		peek, err := p.r.Peek(10)
		if err != nil {
			if len(peek) < 3 {
				return nil
			}
		}

		if len(peek) < 3 || string(peek[0:3]) != "ID3" {
			return nil
		}

		size := (uint32(peek[6]&0x7F) << 21) | (uint32(peek[7]&0x7F) << 14) |
			(uint32(peek[8]&0x7F) << 7) | uint32(peek[9]&0x7F)

		if _, err := p.r.Discard(10 + int(size)); err != nil {
			return fmt.Errorf("mp3frame: skipping ID3v2 tag: %w", err)
		}
	}
}

func (p *Parser) parseBody(hdr mpegHeader, body []byte) (ealayer3.Frame, error) {
	channels := hdr.channels()
	sideInfoSize := mpegaudio.SideInfoSize(hdr.Version, channels)

	if len(body) < sideInfoSize {
		return ealayer3.Frame{}, fmt.Errorf("mp3frame: body shorter than side-info: %w", io.ErrUnexpectedEOF)
	}

	r := bitio.NewReader(body)

	mainDataBegin := int(r.ReadBits(mpegaudio.MainDataBeginBits(hdr.Version)))
	r.ReadBits(mpegaudio.PrivateBits(hdr.Version, channels))

	var scfsi [2]uint8

	if hdr.Version == mpegaudio.Version1 {
		for ch := 0; ch < channels; ch++ {
			scfsi[ch] = uint8(r.ReadBits(4))
		}
	}

	sideInfo1Bits := uint(15)
	if hdr.Version != mpegaudio.Version1 {
		sideInfo1Bits = 19
	}

	var fr ealayer3.Frame

	totalBits := 0

	for gi := 0; gi < 2; gi++ {
		used := hdr.Version == mpegaudio.Version1 || gi == 0
		if !used {
			fr.Granules[gi] = ealayer3.Granule{Index: gi, Used: false}
			continue
		}

		g := ealayer3.Granule{
			Index:         gi,
			Used:          true,
			Version:       hdr.Version,
			SampleRateIdx: hdr.SampleRateIdx,
			SampleRate:    hdr.sampleRate(),
			ChannelMode:   hdr.ChannelMode,
			ModeExtension: hdr.ModeExtension,
			ChannelInfo:   make([]ealayer3.ChannelInfo, channels),
		}

		for ch := 0; ch < channels; ch++ {
			g.ChannelInfo[ch].Size = uint16(r.ReadBits(12))
			g.ChannelInfo[ch].SideInfo[0] = r.ReadBits(32)
			g.ChannelInfo[ch].SideInfo[1] = r.ReadBits(sideInfo1Bits)

			if gi == 1 {
				g.ChannelInfo[ch].Scfsi = scfsi[ch]
			}

			g.DataSizeBits += int(g.ChannelInfo[ch].Size)
		}

		g.DataSize = (g.DataSizeBits + 7) / 8
		totalBits += g.DataSizeBits

		fr.Granules[gi] = g
	}

	if totalBits > 0 {
		if err := p.spliceFrameMainData(&fr, r, mainDataBegin); err != nil {
			return ealayer3.Frame{}, err
		}
	}

	r.SeekToNextByte()

	trailingStart := r.Tell() / 8
	if trailingStart < len(body) {
		p.reservoir = append(p.reservoir, body[trailingStart:]...)
		if len(p.reservoir) > 511 {
			p.reservoir = p.reservoir[len(p.reservoir)-511:]
		}
	}

	return fr, nil
}

// spliceFrameMainData draws main_data_begin bytes from the reservoir
// (oldest bits first, starting at reservoir_used - main_data_begin), then
// the rest from body, writing each granule's bits into its own
// byte-aligned buffer.
func (p *Parser) spliceFrameMainData(fr *ealayer3.Frame, body *bitio.Reader, mainDataBegin int) error {
	if mainDataBegin > len(p.reservoir) {
		return fmt.Errorf("%w: want %d, have %d", ErrReservoirUnderflow, mainDataBegin, len(p.reservoir))
	}

	resReader := bitio.NewReader(p.reservoir[len(p.reservoir)-mainDataBegin:])
	resBitsLeft := mainDataBegin * 8

	for gi := range fr.Granules {
		g := &fr.Granules[gi]
		if !g.Used || g.DataSizeBits == 0 {
			continue
		}

		out := bitio.NewWriter(g.DataSize)
		remaining := g.DataSizeBits

		for remaining > 0 {
			if resBitsLeft > 0 {
				n := minInt(32, minInt(resBitsLeft, remaining))
				out.WriteBits(resReader.ReadBits(uint(n)), uint(n))
				resBitsLeft -= n
				remaining -= n

				continue
			}

			if body.PastEnd() {
				return fmt.Errorf("mp3frame: %w", errors.New("main-data overruns frame body"))
			}

			n := minInt(32, remaining)
			out.WriteBits(body.ReadBits(uint(n)), uint(n))
			remaining -= n
		}

		out.WriteToNextByte()
		g.Data = out.BytesWritten()
	}

	return nil
}
