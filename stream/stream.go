// Package stream adapts assembled Frames into pull-style byte streams: raw
// MP3 bytes via MpegOutputStream, and decoded PCM samples via
// PcmOutputStream, which feeds the former through the external MP3 decoder.
package stream

import (
	"errors"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mp3frame"
)

// PCMFormat describes the interleaved PCM bytes a PcmOutputStream produces.
// go-mp3 always decodes to 16-bit signed little-endian stereo, regardless of
// the source MP3's own channel mode.
type PCMFormat struct {
	SampleRate int
	Channels   int
}

// BytesPerSample is fixed at 2 (16-bit) for every PcmOutputStream.
const BytesPerSample = 2

// FrameSource yields the next Frame belonging to one logical stream, in
// order. ok is false once the source is exhausted; a non-nil err aborts.
type FrameSource func() (fr ealayer3.Frame, ok bool, err error)

// MpegOutputStream serializes Frames pulled from a FrameSource into
// standards-compliant MP3 bytes via an Assembler, one frame at a time, and
// satisfies io.Reader so it can feed an external MP3 decoder directly.
type MpegOutputStream struct {
	next FrameSource
	asm  *mp3frame.Assembler

	pending   []byte
	exhausted bool
}

// NewMpegOutputStream constructs a stream pulling Frames from next.
func NewMpegOutputStream(next FrameSource) *MpegOutputStream {
	return &MpegOutputStream{next: next, asm: mp3frame.NewAssembler()}
}

// Read fills buf with serialized MP3 bytes, assembling additional frames as
// needed. It returns io.EOF once the underlying FrameSource is exhausted and
// every assembled byte has been delivered.
func (s *MpegOutputStream) Read(buf []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.exhausted {
			return 0, io.EOF
		}

		fr, ok, err := s.next()
		if err != nil {
			return 0, err
		}

		if !ok {
			s.exhausted = true

			continue
		}

		frameBytes, err := s.asm.AssembleFrame(fr)
		if err != nil {
			return 0, err
		}

		s.pending = frameBytes
	}

	n := copy(buf, s.pending)
	s.pending = s.pending[n:]

	return n, nil
}

// Eos reports whether every Frame has been pulled and serialized, and every
// serialized byte delivered to a caller.
func (s *MpegOutputStream) Eos() bool {
	return s.exhausted && len(s.pending) == 0
}

// Close satisfies io.ReadCloser, which gomp3.NewDecoder requires; there is
// nothing underneath this stream to release.
func (s *MpegOutputStream) Close() error {
	return nil
}

// PcmOutputStream decodes an MpegOutputStream's bytes into interleaved
// 16-bit signed PCM samples using the external go-mp3 decoder. Recommended
// read buffer size is one frame's worth of samples: 1152 * channels * 2
// bytes for MPEG-1, 576 * channels * 2 for MPEG-2/2.5.
type PcmOutputStream struct {
	dec *gomp3.Decoder

	eos bool
}

// NewPcmOutputStream constructs a PcmOutputStream over mp3. Constructing the
// decoder requires reading mp3's first frame header, so mp3 must not have
// been read from already.
func NewPcmOutputStream(mp3 *MpegOutputStream) (*PcmOutputStream, error) {
	dec, err := gomp3.NewDecoder(mp3)
	if err != nil {
		return nil, err
	}

	return &PcmOutputStream{dec: dec}, nil
}

// Format reports the sample rate and channel count of the decoded PCM.
func (s *PcmOutputStream) Format() PCMFormat {
	return PCMFormat{SampleRate: s.dec.SampleRate(), Channels: 2}
}

// Read fills buf with interleaved little-endian signed 16-bit PCM samples.
func (s *PcmOutputStream) Read(buf []byte) (int, error) {
	n, err := s.dec.Read(buf)
	if errors.Is(err, io.EOF) {
		s.eos = true
	}

	return n, err
}

// Eos reports whether PCM synthesis has been fully drained.
func (s *PcmOutputStream) Eos() bool {
	return s.eos
}
