package block

import (
	"encoding/binary"
	"fmt"
	"io"
)

// singleBlockHeader is the 16-byte container header: compression, channel
// value, sample rate, a doubled total-sample-count sanity check, and the
// block size (itself counted from the start of the block-size field, i.e.
// it includes its own 4 bytes plus the trailing total-samples copy).
type singleBlockHeader struct {
	Compression    uint8
	ChannelValue   uint8
	SampleRate     uint16
	TotalSamples1  uint32
	BlockSize      uint32
	TotalSamples2  uint32
}

func readSingleBlockHeader(r io.Reader) (singleBlockHeader, error) {
	var buf [16]byte

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return singleBlockHeader{}, err
	}

	return singleBlockHeader{
		Compression:   buf[0],
		ChannelValue:  buf[1],
		SampleRate:    binary.BigEndian.Uint16(buf[2:4]),
		TotalSamples1: binary.BigEndian.Uint32(buf[4:8]),
		BlockSize:     binary.BigEndian.Uint32(buf[8:12]),
		TotalSamples2: binary.BigEndian.Uint32(buf[12:16]),
	}, nil
}

// SingleBlockLoader recognizes a file consisting of exactly one block,
// prefixed by a 16-byte header that declares the whole payload's length up
// front.
type SingleBlockLoader struct {
	compression uint8
	channels    int
	sampleRate  int
	delivered   bool
}

// NewSingleBlockLoader constructs an unprobed loader.
func NewSingleBlockLoader() *SingleBlockLoader {
	return &SingleBlockLoader{}
}

func (l *SingleBlockLoader) Name() string {
	return "Single Block Header"
}

// Compression returns the probed compression byte (5, 6, or 7), which
// selects the default EALayer3 sub-frame parser variant.
func (l *SingleBlockLoader) Compression() uint8 {
	return l.compression
}

func (l *SingleBlockLoader) Initialize(r io.ReadSeeker) (bool, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}

	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return false, err
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return false, err
	}

	hdr, err := readSingleBlockHeader(r)

	if _, seekErr := r.Seek(start, io.SeekStart); seekErr != nil {
		return false, seekErr
	}

	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return false, nil
		}

		return false, err
	}

	if hdr.Compression < 5 || hdr.Compression > 7 {
		return false, nil
	}

	if hdr.ChannelValue%4 != 0 {
		return false, nil
	}

	if hdr.TotalSamples1 != hdr.TotalSamples2 {
		return false, nil
	}

	if int64(hdr.BlockSize)+8 > length-start {
		return false, nil
	}

	l.compression = hdr.Compression
	l.channels = int(hdr.ChannelValue)/4 + 1
	l.sampleRate = int(hdr.SampleRate)

	return true, nil
}

func (l *SingleBlockLoader) ReadNextBlock(r io.ReadSeeker) (Block, bool, error) {
	if l.delivered {
		return Block{}, false, nil
	}

	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Block{}, false, err
	}

	hdr, err := readSingleBlockHeader(r)
	if err != nil {
		return Block{}, false, fmt.Errorf("block: reading single-block header: %w", err)
	}

	if hdr.BlockSize < 8 {
		return Block{}, false, ErrTruncatedBlock
	}

	payloadSize := hdr.BlockSize - 8

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Block{}, false, fmt.Errorf("%w: %w", ErrTruncatedBlock, err)
	}

	l.delivered = true

	return Block{
		Offset:      offset,
		Size:        payloadSize,
		SampleCount: hdr.TotalSamples1,
		SampleRate:  l.sampleRate,
		Channels:    l.channels,
		Payload:     payload,
	}, true, nil
}

// SingleBlockWriter serializes a single block back into the single-block
// container form. Compression is always written as 5 (version 5 sub-frame
// layout), matching the reference writer's behavior.
type SingleBlockWriter struct{}

// NewSingleBlockWriter constructs a writer.
func NewSingleBlockWriter() *SingleBlockWriter {
	return &SingleBlockWriter{}
}

func (w *SingleBlockWriter) WriteNextBlock(out io.Writer, b Block, _ bool) error {
	var hdr [16]byte

	hdr[0] = 5
	hdr[1] = uint8(b.Channels*4 - 4) //nolint:gosec // channel counts are small
	binary.BigEndian.PutUint16(hdr[2:4], uint16(b.SampleRate))
	binary.BigEndian.PutUint32(hdr[4:8], b.SampleCount)
	binary.BigEndian.PutUint32(hdr[8:12], b.Size+8)
	binary.BigEndian.PutUint32(hdr[12:16], b.SampleCount)

	if _, err := out.Write(hdr[:]); err != nil {
		return fmt.Errorf("block: writing single-block header: %w", err)
	}

	if _, err := out.Write(b.Payload); err != nil {
		return fmt.Errorf("block: writing single-block payload: %w", err)
	}

	return nil
}
