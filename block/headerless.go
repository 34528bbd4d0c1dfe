package block

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const headerlessProbeLimit = 5

// headerlessPrefix is the 8-byte per-block prefix: flags, block size
// (inclusive of this 8-byte prefix), and declared sample count.
type headerlessPrefix struct {
	Flags     uint16
	BlockSize uint16
	Samples   uint32
}

func readHeaderlessPrefix(r io.Reader) (headerlessPrefix, error) {
	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return headerlessPrefix{}, err
	}

	return headerlessPrefix{
		Flags:     binary.BigEndian.Uint16(buf[0:2]),
		BlockSize: binary.BigEndian.Uint16(buf[2:4]),
		Samples:   binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

const headerlessLastBlockFlag = 0x8000

// HeaderlessLoader recognizes a stream of repeated blocks, each prefixed by
// its own 8-byte {flags, size, samples} header and with no outer container
// header.
type HeaderlessLoader struct {
	lastDelivered bool
}

// NewHeaderlessLoader constructs an unprobed loader.
func NewHeaderlessLoader() *HeaderlessLoader {
	return &HeaderlessLoader{}
}

func (l *HeaderlessLoader) Name() string {
	return "Headerless"
}

func (l *HeaderlessLoader) Initialize(r io.ReadSeeker) (ok bool, err error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}

	defer func() {
		if _, seekErr := r.Seek(start, io.SeekStart); seekErr != nil && err == nil {
			ok, err = false, seekErr
		}
	}()

	for i := 0; i < headerlessProbeLimit; i++ {
		prefix, err := readHeaderlessPrefix(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if i == 0 {
					return false, nil
				}

				break
			}

			return false, err
		}

		if prefix.Flags&headerlessLastBlockFlag != 0 {
			break
		}

		if prefix.Flags&0x7FFF != 0 {
			return false, nil
		}

		if prefix.BlockSize < 8 {
			return false, nil
		}

		if _, err := r.Seek(int64(prefix.BlockSize-8), io.SeekCurrent); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (l *HeaderlessLoader) ReadNextBlock(r io.ReadSeeker) (Block, bool, error) {
	if l.lastDelivered {
		return Block{}, false, nil
	}

	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Block{}, false, err
	}

	prefix, err := readHeaderlessPrefix(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Block{}, false, nil
		}

		return Block{}, false, fmt.Errorf("block: reading headerless prefix: %w", err)
	}

	if prefix.Flags&headerlessLastBlockFlag != 0 {
		l.lastDelivered = true
	}

	if prefix.BlockSize < 8 {
		return Block{}, false, ErrTruncatedBlock
	}

	payloadSize := prefix.BlockSize - 8

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Block{}, false, fmt.Errorf("%w: %w", ErrTruncatedBlock, err)
	}

	return Block{
		Offset:      offset,
		Size:        uint32(payloadSize),
		SampleCount: prefix.Samples,
		Payload:     payload,
	}, true, nil
}

// HeaderlessWriter serializes blocks back into the headerless form: no
// outer header, just repeated {flags, size, samples} prefixes.
type HeaderlessWriter struct{}

// NewHeaderlessWriter constructs a writer.
func NewHeaderlessWriter() *HeaderlessWriter {
	return &HeaderlessWriter{}
}

func (w *HeaderlessWriter) WriteNextBlock(out io.Writer, b Block, last bool) error {
	var prefix [8]byte

	var flags uint16
	if last {
		flags = headerlessLastBlockFlag
	}

	binary.BigEndian.PutUint16(prefix[0:2], flags)
	binary.BigEndian.PutUint16(prefix[2:4], uint16(b.Size+8)) //nolint:gosec // blocks are well under 64KiB
	binary.BigEndian.PutUint32(prefix[4:8], b.SampleCount)

	if _, err := out.Write(prefix[:]); err != nil {
		return fmt.Errorf("block: writing headerless prefix: %w", err)
	}

	if _, err := out.Write(b.Payload); err != nil {
		return fmt.Errorf("block: writing headerless payload: %w", err)
	}

	return nil
}
