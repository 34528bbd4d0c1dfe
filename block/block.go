// Package block recognizes the EALayer3 container framings (single-block
// and headerless) and iterates their blocks.
package block

import (
	"errors"
	"io"
)

// ErrUnrecognizedFormat is returned when no registered loader accepts the
// input.
var ErrUnrecognizedFormat = errors.New("block: unrecognized container format")

// ErrTruncatedBlock is returned when a block's declared size runs past the
// end of the input.
var ErrTruncatedBlock = errors.New("block: declared size exceeds available input")

// Block is a unit yielded by the container layer: one block's payload plus
// the metadata the loader could recover about it.
type Block struct {
	Offset      int64
	Size        uint32
	SampleCount uint32
	SampleRate  int // 0 if the loader doesn't carry it; inferred from frames instead
	Channels    int // 0 if the loader doesn't carry it
	Payload     []byte
}

// Loader recognizes and iterates one EALayer3 container variant.
//
// Initialize probes the input starting at its current position and must
// leave the input at that same position whether or not it matches —
// restoring position on a false result is the selector's job, but loaders
// that consume input while probing (Headerless reads several block
// prefixes) must still leave the input unchanged on return, success or
// failure, so the selector's single restore is sufficient.
type Loader interface {
	Name() string
	Initialize(r io.ReadSeeker) (bool, error)
	ReadNextBlock(r io.ReadSeeker) (Block, bool, error)
}

// Writer serializes Blocks back into a container.
type Writer interface {
	WriteNextBlock(w io.Writer, b Block, last bool) error
}
