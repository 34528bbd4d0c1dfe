package ealayer3

import "errors"

var (
	// ErrUnsupportedVersion is returned when a sub-frame declares a format
	// version outside {5, 6, 7}.
	ErrUnsupportedVersion = errors.New("ealayer3: unsupported sub-frame version")

	// ErrStreamIndexOutOfRange is returned when a sub-frame references a
	// stream index ≥ the declared stream count.
	ErrStreamIndexOutOfRange = errors.New("ealayer3: stream index out of range")

	// ErrReservoirUnderflow is returned when a granule's main_data_begin
	// exceeds the bytes actually held in the reservoir.
	ErrReservoirUnderflow = errors.New("ealayer3: reservoir underflow")

	// ErrMainDataOverrun is returned when a granule's declared main-data
	// size runs past the end of the block payload. This is the same
	// TruncatedBlock failure mode block.ErrTruncatedBlock names for the
	// container layer, at the granule layer instead.
	ErrMainDataOverrun = errors.New("ealayer3: main-data overruns block payload")
)
