// Package mp3frame reassembles standards-compliant MPEG Layer III frames
// from parsed granules (the forward, EALayer3 -> MP3 direction) and parses
// real MP3 files back into the same granule representation (the reverse
// direction), sharing the bit-reservoir mechanics between both.
package mp3frame

import "errors"

var (
	// ErrMpegSyncLost is returned when the expected 0x7FF sync pattern is
	// not found where a frame header was expected.
	ErrMpegSyncLost = errors.New("mp3frame: MPEG sync lost")

	// ErrNotLayerIII is returned when a frame header's layer field is not
	// Layer III.
	ErrNotLayerIII = errors.New("mp3frame: frame is not Layer III")

	// ErrReservoirUnderflow is returned when a frame's main_data_begin
	// exceeds the bytes actually held in the reservoir.
	ErrReservoirUnderflow = errors.New("mp3frame: reservoir underflow")

	// ErrFrameTooLarge is returned when a declared frame size exceeds
	// mpegaudio.MaxFrameSize.
	ErrFrameTooLarge = errors.New("mp3frame: frame size exceeds maximum")

	// ErrGranuleTooLarge is returned when a granule's main-data cannot be
	// made to fit within one frame even at the highest bitrate, after
	// accounting for the reservoir's 511-byte bound.
	ErrGranuleTooLarge = errors.New("mp3frame: granule main-data too large for one frame")

	// ErrNoSuitableBitrate is returned when no bitrate index yields a big
	// enough frame body to keep the reservoir within bounds.
	ErrNoSuitableBitrate = errors.New("mp3frame: no bitrate fits the granule data")
)
