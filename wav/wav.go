// Package wav writes the fixed 44-byte RIFF/WAVE PCM-16 header this tool's
// output requires: single-stream output carries one stream's channels,
// multi-wave output concatenates every selected stream's channels in
// stream-index order into one interleaved body.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

const wavFormatPCM = 1

// Write emits a complete WAV file: header plus pcm as-is. pcm must already
// be interleaved little-endian signed 16-bit samples at channels channels;
// channels across multiple streams must already be concatenated by the
// caller (see §6's multi-wave layout) before calling Write.
func Write(w io.Writer, pcm []byte, sampleRate, channels int) error {
	byteRate := uint32(sampleRate) * uint32(channels) * 2
	blockAlign := uint16(channels) * 2 //nolint:gosec // channels is bounded by stream count, far under uint16 range.
	dataSize := uint32(len(pcm))

	var header [44]byte

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], dataSize+36)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels)) //nolint:gosec // see blockAlign above.
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], 16) // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wav: writing header: %w", err)
	}

	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("wav: writing PCM data: %w", err)
	}

	return nil
}
