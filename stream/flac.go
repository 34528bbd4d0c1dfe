package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const flacSamplesPerBlock = 4096

// ExportFLAC drains pcm and archives it losslessly as FLAC to w. It is the
// --export-flac enrichment: a lossless alternative to the WAV/MP3 outputs,
// reusing go-mp3's PCM synthesis as its source rather than decoding the
// MP3 bytes twice.
func ExportFLAC(pcm *PcmOutputStream, w io.Writer) error {
	format := pcm.Format()

	channels, err := flacChannels(format.Channels)
	if err != nil {
		return fmt.Errorf("stream: export-flac: %w", err)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacSamplesPerBlock,
		SampleRate:    uint32(format.SampleRate),
		NChannels:     uint8(format.Channels),
		BitsPerSample: 16,
	}

	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return fmt.Errorf("stream: export-flac: creating encoder: %w", err)
	}
	defer enc.Close()

	subframes := make([]*frame.Subframe, format.Channels)
	for i := range subframes {
		subframes[i] = &frame.Subframe{Samples: make([]int32, flacSamplesPerBlock)}
	}

	chunk := make([]byte, flacSamplesPerBlock*format.Channels*BytesPerSample)

	for {
		n, readErr := io.ReadFull(pcm, chunk)
		if n > 0 {
			if err := writeFLACBlock(enc, subframes, chunk[:n], format, channels); err != nil {
				return err
			}
		}

		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return nil
		}

		if readErr != nil {
			return fmt.Errorf("stream: export-flac: reading PCM: %w", readErr)
		}
	}
}

func writeFLACBlock(enc *flac.Encoder, subframes []*frame.Subframe, pcmBytes []byte, format PCMFormat, channels frame.Channels) error {
	nSamples := len(pcmBytes) / (format.Channels * BytesPerSample)

	for _, sf := range subframes {
		sf.SubHeader = frame.SubHeader{Pred: frame.PredVerbatim}
		sf.NSamples = nSamples
		sf.Samples = sf.Samples[:nSamples]
	}

	pos := 0

	for i := 0; i < nSamples; i++ {
		for ch := 0; ch < format.Channels; ch++ {
			sample := int16(binary.LittleEndian.Uint16(pcmBytes[pos:]))
			subframes[ch].Samples[i] = int32(sample)
			pos += BytesPerSample
		}
	}

	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: false,
			BlockSize:         uint16(nSamples),
			SampleRate:        uint32(format.SampleRate),
			Channels:          channels,
			BitsPerSample:     16,
		},
		Subframes: subframes,
	}

	return enc.WriteFrame(f)
}

func flacChannels(n int) (frame.Channels, error) {
	switch n {
	case 1:
		return frame.ChannelsMono, nil
	case 2:
		return frame.ChannelsLR, nil
	default:
		return 0, fmt.Errorf("unsupported channel count %d", n)
	}
}
