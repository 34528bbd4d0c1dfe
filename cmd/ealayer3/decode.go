package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samber/lo"

	"github.com/mycophonic/ealayer3/block"
	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mpegaudio"
	"github.com/mycophonic/ealayer3/stream"
	"github.com/mycophonic/ealayer3/wav"
)

func runDecode(_ context.Context, cfg runConfig, log *slog.Logger) error {
	in, err := os.Open(cfg.inputPath) //nolint:gosec // CLI tool opens a user-specified input file.
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.inputPath, err)
	}
	defer in.Close()

	if _, err := in.Seek(cfg.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", cfg.offset, err)
	}

	selector := block.NewSelector(block.WithLogger(log))

	loader, err := selector.Initialize(in)
	if err != nil {
		return err
	}

	log.Debug("container recognized", "loader", loader.Name())

	parserOpts := []ealayer3.Option{ealayer3.WithLogger(log)}
	if cfg.forceVariant != 0 {
		parserOpts = append(parserOpts, ealayer3.WithForcedVariant(cfg.forceVariant))
	}

	parser := ealayer3.New(parserOpts...)

	firstBlock, ok, err := loader.ReadNextBlock(in)
	if err != nil {
		return err
	}

	if !ok {
		return errFirstBlockUnreadable
	}

	var frames []ealayer3.Frame

	collect := func(f ealayer3.Frame) error {
		frames = append(frames, f)

		return nil
	}

	if err := parser.ParseBlock(firstBlock.Payload, collect); err != nil {
		return err
	}

	streamCount := parser.StreamCount()

	// Check ordering follows the original tool's sequence (index range,
	// then the --info early return, then the too-many-streams cap): a
	// bad --stream index errors even under --info, while --info itself
	// returns before the cap is ever consulted.
	if !cfg.streamAll && cfg.streamIndex >= streamCount {
		return fmt.Errorf("%w: index %d, have %d", errStreamIndexOutOfRange, cfg.streamIndex+1, streamCount)
	}

	if cfg.showInfo {
		fmt.Printf("Stream count: %d\n\n", streamCount)

		if cfg.outputPath == "" {
			return nil
		}
	}

	if cfg.streamAll && streamCount > mpegaudio.MaxStreams {
		return errTooManyStreams
	}

	totalSamples := uint64(firstBlock.SampleCount)

	for {
		blk, ok, err := loader.ReadNextBlock(in)
		if err != nil {
			return err
		}

		if !ok {
			break
		}

		totalSamples += uint64(blk.SampleCount)

		if err := parser.ParseBlock(blk.Payload, collect); err != nil {
			return err
		}
	}

	endOffset, err := in.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("reading end offset: %w", err)
	}

	byStream := lo.GroupBy(frames, func(f ealayer3.Frame) int { return f.StreamIndex })

	selected := selectedStreams(cfg, streamCount)
	if len(selected) == 0 {
		return errNoFramesDecoded
	}

	if err := writeOutputs(cfg, byStream, selected); err != nil {
		return err
	}

	if cfg.showInfo {
		fmt.Printf("Uncompressed sample frames: %d\n", totalSamples)
		fmt.Printf("End offset in file: %d\n", endOffset)
	}

	log.Debug("done")

	return nil
}

func selectedStreams(cfg runConfig, streamCount int) []int {
	if !cfg.streamAll {
		return []int{cfg.streamIndex}
	}

	return lo.Range(streamCount)
}

func frameSourceFor(frames []ealayer3.Frame) stream.FrameSource {
	i := 0

	return func() (ealayer3.Frame, bool, error) {
		if i >= len(frames) {
			return ealayer3.Frame{}, false, nil
		}

		fr := frames[i]
		i++

		return fr, true, nil
	}
}

func writeOutputs(cfg runConfig, byStream map[int][]ealayer3.Frame, selected []int) error {
	if cfg.play {
		return playStream(byStream[selected[0]])
	}

	if cfg.format == formatMultiWave {
		return writeMultiWave(cfg, byStream, selected)
	}

	base, ext := splitExt(cfg.outputPath)
	multiFile := cfg.streamAll && len(selected) > 1

	for i, idx := range selected {
		outPath := cfg.outputPath
		if multiFile {
			outPath = streamOutputName(base, ext, i+1)
		}

		if err := writeOneStream(cfg, byStream[idx], outPath); err != nil {
			return fmt.Errorf("stream %d: %w", idx+1, err)
		}
	}

	return nil
}

func writeOneStream(cfg runConfig, frames []ealayer3.Frame, outPath string) error {
	var err error

	switch cfg.format {
	case formatWave:
		err = writeWaveFile(frames, outPath)
	case formatMP3, formatMultiWave, formatEALayer3, formatAuto:
		err = writeMP3File(frames, outPath)
	default:
		err = writeMP3File(frames, outPath)
	}

	if err != nil {
		return err
	}

	if cfg.exportFlac {
		return exportFlacFile(frames, flacPathFor(outPath))
	}

	return nil
}

func writeMP3File(frames []ealayer3.Frame, outPath string) error {
	out, err := os.Create(outPath) //nolint:gosec // CLI tool creates a user-specified output file.
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	mpeg := stream.NewMpegOutputStream(frameSourceFor(frames))

	if _, err := io.Copy(out, mpeg); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	return nil
}

func decodedPCM(frames []ealayer3.Frame) ([]byte, stream.PCMFormat, error) {
	mpeg := stream.NewMpegOutputStream(frameSourceFor(frames))

	pcm, err := stream.NewPcmOutputStream(mpeg)
	if err != nil {
		return nil, stream.PCMFormat{}, fmt.Errorf("decoding to PCM: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, pcm); err != nil {
		return nil, stream.PCMFormat{}, fmt.Errorf("decoding PCM: %w", err)
	}

	return buf.Bytes(), pcm.Format(), nil
}

func writeWaveFile(frames []ealayer3.Frame, outPath string) error {
	pcm, format, err := decodedPCM(frames)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath) //nolint:gosec // CLI tool creates a user-specified output file.
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	return wav.Write(out, pcm, format.SampleRate, format.Channels)
}

type decodedStream struct {
	pcm      []byte
	channels int
}

func writeMultiWave(cfg runConfig, byStream map[int][]ealayer3.Frame, selected []int) error {
	streams := make([]decodedStream, 0, len(selected))
	sampleRate := 0

	for _, idx := range selected {
		pcm, format, err := decodedPCM(byStream[idx])
		if err != nil {
			return fmt.Errorf("stream %d: %w", idx+1, err)
		}

		if sampleRate == 0 {
			sampleRate = format.SampleRate
		}

		streams = append(streams, decodedStream{pcm: pcm, channels: format.Channels})
	}

	totalChannels := 0
	for _, s := range streams {
		totalChannels += s.channels
	}

	out, err := os.Create(cfg.outputPath) //nolint:gosec // CLI tool creates a user-specified output file.
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.outputPath, err)
	}
	defer out.Close()

	return wav.Write(out, interleavePCM(streams, totalChannels), sampleRate, totalChannels)
}

// interleavePCM lays out every stream's channels side by side in
// stream-index order, per §6's multi-wave body layout. Streams with fewer
// frames than the longest are zero-padded for their remaining frames.
func interleavePCM(streams []decodedStream, totalChannels int) []byte {
	maxFrames := 0

	for _, s := range streams {
		if s.channels == 0 {
			continue
		}

		frames := len(s.pcm) / (s.channels * stream.BytesPerSample)
		if frames > maxFrames {
			maxFrames = frames
		}
	}

	out := make([]byte, maxFrames*totalChannels*stream.BytesPerSample)
	chOffset := 0

	for _, s := range streams {
		if s.channels == 0 {
			continue
		}

		frames := len(s.pcm) / (s.channels * stream.BytesPerSample)

		for f := 0; f < frames; f++ {
			for ch := 0; ch < s.channels; ch++ {
				src := (f*s.channels + ch) * stream.BytesPerSample
				dst := (f*totalChannels + chOffset + ch) * stream.BytesPerSample
				copy(out[dst:dst+stream.BytesPerSample], s.pcm[src:src+stream.BytesPerSample])
			}
		}

		chOffset += s.channels
	}

	return out
}

func playStream(frames []ealayer3.Frame) error {
	mpeg := stream.NewMpegOutputStream(frameSourceFor(frames))

	pcm, err := stream.NewPcmOutputStream(mpeg)
	if err != nil {
		return fmt.Errorf("decoding to PCM: %w", err)
	}

	return stream.Play(pcm)
}

func flacPathFor(outPath string) string {
	base, _ := splitExt(outPath)

	return base + ".flac"
}

func exportFlacFile(frames []ealayer3.Frame, flacPath string) error {
	mpeg := stream.NewMpegOutputStream(frameSourceFor(frames))

	pcm, err := stream.NewPcmOutputStream(mpeg)
	if err != nil {
		return fmt.Errorf("export-flac: decoding to PCM: %w", err)
	}

	out, err := os.Create(flacPath) //nolint:gosec // CLI tool creates a user-specified output file.
	if err != nil {
		return fmt.Errorf("export-flac: creating %s: %w", flacPath, err)
	}
	defer out.Close()

	return stream.ExportFLAC(pcm, out)
}
