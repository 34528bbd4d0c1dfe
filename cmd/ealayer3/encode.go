package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mycophonic/ealayer3/block"
	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/generator"
	"github.com/mycophonic/ealayer3/mp3frame"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

// encodeBlockFrames caps how many frames are queued in the generator before
// Generate is called. Every generated chunk is appended to the same
// payload, so the output file still holds one single block.
const encodeBlockFrames = 32

// runEncode re-encodes a standards-compliant MP3 file into the EALayer3
// single-block container (§9 Open Question (b)): one logical stream,
// parsed frame-at-a-time by mp3frame.Parser and re-batched through
// generator.Generator.
func runEncode(_ context.Context, cfg runConfig, log *slog.Logger) error {
	in, err := os.Open(cfg.inputPath) //nolint:gosec // CLI tool opens a user-specified input file.
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.inputPath, err)
	}
	defer in.Close()

	if _, err := in.Seek(cfg.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", cfg.offset, err)
	}

	parser := mp3frame.NewParser(in)
	gen := generator.New(1, generator.WithLogger(log))

	var (
		payload      []byte
		totalSamples uint32
		sampleRate   int
		channels     int
	)

	flush := func() error {
		if gen.Pending() == 0 {
			return nil
		}

		chunk, err := gen.Generate()
		if err != nil {
			return err
		}

		payload = append(payload, chunk...)

		return nil
	}

	for {
		fr, err := parser.NextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return fmt.Errorf("reading %s: %w", cfg.inputPath, err)
		}

		if err := gen.AddFrame(0, fr); err != nil {
			return err
		}

		if sampleRate == 0 {
			if used := firstUsedGranule(fr); used != nil {
				sampleRate = used.SampleRate
				channels = used.Channels()
				totalSamples += uint32(mpegaudio.SamplesPerFrame(used.Version)) //nolint:gosec // frame counts stay well under 2^32
			}
		} else {
			if used := firstUsedGranule(fr); used != nil {
				totalSamples += uint32(mpegaudio.SamplesPerFrame(used.Version)) //nolint:gosec // frame counts stay well under 2^32
			}
		}

		if gen.Pending() >= encodeBlockFrames {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	if len(payload) == 0 {
		return errNoFramesDecoded
	}

	out, err := os.Create(cfg.outputPath) //nolint:gosec // CLI tool creates a user-specified output file.
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.outputPath, err)
	}
	defer out.Close()

	blk := block.Block{
		Size:        uint32(len(payload)), //nolint:gosec // re-encoded payloads stay well under 4GiB
		SampleCount: totalSamples,
		SampleRate:  sampleRate,
		Channels:    channels,
		Payload:     payload,
	}

	writer := block.NewSingleBlockWriter()
	if err := writer.WriteNextBlock(out, blk, true); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.outputPath, err)
	}

	log.Debug("encoded", "bytes", len(payload), "samples", totalSamples)

	if cfg.showInfo {
		fmt.Printf("Uncompressed sample frames: %d\n", totalSamples)
	}

	return nil
}

func firstUsedGranule(fr ealayer3.Frame) *ealayer3.Granule {
	for i := range fr.Granules {
		if fr.Granules[i].Used {
			return &fr.Granules[i]
		}
	}

	return nil
}
