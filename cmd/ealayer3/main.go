// Command ealayer3 extracts and decodes MPEG Audio Layer III streams from
// Electronic Arts' EALayer3 container, and re-encapsulates standard MP3
// bitstreams back into it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/ealayer3/block"
	"github.com/mycophonic/ealayer3/version"
)

func main() {
	ctx := context.Background()

	if err := buildApp().Run(ctx, os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// buildApp constructs the root command. Factored out of main so tests can
// Run it in-process against custom args instead of shelling out.
func buildApp() *cli.Command {
	return &cli.Command{
		Name:      version.Name(),
		Usage:     "extract and decode EA Layer 3 audio streams",
		ArgsUsage: "<input_file>",
		Version:   version.Version() + " (" + version.Commit() + " - " + version.Date() + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file path"},
			&cli.StringFlag{Name: "stream", Aliases: []string{"s"}, Usage: `1-based stream index, or "all"`},
			&cli.Int64Flag{Name: "offset", Aliases: []string{"i"}, Usage: "input start offset, in bytes"},
			&cli.BoolFlag{Name: "mp3", Aliases: []string{"m"}, Usage: "output MP3 (default)"},
			&cli.BoolFlag{Name: "wave", Aliases: []string{"w"}, Usage: "output mono WAV per stream"},
			&cli.BoolFlag{Name: "multi-wave", Aliases: []string{"mc"}, Usage: "output one interleaved multichannel WAV"},
			&cli.BoolFlag{Name: "encode", Aliases: []string{"E"}, Usage: "re-encode an MP3 input to EALayer3"},
			&cli.BoolFlag{Name: "parser5", Usage: "force the version 5 sub-frame parser"},
			&cli.BoolFlag{Name: "parser6", Usage: "force the version 6/7 sub-frame parser"},
			&cli.BoolFlag{Name: "info", Aliases: []string{"n"}, Usage: "print stream count and end offset"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "be verbose"},
			&cli.BoolFlag{Name: "no-banner", Aliases: []string{"b-"}, Usage: "don't show the banner"},
			&cli.BoolFlag{Name: "play", Usage: "decode and play the selected stream instead of writing a file"},
			&cli.BoolFlag{Name: "export-flac", Usage: "additionally archive the decoded stream as lossless FLAC"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.showBanner {
		printBanner()
	}

	log := newLogger(cfg.verbose)

	if cfg.format == formatEALayer3 {
		return runEncode(ctx, cfg, log)
	}

	return runDecode(ctx, cfg, log)
}

func printBanner() {
	_, _ = fmt.Fprintf(os.Stderr, "EA Layer 3 Stream Extractor/Decoder %s.\n\n", version.Version())
}

// printError prints the taxonomy's two literal §8 diagnostics verbatim, and
// a generic one-line diagnostic (teacher's cmd/saprobe/main.go pattern)
// otherwise.
func printError(err error) {
	switch {
	case errors.Is(err, block.ErrUnrecognizedFormat), errors.Is(err, block.ErrTruncatedBlock):
		_, _ = fmt.Fprintln(os.Stderr, "The input is not in a readable file format.")
	case errors.Is(err, errTooManyStreams):
		_, _ = fmt.Fprintln(os.Stderr, "Too many streams to be decoded.")
	default:
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}
