package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/ealayer3/ealayer3"
)

type outputFormat int

const (
	formatAuto outputFormat = iota
	formatMP3
	formatWave
	formatMultiWave
	formatEALayer3
)

// runConfig is the fully resolved set of inputs to one run, separating
// argument resolution (resolveConfig) from execution (runDecode/runEncode),
// following cmd/saprobe/decode.go's runDecode/decodeAndOutput split.
type runConfig struct {
	inputPath  string
	outputPath string

	streamAll   bool
	streamIndex int // 0-based; meaningful only when !streamAll

	offset int64
	format outputFormat

	forceVariant ealayer3.Variant // variantAuto sentinel lives in package ealayer3; 0 value here means "unset"

	showInfo   bool
	verbose    bool
	showBanner bool

	play       bool
	exportFlac bool
}

func resolveConfig(cmd *cli.Command) (runConfig, error) {
	if cmd.NArg() != 1 {
		return runConfig{}, fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	cfg := runConfig{
		inputPath:  cmd.Args().First(),
		outputPath: cmd.String("output"),
		offset:     cmd.Int64("offset"),
		showInfo:   cmd.Bool("info"),
		verbose:    cmd.Bool("verbose"),
		showBanner: !cmd.Bool("no-banner"),
		play:       cmd.Bool("play"),
		exportFlac: cmd.Bool("export-flac"),
	}

	if cfg.play && cfg.outputPath != "" {
		return runConfig{}, errPlayWithOutput
	}

	streamSpec := cmd.String("stream")

	switch {
	case streamSpec == "":
		cfg.streamIndex = 0
	case strings.EqualFold(streamSpec, "all"):
		cfg.streamAll = true
	default:
		n, err := strconv.Atoi(streamSpec)
		if err != nil {
			return runConfig{}, fmt.Errorf("invalid --stream value %q: %w", streamSpec, err)
		}

		cfg.streamIndex = n - 1
	}

	// Format flags resolve by fixed priority, whatever their order on the
	// command line: -E (re-encode) first, then --multi-wave, --wave and
	// --mp3.
	switch {
	case cmd.Bool("encode"):
		cfg.format = formatEALayer3
	case cmd.Bool("multi-wave"):
		cfg.format = formatMultiWave
	case cmd.Bool("wave"):
		cfg.format = formatWave
	case cmd.Bool("mp3"):
		cfg.format = formatMP3
	default:
		cfg.format = formatAuto
	}

	if cfg.format == formatAuto {
		cfg.format = formatFromOutputPath(cfg.outputPath)
	}

	switch {
	case cmd.Bool("parser5"):
		cfg.forceVariant = ealayer3.VariantV5
	case cmd.Bool("parser6"):
		cfg.forceVariant = ealayer3.VariantV6
	}

	if cfg.outputPath == "" && !cfg.showInfo && !cfg.play {
		cfg.outputPath = defaultOutputPath(cfg.inputPath, cfg.format)
	}

	return cfg, nil
}

// formatFromOutputPath auto-detects the output format from the output
// filename's extension, matching SetOutputFormat's behavior: any extension
// other than ".wav" falls back to MP3.
func formatFromOutputPath(path string) outputFormat {
	if path == "" {
		return formatMP3
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return formatWave
	}

	return formatMP3
}

func defaultOutputPath(inputPath string, format outputFormat) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))

	switch format {
	case formatWave, formatMultiWave:
		return base + ".wav"
	case formatEALayer3:
		return base + ".ealayer3"
	case formatMP3, formatAuto:
		return base + ".mp3"
	default:
		return base + ".mp3"
	}
}

func splitExt(path string) (base, ext string) {
	ext = filepath.Ext(path)
	base = strings.TrimSuffix(path, ext)

	return base, ext
}

func streamOutputName(base, ext string, streamNumber int) string {
	return fmt.Sprintf("%s_%d%s", base, streamNumber, ext)
}
