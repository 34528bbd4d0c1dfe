package main

import "errors"

var (
	errInvalidArgCount = errors.New("expected exactly one argument: input file path")

	// errTooManyStreams prints literal diagnostic text (see printError):
	// "Too many streams to be decoded." preserved verbatim so scripts
	// matching on stderr keep working across a port. The unreadable-format
	// diagnostic has no sentinel of its own here — it's printed for
	// block.ErrUnrecognizedFormat and block.ErrTruncatedBlock directly.
	errTooManyStreams = errors.New("too many streams requested")

	errStreamIndexOutOfRange = errors.New("stream index exceeds the total number of streams")
	errNoFramesDecoded       = errors.New("nothing was decoded")
	errPlayWithOutput        = errors.New("--play cannot be combined with -o/--output")
	errFirstBlockUnreadable  = errors.New("the first block could not be read from the input")
)
