// Package generator completes the EALayer3 encode path: it accepts parsed
// Frames and serializes them back into the §4.3 sub-frame layout, the
// inverse of package ealayer3's parser.
package generator

import "errors"

// ErrStreamIndexOutOfRange is returned when AddFrame is called with a
// stream index ≥ the generator's declared stream count.
var ErrStreamIndexOutOfRange = errors.New("generator: stream index out of range")
