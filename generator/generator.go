package generator

import (
	"fmt"
	"log/slog"

	"github.com/mycophonic/ealayer3/bitio"
	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

type pendingFrame struct {
	streamIndex int
	frame       ealayer3.Frame
}

// Generator batches (stream_index, Frame) submissions and serializes them
// into EALayer3 sub-frames on demand, the inverse of ealayer3.Parser.
//
// Unlike the MP3-side bit reservoir, there is no fixed block-size budget
// to spread a granule's main-data across here: a Generate call's block
// payload grows to hold exactly what was submitted since the last call, so
// every granule's main-data is written in full, fresh, with
// main_data_begin always 0. This isn't a simplification of a richer
// mechanism — there is nothing for a reservoir to buy in this direction,
// since nothing here is competing for a fixed-size frame's spare capacity.
type Generator struct {
	streamCount int
	variant     ealayer3.Variant
	pending     []pendingFrame
	log         *slog.Logger
}

// Option configures a Generator at construction.
type Option func(*Generator)

// WithVariant selects the side-info field layout written for every
// sub-frame. Defaults to ealayer3.VariantV5, matching
// block.SingleBlockWriter's compression byte (5).
func WithVariant(v ealayer3.Variant) Option {
	return func(g *Generator) {
		g.variant = v
	}
}

// WithLogger threads an explicit logger handle into the generator, in place
// of a package-level global verbose flag. A nil logger (the default)
// disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// New constructs a Generator declaring streamCount logical streams.
func New(streamCount int, opts ...Option) *Generator {
	g := &Generator{
		streamCount: streamCount,
		variant:     ealayer3.VariantV5,
		log:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.log == nil {
		g.log = slog.New(slog.DiscardHandler)
	}

	return g
}

// AddFrame queues fr for the next Generate call.
func (g *Generator) AddFrame(streamIndex int, fr ealayer3.Frame) error {
	if streamIndex < 0 || streamIndex >= g.streamCount {
		return fmt.Errorf("%w: %d >= %d", ErrStreamIndexOutOfRange, streamIndex, g.streamCount)
	}

	g.pending = append(g.pending, pendingFrame{streamIndex: streamIndex, frame: fr})

	return nil
}

// Pending reports how many frames are queued since the last Generate call.
func (g *Generator) Pending() int {
	return len(g.pending)
}

// Generate serializes every queued frame as one EALayer3 sub-frame each,
// in submission order, and clears the queue. It returns the block payload
// bytes ready for a block.Writer.
func (g *Generator) Generate() ([]byte, error) {
	capacityBytes := 8
	for _, pf := range g.pending {
		capacityBytes += 48
		for _, gr := range pf.frame.Granules {
			capacityBytes += (gr.DataSizeBits + 7) / 8
		}
	}

	w := bitio.NewWriter(capacityBytes)
	streamIndexBits := ealayer3.StreamIndexBits(g.streamCount)

	for _, pf := range g.pending {
		version := uint32(5)
		if g.variant == ealayer3.VariantV6 {
			version = 6
		}

		w.WriteBits(version, 4)
		w.WriteBits(uint32(g.streamCount-1), 4)
		w.WriteBits(uint32(pf.streamIndex), streamIndexBits)

		for _, gr := range pf.frame.Granules {
			writeGranule(w, gr, g.variant)
		}
	}

	w.WriteToNextByte()

	g.log.Debug("generated block", "sub-frames", len(g.pending), "bytes", w.Tell()/8)

	g.pending = g.pending[:0]

	return w.BytesWritten(), nil
}

func writeGranule(w *bitio.Writer, gr ealayer3.Granule, variant ealayer3.Variant) {
	if !gr.Used {
		w.WriteBit(0)
		return
	}

	w.WriteBit(1)
	w.WriteBits(uint32(gr.Version), 2)
	w.WriteBits(uint32(gr.SampleRateIdx), 2)
	w.WriteBits(uint32(gr.ChannelMode), 2)

	switch {
	case variant == ealayer3.VariantV5:
		w.WriteBits(uint32(gr.ModeExtension), 2)
	case gr.ChannelMode == mpegaudio.ChannelJointStereo:
		w.WriteBits(uint32(gr.ModeExtension), 2)
	}

	channels := gr.Channels()

	for ch := 0; ch < channels; ch++ {
		var ci ealayer3.ChannelInfo
		if ch < len(gr.ChannelInfo) {
			ci = gr.ChannelInfo[ch]
		}

		sideInfo1Bits := uint(15)
		if gr.Version != mpegaudio.Version1 {
			sideInfo1Bits = 19
		}

		w.WriteBits(uint32(ci.Size), 12)
		w.WriteBits(ci.SideInfo[0], 32)
		w.WriteBits(ci.SideInfo[1], sideInfo1Bits)
	}

	if gr.Version == mpegaudio.Version1 && gr.Index == 1 {
		switch variant {
		case ealayer3.VariantV5:
			for ch := 0; ch < channels; ch++ {
				var scfsi uint8
				if ch < len(gr.ChannelInfo) {
					scfsi = gr.ChannelInfo[ch].Scfsi
				}

				w.WriteBits(uint32(scfsi), 4)
			}
		default:
			var shared uint8
			if len(gr.ChannelInfo) > 0 {
				shared = gr.ChannelInfo[0].Scfsi
			}

			w.WriteBits(uint32(shared), 4)
		}
	}

	w.WriteBits(0, mpegaudio.MainDataBeginBits(gr.Version)) // main_data_begin always 0, see Generator doc

	if gr.DataSizeBits == 0 {
		return
	}

	r := bitio.NewReader(gr.Data)

	remaining := gr.DataSizeBits
	for remaining > 0 {
		n := 32
		if remaining < n {
			n = remaining
		}

		w.WriteBits(r.ReadBits(uint(n)), uint(n))
		remaining -= n
	}

	w.WriteToNextByte()
}
