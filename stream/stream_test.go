package stream_test

import (
	"errors"
	"io"
	"testing"

	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/mpegaudio"
	"github.com/mycophonic/ealayer3/stream"
)

func monoFrame(data []byte, bits int) ealayer3.Frame {
	return ealayer3.Frame{
		Granules: [2]ealayer3.Granule{
			{
				Used:          true,
				Version:       mpegaudio.Version1,
				SampleRateIdx: 0,
				SampleRate:    44100,
				ChannelMode:   mpegaudio.ChannelMono,
				ChannelInfo: []ealayer3.ChannelInfo{
					{Size: uint16(bits), SideInfo: [2]uint32{0x1, 0x2}},
				},
				Data:         data,
				DataSizeBits: bits,
				DataSize:     (bits + 7) / 8,
			},
			{Index: 1},
		},
	}
}

func TestMpegOutputStreamPullsUntilExhausted(t *testing.T) {
	frames := []ealayer3.Frame{
		monoFrame([]byte{0x11, 0x22}, 16),
		monoFrame([]byte{0x33, 0x44}, 16),
	}

	idx := 0
	src := func() (ealayer3.Frame, bool, error) {
		if idx >= len(frames) {
			return ealayer3.Frame{}, false, nil
		}

		fr := frames[idx]
		idx++

		return fr, true, nil
	}

	s := stream.NewMpegOutputStream(src)

	var out []byte

	buf := make([]byte, 7) // deliberately not frame-aligned

	for {
		n, err := s.Read(buf)
		out = append(out, buf[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}

	if !s.Eos() {
		t.Fatalf("Eos() = false after draining to io.EOF")
	}

	if len(out) == 0 || out[0] != 0xFF {
		t.Fatalf("out[0] = %#x, want 0xFF sync byte", out[0])
	}
}

func TestMpegOutputStreamPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")

	src := func() (ealayer3.Frame, bool, error) {
		return ealayer3.Frame{}, false, boom
	}

	s := stream.NewMpegOutputStream(src)

	_, err := s.Read(make([]byte, 16))
	if !errors.Is(err, boom) {
		t.Fatalf("Read() error = %v, want %v", err, boom)
	}
}
