package generator_test

import (
	"bytes"
	"testing"

	"github.com/mycophonic/ealayer3/ealayer3"
	"github.com/mycophonic/ealayer3/generator"
	"github.com/mycophonic/ealayer3/mpegaudio"
)

func monoGranule(data []byte, bits int, index int) ealayer3.Granule {
	return ealayer3.Granule{
		Index:         index,
		Used:          true,
		Version:       mpegaudio.Version1,
		SampleRateIdx: 0,
		SampleRate:    44100,
		ChannelMode:   mpegaudio.ChannelMono,
		ChannelInfo: []ealayer3.ChannelInfo{
			{Size: uint16(bits), SideInfo: [2]uint32{0xCAFEBABE, 0x2A}},
		},
		Data:         data,
		DataSizeBits: bits,
		DataSize:     (bits + 7) / 8,
	}
}

func TestGeneratorRoundTripsThroughParser(t *testing.T) {
	g := generator.New(1)

	fr := ealayer3.Frame{
		StreamIndex: 0,
		Granules: [2]ealayer3.Granule{
			monoGranule([]byte{0x11, 0x22}, 16, 0),
			monoGranule([]byte{0x33, 0x44}, 16, 1),
		},
	}

	if err := g.AddFrame(0, fr); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}

	payload, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	p := ealayer3.New()

	var got []ealayer3.Frame
	err = p.ParseBlock(payload, func(f ealayer3.Frame) error {
		got = append(got, f)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseBlock() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}

	gotFrame := got[0]
	if gotFrame.StreamIndex != 0 {
		t.Fatalf("StreamIndex = %d, want 0", gotFrame.StreamIndex)
	}

	for gi, want := range fr.Granules {
		g := gotFrame.Granules[gi]

		if !bytes.Equal(g.Data, want.Data) {
			t.Fatalf("granule %d Data = %v, want %v", gi, g.Data, want.Data)
		}

		if g.ChannelInfo[0].SideInfo != want.ChannelInfo[0].SideInfo {
			t.Fatalf("granule %d SideInfo = %v, want %v", gi, g.ChannelInfo[0].SideInfo, want.ChannelInfo[0].SideInfo)
		}
	}
}

func TestGeneratorMultiStreamIndexing(t *testing.T) {
	g := generator.New(3)

	fr1 := ealayer3.Frame{Granules: [2]ealayer3.Granule{monoGranule([]byte{0x01}, 8, 0), {Index: 1}}}
	fr2 := ealayer3.Frame{Granules: [2]ealayer3.Granule{monoGranule([]byte{0x02}, 8, 0), {Index: 1}}}

	if err := g.AddFrame(2, fr1); err != nil {
		t.Fatalf("AddFrame(2) error = %v", err)
	}

	if err := g.AddFrame(0, fr2); err != nil {
		t.Fatalf("AddFrame(0) error = %v", err)
	}

	if err := g.AddFrame(3, fr2); err == nil {
		t.Fatalf("AddFrame(3) on a 3-stream generator should have failed")
	}

	payload, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	p := ealayer3.New()

	var indices []int
	err = p.ParseBlock(payload, func(f ealayer3.Frame) error {
		indices = append(indices, f.StreamIndex)
		return nil
	})
	if err != nil {
		t.Fatalf("ParseBlock() error = %v", err)
	}

	if len(indices) != 2 || indices[0] != 2 || indices[1] != 0 {
		t.Fatalf("stream indices = %v, want [2 0]", indices)
	}

	if g.Pending() != 0 {
		t.Fatalf("Pending() after Generate() = %d, want 0", g.Pending())
	}
}

func TestGeneratorMainDataBeginAlwaysZero(t *testing.T) {
	g := generator.New(1)

	fr := ealayer3.Frame{Granules: [2]ealayer3.Granule{monoGranule([]byte{0xAA, 0xBB, 0xCC}, 24, 0), {Index: 1}}}

	if err := g.AddFrame(0, fr); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}

	first, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if err := g.AddFrame(0, fr); err != nil {
		t.Fatalf("AddFrame() error = %v", err)
	}

	second, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	p := ealayer3.New()

	var reservoirAfterFirst int
	err = p.ParseBlock(first, func(f ealayer3.Frame) error {
		reservoirAfterFirst = p.ReservoirUsed()
		return nil
	})
	if err != nil {
		t.Fatalf("ParseBlock(first) error = %v", err)
	}

	if reservoirAfterFirst == 0 {
		t.Fatalf("reservoir should hold the first block's granule bytes")
	}

	err = p.ParseBlock(second, func(f ealayer3.Frame) error {
		if !bytes.Equal(f.Granules[0].Data, []byte{0xAA, 0xBB, 0xCC}) {
			t.Fatalf("second block's granule should decode from its own fresh bytes, got %v", f.Granules[0].Data)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("ParseBlock(second) error = %v", err)
	}
}
