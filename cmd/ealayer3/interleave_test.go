package main

import (
	"bytes"
	"testing"
)

func TestInterleavePCM(t *testing.T) {
	// streamA: stereo, 2 frames: (L=0x0001, R=0x0002), (L=0x0003, R=0x0004)
	streamA := decodedStream{
		channels: 2,
		pcm:      []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00},
	}

	// streamB: mono, 1 frame: (0x00AA) — shorter than streamA, so its
	// second output frame must come out zero-padded.
	streamB := decodedStream{
		channels: 1,
		pcm:      []byte{0xAA, 0x00},
	}

	got := interleavePCM([]decodedStream{streamA, streamB}, 3)

	want := []byte{
		0x01, 0x00, 0x02, 0x00, 0xAA, 0x00, // frame 0: L, R, mono
		0x03, 0x00, 0x04, 0x00, 0x00, 0x00, // frame 1: L, R, zero-padded
	}

	if !bytes.Equal(got, want) {
		t.Fatalf("interleavePCM() = %v, want %v", got, want)
	}
}

func TestInterleavePCMSkipsZeroChannelStream(t *testing.T) {
	streamA := decodedStream{
		channels: 1,
		pcm:      []byte{0x01, 0x00, 0x02, 0x00},
	}

	empty := decodedStream{channels: 0, pcm: nil}

	got := interleavePCM([]decodedStream{streamA, empty}, 1)

	want := []byte{0x01, 0x00, 0x02, 0x00}

	if !bytes.Equal(got, want) {
		t.Fatalf("interleavePCM() = %v, want %v", got, want)
	}
}
