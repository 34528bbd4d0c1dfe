package mpegaudio_test

import (
	"testing"

	"github.com/mycophonic/ealayer3/mpegaudio"
)

func TestSampleRate(t *testing.T) {
	if got := mpegaudio.SampleRate(mpegaudio.Version1, 0); got != 44100 {
		t.Fatalf("SampleRate(MPEG1, 0) = %d, want 44100", got)
	}

	if got := mpegaudio.SampleRate(mpegaudio.Version2_5, 2); got != 8000 {
		t.Fatalf("SampleRate(MPEG2.5, 2) = %d, want 8000", got)
	}
}

func TestFrameSizePadding(t *testing.T) {
	// sample_rate=44100, bitrate=128000: frames alternate 417/418 bytes.
	bitrate := mpegaudio.Bitrate(mpegaudio.Version1, 9)
	if bitrate != 128000 {
		t.Fatalf("Bitrate(MPEG1, 9) = %d, want 128000", bitrate)
	}

	if got := mpegaudio.FrameSize(mpegaudio.Version1, bitrate, 44100, false); got != 417 {
		t.Fatalf("FrameSize without padding = %d, want 417", got)
	}

	if got := mpegaudio.FrameSize(mpegaudio.Version1, bitrate, 44100, true); got != 418 {
		t.Fatalf("FrameSize with padding = %d, want 418", got)
	}
}

func TestSideInfoSize(t *testing.T) {
	cases := []struct {
		v        mpegaudio.Version
		channels int
		want     int
	}{
		{mpegaudio.Version1, 1, 17},
		{mpegaudio.Version1, 2, 32},
		{mpegaudio.Version2, 1, 9},
		{mpegaudio.Version2, 2, 17},
		{mpegaudio.Version2_5, 2, 17},
	}

	for _, c := range cases {
		if got := mpegaudio.SideInfoSize(c.v, c.channels); got != c.want {
			t.Errorf("SideInfoSize(%v, %d) = %d, want %d", c.v, c.channels, got, c.want)
		}
	}
}

func TestPrivateBitsAndMainDataBeginBits(t *testing.T) {
	if got := mpegaudio.MainDataBeginBits(mpegaudio.Version1); got != 9 {
		t.Fatalf("MainDataBeginBits(MPEG1) = %d, want 9", got)
	}

	if got := mpegaudio.MainDataBeginBits(mpegaudio.Version2); got != 8 {
		t.Fatalf("MainDataBeginBits(MPEG2) = %d, want 8", got)
	}

	if got := mpegaudio.PrivateBits(mpegaudio.Version1, 1); got != 5 {
		t.Fatalf("PrivateBits(MPEG1, mono) = %d, want 5", got)
	}

	if got := mpegaudio.PrivateBits(mpegaudio.Version2, 2); got != 2 {
		t.Fatalf("PrivateBits(MPEG2, stereo) = %d, want 2", got)
	}
}
