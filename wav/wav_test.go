package wav_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mycophonic/ealayer3/wav"
)

func TestWriteHeaderFields(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}

	var buf bytes.Buffer
	if err := wav.Write(&buf, pcm, 44100, 2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.Bytes()

	if len(out) != 44+len(pcm) {
		t.Fatalf("len(out) = %d, want %d", len(out), 44+len(pcm))
	}

	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers: %q", out[0:12])
	}

	if string(out[12:16]) != "fmt " || string(out[36:40]) != "data" {
		t.Fatalf("missing fmt /data chunk ids: %q %q", out[12:16], out[36:40])
	}

	if got := binary.LittleEndian.Uint16(out[22:24]); got != 2 {
		t.Fatalf("channels = %d, want 2", got)
	}

	if got := binary.LittleEndian.Uint32(out[24:28]); got != 44100 {
		t.Fatalf("sampleRate = %d, want 44100", got)
	}

	if got := binary.LittleEndian.Uint16(out[34:36]); got != 16 {
		t.Fatalf("bitsPerSample = %d, want 16", got)
	}

	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("dataSize = %d, want %d", got, len(pcm))
	}

	if !bytes.Equal(out[44:], pcm) {
		t.Fatalf("body = %v, want %v", out[44:], pcm)
	}
}
