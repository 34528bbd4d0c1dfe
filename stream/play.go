package stream

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// Play streams pcm to the default audio output device and blocks until
// playback finishes. It is the --play enrichment: a quick-listen path that
// bypasses writing an output file entirely.
func Play(pcm *PcmOutputStream) error {
	format := pcm.Format()

	ctx, ready, err := oto.NewContext(format.SampleRate, format.Channels, BytesPerSample)
	if err != nil {
		return fmt.Errorf("stream: creating audio context: %w", err)
	}

	<-ready

	player := ctx.NewPlayer(pcm)
	defer player.Close()

	player.Play()

	for player.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}

	return nil
}
