// Package voice measures microphone loudness from raw PCM sent by the
// tracker client.
package voice

import (
	"encoding/binary"
	"errors"

	"github.com/gopxl/beep"
)

// ErrOddFrame reports a PCM payload that is not a whole number of 16-bit
// samples.
var ErrOddFrame = errors.New("voice: pcm payload has an odd byte count")

// pcmStreamer plays little-endian signed 16-bit mono PCM as a beep stream,
// duplicating the channel.
type pcmStreamer struct {
	data []byte
	pos  int
}

// NewPCMStreamer wraps pcm. The trailing byte of an odd-length payload is
// ignored.
func NewPCMStreamer(pcm []byte) beep.Streamer {
	return &pcmStreamer{data: pcm[:len(pcm)&^1]}
}

func (p *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if p.pos+2 > len(p.data) {
			return i, i > 0
		}
		v := float64(int16(binary.LittleEndian.Uint16(p.data[p.pos:]))) / 32768
		samples[i][0] = v
		samples[i][1] = v
		p.pos += 2
	}
	return len(samples), true
}

func (p *pcmStreamer) Err() error { return nil }
