package voice

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// DefaultSampleRate matches the tracker client's capture rate.
const DefaultSampleRate = beep.SampleRate(16000)

// Meter turns PCM chunks into a loudness level in [0,1]: the RMS of the
// chunk's last Window of audio, scaled by Gain. It is safe for concurrent use; the
// websocket reader feeds it while the game loop reads Level.
type Meter struct {
	Rate   beep.SampleRate
	Window time.Duration
	Gain   float64 // linear; 1 leaves the signal unchanged

	mu    sync.Mutex
	level float64
	buf   [][2]float64
}

// NewMeter returns a meter over a 64ms window at unity gain.
func NewMeter(rate beep.SampleRate) *Meter {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Meter{Rate: rate, Window: 64 * time.Millisecond, Gain: 1}
}

// Feed measures one PCM chunk and stores the result as the current level.
func (m *Meter) Feed(pcm []byte) (float64, error) {
	if len(pcm)%2 != 0 {
		return m.Level(), ErrOddFrame
	}
	if n := 2 * m.Rate.N(m.Window); n > 0 && len(pcm) > n {
		pcm = pcm[len(pcm)-n:]
	}
	level := m.measure(NewPCMStreamer(pcm))

	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
	return level, nil
}

// measure streams at most one window of s through the gain stage and
// returns its clamped RMS.
func (m *Meter) measure(s beep.Streamer) float64 {
	n := m.Rate.N(m.Window)
	if n <= 0 {
		return 0
	}
	s = withGain(beep.Take(n, s), m.Gain)
	if cap(m.buf) < 512 {
		m.buf = make([][2]float64, 512)
	}
	var sum float64
	var count int
	for {
		got, ok := s.Stream(m.buf)
		for _, smp := range m.buf[:got] {
			sum += smp[0] * smp[0]
		}
		count += got
		if !ok || got == 0 {
			break
		}
	}
	if count == 0 {
		return 0
	}
	return math.Min(1, math.Sqrt(sum/float64(count)))
}

// Level returns the most recent measurement.
func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Reset drops the stored level, for example when the tracker disconnects.
func (m *Meter) Reset() {
	m.mu.Lock()
	m.level = 0
	m.mu.Unlock()
}

// withGain applies a linear gain through a base-2 volume effect. Zero or
// negative gain silences the stream.
func withGain(s beep.Streamer, gain float64) beep.Streamer {
	if gain == 1 {
		return s
	}
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}
