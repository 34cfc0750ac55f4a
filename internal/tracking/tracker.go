package tracking

import (
	"math"

	"github.com/toddllm/face-controls/internal/sim"
)

// Metrics is everything measured for one face in one frame.
type Metrics struct {
	Yaw, Pitch     float64
	MouthOpenRatio float64
	EAR            float64
	EyesClosed     bool
	Blink          bool
	Pos            sim.Vec // nose tip in canvas pixels
}

// Tracker converts decoded landmark frames into simulation input. It keeps
// per-face blink state between frames, so one Tracker serves one camera.
type Tracker struct {
	Threshold float64
	blinks    BlinkTracker
}

// NewTracker returns a tracker using BlinkThreshold.
func NewTracker() *Tracker { return &Tracker{Threshold: BlinkThreshold} }

// Measure computes metrics for face i of f, scaled into a w×h canvas.
func (t *Tracker) Measure(i int, lm []Landmark, f Frame, w, h float64) Metrics {
	vw, vh := f.VideoW, f.VideoH
	if vw <= 0 {
		vw = 640
	}
	if vh <= 0 {
		vh = 480
	}
	var m Metrics
	m.Yaw, m.Pitch = HeadPose(lm)
	m.MouthOpenRatio = MouthRatio(lm, vw, vh)
	m.EAR = (EyeAspectRatio(lm, LeftEye, vw, vh) + EyeAspectRatio(lm, RightEye, vw, vh)) / 2
	m.EyesClosed = len(lm) >= minMeshPoints && m.EAR < t.Threshold
	m.Blink = t.blinks.Observe(i, m.EyesClosed)
	if len(lm) > NoseTip {
		m.Pos = sim.V(float64(lm[NoseTip].X)*w, float64(lm[NoseTip].Y)*h)
	}
	return m
}

// Input builds the simulation input for f on a w×h canvas. Hands are
// reported at their wrist point. amp is passed through unchanged.
func (t *Tracker) Input(f Frame, w, h, amp float64) sim.Input {
	in := sim.Input{Amplitude: amp, Width: w, Height: h}
	for i, lm := range f.Faces {
		if len(lm) < minMeshPoints {
			continue
		}
		m := t.Measure(i, lm, f, w, h)
		in.Faces = append(in.Faces, sim.Face{
			MouthOpenRatio: m.MouthOpenRatio,
			EyesClosed:     m.EyesClosed,
			Blink:          m.Blink,
			Pos:            m.Pos,
		})
	}
	for _, lm := range f.Hands {
		if len(lm) == 0 {
			continue
		}
		p := sim.V(float64(lm[0].X)*w, float64(lm[0].Y)*h)
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		in.Hands = append(in.Hands, p)
	}
	return in
}

// Reset clears blink state, for example when the tracker reconnects.
func (t *Tracker) Reset() { t.blinks.Reset() }
