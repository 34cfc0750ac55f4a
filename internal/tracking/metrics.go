package tracking

import "math"

// Face mesh indices.
const (
	NoseTip    = 1
	UpperLip   = 13
	LowerLip   = 14
	MouthLeft  = 61
	MouthRight = 291
)

var (
	LeftEye  = [6]int{33, 160, 158, 133, 153, 144}
	RightEye = [6]int{362, 385, 387, 263, 373, 380}
)

// minMeshPoints is the smallest mesh that contains every index used here.
const minMeshPoints = 388

// BlinkThreshold is the averaged eye aspect ratio below which eyes count
// as closed.
const BlinkThreshold = 0.2

func dist(lm []Landmark, a, b int, w, h float64) float64 {
	dx := float64(lm[a].X-lm[b].X) * w
	dy := float64(lm[a].Y-lm[b].Y) * h
	return math.Hypot(dx, dy)
}

// MouthRatio is the lip gap divided by the mouth width, both measured in
// pixels of a w×h video.
func MouthRatio(lm []Landmark, w, h float64) float64 {
	if len(lm) < minMeshPoints {
		return 0
	}
	hd := dist(lm, MouthLeft, MouthRight, w, h)
	if hd == 0 {
		hd = 1e-6
	}
	return dist(lm, UpperLip, LowerLip, w, h) / hd
}

// EyeAspectRatio is the mean of the two vertical eyelid gaps over twice the
// eye width for the six points in idx.
func EyeAspectRatio(lm []Landmark, idx [6]int, w, h float64) float64 {
	if len(lm) < minMeshPoints {
		return 0
	}
	v1 := dist(lm, idx[1], idx[5], w, h)
	v2 := dist(lm, idx[2], idx[4], w, h)
	hd := dist(lm, idx[0], idx[3], w, h)
	if hd == 0 {
		hd = 1e-6
	}
	return (v1 + v2) / (2 * hd)
}

// HeadPose approximates yaw and pitch in [-1,1] from the nose position.
func HeadPose(lm []Landmark) (yaw, pitch float64) {
	if len(lm) <= NoseTip {
		return 0, 0
	}
	return (float64(lm[NoseTip].X) - 0.5) * 2, (float64(lm[NoseTip].Y) - 0.5) * 2
}

// BlinkTracker turns the per-frame eyes-closed reading into a blink edge:
// a blink fires on the frame the eyes open again.
type BlinkTracker struct {
	prev []bool
}

// Observe records face i's eye state and reports a completed blink.
func (b *BlinkTracker) Observe(i int, closed bool) bool {
	for len(b.prev) <= i {
		b.prev = append(b.prev, false)
	}
	blink := b.prev[i] && !closed
	b.prev[i] = closed
	return blink
}

// Reset forgets every face's previous state.
func (b *BlinkTracker) Reset() { b.prev = b.prev[:0] }
