package sim

import "math"

// epsilon stands in for a zero distance when normalizing a direction.
const epsilon = 1e-6

// Vec is a 2D point or direction in canvas pixels.
type Vec struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

// V is shorthand for Vec{x, y}.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (a Vec) Add(b Vec) Vec       { return Vec{a.X + b.X, a.Y + b.Y} }
func (a Vec) Sub(b Vec) Vec       { return Vec{a.X - b.X, a.Y - b.Y} }
func (a Vec) Scale(k float64) Vec { return Vec{a.X * k, a.Y * k} }
func (a Vec) Len() float64        { return math.Hypot(a.X, a.Y) }
func (a Vec) Dist(b Vec) float64  { return math.Hypot(b.X-a.X, b.Y-a.Y) }
func (a Vec) Perp() Vec           { return Vec{-a.Y, a.X} }

// Within reports whether b lies strictly inside the circle of radius r around a.
func (a Vec) Within(b Vec, r float64) bool { return a.Dist(b) < r }

// Finite reports whether both components are real numbers.
func (a Vec) Finite() bool {
	return !math.IsNaN(a.X) && !math.IsNaN(a.Y) && !math.IsInf(a.X, 0) && !math.IsInf(a.Y, 0)
}

// Dir returns the unit vector from a toward b. When the points coincide the
// distance is replaced by epsilon, so the result is the zero vector.
func (a Vec) Dir(b Vec) Vec {
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		d = epsilon
	}
	return Vec{dx / d, dy / d}
}

// Polar returns a vector of length r at angle a.
func Polar(a, r float64) Vec {
	return Vec{math.Cos(a) * r, math.Sin(a) * r}
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

func deg(d float64) float64 { return d * math.Pi / 180 }
