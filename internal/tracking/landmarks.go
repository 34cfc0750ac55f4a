// Package tracking turns raw face and hand landmarks into the per-face
// metrics the simulation consumes.
package tracking

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Landmark is one tracked point in normalized [0,1] video coordinates.
type Landmark struct {
	X, Y float32
}

// Frame is one decoded landmark block: every detected face mesh and hand,
// plus the video size the coordinates were measured against.
type Frame struct {
	VideoW, VideoH float64
	Faces          [][]Landmark
	Hands          [][]Landmark
}

var (
	ErrShortFrame = errors.New("tracking: landmark block truncated")
	ErrBadCount   = errors.New("tracking: landmark count out of range")
)

const (
	maxFaces        = 8
	maxHands        = 8
	maxMeshPoints   = 478
	maxHandPoints   = 21
	landmarkSize    = 8
	frameHeaderSize = 6
)

// Decode parses a landmark block. All integers and floats are little-endian:
//
//	u16 videoW, u16 videoH, u8 faces, u8 hands
//	per face: u16 n, n × (f32 x, f32 y)
//	per hand: u16 n, n × (f32 x, f32 y)
func Decode(b []byte) (Frame, error) {
	var f Frame
	if len(b) < frameHeaderSize {
		return f, ErrShortFrame
	}
	f.VideoW = float64(binary.LittleEndian.Uint16(b[0:]))
	f.VideoH = float64(binary.LittleEndian.Uint16(b[2:]))
	nf, nh := int(b[4]), int(b[5])
	if nf > maxFaces || nh > maxHands {
		return f, fmt.Errorf("%w: %d faces, %d hands", ErrBadCount, nf, nh)
	}
	off := frameHeaderSize
	var err error
	for i := 0; i < nf; i++ {
		var pts []Landmark
		if pts, off, err = readPoints(b, off, maxMeshPoints); err != nil {
			return f, fmt.Errorf("face %d: %w", i, err)
		}
		f.Faces = append(f.Faces, pts)
	}
	for i := 0; i < nh; i++ {
		var pts []Landmark
		if pts, off, err = readPoints(b, off, maxHandPoints); err != nil {
			return f, fmt.Errorf("hand %d: %w", i, err)
		}
		f.Hands = append(f.Hands, pts)
	}
	return f, nil
}

func readPoints(b []byte, off, limit int) ([]Landmark, int, error) {
	if len(b) < off+2 {
		return nil, off, ErrShortFrame
	}
	n := int(binary.LittleEndian.Uint16(b[off:]))
	off += 2
	if n > limit {
		return nil, off, fmt.Errorf("%w: %d points", ErrBadCount, n)
	}
	if len(b) < off+n*landmarkSize {
		return nil, off, ErrShortFrame
	}
	pts := make([]Landmark, n)
	for i := range pts {
		pts[i].X = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		pts[i].Y = math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:]))
		off += landmarkSize
	}
	return pts, off, nil
}

// Encode is the inverse of Decode. Trackers written in Go and the tests use
// it; the browser client builds the same layout by hand.
func Encode(f Frame) []byte {
	size := frameHeaderSize
	for _, pts := range f.Faces {
		size += 2 + len(pts)*landmarkSize
	}
	for _, pts := range f.Hands {
		size += 2 + len(pts)*landmarkSize
	}
	b := make([]byte, size)
	binary.LittleEndian.PutUint16(b[0:], uint16(f.VideoW))
	binary.LittleEndian.PutUint16(b[2:], uint16(f.VideoH))
	b[4], b[5] = byte(len(f.Faces)), byte(len(f.Hands))
	off := frameHeaderSize
	put := func(pts []Landmark) {
		binary.LittleEndian.PutUint16(b[off:], uint16(len(pts)))
		off += 2
		for _, p := range pts {
			binary.LittleEndian.PutUint32(b[off:], math.Float32bits(p.X))
			binary.LittleEndian.PutUint32(b[off+4:], math.Float32bits(p.Y))
			off += landmarkSize
		}
	}
	for _, pts := range f.Faces {
		put(pts)
	}
	for _, pts := range f.Hands {
		put(pts)
	}
	return b
}
