package quilt

import "math"

// Camera describes one virtual camera looking at the displaced texture plane.
type Camera struct {
	Zoom       float32
	ViewWidth  int
	ViewHeight int
	// ViewTheta is the rotation about the vertical axis, in radians.
	ViewTheta float32
	ZScale    float32
}

// Rotations returns n camera angles sweeping linearly across fovDeg, centered
// on zero and inclusive of both extremes. A single view looks straight ahead.
func Rotations(n int, fovDeg float32) []float32 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float32{0}
	}
	fovSize := fovDeg / 360 * math.Pi
	fovLow := -fovSize / 2
	thetas := make([]float32, n)
	for i := range thetas {
		thetas[i] = fovSize*float32(i)/float32(n-1) + fovLow
	}
	return thetas
}

func degrees(rad float32) float32 {
	return rad / math.Pi * 180
}
