package quilt

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

// newTestTarget builds a one-row view over a texture whose columns map
// one-to-one onto screen columns at zero rotation.
func newTestTarget(t *testing.T, width int, debug DebugFlags) (*viewTarget, *image.RGBA) {
	t.Helper()
	tex := image.NewRGBA(image.Rect(0, 0, width, 1))
	for x := 0; x < width; x++ {
		v := uint8(x * 255 / (width - 1))
		tex.SetRGBA(x, 0, color.RGBA{R: v, G: v, B: v, A: 255})
	}
	cam := Camera{Zoom: 1, ViewWidth: width, ViewHeight: 1, ZScale: 1}
	return newViewTarget(cam, tex, color.RGBA{A: 255}, debug), tex
}

func painted(v *viewTarget) []int {
	var cols []int
	for x, z := range v.zbuf {
		if !math.IsInf(float64(z), -1) {
			cols = append(cols, x)
		}
	}
	return cols
}

// TestEaseRange verifies the easing curve is anchored at 0 and 1 and stays in range.
func TestEaseRange(t *testing.T) {
	weights := [][2]float32{{0, 0}, {0.5, 0.5}, {0.1666, 0.5}, {1, 0.3333}, {1, 1}}
	for _, w := range weights {
		if got := ease(0, w[0], w[1]); got != 0 {
			t.Errorf("ease(0, %v, %v) = %v; want 0", w[0], w[1], got)
		}
		if got := ease(1, w[0], w[1]); math.Abs(float64(got-1)) > 1e-6 {
			t.Errorf("ease(1, %v, %v) = %v; want 1", w[0], w[1], got)
		}
		for i := 0; i <= 100; i++ {
			tt := float32(i) / 100
			if e := ease(tt, w[0], w[1]); e < 0 || e > 1 {
				t.Errorf("ease(%v, %v, %v) = %v; want within [0,1]", tt, w[0], w[1], e)
			}
		}
	}
}

// TestBlendWeights verifies the brighter endpoint's weight is sharpened.
func TestBlendWeights(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}

	w1, w2 := blendWeights(white, black)
	if w1 != 1 || math.Abs(float64(w2-sharpness)) > 1e-6 {
		t.Errorf("blendWeights(white, black) = %v, %v; want 1, %v", w1, w2, sharpness)
	}

	w1, w2 = blendWeights(black, white)
	if w1 != 0 || w2 != 0 {
		t.Errorf("blendWeights(black, white) = %v, %v; want 0, 0", w1, w2)
	}

	w1, w2 = blendWeights(black, black)
	if math.IsNaN(float64(w1)) || math.IsNaN(float64(w2)) {
		t.Fatalf("blendWeights(black, black) produced NaN")
	}
}

// TestGapFillBoundary verifies adjacent samples are not interpolated and that
// a gap of n columns receives exactly n-1 interpolated pixels.
func TestGapFillBoundary(t *testing.T) {
	tests := []struct {
		name        string
		prevX, curX int
		want        []int
	}{
		{"adjacent", 2, 3, []int{2, 3}},
		{"same column", 4, 4, []int{4}},
		{"gap of two", 2, 4, []int{2, 3, 4}},
		{"gap of five ascending", 1, 6, []int{1, 2, 3, 4, 5, 6}},
		{"gap of three descending", 8, 5, []int{5, 6, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestTarget(t, 10, NullDebugFlags{})
			prev, ok := v.renderPx(tt.prevX, 0, 0, 0, prevRender{}, false)
			if !ok {
				t.Fatalf("renderPx(%d) fell off screen", tt.prevX)
			}
			if _, ok := v.renderPx(tt.curX, 0, 0, 0, prev, true); !ok {
				t.Fatalf("renderPx(%d) fell off screen", tt.curX)
			}
			got := painted(v)
			if len(got) != len(tt.want) {
				t.Fatalf("painted columns = %v; want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("painted columns = %v; want %v", got, tt.want)
				}
			}
		})
	}
}

// TestGapFillGradient verifies interpolated colors lie between the endpoints
// and run from the larger column toward the smaller one.
func TestGapFillGradient(t *testing.T) {
	v, tex := newTestTarget(t, 10, NullDebugFlags{})
	prev, _ := v.renderPx(1, 0, 0, 0, prevRender{}, false)
	v.renderPx(8, 0, 0, 0, prev, true)

	lo, hi := tex.RGBAAt(1, 0).R, tex.RGBAAt(8, 0).R
	last := hi
	for x := 7; x >= 2; x-- {
		c := v.img.RGBAAt(x, 0)
		if c.R < lo || c.R > hi {
			t.Errorf("pixel %d = %d; want within [%d, %d]", x, c.R, lo, hi)
		}
		if c.R > last {
			t.Errorf("pixel %d = %d brighter than pixel %d = %d", x, c.R, x+1, last)
		}
		last = c.R
	}
}

// TestGapFillDebugPoints verifies endpoint markers are stamped on the start
// (larger) and end (smaller) columns.
func TestGapFillDebugPoints(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	v, _ := newTestTarget(t, 10, CLIDebugFlags{StartPt: &red, EndPt: &blue})

	prev, _ := v.renderPx(2, 0, 0, 0, prevRender{}, false)
	v.renderPx(6, 0, 0, 0, prev, true)

	if got := v.img.RGBAAt(6, 0); got != red {
		t.Errorf("start column = %v; want %v", got, red)
	}
	if got := v.img.RGBAAt(2, 0); got != blue {
		t.Errorf("end column = %v; want %v", got, blue)
	}
}

// TestRenderPxOffScreen verifies samples left of the view reset the row state.
func TestRenderPxOffScreen(t *testing.T) {
	tex := image.NewRGBA(image.Rect(0, 0, 10, 1))
	cam := Camera{Zoom: 4, ViewWidth: 10, ViewHeight: 1, ZScale: 1}
	v := newViewTarget(cam, tex, color.RGBA{A: 255}, NullDebugFlags{})

	if _, ok := v.renderPx(0, 0, 0, 0, prevRender{x: 3}, true); ok {
		t.Error("renderPx left of the view returned a row state")
	}
	if cols := painted(v); len(cols) != 0 {
		t.Errorf("painted columns = %v; want none", cols)
	}
}

// TestZBufferMonotonic verifies no z-buffer cell ever decreases while a view
// is rendered.
func TestZBufferMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const w, h = 24, 8
	tex := image.NewRGBA(image.Rect(0, 0, w, h))
	heights := make([]float32, w*h)
	for i := range heights {
		heights[i] = float32(rng.Intn(256))
		tex.Pix[i*4] = uint8(rng.Intn(256))
		tex.Pix[i*4+3] = 255
	}

	for _, theta := range []float32{-0.5, -0.1, 0.2, 0.6} {
		cam := Camera{Zoom: 1.2, ViewWidth: 30, ViewHeight: h, ViewTheta: theta, ZScale: 0.2}
		v := newViewTarget(cam, tex, color.RGBA{A: 255}, NullDebugFlags{})
		snapshot := make([]float32, len(v.zbuf))
		for y := 0; y < h; y++ {
			var prev prevRender
			ok := false
			for x := 0; x < w; x++ {
				copy(snapshot, v.zbuf)
				prev, ok = v.renderPx(x, y, y, heights[y*w+x], prev, ok)
				for i := range snapshot {
					if v.zbuf[i] < snapshot[i] {
						t.Fatalf("theta %v: z-buffer cell %d decreased from %v to %v", theta, i, snapshot[i], v.zbuf[i])
					}
				}
			}
		}
	}
}
