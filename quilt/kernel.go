package quilt

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// gapEpsilon keeps the interpolation parameter finite for tiny gaps.
	gapEpsilon = 1e-5
	// sharpness shortens the blend on the brighter side of a gap so bright
	// foreground edges do not bleed into a darker background.
	sharpness = 0.3333
)

// prevRender is the last sample projected on the current scan row.
type prevRender struct {
	x     int
	z     float32
	color color.RGBA
}

// viewTarget is the mutable state of one view render: its framebuffer and
// z-buffer, plus the read-only inputs the kernel samples.
type viewTarget struct {
	img    *image.RGBA
	zbuf   []float32
	cam    Camera
	rot    mgl32.Mat2
	texW   int
	colors *image.RGBA
	blank  bool
	debug  DebugFlags
}

func newViewTarget(cam Camera, colors *image.RGBA, bg color.RGBA, debug DebugFlags) *viewTarget {
	img := image.NewRGBA(image.Rect(0, 0, cam.ViewWidth, cam.ViewHeight))
	fill(img, bg)
	zbuf := make([]float32, cam.ViewWidth*cam.ViewHeight)
	negInf := float32(math.Inf(-1))
	for i := range zbuf {
		zbuf[i] = negInf
	}
	return &viewTarget{
		img:    img,
		zbuf:   zbuf,
		cam:    cam,
		rot:    mgl32.Rotate2D(cam.ViewTheta),
		texW:   colors.Bounds().Dx(),
		colors: colors,
		debug:  debug,
	}
}

// project maps a texture column and height sample to its rotated view-space
// depth and unrounded screen column.
func (v *viewTarget) project(texX int, height float32) (ptZ, screenX float32) {
	xImg := float32(texX) - float32(v.texW)/2
	pt := v.rot.Mul2x1(mgl32.Vec2{height * v.cam.ZScale, xImg})
	vw := float32(v.cam.ViewWidth)
	return pt[0], pt[1]*v.cam.Zoom*(vw/float32(v.texW)) + vw/2
}

// renderPx projects one texture sample onto screenY, z-tests it and fills the
// gap back to the previous sample on the row. It returns the new row state;
// ok is false when the sample fell off the left edge.
func (v *viewTarget) renderPx(texX, texY, screenY int, height float32, prev prevRender, hasPrev bool) (next prevRender, ok bool) {
	c := v.colorAt(texX, texY)
	ptZ, sx := v.project(texX, height)
	sx = float32(math.Round(float64(sx)))
	if sx < 0 {
		return prevRender{}, false
	}
	screenX := int(sx)
	if screenX < v.cam.ViewWidth {
		v.plot(screenX, screenY, ptZ, c)
	}

	if hasPrev {
		cur := prevRender{x: screenX, z: ptZ, color: c}
		start, end := cur, prev
		if prev.x > screenX {
			start, end = prev, cur
		}
		if start.x-end.x >= 2 {
			v.fillGap(start, end, screenY)
		}
	}

	return prevRender{x: screenX, z: ptZ, color: c}, true
}

// fillGap interpolates every column strictly between end.x and start.x. The
// parameter runs from 0 at start (the larger column) to 1 at end.
func (v *viewTarget) fillGap(start, end prevRender, screenY int) {
	n := start.x - end.x
	w1, w2 := blendWeights(start.color, end.color)
	for x := end.x + 1; x < start.x; x++ {
		if x >= v.cam.ViewWidth {
			continue
		}
		rawT := clamp01(float32(start.x-x) / (float32(n) + gapEpsilon))
		easedT := ease(rawT, w1, w2)
		z := start.z + (end.z-start.z)*rawT
		v.plot(x, screenY, z, lerpColor(start.color, end.color, easedT))
	}

	if c, ok := v.debug.StartPointColor(); ok && start.x < v.cam.ViewWidth {
		v.img.SetRGBA(start.x, screenY, c)
	}
	if c, ok := v.debug.EndPointColor(); ok && end.x < v.cam.ViewWidth {
		v.img.SetRGBA(end.x, screenY, c)
	}
}

// plot writes c at (x, y) when z is nearer than what the z-buffer holds.
func (v *viewTarget) plot(x, y int, z float32, c color.RGBA) {
	i := y*v.cam.ViewWidth + x
	if z <= v.zbuf[i] {
		return
	}
	v.zbuf[i] = z
	v.img.SetRGBA(x, y, c)
}

func (v *viewTarget) colorAt(texX, texY int) color.RGBA {
	if v.blank {
		return color.RGBA{A: 255}
	}
	c := rgbAt(v.colors, texX, texY)
	c.A = 255
	return c
}

// blendWeights derives the control weights of the easing curve from the
// luminance of both endpoints.
func blendWeights(start, end color.RGBA) (w1, w2 float32) {
	ls, le := luminance(start), luminance(end)
	w1, w2 = 0.5, 0.5
	if sum := ls + le; sum > 0 {
		w1 = ls / sum
		w2 = 1 - le/sum
	}
	if ls > le {
		w2 *= sharpness
	} else {
		w1 *= sharpness
	}
	return w1, w2
}

// luminance returns the relative luminance of c in [0,1].
func luminance(c color.RGBA) float32 {
	return (0.2126*float32(c.R) + 0.7152*float32(c.G) + 0.0722*float32(c.B)) / 255
}

// bezier2 evaluates a quadratic Bézier curve at t.
func bezier2(t, p0, p1, p2 float32) float32 {
	return (1-t)*((1-t)*p0+t*p1) + t*((1-t)*p1+t*p2)
}

// ease is a cubic Bézier built from two quadratics with control weights w1, w2.
// It maps 0 to 0 and 1 to 1.
func ease(t, w1, w2 float32) float32 {
	return (1-t)*bezier2(t, 0, w1, w2) + t*bezier2(t, w1, w2, 1)
}

func lerpColor(s, e color.RGBA, t float32) color.RGBA {
	ch := func(a, b uint8) uint8 {
		v := (float32(b)-float32(a))*t + float32(a)
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return color.RGBA{R: ch(s.R, e.R), G: ch(s.G, e.G), B: ch(s.B, e.B), A: 255}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
