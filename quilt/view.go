package quilt

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// renderView renders the texture and depth map as seen by cam.
func renderView(texture, depth *image.RGBA, cam Camera, bg color.RGBA, debug DebugFlags) *image.RGBA {
	colors := texture
	blank := false
	if debug.TextureMode() == TextureModeHeightmap {
		colors = depth
		blank = debug.ZeroHeightmap()
	}
	v := newViewTarget(cam, colors, bg, debug)
	v.blank = blank
	zeroHeight := debug.ZeroHeightmap()

	texW, texH := texture.Bounds().Dx(), texture.Bounds().Dy()
	for screenY := 0; screenY < cam.ViewHeight; screenY++ {
		texY0, texY1 := rowBand(screenY, cam.ViewHeight, texH, cam.Zoom)

		for texY := texY0; texY <= texY1; texY++ {
			var prev prevRender
			hasPrev := false
			sample := func(texX int) {
				var h float32
				if !zeroHeight {
					h = float32(rgbAt(depth, texX, texY).R)
				}
				prev, hasPrev = v.renderPx(texX, texY, screenY, h, prev, hasPrev)
			}
			// Scan toward the camera so nearer samples are visited last.
			if cam.ViewTheta < 0 {
				for texX := 0; texX < texW; texX++ {
					sample(texX)
				}
			} else {
				for texX := texW - 1; texX >= 0; texX-- {
					sample(texX)
				}
			}
		}
	}

	if debug.TextureMode() == TextureModeZBuffer {
		return zbufferImage(v.zbuf, cam.ViewWidth, cam.ViewHeight)
	}
	return v.img
}

// rowBand returns the inclusive range of texture rows that project onto
// screenY, zoomed about the view center. The band starts at the row under the
// top edge of the screen row and ends before the row under its bottom edge,
// but spans at least one row before clamping. It is empty (texY0 > texY1)
// when the screen row lies outside the texture.
func rowBand(screenY, viewH, texH int, zoom float32) (texY0, texY1 int) {
	vh, th := float32(viewH), float32(texH)
	zy := (float32(screenY) - vh/2) / zoom
	zyNext := zy + 1/zoom
	texY0 = int(math.Floor(float64(zy*th/vh + th/2)))
	texY1 = int(math.Ceil(float64(zyNext*th/vh+th/2))) - 1
	texY1 = max(texY1, texY0)
	texY0 = max(texY0, 0)
	texY1 = min(texY1, texH-1)
	return texY0, texY1
}

// zbufferImage maps the finite z-buffer range onto grayscale. Unpainted cells
// are black.
func zbufferImage(zbuf []float32, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	minZ, maxZ := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, z := range zbuf {
		if math.IsInf(float64(z), -1) {
			continue
		}
		minZ = min(minZ, z)
		maxZ = max(maxZ, z)
	}
	for i, z := range zbuf {
		var g uint8
		switch {
		case math.IsInf(float64(z), -1):
			g = 0
		case maxZ == minZ:
			g = 255
		default:
			g = uint8((z - minZ) / (maxZ - minZ) * 255)
		}
		img.Pix[i*4+0] = g
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = g
		img.Pix[i*4+3] = 255
	}
	return img
}

func rgbAt(img *image.RGBA, x, y int) color.RGBA {
	b := img.Bounds()
	return img.RGBAAt(b.Min.X+x, b.Min.Y+y)
}

func fill(img *image.RGBA, c color.RGBA) {
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}
