// Package imageio decodes, encodes and reshapes the images the quilt pipeline
// exchanges on disk.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned by Save for extensions it cannot encode.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// JPEGQuality is the quality used for .jpg and .jpeg outputs.
const JPEGQuality = 100

// Load decodes the image at path. PNG, JPEG, GIF and WebP are supported.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin, copying only
// when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Save encodes img to path. The extension selects the encoder: .jpg and .jpeg
// write JPEG at JPEGQuality, .png writes PNG.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	default:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		err = enc.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// SplitRGBD splits a side-by-side RGBD image into its texture (left half) and
// depth map (right half). An odd column count drops the last column.
func SplitRGBD(img image.Image) (texture, depth *image.RGBA) {
	rgba := ToRGBA(img)
	w, h := rgba.Bounds().Dx()/2, rgba.Bounds().Dy()
	texture = rgba.SubImage(image.Rect(0, 0, w, h)).(*image.RGBA)
	depth = rgba.SubImage(image.Rect(w, 0, 2*w, h)).(*image.RGBA)
	return texture, depth
}

// JoinRGBD places texture and depth side by side.
func JoinRGBD(texture, depth image.Image) (*image.RGBA, error) {
	tb, db := texture.Bounds(), depth.Bounds()
	if tb.Size() != db.Size() {
		return nil, fmt.Errorf("texture %v and depth %v differ in size", tb.Size(), db.Size())
	}
	w, h := tb.Dx(), tb.Dy()
	out := image.NewRGBA(image.Rect(0, 0, 2*w, h))
	draw.Draw(out, image.Rect(0, 0, w, h), texture, tb.Min, draw.Src)
	draw.Draw(out, image.Rect(w, 0, 2*w, h), depth, db.Min, draw.Src)
	return out, nil
}

// FitWithin downscales texture and depth with Lanczos3 so both fit within
// maxW x maxH, keeping their aspect ratio. Images that already fit are
// returned unchanged.
func FitWithin(texture, depth *image.RGBA, maxW, maxH int) (*image.RGBA, *image.RGBA) {
	if maxW <= 0 || maxH <= 0 {
		return texture, depth
	}
	b := texture.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return texture, depth
	}
	t := resize.Thumbnail(uint(maxW), uint(maxH), texture, resize.Lanczos3)
	tb := t.Bounds()
	d := resize.Resize(uint(tb.Dx()), uint(tb.Dy()), depth, resize.Lanczos3)
	return ToRGBA(t), ToRGBA(d)
}

// Resize scales img to exactly w x h with Lanczos3.
func Resize(img image.Image, w, h int) *image.RGBA {
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return ToRGBA(img)
	}
	return ToRGBA(resize.Resize(uint(w), uint(h), img, resize.Lanczos3))
}
