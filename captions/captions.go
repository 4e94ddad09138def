// Package captions draws a line of text onto quilt views.
package captions

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Position anchors the caption inside a view.
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
)

// DefaultSize is the caption height in pixels when none is given.
const DefaultSize = 16

const margin = 10

var positions = []Position{TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter}

// ParsePosition parses a position name. The empty string is BottomCenter.
func ParsePosition(s string) (Position, error) {
	if s == "" {
		return BottomCenter, nil
	}
	for _, p := range positions {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	names := make([]string, len(positions))
	for i, p := range positions {
		names[i] = string(p)
	}
	return "", fmt.Errorf("unknown caption position %q (want one of %s)", s, strings.Join(names, ", "))
}

var (
	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

func regular() (*opentype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// Caption is white text drawn on every view. The zero value draws nothing.
type Caption struct {
	Text     string
	Size     float64
	Position Position
}

// WithName returns a copy of c with every "{}" in the text replaced by name.
func (c Caption) WithName(name string) Caption {
	c.Text = strings.ReplaceAll(c.Text, "{}", name)
	return c
}

// Draw renders the caption onto view, blending through the glyph coverage.
// It is safe to call from several goroutines at once.
func (c Caption) Draw(view *image.RGBA) {
	if c.Text == "" {
		return
	}
	f, err := regular()
	if err != nil {
		return
	}
	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	// Faces cache glyphs and are not safe for concurrent use.
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  view,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	textW := d.MeasureString(c.Text).Ceil()
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	textH := (m.Ascent + m.Descent).Ceil()

	b := view.Bounds()
	x, y := c.origin(b.Dx(), b.Dy(), textW, textH)
	d.Dot = fixed.P(b.Min.X+x, b.Min.Y+y+ascent)
	d.DrawString(c.Text)
}

// origin returns the top-left corner of the text box.
func (c Caption) origin(viewW, viewH, textW, textH int) (int, int) {
	switch c.Position {
	case TopLeft:
		return margin, margin
	case TopCenter:
		return (viewW - textW) / 2, margin
	case TopRight:
		return viewW - textW - margin, margin
	case BottomLeft:
		return margin, viewH - textH - margin
	default:
		return (viewW - textW) / 2, viewH - textH - margin
	}
}
