// Package quilt renders a texture and its depth map into a grid of parallax
// views for multi-view displays.
//
// Each view re-projects every texture sample under a camera rotated about the
// vertical axis, resolving visibility with a per-view z-buffer and filling the
// gaps opened between neighbouring samples. Views are rendered concurrently
// and stitched into a single quilt image.
package quilt

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Settings is the tile layout and output resolution of a quilt.
type Settings struct {
	Columns int
	Rows    int
	Width   int
	Height  int
}

// Views returns the number of tiles in the quilt.
func (s Settings) Views() int {
	return s.Columns * s.Rows
}

// ViewSize returns the size of one tile. Resolutions that are not a multiple
// of the grid are truncated.
func (s Settings) ViewSize() (int, int) {
	return s.Width / s.Columns, s.Height / s.Rows
}

// Validate reports settings that cannot produce a quilt.
func (s Settings) Validate() error {
	if s.Columns <= 0 || s.Rows <= 0 {
		return fmt.Errorf("%w: %d columns x %d rows", ErrInvalidSettings, s.Columns, s.Rows)
	}
	if w, h := s.ViewSize(); w <= 0 || h <= 0 {
		return fmt.Errorf("%w: resolution %dx%d leaves no pixels per tile", ErrInvalidSettings, s.Width, s.Height)
	}
	return nil
}

// Overlay draws on a finished view before it is stitched.
type Overlay interface {
	Draw(view *image.RGBA)
}

// Params controls how each view is rendered.
type Params struct {
	// FOV is the total horizontal sweep of the cameras, in degrees.
	FOV  float32
	Zoom float32
	// HeightScale multiplies every depth sample.
	HeightScale float32
	Background  color.RGBA
	Overlay     Overlay
	Debug       DebugFlags
	// Workers bounds the number of views rendered at once. Zero means GOMAXPROCS.
	Workers int
	Logger  *log.Logger
}

// Make renders every view of the quilt and stitches them together.
func Make(s Settings, texture, depth *image.RGBA, p Params) (*image.RGBA, error) {
	views, err := RenderViews(s, texture, depth, p)
	if err != nil {
		return nil, err
	}
	return Stitch(views, s.Columns, s.Rows)
}

// RenderViews renders the s.Views() views in index order. Views are rendered
// concurrently; each owns its framebuffer and z-buffer.
func RenderViews(s Settings, texture, depth *image.RGBA, p Params) ([]*image.RGBA, error) {
	if err := validate(s, texture, depth, p); err != nil {
		return nil, err
	}
	debug := p.Debug
	if debug == nil {
		debug = NullDebugFlags{}
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	viewW, viewH := s.ViewSize()
	thetas := Rotations(s.Views(), p.FOV)
	views := make([]*image.RGBA, len(thetas))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, theta := range thetas {
		g.Go(func() error {
			cam := Camera{
				Zoom:       p.Zoom,
				ViewWidth:  viewW,
				ViewHeight: viewH,
				ViewTheta:  theta,
				ZScale:     p.HeightScale,
			}
			logger.Debug("rendering view", "view", i, "theta", degrees(theta))
			view := renderView(texture, depth, cam, p.Background, debug)
			if p.Overlay != nil {
				p.Overlay.Draw(view)
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Stitch arranges views into a columns x rows grid. Rows fill top to bottom
// and, within a row, views fill right to left.
func Stitch(views []*image.RGBA, columns, rows int) (*image.RGBA, error) {
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %d columns x %d rows", ErrInvalidSettings, columns, rows)
	}
	if len(views) != columns*rows {
		return nil, fmt.Errorf("%w: %d views for a %dx%d grid", ErrInvalidSettings, len(views), columns, rows)
	}
	viewW, viewH := views[0].Bounds().Dx(), views[0].Bounds().Dy()
	out := image.NewRGBA(image.Rect(0, 0, viewW*columns, viewH*rows))

	for i, view := range views {
		if view.Bounds().Dx() != viewW || view.Bounds().Dy() != viewH {
			return nil, fmt.Errorf("%w: view %d is %dx%d, want %dx%d", ErrDimensionMismatch, i, view.Bounds().Dx(), view.Bounds().Dy(), viewW, viewH)
		}
		row := i / columns
		col := columns - i%columns - 1
		dst := image.Rect(col*viewW, row*viewH, (col+1)*viewW, (row+1)*viewH)
		draw.Draw(out, dst, view, view.Bounds().Min, draw.Src)
	}
	return out, nil
}

func validate(s Settings, texture, depth *image.RGBA, p Params) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if texture == nil || depth == nil || texture.Bounds().Empty() {
		return ErrEmptyTexture
	}
	if texture.Bounds().Size() != depth.Bounds().Size() {
		return fmt.Errorf("%w: texture %v, depth %v", ErrDimensionMismatch, texture.Bounds().Size(), depth.Bounds().Size())
	}
	if !(p.Zoom > 0) || math.IsInf(float64(p.Zoom), 0) {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, p.Zoom)
	}
	if !isFinite(p.FOV) || !isFinite(p.HeightScale) {
		return fmt.Errorf("%w: fov %v, height scale %v", ErrInvalidSettings, p.FOV, p.HeightScale)
	}
	return nil
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
