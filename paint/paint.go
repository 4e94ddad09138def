// Package paint turns a texture and depth map into a quilt file on disk,
// resolving device presets, debug settings and output naming.
package paint

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
	"github.com/stevecastle/quiltpainter/captions"
	"github.com/stevecastle/quiltpainter/imageio"
	"github.com/stevecastle/quiltpainter/quilt"
)

// Config holds the quilt options shared by every command.
type Config struct {
	// Device names a preset; when empty the four custom dimensions are used.
	Device  string
	Columns int
	Rows    int
	Width   int
	Height  int

	// Debug is the debug mini-language; empty disables debugging.
	Debug      string
	Background string
	FOV        float32
	Zoom       float32
	Scale      float32
	// Resize caps the input at this multiple of the tile size.
	Resize float32

	Link    bool
	Open    bool
	Caption captions.Caption
	Workers int
	Logger  *log.Logger
}

// DefaultConfig returns the command line defaults.
func DefaultConfig() Config {
	return Config{
		Background: "black",
		FOV:        60,
		Zoom:       1.0,
		Scale:      1.0,
		Resize:     2.0,
		Caption:    captions.Caption{Size: captions.DefaultSize, Position: captions.BottomCenter},
	}
}

// ResolveSettings returns the quilt layout named by cfg.
func ResolveSettings(cfg Config) (quilt.Settings, error) {
	if cfg.Device != "" {
		s, ok := quilt.LookupDevice(cfg.Device)
		if !ok {
			return quilt.Settings{}, fmt.Errorf("unknown device %q (known: %s)", cfg.Device, strings.Join(quilt.DeviceNames(), ", "))
		}
		return s, nil
	}
	s := quilt.Settings{Columns: cfg.Columns, Rows: cfg.Rows, Width: cfg.Width, Height: cfg.Height}
	if s.Columns <= 0 || s.Rows <= 0 || s.Width <= 0 || s.Height <= 0 {
		return quilt.Settings{}, errors.New("columns, rows, width and height must all be set when no device is given")
	}
	if err := s.Validate(); err != nil {
		return quilt.Settings{}, err
	}
	return s, nil
}

// OutputName returns the quilt file name for outputBase. The layout and
// aspect ratio are encoded the way Looking Glass software expects.
func OutputName(outputBase string, s quilt.Settings, aspect float64) string {
	ext := filepath.Ext(outputBase)
	stem := strings.TrimSuffix(outputBase, ext)
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%s_qs%dx%da%.2f.%s", stem, s.Columns, s.Rows, aspect, ext)
}

// Generate renders the quilt and saves it next to outputBase. It returns the
// written file name.
func Generate(texture, depth *image.RGBA, outputBase string, cfg Config) (string, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	s, err := ResolveSettings(cfg)
	if err != nil {
		return "", err
	}
	bg, ok := ParseColor(cfg.Background)
	if !ok {
		return "", fmt.Errorf("invalid background color %q", cfg.Background)
	}

	tileW, tileH := s.ViewSize()
	maxW := int(float32(tileW) * cfg.Resize)
	maxH := int(float32(tileH) * cfg.Resize)
	texture, depth = imageio.FitWithin(texture, depth, maxW, maxH)
	tb := texture.Bounds()
	aspect := float64(tb.Dx()) / float64(tb.Dy())
	logger.Debug("input prepared", "size", tb.Size(), "aspect", aspect)

	var debug quilt.DebugFlags = quilt.NullDebugFlags{}
	if cfg.Debug != "" {
		debug = ParseDebugFlags(cfg.Debug, logger)
	}
	var overlay quilt.Overlay
	if cfg.Caption.Text != "" {
		overlay = cfg.Caption
	}

	out, err := quilt.Make(s, texture, depth, quilt.Params{
		FOV:         cfg.FOV,
		Zoom:        cfg.Zoom,
		HeightScale: cfg.Scale,
		Background:  bg,
		Overlay:     overlay,
		Debug:       debug,
		Workers:     cfg.Workers,
		Logger:      logger,
	})
	if err != nil {
		return "", err
	}

	filename := OutputName(outputBase, s, aspect)
	if err := imageio.Save(filename, out); err != nil {
		return "", err
	}
	logger.Info("saved quilt image", "file", filename)

	if cfg.Link {
		if err := link(filename, outputBase); err != nil {
			logger.Warn("failed to create symlink", "link", outputBase, "err", err)
		} else {
			logger.Info("created symlink", "link", outputBase, "target", filename)
		}
	}
	if cfg.Open {
		if err := browser.OpenFile(filename); err != nil {
			logger.Warn("failed to open quilt", "file", filename, "err", err)
		}
	}
	return filename, nil
}

// link points name at target, replacing an existing file or link. The link is
// relative since both live in the same directory.
func link(target, name string) error {
	if _, err := os.Lstat(name); err == nil {
		if err := os.Remove(name); err != nil {
			return err
		}
	}
	return os.Symlink(filepath.Base(target), name)
}
