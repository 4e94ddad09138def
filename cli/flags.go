package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stevecastle/quiltpainter/appconfig"
	"github.com/stevecastle/quiltpainter/captions"
	"github.com/stevecastle/quiltpainter/comfy"
	"github.com/stevecastle/quiltpainter/depthcache"
	"github.com/stevecastle/quiltpainter/depthgen"
	"github.com/stevecastle/quiltpainter/onnxdepth"
	"github.com/stevecastle/quiltpainter/paint"
)

// quiltFlags holds the options shared by every command that renders quilts.
type quiltFlags struct {
	cfg             paint.Config
	captionPosition string
}

func addQuiltFlags(cmd *cobra.Command, defaults paint.Config) *quiltFlags {
	f := &quiltFlags{cfg: defaults}
	fs := cmd.Flags()
	fs.StringVarP(&f.cfg.Device, "device", "d", "", "device preset (see the devices command)")
	fs.IntVar(&f.cfg.Columns, "columns", 0, "custom quilt columns")
	fs.IntVar(&f.cfg.Rows, "rows", 0, "custom quilt rows")
	fs.IntVar(&f.cfg.Width, "width", 0, "custom quilt width in pixels")
	fs.IntVar(&f.cfg.Height, "height", 0, "custom quilt height in pixels")
	fs.StringVar(&f.cfg.Debug, "debug-mode", "", "debug options, e.g. hidden=1,endpt=#0000ff")
	fs.StringVar(&f.cfg.Background, "bg", defaults.Background, "background color: black, sky, debug, #rrggbb or r,g,b")
	fs.Float32Var(&f.cfg.FOV, "fov", defaults.FOV, "total horizontal field of view in degrees")
	fs.Float32Var(&f.cfg.Zoom, "zoom", defaults.Zoom, "zoom applied to every view")
	fs.Float32Var(&f.cfg.Scale, "scale", defaults.Scale, "depth height scale")
	fs.Float32Var(&f.cfg.Resize, "resize", defaults.Resize, "cap the input at this multiple of the view size")
	fs.BoolVarP(&f.cfg.Link, "link-output", "L", false, "symlink the output name to the generated quilt")
	fs.BoolVar(&f.cfg.Open, "open", false, "open the quilt in the default viewer")
	fs.StringVar(&f.cfg.Caption.Text, "caption", "", "caption drawn on every view")
	fs.Float64Var(&f.cfg.Caption.Size, "caption-size", defaults.Caption.Size, "caption size in pixels")
	fs.StringVar(&f.captionPosition, "caption-position", string(defaults.Caption.Position), "caption position")
	fs.IntVar(&f.cfg.Workers, "workers", 0, "parallel view renderers (default all CPUs)")

	for _, dim := range []string{"columns", "rows", "width", "height"} {
		cmd.MarkFlagsMutuallyExclusive("device", dim)
	}
	return f
}

// config returns the paint configuration. Without a device or custom layout
// the configured default device is used.
func (f *quiltFlags) config(ctx context.Context) (paint.Config, error) {
	cfg := f.cfg
	pos, err := captions.ParsePosition(f.captionPosition)
	if err != nil {
		return cfg, err
	}
	cfg.Caption.Position = pos
	if cfg.Device == "" && cfg.Columns == 0 && cfg.Rows == 0 && cfg.Width == 0 && cfg.Height == 0 {
		cfg.Device = configFromContext(ctx).DefaultDevice
	}
	cfg.Logger = loggerFromContext(ctx)
	return cfg, nil
}

// depthFlags selects the depth source and cache.
type depthFlags struct {
	comfyURL string
	backend  string
	cache    string
}

func addDepthFlags(cmd *cobra.Command) *depthFlags {
	f := &depthFlags{}
	fs := cmd.Flags()
	fs.StringVar(&f.comfyURL, "comfy-url", "", "ComfyUI server URL (default from config)")
	fs.StringVar(&f.backend, "backend", "", "depth backend: comfy or onnx (default from config)")
	fs.StringVar(&f.cache, "cache", "", "depth cache: file, s3 or none (default from config)")
	return f
}

// apply returns cfg with the command line overrides.
func (f *depthFlags) apply(cfg appconfig.Config) appconfig.Config {
	if f.comfyURL != "" {
		cfg.ComfyURL = f.comfyURL
	}
	if f.backend != "" {
		cfg.DepthBackend = f.backend
	}
	if f.cache != "" {
		cfg.Cache = f.cache
	}
	return cfg
}

// newSource builds the depth source named by the configuration. Tests
// replace it.
var newSource = func(ctx context.Context, cfg appconfig.Config) (depthgen.Source, error) {
	switch cfg.DepthBackend {
	case "", appconfig.BackendComfy:
		return comfy.Source{Client: &comfy.Client{
			BaseURL:  cfg.ComfyURL,
			ClientID: cfg.ClientID,
			Logger:   loggerFromContext(ctx),
		}}, nil
	case appconfig.BackendONNX:
		opts := onnxdepth.DefaultOptions()
		opts.ModelPath = cfg.OnnxDepth.ModelPath
		opts.ORTSharedLibraryPath = cfg.OnnxDepth.ORTSharedLibraryPath
		if cfg.OnnxDepth.InputSize > 0 {
			opts.InputSize = cfg.OnnxDepth.InputSize
		}
		return &onnxdepth.Source{Options: opts}, nil
	}
	return nil, fmt.Errorf("unknown depth backend %q", cfg.DepthBackend)
}

// generator builds the depth generator. The returned function releases the
// source.
func (f *depthFlags) generator(ctx context.Context, cfg appconfig.Config) (*depthgen.Generator, func(), error) {
	cfg = f.apply(cfg)
	logger := loggerFromContext(ctx)

	src, err := newSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := depthcache.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("depth generator ready", "source", src.Name(), "cache", cfg.Cache)

	release := func() {
		if c, ok := src.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("failed to release depth source", "err", err)
			}
		}
	}
	return &depthgen.Generator{Source: src, Store: store, Logger: logger}, release, nil
}
