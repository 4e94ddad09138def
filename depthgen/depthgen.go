// Package depthgen turns an input photo into an RGBD pair, running depth
// inference at most once per distinct input.
package depthgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/charmbracelet/log"
	"github.com/stevecastle/quiltpainter/depthcache"
	"github.com/stevecastle/quiltpainter/imageio"
)

// Source produces a depth map for an image. Brighter pixels are nearer.
type Source interface {
	// Name identifies the source in cache keys.
	Name() string
	Depth(ctx context.Context, path string, texture image.Image) (image.Image, error)
}

// Generator combines a depth source with a cache.
type Generator struct {
	Source Source
	// Store defaults to depthcache.NullStore.
	Store  depthcache.Store
	Logger *log.Logger
}

func (g *Generator) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.Default()
}

func (g *Generator) store() depthcache.Store {
	if g.Store != nil {
		return g.Store
	}
	return depthcache.NullStore{}
}

// Generate returns the texture and depth map for the image at path.
func (g *Generator) Generate(ctx context.Context, path string) (texture, depth *image.RGBA, err error) {
	rgbd, err := g.RGBD(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	texture, depth = imageio.SplitRGBD(rgbd)
	return texture, depth, nil
}

// RGBD returns the side-by-side texture and depth image for the image at path,
// from the cache when possible.
func (g *Generator) RGBD(ctx context.Context, path string) (*image.RGBA, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key := depthcache.Key(input, g.Source.Name())
	logger := g.logger().With("file", path)

	cached, err := g.store().Get(ctx, key)
	switch {
	case err == nil:
		img, _, derr := image.Decode(bytes.NewReader(cached))
		if derr == nil {
			logger.Debug("loaded cached RGBD image", "key", key)
			return imageio.ToRGBA(img), nil
		}
		logger.Warn("discarding unreadable cache entry", "key", key, "err", derr)
	case errors.Is(err, depthcache.ErrNotFound):
		logger.Debug("no cached RGBD image, generating depth", "source", g.Source.Name())
	default:
		logger.Warn("cache lookup failed", "key", key, "err", err)
	}

	texture, err := imageio.LoadOriented(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	depthImg, err := g.Source.Depth(ctx, path, texture)
	if err != nil {
		return nil, fmt.Errorf("generate depth for %s: %w", path, err)
	}
	tb := texture.Bounds()
	if depthImg.Bounds().Size() != tb.Size() {
		logger.Debug("resizing depth map", "from", depthImg.Bounds().Size(), "to", tb.Size())
	}
	depth := imageio.Resize(depthImg, tb.Dx(), tb.Dy())

	rgbd, err := imageio.JoinRGBD(texture, depth)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgbd); err != nil {
		return nil, fmt.Errorf("encode RGBD image: %w", err)
	}
	if err := g.store().Put(ctx, key, buf.Bytes()); err != nil {
		logger.Warn("failed to cache RGBD image", "key", key, "err", err)
	} else {
		logger.Debug("cached RGBD image", "key", key)
	}
	return rgbd, nil
}
