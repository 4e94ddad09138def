// Package onnxdepth estimates depth maps locally with a Depth Anything style
// ONNX model.
package onnxdepth

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// ErrCGORequired is returned when depth estimation is attempted in a build
// without CGO support.
var ErrCGORequired = errors.New("onnxdepth requires CGO support; rebuild with CGO_ENABLED=1")

// Options configures the model and its tensors.
type Options struct {
	// Path to the onnxruntime shared library (.dll/.so/.dylib). If empty, the
	// environment variable ONNXRUNTIME_SHARED_LIBRARY_PATH is respected.
	ORTSharedLibraryPath string
	ModelPath            string

	InputName  string
	OutputName string
	// InputSize is the square side the model expects, a multiple of 14.
	InputSize int

	NormalizeMeanRGB   [3]float32
	NormalizeStddevRGB [3]float32
}

// DefaultOptions matches the Hugging Face exports of Depth Anything V2.
func DefaultOptions() Options {
	return Options{
		InputName:          "pixel_values",
		OutputName:         "predicted_depth",
		InputSize:          518,
		NormalizeMeanRGB:   [3]float32{0.485, 0.456, 0.406},
		NormalizeStddevRGB: [3]float32{0.229, 0.224, 0.225},
	}
}

func (o Options) validate() error {
	if o.ModelPath == "" {
		return errors.New("onnxdepth: no model path configured")
	}
	if o.InputSize <= 0 {
		return fmt.Errorf("onnxdepth: invalid input size %d", o.InputSize)
	}
	if o.InputName == "" || o.OutputName == "" {
		return errors.New("onnxdepth: input and output names must be provided")
	}
	return nil
}

// imageTensor resizes img to size x size and returns it as normalized NCHW
// RGB floats.
func imageTensor(img image.Image, size int, mean, std [3]float32) []float32 {
	dst := resize.Resize(uint(size), uint(size), img, resize.Bicubic)
	b := dst.Bounds()
	n := size * size
	data := make([]float32, 3*n)
	for i := range std {
		if std[i] == 0 {
			std[i] = 1
		}
	}
	idx := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBAModel.Convert(dst.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			data[idx] = (float32(c.R)/255 - mean[0]) / std[0]
			data[n+idx] = (float32(c.G)/255 - mean[1]) / std[1]
			data[2*n+idx] = (float32(c.B)/255 - mean[2]) / std[2]
			idx++
		}
	}
	return data
}

// depthImage min/max normalizes a size x size prediction onto 0..255 gray
// and scales it to w x h. A constant prediction maps to black.
func depthImage(pred []float32, size, w, h int) *image.RGBA {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range pred {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	small := image.NewRGBA(image.Rect(0, 0, size, size))
	for i, v := range pred[:size*size] {
		var g uint8
		if hi > lo {
			g = uint8((v - lo) / (hi - lo) * 255)
		}
		small.Pix[i*4+0] = g
		small.Pix[i*4+1] = g
		small.Pix[i*4+2] = g
		small.Pix[i*4+3] = 255
	}
	if w == size && h == size {
		return small
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)
	return out
}

// Source adapts an Estimator to the depth generation pipeline. The model is
// loaded on first use and kept until Close.
type Source struct {
	Options Options

	mu  sync.Mutex
	est *Estimator
}

// Name identifies the model file.
func (s *Source) Name() string {
	return "onnx:" + filepath.Base(s.Options.ModelPath)
}

// Depth estimates the depth of texture. The path is not used.
func (s *Source) Depth(ctx context.Context, _ string, texture image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.est == nil {
		est, err := NewEstimator(s.Options)
		if err != nil {
			return nil, err
		}
		s.est = est
	}
	return s.est.Estimate(texture)
}

// Close releases the model.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.est == nil {
		return nil
	}
	err := s.est.Close()
	s.est = nil
	return err
}
