package onnxdepth

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// TestImageTensorLayout verifies NCHW planes and ImageNet normalization.
func TestImageTensorLayout(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
		img.Pix[i+3] = 255
	}
	opts := DefaultOptions()
	data := imageTensor(img, 2, opts.NormalizeMeanRGB, opts.NormalizeStddevRGB)
	if len(data) != 3*2*2 {
		t.Fatalf("len(tensor) = %d; want 12", len(data))
	}
	wantR := (1 - opts.NormalizeMeanRGB[0]) / opts.NormalizeStddevRGB[0]
	wantG := (0 - opts.NormalizeMeanRGB[1]) / opts.NormalizeStddevRGB[1]
	for i := 0; i < 4; i++ {
		if math.Abs(float64(data[i]-wantR)) > 0.05 {
			t.Errorf("R plane[%d] = %v; want %v", i, data[i], wantR)
		}
		if math.Abs(float64(data[4+i]-wantG)) > 0.05 {
			t.Errorf("G plane[%d] = %v; want %v", i, data[4+i], wantG)
		}
	}
}

// TestDepthImageNormalization verifies the prediction range maps onto 0..255.
func TestDepthImageNormalization(t *testing.T) {
	img := depthImage([]float32{2, 4, 6, 10}, 2, 2, 2)
	want := []uint8{0, 63, 127, 255}
	for i, w := range want {
		c := img.RGBAAt(i%2, i/2)
		if c.R != w || c.G != w || c.B != w || c.A != 255 {
			t.Errorf("pixel %d = %v; want gray %d", i, c, w)
		}
	}
}

// TestDepthImageScales verifies the output takes the requested size and a
// flat prediction is black.
func TestDepthImageScales(t *testing.T) {
	img := depthImage([]float32{3, 3, 3, 3}, 2, 6, 4)
	if got := img.Bounds().Size(); got != image.Pt(6, 4) {
		t.Fatalf("size = %v; want 6x4", got)
	}
	if c := img.RGBAAt(3, 2); c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("flat prediction pixel = %v; want opaque black", c)
	}
}

// TestOptionsValidate verifies missing settings are reported.
func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.validate(); err == nil {
		t.Error("validate() without a model path returned nil error")
	}
	opts.ModelPath = "depth.onnx"
	if err := opts.validate(); err != nil {
		t.Errorf("validate() error = %v", err)
	}
	opts.InputSize = 0
	if err := opts.validate(); err == nil {
		t.Error("validate() with zero input size returned nil error")
	}
}

// TestSourceName verifies the cache identity uses the model file name.
func TestSourceName(t *testing.T) {
	s := &Source{Options: Options{ModelPath: "/models/depth_anything_v2_small.onnx"}}
	if got := s.Name(); got != "onnx:depth_anything_v2_small.onnx" {
		t.Errorf("Name() = %q", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() before use error = %v", err)
	}
}
