//go:build cgo

package onnxdepth

import (
	"fmt"
	"image"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// Estimator holds a loaded model session and its bound tensors.
type Estimator struct {
	opts    Options
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	session *ort.AdvancedSession
}

// NewEstimator initializes onnxruntime and loads the model.
func NewEstimator(opts Options) (*Estimator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.ORTSharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.ORTSharedLibraryPath)
	} else if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnxdepth: init onnxruntime: %w", err)
		}
	}

	s := int64(opts.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, s, s))
	if err != nil {
		return nil, err
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s, s))
	if err != nil {
		input.Destroy()
		return nil, err
	}
	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnxdepth: load %s: %w", opts.ModelPath, err)
	}
	return &Estimator{opts: opts, input: input, output: output, session: session}, nil
}

// Estimate returns a grayscale depth map of img at img's size. Brighter is nearer.
func (e *Estimator) Estimate(img image.Image) (*image.RGBA, error) {
	data := imageTensor(img, e.opts.InputSize, e.opts.NormalizeMeanRGB, e.opts.NormalizeStddevRGB)
	copy(e.input.GetData(), data)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnxdepth: run: %w", err)
	}
	b := img.Bounds()
	return depthImage(e.output.GetData(), e.opts.InputSize, b.Dx(), b.Dy()), nil
}

// Close destroys the session and tensors.
func (e *Estimator) Close() error {
	e.session.Destroy()
	e.input.Destroy()
	e.output.Destroy()
	return nil
}
