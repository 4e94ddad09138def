//go:build !cgo

package onnxdepth

import "image"

// Estimator is unavailable in non-CGO builds.
type Estimator struct{}

// NewEstimator returns ErrCGORequired.
func NewEstimator(opts Options) (*Estimator, error) {
	return nil, ErrCGORequired
}

// Estimate returns ErrCGORequired.
func (e *Estimator) Estimate(img image.Image) (*image.RGBA, error) {
	return nil, ErrCGORequired
}

// Close is a no-op.
func (e *Estimator) Close() error {
	return nil
}
