package quilt

import "errors"

var (
	// ErrDimensionMismatch is returned when the texture and depth map differ in size.
	ErrDimensionMismatch = errors.New("texture and depth map dimensions differ")
	// ErrInvalidSettings is returned for zero columns, rows or a resolution
	// too small to hold one pixel per tile.
	ErrInvalidSettings = errors.New("invalid quilt settings")
	// ErrInvalidZoom is returned for a zoom that is not a positive finite number.
	ErrInvalidZoom = errors.New("zoom must be positive")
	// ErrEmptyTexture is returned when the texture has no pixels.
	ErrEmptyTexture = errors.New("texture is empty")
)
