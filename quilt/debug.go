package quilt

import "image/color"

// Texture modes understood by the renderer.
const (
	TextureModeHeightmap = "heightmap"
	TextureModeZBuffer   = "zbuffer"
)

// DebugFlags enables diagnostic rendering modes. Implementations must be safe
// for concurrent reads since one value is shared by every view render.
type DebugFlags interface {
	// ZeroHeightmap renders as if every depth sample were zero.
	ZeroHeightmap() bool
	// TextureMode selects an alternate color source; empty means the texture.
	TextureMode() string
	StartPointColor() (color.RGBA, bool)
	EndPointColor() (color.RGBA, bool)
}

// CLIDebugFlags is the DebugFlags value built from the --debug-mode option.
type CLIDebugFlags struct {
	Zero    bool
	Texture string
	StartPt *color.RGBA
	EndPt   *color.RGBA
}

func (f CLIDebugFlags) ZeroHeightmap() bool { return f.Zero }

func (f CLIDebugFlags) TextureMode() string { return f.Texture }

func (f CLIDebugFlags) StartPointColor() (color.RGBA, bool) {
	if f.StartPt == nil {
		return color.RGBA{}, false
	}
	return *f.StartPt, true
}

func (f CLIDebugFlags) EndPointColor() (color.RGBA, bool) {
	if f.EndPt == nil {
		return color.RGBA{}, false
	}
	return *f.EndPt, true
}

// NullDebugFlags disables every diagnostic mode.
type NullDebugFlags struct{}

func (NullDebugFlags) ZeroHeightmap() bool                 { return false }
func (NullDebugFlags) TextureMode() string                 { return "" }
func (NullDebugFlags) StartPointColor() (color.RGBA, bool) { return color.RGBA{}, false }
func (NullDebugFlags) EndPointColor() (color.RGBA, bool)   { return color.RGBA{}, false }

var (
	_ DebugFlags = CLIDebugFlags{}
	_ DebugFlags = NullDebugFlags{}
)
