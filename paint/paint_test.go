package paint

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stevecastle/quiltpainter/captions"
	"github.com/stevecastle/quiltpainter/imageio"
	"github.com/stevecastle/quiltpainter/quilt"
)

// TestParseColor verifies named colors, triples and hex codes.
func TestParseColor(t *testing.T) {
	tests := []struct {
		in     string
		want   color.RGBA
		wantOK bool
	}{
		{"black", color.RGBA{0, 0, 0, 255}, true},
		{"sky", color.RGBA{128, 178, 255, 255}, true},
		{"debug", color.RGBA{255, 0, 255, 255}, true},
		{"10, 20,30", color.RGBA{10, 20, 30, 255}, true},
		{"10,x,300", color.RGBA{10, 0, 0, 255}, true},
		{"1,2", color.RGBA{0, 0, 0, 255}, true},
		{"#ff8000", color.RGBA{255, 128, 0, 255}, true},
		{"00ff00", color.RGBA{0, 255, 0, 255}, true},
		{"#fff", color.RGBA{}, false},
		{"zzzzzz", color.RGBA{}, false},
		{"purple", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestParseDebugFlags verifies each key and that unknown keys are warned about.
func TestParseDebugFlags(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	flags := ParseDebugFlags("heightmap=zero,texture=zbuffer,startpt=debug,endpt=#0000ff,bogus=1", logger)
	if !flags.ZeroHeightmap() {
		t.Error("ZeroHeightmap() = false; want true")
	}
	if flags.TextureMode() != quilt.TextureModeZBuffer {
		t.Errorf("TextureMode() = %q; want zbuffer", flags.TextureMode())
	}
	if c, ok := flags.StartPointColor(); !ok || c != (color.RGBA{255, 0, 255, 255}) {
		t.Errorf("StartPointColor() = %v, %v", c, ok)
	}
	if c, ok := flags.EndPointColor(); !ok || c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("EndPointColor() = %v, %v", c, ok)
	}
	if !strings.Contains(buf.String(), "bogus=1") {
		t.Errorf("log output %q does not mention the unknown flag", buf.String())
	}
}

// TestResolveSettings verifies presets and custom layouts.
func TestResolveSettings(t *testing.T) {
	s, err := ResolveSettings(Config{Device: "portrait"})
	if err != nil || s != (quilt.Settings{Columns: 8, Rows: 6, Width: 3360, Height: 3360}) {
		t.Errorf("ResolveSettings(portrait) = %+v, %v", s, err)
	}
	if _, err := ResolveSettings(Config{Device: "hologram"}); err == nil {
		t.Error("ResolveSettings(unknown device) returned nil error")
	}
	s, err = ResolveSettings(Config{Columns: 3, Rows: 2, Width: 300, Height: 100})
	if err != nil || s.Views() != 6 {
		t.Errorf("ResolveSettings(custom) = %+v, %v", s, err)
	}
	if _, err := ResolveSettings(Config{Columns: 3, Rows: 2, Width: 300}); err == nil {
		t.Error("ResolveSettings(missing height) returned nil error")
	}
}

// TestOutputName verifies the quilt naming convention.
func TestOutputName(t *testing.T) {
	s := quilt.Settings{Columns: 8, Rows: 6, Width: 3360, Height: 3360}
	tests := []struct {
		base   string
		aspect float64
		want   string
	}{
		{"out/cat.png", 0.75, "out/cat_qs8x6a0.75.png"},
		{"cat.jpg", 4.0 / 3.0, "cat_qs8x6a1.33.jpg"},
		{"cat", 1, "cat_qs8x6a1.00.png"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.base, s, tt.aspect); got != tt.want {
			t.Errorf("OutputName(%q, %v) = %q; want %q", tt.base, tt.aspect, got, tt.want)
		}
	}
}

func testInputs(w, h int) (*image.RGBA, *image.RGBA) {
	tex := image.NewRGBA(image.Rect(0, 0, w, h))
	depth := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tex.SetRGBA(x, y, color.RGBA{uint8(x * 7), uint8(y * 7), 90, 255})
			depth.SetRGBA(x, y, color.RGBA{uint8(x * 3), 0, 0, 255})
		}
	}
	return tex, depth
}

// TestGenerate verifies the quilt is written with the expected size and the
// link points at it.
func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "scene.png")
	tex, depth := testInputs(40, 20)

	cfg := DefaultConfig()
	cfg.Columns, cfg.Rows, cfg.Width, cfg.Height = 2, 2, 64, 32
	cfg.Link = true
	cfg.Caption = captions.Caption{Text: "hi", Size: 8}
	cfg.Logger = log.New(&bytes.Buffer{})

	name, err := Generate(tex, depth, base, cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// 40x20 capped at 2x the 32x16 tile fits unchanged: aspect 2.00.
	if want := filepath.Join(dir, "scene_qs2x2a2.00.png"); name != want {
		t.Errorf("Generate() file = %q; want %q", name, want)
	}
	img, err := imageio.Load(name)
	if err != nil {
		t.Fatalf("Load(quilt) error = %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(64, 32) {
		t.Errorf("quilt size = %v; want 64x32", got)
	}

	target, err := os.Readlink(base)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if target != "scene_qs2x2a2.00.png" {
		t.Errorf("link target = %q; want scene_qs2x2a2.00.png", target)
	}

	// A second run replaces the link.
	if _, err := Generate(tex, depth, base, cfg); err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
}

// TestGenerateDownscales verifies inputs larger than resize x tile are shrunk
// before rendering.
func TestGenerateDownscales(t *testing.T) {
	dir := t.TempDir()
	tex, depth := testInputs(120, 40)
	cfg := DefaultConfig()
	cfg.Columns, cfg.Rows, cfg.Width, cfg.Height = 1, 1, 20, 20
	cfg.Resize = 1
	cfg.Debug = "texture=heightmap"
	cfg.Logger = log.New(&bytes.Buffer{})

	name, err := Generate(tex, depth, filepath.Join(dir, "wide.png"), cfg)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// 120x40 fit within 20x20 is 20x6.
	if !strings.HasSuffix(name, "wide_qs1x1a3.33.png") {
		t.Errorf("Generate() file = %q; want suffix wide_qs1x1a3.33.png", name)
	}
}

// TestGenerateBadBackground verifies invalid colors are rejected before rendering.
func TestGenerateBadBackground(t *testing.T) {
	tex, depth := testInputs(4, 4)
	cfg := DefaultConfig()
	cfg.Device = "go"
	cfg.Background = "purple"
	if _, err := Generate(tex, depth, filepath.Join(t.TempDir(), "x.png"), cfg); err == nil {
		t.Error("Generate() with bad background returned nil error")
	}
}
