package paint

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/stevecastle/quiltpainter/quilt"
)

// ParseColor parses a named color (black, sky, debug), an "r,g,b" triple or
// a "#rrggbb" hex code. Malformed triple components read as 0 and a triple of
// the wrong length is black. It reports false for anything else.
func ParseColor(s string) (color.RGBA, bool) {
	switch s {
	case "black":
		return color.RGBA{0, 0, 0, 255}, true
	case "sky":
		return color.RGBA{128, 178, 255, 255}, true
	case "debug":
		return color.RGBA{255, 0, 255, 255}, true
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return color.RGBA{0, 0, 0, 255}, true
		}
		var rgb [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err == nil {
				rgb[i] = uint8(v)
			}
		}
		return color.RGBA{rgb[0], rgb[1], rgb[2], 255}, true
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}

// ParseDebugFlags parses comma separated key=value debug settings:
// heightmap=zero, texture=heightmap|zbuffer, startpt=<color>, endpt=<color>.
// Unknown entries are logged and skipped.
func ParseDebugFlags(s string, logger *log.Logger) quilt.CLIDebugFlags {
	if logger == nil {
		logger = log.Default()
	}
	var flags quilt.CLIDebugFlags
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			logger.Warn("unknown debug flag", "flag", entry)
			continue
		}
		switch key {
		case "heightmap":
			if value == "zero" {
				flags.Zero = true
			} else {
				logger.Warn("unknown debug flag", "flag", entry)
			}
		case "texture":
			flags.Texture = value
		case "startpt":
			if c, ok := ParseColor(value); ok {
				flags.StartPt = &c
			}
		case "endpt":
			if c, ok := ParseColor(value); ok {
				flags.EndPt = &c
			}
		default:
			logger.Warn("unknown debug flag", "flag", entry)
		}
	}
	return flags
}
