// Package platform resolves per-OS directories for configuration, caches and
// scratch space.
package platform

import "path/filepath"

// AppName is the directory name used under the OS data and cache roots.
const AppName = "quiltpainter"

// AppDisplayName is the directory name used on Windows and macOS data roots.
const AppDisplayName = "Quilt Painter"

// GetDataDir returns the application data directory, which holds config.json.
// Windows: %APPDATA%\Quilt Painter
// Linux: $XDG_DATA_HOME/quiltpainter or ~/.local/share/quiltpainter
// macOS: ~/Library/Application Support/Quilt Painter
func GetDataDir() string {
	return getDataDir()
}

// GetTempDir returns the scratch directory used when extracting archives.
func GetTempDir() string {
	return getTempDir()
}

// GetCacheDir returns the default directory for cached RGBD images.
// Linux: $XDG_CACHE_HOME/quiltpainter or ~/.cache/quiltpainter
func GetCacheDir() string {
	return getCacheDir()
}

// SharedLibExtension returns the shared library extension for the current platform.
func SharedLibExtension() string {
	return sharedLibExtension()
}

// DefaultConfigPath returns the path of config.json in the data directory.
func DefaultConfigPath() string {
	return filepath.Join(GetDataDir(), "config.json")
}
