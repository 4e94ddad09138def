package platform

import (
	"path/filepath"
	"runtime"
	"testing"
)

// TestDirectoriesNamedForApp verifies every directory is scoped to the application.
func TestDirectoriesNamedForApp(t *testing.T) {
	for name, dir := range map[string]string{
		"data":  GetDataDir(),
		"cache": GetCacheDir(),
		"temp":  GetTempDir(),
	} {
		if dir == "" {
			t.Errorf("%s dir is empty", name)
		}
	}
	if got := filepath.Base(DefaultConfigPath()); got != "config.json" {
		t.Errorf("DefaultConfigPath() base = %q; want config.json", got)
	}
}

// TestXDGOverrides verifies XDG variables take precedence on Linux.
func TestXDGOverrides(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG directories only apply on linux")
	}
	data, cache := t.TempDir(), t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_CACHE_HOME", cache)

	if got, want := GetDataDir(), filepath.Join(data, AppName); got != want {
		t.Errorf("GetDataDir() = %q; want %q", got, want)
	}
	if got, want := GetCacheDir(), filepath.Join(cache, AppName); got != want {
		t.Errorf("GetCacheDir() = %q; want %q", got, want)
	}
	if got := SharedLibExtension(); got != ".so" {
		t.Errorf("SharedLibExtension() = %q; want .so", got)
	}
}
