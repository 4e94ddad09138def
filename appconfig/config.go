// Package appconfig loads and saves the user configuration file.
package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/stevecastle/quiltpainter/platform"
)

// Cache backends.
const (
	CacheFile = "file"
	CacheS3   = "s3"
	CacheNone = "none"
)

// Depth backends.
const (
	BackendComfy = "comfy"
	BackendONNX  = "onnx"
)

// S3Config locates the bucket used for cached RGBD images. Empty keys fall
// back to the default AWS credential chain.
type S3Config struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Prefix          string `json:"prefix"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// OnnxDepthConfig configures the local depth estimation model.
type OnnxDepthConfig struct {
	ModelPath            string `json:"modelPath"`
	ORTSharedLibraryPath string `json:"ortSharedLibraryPath"`
	InputSize            int    `json:"inputSize"`
}

// Config holds depth acquisition, caching and default quilt settings.
type Config struct {
	ComfyURL string `json:"comfyUrl"`
	// ClientID identifies this installation to ComfyUI.
	ClientID string `json:"clientId"`

	CacheDir string   `json:"cacheDir"`
	Cache    string   `json:"cache"`
	S3       S3Config `json:"s3"`

	DepthBackend string          `json:"depthBackend"`
	OnnxDepth    OnnxDepthConfig `json:"onnxDepth"`

	DefaultDevice string `json:"defaultDevice"`
	// LedgerName is the batch database file name created in each input directory.
	LedgerName string `json:"ledgerName"`
}

var (
	cfgMu sync.RWMutex
	cfg   Config
)

// DefaultCacheDir returns the default RGBD cache directory.
func DefaultCacheDir() string {
	return filepath.Join(platform.GetCacheDir(), "rgbd")
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() Config {
	return Config{
		ComfyURL:     "http://127.0.0.1:8188",
		ClientID:     uuid.New().String(),
		CacheDir:     DefaultCacheDir(),
		Cache:        CacheFile,
		DepthBackend: BackendComfy,
		OnnxDepth: OnnxDepthConfig{
			InputSize: 518,
		},
		DefaultDevice: "portrait",
		LedgerName:    "index.db",
	}
}

// Get returns a copy of the current in-memory config.
func Get() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

// Set replaces the in-memory config.
func Set(c Config) {
	cfgMu.Lock()
	cfg = c
	cfgMu.Unlock()
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func deepMergeJSON(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		if existing, ok := dst[k]; ok && isJSONObject(existing) && isJSONObject(v) {
			var dstObj map[string]json.RawMessage
			var srcObj map[string]json.RawMessage
			if err := json.Unmarshal(existing, &dstObj); err != nil {
				dst[k] = v
				continue
			}
			if err := json.Unmarshal(v, &srcObj); err != nil {
				dst[k] = v
				continue
			}
			deepMergeJSON(dstObj, srcObj)
			merged, err := json.Marshal(dstObj)
			if err != nil {
				dst[k] = v
				continue
			}
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// mergeDefaults fills zero fields of c from def. It reports whether a field
// that must stay stable across runs was generated.
func mergeDefaults(c *Config, def Config) (needsSave bool) {
	if c.ClientID == "" {
		c.ClientID = def.ClientID
		needsSave = true
	}
	if c.ComfyURL == "" {
		c.ComfyURL = def.ComfyURL
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.Cache == "" {
		c.Cache = def.Cache
	}
	if c.DepthBackend == "" {
		c.DepthBackend = def.DepthBackend
	}
	if c.OnnxDepth.InputSize == 0 {
		c.OnnxDepth.InputSize = def.OnnxDepth.InputSize
	}
	if c.DefaultDevice == "" {
		c.DefaultDevice = def.DefaultDevice
	}
	if c.LedgerName == "" {
		c.LedgerName = def.LedgerName
	}
	return needsSave
}

// Load reads the config at path, or the platform default when path is empty,
// and updates the in-memory config. A missing file is created with defaults.
func Load(path string) (Config, string, error) {
	if path == "" {
		path = platform.DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			def := defaultConfig()
			if _, saveErr := Save(path, def); saveErr != nil {
				return Config{}, path, fmt.Errorf("failed to create default config file: %w", saveErr)
			}
			return def, path, nil
		}
		return Config{}, path, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, path, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if mergeDefaults(&c, defaultConfig()) {
		if _, err := Save(path, c); err != nil {
			return Config{}, path, fmt.Errorf("failed to save updated config: %w", err)
		}
	}

	Set(c)
	return c, path, nil
}

// Save writes c to path, creating the directory as needed. Keys already in the
// file that Config does not know about are preserved.
func Save(path string, c Config) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, fmt.Errorf("failed to create config directory: %w", err)
	}
	base := map[string]json.RawMessage{}
	if existing, readErr := os.ReadFile(path); readErr == nil {
		var tmp map[string]json.RawMessage
		if err := json.Unmarshal(existing, &tmp); err == nil {
			base = tmp
		}
	}

	marshaled, err := json.Marshal(c)
	if err != nil {
		return path, fmt.Errorf("failed to marshal config: %w", err)
	}
	incoming := map[string]json.RawMessage{}
	if err := json.Unmarshal(marshaled, &incoming); err != nil {
		return path, fmt.Errorf("failed to map config JSON: %w", err)
	}

	deepMergeJSON(base, incoming)

	mergedData, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to marshal merged config: %w", err)
	}
	if err := os.WriteFile(path, mergedData, 0644); err != nil {
		return path, fmt.Errorf("failed to write config file: %w", err)
	}
	Set(c)
	return path, nil
}
