package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config holds decoder, export, preview, batch and server settings. It is
// read from $XDG_CONFIG_HOME/gla2smd/config.yaml unless --config names
// another file.
type Config struct {
	// Decoding
	NameEncoding       string `yaml:"name_encoding" json:"name_encoding"`
	StrictOffsets      *bool  `yaml:"strict_offsets" json:"strict_offsets"`
	AllowUnknownFormat bool   `yaml:"allow_unknown_format" json:"allow_unknown_format"`

	// Export
	DuplicateY bool `yaml:"duplicate_y" json:"duplicate_y"`

	// Preview
	PreviewSize   int    `yaml:"preview_size" json:"preview_size"`
	Supersample   int    `yaml:"supersample" json:"supersample"`
	PreviewFormat string `yaml:"preview_format" json:"preview_format"`
	PreviewAxes   string `yaml:"preview_axes" json:"preview_axes"`

	// Batch
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Workers   int    `yaml:"workers" json:"workers"`
	Compress  bool   `yaml:"compress" json:"compress"`

	// Server
	ServerAddress string `yaml:"server_address" json:"server_address"`
	MaxUploadMB   int    `yaml:"max_upload_mb" json:"max_upload_mb"`

	// Logging
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// DefaultPath returns the per-user config file location, or "" if the user
// config directory cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gla2smd", "config.yaml")
}

// Load reads a YAML or JSON config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the file at DefaultPath. A missing file yields a zero
// Config and no error.
func LoadDefault() (Config, error) {
	path := DefaultPath()
	if path == "" {
		return Config{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, nil
	}
	return Load(path)
}

// Resolve applies CLI overrides and fills any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.NameEncoding != "" {
		c.NameEncoding = flags.NameEncoding
	}
	if flags.StrictOffsets != nil {
		v := *flags.StrictOffsets
		c.StrictOffsets = &v
	}
	if flags.Force {
		c.AllowUnknownFormat = true
	}
	if flags.DuplicateY {
		c.DuplicateY = true
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Compress {
		c.Compress = true
	}
	if flags.ServerAddress != "" {
		c.ServerAddress = flags.ServerAddress
	}

	// Defaults
	if c.NameEncoding == "" {
		c.NameEncoding = "utf-8"
	}
	if c.StrictOffsets == nil {
		strict := true
		c.StrictOffsets = &strict
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
	if c.PreviewAxes == "" {
		c.PreviewAxes = "xz"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ServerAddress == "" {
		c.ServerAddress = "127.0.0.1:8080"
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 64
	}
}

// Strict reports the resolved offset checking mode.
func (c Config) Strict() bool {
	return c.StrictOffsets == nil || *c.StrictOffsets
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	NameEncoding  string
	StrictOffsets *bool // nil when the flag was not given
	Force         bool
	DuplicateY    bool
	PreviewSize   int
	OutputDir     string
	Workers       int
	Compress      bool
	ServerAddress string
}
