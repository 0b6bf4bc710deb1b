package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults
const (
	DefaultImportDirectory = "."
	DefaultContainer       = "mov"
	DefaultPreset          = "highest"
	DefaultPreviewWidth    = 640
	DefaultPreviewHeight   = 360
	DefaultLogLevel        = "info"
)

// Config represents the complete application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Export  ExportConfig  `yaml:"export"`
	Preview PreviewConfig `yaml:"preview"`
	Filters FiltersConfig `yaml:"filters"`
	Google  GoogleConfig  `yaml:"google"`
	Log     LogConfig     `yaml:"log"`
}

// PathsConfig contains directory paths for importing and exporting clips
type PathsConfig struct {
	ImportDirectory string `yaml:"import_directory"`
	ExportDirectory string `yaml:"export_directory"`
}

// FFmpegConfig locates the ffmpeg and ffprobe executables
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path,omitempty"`
	FFprobePath string `yaml:"ffprobe_path,omitempty"`
}

// ExportConfig contains encoding settings for exports
type ExportConfig struct {
	Preset    string `yaml:"preset"`
	Container string `yaml:"container"`
}

// PreviewConfig contains the playback surface size
type PreviewConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FiltersConfig restricts the filter catalog; empty means every filter
type FiltersConfig struct {
	Enabled []string `yaml:"enabled,omitempty"`
}

// GoogleConfig contains Google Drive settings for publishing exports
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	TokenFile       string `yaml:"token_file,omitempty"`
	ExportsFolderID string `yaml:"exports_folder_id,omitempty"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset values
func (c *Config) ApplyDefaults() {
	if c.Paths.ImportDirectory == "" {
		c.Paths.ImportDirectory = DefaultImportDirectory
	}
	if c.Paths.ExportDirectory == "" {
		c.Paths.ExportDirectory = filepath.Join(os.TempDir(), "clip-editor")
	}
	if c.Export.Preset == "" {
		c.Export.Preset = DefaultPreset
	}
	if c.Export.Container == "" {
		c.Export.Container = DefaultContainer
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = DefaultPreviewWidth
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = DefaultPreviewHeight
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// DriveConfigured returns true if publishing to Google Drive is set up
func (c *Config) DriveConfigured() bool {
	return c.Google.CredentialsFile != "" && c.Google.ExportsFolderID != ""
}
