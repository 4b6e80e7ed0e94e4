package stash

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nmoreau/stash/internal/fetch"
	"github.com/nmoreau/stash/internal/imagex"
)

// Config configures the stash service.
type Config struct {
	// DBPath is the sqlite database file.
	DBPath string `yaml:"db_path"`
	// DataDir is the blob store root for uploaded and derived files.
	DataDir string `yaml:"data_dir"`
	// MaxUploadBytes caps a single uploaded file. Default: 50MB.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	Fetch fetch.Config   `yaml:"fetch"`
	Image imagex.Options `yaml:"image"`
}

// Defaults fills zero fields with production defaults.
func (c *Config) Defaults() {
	if c.DBPath == "" {
		c.DBPath = "data/stash.db"
	}
	if c.DataDir == "" {
		c.DataDir = "data/files"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 50 * 1024 * 1024
	}
	c.Fetch.Defaults()
	c.Image.Defaults()
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
