package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL  = "http://127.0.0.1:5000"
	DefaultSubmitPath  = "/draw_graphics"
	DefaultResultsPath = "/graphic"
	DefaultDriver      = "file"
	DefaultLogLevel    = "info"
	DefaultLogFile     = "atsform.log"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Layout  LayoutConfig  `yaml:"layout"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	SubmitPath  string        `yaml:"submit_path"`
	ResultsPath string        `yaml:"results_path"`
}

type SessionConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	ID     string `yaml:"id"`
}

// LayoutConfig lists which initial-condition and restriction rows the page
// renders, by 1-based index. Empty lists mean all eight rows.
type LayoutConfig struct {
	InitialConditions []int `yaml:"initial_conditions,omitempty"`
	Restrictions      []int `yaml:"restrictions,omitempty"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:         DefaultBackendURL,
			SubmitPath:  DefaultSubmitPath,
			ResultsPath: DefaultResultsPath,
		},
		Session: SessionConfig{
			Driver: DefaultDriver,
			Dir:    DefaultDataDir(),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
			File:  DefaultLogFile,
		},
	}
}

// DefaultDataDir is where sessions and logs live when nothing else is set.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "atsform")
	}
	return ".atsform"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that treats a missing file as the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LogPath resolves the log file against the session directory.
func (c *Config) LogPath() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.Session.Dir, c.Log.File)
}
