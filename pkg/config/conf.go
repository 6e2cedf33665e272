package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mchmarny/scoreproxy/pkg/logging"
	"github.com/mchmarny/scoreproxy/pkg/query"
	"github.com/mchmarny/scoreproxy/pkg/scan"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	DefaultAddress = "127.0.0.1"
	DefaultPort    = 8080
)

// Config represents app config object.
type Config struct {
	Server   Server   `yaml:"server" json:"server"`
	Upstream Upstream `yaml:"upstream" json:"upstream"`
	Log      Log      `yaml:"log" json:"log"`
}

type Server struct {
	Address      string        `yaml:"address" json:"address"`
	Port         int           `yaml:"port" json:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins" json:"cors_origins"`
}

type Upstream struct {
	URL         string        `yaml:"url" json:"url"`
	Retries     int           `yaml:"retries" json:"retries"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	Jitter      time.Duration `yaml:"jitter" json:"jitter"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	QueryMode   string        `yaml:"query_mode" json:"query_mode"`
	NetworkType string        `yaml:"network_type" json:"network_type"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the config used when no file exists.
func Default() *Config {
	opts := scan.DefaultOptions()
	return &Config{
		Server: Server{
			Address:      DefaultAddress,
			Port:         DefaultPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			CORSOrigins:  []string{"*"},
		},
		Upstream: Upstream{
			URL:         opts.URL,
			Retries:     opts.Retries,
			BaseDelay:   opts.BaseDelay,
			Jitter:      opts.Jitter,
			Timeout:     30 * time.Second,
			QueryMode:   query.ModeVariables,
			NetworkType: query.NetworkTypeDefault,
		},
		Log: Log{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// ScanOptions maps the upstream section onto client options.
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		URL:       c.Upstream.URL,
		Retries:   c.Upstream.Retries,
		BaseDelay: c.Upstream.BaseDelay,
		Jitter:    c.Upstream.Jitter,
	}
}

// Validate checks the config for values the server cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Upstream.URL, "http://") && !strings.HasPrefix(c.Upstream.URL, "https://") {
		return fmt.Errorf("invalid upstream url: %q", c.Upstream.URL)
	}
	if c.Upstream.Retries < 0 {
		return fmt.Errorf("retries must be >= 0, got %d", c.Upstream.Retries)
	}
	if c.Upstream.BaseDelay < 0 || c.Upstream.Jitter < 0 || c.Upstream.Timeout < 0 {
		return errors.New("durations must not be negative")
	}
	if _, err := query.NewBuilder(c.Upstream.QueryMode, c.Upstream.NetworkType); err != nil {
		return fmt.Errorf("invalid query settings: %w", err)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Fields missing from the file keep their defaults.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the user home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
