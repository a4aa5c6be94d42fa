// Package config loads harness settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config file is named and it exists.
const DefaultFile = "uismoke.yaml"

// Environment variables that override the file.
const (
	EnvBaseURL    = "UISMOKE_BASE_URL"
	EnvPort       = "PORT"
	EnvHeadless   = "UISMOKE_HEADLESS"
	EnvBrowserBin = "UISMOKE_BROWSER_BIN"
)

// DefaultPort is used for the base URL when PORT is unset.
const DefaultPort = "3000"

// Credentials sign the runners in.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Config holds every harness setting.
type Config struct {
	// BaseURL is where the application under test is served. Empty means
	// http://localhost:$PORT.
	BaseURL string `yaml:"base_url"`

	FixturesDir    string `yaml:"fixtures_dir"`
	ReportsDir     string `yaml:"reports_dir"`
	ScreenshotsDir string `yaml:"screenshots_dir"`
	SummaryFile    string `yaml:"summary_file"`
	HistoryDB      string `yaml:"history_db"`

	// Timeout bounds each navigation and element wait.
	Timeout time.Duration `yaml:"timeout"`

	// RunnerTimeout bounds one runner process in a sweep.
	RunnerTimeout time.Duration `yaml:"runner_timeout"`

	Headless   bool          `yaml:"headless"`
	BrowserBin string        `yaml:"browser_bin"`
	SlowMotion time.Duration `yaml:"slow_motion"`

	Credentials Credentials `yaml:"credentials"`

	// Runners is the default sweep order.
	Runners []string `yaml:"runners"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		FixturesDir:    "test-data",
		ReportsDir:     "test-results",
		ScreenshotsDir: filepath.Join("test-results", "screenshots"),
		SummaryFile:    "test-summary.md",
		HistoryDB:      filepath.Join("test-results", "history.db"),
		Timeout:        10 * time.Second,
		RunnerTimeout:  5 * time.Minute,
		Headless:       true,
		Credentials:    Credentials{Username: "admin", Password: "Admin@123"},
		Runners:        []string{"login", "users", "roles", "guests", "rsvp", "subevents"},
	}
}

// Load builds the configuration. path names a YAML file; empty reads
// DefaultFile when present. The nearest .env at or above the working
// directory is loaded first without overriding variables already set.
func Load(path string) (Config, error) {
	if wd, err := os.Getwd(); err == nil {
		if err := LoadEnvFile(wd); err != nil {
			return Config{}, err
		}
	}
	return LoadWithEnv(path, os.Getenv)
}

// FindEnvFile walks up from dir to the filesystem root and returns the first
// .env found, or "".
func FindEnvFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadEnvFile exports the nearest .env into the process environment.
// Variables already set win.
func LoadEnvFile(dir string) error {
	file := FindEnvFile(dir)
	if file == "" {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

// LoadWithEnv is Load with an explicit environment and no .env handling.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if c.BaseURL == "" {
		port := strings.TrimSpace(getenv(EnvPort))
		if port == "" {
			port = DefaultPort
		}
		c.BaseURL = "http://localhost:" + port
	}
	if v := strings.TrimSpace(getenv(EnvHeadless)); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Headless = headless
	}
	if v := strings.TrimSpace(getenv(EnvBrowserBin)); v != "" {
		c.BrowserBin = v
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RunnerTimeout <= 0 {
		return fmt.Errorf("runner_timeout must be positive")
	}
	if c.FixturesDir == "" || c.ReportsDir == "" {
		return fmt.Errorf("fixtures_dir and reports_dir are required")
	}
	if len(c.Runners) == 0 {
		return fmt.Errorf("runners must be non-empty")
	}
	return nil
}

// FixturePath locates a fixture file.
func (c Config) FixturePath(file string) string {
	return filepath.Join(c.FixturesDir, file)
}

// ReportPath locates a runner's report file.
func (c Config) ReportPath(file string) string {
	return filepath.Join(c.ReportsDir, file)
}

// SummaryPath locates the combined summary.
func (c Config) SummaryPath() string {
	if filepath.IsAbs(c.SummaryFile) {
		return c.SummaryFile
	}
	return filepath.Join(c.ReportsDir, c.SummaryFile)
}
