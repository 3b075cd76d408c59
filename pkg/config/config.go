// Package config handles configuration for wd-adapter.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
)

// Defaults
const (
	DefaultBrowser      = "firefox"
	DefaultWDHost       = "http://localhost:4444/wd/hub"
	DefaultPollInterval = 250 * time.Millisecond
	DefaultLogLevel     = "info"
)

// Environment variables that override the config file.
const (
	EnvBrowser       = "BROWSER_NAME"
	EnvWDHost        = "WD_HOST"
	EnvLogFile       = "WD_LOG_FILE"
	EnvLogLevel      = "WD_LOG_LEVEL"
	EnvDriverOptions = "DRIVER_OPTIONS"
)

// Config represents the workspace configuration (wd-adapter.yaml).
type Config struct {
	// Session settings
	Browser           string                 `yaml:"browser"`
	WDHost            string                 `yaml:"wdHost"`
	Capabilities      map[string]interface{} `yaml:"capabilities"`      // Always win
	ExtraCapabilities map[string]interface{} `yaml:"extraCapabilities"` // Override guessed ones only
	DriverOptions     DriverOptions          `yaml:"driverOptions"`
	Timeouts          map[string]int         `yaml:"timeouts"` // Milliseconds: implicit, pageLoad, script
	Quirks            Quirks                 `yaml:"quirks"`

	// Behaviour
	FileUpload   bool          `yaml:"fileUpload"`
	PollInterval time.Duration `yaml:"pollInterval"`

	// Flow selection
	Flows []string          `yaml:"flows"` // Glob patterns for flows
	Env   map[string]string `yaml:"env"`   // Variables for ${NAME} expansion in flows

	Artifacts core.ArtifactConfig `yaml:"artifacts"`
	Log       LogConfig           `yaml:"log"`
}

// DriverOptions are browser-specific launch options, sent as
// moz:firefoxOptions or goog:chromeOptions.
type DriverOptions struct {
	Binary string                 `yaml:"binary" json:"binary"`
	Args   []string               `yaml:"args" json:"args"`
	Log    map[string]interface{} `yaml:"log" json:"log"` // Firefox only
}

// IsZero reports whether no option is set.
func (o DriverOptions) IsZero() bool {
	return o.Binary == "" && len(o.Args) == 0 && len(o.Log) == 0
}

// Quirks overrides the browser quirks derived from the browser name.
type Quirks struct {
	ClickCompensation *bool `yaml:"clickCompensation"`
	NativeWindowNames *bool `yaml:"nativeWindowNames"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns a config with defaults filled in.
func Default() *Config {
	return &Config{
		Browser:      DefaultBrowser,
		WDHost:       DefaultWDHost,
		PollInterval: DefaultPollInterval,
		Artifacts:    core.DefaultArtifactConfig(),
		Log:          LogConfig{Level: DefaultLogLevel},
	}
}

// Load loads configuration from a file. Unset keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir looks for wd-adapter.yaml or wd-adapter.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try wd-adapter.yaml first
	configPath := filepath.Join(dir, "wd-adapter.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try wd-adapter.yml
	configPath = filepath.Join(dir, "wd-adapter.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// Validate checks values the session cannot start with.
func (c *Config) Validate() error {
	if c.PollInterval < 0 {
		return fmt.Errorf("pollInterval must not be negative, got %s", c.PollInterval)
	}
	for key, ms := range c.Timeouts {
		switch key {
		case core.TimeoutImplicit, core.TimeoutPageLoad, core.TimeoutScript:
		default:
			return fmt.Errorf("unknown timeout %q: expected implicit, pageLoad or script", key)
		}
		if ms < 0 {
			return fmt.Errorf("timeout %s must not be negative", key)
		}
	}
	return nil
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides config values with environment variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvBrowser); ok && v != "" {
		c.Browser = v
	}
	if v, ok := lookup(EnvWDHost); ok && v != "" {
		c.WDHost = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.Log.File = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvDriverOptions); ok && v != "" {
		var opts DriverOptions
		if err := json.Unmarshal([]byte(v), &opts); err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvDriverOptions, err)
		}
		c.DriverOptions = opts
	}
	return nil
}

// GuessCapabilities derives build metadata from the CI environment.
func GuessCapabilities(lookup LookupFunc) map[string]interface{} {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	goVersion := "Go " + strings.TrimPrefix(runtime.Version(), "go")

	if job := env("TRAVIS_JOB_NUMBER"); job != "" {
		return map[string]interface{}{
			"tunnel-identifier": job,
			"build":             env("TRAVIS_BUILD_NUMBER"),
			"tags":              []interface{}{"Travis-CI", goVersion},
		}
	}

	if env("JENKINS_HOME") != "" {
		return map[string]interface{}{
			"tunnel-identifier": env("JOB_NAME"),
			"build":             env("BUILD_NUMBER"),
			"tags":              []interface{}{"Jenkins", goVersion, env("BUILD_TAG")},
		}
	}

	host, _ := os.Hostname()
	return map[string]interface{}{
		"tags": []interface{}{host, goVersion},
	}
}

// SessionCapabilities merges, lowest precedence first: guessed CI
// capabilities, extra capabilities, browser driver options and explicit
// capabilities.
func (c *Config) SessionCapabilities(lookup LookupFunc) map[string]interface{} {
	caps := GuessCapabilities(lookup)
	for k, v := range c.ExtraCapabilities {
		caps[k] = v
	}
	if key, opts := c.browserOptions(); key != "" {
		caps[key] = opts
	}
	for k, v := range c.Capabilities {
		caps[k] = v
	}
	return caps
}

// browserOptions renders DriverOptions under the capability key of the
// configured browser.
func (c *Config) browserOptions() (string, map[string]interface{}) {
	if c.DriverOptions.IsZero() {
		return "", nil
	}
	opts := map[string]interface{}{}
	if c.DriverOptions.Binary != "" {
		opts["binary"] = c.DriverOptions.Binary
	}
	if len(c.DriverOptions.Args) > 0 {
		args := make([]interface{}, len(c.DriverOptions.Args))
		for i, a := range c.DriverOptions.Args {
			args[i] = a
		}
		opts["args"] = args
	}

	switch strings.ToLower(c.Browser) {
	case "firefox":
		if len(c.DriverOptions.Log) > 0 {
			opts["log"] = c.DriverOptions.Log
		}
		return "moz:firefoxOptions", opts
	case "chrome", "msedge":
		return "goog:chromeOptions", opts
	default:
		return "", nil
	}
}

// TimeoutConfig returns the configured timeouts, nil when none are set.
func (c *Config) TimeoutConfig() core.TimeoutConfig {
	if len(c.Timeouts) == 0 {
		return nil
	}
	return core.TimeoutConfig(c.Timeouts).Clone()
}
