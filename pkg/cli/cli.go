// Package cli provides the command-line interface for wd-adapter.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/wd-adapter/pkg/config"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "browser",
		Aliases: []string{"b"},
		Usage:   "Browser to automate (firefox, chrome, msedge, safari)",
		EnvVars: []string{config.EnvBrowser},
	},
	&cli.StringFlag{
		Name:    "wd-host",
		Usage:   "WebDriver server URL",
		EnvVars: []string{config.EnvWDHost},
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to wd-adapter.yaml (default: ./wd-adapter.yaml if present)",
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path",
		EnvVars: []string{config.EnvLogFile},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{config.EnvLogLevel},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "wd-adapter",
		Usage:   "Run browser flows against a W3C WebDriver server",
		Version: Version,
		Description: `wd-adapter drives Firefox, Chrome, Edge or Safari through a
WebDriver server (geckodriver, chromedriver, Selenium Grid) and runs YAML flow
files against it.

Examples:
  wd-adapter run login.yaml
  wd-adapter --browser chrome run flows/ -e USER=test
  wd-adapter run flows/ --parallel 3 --output ./reports
  wd-adapter screenshot https://example.com -o home.png`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			screenshotCommand,
		},
	}
}

// loadConfig resolves configuration in order: config file, .env, environment
// and then global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := getString(c, "config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if v := getString(c, "browser"); v != "" {
		cfg.Browser = v
	}
	if v := getString(c, "wd-host"); v != "" {
		cfg.WDHost = v
	}
	if v := getString(c, "log-file"); v != "" {
		cfg.Log.File = v
	}
	if v := getString(c, "log-level"); v != "" {
		cfg.Log.Level = v
	}
	if getBool(c, "verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// initLogging opens the log file. dir is used when no file is configured.
func initLogging(cfg *config.Config, dir string) (string, error) {
	path := cfg.Log.File
	if path == "" {
		if dir == "" {
			dir = config.GetLogsDir()
		}
		path = filepath.Join(dir, "wd-adapter.log")
	}
	if err := logger.InitWithLevel(path, cfg.Log.Level); err != nil {
		return "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	return path, nil
}

// Flag lookups check the command first and then its parents, so global
// flags may be given after the command name.

func getString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	return c.String(name)
}

func getInt(c *cli.Context, name string) int {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.Int(name)
		}
	}
	return c.Int(name)
}

func getBool(c *cli.Context, name string) bool {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.Bool(name)
		}
	}
	return c.Bool(name)
}

func getStringSlice(c *cli.Context, name string) []string {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.StringSlice(name)
		}
	}
	return c.StringSlice(name)
}
