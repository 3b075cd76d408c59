package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/devicelab-dev/wd-adapter/pkg/config"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

var screenshotCommand = &cli.Command{
	Name:      "screenshot",
	Usage:     "Open a URL in a new session and save a screenshot",
	ArgsUsage: "<url>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "PNG file to write (default: <home>/artifacts/screenshot-<timestamp>.png)",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one URL, got %d arguments", c.NArg())
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if _, err := initLogging(cfg, ""); err != nil {
			return err
		}
		defer logger.Close()

		out := c.String("output")
		if out == "" {
			out = filepath.Join(config.GetArtifactsDir(),
				fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405")))
		}

		if err := takeScreenshot(cfg, c.Args().First(), out); err != nil {
			return err
		}
		fmt.Printf("  %s✓%s Saved %s\n", color(colorGreen), color(colorReset), out)
		return nil
	},
}

// takeScreenshot visits url in a fresh session and writes the PNG to path.
// The session is always closed.
func takeScreenshot(cfg *config.Config, url, path string) (err error) {
	d, err := newDriver(cfg)
	if err != nil {
		return err
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}
	defer func() {
		err = multierr.Append(err, d.Stop())
	}()

	if err := d.Visit(url); err != nil {
		return err
	}
	png, err := d.GetScreenshot()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	logger.Info("screenshot of %s saved to %s", url, path)
	return nil
}
