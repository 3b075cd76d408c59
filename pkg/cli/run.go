package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/devicelab-dev/wd-adapter/pkg/config"
	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/driver/webdriver"
	"github.com/devicelab-dev/wd-adapter/pkg/executor"
	"github.com/devicelab-dev/wd-adapter/pkg/flow"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
	"github.com/devicelab-dev/wd-adapter/pkg/report"
	"github.com/devicelab-dev/wd-adapter/pkg/validator"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

// newRemote builds the WebDriver transport for a host.
var newRemote = func(host string) wd.Remote {
	return wd.NewClient(host)
}

var runCommand = &cli.Command{
	Name:      "run",
	Aliases:   []string{"test"},
	Usage:     "Run flow files",
	ArgsUsage: "[flow files or directories...]",
	Description: `Runs flows in a browser session. With no arguments the flows
globs from wd-adapter.yaml are used.

Examples:
  wd-adapter run login.yaml
  wd-adapter run flows/ --include-tags smoke
  wd-adapter run flows/ --parallel 4 --stop-on-fail`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Flow variables (KEY=VALUE), can be repeated",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only run flows with at least one of these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip flows with any of these tags",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Report directory (default: ./reports/<timestamp>)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Write the report directly into --output without a timestamp folder",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Number of browser sessions to run flows on",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining flows after the first failure",
		},
		&cli.BoolFlag{
			Name:  "reset-between-flows",
			Usage: "Clear cookies and timeouts between flows in a session",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "Generate report.html",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "embed-assets",
			Usage: "Inline screenshots into report.html",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Write allure-results next to the report",
		},
	},
	Action: runFlows,
}

// runOptions holds the run command's flags after parsing.
type runOptions struct {
	Paths             []string
	Env               map[string]string
	IncludeTags       []string
	ExcludeTags       []string
	OutputDir         string
	Parallel          int
	StopOnFail        bool
	ResetBetweenFlows bool
	Report            report.Options
}

func runFlows(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(getString(c, "output"), getBool(c, "flatten"))
	if err != nil {
		return err
	}

	opts := runOptions{
		Paths:             c.Args().Slice(),
		Env:               parseEnvVars(getStringSlice(c, "env")),
		IncludeTags:       getStringSlice(c, "include-tags"),
		ExcludeTags:       getStringSlice(c, "exclude-tags"),
		OutputDir:         outputDir,
		Parallel:          getInt(c, "parallel"),
		StopOnFail:        getBool(c, "stop-on-fail"),
		ResetBetweenFlows: getBool(c, "reset-between-flows"),
		Report: report.Options{
			HTML:        c.Bool("html"),
			EmbedAssets: getBool(c, "embed-assets"),
			Allure:      getBool(c, "allure"),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite, err := execute(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if !suite.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

// execute runs the flows and writes the report. It returns an error only
// when nothing could be run.
func execute(ctx context.Context, cfg *config.Config, opts runOptions) (*core.SuiteResult, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logPath, err := initLogging(cfg, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	defer logger.Close()

	flows, err := collectFlows(opts.Paths, cfg.Flows, opts.IncludeTags, opts.ExcludeTags)
	if err != nil {
		return nil, err
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("no flows to run")
	}
	if res := validator.New().Validate(flows); !res.IsValid() {
		return nil, fmt.Errorf("invalid flows: %w", multierr.Combine(res.Errors...))
	}

	env := make(map[string]string, len(cfg.Env)+len(opts.Env))
	for k, v := range cfg.Env {
		env[k] = v
	}
	for k, v := range opts.Env {
		env[k] = v
	}

	runCfg := executor.RunnerConfig{
		Name:              "wd-adapter",
		Browser:           cfg.Browser,
		OutputDir:         opts.OutputDir,
		StopOnFail:        opts.StopOnFail,
		Artifacts:         cfg.Artifacts,
		Env:               env,
		Timeouts:          cfg.TimeoutConfig(),
		ResetBetweenFlows: opts.ResetBetweenFlows,
		OnStepComplete:    onStepComplete,
		OnFlowEnd:         onFlowEnd,
	}

	fmt.Printf("\n  %swd-adapter%s %s  %s%s @ %s%s\n",
		color(colorBold), color(colorReset), Version,
		color(colorGray), cfg.Browser, cfg.WDHost, color(colorReset))
	fmt.Printf("  %s%d flow(s)%s\n", color(colorDim), len(flows), color(colorReset))
	logger.Info("running %d flow(s) on %s at %s", len(flows), cfg.Browser, cfg.WDHost)

	var suite *core.SuiteResult
	if opts.Parallel > 1 {
		suite, err = runParallel(ctx, cfg, runCfg, flows, opts.Parallel)
	} else {
		suite, err = runSequential(ctx, cfg, runCfg, flows)
	}
	if suite == nil {
		return nil, err
	}
	if err != nil {
		// Session cleanup failures do not change flow results
		logger.Warn("cleanup: %v", err)
		fmt.Printf("  %swarning:%s %v\n", color(colorYellow), color(colorReset), err)
	}

	printSummary(suite)

	if _, err := report.Write(opts.OutputDir, suite, opts.Report); err != nil {
		return suite, fmt.Errorf("failed to write report: %w", err)
	}
	printReportPaths(opts.OutputDir, logPath, opts.Report)
	return suite, nil
}

func runSequential(ctx context.Context, cfg *config.Config, runCfg executor.RunnerConfig, flows []*flow.Flow) (*core.SuiteResult, error) {
	d, err := newDriver(cfg)
	if err != nil {
		return nil, err
	}

	runCfg.OnFlowStart = onFlowStart
	suite, err := executor.New(d, runCfg).Run(ctx, flows)
	if err != nil {
		return nil, err
	}
	return suite, d.Stop()
}

func runParallel(ctx context.Context, cfg *config.Config, runCfg executor.RunnerConfig, flows []*flow.Flow, n int) (*core.SuiteResult, error) {
	if n > len(flows) {
		n = len(flows)
	}

	workers := make([]executor.BrowserWorker, n)
	for i := range workers {
		d, err := newDriver(cfg)
		if err != nil {
			return nil, err
		}
		workers[i] = executor.BrowserWorker{
			ID:     i + 1,
			Driver: d,
			Cleanup: func() error {
				if !d.IsStarted() {
					return nil
				}
				return d.Stop()
			},
		}
	}

	fmt.Printf("  %s%d browser sessions%s\n", color(colorDim), n, color(colorReset))
	runCfg.OnFlowStart = onFlowStart
	return executor.NewParallelRunner(workers, runCfg).Run(ctx, flows)
}

// newDriver creates an adapter for the configured browser. The session is
// opened by the runner.
func newDriver(cfg *config.Config) (*webdriver.Driver, error) {
	d := webdriver.New(newRemote(cfg.WDHost), driverOptions(cfg))
	if err := d.SetTimeouts(cfg.TimeoutConfig()); err != nil {
		return nil, err
	}
	return d, nil
}

func driverOptions(cfg *config.Config) webdriver.Options {
	return webdriver.Options{
		Browser:      cfg.Browser,
		Capabilities: cfg.SessionCapabilities(nil),
		Quirks: webdriver.OverrideQuirks(
			webdriver.QuirksFor(cfg.Browser),
			cfg.Quirks.ClickCompensation,
			cfg.Quirks.NativeWindowNames,
		),
		PollInterval: cfg.PollInterval,
		FileUpload:   cfg.FileUpload,
	}
}

// collectFlows parses the given files and directories. With no paths the
// config globs are expanded instead.
func collectFlows(paths, patterns, includeTags, excludeTags []string) ([]*flow.Flow, error) {
	if len(paths) == 0 {
		for _, pattern := range patterns {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid flow pattern %q: %w", pattern, err)
			}
			paths = append(paths, matches...)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("no flow files given and no flows matched in config")
		}
	}

	var flows []*flow.Flow
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("flow path: %w", err)
		}

		if info.IsDir() {
			dirFlows, err := flow.ParseDirectory(path, includeTags, excludeTags)
			if err != nil {
				return nil, err
			}
			flows = append(flows, dirFlows...)
			continue
		}

		f, err := flow.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if flow.ShouldIncludeFlow(f, includeTags, excludeTags) {
			flows = append(flows, f)
		}
	}
	return flows, nil
}

// resolveOutputDir returns the report directory: ./reports/<timestamp> by
// default, <output>/<timestamp> with --output and <output> with --flatten.
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output")
	}
	if output == "" {
		output = "reports"
	}
	output = filepath.Clean(output)
	if flatten {
		return output, nil
	}
	return filepath.Join(output, time.Now().Format("2006-01-02_15-04-05")), nil
}
