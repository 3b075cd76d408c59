package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/wd-adapter/pkg/config"
	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/driver/mock"
	"github.com/devicelab-dev/wd-adapter/pkg/driver/webdriver"
	"github.com/devicelab-dev/wd-adapter/pkg/report"
	wd "github.com/devicelab-dev/wd-adapter/pkg/webdriver"
)

func init() {
	colorsEnabled = false
}

// useMockRemote makes newRemote hand out fresh mock browsers and returns
// the ones created.
func useMockRemote(t *testing.T) *[]*mock.Browser {
	t.Helper()
	var browsers []*mock.Browser
	prev := newRemote
	newRemote = func(host string) wd.Remote {
		b := mock.NewBrowser()
		b.PNG = []byte{0x89, 0x50, 0x4E, 0x47}
		b.Source = "<html><body/></html>"
		browsers = append(browsers, b)
		return b
	}
	t.Cleanup(func() { newRemote = prev })
	return &browsers
}

func writeFlow(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Browser = "chrome"
	cfg.Log.File = filepath.Join(t.TempDir(), "test.log")
	cfg.PollInterval = 5 * time.Millisecond
	return cfg
}

func TestResolveOutputDir_Default(t *testing.T) {
	dir, err := resolveOutputDir("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(dir, "reports"+string(filepath.Separator)) {
		t.Errorf("expected dir to start with reports/, got %s", dir)
	}
	if _, err := time.Parse("2006-01-02_15-04-05", filepath.Base(dir)); err != nil {
		t.Errorf("expected timestamp folder, got %s", dir)
	}
}

func TestResolveOutputDir_CustomOutput(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Dir(dir) != "my-reports" {
		t.Errorf("expected dir inside my-reports, got %s", dir)
	}
}

func TestResolveOutputDir_Flatten(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir != "my-reports" {
		t.Errorf("expected my-reports, got %s", dir)
	}
}

func TestResolveOutputDir_FlattenWithoutOutput(t *testing.T) {
	_, err := resolveOutputDir("", true)
	if err == nil {
		t.Fatal("expected error when flatten is used without output")
	}

	if !strings.Contains(err.Error(), "--flatten requires --output") {
		t.Errorf("expected error about --flatten requiring --output, got: %v", err)
	}
}

func TestParseEnvVars(t *testing.T) {
	result := parseEnvVars([]string{"USER=test", "URL=http://x/?a=b", "EMPTY=", "NOEQUALS", "=nokey"})

	want := map[string]string{"USER": "test", "URL": "http://x/?a=b", "EMPTY": ""}
	if len(result) != len(want) {
		t.Fatalf("got %v, want %v", result, want)
	}
	for k, v := range want {
		if result[k] != v {
			t.Errorf("%s = %q, want %q", k, result[k], v)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFlowStatusLabel(t *testing.T) {
	tests := []struct {
		status core.StepStatus
		want   string
	}{
		{core.StatusPassed, "✓ PASS"},
		{core.StatusWarned, "✓ PASS"},
		{core.StatusFailed, "✗ FAIL"},
		{core.StatusErrored, "! ERR"},
		{core.StatusSkipped, "- SKIP"},
	}
	for _, tt := range tests {
		if got, _ := flowStatusLabel(tt.status); got != tt.want {
			t.Errorf("flowStatusLabel(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestCollectFlows(t *testing.T) {
	dir := t.TempDir()
	smoke := writeFlow(t, dir, "smoke.yaml", "tags:\n  - smoke\n---\n- visit: https://example.com\n")
	writeFlow(t, dir, "nested/slow.yaml", "tags:\n  - slow\n---\n- reload\n")
	writeFlow(t, dir, "notes.txt", "not a flow")

	t.Run("directory", func(t *testing.T) {
		flows, err := collectFlows([]string{dir}, nil, nil, nil)
		if err != nil {
			t.Fatalf("collectFlows() error = %v", err)
		}
		if len(flows) != 2 {
			t.Errorf("got %d flows, want 2", len(flows))
		}
	})

	t.Run("exclude tags on directory", func(t *testing.T) {
		flows, err := collectFlows([]string{dir}, nil, nil, []string{"slow"})
		if err != nil {
			t.Fatalf("collectFlows() error = %v", err)
		}
		if len(flows) != 1 || flows[0].SourcePath != smoke {
			t.Errorf("got %d flows, want only %s", len(flows), smoke)
		}
	})

	t.Run("include tags on file", func(t *testing.T) {
		flows, err := collectFlows([]string{smoke}, nil, []string{"slow"}, nil)
		if err != nil {
			t.Fatalf("collectFlows() error = %v", err)
		}
		if len(flows) != 0 {
			t.Errorf("got %d flows, want 0", len(flows))
		}
	})

	t.Run("config globs", func(t *testing.T) {
		flows, err := collectFlows(nil, []string{filepath.Join(dir, "*.yaml")}, nil, nil)
		if err != nil {
			t.Fatalf("collectFlows() error = %v", err)
		}
		if len(flows) != 1 {
			t.Errorf("got %d flows, want 1", len(flows))
		}
	})

	t.Run("nothing matched", func(t *testing.T) {
		_, err := collectFlows(nil, []string{filepath.Join(dir, "*.yml")}, nil, nil)
		if err == nil {
			t.Error("expected error when no flows match")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := collectFlows([]string{filepath.Join(dir, "missing.yaml")}, nil, nil, nil)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})
}

func TestDriverOptions(t *testing.T) {
	off := false
	cfg := config.Default()
	cfg.Quirks.ClickCompensation = &off
	cfg.Capabilities = map[string]interface{}{"acceptInsecureCerts": true}
	cfg.FileUpload = true

	opts := driverOptions(cfg)

	if opts.Browser != "firefox" {
		t.Errorf("Browser = %q, want firefox", opts.Browser)
	}
	if opts.Quirks.NeedsClickCompensation() {
		t.Error("expected click compensation to be turned off")
	}
	if opts.Quirks.ResolvesWindowNamesNatively() != webdriver.Firefox.ResolvesWindowNamesNatively() {
		t.Error("unset quirk should keep the browser default")
	}
	if opts.Capabilities["acceptInsecureCerts"] != true {
		t.Errorf("Capabilities = %v, missing acceptInsecureCerts", opts.Capabilities)
	}
	if !opts.FileUpload || opts.PollInterval != config.DefaultPollInterval {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestExecute_Sequential(t *testing.T) {
	browsers := useMockRemote(t)
	dir := t.TempDir()
	flowPath := writeFlow(t, dir, "home.yaml", "name: Home\n---\n- visit: ${BASE}/home\n- reload\n")

	cfg := testConfig(t)
	cfg.Timeouts = map[string]int{core.TimeoutPageLoad: 30000}
	out := filepath.Join(dir, "out")

	suite, err := execute(context.Background(), cfg, runOptions{
		Paths:     []string{flowPath},
		Env:       map[string]string{"BASE": "https://example.com"},
		OutputDir: out,
		Parallel:  1,
		Report:    report.Options{HTML: true},
	})
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	if !suite.Success() {
		t.Fatalf("expected success, got %+v", suite.Flows)
	}
	if len(*browsers) != 1 {
		t.Fatalf("created %d browsers, want 1", len(*browsers))
	}
	b := (*browsers)[0]
	if b.URL != "https://example.com/home" {
		t.Errorf("URL = %q", b.URL)
	}
	if b.SessionID() != "" {
		t.Error("expected session to be closed after the run")
	}
	if len(b.Timeouts) == 0 {
		t.Error("expected configured timeouts to be sent")
	}
	if name := b.Capabilities[0]["browserName"]; name != "chrome" {
		t.Errorf("browserName = %v, want chrome", name)
	}

	for _, name := range []string{"report.json", "report.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	idx, _, err := report.ReadReport(out)
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if idx.Summary.Passed != 1 || idx.Flows[0].Name != "Home" {
		t.Errorf("unexpected report index %+v", idx)
	}
}

func TestExecute_Parallel(t *testing.T) {
	browsers := useMockRemote(t)
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		writeFlow(t, dir, name, "- visit: https://example.com/"+name+"\n")
	}

	suite, err := execute(context.Background(), testConfig(t), runOptions{
		Paths:     []string{dir},
		OutputDir: filepath.Join(dir, "out"),
		Parallel:  5,
	})
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	if suite.PassedFlows != 3 {
		t.Errorf("PassedFlows = %d, want 3", suite.PassedFlows)
	}
	// Never more sessions than flows
	if len(*browsers) != 3 {
		t.Errorf("created %d browsers, want 3", len(*browsers))
	}
	for i, b := range *browsers {
		if b.SessionID() != "" {
			t.Errorf("browser %d: session left open", i)
		}
	}
}

func TestExecute_FailingFlow(t *testing.T) {
	useMockRemote(t)
	dir := t.TempDir()
	flowPath := writeFlow(t, dir, "broken.yaml", "- click: //button[@id='missing']\n")

	suite, err := execute(context.Background(), testConfig(t), runOptions{
		Paths:     []string{flowPath},
		OutputDir: filepath.Join(dir, "out"),
	})
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if suite.Success() {
		t.Error("expected failure")
	}
	if suite.FailedFlows != 1 {
		t.Errorf("FailedFlows = %d, want 1", suite.FailedFlows)
	}
}

func TestExecute_SessionFailure(t *testing.T) {
	prev := newRemote
	newRemote = func(string) wd.Remote {
		b := mock.NewBrowser()
		b.Errors["NewSession"] = errors.New("connection refused")
		return b
	}
	t.Cleanup(func() { newRemote = prev })

	dir := t.TempDir()
	flowPath := writeFlow(t, dir, "home.yaml", "- reload\n")

	_, err := execute(context.Background(), testConfig(t), runOptions{
		Paths:     []string{flowPath},
		OutputDir: filepath.Join(dir, "out"),
	})
	if !errors.Is(err, core.ErrConnection) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestExecute_NoFlows(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(context.Background(), testConfig(t), runOptions{
		Paths:       []string{writeFlow(t, dir, "a.yaml", "tags: [a]\n---\n- reload\n")},
		IncludeTags: []string{"b"},
		OutputDir:   filepath.Join(dir, "out"),
	})
	if err == nil || !strings.Contains(err.Error(), "no flows") {
		t.Errorf("expected no flows error, got %v", err)
	}
}

func TestTakeScreenshot(t *testing.T) {
	browsers := useMockRemote(t)
	path := filepath.Join(t.TempDir(), "shots", "home.png")

	if err := takeScreenshot(testConfig(t), "https://example.com", path); err != nil {
		t.Fatalf("takeScreenshot() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read screenshot: %v", err)
	}
	if string(data) != "\x89PNG" {
		t.Errorf("unexpected screenshot bytes %q", data)
	}
	b := (*browsers)[0]
	if b.URL != "https://example.com" || b.SessionID() != "" {
		t.Errorf("URL = %q, session = %q", b.URL, b.SessionID())
	}
}

func TestTakeScreenshot_ClosesSessionOnError(t *testing.T) {
	browsers := useMockRemote(t)
	prev := newRemote
	newRemote = func(host string) wd.Remote {
		r := prev(host)
		(*browsers)[len(*browsers)-1].Errors["Navigate"] = errors.New("net::ERR_NAME_NOT_RESOLVED")
		return r
	}

	err := takeScreenshot(testConfig(t), "https://invalid.test", filepath.Join(t.TempDir(), "x.png"))
	if err == nil {
		t.Fatal("expected error")
	}
	if (*browsers)[0].SessionID() != "" {
		t.Error("expected session to be closed")
	}
}

func TestApp_Run(t *testing.T) {
	useMockRemote(t)
	t.Setenv(config.EnvBrowser, "")
	t.Setenv(config.EnvWDHost, "")
	t.Setenv(config.EnvLogFile, "")
	t.Setenv(config.EnvDriverOptions, "")

	dir := t.TempDir()
	good := writeFlow(t, dir, "good.yaml", "- visit: https://example.com\n")
	bad := writeFlow(t, dir, "bad.yaml", "- click: //missing\n")

	var exitErr error
	app := newApp()
	app.ExitErrHandler = func(_ *cli.Context, err error) { exitErr = err }

	out := filepath.Join(dir, "out")
	args := []string{"wd-adapter", "--no-ansi", "--browser", "chrome", "run", "--html=false", "--output", out, "--flatten"}

	if err := app.Run(append(args, good)); err != nil {
		t.Fatalf("run good flow: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "report.json")); err != nil {
		t.Errorf("expected report.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "report.html")); !os.IsNotExist(err) {
		t.Errorf("expected no report.html with --html=false, got %v", err)
	}

	err := app.Run(append(args, bad))
	var coder cli.ExitCoder
	if !errors.As(err, &coder) || coder.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %v", err)
	}
	if exitErr == nil {
		t.Error("expected exit handler to be called")
	}
}

func TestExecute_InvalidRunFlowReference(t *testing.T) {
	browsers := useMockRemote(t)
	dir := t.TempDir()
	flowPath := writeFlow(t, dir, "main.yaml", "- runFlow: missing.yaml\n")

	_, err := execute(context.Background(), testConfig(t), runOptions{
		Paths:     []string{flowPath},
		OutputDir: filepath.Join(dir, "out"),
	})
	if err == nil || !strings.Contains(err.Error(), "invalid flows") {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(*browsers) != 0 {
		t.Error("no session should be opened for invalid flows")
	}
}
