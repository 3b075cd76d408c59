package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Steps slower than this are highlighted.
const slowThreshold = 5 * time.Second

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// Live progress callbacks

func onFlowStart(flowIdx, totalFlows int, name, file string) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), flowIdx+1, totalFlows, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Println(strings.Repeat("─", 60))
}

func onStepComplete(idx int, desc string, status core.StepStatus, duration time.Duration, errMsg string) {
	durStr := formatDuration(duration)

	switch status {
	case core.StatusPassed:
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		// repeat and runFlow wrap many steps, their time is expected
		compound := strings.HasPrefix(desc, "repeat") || strings.HasPrefix(desc, "runFlow")
		if duration >= slowThreshold && !compound {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Printf("    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), desc, durColor, durStr, color(colorReset))
	case core.StatusWarned:
		fmt.Printf("    %s⚠%s %s (%s) %soptional%s\n",
			color(colorYellow), color(colorReset), desc, durStr, color(colorGray), color(colorReset))
		printStepError(errMsg)
	case core.StatusSkipped:
		fmt.Printf("    %s-%s %s\n", color(colorCyan), color(colorReset), desc)
	default:
		fmt.Printf("    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, durStr)
		printStepError(errMsg)
	}
}

func printStepError(errMsg string) {
	if errMsg != "" {
		fmt.Printf("      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
	}
}

func onFlowEnd(name string, status core.StepStatus, duration time.Duration) {
	symbol, c := "✓", colorGreen
	switch {
	case status == core.StatusSkipped:
		symbol, c = "-", colorCyan
	case !status.IsSuccess():
		symbol, c = "✗", colorRed
	}
	fmt.Printf("%s%s %s%s %s%s%s\n",
		color(c), symbol, color(colorReset), name, color(colorGray), formatDuration(duration), color(colorReset))
}

func printSummary(suite *core.SuiteResult) {
	totalSteps, passedSteps, failedSteps, skippedSteps := 0, 0, 0, 0
	for _, fr := range suite.Flows {
		totalSteps += fr.TotalSteps
		passedSteps += fr.PassedSteps + fr.WarnedSteps
		failedSteps += fr.FailedSteps
		skippedSteps += fr.SkippedSteps
	}

	fmt.Println()
	if passedSteps > 0 {
		fmt.Printf("  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(suite.Duration))
	}
	if failedSteps > 0 {
		fmt.Printf("  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Printf("  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Println()

	tableWidth := 92
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Printf("  %-42s %6s %7s %6s %6s %6s %10s\n", "Flow", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Println(strings.Repeat("─", tableWidth))

	for _, fr := range suite.Flows {
		status, statusColor := flowStatusLabel(fr.Status)

		name := fr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Printf("  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			fr.TotalSteps, fr.PassedSteps+fr.WarnedSteps, fr.FailedSteps, fr.SkippedSteps,
			formatDuration(fr.Duration))
	}

	fmt.Println(strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", suite.PassedFlows, suite.TotalFlows)
	statusColor := color(colorGreen)
	if suite.FailedFlows > 0 {
		statusColor = color(colorRed)
	}
	fmt.Printf("  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(suite.Duration))
	fmt.Println(strings.Repeat("═", tableWidth))
}

func flowStatusLabel(status core.StepStatus) (string, string) {
	switch {
	case status == core.StatusSkipped:
		return "- SKIP", color(colorCyan)
	case status == core.StatusErrored:
		return "! ERR", color(colorRed)
	case !status.IsSuccess():
		return "✗ FAIL", color(colorRed)
	default:
		return "✓ PASS", color(colorGreen)
	}
}

func printReportPaths(outputDir, logPath string, opts report.Options) {
	fmt.Println()
	fmt.Printf("  %sReport:%s %s\n", color(colorGray), color(colorReset), filepath.Join(outputDir, "report.json"))
	if opts.HTML {
		fmt.Printf("  %sHTML:%s   %s\n", color(colorGray), color(colorReset), filepath.Join(outputDir, "report.html"))
	}
	if opts.Allure {
		fmt.Printf("  %sAllure:%s %s\n", color(colorGray), color(colorReset), filepath.Join(outputDir, "allure-results"))
	}
	fmt.Printf("  %sLog:%s    %s\n", color(colorGray), color(colorReset), logPath)
	fmt.Println()
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
}

// parseEnvVars parses KEY=VALUE pairs. Entries without '=' are ignored.
func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, env := range envs {
		key, value, ok := strings.Cut(env, "=")
		if !ok || key == "" {
			continue
		}
		result[key] = value
	}
	return result
}
