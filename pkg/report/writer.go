package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// Options controls what Write produces besides the JSON files.
type Options struct {
	HTML        bool   // Write report.html
	EmbedAssets bool   // Inline screenshots into report.html
	Allure      bool   // Write allure-results/
	Title       string // HTML title
}

// Build converts a suite result into the index and per-flow details.
func Build(suite *core.SuiteResult) (*Index, []FlowDetail) {
	index := &Index{
		Version:   Version,
		RunID:     suite.RunID,
		Name:      suite.Name,
		StartTime: suite.StartTime,
		EndTime:   suite.StartTime.Add(suite.Duration),
		Duration:  suite.Duration.Milliseconds(),
		Summary: Summary{
			Total:   suite.TotalFlows,
			Passed:  suite.PassedFlows,
			Failed:  suite.FailedFlows,
			Skipped: suite.SkippedFlows,
		},
		Flows: make([]FlowEntry, 0, len(suite.Flows)),
	}

	details := make([]FlowDetail, 0, len(suite.Flows))
	for i, fr := range suite.Flows {
		id := fmt.Sprintf("flow-%03d", i)
		status := statusOf(fr.Status)

		if index.Browser == "" {
			index.Browser = fr.Browser
		}

		index.Flows = append(index.Flows, FlowEntry{
			Index:      i,
			ID:         id,
			Name:       fr.Name,
			SourceFile: fr.FilePath,
			DataFile:   "flows/" + id + ".json",
			Status:     status,
			StartTime:  fr.StartTime,
			Duration:   fr.Duration.Milliseconds(),
			Error:      fr.Error,
			Message:    fr.Message,
			Steps: StepCount{
				Total:   fr.TotalSteps,
				Passed:  fr.PassedSteps,
				Failed:  fr.FailedSteps,
				Skipped: fr.SkippedSteps,
				Warned:  fr.WarnedSteps,
			},
		})

		details = append(details, FlowDetail{
			ID:         id,
			Name:       fr.Name,
			SourceFile: fr.FilePath,
			Browser:    fr.Browser,
			Status:     status,
			StartTime:  fr.StartTime,
			Duration:   fr.Duration.Milliseconds(),
			Error:      fr.Error,
			Steps:      buildSteps(fr.Steps),
		})
	}

	index.Status = runStatus(index)
	return index, details
}

func buildSteps(results []core.StepResult) []Step {
	steps := make([]Step, 0, len(results))
	for _, sr := range results {
		step := Step{
			Index:      sr.Index,
			Command:    sr.Command,
			Label:      sr.Label,
			ExecutedBy: string(sr.ExecutedBy),
			Optional:   sr.Optional,
			Status:     statusOf(sr.Status),
			Duration:   sr.Duration.Milliseconds(),
			Message:    sr.Message,
			Data:       sr.Data,
		}
		if !sr.StartTime.IsZero() {
			start := sr.StartTime
			step.StartTime = &start
		}
		if sr.Error != "" {
			step.Error = &Error{Message: sr.Error, Category: sr.Category.String()}
		}
		for _, a := range sr.Attachments {
			step.Artifacts = append(step.Artifacts, Artifact{
				Name:        a.Name,
				ContentType: a.ContentType,
				Path:        filepath.ToSlash(filepath.Join("assets", a.Path)),
			})
		}
		steps = append(steps, step)
	}
	return steps
}

// runStatus derives the overall run status from the flow entries.
func runStatus(index *Index) Status {
	if len(index.Flows) == 0 {
		return StatusSkipped
	}
	allSkipped := true
	for _, f := range index.Flows {
		if f.Status.IsFailure() {
			return StatusFailed
		}
		if f.Status != StatusSkipped {
			allSkipped = false
		}
	}
	if allSkipped {
		return StatusSkipped
	}
	return StatusPassed
}

// Write writes the report for suite into outputDir and returns the index.
func Write(outputDir string, suite *core.SuiteResult, opts Options) (*Index, error) {
	if err := ensureDir(filepath.Join(outputDir, "flows")); err != nil {
		return nil, fmt.Errorf("create flows dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}

	if err := writeAssets(outputDir, suite); err != nil {
		return nil, err
	}

	index, details := Build(suite)
	for _, fd := range details {
		if err := atomicWriteJSON(filepath.Join(outputDir, "flows", fd.ID+".json"), fd); err != nil {
			return nil, fmt.Errorf("write flow %s: %w", fd.ID, err)
		}
	}
	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}

	if opts.HTML {
		if err := GenerateHTML(outputDir, HTMLConfig{Title: opts.Title, EmbedAssets: opts.EmbedAssets}); err != nil {
			return nil, fmt.Errorf("generate html: %w", err)
		}
	}
	if opts.Allure {
		if err := GenerateAllure(outputDir); err != nil {
			return nil, fmt.Errorf("generate allure: %w", err)
		}
	}

	logger.Info("report written to %s (%d flows)", outputDir, len(details))
	return index, nil
}

// writeAssets stores the in-memory attachment bodies under assets/.
func writeAssets(outputDir string, suite *core.SuiteResult) error {
	for _, fr := range suite.Flows {
		for _, sr := range fr.Steps {
			for _, a := range sr.Attachments {
				if len(a.Body) == 0 {
					continue
				}
				path := filepath.Join(outputDir, "assets", filepath.FromSlash(a.Path))
				if err := ensureDir(filepath.Dir(path)); err != nil {
					return fmt.Errorf("create asset dir: %w", err)
				}
				if err := os.WriteFile(path, a.Body, 0o644); err != nil {
					return fmt.Errorf("write asset %s: %w", a.Path, err)
				}
			}
		}
	}
	return nil
}

// ReadReport loads report.json and every flow detail it references.
func ReadReport(reportDir string) (*Index, []FlowDetail, error) {
	var index Index
	if err := readJSON(filepath.Join(reportDir, "report.json"), &index); err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}

	flows := make([]FlowDetail, 0, len(index.Flows))
	for _, entry := range index.Flows {
		var fd FlowDetail
		if err := readJSON(filepath.Join(reportDir, filepath.FromSlash(entry.DataFile)), &fd); err != nil {
			return nil, nil, fmt.Errorf("read flow %s: %w", entry.ID, err)
		}
		flows = append(flows, fd)
	}
	return &index, flows, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// atomicWriteJSON writes v to a temp file and renames it over path.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// formatDuration renders milliseconds for humans.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
