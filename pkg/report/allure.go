package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Stage       string             `json:"stage"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Steps       []AllureStep       `json:"steps"`
	Attachments []AllureAttachment `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// GenerateAllure generates Allure-compatible report files in <reportDir>/allure-results/.
func GenerateAllure(reportDir string) error {
	index, flows, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	// One result file per flow
	for i, entry := range index.Flows {
		var detail *FlowDetail
		if i < len(flows) {
			detail = &flows[i]
		}

		result := buildAllureResult(&entry, detail, index)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", entry.ID, err)
		}

		resultPath := filepath.Join(allureDir, entry.ID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}
	}

	copyAllureAttachments(reportDir, allureDir, flows)

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, index)
}

// buildAllureResult builds an AllureResult from a flow entry and its detail.
func buildAllureResult(entry *FlowEntry, detail *FlowDetail, index *Index) AllureResult {
	startMs := entry.StartTime.UnixMilli()
	stopMs := startMs + entry.Duration

	labels := []AllureLabel{
		{Name: "suite", Value: entry.Name},
		{Name: "parentSuite", Value: filepath.Base(entry.SourceFile)},
		{Name: "framework", Value: "webdriver"},
		{Name: "severity", Value: "normal"},
	}
	if index.Browser != "" {
		labels = append(labels, AllureLabel{Name: "host", Value: index.Browser})
	}

	var statusDetails AllureStatusDetails
	switch {
	case entry.Error != "":
		statusDetails.Message = entry.Error
	case entry.Message != "":
		statusDetails.Message = entry.Message
	}

	steps := []AllureStep{}
	var attachments []AllureAttachment
	if detail != nil {
		steps = buildAllureSteps(detail.Steps)
		attachments = collectAttachments(detail.Steps)
		if statusDetails.Message != "" {
			statusDetails.Trace = failureTrace(detail.Steps)
		}
	}

	return AllureResult{
		UUID:          index.RunID + "-" + entry.ID,
		HistoryID:     fnv32aHash(entry.Name + ":" + entry.SourceFile),
		FullName:      entry.Name,
		Name:          entry.Name,
		Status:        mapAllureStatus(entry.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		StatusDetails: statusDetails,
		Steps:         steps,
		Attachments:   attachments,
	}
}

// buildAllureSteps builds Allure steps from report steps.
func buildAllureSteps(steps []Step) []AllureStep {
	out := make([]AllureStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, buildAllureStep(s))
	}
	return out
}

func buildAllureStep(s Step) AllureStep {
	name := s.Command
	if s.Label != "" {
		name = s.Command + ": " + s.Label
	}

	var startMs, stopMs int64
	if s.StartTime != nil {
		startMs = s.StartTime.UnixMilli()
		stopMs = startMs + s.Duration
	}

	return AllureStep{
		Name:        name,
		Status:      mapAllureStatus(s.Status),
		Stage:       "finished",
		Start:       startMs,
		Stop:        stopMs,
		Steps:       []AllureStep{},
		Attachments: stepAttachments(s),
	}
}

func stepAttachments(s Step) []AllureAttachment {
	var attachments []AllureAttachment
	for _, a := range s.Artifacts {
		attachments = append(attachments, AllureAttachment{
			Name:   a.Name,
			Source: allureSource(a.Path),
			Type:   a.ContentType,
		})
	}
	return attachments
}

// collectAttachments gathers every step attachment into a flat flow-level list.
func collectAttachments(steps []Step) []AllureAttachment {
	var attachments []AllureAttachment
	for _, s := range steps {
		attachments = append(attachments, stepAttachments(s)...)
	}
	return attachments
}

// failureTrace lists the failed steps with their errors.
func failureTrace(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		if s.Error == nil || !s.Status.IsFailure() {
			continue
		}
		fmt.Fprintf(&b, "step %d %s: %s\n", s.Index, s.Command, s.Error.Message)
	}
	return b.String()
}

// allureSource flattens an asset path into a unique file name, since
// allure-results has no subdirectories.
func allureSource(path string) string {
	path = strings.TrimPrefix(filepath.ToSlash(path), "assets/")
	return strings.ReplaceAll(path, "/", "-")
}

// copyAllureAttachments copies asset files into allure-results/.
func copyAllureAttachments(reportDir, allureDir string, flows []FlowDetail) {
	for _, flow := range flows {
		for _, s := range flow.Steps {
			for _, a := range s.Artifacts {
				src := filepath.Join(reportDir, filepath.FromSlash(a.Path))
				copyFile(src, filepath.Join(allureDir, allureSource(a.Path)))
			}
		}
	}
}

// copyFile copies a single file from src to dst. Missing sources are
// ignored.
func copyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps report Status to Allure status string.
func mapAllureStatus(s Status) string {
	switch s {
	case StatusPassed, StatusWarned:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "broken"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*(no such element|not found).*"},
		{Name: "Element Not Interactable", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*not interactable.*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*timeout.*|.*timed out.*|.*not met within.*"},
		{Name: "Assertion Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*expected.*"},
		{Name: "Session Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*session.*|.*connection.*"},
		{Name: "Script Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*javascript error.*|.*script.*"},
		{Name: "Alert Error", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*alert.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeAllureEnvironment writes environment.properties with run metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=webdriver\n")
	fmt.Fprintf(&b, "run.id=%s\n", index.RunID)
	if index.Browser != "" {
		fmt.Fprintf(&b, "browser=%s\n", index.Browser)
	}
	if index.Name != "" {
		fmt.Fprintf(&b, "suite=%s\n", index.Name)
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}
