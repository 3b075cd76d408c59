package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateAllure(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, testSuite(), Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := GenerateAllure(dir); err != nil {
		t.Fatalf("GenerateAllure() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "allure-results", "flow-001-result.json"))
	if err != nil {
		t.Fatal(err)
	}
	var result AllureResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid result json: %v", err)
	}

	if result.UUID != "run-1-flow-001" || result.Status != "failed" || result.Stage != "finished" {
		t.Errorf("unexpected result header: %+v", result)
	}
	if result.StatusDetails.Message != "text mismatch" {
		t.Errorf("message = %q", result.StatusDetails.Message)
	}
	if !strings.Contains(result.StatusDetails.Trace, "step 0 assertText") {
		t.Errorf("trace = %q", result.StatusDetails.Trace)
	}
	if len(result.Steps) != 2 || result.Steps[1].Status != "skipped" {
		t.Errorf("steps = %+v", result.Steps)
	}
	if len(result.Attachments) != 2 || result.Attachments[0].Source != "flow-001-step-000-screenshot.png" {
		t.Errorf("attachments = %+v", result.Attachments)
	}
	if result.Stop-result.Start != 900 {
		t.Errorf("duration = %d", result.Stop-result.Start)
	}

	labels := map[string]string{}
	for _, l := range result.Labels {
		labels[l.Name] = l.Value
	}
	if labels["parentSuite"] != "checkout.yaml" || labels["host"] != "firefox" {
		t.Errorf("labels = %v", labels)
	}

	env, err := os.ReadFile(filepath.Join(dir, "allure-results", "environment.properties"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(env), "run.id=run-1\n") || !strings.Contains(string(env), "browser=firefox\n") {
		t.Errorf("environment = %q", env)
	}
}

func TestMapAllureStatus(t *testing.T) {
	tests := map[Status]string{
		StatusPassed:  "passed",
		StatusWarned:  "passed",
		StatusFailed:  "failed",
		StatusErrored: "broken",
		StatusSkipped: "skipped",
		StatusPending: "unknown",
	}
	for in, want := range tests {
		if got := mapAllureStatus(in); got != want {
			t.Errorf("mapAllureStatus(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestAllureSource(t *testing.T) {
	if got := allureSource("assets/flow-002/step-001-page.html"); got != "flow-002-step-001-page.html" {
		t.Errorf("allureSource() = %q", got)
	}
}

func TestFnv32aHash(t *testing.T) {
	a := fnv32aHash("Login:flows/login.yaml")
	if len(a) != 8 {
		t.Errorf("hash length = %d", len(a))
	}
	if a != fnv32aHash("Login:flows/login.yaml") {
		t.Error("hash should be stable")
	}
	if a == fnv32aHash("Login:flows/other.yaml") {
		t.Error("different inputs should differ")
	}
}
