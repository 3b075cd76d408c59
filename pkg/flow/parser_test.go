package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_SimpleFlow(t *testing.T) {
	yaml := `
- visit: "https://example.com/login"
- setValue:
    xpath: //input[@name='user']
    value: alice
- click: //button[@type='submit']
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flow.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(flow.Steps))
	}

	visit, ok := flow.Steps[0].(*VisitStep)
	if !ok {
		t.Fatalf("expected VisitStep, got %T", flow.Steps[0])
	}
	if visit.URL != "https://example.com/login" {
		t.Errorf("expected url, got %q", visit.URL)
	}

	set, ok := flow.Steps[1].(*SetValueStep)
	if !ok {
		t.Fatalf("expected SetValueStep, got %T", flow.Steps[1])
	}
	if set.XPath != "//input[@name='user']" || set.Value != "alice" {
		t.Errorf("unexpected setValue: %+v", set)
	}

	click, ok := flow.Steps[2].(*ElementStep)
	if !ok {
		t.Fatalf("expected ElementStep, got %T", flow.Steps[2])
	}
	if click.Type() != StepClick {
		t.Errorf("expected click, got %s", click.Type())
	}
	if click.XPath != "//button[@type='submit']" {
		t.Errorf("expected xpath, got %q", click.XPath)
	}
}

func TestParse_WithConfig(t *testing.T) {
	yaml := `
name: Login Test
baseUrl: https://example.com
tags:
  - smoke
  - login
env:
  USERNAME: testuser
---
- visit: /login
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flow.Config.Name != "Login Test" {
		t.Errorf("expected name=Login Test, got %q", flow.Config.Name)
	}
	if flow.Config.BaseURL != "https://example.com" {
		t.Errorf("expected baseUrl, got %q", flow.Config.BaseURL)
	}
	if diff := cmp.Diff([]string{"smoke", "login"}, flow.Config.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if flow.Config.Env["USERNAME"] != "testuser" {
		t.Errorf("expected env USERNAME=testuser, got %v", flow.Config.Env)
	}
	if flow.DisplayName() != "Login Test" {
		t.Errorf("DisplayName()=%q", flow.DisplayName())
	}
	if len(flow.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(flow.Steps))
	}
}

func TestFlow_DisplayNameFallsBackToPath(t *testing.T) {
	flow, err := Parse([]byte("- reload\n"), "flows/reload.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flow.DisplayName() != "flows/reload.yaml" {
		t.Errorf("DisplayName()=%q", flow.DisplayName())
	}
}

func TestParse_AllStepTypes(t *testing.T) {
	yaml := `
- visit: https://example.com
- reload
- back
- forward:
- click: //a
- doubleClick: //a
- rightClick: //a
- mouseOver: //a
- focus: //input
- blur: //input
- dragTo:
    source: //li[1]
    target: //ul[2]
- setValue:
    xpath: //input
    value: x
- check: //input[@type='checkbox']
- uncheck: //input[@type='checkbox']
- selectOption:
    xpath: //select
    value: b
- attachFile:
    xpath: //input[@type='file']
    path: photo.png
- submitForm: //form
- keyPress:
    xpath: //input
    char: a
- keyDown:
    xpath: //input
    char: a
    modifier: shift
- keyUp:
    xpath: //input
    char: a
- executeScript: window.x = 1;
- evaluateScript: document.title
- wait: document.readyState === 'complete'
- switchToWindow: popup
- switchToIFrame: frame1
- resizeWindow:
    width: 800
    height: 600
- maximizeWindow
- setTimeouts:
    pageLoad: 5000
- setCookie:
    name: sid
    value: abc
- acceptAlert
- dismissAlert
- takeScreenshot: shot.png
- assertText:
    xpath: //h1
    text: Hello
- assertValue:
    xpath: //input
    value: x
- assertVisible: //h1
- assertNotVisible: //div[@id='spinner']
- repeat:
    times: 2
    commands:
      - click: //a
- runFlow: other.yaml
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []StepType{
		StepVisit, StepReload, StepBack, StepForward,
		StepClick, StepDoubleClick, StepRightClick, StepMouseOver, StepFocus, StepBlur, StepDragTo,
		StepSetValue, StepCheck, StepUncheck, StepSelectOption, StepAttachFile, StepSubmitForm,
		StepKeyPress, StepKeyDown, StepKeyUp,
		StepExecuteScript, StepEvaluateScript, StepWait,
		StepSwitchToWindow, StepSwitchToIFrame, StepResizeWindow, StepMaximizeWindow,
		StepSetTimeouts, StepSetCookie, StepAcceptAlert, StepDismissAlert,
		StepTakeScreenshot,
		StepAssertText, StepAssertValue, StepAssertVisible, StepAssertNotVisible,
		StepRepeat, StepRunFlow,
	}
	var got []StepType
	for _, s := range flow.Steps {
		got = append(got, s.Type())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("step types mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_OptionalAndLabel(t *testing.T) {
	yaml := `
- click:
    xpath: //button[@id='cookie-banner']
    optional: true
    label: dismiss banner
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	step := flow.Steps[0]
	if !step.IsOptional() {
		t.Error("expected optional step")
	}
	if step.Label() != "dismiss banner" {
		t.Errorf("Label()=%q", step.Label())
	}
}

func TestParse_SetValueKinds(t *testing.T) {
	yaml := `
- setValue:
    xpath: //input[@type='checkbox']
    value: true
- setValue:
    xpath: //select[@multiple]
    value: [a, b]
- setValue:
    xpath: //input
    value: ~
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v := flow.Steps[0].(*SetValueStep).Value; v != true {
		t.Errorf("expected bool true, got %#v", v)
	}
	list, ok := flow.Steps[1].(*SetValueStep).Value.([]interface{})
	if !ok || len(list) != 2 {
		t.Errorf("expected 2-item list, got %#v", flow.Steps[1].(*SetValueStep).Value)
	}
	if v := flow.Steps[2].(*SetValueStep).Value; v != nil {
		t.Errorf("expected nil, got %#v", v)
	}
}

func TestParse_WaitStep(t *testing.T) {
	yaml := `
- wait:
    until:
      visible: //div[@id='done']
    timeout: 5000
- wait:
    script: window.ready
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := flow.Steps[0].(*WaitStep)
	if w.Condition == nil || w.Condition.Visible != "//div[@id='done']" {
		t.Errorf("unexpected condition: %+v", w.Condition)
	}
	if w.TimeoutMs != 5000 {
		t.Errorf("TimeoutMs=%d, want 5000", w.TimeoutMs)
	}
	if got := flow.Steps[1].(*WaitStep).Script; got != "window.ready" {
		t.Errorf("Script=%q", got)
	}
}

func TestParse_SwitchToWindowRoot(t *testing.T) {
	yaml := `
- switchToWindow
- switchToWindow:
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range flow.Steps {
		if name := s.(*SwitchStep).Name; name != "" {
			t.Errorf("step %d: expected root window, got %q", i, name)
		}
	}
}

func TestParse_SetTimeouts(t *testing.T) {
	yaml := `
- setTimeouts:
    implicit: 0
    script: 3000
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := flow.Steps[0].(*SetTimeoutsStep).Timeouts()
	want := map[string]int{"implicit": 0, "script": 3000}
	if diff := cmp.Diff(want, map[string]int(got)); diff != "" {
		t.Errorf("timeouts mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SetCookieDelete(t *testing.T) {
	yaml := `
- setCookie:
    name: sid
    value: null
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := flow.Steps[0].(*SetCookieStep)
	if s.Value != nil {
		t.Errorf("expected nil value, got %#v", s.Value)
	}
	if s.Describe() != "setCookie: delete sid" {
		t.Errorf("Describe()=%q", s.Describe())
	}
}

func TestParse_RepeatStep(t *testing.T) {
	yaml := `
- repeat:
    times: "3"
    commands:
      - click: //button[@id='next']
      - assertVisible: //li
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repeat, ok := flow.Steps[0].(*RepeatStep)
	if !ok {
		t.Fatalf("expected RepeatStep, got %T", flow.Steps[0])
	}
	if repeat.Times != "3" {
		t.Errorf("expected times=3, got %q", repeat.Times)
	}
	if len(repeat.Steps) != 2 {
		t.Errorf("expected 2 nested steps, got %d", len(repeat.Steps))
	}
}

func TestParse_RepeatWithWhile(t *testing.T) {
	yaml := `
- repeat:
    while:
      visible: //button[@id='more']
    commands:
      - click: //button[@id='more']
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	repeat := flow.Steps[0].(*RepeatStep)
	if repeat.While == nil || repeat.While.Visible != "//button[@id='more']" {
		t.Errorf("unexpected while: %+v", repeat.While)
	}
}

func TestParse_RepeatRequiresTimesOrWhile(t *testing.T) {
	yaml := `
- repeat:
    commands:
      - reload
`
	_, err := Parse([]byte(yaml), "test.yaml")
	if err == nil || !strings.Contains(err.Error(), "times or while") {
		t.Errorf("expected times/while error, got %v", err)
	}
}

func TestParse_RunFlowScalar(t *testing.T) {
	flow, err := Parse([]byte("- runFlow: login.yaml\n"), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rf := flow.Steps[0].(*RunFlowStep)
	if rf.File != "login.yaml" {
		t.Errorf("expected file=login.yaml, got %q", rf.File)
	}
}

func TestParse_RunFlowWithInlineSteps(t *testing.T) {
	yaml := `
- runFlow:
    when:
      visible: //div[@id='consent']
    env:
      CHOICE: accept
    label: consent
    commands:
      - click: //button[@id='${CHOICE}']
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rf := flow.Steps[0].(*RunFlowStep)
	if rf.When == nil || rf.When.Visible != "//div[@id='consent']" {
		t.Errorf("unexpected when: %+v", rf.When)
	}
	if rf.Env["CHOICE"] != "accept" {
		t.Errorf("unexpected env: %v", rf.Env)
	}
	if rf.Label() != "consent" {
		t.Errorf("Label()=%q", rf.Label())
	}
	if len(rf.Steps) != 1 {
		t.Fatalf("expected 1 inline step, got %d", len(rf.Steps))
	}
	if rf.Describe() != "runFlow" {
		t.Errorf("Describe()=%q", rf.Describe())
	}
}

func TestParse_EmptyFlow(t *testing.T) {
	_, err := Parse([]byte(""), "empty.yaml")
	if err == nil {
		t.Fatal("expected error for empty flow")
	}
	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if parseErr.Line != 1 {
		t.Errorf("expected line 1, got %d", parseErr.Line)
	}
}

func TestParse_InvalidStep(t *testing.T) {
	_, err := Parse([]byte("- tapOn: Login\n"), "test.yaml")
	if err == nil {
		t.Fatal("expected error for unknown step")
	}
	if !strings.Contains(err.Error(), "unknown step type: tapOn") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_UnknownScalarStep(t *testing.T) {
	_, err := Parse([]byte("- hideKeyboard\n"), "test.yaml")
	if err == nil || !strings.Contains(err.Error(), "unknown step type: hideKeyboard") {
		t.Errorf("expected unknown step error, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("- click: [unclosed\n"), "test.yaml")
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParse_StepNotMapping(t *testing.T) {
	yaml := `
- - click
`
	_, err := Parse([]byte(yaml), "test.yaml")
	if err == nil {
		t.Fatal("expected error")
	}
	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected ParseError, got %T", err)
	}
	if !strings.Contains(parseErr.Message, "mapping or command name") {
		t.Errorf("unexpected message: %q", parseErr.Message)
	}
}

func TestParse_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"visit without url", "- visit:\n", "visit: url is required"},
		{"click scalar form", "- click\n", "click: xpath is required"},
		{"click empty", "- click: \"\"\n", "click: xpath is required"},
		{"dragTo without target", "- dragTo:\n    source: //a\n", "dragTo: target is required"},
		{"attachFile without path", "- attachFile:\n    xpath: //input\n", "attachFile: path is required"},
		{"keyPress without char", "- keyPress:\n    xpath: //input\n", "keyPress: char is required"},
		{"executeScript empty", "- executeScript\n", "executeScript: script is required"},
		{"wait empty", "- wait:\n", "wait: script or until is required"},
		{"resize zero", "- resizeWindow:\n    width: 0\n    height: 10\n", "width and height must be positive"},
		{"setCookie without name", "- setCookie:\n    value: x\n", "setCookie: name is required"},
		{"runFlow empty", "- runFlow:\n    env:\n      A: b\n", "runFlow: file or commands is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "test.yaml:") {
				t.Errorf("error %q has no location", err.Error())
			}
		})
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"setValue scalar", "- setValue: hello\n"},
		{"resizeWindow bad width", "- resizeWindow:\n    width: wide\n    height: 10\n"},
		{"setTimeouts bad value", "- setTimeouts:\n    pageLoad: soon\n"},
		{"selectOption list", "- selectOption:\n  - a\n"},
		{"repeat scalar", "- repeat: forever\n"},
		{"repeat nested error", "- repeat:\n    times: 2\n    commands:\n      - tapOn: x\n"},
		{"runFlow nested error", "- runFlow:\n    commands:\n      - click\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if _, ok := err.(*ParseError); !ok {
				t.Errorf("expected ParseError, got %T", err)
			}
		})
	}
}

func TestParse_MultilineScript(t *testing.T) {
	yaml := `
- executeScript: |
    var x = 1;
    ---
    window.x = x;
- reload
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flow.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(flow.Steps))
	}
	script := flow.Steps[0].(*ScriptStep).Script
	if !strings.Contains(script, "---") {
		t.Errorf("separator inside block scalar was dropped: %q", script)
	}
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ParseError
		expected string
	}{
		{
			name:     "with line",
			err:      ParseError{Path: "test.yaml", Line: 10, Message: "invalid syntax"},
			expected: "test.yaml:10: invalid syntax",
		},
		{
			name:     "without line",
			err:      ParseError{Path: "test.yaml", Line: 0, Message: "file error"},
			expected: "test.yaml: file error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error()=%q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParse_ErrorLine(t *testing.T) {
	yaml := `- visit: https://example.com
- reload
- click:
    optional: true
`
	_, err := Parse([]byte(yaml), "test.yaml")
	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected ParseError, got %T (%v)", err, err)
	}
	if parseErr.Line != 4 {
		t.Errorf("expected line 4, got %d", parseErr.Line)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	if err := os.WriteFile(path, []byte("- visit: https://example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	flow, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flow.SourcePath != path {
		t.Errorf("SourcePath=%q, want %q", flow.SourcePath, path)
	}
	if len(flow.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(flow.Steps))
	}
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile("/nonexistent/flow.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"smoke.yaml":      "tags: [smoke]\n---\n- visit: https://example.com\n",
		"regression.yml":  "tags: [regression]\n---\n- reload\n",
		"untagged.yaml":   "- back\n",
		"notes.txt":       "not a flow",
		"broken.yaml":     "- tapOn: x\n",
		"sub/nested.yaml": "tags: [smoke]\n---\n- forward\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	flows, err := ParseDirectory(dir, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flows) != 4 {
		t.Errorf("expected 4 flows, got %d", len(flows))
	}

	flows, err = ParseDirectory(dir, []string{"smoke"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flows) != 2 {
		t.Errorf("expected 2 smoke flows, got %d", len(flows))
	}

	flows, err = ParseDirectory(dir, nil, []string{"regression"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flows) != 3 {
		t.Errorf("expected 3 flows without regression, got %d", len(flows))
	}
}

func TestParseDirectory_NonExistent(t *testing.T) {
	_, err := ParseDirectory("/nonexistent/dir", nil, nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestIsStepType(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"visit", true},
		{"click", true},
		{"selectOption", true},
		{"assertNotVisible", true},
		{"runFlow", true},
		{"tapOn", false},
		{"label", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isStepType(tt.key); got != tt.expected {
				t.Errorf("isStepType(%q)=%v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestShouldIncludeFlow(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		includeTags []string
		excludeTags []string
		expected    bool
	}{
		{"no filters", []string{"smoke"}, nil, nil, true},
		{"include match", []string{"smoke"}, []string{"smoke"}, nil, true},
		{"include miss", []string{"smoke"}, []string{"regression"}, nil, false},
		{"include with untagged flow", nil, []string{"smoke"}, nil, false},
		{"exclude match", []string{"smoke", "slow"}, nil, []string{"slow"}, false},
		{"exclude miss", []string{"smoke"}, nil, []string{"slow"}, true},
		{"include and exclude", []string{"smoke", "slow"}, []string{"smoke"}, []string{"slow"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := &Flow{Config: Config{Tags: tt.tags}}
			if got := ShouldIncludeFlow(flow, tt.includeTags, tt.excludeTags); got != tt.expected {
				t.Errorf("ShouldIncludeFlow()=%v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitYAMLDocuments(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{"single document", "- reload\n", 1},
		{"config and steps", "name: x\n---\n- reload\n", 2},
		{"leading separator", "---\n- reload\n", 1},
		{"indented separator is content", "- executeScript: |\n    a\n    ---\n    b\n", 1},
		{"folded block", "- executeScript: >-\n    a\n    ---\n- reload\n", 1},
		{"only whitespace", "\n  \n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(splitYAMLDocuments(tt.content)); got != tt.expected {
				t.Errorf("got %d parts, want %d", got, tt.expected)
			}
		})
	}
}

func TestParse_LifecycleHooks(t *testing.T) {
	yaml := `
name: with hooks
onFlowStart:
  - visit: https://example.com
  - setCookie:
      name: consent
      value: "yes"
onFlowComplete:
  - takeScreenshot: final.png
---
- reload
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flow.Config.OnFlowStart) != 2 {
		t.Errorf("expected 2 onFlowStart steps, got %d", len(flow.Config.OnFlowStart))
	}
	if len(flow.Config.OnFlowComplete) != 1 {
		t.Errorf("expected 1 onFlowComplete step, got %d", len(flow.Config.OnFlowComplete))
	}
}

func TestParse_InvalidHooks(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad onFlowStart", "onFlowStart:\n  - tapOn: x\n---\n- reload\n"},
		{"bad onFlowComplete", "onFlowComplete:\n  - swipe\n---\n- reload\n"},
		{"invalid config yaml", "name: [x\n---\n- reload\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml), "test.yaml"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
