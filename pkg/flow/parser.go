package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/wd-adapter/pkg/logger"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided flow file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses flow YAML content. An optional config document may precede
// the step list, separated by "---".
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	if len(parts) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "empty flow file",
		}
	}

	if len(parts) == 1 {
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	} else {
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	}

	return flow, nil
}

// splitYAMLDocuments splits on "---" lines, ignoring separators that sit
// inside block scalars such as multi-line scripts.
func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inMultiline := false
	multilineIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inMultiline {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inMultiline = true
				if i+1 < len(lines) {
					next := lines[i+1]
					multilineIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < multilineIndent {
				inMultiline = false
			}
		}

		if !inMultiline && trimmed == "---" && strings.TrimLeft(line, " \t") == "---" {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		} else {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}

	if current.Len() > 0 {
		s := strings.TrimSpace(current.String())
		if s != "" {
			parts = append(parts, current.String())
		}
	}

	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}

	var rawConfig struct {
		OnFlowStart    []yaml.Node `yaml:"onFlowStart"`
		OnFlowComplete []yaml.Node `yaml:"onFlowComplete"`
	}
	if err := yaml.Unmarshal([]byte(content), &rawConfig); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}

	for _, node := range rawConfig.OnFlowStart {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		config.OnFlowStart = append(config.OnFlowStart, step)
	}

	for _, node := range rawConfig.OnFlowComplete {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		config.OnFlowComplete = append(config.OnFlowComplete, step)
	}

	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for _, node := range rawSteps {
		step, err := parseStep(&node, flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}

	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Handle scalar nodes like "- reload" (no colon, no params)
	if node.Kind == yaml.ScalarNode {
		stepType := node.Value
		if !isStepType(stepType) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", stepType),
			}
		}
		emptyNode := &yaml.Node{Kind: yaml.MappingNode, Line: node.Line}
		return decodeStep(StepType(stepType), emptyNode, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		msg := "unknown step type"
		if len(node.Content) > 0 {
			msg = fmt.Sprintf("unknown step type: %s", node.Content[0].Value)
		}
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: msg,
		}
	}

	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepVisit, StepReload, StepBack, StepForward,
		StepClick, StepDoubleClick, StepRightClick, StepMouseOver, StepFocus, StepBlur, StepDragTo,
		StepSetValue, StepCheck, StepUncheck, StepSelectOption, StepAttachFile, StepSubmitForm,
		StepKeyPress, StepKeyDown, StepKeyUp,
		StepExecuteScript, StepEvaluateScript, StepWait,
		StepSwitchToWindow, StepSwitchToIFrame, StepResizeWindow, StepMaximizeWindow,
		StepSetTimeouts, StepSetCookie, StepAcceptAlert, StepDismissAlert,
		StepTakeScreenshot,
		StepAssertText, StepAssertValue, StepAssertVisible, StepAssertNotVisible,
		StepRepeat, StepRunFlow:
		return true
	}
	return false
}

// isNull reports whether a step value was left empty, as in "- reload:".
func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && (node.Tag == "!!null" || node.Value == "")
}

// decodeShorthand decodes a mapping into out, or stores a scalar value in
// *shorthand when the step accepts one.
func decodeShorthand(valueNode *yaml.Node, sourcePath string, out interface{}, shorthand *string) error {
	if valueNode.Kind == yaml.ScalarNode && shorthand != nil {
		if !isNull(valueNode) {
			*shorthand = valueNode.Value
		}
		return nil
	}
	if isNull(valueNode) {
		return nil
	}
	if err := valueNode.Decode(out); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	return nil
}

func requireField(sourcePath string, line int, stepType StepType, field, value string) error {
	if value != "" {
		return nil
	}
	return &ParseError{
		Path:    sourcePath,
		Line:    line,
		Message: fmt.Sprintf("%s: %s is required", stepType, field),
	}
}

//nolint:gocyclo
func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	line := valueNode.Line

	switch stepType {
	case StepVisit:
		var s VisitStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.URL); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "url", s.URL); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepReload, StepBack, StepForward:
		var s NavigationStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepClick, StepDoubleClick, StepRightClick, StepMouseOver, StepFocus, StepBlur,
		StepCheck, StepUncheck, StepSubmitForm:
		var s ElementStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.XPath); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepDragTo:
		var s DragToStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "source", s.Source); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "target", s.Target); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepSetValue:
		var s SetValueStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepSelectOption:
		var s SelectOptionStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAttachFile:
		var s AttachFileStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "path", s.Path); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepKeyPress, StepKeyDown, StepKeyUp:
		var s KeyStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "char", s.Char); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepExecuteScript, StepEvaluateScript:
		var s ScriptStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Script); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "script", s.Script); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepWait:
		var s WaitStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Script); err != nil {
			return nil, err
		}
		if s.Script == "" && s.Condition.IsZero() {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    line,
				Message: "wait: script or until is required",
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepSwitchToWindow, StepSwitchToIFrame:
		var s SwitchStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Name); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepResizeWindow:
		var s ResizeWindowStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    line,
				Message: "resizeWindow: width and height must be positive",
			}
		}
		s.StepType = stepType
		return &s, nil

	case StepMaximizeWindow:
		var s MaximizeWindowStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Window); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepSetTimeouts:
		var s SetTimeoutsStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepSetCookie:
		var s SetCookieStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "name", s.Name); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAcceptAlert, StepDismissAlert:
		var s AlertStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Text); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepTakeScreenshot:
		var s TakeScreenshotStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.Path); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertText:
		var s AssertTextStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertValue:
		var s AssertValueStep
		if err := decodeShorthand(valueNode, sourcePath, &s, nil); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepAssertVisible, StepAssertNotVisible:
		var s AssertVisibleStep
		if err := decodeShorthand(valueNode, sourcePath, &s, &s.XPath); err != nil {
			return nil, err
		}
		if err := requireField(sourcePath, line, stepType, "xpath", s.XPath); err != nil {
			return nil, err
		}
		s.StepType = stepType
		return &s, nil

	case StepRepeat:
		return parseRepeatStep(valueNode, sourcePath)

	case StepRunFlow:
		return parseRunFlowStep(valueNode, sourcePath)
	}

	return nil, &ParseError{
		Path:    sourcePath,
		Line:    line,
		Message: fmt.Sprintf("unknown step type: %s", stepType),
	}
}

// parseRepeatStep handles repeat with nested commands.
func parseRepeatStep(valueNode *yaml.Node, sourcePath string) (Step, error) {
	var raw struct {
		Times    string      `yaml:"times"`
		While    *Condition  `yaml:"while"`
		Commands []yaml.Node `yaml:"commands"`
		Optional bool        `yaml:"optional"`
		Label    string      `yaml:"label"`
	}

	if err := valueNode.Decode(&raw); err != nil {
		return nil, wrapParseError(sourcePath, valueNode.Line, err)
	}
	if raw.Times == "" && raw.While.IsZero() {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: "repeat: times or while is required",
		}
	}

	s := &RepeatStep{
		BaseStep: BaseStep{StepType: StepRepeat, Optional: raw.Optional, StepLabel: raw.Label},
		Times:    raw.Times,
		While:    raw.While,
	}

	for _, cmdNode := range raw.Commands {
		step, err := parseStep(&cmdNode, sourcePath)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}

	return s, nil
}

// parseRunFlowStep handles runFlow with optional nested commands.
func parseRunFlowStep(valueNode *yaml.Node, sourcePath string) (Step, error) {
	s := &RunFlowStep{BaseStep: BaseStep{StepType: StepRunFlow}}

	if valueNode.Kind == yaml.ScalarNode {
		s.File = valueNode.Value
		if err := requireField(sourcePath, valueNode.Line, StepRunFlow, "file", s.File); err != nil {
			return nil, err
		}
		return s, nil
	}

	var raw struct {
		File     string            `yaml:"file"`
		Commands []yaml.Node       `yaml:"commands"`
		When     *Condition        `yaml:"when"`
		Env      map[string]string `yaml:"env"`
		Optional bool              `yaml:"optional"`
		Label    string            `yaml:"label"`
	}

	if err := valueNode.Decode(&raw); err != nil {
		return nil, wrapParseError(sourcePath, valueNode.Line, err)
	}
	if raw.File == "" && len(raw.Commands) == 0 {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: "runFlow: file or commands is required",
		}
	}

	s.File = raw.File
	s.When = raw.When
	s.Env = raw.Env
	s.Optional = raw.Optional
	s.StepLabel = raw.Label

	for _, cmdNode := range raw.Commands {
		step, err := parseStep(&cmdNode, sourcePath)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}

	return s, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// ParseDirectory parses all YAML files in a directory. Files that fail to
// parse are skipped with a warning.
func ParseDirectory(dir string, includeTags, excludeTags []string) ([]*Flow, error) {
	var flows []*Flow

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		flow, parseErr := ParseFile(path)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %s: %v\n", path, parseErr)
			logger.Warn("skipping flow %s: %v", path, parseErr)
			return nil
		}

		if ShouldIncludeFlow(flow, includeTags, excludeTags) {
			flows = append(flows, flow)
		}
		return nil
	})

	return flows, err
}

// ShouldIncludeFlow checks if a flow matches tag filters.
func ShouldIncludeFlow(flow *Flow, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, tag := range flow.Config.Tags {
			for _, include := range includeTags {
				if tag == include {
					hasTag = true
					break
				}
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, tag := range flow.Config.Tags {
		for _, exclude := range excludeTags {
			if tag == exclude {
				return false
			}
		}
	}

	return true
}
