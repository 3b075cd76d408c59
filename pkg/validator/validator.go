// Package validator checks parsed flows before a run. It follows runFlow
// references, parses every referenced file once and reports missing files,
// parse errors and reference cycles.
package validator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Files lists every flow file reached, top-level flows first in the
	// order they were checked.
	Files []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator validates flows and the files they reference.
type Validator struct {
	parsed map[string]*flow.Flow
	done   map[string]bool
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		parsed: make(map[string]*flow.Flow),
		done:   make(map[string]bool),
	}
}

// Validate checks already parsed top-level flows.
func (v *Validator) Validate(flows []*flow.Flow) *Result {
	result := &Result{}
	for _, f := range flows {
		if f.SourcePath != "" {
			v.parsed[f.SourcePath] = f
		}
		v.validateFlow(f, result, nil)
	}
	return result
}

func (v *Validator) validateFlow(f *flow.Flow, result *Result, chain []string) {
	path := f.SourcePath
	if path != "" {
		if v.done[path] {
			return
		}
		v.done[path] = true
		result.Files = append(result.Files, path)
	}

	next := append(append([]string(nil), chain...), path)
	v.validateSteps(f.Steps, path, result, next)
	v.validateSteps(f.Config.OnFlowStart, path, result, next)
	v.validateSteps(f.Config.OnFlowComplete, path, result, next)
}

// validateSteps follows runFlow references in steps, including those nested
// in repeat and inline runFlow blocks.
func (v *Validator) validateSteps(steps []flow.Step, parentFile string, result *Result, chain []string) {
	for _, step := range steps {
		switch s := step.(type) {
		case *flow.RunFlowStep:
			if s.File != "" {
				v.validateReference(parentFile, s.File, result, chain)
			}
			v.validateSteps(s.Steps, parentFile, result, chain)
		case *flow.RepeatStep:
			v.validateSteps(s.Steps, parentFile, result, chain)
		}
	}
}

func (v *Validator) validateReference(parentFile, ref string, result *Result, chain []string) {
	// Resolved at run time from flow variables
	if strings.Contains(ref, "${") {
		return
	}

	path := resolveFilePath(filepath.Dir(parentFile), ref)

	for _, ancestor := range chain {
		if ancestor == path {
			cycle := append(append([]string(nil), chain...), path)
			result.Errors = append(result.Errors, &ValidationError{
				File:    path,
				Message: fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")),
			})
			return
		}
	}

	f, ok := v.parsed[path]
	if !ok {
		var err error
		f, err = flow.ParseFile(path)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{
				File:    parentFile,
				Message: fmt.Sprintf("runFlow %s: %v", ref, err),
			})
			return
		}
		v.parsed[path] = f
	}
	v.validateFlow(f, result, chain)
}

// resolveFilePath resolves a file path relative to a base directory.
func resolveFilePath(baseDir, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(baseDir, filePath)
}
