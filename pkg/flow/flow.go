// Package flow handles parsing and representation of YAML flow files that
// script a browser session.
package flow

// Flow represents a parsed flow file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow configuration (name, baseUrl, tags, etc.)
	Steps      []Step // Steps to execute
}

// Config represents flow-level configuration.
type Config struct {
	Name           string            `yaml:"name"`
	BaseURL        string            `yaml:"baseUrl"` // Prefix for relative visit URLs
	Tags           []string          `yaml:"tags"`
	Env            map[string]string `yaml:"env"`
	OnFlowStart    []Step            `yaml:"-"` // Lifecycle hook: runs before steps
	OnFlowComplete []Step            `yaml:"-"` // Lifecycle hook: runs after steps, even on failure
}

// DisplayName returns the configured name, or the source path when unnamed.
func (f *Flow) DisplayName() string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	return f.SourcePath
}
