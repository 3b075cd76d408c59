package executor

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/devicelab-dev/wd-adapter/pkg/flow"
)

// envVarPattern matches ALL_CAPS identifiers that look like env variables
var envVarPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]{2,}$`)

// bracedVarPattern matches ${NAME}.
var bracedVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Variables holds the values substituted into step fields and the directory
// relative paths are resolved against.
type Variables struct {
	values  map[string]string
	flowDir string
}

// NewVariables creates an empty variable store.
func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

// SetFlowDir sets the current flow directory for relative path resolution.
func (v *Variables) SetFlowDir(dir string) {
	v.flowDir = dir
}

// Set sets a variable.
func (v *Variables) Set(name, value string) {
	v.values[name] = value
}

// SetAll sets multiple variables.
func (v *Variables) SetAll(vars map[string]string) {
	for k, val := range vars {
		v.Set(k, val)
	}
}

// Get returns a variable value and whether it is set.
func (v *Variables) Get(name string) (string, bool) {
	val, ok := v.values[name]
	return val, ok
}

// ImportSystemEnv imports process environment variables whose names are
// upper case with underscores, such as BASE_URL.
func (v *Variables) ImportSystemEnv() {
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if ok && envVarPattern.MatchString(name) {
			v.Set(name, value)
		}
	}
}

// Expand replaces ${NAME} and $NAME with known variables. Unknown names are
// left untouched so page scripts using "$" keep working.
func (v *Variables) Expand(text string) string {
	if !strings.Contains(text, "$") {
		return text
	}

	text = bracedVarPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := m[2 : len(m)-1]
		if val, ok := v.values[name]; ok {
			return val
		}
		return m
	})

	// Longest names first so $BASE_URL wins over $BASE
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	for _, name := range names {
		text = expandDollarVar(text, name, v.values[name])
	}
	return text
}

// expandDollarVar replaces $VAR with value, checking word boundaries.
func expandDollarVar(text, name, value string) string {
	pattern := "$" + name
	idx := 0
	for {
		pos := strings.Index(text[idx:], pattern)
		if pos == -1 {
			break
		}
		pos += idx

		// Followed by a name character means a different variable
		endPos := pos + len(pattern)
		if endPos < len(text) {
			next := text[endPos]
			if (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') ||
				(next >= '0' && next <= '9') || next == '_' {
				idx = endPos
				continue
			}
		}

		text = text[:pos] + value + text[endPos:]
		idx = pos + len(value)
	}
	return text
}

// ResolvePath resolves a relative path against the flow directory.
func (v *Variables) ResolvePath(path string) string {
	if filepath.IsAbs(path) || v.flowDir == "" {
		return path
	}
	return filepath.Join(v.flowDir, path)
}

// withEnv applies variables and returns a function restoring the previous
// values.
func (v *Variables) withEnv(env map[string]string) func() {
	type saved struct {
		value string
		ok    bool
	}
	old := make(map[string]saved, len(env))
	for k, val := range env {
		prev, ok := v.values[k]
		old[k] = saved{prev, ok}
		v.Set(k, val)
	}
	return func() {
		for k, s := range old {
			if s.ok {
				v.values[k] = s.value
			} else {
				delete(v.values, k)
			}
		}
	}
}

// ParseInt parses an integer after expansion. 10_000 is accepted.
func (v *Variables) ParseInt(s string, defaultVal int) int {
	s = strings.TrimSpace(v.Expand(s))
	s = strings.ReplaceAll(s, "_", "")
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultVal
}

// expandValue expands strings inside a decoded YAML value.
func (v *Variables) expandValue(raw interface{}) interface{} {
	switch x := raw.(type) {
	case string:
		return v.Expand(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = v.expandValue(item)
		}
		return out
	default:
		return raw
	}
}

// expandCondition returns an expanded copy of cond.
func (v *Variables) expandCondition(cond *flow.Condition) *flow.Condition {
	if cond == nil {
		return nil
	}
	return &flow.Condition{
		Visible:    v.Expand(cond.Visible),
		NotVisible: v.Expand(cond.NotVisible),
		Script:     v.Expand(cond.Script),
	}
}

// ExpandStep returns a copy of step with variables expanded in its string
// fields. The parsed step is left untouched so loops see fresh values.
func (v *Variables) ExpandStep(step flow.Step) flow.Step {
	switch s := step.(type) {
	case *flow.VisitStep:
		c := *s
		c.URL = v.Expand(s.URL)
		return &c
	case *flow.ElementStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		return &c
	case *flow.DragToStep:
		c := *s
		c.Source = v.Expand(s.Source)
		c.Target = v.Expand(s.Target)
		return &c
	case *flow.SetValueStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Value = v.expandValue(s.Value)
		return &c
	case *flow.SelectOptionStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Value = v.Expand(s.Value)
		return &c
	case *flow.AttachFileStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Path = v.ResolvePath(v.Expand(s.Path))
		return &c
	case *flow.KeyStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Char = v.Expand(s.Char)
		return &c
	case *flow.ScriptStep:
		c := *s
		c.Script = v.Expand(s.Script)
		return &c
	case *flow.WaitStep:
		c := *s
		c.Script = v.Expand(s.Script)
		c.Condition = v.expandCondition(s.Condition)
		return &c
	case *flow.SwitchStep:
		c := *s
		c.Name = v.Expand(s.Name)
		return &c
	case *flow.SetCookieStep:
		c := *s
		c.Name = v.Expand(s.Name)
		c.Value = v.expandValue(s.Value)
		return &c
	case *flow.AlertStep:
		c := *s
		c.Text = v.Expand(s.Text)
		return &c
	case *flow.TakeScreenshotStep:
		c := *s
		c.Path = v.Expand(s.Path)
		return &c
	case *flow.AssertTextStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Text = v.Expand(s.Text)
		return &c
	case *flow.AssertValueStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		c.Value = v.expandValue(s.Value)
		return &c
	case *flow.AssertVisibleStep:
		c := *s
		c.XPath = v.Expand(s.XPath)
		return &c
	}
	return step
}
