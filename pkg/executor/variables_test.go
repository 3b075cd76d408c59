package executor

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/wd-adapter/pkg/flow"
)

func TestVariables_Expand(t *testing.T) {
	v := NewVariables()
	v.SetAll(map[string]string{
		"BASE":     "short",
		"BASE_URL": "https://example.com",
		"USER":     "alice",
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no variables", "plain text", "plain text"},
		{"dollar", "$USER", "alice"},
		{"braced", "${USER}!", "alice!"},
		{"longest name wins", "$BASE_URL/login", "https://example.com/login"},
		{"braced adjacent text", "${BASE}line", "shortline"},
		{"word boundary", "$USERNAME", "$USERNAME"},
		{"unknown left alone", "$('.item').length", "$('.item').length"},
		{"unknown braced", "${MISSING}", "${MISSING}"},
		{"repeated", "$USER and $USER", "alice and alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Expand(tt.in); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestVariables_Get(t *testing.T) {
	v := NewVariables()
	v.Set("KEY", "value")

	if val, ok := v.Get("KEY"); !ok || val != "value" {
		t.Errorf("Get(KEY) = %q, %v", val, ok)
	}
	if _, ok := v.Get("NOPE"); ok {
		t.Error("expected missing variable")
	}
}

func TestVariables_ImportSystemEnv(t *testing.T) {
	t.Setenv("WD_TEST_VALUE", "from-env")
	t.Setenv("lowercase_var", "ignored")

	v := NewVariables()
	v.ImportSystemEnv()

	if val, _ := v.Get("WD_TEST_VALUE"); val != "from-env" {
		t.Errorf("WD_TEST_VALUE = %q", val)
	}
	if _, ok := v.Get("lowercase_var"); ok {
		t.Error("lower case names should not be imported")
	}
}

func TestVariables_ResolvePath(t *testing.T) {
	v := NewVariables()
	if got := v.ResolvePath("file.txt"); got != "file.txt" {
		t.Errorf("without flow dir: %q", got)
	}

	v.SetFlowDir("/flows")
	if got := v.ResolvePath("data/file.txt"); got != filepath.Join("/flows", "data/file.txt") {
		t.Errorf("relative: %q", got)
	}
	if got := v.ResolvePath("/abs/file.txt"); got != "/abs/file.txt" {
		t.Errorf("absolute: %q", got)
	}
}

func TestVariables_WithEnv(t *testing.T) {
	v := NewVariables()
	v.Set("KEEP", "old")

	restore := v.withEnv(map[string]string{"KEEP": "new", "TEMP": "x"})
	if val, _ := v.Get("KEEP"); val != "new" {
		t.Errorf("KEEP = %q during env", val)
	}
	restore()

	if val, _ := v.Get("KEEP"); val != "old" {
		t.Errorf("KEEP = %q after restore", val)
	}
	if _, ok := v.Get("TEMP"); ok {
		t.Error("TEMP should be removed after restore")
	}
}

func TestVariables_ParseInt(t *testing.T) {
	v := NewVariables()
	v.Set("COUNT", "7")

	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 12 ", 12},
		{"10_000", 10000},
		{"$COUNT", 7},
		{"abc", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := v.ParseInt(tt.in, 1); got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestVariables_ExpandStep(t *testing.T) {
	v := NewVariables()
	v.SetAll(map[string]string{"ID": "42", "NAME": "bob"})
	v.SetFlowDir("/flows")

	set := &flow.SetValueStep{
		BaseStep: flow.BaseStep{StepType: flow.StepSetValue},
		XPath:    "//input[@id='$ID']",
		Value:    []interface{}{"$NAME", 5},
	}
	got := v.ExpandStep(set).(*flow.SetValueStep)

	if got == set {
		t.Fatal("expected a copy")
	}
	if got.XPath != "//input[@id='42']" {
		t.Errorf("xpath = %q", got.XPath)
	}
	if diff := cmp.Diff([]interface{}{"bob", 5}, got.Value); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
	if set.XPath != "//input[@id='$ID']" {
		t.Error("original step was modified")
	}

	attach := v.ExpandStep(&flow.AttachFileStep{
		BaseStep: flow.BaseStep{StepType: flow.StepAttachFile},
		XPath:    "//input",
		Path:     "files/$NAME.pdf",
	}).(*flow.AttachFileStep)
	if attach.Path != filepath.Join("/flows", "files/bob.pdf") {
		t.Errorf("attach path = %q", attach.Path)
	}

	wait := v.ExpandStep(&flow.WaitStep{
		BaseStep:  flow.BaseStep{StepType: flow.StepWait},
		Condition: &flow.Condition{Visible: "//li[$ID]"},
	}).(*flow.WaitStep)
	if wait.Condition.Visible != "//li[42]" {
		t.Errorf("condition = %q", wait.Condition.Visible)
	}

	nav := &flow.NavigationStep{BaseStep: flow.BaseStep{StepType: flow.StepReload}}
	if v.ExpandStep(nav) != flow.Step(nav) {
		t.Error("steps without fields should be returned as is")
	}
}
