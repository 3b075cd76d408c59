package core

import (
	"testing"
)

func TestConditionConstructors(t *testing.T) {
	c := ScriptCondition("document.readyState == 'complete'")
	if c.Script != "document.readyState == 'complete'" || c.Check != nil {
		t.Errorf("ScriptCondition() = %+v", c)
	}
	if c.String() != "document.readyState == 'complete'" {
		t.Errorf("String() = %q", c.String())
	}

	called := false
	c = CheckCondition(func() (bool, error) {
		called = true
		return true, nil
	})
	if c.Check == nil {
		t.Fatal("CheckCondition() should set Check")
	}
	if ok, err := c.Check(); !ok || err != nil || !called {
		t.Errorf("Check() = %v, %v", ok, err)
	}
	if c.String() != "callback" {
		t.Errorf("String() = %q, want callback", c.String())
	}
}

func TestTimeoutConfig_Clone(t *testing.T) {
	var nilConfig TimeoutConfig
	if nilConfig.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}

	original := TimeoutConfig{TimeoutImplicit: 100}
	clone := original.Clone()
	clone[TimeoutScript] = 5

	if _, ok := original[TimeoutScript]; ok {
		t.Error("Clone() shares storage with original")
	}
	if clone[TimeoutImplicit] != 100 {
		t.Errorf("clone[implicit] = %d, want 100", clone[TimeoutImplicit])
	}
}

func TestExecutedByConstants(t *testing.T) {
	if ExecutedByDriver != "driver" {
		t.Errorf("ExecutedByDriver = %s, want driver", ExecutedByDriver)
	}
	if ExecutedByRunner != "runner" {
		t.Errorf("ExecutedByRunner = %s, want runner", ExecutedByRunner)
	}
}
