package core

import "testing"

func TestStepStatus(t *testing.T) {
	tests := []struct {
		status   StepStatus
		name     string
		terminal bool
		success  bool
	}{
		{StatusPending, "pending", false, false},
		{StatusRunning, "running", false, false},
		{StatusPassed, "passed", true, true},
		{StatusFailed, "failed", true, false},
		{StatusErrored, "errored", true, false},
		{StatusSkipped, "skipped", true, false},
		{StatusWarned, "warned", true, true},
		{StepStatus(42), "unknown", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.IsSuccess(); got != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", got, tt.success)
			}
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	names := map[ErrorCategory]string{
		ErrCategoryNone:       "none",
		ErrCategoryAssertion:  "assertion",
		ErrCategoryTimeout:    "timeout",
		ErrCategoryConnection: "connection",
		ErrCategoryElement:    "element",
		ErrCategoryAction:     "action",
		ErrCategoryConfig:     "config",
		ErrCategoryUnknown:    "unknown",
		ErrorCategory(42):     "unknown",
	}
	for c, want := range names {
		if got := c.String(); got != want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", int(c), got, want)
		}
	}
}
