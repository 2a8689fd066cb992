package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"simple error", errors.New("something went wrong"), "Error: something went wrong"},
		{"wrapped error", fmt.Errorf("load rules: %w", errors.New("no file")), "Error: load rules: no file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	base := errors.New("2 sessions carry blocking flags")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", base, 1},
		{"with code", WithExitCode(2, base), 2},
		{"wrapped code", fmt.Errorf("audit: %w", WithExitCode(3, base)), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}

	if WithExitCode(2, nil) != nil {
		t.Error("WithExitCode(nil) should stay nil")
	}
	if !errors.Is(WithExitCode(2, base), base) {
		t.Error("ExitError should unwrap to the original error")
	}
}
