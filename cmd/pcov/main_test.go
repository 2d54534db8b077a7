package main

import (
	"os/exec"
	"testing"
)

func TestIsSubcommand(t *testing.T) {
	for _, name := range []string{"test", "report", "clean", "config"} {
		if !isSubcommand(name) {
			t.Errorf("isSubcommand(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "tests", "--list", "scenario"} {
		if isSubcommand(name) {
			t.Errorf("isSubcommand(%q) = true, want false", name)
		}
	}
}

func TestRunSubprocess_PassesExitCode(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not installed")
	}

	if code := runSubprocess("pcov-test", sh, []string{"-c", "exit 3"}); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if code := runSubprocess("pcov-test", sh, []string{"-c", "true"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunSubprocess_MissingBinary(t *testing.T) {
	if code := runSubprocess("pcov-missing", "/nonexistent/pcov-missing", nil); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
