package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestCLIHelp tests the help display functionality
func TestCLIHelp(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"help flag", []string{"--help"}},
		{"short help flag", []string{"-h"}},
		{"no arguments", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 0 {
				t.Errorf("Expected exit code 0, got %d (%s)", code, stderr.String())
			}

			outputStr := stdout.String()
			if !strings.Contains(outputStr, "kmidi - Standard MIDI / KAR karaoke tool") {
				t.Error("Help output should contain title")
			}
			if !strings.Contains(outputStr, "Usage:") {
				t.Error("Help output should contain Usage section")
			}
		})
	}
}

// TestCLIErrors tests that failures are reported on stderr with exit code 1
func TestCLIErrors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	missing := filepath.Join(t.TempDir(), "missing.kar")
	notMIDI := filepath.Join(t.TempDir(), "text.mid")
	if err := os.WriteFile(notMIDI, []byte("hello, this is not MIDI"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		errorMsg string
	}{
		{"unknown command", []string{"sing", "a.kar"}, "unknown command"},
		{"missing input", []string{"info"}, "missing input file"},
		{"file not found", []string{"info", missing}, "file not found"},
		{"not a MIDI file", []string{"info", notMIDI}, "invalid MIDI header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("Expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tt.errorMsg) {
				t.Errorf("stderr %q should contain %q", stderr.String(), tt.errorMsg)
			}
		})
	}
}
