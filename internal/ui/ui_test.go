package ui

import (
	"strings"
	"testing"

	"dwhctl/internal/warehouse"
)

func TestNewUI(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
	}{
		{"default", false, false},
		{"verbose", true, false},
		{"quiet", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := NewUI(tt.verbose, tt.quiet)
			if ui.IsVerbose() != tt.verbose {
				t.Errorf("Expected verbose=%v, got %v", tt.verbose, ui.IsVerbose())
			}
			if ui.IsQuiet() != tt.quiet {
				t.Errorf("Expected quiet=%v, got %v", tt.quiet, ui.IsQuiet())
			}
		})
	}
}

func TestUIQuietMode(t *testing.T) {
	stdout, _ := captureUI(t)

	ui := NewUI(true, true)
	ui.Printf("printf %d\n", 1)
	ui.Println("println")
	ui.VerbosePrintf("verbose\n")
	ui.Warning("warning")
	ui.Info("info")
	ui.Success("success")
	ui.StartProgress("spinning")
	ui.StopProgress(true, "done")

	if stdout.Len() != 0 {
		t.Errorf("Expected no output in quiet mode, got: %q", stdout.String())
	}
}

func TestUIVerbosePrintf(t *testing.T) {
	stdout, _ := captureUI(t)

	NewUI(false, false).VerbosePrintf("hidden\n")
	NewUI(true, false).VerbosePrintf("shown\n")

	output := stdout.String()
	if strings.Contains(output, "hidden") {
		t.Error("Verbose output printed without verbose mode")
	}
	if !strings.Contains(output, "shown") {
		t.Error("Verbose output missing in verbose mode")
	}
}

func TestUIPhase(t *testing.T) {
	stdout, _ := captureUI(t)

	observe, finish := NewUI(false, false).Phase("transform", 1)
	observe(warehouse.StepResult{Phase: "transform", Name: "songplays", Rows: 3})
	finish()

	output := stdout.String()
	if !strings.Contains(output, "Transform") {
		t.Errorf("Expected section title, got: %s", output)
	}
	if !strings.Contains(output, "songplays") {
		t.Errorf("Expected step line, got: %s", output)
	}
}

func TestUIPhaseQuiet(t *testing.T) {
	stdout, _ := captureUI(t)

	observe, finish := NewUI(false, true).Phase("load", 2)
	observe(warehouse.StepResult{Name: "copy staging_events"})
	finish()

	if stdout.Len() != 0 {
		t.Errorf("Expected no output, got: %q", stdout.String())
	}
}

func TestPrintKeyValue(t *testing.T) {
	stdout, _ := captureUI(t)

	PrintKeyValue("Endpoint", "dwhcluster.example.com")

	if !strings.Contains(stdout.String(), "Endpoint:") || !strings.Contains(stdout.String(), "dwhcluster.example.com") {
		t.Errorf("Unexpected output: %q", stdout.String())
	}
}
