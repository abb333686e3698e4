package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if decoded.Summary.CasesRun != 3 {
		t.Errorf("CasesRun = %d, want 3", decoded.Summary.CasesRun)
	}
	if len(decoded.Results) != 3 {
		t.Fatalf("Results = %d, want 3", len(decoded.Results))
	}
	if decoded.Results[0].Checks[0].Record.Line != 7 {
		t.Errorf("Record.Line = %d, want 7", decoded.Results[0].Checks[0].Record.Line)
	}
	if decoded.Results[2].Error == "" {
		t.Error("error case lost its Error")
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if summary.CasesFailed != 2 {
		t.Errorf("CasesFailed = %d, want 2", summary.CasesFailed)
	}

	var outcome struct {
		Passed *bool `json:"passed"`
	}
	if err := json.Unmarshal(buf.Bytes(), &outcome); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if outcome.Passed == nil || *outcome.Passed {
		t.Errorf("passed = %v, want false", outcome.Passed)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"text", "text"},
		{"json", "json"},
	}
	for _, tt := range tests {
		f := NewFormatter(tt.name, FormatOptions{})
		if f == nil || f.Name() != tt.want {
			t.Errorf("NewFormatter(%q) = %v, want %s formatter", tt.name, f, tt.want)
		}
	}
	if f := NewFormatter("xml", FormatOptions{}); f != nil {
		t.Errorf("NewFormatter(xml) = %v, want nil", f)
	}
}

func TestReport_HasFailures(t *testing.T) {
	if NewReport(nil, Metadata{}).HasFailures() {
		t.Error("empty report should not have failures")
	}
	if !createTestReport().HasFailures() {
		t.Error("test report should have failures")
	}
}
