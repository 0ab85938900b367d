package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestConsole_Println(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, &out, VerbosityNormal)
	c.Println("hello")
	if got := out.String(); got != "hello\n" {
		t.Errorf("Println() = %q, want %q", got, "hello\n")
	}
}

func TestConsole_Printf(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, &out, VerbosityNormal)
	c.Printf("hello %s", "world")
	if got := out.String(); got != "hello world" {
		t.Errorf("Printf() = %q, want %q", got, "hello world")
	}
}

func TestConsole_ErrorGoesToStderr(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	c := NewConsole(&outBuf, &errBuf, VerbosityQuiet)
	c.SetColors(false)
	c.Error("resolve failed")
	if outBuf.Len() != 0 {
		t.Errorf("Error() wrote to stdout: %q", outBuf.String())
	}
	if got := errBuf.String(); got != "Error: resolve failed\n" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConsole_Warning(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	c := NewConsole(&outBuf, &errBuf, VerbosityNormal)
	c.SetColors(false)
	c.Warning("no script host for %s", "A 1.0")
	if got := errBuf.String(); got != "Warning: no script host for A 1.0\n" {
		t.Errorf("Warning() = %q", got)
	}
}

func TestConsole_Verbosity(t *testing.T) {
	tests := []struct {
		verbosity Verbosity
		want      []string
		notWant   []string
	}{
		{VerbosityQuiet, nil, []string{"info", "detail", "debug"}},
		{VerbosityNormal, []string{"info"}, []string{"detail", "debug"}},
		{VerbosityDetailed, []string{"info", "detail"}, []string{"debug"}},
		{VerbosityDiagnostic, []string{"info", "detail", "[DEBUG] debug"}, nil},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := NewConsole(&out, &out, tt.verbosity)
		c.SetColors(false)
		c.Info("info")
		c.Detail("detail")
		c.Debug("debug")

		got := out.String()
		for _, s := range tt.want {
			if !strings.Contains(got, s) {
				t.Errorf("verbosity %d: output %q missing %q", tt.verbosity, got, s)
			}
		}
		for _, s := range tt.notWant {
			if strings.Contains(got, s) {
				t.Errorf("verbosity %d: output %q should not contain %q", tt.verbosity, got, s)
			}
		}
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"quiet", VerbosityQuiet, false},
		{"q", VerbosityQuiet, false},
		{"", VerbosityNormal, false},
		{"Normal", VerbosityNormal, false},
		{"detailed", VerbosityDetailed, false},
		{"diag", VerbosityDiagnostic, false},
		{"loud", VerbosityNormal, true},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVerbosity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsColorEnabled_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsColorEnabled(&buf) {
		t.Error("IsColorEnabled() = true for a buffer")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(&buf, PlanOutput{
		SchemaVersion: SchemaVersion,
		Target:        "Web",
		Operations:    []string{"Install A (Web)"},
		Actions:       []ActionItem{{Type: "install", ID: "A", Version: "1.0", Target: "Web"}},
		ElapsedMs:     MeasureElapsed(time.Now()),
	})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	got := buf.String()
	for _, s := range []string{`"schemaVersion": "1.0.0"`, `"type": "install"`, "\n  \"target\": \"Web\""} {
		if !strings.Contains(got, s) {
			t.Errorf("WriteJSON() output missing %q:\n%s", s, got)
		}
	}
	if strings.Contains(got, "replaced") {
		t.Errorf("empty replaced should be omitted:\n%s", got)
	}
}
