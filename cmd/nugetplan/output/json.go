package output

import (
	"encoding/json"
	"io"
	"time"
)

// SchemaVersion is stamped on every JSON document the CLI emits.
const SchemaVersion = "1.0.0"

// PlanOutput represents the JSON output for the plan command
type PlanOutput struct {
	SchemaVersion string       `json:"schemaVersion"`
	Target        string       `json:"target"`
	Operations    []string     `json:"operations"`
	Actions       []ActionItem `json:"actions"`
	Errors        []string     `json:"errors,omitempty"`
	ElapsedMs     int64        `json:"elapsedMs"`
}

// ActionItem represents one planned or applied action in JSON output
type ActionItem struct {
	Type     string `json:"type"` // "install", "uninstall" or "update"
	ID       string `json:"id"`
	Version  string `json:"version"`
	Replaced string `json:"replaced,omitempty"`
	Target   string `json:"target"`
}

// ApplyOutput represents the JSON output for the apply command
type ApplyOutput struct {
	SchemaVersion string       `json:"schemaVersion"`
	BatchID       string       `json:"batchId,omitempty"`
	Planned       []ActionItem `json:"planned"`
	Applied       []ActionItem `json:"applied"`
	Error         string       `json:"error,omitempty"`
	ElapsedMs     int64        `json:"elapsedMs"`
}

// RedirectsOutput represents the JSON output for the redirects command
type RedirectsOutput struct {
	SchemaVersion string            `json:"schemaVersion"`
	Manifest      string            `json:"manifest"`
	Redirects     []BindingRedirect `json:"redirects"`
	ElapsedMs     int64             `json:"elapsedMs"`
}

// BindingRedirect represents one assembly binding in JSON output
type BindingRedirect struct {
	Name           string `json:"name"`
	PublicKeyToken string `json:"publicKeyToken"`
	Culture        string `json:"culture,omitempty"`
	OldVersion     string `json:"oldVersion"`
	NewVersion     string `json:"newVersion"`
}

// WriteJSON writes a JSON object to the specified writer (typically stdout)
// When --json is used, ALL JSON goes to stdout and ALL messages go to stderr
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// MeasureElapsed returns elapsed time in milliseconds since start
func MeasureElapsed(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
