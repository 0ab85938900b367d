// Package scripts runs package install and uninstall scripts out of process.
// Each script invocation starts a host process, writes one JSON Request to
// its stdin and reads one JSON Response from its stdout. Nothing is shared
// with the host beyond those two messages.
package scripts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Action is the script being run.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
)

// Request describes one script invocation.
type Request struct {
	Action  Action `json:"action"`
	Package string `json:"package"`
	Version string `json:"version"`

	// Project is the project name; ProjectDir its directory when on disk.
	Project    string `json:"project"`
	ProjectDir string `json:"projectDir,omitempty"`

	// ScriptPath is relative to InstallPath, the package's folder under the
	// packages directory. Extracting packages into that folder is not done
	// here; hosts report a missing script as a script failure.
	ScriptPath  string `json:"scriptPath"`
	InstallPath string `json:"installPath,omitempty"`
}

// Response is the host's answer. Error is set only when Success is false.
type Response struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries a machine-readable code and a readable message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes reported by Serve.
const (
	CodeBadRequest   = "REQ_001"
	CodeScriptFailed = "SCRIPT_001"
)

// Runner runs a package script.
type Runner interface {
	Run(ctx context.Context, req Request) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req Request) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, req Request) error { return f(ctx, req) }

// Serve is the host side of the protocol: it decodes one Request from r,
// hands it to handler and encodes the Response to w. The returned error is
// the handler's, so hosts can set their exit status from it.
func Serve(ctx context.Context, r io.Reader, w io.Writer, handler Runner) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		werr := writeResponse(w, Response{Error: &ErrorInfo{
			Code:    CodeBadRequest,
			Message: "Failed to parse request JSON",
			Details: err.Error(),
		}})
		if werr != nil {
			return werr
		}
		return fmt.Errorf("decode request: %w", err)
	}

	if req.Action != ActionInstall && req.Action != ActionUninstall {
		err := fmt.Errorf("unknown action %q", req.Action)
		if werr := writeResponse(w, Response{Error: &ErrorInfo{Code: CodeBadRequest, Message: err.Error()}}); werr != nil {
			return werr
		}
		return err
	}

	if err := handler.Run(ctx, req); err != nil {
		resp := Response{Error: &ErrorInfo{
			Code:    CodeScriptFailed,
			Message: err.Error(),
			Details: fmt.Sprintf("%s %s %s", req.Action, req.Package, req.ScriptPath),
		}}
		if werr := writeResponse(w, resp); werr != nil {
			return werr
		}
		return err
	}
	return writeResponse(w, Response{Success: true})
}

func writeResponse(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}
