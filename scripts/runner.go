package scripts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a script run when ProcessRunner.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// ProcessRunner runs each script in a fresh host process.
type ProcessRunner struct {
	Command string
	Args    []string

	// Dir is the host's working directory; empty means the current one.
	Dir string

	// Env is appended to the inherited environment.
	Env []string

	Timeout time.Duration
}

// ScriptError reports a script the host ran and rejected, or a host that
// exited without a usable response.
type ScriptError struct {
	Request  Request
	Code     string
	Message  string
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("%s script %s of %s %s failed", e.Request.Action, e.Request.ScriptPath, e.Request.Package, e.Request.Version)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

// Run implements Runner.
func (p *ProcessRunner) Run(ctx context.Context, req Request) error {
	if p.Command == "" {
		return errors.New("script host command is not configured")
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode script request: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return fmt.Errorf("%s script %s of %s: %w", req.Action, req.ScriptPath, req.Package, ctx.Err())
	}

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return fmt.Errorf("start script host %s: %w", p.Command, runErr)
	}

	var resp Response
	if err := json.NewDecoder(&stdout).Decode(&resp); err != nil {
		return &ScriptError{
			Request:  req,
			Message:  "script host returned no response",
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}

	if !resp.Success || exitCode != 0 {
		se := &ScriptError{Request: req, ExitCode: exitCode, Stderr: strings.TrimSpace(stderr.String())}
		if resp.Error != nil {
			se.Code, se.Message = resp.Error.Code, resp.Error.Message
		}
		return se
	}
	return nil
}
