package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/willibrandon/nugetplan/scripts"
)

// scriptHost runs a package script as a child process with the package and
// project described in its environment.
type scriptHost struct {
	interpreter []string
	stderr      io.Writer
}

// scriptFile locates the script: ScriptPath under InstallPath, which is
// relative to the project directory.
func scriptFile(req scripts.Request) (string, error) {
	if req.ScriptPath == "" {
		return "", errors.New("request has no script path")
	}
	p := filepath.Join(filepath.FromSlash(req.InstallPath), filepath.FromSlash(req.ScriptPath))
	if !filepath.IsAbs(p) && req.ProjectDir != "" {
		p = filepath.Join(req.ProjectDir, p)
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("script not found: %w", err)
	}
	return p, nil
}

func (h *scriptHost) Run(ctx context.Context, req scripts.Request) error {
	file, err := scriptFile(req)
	if err != nil {
		return err
	}

	var cmd *exec.Cmd
	if len(h.interpreter) == 0 {
		cmd = exec.CommandContext(ctx, file)
	} else {
		args := append(append([]string{}, h.interpreter[1:]...), file)
		cmd = exec.CommandContext(ctx, h.interpreter[0], args...)
	}
	cmd.Dir = req.ProjectDir
	cmd.Env = append(os.Environ(),
		"NUGETPLAN_ACTION="+string(req.Action),
		"NUGETPLAN_PACKAGE="+req.Package,
		"NUGETPLAN_VERSION="+req.Version,
		"NUGETPLAN_PROJECT="+req.Project,
		"NUGETPLAN_INSTALL_PATH="+filepath.Dir(file),
	)
	// The script's own output must not reach stdout, which carries the response.
	cmd.Stdout = h.stderr
	cmd.Stderr = h.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d", req.ScriptPath, exitErr.ExitCode())
		}
		return err
	}
	return nil
}
