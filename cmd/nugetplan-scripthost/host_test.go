package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/nugetplan/scripts"
)

func writeScript(t *testing.T, dir, body string) scripts.Request {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	pkgDir := filepath.Join(dir, "packages", "A.1.0", "tools")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "install.sh"), []byte(body), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Web"), 0o755))

	return scripts.Request{
		Action:      scripts.ActionInstall,
		Package:     "A",
		Version:     "1.0",
		Project:     "Web",
		ProjectDir:  filepath.Join(dir, "Web"),
		ScriptPath:  "tools/install.sh",
		InstallPath: "../packages/A.1.0",
	}
}

func serve(t *testing.T, host *scriptHost, req scripts.Request) (scripts.Response, error) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	var out bytes.Buffer
	err = scripts.Serve(context.Background(), bytes.NewReader(payload), &out, host)

	var resp scripts.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return resp, err
}

func TestScriptHost_RunsScript(t *testing.T) {
	dir := t.TempDir()
	req := writeScript(t, dir, "#!/bin/sh\necho \"$NUGETPLAN_ACTION $NUGETPLAN_PACKAGE $NUGETPLAN_VERSION\" > installed.txt\necho noise\n")

	var stderr bytes.Buffer
	resp, err := serve(t, &scriptHost{interpreter: []string{"sh"}, stderr: &stderr}, req)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, stderr.String(), "noise")

	data, err := os.ReadFile(filepath.Join(dir, "Web", "installed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "install A 1.0", strings.TrimSpace(string(data)))
}

func TestScriptHost_ScriptFails(t *testing.T) {
	dir := t.TempDir()
	req := writeScript(t, dir, "#!/bin/sh\nexit 4\n")

	resp, err := serve(t, &scriptHost{interpreter: []string{"sh"}, stderr: &bytes.Buffer{}}, req)
	require.Error(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, scripts.CodeScriptFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "exited with status 4")
}

func TestScriptHost_MissingScript(t *testing.T) {
	dir := t.TempDir()
	req := writeScript(t, dir, "#!/bin/sh\n")
	req.ScriptPath = "tools/missing.sh"

	resp, err := serve(t, &scriptHost{stderr: &bytes.Buffer{}}, req)
	require.Error(t, err)
	assert.Contains(t, resp.Error.Message, "script not found")
}
