package solution

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style separators to forward slashes and
// collapses duplicate slashes.
func NormalizePath(path string) string {
	normalized := strings.ReplaceAll(path, `\`, "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	return normalized
}

// ResolveProjectPath resolves a project path from a solution file against
// the solution directory.
func ResolveProjectPath(solutionDir, projectPath string) string {
	if projectPath == "" {
		return ""
	}
	native := filepath.FromSlash(NormalizePath(projectPath))
	if filepath.IsAbs(native) {
		return filepath.Clean(native)
	}
	return filepath.Clean(filepath.Join(solutionDir, native))
}
