package solution

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsSolutionFile reports whether path has the .sln extension.
func IsSolutionFile(path string) bool {
	return path != "" && strings.EqualFold(filepath.Ext(path), ".sln")
}

// DetectSolution finds the single .sln file in dir. It fails when there is
// none or more than one, listing the candidates.
func DetectSolution(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("error searching for solution files: %w", err)
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() && IsSolutionFile(e.Name()) {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("no solution file found in %s", dir)
	case 1:
		abs, err := filepath.Abs(found[0])
		if err != nil {
			return found[0], nil
		}
		return abs, nil
	default:
		return "", fmt.Errorf("multiple solution files found in %s: %s", dir, strings.Join(found, ", "))
	}
}
