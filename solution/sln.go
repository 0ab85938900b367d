package solution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Project type GUIDs for the project entries a workspace loads.
const (
	ProjectTypeCSProject      = "{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}"
	ProjectTypeCSProjectSDK   = "{9A19103F-16F7-4668-BE54-9A1E7A4F7556}"
	ProjectTypeVBProject      = "{F184B08F-C81C-45F6-A57F-5ABD9991F28F}"
	ProjectTypeFSProject      = "{F2A71F9B-5D33-465A-A702-920D77279786}"
	ProjectTypeSolutionFolder = "{2150E333-8FDC-42A3-9474-1A3956D46DE8}"
)

// SlnFile is the parsed content of a text .sln file.
type SlnFile struct {
	// FilePath is the absolute path to the solution file
	FilePath string

	// FormatVersion is the solution file format version (e.g., "12.00")
	FormatVersion string

	// Projects lists project entries, excluding solution folders
	Projects []SlnProject
}

// Dir returns the directory containing the solution file.
func (s *SlnFile) Dir() string {
	return filepath.Dir(s.FilePath)
}

// Name returns the solution file name without extension.
func (s *SlnFile) Name() string {
	base := filepath.Base(s.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SlnProject is one Project(...) entry of a solution.
type SlnProject struct {
	Name     string
	Path     string // slash-separated, relative to the solution directory
	GUID     string
	TypeGUID string
}

// IsNETProject reports whether the entry is a C#, VB.NET or F# project.
func (p SlnProject) IsNETProject() bool {
	switch strings.ToUpper(p.TypeGUID) {
	case ProjectTypeCSProject, ProjectTypeCSProjectSDK, ProjectTypeVBProject, ProjectTypeFSProject:
		return true
	}
	ext := strings.ToLower(filepath.Ext(p.Path))
	return ext == ".csproj" || ext == ".vbproj" || ext == ".fsproj"
}

// ParseError is a solution file syntax error.
type ParseError struct {
	FilePath string
	Line     int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

var (
	formatVersionRegex = regexp.MustCompile(`^Microsoft Visual Studio Solution File, Format Version (\S+)`)

	// Project("{TYPE}") = "Name", "Path", "{GUID}"
	projectRegex = regexp.MustCompile(
		`(?i)^Project\("\{([A-F0-9-]+)\}"\)\s*=\s*"([^"]+)",\s*"([^"]+)",\s*"\{([A-F0-9-]+)\}"`,
	)
)

// ParseSln reads the .sln file at path.
func ParseSln(path string) (*SlnFile, error) {
	if !strings.EqualFold(filepath.Ext(path), ".sln") {
		return nil, &ParseError{FilePath: path, Message: "not a .sln file"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("cannot open file: %v", err)}
	}
	defer func() { _ = f.Close() }()

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	return parseSln(absPath, f)
}

func parseSln(path string, r io.Reader) (*SlnFile, error) {
	sln := &SlnFile{FilePath: path}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	var current *SlnProject
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\uFEFF")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := formatVersionRegex.FindStringSubmatch(trimmed); m != nil {
			sln.FormatVersion = m[1]
			continue
		}

		if m := projectRegex.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				return nil, &ParseError{FilePath: path, Line: lineNum, Message: "nested Project entry: missing EndProject"}
			}
			current = &SlnProject{
				Name:     m[2],
				Path:     NormalizePath(m[3]),
				GUID:     "{" + strings.ToUpper(m[4]) + "}",
				TypeGUID: "{" + strings.ToUpper(m[1]) + "}",
			}
			continue
		}

		if trimmed == "EndProject" {
			if current == nil {
				return nil, &ParseError{FilePath: path, Line: lineNum, Message: "EndProject without Project"}
			}
			if current.TypeGUID != ProjectTypeSolutionFolder {
				sln.Projects = append(sln.Projects, *current)
			}
			current = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{FilePath: path, Message: fmt.Sprintf("error reading file: %v", err)}
	}
	if current != nil {
		return nil, &ParseError{FilePath: path, Line: lineNum, Message: "unexpected end of file: missing EndProject"}
	}
	if sln.FormatVersion == "" {
		return nil, &ParseError{FilePath: path, Message: "missing solution file header"}
	}
	return sln, nil
}
