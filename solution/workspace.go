package solution

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/observability"
)

// SolutionPackagesConfig is where solution-level packages are recorded,
// relative to the solution directory.
const SolutionPackagesConfig = ".nuget/packages.config"

// WorkspaceOption configures LoadWorkspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	packagesDir string
}

// WithPackagesDir places the packages folder at dir instead of
// <solution dir>/packages.
func WithPackagesDir(dir string) WorkspaceOption {
	return func(o *workspaceOptions) { o.packagesDir = dir }
}

// LoadWorkspace builds a Solution from the .sln at slnPath. Each .NET
// project gets an MSBuildProjectSystem and a packages.config repository next
// to the project file; the packages folder is <solution dir>/packages.
// Projects listed in the solution but missing on disk are skipped with a
// warning.
func LoadWorkspace(slnPath string, logger observability.Logger, opts ...WorkspaceOption) (*Solution, error) {
	if logger == nil {
		logger = observability.NewNullLogger()
	}

	sln, err := ParseSln(slnPath)
	if err != nil {
		return nil, err
	}
	dir := sln.Dir()

	o := workspaceOptions{packagesDir: filepath.Join(dir, "packages")}
	for _, opt := range opts {
		opt(&o)
	}

	slnRepo, err := core.OpenPackagesConfig(filepath.Join(dir, filepath.FromSlash(SolutionPackagesConfig)), nil)
	if err != nil {
		return nil, err
	}
	sol := NewSolution(sln.Name(), o.packagesDir, slnRepo)

	for _, entry := range sln.Projects {
		if !entry.IsNETProject() {
			continue
		}
		projPath := ResolveProjectPath(dir, entry.Path)
		system, err := LoadMSBuildProject(projPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("Skipping project {Project}: {Path} does not exist", entry.Name, projPath)
				continue
			}
			return nil, fmt.Errorf("load project %s: %w", entry.Name, err)
		}

		projDir := filepath.Dir(projPath)
		repo, err := core.OpenPackagesConfig(filepath.Join(projDir, core.PackagesConfigFileName), system.TargetFramework())
		if err != nil {
			return nil, fmt.Errorf("load project %s: %w", entry.Name, err)
		}

		if err := sol.AddProject(NewProject(entry.Name, projDir, system, repo)); err != nil {
			return nil, err
		}
		logger.Debug("Loaded project {Project} targeting {Framework}", entry.Name, system.TargetFramework().String())
	}
	return sol, nil
}
