// Package solution models where packages get installed: a Solution and the
// Projects it owns. Both are installation targets; a Solution holds the
// solution-level packages folder and every Project carries a ProjectSystem
// that receives assembly references and content files.
package solution

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/frameworks"
)

// TargetKind tags an InstallationTarget as a project or a solution.
type TargetKind int

const (
	KindProject TargetKind = iota
	KindSolution
)

func (k TargetKind) String() string {
	switch k {
	case KindProject:
		return "Project"
	case KindSolution:
		return "Solution"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// InstallationTarget is the scope an action applies to.
type InstallationTarget interface {
	Name() string
	Kind() TargetKind

	// TargetFramework is nil for solution targets.
	TargetFramework() *frameworks.NuGetFramework

	// Repository records the packages installed into this target.
	Repository() core.LocalRepository

	// AllTargetsRecursively yields the target itself followed by the
	// recursive yield of each child.
	AllTargetsRecursively() []InstallationTarget
}

// Project is a single project target owned by exactly one Solution.
type Project struct {
	name   string
	dir    string
	system ProjectSystem
	repo   core.LocalRepository
	owner  *Solution
}

// NewProject creates an unowned project. dir is the project directory used to
// compute reference hint paths and may be empty for in-memory projects.
func NewProject(name, dir string, system ProjectSystem, repo core.LocalRepository) *Project {
	return &Project{name: name, dir: dir, system: system, repo: repo}
}

func (p *Project) Name() string                     { return p.name }
func (p *Project) Kind() TargetKind                 { return KindProject }
func (p *Project) Repository() core.LocalRepository { return p.repo }

// Dir returns the project directory.
func (p *Project) Dir() string { return p.dir }

// System returns the project's file and reference surface.
func (p *Project) System() ProjectSystem { return p.system }

// OwnerSolution returns the solution that owns the project, or nil.
func (p *Project) OwnerSolution() *Solution { return p.owner }

// TargetFramework implements InstallationTarget.
func (p *Project) TargetFramework() *frameworks.NuGetFramework {
	return p.system.TargetFramework()
}

// AllTargetsRecursively implements InstallationTarget.
func (p *Project) AllTargetsRecursively() []InstallationTarget {
	return []InstallationTarget{p}
}

// PackagesPath returns the packages folder as seen from the project, in the
// slash-separated form used for reference hint paths.
func (p *Project) PackagesPath() string {
	if p.owner == nil || p.owner.packagesDir == "" || p.dir == "" {
		return "packages"
	}
	rel, err := filepath.Rel(p.dir, p.owner.packagesDir)
	if err != nil {
		return filepath.ToSlash(p.owner.packagesDir)
	}
	return filepath.ToSlash(rel)
}

func (p *Project) String() string { return p.name }

// Solution is the solution-wide target. Its repository is the solution-level
// packages folder.
type Solution struct {
	name        string
	packagesDir string
	repo        core.LocalRepository
	projects    []*Project
}

// NewSolution creates a solution without projects. packagesDir is the
// packages folder location and may be empty for in-memory solutions.
func NewSolution(name, packagesDir string, repo core.LocalRepository) *Solution {
	return &Solution{name: name, packagesDir: packagesDir, repo: repo}
}

func (s *Solution) Name() string                                { return s.name }
func (s *Solution) Kind() TargetKind                            { return KindSolution }
func (s *Solution) Repository() core.LocalRepository            { return s.repo }
func (s *Solution) TargetFramework() *frameworks.NuGetFramework { return nil }

// PackagesDir returns the packages folder location.
func (s *Solution) PackagesDir() string { return s.packagesDir }

// AddProject takes ownership of p. A project can belong to one solution only,
// which keeps the target tree acyclic.
func (s *Solution) AddProject(p *Project) error {
	if p.owner != nil {
		return fmt.Errorf("project %s already belongs to solution %s", p.name, p.owner.name)
	}
	for _, existing := range s.projects {
		if strings.EqualFold(existing.name, p.name) {
			return fmt.Errorf("solution %s already has a project named %s", s.name, p.name)
		}
	}
	p.owner = s
	s.projects = append(s.projects, p)
	return nil
}

// Projects returns the owned projects in the order they were added.
func (s *Solution) Projects() []*Project {
	return s.projects
}

// FindProject returns the project called name, ignoring case.
func (s *Solution) FindProject(name string) (*Project, bool) {
	for _, p := range s.projects {
		if strings.EqualFold(p.name, name) {
			return p, true
		}
	}
	return nil, false
}

// AllTargetsRecursively implements InstallationTarget.
func (s *Solution) AllTargetsRecursively() []InstallationTarget {
	out := []InstallationTarget{s}
	for _, p := range s.projects {
		out = append(out, p.AllTargetsRecursively()...)
	}
	return out
}

func (s *Solution) String() string { return s.name }

// FindTarget resolves name against root's recursive targets. An empty name
// selects root.
func FindTarget(root InstallationTarget, name string) (InstallationTarget, error) {
	if name == "" {
		return root, nil
	}
	for _, t := range root.AllTargetsRecursively() {
		if strings.EqualFold(t.Name(), name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no project or solution named %q", name)
}
