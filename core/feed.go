package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// Feed is the JSON document describing a local package feed:
//
//	{"packages": [{"id": "A", "version": "1.0",
//	  "dependencySets": [{"targetFramework": "net45", "dependencies": [{"id": "B", "version": "[1.0,2.0)"}]}],
//	  "references": ["lib/net45/A.dll"],
//	  "files": [{"path": "App_Start/A.cs", "content": "..."}]}]}
type Feed struct {
	Packages []FeedPackage `json:"packages"`
}

// FeedPackage is one package entry of a Feed.
type FeedPackage struct {
	ID      string `json:"id"`
	Version string `json:"version"`

	// Dependencies is shorthand for a single universal dependency set.
	Dependencies    []FeedDependency    `json:"dependencies,omitempty"`
	DependencySets  []FeedDependencySet `json:"dependencySets,omitempty"`
	References      []string            `json:"references,omitempty"`
	Files           []FeedFile          `json:"files,omitempty"`
	InstallScript   string              `json:"installScript,omitempty"`
	UninstallScript string              `json:"uninstallScript,omitempty"`
}

// FeedDependencySet is a framework-scoped dependency list.
type FeedDependencySet struct {
	TargetFramework string           `json:"targetFramework,omitempty"`
	Dependencies    []FeedDependency `json:"dependencies"`
}

// FeedDependency is a dependency with an optional version spec.
type FeedDependency struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// FeedFile is a content file.
type FeedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// LoadFeedFile reads a feed document from path into a MemorySource named after the file.
func LoadFeedFile(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := LoadFeed(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("load feed %s: %w", path, err)
	}
	return src, nil
}

// LoadFeed decodes a feed document into a MemorySource.
func LoadFeed(name string, r io.Reader) (*MemorySource, error) {
	var feed Feed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	src := NewMemorySource(name)
	for i, entry := range feed.Packages {
		pkg, err := entry.toPackage()
		if err != nil {
			return nil, fmt.Errorf("package #%d (%s): %w", i, entry.ID, err)
		}
		src.AddPackage(pkg)
	}
	return src, nil
}

func (e FeedPackage) toPackage() (*Package, error) {
	if strings.TrimSpace(e.ID) == "" {
		return nil, fmt.Errorf("package id is required")
	}
	identity, err := ParseIdentity(e.ID, e.Version)
	if err != nil {
		return nil, err
	}

	pkg := &Package{
		Identity: identity,
		Content: PackageContent{
			InstallScript:   e.InstallScript,
			UninstallScript: e.UninstallScript,
		},
	}

	sets := e.DependencySets
	if len(e.Dependencies) > 0 {
		sets = append([]FeedDependencySet{{Dependencies: e.Dependencies}}, sets...)
	}
	for _, s := range sets {
		set := DependencySet{}
		if s.TargetFramework != "" {
			fw, err := frameworks.ParseFramework(s.TargetFramework)
			if err != nil {
				return nil, err
			}
			set.TargetFramework = fw
		}
		for _, d := range s.Dependencies {
			dep := PackageDependency{ID: d.ID}
			if d.Version != "" {
				spec, err := version.ParseVersionSpec(d.Version)
				if err != nil {
					return nil, fmt.Errorf("dependency %s: %w", d.ID, err)
				}
				dep.VersionSpec = spec
			}
			set.Dependencies = append(set.Dependencies, dep)
		}
		pkg.DependencySets = append(pkg.DependencySets, set)
	}

	for _, p := range e.References {
		ref, err := parseReferencePath(p)
		if err != nil {
			return nil, err
		}
		pkg.Content.References = append(pkg.Content.References, ref)
	}
	for _, f := range e.Files {
		pkg.Content.Files = append(pkg.Content.Files, ContentFile{Path: f.Path, Content: []byte(f.Content)})
	}
	return pkg, nil
}

// parseReferencePath derives the framework from a lib/<tfm>/name.dll path.
func parseReferencePath(p string) (AssemblyReference, error) {
	parts := strings.Split(strings.ReplaceAll(p, `\`, "/"), "/")
	ref := AssemblyReference{Path: p}
	if len(parts) == 3 && strings.EqualFold(parts[0], "lib") {
		fw, err := frameworks.ParseFramework(parts[1])
		if err != nil {
			return AssemblyReference{}, fmt.Errorf("reference %s: %w", p, err)
		}
		ref.TargetFramework = fw
	}
	return ref, nil
}
