package solution

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/willibrandon/nugetplan/frameworks"
)

// ProjectSystem is the project file surface an install touches: assembly
// references and content files. Paths use forward slashes and are relative to
// the project directory.
type ProjectSystem interface {
	TargetFramework() *frameworks.NuGetFramework

	// AddReference references the assembly at path. The reference name is the
	// file name without its extension.
	AddReference(path string) error
	RemoveReference(name string) error
	ReferenceExists(name string) bool

	AddFile(path string, content []byte) error
	DeleteFile(path string) error
	FileExists(path string) bool
}

// ReferenceName returns the assembly name a reference path is known by.
func ReferenceName(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if ext := path.Ext(base); strings.EqualFold(ext, ".dll") || strings.EqualFold(ext, ".exe") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func cleanFilePath(p string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if clean == "." || !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid project file path %q", p)
	}
	return clean, nil
}

// MemoryProjectSystem keeps references and files in memory.
type MemoryProjectSystem struct {
	framework *frameworks.NuGetFramework

	mu         sync.RWMutex
	references map[string]string // lower(name) -> hint path
	files      map[string][]byte // lower(path) -> content
	names      map[string]string // lower(key) -> original spelling
}

// NewMemoryProjectSystem creates an empty project system targeting framework.
func NewMemoryProjectSystem(framework *frameworks.NuGetFramework) *MemoryProjectSystem {
	return &MemoryProjectSystem{
		framework:  framework,
		references: make(map[string]string),
		files:      make(map[string][]byte),
		names:      make(map[string]string),
	}
}

// TargetFramework implements ProjectSystem.
func (m *MemoryProjectSystem) TargetFramework() *frameworks.NuGetFramework {
	return m.framework
}

// AddReference implements ProjectSystem. An existing reference with the same
// name is repointed at path.
func (m *MemoryProjectSystem) AddReference(p string) error {
	name := ReferenceName(p)
	if name == "" || name == "." {
		return fmt.Errorf("invalid reference path %q", p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.references[strings.ToLower(name)] = p
	m.names["ref:"+strings.ToLower(name)] = name
	return nil
}

// RemoveReference implements ProjectSystem.
func (m *MemoryProjectSystem) RemoveReference(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := m.references[key]; !ok {
		return fmt.Errorf("reference %s: %w", name, fs.ErrNotExist)
	}
	delete(m.references, key)
	delete(m.names, "ref:"+key)
	return nil
}

// ReferenceExists implements ProjectSystem.
func (m *MemoryProjectSystem) ReferenceExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.references[strings.ToLower(name)]
	return ok
}

// AddFile implements ProjectSystem.
func (m *MemoryProjectSystem) AddFile(p string, content []byte) error {
	clean, err := cleanFilePath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(clean)
	m.files[key] = slices.Clone(content)
	m.names["file:"+key] = clean
	return nil
}

// DeleteFile implements ProjectSystem.
func (m *MemoryProjectSystem) DeleteFile(p string) error {
	clean, err := cleanFilePath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(clean)
	if _, ok := m.files[key]; !ok {
		return fmt.Errorf("file %s: %w", clean, fs.ErrNotExist)
	}
	delete(m.files, key)
	delete(m.names, "file:"+key)
	return nil
}

// FileExists implements ProjectSystem.
func (m *MemoryProjectSystem) FileExists(p string) bool {
	clean, err := cleanFilePath(p)
	if err != nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[strings.ToLower(clean)]
	return ok
}

// ReadFile returns the content stored at p.
func (m *MemoryProjectSystem) ReadFile(p string) ([]byte, bool) {
	clean, err := cleanFilePath(p)
	if err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[strings.ToLower(clean)]
	return content, ok
}

// ReferencePath returns the path a reference was added with.
func (m *MemoryProjectSystem) ReferencePath(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.references[strings.ToLower(name)]
	return p, ok
}

// References returns referenced assembly names, sorted.
func (m *MemoryProjectSystem) References() []string {
	return m.list("ref:")
}

// Files returns content file paths, sorted.
func (m *MemoryProjectSystem) Files() []string {
	return m.list("file:")
}

func (m *MemoryProjectSystem) list(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k, v := range m.names {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}
