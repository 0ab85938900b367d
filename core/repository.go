package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/willibrandon/nugetplan/version"
)

// LocalRepository records the packages installed into one installation
// target. Only the executor mutates it.
type LocalRepository interface {
	IsInstalled(identity PackageIdentity) bool
	GetInstalledPackages() []PackageIdentity
	AddPackage(identity PackageIdentity) error
	RemovePackage(identity PackageIdentity) error
}

// FindInstalled returns the highest installed version of id.
func FindInstalled(repo LocalRepository, id string) (PackageIdentity, bool) {
	var best PackageIdentity
	found := false
	for _, p := range repo.GetInstalledPackages() {
		if strings.EqualFold(p.ID, id) && (!found || version.Compare(p.Version, best.Version) > 0) {
			best, found = p, true
		}
	}
	return best, found
}

func sortIdentities(ids []PackageIdentity) {
	slices.SortFunc(ids, func(a, b PackageIdentity) int {
		if c := strings.Compare(IDKey(a.ID), IDKey(b.ID)); c != 0 {
			return c
		}
		return version.Compare(a.Version, b.Version)
	})
}

// MemoryRepository is a LocalRepository held in memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	packages map[string]PackageIdentity
}

// NewMemoryRepository creates a repository holding installed.
func NewMemoryRepository(installed ...PackageIdentity) *MemoryRepository {
	r := &MemoryRepository{packages: make(map[string]PackageIdentity)}
	for _, p := range installed {
		r.packages[p.Key()] = p
	}
	return r
}

// IsInstalled implements LocalRepository.
func (r *MemoryRepository) IsInstalled(identity PackageIdentity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packages[identity.Key()]
	return ok
}

// GetInstalledPackages returns installed packages ordered by id then version.
func (r *MemoryRepository) GetInstalledPackages() []PackageIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PackageIdentity, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, p)
	}
	sortIdentities(out)
	return out
}

// AddPackage implements LocalRepository. Adding an installed package is a no-op.
func (r *MemoryRepository) AddPackage(identity PackageIdentity) error {
	if identity.Version == nil {
		return fmt.Errorf("add %s: version is required", identity.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[identity.Key()] = identity
	return nil
}

// RemovePackage implements LocalRepository.
func (r *MemoryRepository) RemovePackage(identity PackageIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.packages[identity.Key()]; !ok {
		return fmt.Errorf("remove %s: %w", identity, ErrPackageNotFound)
	}
	delete(r.packages, identity.Key())
	return nil
}
