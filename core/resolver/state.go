package resolver

import (
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/solution"
	"github.com/willibrandon/nugetplan/version"
)

// entry is a package present in a target together with the dependency set
// that applies to the target's framework.
type entry struct {
	identity core.PackageIdentity
	deps     []core.PackageDependency
}

func (e *entry) dependsOn(key string) bool {
	for _, d := range e.deps {
		if core.IDKey(d.ID) == key {
			return true
		}
	}
	return false
}

// allowedVersionsRepository is implemented by repositories that record an
// allowedVersions constraint per package, such as packages.config.
type allowedVersionsRepository interface {
	AllowedVersions(id string) *version.VersionSpec
}

// targetState tracks one installation target while a plan is built. initial
// is what the repository holds; final is what the target should hold once
// the plan is applied. Both are keyed by core.IDKey.
type targetState struct {
	target  solution.InstallationTarget
	fw      *frameworks.NuGetFramework
	initial map[string]*entry
	final   map[string]*entry

	// pinned holds versions requested explicitly in this batch.
	pinned map[string]*version.SemanticVersion

	// pending holds ids queued for uninstall anywhere in this batch.
	pending mapset.Set[string]

	// touched records the sequence number of the first change to each id.
	touched map[string]int

	// orphans collects ids whose dependent was replaced or removed during
	// the current operation.
	orphans []string
}

func newTargetState(target solution.InstallationTarget, pending mapset.Set[string]) *targetState {
	if pending == nil {
		pending = mapset.NewThreadUnsafeSet[string]()
	}
	return &targetState{
		target:  target,
		fw:      target.TargetFramework(),
		initial: make(map[string]*entry),
		final:   make(map[string]*entry),
		pinned:  make(map[string]*version.SemanticVersion),
		pending: pending,
		touched: make(map[string]int),
	}
}

func (ts *targetState) touch(key string, seq *int) {
	if _, ok := ts.touched[key]; !ok {
		*seq++
		ts.touched[key] = *seq
	}
}

// snapshot is the part of a targetState an operation mutates.
type snapshot struct {
	final   map[string]*entry
	pinned  map[string]*version.SemanticVersion
	touched map[string]int
}

// save copies the mutable maps. Entries are replaced, never modified, so a
// shallow copy is enough.
func (ts *targetState) save() snapshot {
	return snapshot{
		final:   maps.Clone(ts.final),
		pinned:  maps.Clone(ts.pinned),
		touched: maps.Clone(ts.touched),
	}
}

// restore rolls ts back to s.
func (ts *targetState) restore(s snapshot) {
	ts.final = s.final
	ts.pinned = s.pinned
	ts.touched = s.touched
	ts.orphans = ts.orphans[:0]
}

func (ts *targetState) sortedKeys() []string {
	keys := make([]string, 0, len(ts.final))
	for k := range ts.final {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// constraints returns every requirement on key: dependencies declared by the
// other packages in the final state, explicit requests of this batch and the
// repository's allowedVersions entry.
func (ts *targetState) constraints(key string) []Constraint {
	var out []Constraint
	for _, k := range ts.sortedKeys() {
		if k == key {
			continue
		}
		e := ts.final[k]
		for _, d := range e.deps {
			if core.IDKey(d.ID) == key {
				out = append(out, Constraint{Spec: d.VersionSpec, RequiredBy: e.identity.String()})
			}
		}
	}
	if v, ok := ts.pinned[key]; ok {
		out = append(out, Constraint{Spec: version.ExactSpec(v), RequiredBy: "the request"})
	}
	if repo, ok := ts.target.Repository().(allowedVersionsRepository); ok {
		if spec := repo.AllowedVersions(key); spec != nil {
			out = append(out, Constraint{Spec: spec, RequiredBy: "allowedVersions"})
		}
	}
	return out
}

// combine intersects the specs of cs. ok is false when they admit no version.
func combine(cs []Constraint) (spec *version.VersionSpec, ok bool) {
	for _, c := range cs {
		if spec, ok = version.Intersect(spec, c.Spec); !ok {
			return nil, false
		}
	}
	return spec, true
}

// dependents returns the packages in the final state that depend on key.
func (ts *targetState) dependents(key string) []core.PackageIdentity {
	var out []core.PackageIdentity
	for _, k := range ts.sortedKeys() {
		if k != key && ts.final[k].dependsOn(key) {
			out = append(out, ts.final[k].identity)
		}
	}
	return out
}

func (ts *targetState) name() string {
	return ts.target.Name()
}
