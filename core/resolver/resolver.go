package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/solution"
	"github.com/willibrandon/nugetplan/version"
)

// ActionResolver turns queued operations into an ordered plan. It is not
// safe for concurrent use.
type ActionResolver struct {
	source core.PackageSource
	logger observability.Logger

	policy             version.DependencyVersion
	allowPrerelease    bool
	ignoreDependencies bool
	forceRemove        bool
	removeDependencies bool
	removeOrphans      bool

	ops []Operation
}

// NewActionResolver creates a resolver reading package metadata from source.
func NewActionResolver(source core.PackageSource, opts ...Option) *ActionResolver {
	r := &ActionResolver{
		source: source,
		logger: observability.NewNullLogger(),
		policy: version.Lowest,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddOperation queues a request. A nil ver means the best available version
// for Install and Update and the installed version for Uninstall.
func (r *ActionResolver) AddOperation(action ActionType, id string, ver *version.SemanticVersion, target solution.InstallationTarget) {
	r.ops = append(r.ops, Operation{Type: action, ID: id, Version: ver, Target: target})
}

// AddPackageOperation queues a request for a specific package version.
func (r *ActionResolver) AddPackageOperation(action ActionType, identity core.PackageIdentity, target solution.InstallationTarget) {
	r.AddOperation(action, identity.ID, identity.Version, target)
}

// Operations returns the queued requests in submission order.
func (r *ActionResolver) Operations() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// ResolveActions processes the queue in submission order and returns the
// plan. Resolution is all-or-nothing: every conflict found is returned
// joined together and no actions are returned with it.
func (r *ActionResolver) ResolveActions(ctx context.Context) ([]*PackageAction, error) {
	ctx, span := observability.StartResolveSpan(ctx, len(r.ops))
	start := time.Now()

	actions, err := r.resolve(ctx)

	result := "success"
	if err != nil {
		result = "failure"
	}
	observability.ResolveDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	observability.EndSpanWithError(span, err)

	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		observability.ActionsPlannedTotal.WithLabelValues(strings.ToLower(a.Type.String())).Inc()
	}
	r.logger.InfoContext(ctx, "Planned {ActionCount} actions for {OperationCount} operations", len(actions), len(r.ops))
	return actions, nil
}

func (r *ActionResolver) resolve(ctx context.Context) ([]*PackageAction, error) {
	res := newResolution(ctx, r)

	// Ids queued for uninstall anywhere in the batch do not block earlier
	// uninstalls of their dependencies.
	for _, op := range r.ops {
		if op.Type != Uninstall {
			continue
		}
		for _, t := range op.Target.AllTargetsRecursively() {
			res.pendingFor(t).Add(core.IDKey(op.ID))
		}
	}

	var failures []error
	for _, op := range r.ops {
		r.logger.DebugContext(ctx, "Resolving {Operation}", op.String())

		err := res.apply(op)
		if err == nil {
			continue
		}
		kind, ok := failureKind(err)
		if !ok {
			return nil, fmt.Errorf("resolve %s: %w", op, err)
		}
		observability.ResolverFailuresTotal.WithLabelValues(kind).Inc()
		observability.AddEvent(ctx, "resolve.failure", observability.AttrPackageID.String(op.ID), observability.AttrFailureKind.String(kind))
		r.logger.WarnContext(ctx, "Cannot resolve {Operation}: {Error}", op.String(), err.Error())
		failures = append(failures, err)
	}
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}

	return res.plan(), nil
}

// failureKind classifies resolution errors. Anything else, such as a source
// outage or a cancelled context, aborts resolution immediately.
func failureKind(err error) (string, bool) {
	var (
		conflict     *ResolverConflictError
		dependents   *DependencyConflictError
		notFound     *PackageNotFoundError
		notInstalled *PackageNotInstalledError
		cycle        *CircularDependencyError
	)
	switch {
	case errors.As(err, &conflict):
		return "version_conflict", true
	case errors.As(err, &dependents):
		return "dependents", true
	case errors.As(err, &notFound):
		return "not_found", true
	case errors.As(err, &notInstalled):
		return "not_installed", true
	case errors.As(err, &cycle):
		return "cycle", true
	default:
		return "", false
	}
}

// resolution is the working state of one ResolveActions call.
type resolution struct {
	ctx      context.Context
	r        *ActionResolver
	states   map[solution.InstallationTarget]*targetState
	order    []*targetState
	pending  map[solution.InstallationTarget]mapset.Set[string]
	seq      int
	versions map[string][]*version.SemanticVersion
}

func newResolution(ctx context.Context, r *ActionResolver) *resolution {
	return &resolution{
		ctx:      ctx,
		r:        r,
		states:   make(map[solution.InstallationTarget]*targetState),
		pending:  make(map[solution.InstallationTarget]mapset.Set[string]),
		versions: make(map[string][]*version.SemanticVersion),
	}
}

func (res *resolution) pendingFor(t solution.InstallationTarget) mapset.Set[string] {
	set, ok := res.pending[t]
	if !ok {
		set = mapset.NewThreadUnsafeSet[string]()
		res.pending[t] = set
	}
	return set
}

// state loads the installed packages of t on first use.
func (res *resolution) state(t solution.InstallationTarget) (*targetState, error) {
	if ts, ok := res.states[t]; ok {
		return ts, nil
	}

	ts := newTargetState(t, res.pendingFor(t))
	for _, id := range t.Repository().GetInstalledPackages() {
		key := core.IDKey(id.ID)
		if cur, ok := ts.initial[key]; ok && version.Compare(cur.identity.Version, id.Version) >= 0 {
			continue
		}
		deps, err := res.dependencies(ts, id)
		if err != nil && !errors.Is(err, core.ErrPackageNotFound) {
			return nil, err
		}
		if err != nil {
			res.r.logger.Warn("Installed package {PackageId} {Version} is missing from {Source}", id.ID, id.Version.String(), res.r.source.Name())
		}
		e := &entry{identity: id, deps: deps}
		ts.initial[key] = e
		ts.final[key] = e
	}

	res.states[t] = ts
	res.order = append(res.order, ts)
	return ts, nil
}

// apply runs op against every target it reaches. A failed operation leaves
// no trace: each target it touched is rolled back, so later operations see
// only what was admitted.
func (res *resolution) apply(op Operation) (err error) {
	saved := make(map[*targetState]snapshot)
	defer func() {
		if err != nil {
			for ts, s := range saved {
				ts.restore(s)
			}
		}
	}()
	run := func(ts *targetState) error {
		saved[ts] = ts.save()
		return res.applyTo(ts, op)
	}

	if op.Type == Install || op.Target.Kind() == solution.KindProject {
		ts, err := res.state(op.Target)
		if err != nil {
			return err
		}
		return run(ts)
	}

	// Uninstall and Update on a solution reach every target holding the id.
	var matched bool
	for _, t := range op.Target.AllTargetsRecursively() {
		ts, err := res.state(t)
		if err != nil {
			return err
		}
		if _, ok := ts.final[core.IDKey(op.ID)]; !ok {
			continue
		}
		matched = true
		if err := run(ts); err != nil {
			return err
		}
	}
	if !matched {
		return &PackageNotInstalledError{ID: op.ID, Version: op.Version, Target: op.Target.Name()}
	}
	return nil
}

func (res *resolution) applyTo(ts *targetState, op Operation) error {
	ts.orphans = ts.orphans[:0]

	var err error
	switch op.Type {
	case Install:
		err = res.install(ts, op.ID, op.Version)
	case Uninstall:
		err = res.uninstall(ts, op.ID, op.Version)
	case Update:
		err = res.update(ts, op.ID, op.Version)
	default:
		err = fmt.Errorf("unknown action type %s", op.Type)
	}
	if err != nil {
		return err
	}

	if res.r.removeOrphans && len(ts.orphans) > 0 {
		res.prune(ts, ts.orphans)
	}
	return nil
}

func (res *resolution) install(ts *targetState, id string, ver *version.SemanticVersion) error {
	key := core.IDKey(id)

	if ver == nil {
		if cur, ok := ts.final[key]; ok {
			res.r.logger.Debug("{PackageId} {Version} is already installed in {Target}", cur.identity.ID, cur.identity.Version.String(), ts.name())
			return nil
		}
		cs := ts.constraints(key)
		spec, ok := combine(cs)
		if !ok {
			return &ResolverConflictError{ID: id, Target: ts.name(), Constraints: cs}
		}
		versions, err := res.availableVersions(id)
		if err != nil {
			return err
		}
		ver = version.Latest(filter(versions, spec), res.r.allowPrerelease)
		if ver == nil {
			return &PackageNotFoundError{ID: id, Spec: spec}
		}
	}

	identity, err := res.find(id, ver, "")
	if err != nil {
		return err
	}
	ts.pinned[key] = identity.Version
	return res.place(ts, identity, nil)
}

func (res *resolution) uninstall(ts *targetState, id string, ver *version.SemanticVersion) error {
	key := core.IDKey(id)
	cur, ok := ts.final[key]
	if !ok || (ver != nil && version.Compare(cur.identity.Version, ver) != 0) {
		return &PackageNotInstalledError{ID: id, Version: ver, Target: ts.name()}
	}
	delete(ts.pinned, key)
	return res.remove(ts, key, mapset.NewThreadUnsafeSet[string]())
}

func (res *resolution) update(ts *targetState, id string, ver *version.SemanticVersion) error {
	key := core.IDKey(id)
	cur, ok := ts.final[key]
	if !ok {
		return &PackageNotInstalledError{ID: id, Version: nil, Target: ts.name()}
	}

	if ver == nil {
		cs := ts.constraints(key)
		spec, ok := combine(cs)
		if !ok {
			return &ResolverConflictError{ID: id, Target: ts.name(), Constraints: cs}
		}
		versions, err := res.availableVersions(id)
		if err != nil {
			return err
		}
		prerelease := res.r.allowPrerelease || cur.identity.Version.IsPrerelease()
		ver = version.SelectVersion(spec, versions, version.Highest, prerelease)
		if ver == nil || version.Compare(ver, cur.identity.Version) <= 0 {
			res.r.logger.Debug("No newer version of {PackageId} than {Version} for {Target}", cur.identity.ID, cur.identity.Version.String(), ts.name())
			return nil
		}
	} else if version.Compare(ver, cur.identity.Version) == 0 {
		return nil
	}

	identity, err := res.find(id, ver, "")
	if err != nil {
		return err
	}
	ts.pinned[key] = identity.Version
	return res.place(ts, identity, nil)
}

// place puts identity into the final state of ts and expands its
// dependencies depth-first in declaration order. path holds the chain of
// packages that led here.
func (res *resolution) place(ts *targetState, identity core.PackageIdentity, path []string) error {
	key := core.IDKey(identity.ID)

	cs := ts.constraints(key)
	if spec, ok := combine(cs); !ok || !spec.IsSatisfiedBy(identity.Version) {
		return &ResolverConflictError{ID: identity.ID, Target: ts.name(), Constraints: cs}
	}

	cur, exists := ts.final[key]
	if exists && version.Compare(cur.identity.Version, identity.Version) == 0 {
		return nil
	}

	deps, err := res.dependencies(ts, identity)
	if err != nil {
		if errors.Is(err, core.ErrPackageNotFound) {
			return &PackageNotFoundError{ID: identity.ID, Spec: version.ExactSpec(identity.Version)}
		}
		return err
	}

	if exists {
		for _, d := range cur.deps {
			ts.orphans = append(ts.orphans, core.IDKey(d.ID))
		}
		res.r.logger.Debug("Replacing {PackageId} {OldVersion} with {Version} in {Target}", identity.ID, cur.identity.Version.String(), identity.Version.String(), ts.name())
	}
	ts.final[key] = &entry{identity: identity, deps: deps}
	ts.touch(key, &res.seq)

	if res.r.ignoreDependencies {
		return nil
	}

	path = append(path, identity.ID)
	for _, dep := range deps {
		if err := res.ensure(ts, dep, identity, path); err != nil {
			return err
		}
	}
	return nil
}

// ensure makes dep hold in ts, installing or updating the dependency when
// the version in the final state does not satisfy it.
func (res *resolution) ensure(ts *targetState, dep core.PackageDependency, parent core.PackageIdentity, path []string) error {
	key := core.IDKey(dep.ID)

	for i, p := range path {
		if core.IDKey(p) == key {
			cycle := append([]string{}, path[i:]...)
			return &CircularDependencyError{Path: append(cycle, dep.ID)}
		}
	}

	if cur, ok := ts.final[key]; ok && dep.VersionSpec.IsSatisfiedBy(cur.identity.Version) {
		return nil
	}

	cs := ts.constraints(key)
	spec, ok := combine(cs)
	if !ok {
		return &ResolverConflictError{ID: dep.ID, Target: ts.name(), Constraints: cs}
	}

	versions, err := res.availableVersions(dep.ID)
	var notFound *PackageNotFoundError
	if errors.As(err, &notFound) {
		notFound.Spec, notFound.RequiredBy = dep.VersionSpec, parent.String()
	}
	if err != nil {
		return err
	}
	chosen := version.SelectVersion(spec, versions, res.r.policy, res.r.allowPrerelease)
	if chosen == nil {
		if version.SelectVersion(dep.VersionSpec, versions, res.r.policy, res.r.allowPrerelease) == nil {
			return &PackageNotFoundError{ID: dep.ID, Spec: dep.VersionSpec, RequiredBy: parent.String()}
		}
		return &ResolverConflictError{ID: dep.ID, Target: ts.name(), Constraints: cs}
	}

	identity, err := res.find(dep.ID, chosen, parent.String())
	if err != nil {
		return err
	}
	return res.place(ts, identity, path)
}

// remove takes key out of the final state. Dependents not queued for
// uninstall block the removal unless force or removeDependencies is set,
// in which case they are removed first.
func (res *resolution) remove(ts *targetState, key string, visiting mapset.Set[string]) error {
	cur, ok := ts.final[key]
	if !ok || !visiting.Add(key) {
		return nil
	}
	defer visiting.Remove(key)

	var blocking []core.PackageIdentity
	for _, d := range ts.dependents(key) {
		if !ts.pending.Contains(core.IDKey(d.ID)) {
			blocking = append(blocking, d)
		}
	}
	if len(blocking) > 0 {
		if !res.r.forceRemove && !res.r.removeDependencies {
			return &DependencyConflictError{Package: cur.identity, Target: ts.name(), Dependents: blocking}
		}
		for _, d := range blocking {
			if err := res.remove(ts, core.IDKey(d.ID), visiting); err != nil {
				return err
			}
		}
		if _, ok := ts.final[key]; !ok {
			return nil
		}
	}

	delete(ts.final, key)
	ts.touch(key, &res.seq)
	res.r.logger.Debug("Removing {PackageId} {Version} from {Target}", cur.identity.ID, cur.identity.Version.String(), ts.name())

	if res.r.removeDependencies {
		keys := make([]string, 0, len(cur.deps))
		for _, d := range cur.deps {
			keys = append(keys, core.IDKey(d.ID))
		}
		res.prune(ts, keys)
	}
	return nil
}

// prune removes the given packages and, transitively, their dependencies
// while nothing in the final state depends on them. Packages requested in
// this batch are kept.
func (res *resolution) prune(ts *targetState, keys []string) {
	work := append([]string{}, keys...)
	for len(work) > 0 {
		key := work[0]
		work = work[1:]

		cur, ok := ts.final[key]
		if !ok || len(ts.dependents(key)) > 0 {
			continue
		}
		if _, requested := ts.pinned[key]; requested {
			continue
		}
		delete(ts.final, key)
		ts.touch(key, &res.seq)
		res.r.logger.Debug("Removing orphaned {PackageId} {Version} from {Target}", cur.identity.ID, cur.identity.Version.String(), ts.name())
		for _, d := range cur.deps {
			work = append(work, core.IDKey(d.ID))
		}
	}
}

// find resolves id at exactly ver to the identity the source reports, which
// carries the canonical id casing.
func (res *resolution) find(id string, ver *version.SemanticVersion, requiredBy string) (core.PackageIdentity, error) {
	spec := version.ExactSpec(ver)
	identity, err := res.r.source.FindPackage(res.ctx, id, spec)
	if errors.Is(err, core.ErrPackageNotFound) || (err == nil && identity == nil) {
		return core.PackageIdentity{}, &PackageNotFoundError{ID: id, Spec: spec, RequiredBy: requiredBy}
	}
	if err != nil {
		return core.PackageIdentity{}, err
	}
	return *identity, nil
}

func (res *resolution) availableVersions(id string) ([]*version.SemanticVersion, error) {
	key := core.IDKey(id)
	if vs, ok := res.versions[key]; ok {
		return vs, nil
	}
	vs, err := res.r.source.GetAvailableVersions(res.ctx, id)
	if errors.Is(err, core.ErrPackageNotFound) || (err == nil && len(vs) == 0) {
		return nil, &PackageNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	res.versions[key] = vs
	return vs, nil
}

func (res *resolution) dependencies(ts *targetState, identity core.PackageIdentity) ([]core.PackageDependency, error) {
	return res.r.source.GetDependencies(res.ctx, identity, ts.fw)
}

func filter(versions []*version.SemanticVersion, spec *version.VersionSpec) []*version.SemanticVersion {
	var out []*version.SemanticVersion
	for _, v := range versions {
		if spec.IsSatisfiedBy(v) {
			out = append(out, v)
		}
	}
	return out
}
