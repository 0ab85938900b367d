package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/core/resolver"
	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/scripts"
	"github.com/willibrandon/nugetplan/solution"
	"github.com/willibrandon/nugetplan/version"
)

func identity(id, ver string) core.PackageIdentity {
	return core.NewPackageIdentity(id, version.MustParse(ver))
}

type fixture struct {
	source *core.MemorySource
	shop   *solution.Solution
	web    *solution.Project
	system *solution.MemoryProjectSystem
	repo   *core.MemoryRepository
}

func newFixture(t *testing.T, installed ...core.PackageIdentity) *fixture {
	t.Helper()

	src := core.NewMemorySource("test")
	src.AddPackage(&core.Package{
		Identity: identity("A", "1.0"),
		Content: core.PackageContent{
			References: []core.AssemblyReference{
				{Path: "lib/net20/A.dll", TargetFramework: frameworks.MustParseFramework("net20")},
				{Path: "lib/net40/A.dll", TargetFramework: frameworks.MustParseFramework("net40")},
			},
			Files:           []core.ContentFile{{Path: "Content/a.txt", Content: []byte("a")}},
			InstallScript:   "tools/install.ps1",
			UninstallScript: "tools/uninstall.ps1",
		},
	})
	src.AddPackage(&core.Package{
		Identity: identity("A", "2.0"),
		Content: core.PackageContent{
			References: []core.AssemblyReference{{Path: "lib/net40/A.dll", TargetFramework: frameworks.MustParseFramework("net40")}},
		},
	})
	src.AddPackage(&core.Package{
		Identity: identity("B", "1.0"),
		Content: core.PackageContent{
			References: []core.AssemblyReference{{Path: "lib/B.dll"}},
		},
	})

	system := solution.NewMemoryProjectSystem(frameworks.MustParseFramework("net45"))
	repo := core.NewMemoryRepository(installed...)
	web := solution.NewProject("Web", "/src/Web", system, repo)
	shop := solution.NewSolution("Shop", "/src/packages", core.NewMemoryRepository())
	require.NoError(t, shop.AddProject(web))

	return &fixture{source: src, shop: shop, web: web, system: system, repo: repo}
}

func install(id, ver string, target solution.InstallationTarget) *resolver.PackageAction {
	return &resolver.PackageAction{Type: resolver.Install, Package: identity(id, ver), Target: target}
}

func uninstall(id, ver string, target solution.InstallationTarget) *resolver.PackageAction {
	return &resolver.PackageAction{Type: resolver.Uninstall, Package: identity(id, ver), Target: target}
}

// recorder is a script runner that records requests and fails for fail.
type recorder struct {
	requests []scripts.Request
	fail     string
}

func (r *recorder) Run(_ context.Context, req scripts.Request) error {
	r.requests = append(r.requests, req)
	if req.Package == r.fail {
		return errors.New("script failed")
	}
	return nil
}

func TestExecute_InstallIntoProject(t *testing.T) {
	f := newFixture(t)
	runner := &recorder{}
	exec := NewActionExecutor(f.source, WithScriptRunner(runner))

	before, err := observability.GetCounterValue(observability.ActionsAppliedTotal, "install", "success")
	require.NoError(t, err)

	actions := []*resolver.PackageAction{install("B", "1.0", f.web), install("A", "1.0", f.web)}
	result, err := exec.Execute(context.Background(), actions)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.BatchID)
	assert.Equal(t, actions, result.Applied)

	assert.Equal(t, []string{"A", "B"}, f.system.References())
	hint, ok := f.system.ReferencePath("A")
	require.True(t, ok)
	assert.Equal(t, "../packages/A.1.0/lib/net40/A.dll", hint)
	hint, _ = f.system.ReferencePath("B")
	assert.Equal(t, "../packages/B.1.0/lib/B.dll", hint)

	content, ok := f.system.ReadFile("Content/a.txt")
	require.True(t, ok)
	assert.Equal(t, "a", string(content))

	assert.True(t, f.repo.IsInstalled(identity("A", "1.0")))
	assert.True(t, f.repo.IsInstalled(identity("B", "1.0")))

	want := []scripts.Request{{
		Action:      scripts.ActionInstall,
		Package:     "A",
		Version:     "1.0",
		Project:     "Web",
		ProjectDir:  "/src/Web",
		ScriptPath:  "tools/install.ps1",
		InstallPath: "../packages/A.1.0",
	}}
	if diff := cmp.Diff(want, runner.requests); diff != "" {
		t.Errorf("script requests mismatch (-want +got):\n%s", diff)
	}

	after, err := observability.GetCounterValue(observability.ActionsAppliedTotal, "install", "success")
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}

func TestExecute_UninstallFromProject(t *testing.T) {
	f := newFixture(t)
	runner := &recorder{}
	exec := NewActionExecutor(f.source, WithScriptRunner(runner))

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{install("A", "1.0", f.web)})
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), []*resolver.PackageAction{uninstall("A", "1.0", f.web)})
	require.NoError(t, err)

	assert.Empty(t, f.system.References())
	assert.Empty(t, f.system.Files())
	assert.False(t, f.repo.IsInstalled(identity("A", "1.0")))
	require.Len(t, runner.requests, 2)
	assert.Equal(t, scripts.ActionUninstall, runner.requests[1].Action)
	assert.Equal(t, "tools/uninstall.ps1", runner.requests[1].ScriptPath)
}

func TestExecute_UninstallKeepsModifiedFiles(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source)

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{install("A", "1.0", f.web)})
	require.NoError(t, err)
	require.NoError(t, f.system.AddFile("Content/a.txt", []byte("edited")))

	_, err = exec.Execute(context.Background(), []*resolver.PackageAction{uninstall("A", "1.0", f.web)})
	require.NoError(t, err)

	assert.Equal(t, []string{"Content/a.txt"}, f.system.Files())
	assert.Empty(t, f.system.References())
}

func TestExecute_HaltsAndReportsAppliedPrefix(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source)

	actions := []*resolver.PackageAction{
		install("B", "1.0", f.web),
		install("Missing", "1.0", f.web),
		install("A", "1.0", f.web),
	}
	result, err := exec.Execute(context.Background(), actions)
	require.Error(t, err)
	require.ErrorIs(t, err, core.ErrPackageNotFound)

	var aerr *ActionApplicationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Index)
	assert.Same(t, actions[1], aerr.Action)
	assert.Equal(t, actions[:1], aerr.Applied)
	assert.Equal(t, actions[:1], result.Applied)
	assert.Contains(t, err.Error(), "failed to apply action 2 (Install Missing 1.0 (Web))")

	assert.True(t, f.repo.IsInstalled(identity("B", "1.0")))
	assert.False(t, f.repo.IsInstalled(identity("A", "1.0")))
}

func TestExecute_FailedActionIsCompensated(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source, WithScriptRunner(&recorder{fail: "A"}))

	actions := []*resolver.PackageAction{install("B", "1.0", f.web), install("A", "1.0", f.web)}
	result, err := exec.Execute(context.Background(), actions)

	var aerr *ActionApplicationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Index)
	assert.Len(t, result.Applied, 1)

	assert.Equal(t, []string{"B"}, f.system.References())
	assert.Empty(t, f.system.Files())
	assert.False(t, f.repo.IsInstalled(identity("A", "1.0")))
	assert.True(t, f.repo.IsInstalled(identity("B", "1.0")))
}

func TestExecute_Update(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source)

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{install("A", "1.0", f.web)})
	require.NoError(t, err)

	replaced := identity("A", "1.0")
	update := &resolver.PackageAction{Type: resolver.Update, Package: identity("A", "2.0"), Target: f.web, Replaced: &replaced}
	_, err = exec.Execute(context.Background(), []*resolver.PackageAction{update})
	require.NoError(t, err)

	hint, ok := f.system.ReferencePath("A")
	require.True(t, ok)
	assert.Equal(t, "../packages/A.2.0/lib/net40/A.dll", hint)
	assert.Empty(t, f.system.Files())
	assert.Equal(t, []core.PackageIdentity{identity("A", "2.0")}, f.repo.GetInstalledPackages())
}

func TestExecute_SolutionTargetTouchesRepositoryOnly(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source)

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{install("B", "1.0", f.shop)})
	require.NoError(t, err)

	assert.True(t, f.shop.Repository().IsInstalled(identity("B", "1.0")))
	assert.Empty(t, f.system.References())
	assert.False(t, f.repo.IsInstalled(identity("B", "1.0")))
}

func TestExecute_UninstallWithoutContent(t *testing.T) {
	f := newFixture(t, identity("Gone", "1.0"))
	exec := NewActionExecutor(f.source)

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{uninstall("Gone", "1.0", f.web)})
	require.NoError(t, err)
	assert.Empty(t, f.repo.GetInstalledPackages())
}

func TestExecute_RejectsInconsistentActions(t *testing.T) {
	f := newFixture(t, identity("B", "1.0"))
	exec := NewActionExecutor(f.source)

	_, err := exec.Execute(context.Background(), []*resolver.PackageAction{install("B", "1.0", f.web)})
	assert.ErrorContains(t, err, "already installed")

	_, err = exec.Execute(context.Background(), []*resolver.PackageAction{uninstall("A", "1.0", f.web)})
	assert.ErrorContains(t, err, "not installed")
}

func TestExecute_Cancelled(t *testing.T) {
	f := newFixture(t)
	exec := NewActionExecutor(f.source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := exec.Execute(ctx, []*resolver.PackageAction{install("B", "1.0", f.web)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Applied)
	assert.False(t, f.repo.IsInstalled(identity("B", "1.0")))
}
