package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/nugetplan/frameworks"
)

func identityStrings(ids []PackageIdentity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository(identity("B", "1.0"), identity("a", "2.0"))

	assert.True(t, repo.IsInstalled(identity("b", "1.0.0")))
	assert.False(t, repo.IsInstalled(identity("B", "2.0")))

	require.NoError(t, repo.AddPackage(identity("A", "1.0")))
	require.NoError(t, repo.AddPackage(identity("A", "1.0")))
	assert.Len(t, repo.GetInstalledPackages(), 3)

	require.NoError(t, repo.RemovePackage(identity("B", "1.0")))
	assert.ErrorIs(t, repo.RemovePackage(identity("B", "1.0")), ErrPackageNotFound)

	assert.Error(t, repo.AddPackage(PackageIdentity{ID: "NoVersion"}))
}

func TestMemoryRepository_VersionKeyFoldsLabels(t *testing.T) {
	repo := NewMemoryRepository(identity("A", "1.0-Beta"))

	assert.True(t, repo.IsInstalled(identity("a", "1.0.0-beta")))
	assert.True(t, repo.IsInstalled(identity("A", "1.0-BETA+build.7")))
	assert.False(t, repo.IsInstalled(identity("A", "1.0-beta2")))
	assert.Equal(t, identity("A", "1.0-beta").Key(), identity("A", "1.0.0.0-BETA").Key())

	require.NoError(t, repo.AddPackage(identity("A", "1.0-beta")))
	assert.Len(t, repo.GetInstalledPackages(), 1)
}

func TestMemoryRepository_InstalledOrder(t *testing.T) {
	repo := NewMemoryRepository(identity("b", "1.0"), identity("A", "2.0"), identity("A", "1.0"))

	want := []string{"A 1.0", "A 2.0", "b 1.0"}
	if diff := cmp.Diff(want, identityStrings(repo.GetInstalledPackages())); diff != "" {
		t.Errorf("GetInstalledPackages() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindInstalled(t *testing.T) {
	repo := NewMemoryRepository(identity("A", "1.0"), identity("A", "1.5"), identity("B", "1.0"))

	got, ok := FindInstalled(repo, "a")
	require.True(t, ok)
	assert.Equal(t, "1.5", got.Version.String())

	_, ok = FindInstalled(repo, "C")
	assert.False(t, ok)
}

func TestPackagesConfigRepository_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Web", PackagesConfigFileName)
	repo, err := OpenPackagesConfig(path, frameworks.MustParseFramework("net45"))
	require.NoError(t, err)
	assert.Empty(t, repo.GetInstalledPackages())

	require.NoError(t, repo.AddPackage(identity("jQuery", "1.4.1")))
	require.NoError(t, repo.AddPackage(identity("Antlr", "3.4.1.9004")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<package id="jQuery" version="1.4.1" targetFramework="net45"></package>`)

	reopened, err := OpenPackagesConfig(path, nil)
	require.NoError(t, err)
	assert.True(t, reopened.IsInstalled(identity("jquery", "1.4.1")))
	assert.Equal(t, []string{"Antlr 3.4.1.9004", "jQuery 1.4.1"}, identityStrings(reopened.GetInstalledPackages()))
}

func TestPackagesConfigRepository_RemoveLastDeletesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PackagesConfigFileName)
	repo, err := OpenPackagesConfig(path, nil)
	require.NoError(t, err)

	require.NoError(t, repo.AddPackage(identity("A", "1.0")))
	require.FileExists(t, path)

	require.NoError(t, repo.RemovePackage(identity("A", "1.0")))
	assert.NoFileExists(t, path)
	assert.ErrorIs(t, repo.RemovePackage(identity("A", "1.0")), ErrPackageNotFound)
}

func TestPackagesConfigRepository_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PackagesConfigFileName)
	doc := `<?xml version="1.0" encoding="utf-8"?>
<packages>
  <package id="EntityFramework" version="6.1.3" targetFramework="net45" />
  <package id="Newtonsoft.Json" version="6.0.4" allowedVersions="[6,7)" />
</packages>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	repo, err := OpenPackagesConfig(path, nil)
	require.NoError(t, err)
	assert.Len(t, repo.GetInstalledPackages(), 2)
	assert.Equal(t, "[6, 7)", repo.AllowedVersions("newtonsoft.json").String())
	assert.Nil(t, repo.AllowedVersions("EntityFramework"))
}

func TestPackagesConfigRepository_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), PackagesConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`<packages><package id="A" version="x.y"/></packages>`), 0o644))

	_, err := OpenPackagesConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package A")
}
