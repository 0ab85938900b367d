package solution

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopSln = `
Microsoft Visual Studio Solution File, Format Version 12.00
# Visual Studio 2013
VisualStudioVersion = 12.0.31101.0
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Web", "src\Web\Web.csproj", "{11111111-1111-1111-1111-111111111111}"
EndProject
Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = ".nuget", ".nuget", "{22222222-2222-2222-2222-222222222222}"
	ProjectSection(SolutionItems) = preProject
		.nuget\packages.config = .nuget\packages.config
	EndProjectSection
EndProject
Project("{f184b08f-c81c-45f6-a57f-5abd9991f28f}") = "Data", "src\Data\Data.vbproj", "{33333333-3333-3333-3333-333333333333}"
EndProject
Global
EndGlobal
`

func TestParseSln(t *testing.T) {
	sln, err := parseSln("/work/Shop.sln", strings.NewReader(shopSln))
	require.NoError(t, err)

	assert.Equal(t, "12.00", sln.FormatVersion)
	assert.Equal(t, "Shop", sln.Name())

	want := []SlnProject{
		{Name: "Web", Path: "src/Web/Web.csproj", GUID: "{11111111-1111-1111-1111-111111111111}", TypeGUID: ProjectTypeCSProject},
		{Name: "Data", Path: "src/Data/Data.vbproj", GUID: "{33333333-3333-3333-3333-333333333333}", TypeGUID: ProjectTypeVBProject},
	}
	if diff := cmp.Diff(want, sln.Projects); diff != "" {
		t.Errorf("Projects mismatch (-want +got):\n%s", diff)
	}
	for _, p := range sln.Projects {
		assert.True(t, p.IsNETProject(), p.Name)
	}
}

func TestParseSln_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"missing EndProject", "Microsoft Visual Studio Solution File, Format Version 12.00\n" +
			`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Web", "Web.csproj", "{11111111-1111-1111-1111-111111111111}"`,
			"missing EndProject"},
		{"stray EndProject", "Microsoft Visual Studio Solution File, Format Version 12.00\nEndProject", "EndProject without Project"},
		{"no header", "Global\nEndGlobal", "missing solution file header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSln("bad.sln", strings.NewReader(tt.text))
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, perr.Error(), tt.want)
		})
	}
}

func TestParseSln_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Shop.sln")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFF"+shopSln), 0o644))

	sln, err := ParseSln(path)
	require.NoError(t, err)
	assert.Equal(t, dir, sln.Dir())
	assert.Len(t, sln.Projects, 2)

	_, err = ParseSln(filepath.Join(dir, "Shop.txt"))
	assert.ErrorContains(t, err, "not a .sln file")
}

func TestResolveProjectPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/work", "src", "Web", "Web.csproj"), ResolveProjectPath("/work", `src\Web\\Web.csproj`))
	assert.Equal(t, "", ResolveProjectPath("/work", ""))
	assert.Equal(t, "a/b/c", NormalizePath(`a\\b\c`))
}
