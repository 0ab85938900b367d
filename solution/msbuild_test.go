package solution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const classicProject = `<?xml version="1.0" encoding="utf-8"?>
<Project ToolsVersion="12.0" DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">
  <Import Project="$(MSBuildExtensionsPath)\$(MSBuildToolsVersion)\Microsoft.Common.props" />
  <PropertyGroup>
    <OutputType>Library</OutputType>
    <TargetFrameworkVersion>v4.5</TargetFrameworkVersion>
  </PropertyGroup>
  <ItemGroup>
    <Reference Include="System" />
    <Reference Include="Newtonsoft.Json, Version=6.0.0.0, Culture=neutral, PublicKeyToken=30ad4fe6b2a6aeed">
      <HintPath>..\packages\Newtonsoft.Json.6.0.4\lib\net45\Newtonsoft.Json.dll</HintPath>
    </Reference>
  </ItemGroup>
  <ItemGroup>
    <Compile Include="Class1.cs" />
  </ItemGroup>
  <Import Project="$(MSBuildToolsPath)\Microsoft.CSharp.targets" />
</Project>`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Web.csproj")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMSBuildProject_Frameworks(t *testing.T) {
	tests := []struct {
		name     string
		property string
		want     string
	}{
		{"classic", "<TargetFrameworkVersion>v4.5.1</TargetFrameworkVersion>", "net451"},
		{"client profile", "<TargetFrameworkVersion>v4.0</TargetFrameworkVersion><TargetFrameworkProfile>Client</TargetFrameworkProfile>", "net40-client"},
		{"sdk style", "<TargetFramework>net8.0</TargetFramework>", "net8.0"},
		{"multi targeting", "<TargetFrameworks>net48;net6.0</TargetFrameworks>", "net48"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProject(t, "<Project><PropertyGroup>"+tt.property+"</PropertyGroup></Project>")
			ps, err := LoadMSBuildProject(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ps.TargetFramework().ShortFolderName())
		})
	}
}

func TestLoadMSBuildProject_Errors(t *testing.T) {
	_, err := LoadMSBuildProject(writeProject(t, "<Project><PropertyGroup/></Project>"))
	assert.ErrorContains(t, err, "no target framework")

	_, err = LoadMSBuildProject(writeProject(t, "<Solution/>"))
	assert.ErrorContains(t, err, "want <Project>")

	_, err = LoadMSBuildProject(writeProject(t, "<Project"))
	assert.ErrorContains(t, err, "failed to parse project XML")

	_, err = LoadMSBuildProject(filepath.Join(t.TempDir(), "Missing.csproj"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMSBuildProjectSystem_References(t *testing.T) {
	path := writeProject(t, classicProject)
	ps, err := LoadMSBuildProject(path)
	require.NoError(t, err)

	assert.True(t, ps.ReferenceExists("newtonsoft.json"))
	assert.False(t, ps.ReferenceExists("Antlr3.Runtime"))

	require.NoError(t, ps.AddReference("../packages/Antlr.3.4.1/lib/Antlr3.Runtime.dll"))
	require.NoError(t, ps.RemoveReference("Newtonsoft.Json"))

	reloaded, err := LoadMSBuildProject(path)
	require.NoError(t, err)
	assert.True(t, reloaded.ReferenceExists("Antlr3.Runtime"))
	assert.False(t, reloaded.ReferenceExists("Newtonsoft.Json"))
	assert.True(t, reloaded.ReferenceExists("System"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "\uFEFF<?xml"), "project must start with a BOM")
	assert.Contains(t, text, `<HintPath>..\packages\Antlr.3.4.1\lib\Antlr3.Runtime.dll</HintPath>`)
	assert.Contains(t, text, `xmlns="http://schemas.microsoft.com/developer/msbuild/2003"`)
	assert.Equal(t, 1, strings.Count(text, "xmlns="))
	assert.Less(t, strings.Index(text, "Microsoft.Common.props"), strings.Index(text, "<PropertyGroup>"))

	assert.Error(t, ps.RemoveReference("Newtonsoft.Json"))
}

func TestMSBuildProjectSystem_SaveKeepsNamespace(t *testing.T) {
	path := writeProject(t, classicProject)
	ps, err := LoadMSBuildProject(path)
	require.NoError(t, err)
	require.NoError(t, ps.AddReference("../packages/Antlr.3.4.1/lib/Antlr3.Runtime.dll"))

	// A second load and save must not add declarations either.
	again, err := LoadMSBuildProject(path)
	require.NoError(t, err)
	require.NoError(t, again.AddFile("readme.txt", []byte("hi")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.NotContains(t, text, `xmlns=""`)
	assert.Equal(t, 1, strings.Count(text, "xmlns="))
	assert.Contains(t, text, `<Project ToolsVersion="12.0" DefaultTargets="Build" xmlns="http://schemas.microsoft.com/developer/msbuild/2003">`)

	sdk := writeProject(t, `<Project Sdk="Microsoft.NET.Sdk"><PropertyGroup><TargetFramework>net48</TargetFramework></PropertyGroup></Project>`)
	ps, err = LoadMSBuildProject(sdk)
	require.NoError(t, err)
	require.NoError(t, ps.AddReference("../packages/A.1.0/lib/net45/A.dll"))
	data, err = os.ReadFile(sdk)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "xmlns")
}

func TestMSBuildProjectSystem_AddReferenceRepointsExisting(t *testing.T) {
	path := writeProject(t, classicProject)
	ps, err := LoadMSBuildProject(path)
	require.NoError(t, err)

	require.NoError(t, ps.AddReference("../packages/Newtonsoft.Json.7.0.1/lib/net45/Newtonsoft.Json.dll"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `Newtonsoft.Json.7.0.1`)
	assert.NotContains(t, string(data), `Newtonsoft.Json.6.0.4`)
}

func TestMSBuildProjectSystem_Files(t *testing.T) {
	path := writeProject(t, classicProject)
	ps, err := LoadMSBuildProject(path)
	require.NoError(t, err)

	require.NoError(t, ps.AddFile("App_Start/RouteConfig.cs", []byte("class RouteConfig {}")))
	require.NoError(t, ps.AddFile("Scripts/jquery.js", []byte("//js")))
	assert.True(t, ps.FileExists("App_Start/RouteConfig.cs"))
	content, ok := ps.ReadFile("App_Start/RouteConfig.cs")
	require.True(t, ok)
	assert.Equal(t, "class RouteConfig {}", string(content))

	onDisk, err := os.ReadFile(filepath.Join(filepath.Dir(path), "App_Start", "RouteConfig.cs"))
	require.NoError(t, err)
	assert.Equal(t, "class RouteConfig {}", string(onDisk))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<Compile Include="App_Start\RouteConfig.cs">`)
	assert.Contains(t, string(data), `<Content Include="Scripts\jquery.js">`)

	require.NoError(t, ps.DeleteFile("Scripts/jquery.js"))
	assert.False(t, ps.FileExists("Scripts/jquery.js"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "jquery.js")

	assert.ErrorIs(t, ps.DeleteFile("Scripts/jquery.js"), os.ErrNotExist)
}
