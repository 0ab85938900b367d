package solution

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"lib/net45/Newtonsoft.Json.dll", "Newtonsoft.Json"},
		{`..\packages\A.1.0\lib\net45\A.dll`, "A"},
		{"lib/net45/Tool.EXE", "Tool"},
		{"lib/net45/Resources.xml", "Resources.xml"},
		{"packages/Antlr.3.4.1/lib/Antlr3.Runtime.dll", "Antlr3.Runtime"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReferenceName(tt.in), tt.in)
	}
}

func TestMemoryProjectSystem_References(t *testing.T) {
	ps := NewMemoryProjectSystem(nil)

	require.NoError(t, ps.AddReference("packages/A.1.0/lib/net45/A.dll"))
	require.NoError(t, ps.AddReference("packages/B.2.0/lib/B.dll"))
	assert.True(t, ps.ReferenceExists("a"))
	assert.Equal(t, []string{"A", "B"}, ps.References())

	require.NoError(t, ps.RemoveReference("A"))
	assert.False(t, ps.ReferenceExists("A"))
	assert.ErrorIs(t, ps.RemoveReference("A"), fs.ErrNotExist)
}

func TestMemoryProjectSystem_Files(t *testing.T) {
	ps := NewMemoryProjectSystem(nil)

	require.NoError(t, ps.AddFile(`App_Start\Routes.cs`, []byte("routes")))
	assert.True(t, ps.FileExists("app_start/routes.cs"))

	content, ok := ps.ReadFile("App_Start/Routes.cs")
	require.True(t, ok)
	assert.Equal(t, "routes", string(content))
	assert.Equal(t, []string{"App_Start/Routes.cs"}, ps.Files())

	require.NoError(t, ps.DeleteFile("App_Start/Routes.cs"))
	assert.False(t, ps.FileExists("App_Start/Routes.cs"))
	assert.ErrorIs(t, ps.DeleteFile("App_Start/Routes.cs"), fs.ErrNotExist)
}

func TestMemoryProjectSystem_RejectsEscapingPaths(t *testing.T) {
	ps := NewMemoryProjectSystem(nil)

	assert.Error(t, ps.AddFile("../outside.txt", nil))
	assert.Error(t, ps.AddFile("/etc/passwd", nil))
	assert.Error(t, ps.AddFile("", nil))
	assert.False(t, ps.FileExists("../outside.txt"))
}
