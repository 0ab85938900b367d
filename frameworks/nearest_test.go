package frameworks

import "testing"

func parseAll(tfms ...string) []*NuGetFramework {
	out := make([]*NuGetFramework, len(tfms))
	for i, tfm := range tfms {
		out[i] = MustParseFramework(tfm)
	}
	return out
}

func TestGetNearest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		candidates []string
		want       string
	}{
		{"exact", "net45", []string{"net40", "net45", "netstandard1.0"}, "net45"},
		{"highest lower same family", "net472", []string{"net40", "net45", "net48"}, "net45"},
		{"same family beats netstandard", "net461", []string{"netstandard2.0", "net40"}, "net40"},
		{"netstandard fallback", "net472", []string{"netstandard1.0", "netstandard2.0", "netcoreapp3.1"}, "netstandard2.0"},
		{"any fallback", "net45", []string{"any", "netstandard2.0"}, "any"},
		{"platform specific wins", "net8.0-windows", []string{"net8.0", "net6.0-windows"}, "net6.0-windows"},
		{"none compatible", "net40", []string{"net45", "netstandard2.0"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetNearest(MustParseFramework(tt.target), parseAll(tt.candidates...))
			gotName := ""
			if got != nil {
				gotName = got.String()
			}
			if gotName != tt.want {
				t.Errorf("GetNearest(%s) = %q, want %q", tt.target, gotName, tt.want)
			}
		})
	}
}
