// Package bindingredirect computes the assembly binding redirects a set of
// assemblies needs.
//
// Two strong-named assemblies with the same name and public key token are
// the same logical assembly. When one assembly references another at a
// version other than the one that will actually be loaded, the loaded
// assembly needs a redirect covering the referenced version.
package bindingredirect

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/version"
)

// AssemblyName identifies an assembly as another assembly references it.
type AssemblyName struct {
	Name           string
	Version        *version.SemanticVersion
	PublicKeyToken string
	Culture        string
}

// Assembly is an assembly present on the probing path.
type Assembly struct {
	Name           string
	Version        *version.SemanticVersion
	PublicKeyToken string
	Culture        string
	References     []AssemblyName
}

// AssemblyBinding is a redirect of every version up to Version onto Version.
type AssemblyBinding struct {
	Name           string
	PublicKeyToken string
	Culture        string
	Version        *version.SemanticVersion
}

// OldVersion is the redirected range, e.g. 0.0.0.0-2.0.0.0.
func (b AssemblyBinding) OldVersion() string {
	return "0.0.0.0-" + FormatAssemblyVersion(b.Version)
}

// NewVersion is the four-part version redirected to.
func (b AssemblyBinding) NewVersion() string {
	return FormatAssemblyVersion(b.Version)
}

func (b AssemblyBinding) String() string {
	return fmt.Sprintf("%s (%s) %s -> %s", b.Name, b.PublicKeyToken, b.OldVersion(), b.NewVersion())
}

// FormatAssemblyVersion renders v as major.minor.build.revision.
func FormatAssemblyVersion(v *version.SemanticVersion) string {
	if v == nil {
		return "0.0.0.0"
	}
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Revision)
}

func key(name, token string) string {
	return strings.ToLower(name) + "|" + strings.ToLower(token)
}

// GetBindingRedirects returns a binding for every assembly in assemblies that
// some reference among them names at a different version. Assemblies
// without a public key token are not strong-named and are never redirected.
// When assemblies holds several versions of one logical assembly, the
// highest is the one loaded. The result is sorted by name.
func GetBindingRedirects(assemblies []*Assembly) []AssemblyBinding {
	loaded := make(map[string]*Assembly, len(assemblies))
	for _, a := range assemblies {
		if a == nil || a.PublicKeyToken == "" {
			continue
		}
		k := key(a.Name, a.PublicKeyToken)
		if cur, ok := loaded[k]; !ok || version.Compare(a.Version, cur.Version) > 0 {
			loaded[k] = a
		}
	}

	needed := mapset.NewThreadUnsafeSet[string]()
	for _, a := range assemblies {
		if a == nil {
			continue
		}
		for _, ref := range a.References {
			if ref.PublicKeyToken == "" {
				continue
			}
			k := key(ref.Name, ref.PublicKeyToken)
			target, ok := loaded[k]
			if ok && version.Compare(target.Version, ref.Version) != 0 {
				needed.Add(k)
			}
		}
	}

	out := make([]AssemblyBinding, 0, needed.Cardinality())
	for k := range needed.Iter() {
		a := loaded[k]
		out = append(out, AssemblyBinding{
			Name:           a.Name,
			PublicKeyToken: a.PublicKeyToken,
			Culture:        a.Culture,
			Version:        a.Version,
		})

		culture := a.Culture
		if culture == "" {
			culture = "neutral"
		}
		observability.BindingRedirectsTotal.WithLabelValues(culture).Inc()
	}

	slices.SortFunc(out, func(a, b AssemblyBinding) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.PublicKeyToken), strings.ToLower(b.PublicKeyToken))
	})
	return out
}
