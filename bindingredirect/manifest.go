package bindingredirect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/willibrandon/nugetplan/version"
)

// manifest is the JSON form of an assembly set:
//
//	{"assemblies": [{"name": "Foo", "version": "2.0.0.0", "publicKeyToken": "abc",
//	  "references": [{"name": "Bar", "version": "1.0.0.0", "publicKeyToken": "def"}]}]}
type manifest struct {
	Assemblies []manifestAssembly `json:"assemblies"`
}

type manifestName struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	PublicKeyToken string `json:"publicKeyToken,omitempty"`
	Culture        string `json:"culture,omitempty"`
}

type manifestAssembly struct {
	manifestName
	References []manifestName `json:"references,omitempty"`
}

// LoadManifest reads an assembly set from JSON.
func LoadManifest(r io.Reader) ([]*Assembly, error) {
	var m manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse assembly manifest: %w", err)
	}

	out := make([]*Assembly, 0, len(m.Assemblies))
	for i, ma := range m.Assemblies {
		name, err := ma.manifestName.parse()
		if err != nil {
			return nil, fmt.Errorf("assembly %d: %w", i, err)
		}
		a := &Assembly{
			Name:           name.Name,
			Version:        name.Version,
			PublicKeyToken: name.PublicKeyToken,
			Culture:        name.Culture,
		}
		for _, mr := range ma.References {
			ref, err := mr.parse()
			if err != nil {
				return nil, fmt.Errorf("assembly %s reference: %w", a.Name, err)
			}
			a.References = append(a.References, ref)
		}
		out = append(out, a)
	}
	return out, nil
}

// LoadManifestFile reads an assembly set from a JSON file.
func LoadManifestFile(path string) ([]*Assembly, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadManifest(f)
}

func (n manifestName) parse() (AssemblyName, error) {
	if n.Name == "" {
		return AssemblyName{}, errors.New("assembly name is required")
	}
	v, err := version.Parse(n.Version)
	if err != nil {
		return AssemblyName{}, fmt.Errorf("%s: %w", n.Name, err)
	}
	return AssemblyName{Name: n.Name, Version: v, PublicKeyToken: n.PublicKeyToken, Culture: n.Culture}, nil
}
