package solution

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/willibrandon/nugetplan/frameworks"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// xmlNode is an order-preserving MSBuild element.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*xmlNode `xml:",any"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func (n *xmlNode) children(name string) []*xmlNode {
	var out []*xmlNode
	for _, c := range n.Children {
		if c.XMLName.Local == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *xmlNode) remove(match func(*xmlNode) bool) int {
	kept := n.Children[:0]
	removed := 0
	for _, c := range n.Children {
		if match(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
	return removed
}

// strip drops inter-element whitespace and namespaces so MarshalIndent can
// lay the document out again. The root's default namespace is written back
// as a plain xmlns attribute; children carry none and stay in it.
func (n *xmlNode) strip(root bool) {
	if len(n.Children) > 0 && strings.TrimSpace(n.Text) == "" {
		n.Text = ""
	}
	ns := n.XMLName.Space
	n.XMLName.Space = ""
	declared := false
	attrs := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			if !root || declared {
				continue
			}
			declared = true
		}
		attrs = append(attrs, a)
	}
	n.Attrs = attrs
	if root && ns != "" && !declared {
		n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: ns})
	}
	for _, c := range n.Children {
		c.strip(false)
	}
}

// MSBuildProjectSystem edits a .csproj/.vbproj/.fsproj file in place. Every
// mutation is saved immediately; content files live under the project
// directory.
type MSBuildProjectSystem struct {
	path string
	dir  string

	mu        sync.Mutex
	root      *xmlNode
	framework *frameworks.NuGetFramework
}

// LoadMSBuildProject parses the project file at path.
func LoadMSBuildProject(path string) (*MSBuildProjectSystem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var root xmlNode
	if err := xml.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &root); err != nil {
		return nil, fmt.Errorf("failed to parse project XML %s: %w", path, err)
	}
	if root.XMLName.Local != "Project" {
		return nil, fmt.Errorf("%s: root element is <%s>, want <Project>", path, root.XMLName.Local)
	}
	root.strip(true)

	ps := &MSBuildProjectSystem{path: path, dir: filepath.Dir(path), root: &root}
	fw, err := ps.readFramework()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ps.framework = fw
	return ps, nil
}

// readFramework takes TargetFramework (SDK style), the first entry of
// TargetFrameworks, or TargetFrameworkVersion/Profile (classic).
func (ps *MSBuildProjectSystem) readFramework() (*frameworks.NuGetFramework, error) {
	var tfm, tfms, fwVersion, profile string
	for _, pg := range ps.root.children("PropertyGroup") {
		for _, p := range pg.Children {
			value := strings.TrimSpace(p.Text)
			switch p.XMLName.Local {
			case "TargetFramework":
				tfm = value
			case "TargetFrameworks":
				tfms = value
			case "TargetFrameworkVersion":
				fwVersion = value
			case "TargetFrameworkProfile":
				profile = value
			}
		}
	}

	switch {
	case tfm != "":
		return frameworks.ParseFramework(tfm)
	case tfms != "":
		first, _, _ := strings.Cut(tfms, ";")
		return frameworks.ParseFramework(first)
	case fwVersion != "":
		long := ".NETFramework,Version=" + fwVersion
		if profile != "" {
			long += ",Profile=" + profile
		}
		return frameworks.ParseFramework(long)
	default:
		return nil, errors.New("project declares no target framework")
	}
}

// Path returns the project file location.
func (ps *MSBuildProjectSystem) Path() string { return ps.path }

// TargetFramework implements ProjectSystem.
func (ps *MSBuildProjectSystem) TargetFramework() *frameworks.NuGetFramework {
	return ps.framework
}

func sameReference(n *xmlNode, name string) bool {
	if n.XMLName.Local != "Reference" {
		return false
	}
	include, _, _ := strings.Cut(n.attr("Include"), ",")
	return strings.EqualFold(strings.TrimSpace(include), name)
}

// AddReference implements ProjectSystem. The reference is written as
// <Reference Include="Name"><HintPath>path</HintPath></Reference>.
func (ps *MSBuildProjectSystem) AddReference(path string) error {
	name := ReferenceName(path)
	if name == "" || name == "." {
		return fmt.Errorf("invalid reference path %q", path)
	}
	hint := strings.ReplaceAll(path, "/", `\`)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, ig := range ps.root.children("ItemGroup") {
		for _, item := range ig.Children {
			if sameReference(item, name) {
				for _, h := range item.children("HintPath") {
					h.Text = hint
				}
				if len(item.children("HintPath")) == 0 {
					item.Children = append(item.Children, &xmlNode{XMLName: xml.Name{Local: "HintPath"}, Text: hint})
				}
				return ps.save()
			}
		}
	}

	ref := &xmlNode{
		XMLName:  xml.Name{Local: "Reference"},
		Attrs:    []xml.Attr{{Name: xml.Name{Local: "Include"}, Value: name}},
		Children: []*xmlNode{{XMLName: xml.Name{Local: "HintPath"}, Text: hint}},
	}
	group := ps.itemGroupFor("Reference")
	group.Children = append(group.Children, ref)
	return ps.save()
}

// RemoveReference implements ProjectSystem.
func (ps *MSBuildProjectSystem) RemoveReference(name string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	removed := 0
	for _, ig := range ps.root.children("ItemGroup") {
		removed += ig.remove(func(n *xmlNode) bool { return sameReference(n, name) })
	}
	if removed == 0 {
		return fmt.Errorf("reference %s: %w", name, fs.ErrNotExist)
	}
	return ps.save()
}

// ReferenceExists implements ProjectSystem.
func (ps *MSBuildProjectSystem) ReferenceExists(name string) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for _, ig := range ps.root.children("ItemGroup") {
		for _, item := range ig.Children {
			if sameReference(item, name) {
				return true
			}
		}
	}
	return false
}

func itemKind(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".cs") {
		return "Compile"
	}
	return "Content"
}

func sameItem(n *xmlNode, include string) bool {
	return (n.XMLName.Local == "Compile" || n.XMLName.Local == "Content") &&
		strings.EqualFold(n.attr("Include"), include)
}

// AddFile implements ProjectSystem. The file is written under the project
// directory and included as a Compile (.cs) or Content item.
func (ps *MSBuildProjectSystem) AddFile(path string, content []byte) error {
	clean, err := cleanFilePath(path)
	if err != nil {
		return err
	}
	full := filepath.Join(ps.dir, filepath.FromSlash(clean))
	include := strings.ReplaceAll(clean, "/", `\`)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("add file %s: %w", clean, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("add file %s: %w", clean, err)
	}

	for _, ig := range ps.root.children("ItemGroup") {
		for _, item := range ig.Children {
			if sameItem(item, include) {
				return nil
			}
		}
	}
	kind := itemKind(clean)
	group := ps.itemGroupFor(kind)
	group.Children = append(group.Children, &xmlNode{
		XMLName: xml.Name{Local: kind},
		Attrs:   []xml.Attr{{Name: xml.Name{Local: "Include"}, Value: include}},
	})
	return ps.save()
}

// DeleteFile implements ProjectSystem.
func (ps *MSBuildProjectSystem) DeleteFile(path string) error {
	clean, err := cleanFilePath(path)
	if err != nil {
		return err
	}
	include := strings.ReplaceAll(clean, "/", `\`)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := os.Remove(filepath.Join(ps.dir, filepath.FromSlash(clean))); err != nil {
		return fmt.Errorf("delete file %s: %w", clean, err)
	}
	removed := 0
	for _, ig := range ps.root.children("ItemGroup") {
		removed += ig.remove(func(n *xmlNode) bool { return sameItem(n, include) })
	}
	if removed == 0 {
		return nil
	}
	return ps.save()
}

// FileExists implements ProjectSystem.
func (ps *MSBuildProjectSystem) FileExists(path string) bool {
	clean, err := cleanFilePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(ps.dir, filepath.FromSlash(clean)))
	return err == nil
}

// ReadFile returns the content of the file at path under the project directory.
func (ps *MSBuildProjectSystem) ReadFile(path string) ([]byte, bool) {
	clean, err := cleanFilePath(path)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(ps.dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, false
	}
	return data, true
}

// must hold lock
func (ps *MSBuildProjectSystem) itemGroupFor(kind string) *xmlNode {
	var firstPlain *xmlNode
	for _, ig := range ps.root.children("ItemGroup") {
		if ig.attr("Condition") != "" {
			continue
		}
		if len(ig.children(kind)) > 0 {
			return ig
		}
		if firstPlain == nil && len(ig.Children) == 0 {
			firstPlain = ig
		}
	}
	if firstPlain != nil {
		return firstPlain
	}
	ig := &xmlNode{XMLName: xml.Name{Local: "ItemGroup"}}
	ps.root.Children = append(ps.root.Children, ig)
	return ig
}

// save writes the project with a UTF-8 BOM, which Visual Studio expects.
// must hold lock
func (ps *MSBuildProjectSystem) save() error {
	output, err := xml.MarshalIndent(ps.root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	buf.Write(output)
	buf.WriteByte('\n')

	if err := os.WriteFile(ps.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}
