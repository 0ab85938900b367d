// Package resolver plans package operations. An ActionResolver takes a queue
// of install, update and uninstall requests against installation targets and
// turns it into an ordered list of PackageActions that leaves every target
// with a dependency-consistent set of packages.
package resolver

import (
	"fmt"
	"strings"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/solution"
	"github.com/willibrandon/nugetplan/version"
)

// ActionType is the kind of a requested operation or planned action.
type ActionType int

const (
	Install ActionType = iota
	Uninstall
	Update
)

func (a ActionType) String() string {
	switch a {
	case Install:
		return "Install"
	case Uninstall:
		return "Uninstall"
	case Update:
		return "Update"
	default:
		return fmt.Sprintf("ActionType(%d)", int(a))
	}
}

// ParseActionType parses install, uninstall or update, ignoring case.
func ParseActionType(s string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "install":
		return Install, nil
	case "uninstall":
		return Uninstall, nil
	case "update":
		return Update, nil
	default:
		return Install, fmt.Errorf("unknown action %q (want install, uninstall or update)", s)
	}
}

// PackageAction is one step of a plan. Replaced is set for Update only and
// names the version being replaced.
type PackageAction struct {
	Type     ActionType
	Package  core.PackageIdentity
	Target   solution.InstallationTarget
	Replaced *core.PackageIdentity
}

func (a *PackageAction) String() string {
	if a.Type == Update && a.Replaced != nil {
		return fmt.Sprintf("%s %s %s -> %s (%s)", a.Type, a.Package.ID, a.Replaced.Version, a.Package.Version, a.Target.Name())
	}
	return fmt.Sprintf("%s %s (%s)", a.Type, a.Package, a.Target.Name())
}

// Operation is a queued request. A nil Version means the best available
// version for Install and Update, and any installed version for Uninstall.
type Operation struct {
	Type    ActionType
	ID      string
	Version *version.SemanticVersion
	Target  solution.InstallationTarget
}

func (o Operation) String() string {
	if o.Version == nil {
		return fmt.Sprintf("%s %s (%s)", o.Type, o.ID, o.Target.Name())
	}
	return fmt.Sprintf("%s %s %s (%s)", o.Type, o.ID, o.Version, o.Target.Name())
}
