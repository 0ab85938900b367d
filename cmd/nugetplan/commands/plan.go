package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/nugetplan/cmd/nugetplan/output"
	"github.com/willibrandon/nugetplan/core/resolver"
	"github.com/willibrandon/nugetplan/solution"
	"github.com/willibrandon/nugetplan/version"
)

// planOptions are the resolver flags shared by plan and apply.
type planOptions struct {
	solution           string
	project            string
	sources            []string
	dependencyVersion  string
	prerelease         bool
	ignoreDependencies bool
	force              bool
	removeDependencies bool
	removeOrphans      bool
	json               bool
}

func addPlanFlags(cmd *cobra.Command, opts *planOptions) {
	cmd.Flags().StringVar(&opts.solution, "solution", "", "Solution file or directory (default: the .sln in the current directory)")
	cmd.Flags().StringVarP(&opts.project, "project", "p", "", "Project to operate on (default: the whole solution)")
	cmd.Flags().StringArrayVarP(&opts.sources, "source", "s", nil, "Additional feed file to search after the configured sources")
	cmd.Flags().StringVar(&opts.dependencyVersion, "dependency-version", "", "Dependency version policy: Lowest, HighestPatch, HighestMinor or Highest")
	cmd.Flags().BoolVar(&opts.prerelease, "prerelease", false, "Allow pre-release versions")
	cmd.Flags().BoolVar(&opts.ignoreDependencies, "ignore-dependencies", false, "Do not plan dependencies of the requested packages")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Uninstall packages that depend on an uninstalled package")
	cmd.Flags().BoolVar(&opts.removeDependencies, "remove-dependencies", false, "Also uninstall dependencies nothing else needs")
	cmd.Flags().BoolVar(&opts.removeOrphans, "remove-orphans", false, "Uninstall dependencies of replaced versions that nothing needs")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Write JSON to stdout")
}

// NewPlanCommand creates the plan command
func NewPlanCommand(console *output.Console) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan <install|update|uninstall> <id[@version]>...",
		Short: "Show the actions a package operation needs",
		Long: `Resolve package operations against the configured sources and print the
ordered list of install, update and uninstall actions, without changing anything.

Examples:
  nugetplan plan install Newtonsoft.Json@6.0.4 --project Web
  nugetplan plan update jQuery --solution Shop.sln
  nugetplan plan uninstall Microsoft.AspNet.Mvc --project Web --remove-dependencies
  nugetplan plan install A --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd, console, opts, args)
		},
	}

	addPlanFlags(cmd, opts)
	return cmd
}

func runPlan(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *planOptions, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	s, err := openSession(ctx, cmd, console, opts.solution, opts.sources)
	if err != nil {
		return err
	}
	defer s.Close(ctx)
	ctx = s.withCache(ctx)

	target, ops, actions, err := resolvePlan(ctx, s, opts, args)
	if target == nil {
		return err
	}

	if opts.json {
		out := output.PlanOutput{
			SchemaVersion: output.SchemaVersion,
			Target:        target.Name(),
			Operations:    ops,
			Actions:       actionItems(actions),
			Errors:        errorStrings(err),
			ElapsedMs:     output.MeasureElapsed(start),
		}
		if werr := output.WriteJSON(console.Out(), out); werr != nil {
			return werr
		}
		return err
	}

	if err != nil {
		return err
	}
	printPlan(console, target, actions)
	return nil
}

// resolvePlan queues one operation per package argument on the selected
// target and resolves them. The target is nil when the arguments or the
// session are invalid.
func resolvePlan(ctx context.Context, s *session, opts *planOptions, args []string) (solution.InstallationTarget, []string, []*resolver.PackageAction, error) {
	actionType, err := resolver.ParseActionType(args[0])
	if err != nil {
		return nil, nil, nil, err
	}
	target, err := s.target(opts.project)
	if err != nil {
		return nil, nil, nil, err
	}

	policy := s.settings.DependencyVersion
	if opts.dependencyVersion != "" {
		if policy, err = version.ParseDependencyVersion(opts.dependencyVersion); err != nil {
			return nil, nil, nil, err
		}
	}

	r := resolver.NewActionResolver(s.source,
		resolver.WithLogger(s.logger),
		resolver.WithDependencyVersion(policy),
		resolver.WithAllowPrerelease(opts.prerelease || s.settings.AllowPrerelease),
		resolver.WithIgnoreDependencies(opts.ignoreDependencies),
		resolver.WithForceRemove(opts.force),
		resolver.WithRemoveDependencies(opts.removeDependencies),
		resolver.WithRemoveOrphans(opts.removeOrphans || s.settings.RemoveOrphans),
	)
	for _, arg := range args[1:] {
		id, ver, err := parsePackageArg(arg)
		if err != nil {
			return nil, nil, nil, err
		}
		r.AddOperation(actionType, id, ver, target)
	}

	ops := make([]string, 0, len(args)-1)
	for _, op := range r.Operations() {
		ops = append(ops, op.String())
		s.console.Detail("Queued %s", op)
	}

	actions, err := r.ResolveActions(ctx)
	return target, ops, actions, err
}

// parsePackageArg splits "id@version". The version is optional.
func parsePackageArg(arg string) (string, *version.SemanticVersion, error) {
	id, ver, found := strings.Cut(arg, "@")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", nil, fmt.Errorf("invalid package %q: missing id", arg)
	}
	if !found {
		return id, nil, nil
	}
	v, err := version.Parse(strings.TrimSpace(ver))
	if err != nil {
		return "", nil, fmt.Errorf("invalid package %q: %w", arg, err)
	}
	return id, v, nil
}

func printPlan(console *output.Console, target solution.InstallationTarget, actions []*resolver.PackageAction) {
	if len(actions) == 0 {
		console.Info("Nothing to do for %s.", target.Name())
		return
	}
	console.Header("Plan for %s (%d actions):", target.Name(), len(actions))
	for i, a := range actions {
		console.Printf("  %d. %s\n", i+1, a)
	}
}

func actionItems(actions []*resolver.PackageAction) []output.ActionItem {
	items := make([]output.ActionItem, 0, len(actions))
	for _, a := range actions {
		item := output.ActionItem{
			Type:    strings.ToLower(a.Type.String()),
			ID:      a.Package.ID,
			Version: a.Package.Version.String(),
			Target:  a.Target.Name(),
		}
		if a.Replaced != nil {
			item.Replaced = a.Replaced.Version.String()
		}
		items = append(items, item)
	}
	return items
}

// errorStrings flattens a joined error into its messages.
func errorStrings(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
