package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/nugetplan/cmd/nugetplan/output"
	"github.com/willibrandon/nugetplan/core/executor"
	"github.com/willibrandon/nugetplan/scripts"
)

type applyOptions struct {
	planOptions
	scriptHost    string
	scriptTimeout time.Duration
}

// NewApplyCommand creates the apply command
func NewApplyCommand(console *output.Console) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <install|update|uninstall> <id[@version]>...",
		Short: "Resolve package operations and apply the resulting actions",
		Long: `Resolve package operations like plan does, then apply each action in order to
the project files, packages.config files and content files of the solution.

Each action is applied completely or not at all. When an action fails, the
actions before it stay applied and the command reports which ones those are.

Install and uninstall scripts shipped by packages run in a separate host
process named by --script-host or the scriptHost config key. Without a host
the scripts are skipped with a warning.

Examples:
  nugetplan apply install Newtonsoft.Json@6.0.4 --project Web
  nugetplan apply update jQuery --script-host "nugetplan-scripthost"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd, console, opts, args)
		},
	}

	addPlanFlags(cmd, &opts.planOptions)
	cmd.Flags().StringVar(&opts.scriptHost, "script-host", "", "Command line of the install script host")
	cmd.Flags().DurationVar(&opts.scriptTimeout, "script-timeout", scripts.DefaultTimeout, "Time limit for one install or uninstall script")
	return cmd
}

func runApply(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *applyOptions, args []string) error {
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

	target, _, actions, err := resolvePlan(ctx, s, &opts.planOptions, args)
	if err != nil {
		if target != nil && opts.json {
			_ = output.WriteJSON(console.Out(), output.ApplyOutput{
				SchemaVersion: output.SchemaVersion,
				Planned:       []output.ActionItem{},
				Applied:       []output.ActionItem{},
				Error:         err.Error(),
				ElapsedMs:     output.MeasureElapsed(start),
			})
		}
		return err
	}

	if len(actions) == 0 {
		if opts.json {
			return output.WriteJSON(console.Out(), output.ApplyOutput{
				SchemaVersion: output.SchemaVersion,
				Planned:       []output.ActionItem{},
				Applied:       []output.ActionItem{},
				ElapsedMs:     output.MeasureElapsed(start),
			})
		}
		console.Info("Nothing to do for %s.", target.Name())
		return nil
	}

	execOpts := []executor.Option{executor.WithLogger(s.logger)}
	if runner := s.scriptRunner(opts); runner != nil {
		execOpts = append(execOpts, executor.WithScriptRunner(runner))
	} else {
		console.Detail("No script host configured; package scripts will be skipped")
	}

	result, err := executor.NewActionExecutor(s.source, execOpts...).Execute(ctx, actions)

	if opts.json {
		out := output.ApplyOutput{
			SchemaVersion: output.SchemaVersion,
			BatchID:       result.BatchID.String(),
			Planned:       actionItems(actions),
			Applied:       actionItems(result.Applied),
			ElapsedMs:     output.MeasureElapsed(start),
		}
		if err != nil {
			out.Error = err.Error()
		}
		if werr := output.WriteJSON(console.Out(), out); werr != nil {
			return werr
		}
		return err
	}

	for _, a := range result.Applied {
		console.Success("%s", a)
	}
	if err != nil {
		var aerr *executor.ActionApplicationError
		if errors.As(err, &aerr) {
			console.Warning("%d of %d actions were applied before the failure", len(aerr.Applied), len(actions))
		}
		return err
	}
	console.Info("Applied %d actions (batch %s).", len(result.Applied), result.BatchID)
	return nil
}

// scriptRunner returns the host process runner from --script-host or the
// configuration, or nil when neither names one.
func (s *session) scriptRunner(opts *applyOptions) scripts.Runner {
	host := s.settings.ScriptHost
	if opts.scriptHost != "" {
		host = strings.Fields(opts.scriptHost)
	}
	if len(host) == 0 {
		return nil
	}
	return &scripts.ProcessRunner{
		Command: host[0],
		Args:    host[1:],
		Timeout: opts.scriptTimeout,
	}
}
