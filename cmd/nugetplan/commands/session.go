// Package commands implements the nugetplan subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/willibrandon/nugetplan/cache"
	"github.com/willibrandon/nugetplan/cmd/nugetplan/cli"
	"github.com/willibrandon/nugetplan/cmd/nugetplan/config"
	"github.com/willibrandon/nugetplan/cmd/nugetplan/output"
	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/resilience"
	"github.com/willibrandon/nugetplan/solution"
)

// sourceCacheEntries bounds each cache of the combined package source.
const sourceCacheEntries = 4096

// session is everything a planning command works against: settings, the
// loaded solution and the combined package source.
type session struct {
	console   *output.Console
	settings  *config.Settings
	logger    observability.Logger
	workspace *solution.Solution
	source    *core.CachedSource
	feeds     []*core.ResilientSource
	cacheCtx  *cache.SourceCacheContext

	closers []func(context.Context) error
}

// flagValue reads a flag of cmd or one inherited from its parents. Missing
// flags read as "".
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// loggerLevel maps console verbosity onto the structured log level.
func loggerLevel(v output.Verbosity) observability.LogLevel {
	switch v {
	case output.VerbosityQuiet:
		return observability.ErrorLevel
	case output.VerbosityDetailed:
		return observability.InfoLevel
	case output.VerbosityDiagnostic:
		return observability.DebugLevel
	default:
		return observability.WarnLevel
	}
}

// findSolution resolves a --solution value: a .sln path, a directory holding
// exactly one, or "" for the current directory.
func findSolution(path string) (string, error) {
	if path == "" {
		return solution.DetectSolution(".")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("solution %s: %w", path, err)
	}
	if info.IsDir() {
		return solution.DetectSolution(path)
	}
	if !solution.IsSolutionFile(path) {
		return "", fmt.Errorf("%s is not a .sln file", path)
	}
	return filepath.Abs(path)
}

// openSession loads settings, the solution and the package sources. extra
// names feed files to search after the configured sources.
func openSession(ctx context.Context, cmd *cobra.Command, console *output.Console, slnPath string, extra []string) (_ *session, err error) {
	verbosity, err := output.ParseVerbosity(flagValue(cmd, cli.FlagVerbosity))
	if err != nil {
		return nil, err
	}
	console.SetVerbosity(verbosity)

	s := &session{
		console:  console,
		cacheCtx: cache.NewSourceCacheContext(),
	}
	s.logger = observability.NewLogger(console.Err(), loggerLevel(verbosity)).ForContext("SessionId", s.cacheCtx.SessionID)
	defer func() {
		if err != nil {
			s.Close(ctx)
		}
	}()

	if err := s.startTelemetry(ctx, cmd); err != nil {
		return nil, err
	}

	slnPath, err = findSolution(slnPath)
	if err != nil {
		return nil, err
	}
	s.settings, err = config.LoadSettings(flagValue(cmd, cli.FlagConfigFile), filepath.Dir(slnPath))
	if err != nil {
		return nil, err
	}
	if s.settings.ConfigFile != "" {
		console.Debug("Using configuration %s", s.settings.ConfigFile)
	}

	var wsOpts []solution.WorkspaceOption
	if s.settings.RepositoryPath != "" {
		wsOpts = append(wsOpts, solution.WithPackagesDir(s.settings.RepositoryPath))
	}
	s.workspace, err = solution.LoadWorkspace(slnPath, s.logger, wsOpts...)
	if err != nil {
		return nil, err
	}
	console.Debug("Loaded solution %s with %d projects", s.workspace.Name(), len(s.workspace.Projects()))

	if s.source, err = s.openSources(extra); err != nil {
		return nil, err
	}
	return s, nil
}

// openSources wraps every feed in a circuit breaker, searches them in order
// and caches the combined lookups.
func (s *session) openSources(extra []string) (*core.CachedSource, error) {
	feeds := make([]config.Source, 0, len(s.settings.Sources)+len(extra))
	feeds = append(feeds, s.settings.Sources...)
	for _, p := range extra {
		feeds = append(feeds, config.Source{Name: filepath.Base(p), Path: p})
	}
	if len(feeds) == 0 {
		return nil, errors.New("no package sources configured; add one to NuGet.config or pass --source")
	}

	sources := make([]core.PackageSource, 0, len(feeds))
	for _, f := range feeds {
		src, err := core.LoadFeedFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("package source %s: %w", f.Name, err)
		}
		s.console.Debug("Source %s: %s", f.Name, f.Path)
		guarded := core.NewResilientSource(src, resilience.DefaultCircuitBreakerConfig())
		s.feeds = append(s.feeds, guarded)
		sources = append(sources, guarded)
	}
	return core.NewCachedSource(core.NewAggregateSource(s.logger, sources...), sourceCacheEntries), nil
}

func (s *session) startTelemetry(ctx context.Context, cmd *cobra.Command) error {
	if exporter := flagValue(cmd, cli.FlagTrace); exporter != "" && exporter != "none" {
		cfg := observability.DefaultTracerConfig()
		cfg.ServiceVersion = cli.GetVersion()
		cfg.ExporterType = exporter
		cfg.OTLPEndpoint = flagValue(cmd, cli.FlagOTLPEndpoint)
		cfg.Writer = s.console.Err()

		tp, err := observability.SetupTracing(ctx, cfg)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tp)
		})
	}

	if path := flagValue(cmd, cli.FlagMetricsFile); path != "" {
		s.closers = append(s.closers, func(context.Context) error {
			return writeMetricsFile(path)
		})
	}
	return nil
}

func writeMetricsFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := observability.WriteMetrics(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// withCache attaches the session's source cache settings to ctx.
func (s *session) withCache(ctx context.Context) context.Context {
	return cache.WithCacheContext(ctx, s.cacheCtx)
}

// target returns the named project, or the solution when name is empty.
func (s *session) target(name string) (solution.InstallationTarget, error) {
	return solution.FindTarget(s.workspace, name)
}

// report prints source cache and circuit breaker statistics at diagnostic
// verbosity.
func (s *session) report() {
	if s.source != nil {
		stats := s.source.Stats()
		s.console.Debug("Source cache: %d entries, %d hits, %d misses", stats.Entries, stats.Hits, stats.Misses)
	}
	for _, f := range s.feeds {
		b := f.Breaker().Stats()
		s.console.Debug("Source %s: circuit %s, %d failures", f.Breaker().Name(), b.State, b.Failures)
	}
}

// Close reports source statistics, then flushes traces and metrics. Failures
// are reported as warnings.
func (s *session) Close(ctx context.Context) {
	s.report()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.console.Warning("%v", err)
		}
	}
	s.closers = nil
}
