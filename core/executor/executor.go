// Package executor applies planned package actions to installation targets.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/core/resolver"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/scripts"
	"github.com/willibrandon/nugetplan/solution"
)

// PackageContentProvider supplies the assemblies, files and scripts of a package.
type PackageContentProvider interface {
	GetContent(ctx context.Context, identity core.PackageIdentity) (*core.PackageContent, error)
}

// Option configures an ActionExecutor.
type Option func(*ActionExecutor)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger observability.Logger) Option {
	return func(e *ActionExecutor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScriptRunner runs package install and uninstall scripts with runner.
// Without one, scripts are skipped with a warning.
func WithScriptRunner(runner scripts.Runner) Option {
	return func(e *ActionExecutor) { e.scripts = runner }
}

// ActionExecutor applies actions in order. It must not be used concurrently
// against the same targets.
type ActionExecutor struct {
	content PackageContentProvider
	logger  observability.Logger
	scripts scripts.Runner
}

// NewActionExecutor creates an executor reading package content from content.
func NewActionExecutor(content PackageContentProvider, opts ...Option) *ActionExecutor {
	e := &ActionExecutor{
		content: content,
		logger:  observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutionResult names the batch and the prefix of actions that were applied.
type ExecutionResult struct {
	BatchID uuid.UUID
	Applied []*resolver.PackageAction
}

// ActionApplicationError reports the action that failed. Actions before
// Index were applied and stay applied; the failed action left no changes
// behind unless its own compensation also failed.
type ActionApplicationError struct {
	Action  *resolver.PackageAction
	Index   int
	Applied []*resolver.PackageAction
	Err     error
}

func (e *ActionApplicationError) Error() string {
	return fmt.Sprintf("failed to apply action %d (%s): %v", e.Index+1, e.Action, e.Err)
}

func (e *ActionApplicationError) Unwrap() error { return e.Err }

// Execute applies actions in order and halts at the first failure. The
// result is returned in both cases.
func (e *ActionExecutor) Execute(ctx context.Context, actions []*resolver.PackageAction) (*ExecutionResult, error) {
	result := &ExecutionResult{BatchID: uuid.New()}
	logger := e.logger.ForContext("BatchId", result.BatchID.String())

	ctx, span := observability.StartExecuteSpan(ctx, result.BatchID.String(), len(actions))

	for i, action := range actions {
		err := ctx.Err()
		if err == nil {
			err = e.apply(ctx, logger, action)
		}
		actionType := strings.ToLower(action.Type.String())
		if err != nil {
			observability.ActionsAppliedTotal.WithLabelValues(actionType, "failure").Inc()
			logger.ErrorContext(ctx, "Failed to apply {Action}: {Error}", action.String(), err.Error())

			aerr := &ActionApplicationError{Action: action, Index: i, Applied: result.Applied, Err: err}
			observability.EndSpanWithError(span, aerr)
			return result, aerr
		}
		observability.ActionsAppliedTotal.WithLabelValues(actionType, "success").Inc()
		result.Applied = append(result.Applied, action)
	}

	logger.InfoContext(ctx, "Applied {ActionCount} actions", len(result.Applied))
	observability.EndSpanWithError(span, nil)
	return result, nil
}

func (e *ActionExecutor) apply(ctx context.Context, logger observability.Logger, action *resolver.PackageAction) (err error) {
	pkg := action.Package
	ctx, span := observability.StartActionSpan(ctx, action.Type.String(), pkg.ID, pkg.Version.String(), action.Target.Name())
	defer func() { observability.EndSpanWithError(span, err) }()

	tx := &transaction{logger: logger}
	defer func() {
		if err != nil {
			tx.rollback()
		}
	}()

	switch action.Type {
	case resolver.Install:
		logger.InfoContext(ctx, "Installing {PackageId} {Version} into {Target}", pkg.ID, pkg.Version.String(), action.Target.Name())
		return e.install(ctx, tx, action.Target, pkg)
	case resolver.Uninstall:
		logger.InfoContext(ctx, "Uninstalling {PackageId} {Version} from {Target}", pkg.ID, pkg.Version.String(), action.Target.Name())
		return e.uninstall(ctx, tx, action.Target, pkg)
	case resolver.Update:
		if action.Replaced == nil {
			return fmt.Errorf("update of %s does not name the replaced version", pkg.ID)
		}
		logger.InfoContext(ctx, "Updating {PackageId} from {OldVersion} to {Version} in {Target}", pkg.ID, action.Replaced.Version.String(), pkg.Version.String(), action.Target.Name())
		if err := e.uninstall(ctx, tx, action.Target, *action.Replaced); err != nil {
			return err
		}
		return e.install(ctx, tx, action.Target, pkg)
	default:
		return fmt.Errorf("unknown action type %s", action.Type)
	}
}

func (e *ActionExecutor) install(ctx context.Context, tx *transaction, target solution.InstallationTarget, pkg core.PackageIdentity) error {
	repo := target.Repository()
	if repo.IsInstalled(pkg) {
		return fmt.Errorf("%s is already installed in %s", pkg, target.Name())
	}

	if project, ok := target.(*solution.Project); ok {
		content, err := e.content.GetContent(ctx, pkg)
		if err != nil {
			return fmt.Errorf("get content of %s: %w", pkg, err)
		}
		if err := e.addContent(ctx, tx, project, pkg, content); err != nil {
			return err
		}
	}

	return tx.do(fmt.Sprintf("record %s", pkg),
		func() error { return repo.AddPackage(pkg) },
		func() error { return repo.RemovePackage(pkg) })
}

func (e *ActionExecutor) uninstall(ctx context.Context, tx *transaction, target solution.InstallationTarget, pkg core.PackageIdentity) error {
	repo := target.Repository()
	if !repo.IsInstalled(pkg) {
		return fmt.Errorf("%s is not installed in %s", pkg, target.Name())
	}

	if project, ok := target.(*solution.Project); ok {
		content, err := e.content.GetContent(ctx, pkg)
		switch {
		case err == nil:
			if err := e.removeContent(ctx, tx, project, pkg, content); err != nil {
				return err
			}
		case isNotFound(err):
			e.logger.Warn("Content of {PackageId} {Version} is unavailable; only its record is removed from {Target}", pkg.ID, pkg.Version.String(), target.Name())
		default:
			return fmt.Errorf("get content of %s: %w", pkg, err)
		}
	}

	return tx.do(fmt.Sprintf("remove record of %s", pkg),
		func() error { return repo.RemovePackage(pkg) },
		func() error { return repo.AddPackage(pkg) })
}

func (e *ActionExecutor) addContent(ctx context.Context, tx *transaction, project *solution.Project, pkg core.PackageIdentity, content *core.PackageContent) error {
	system := project.System()

	for _, ref := range core.SelectReferences(content.References, project.TargetFramework()) {
		hint := hintPath(project, pkg, ref.Path)
		name := ref.Name()
		existed := system.ReferenceExists(name)
		err := tx.do("add reference "+name,
			func() error { return system.AddReference(hint) },
			func() error {
				if existed {
					return nil
				}
				return system.RemoveReference(name)
			})
		if err != nil {
			return err
		}
	}

	for _, f := range content.Files {
		if system.FileExists(f.Path) {
			e.logger.Warn("File {Path} already exists in {Target}; skipping", f.Path, project.Name())
			continue
		}
		err := tx.do("add file "+f.Path,
			func() error { return system.AddFile(f.Path, f.Content) },
			func() error { return system.DeleteFile(f.Path) })
		if err != nil {
			return err
		}
	}

	if content.InstallScript != "" {
		return tx.do("run "+content.InstallScript,
			func() error {
				return e.runScript(ctx, scripts.ActionInstall, project, pkg, content.InstallScript)
			}, nil)
	}
	return nil
}

func (e *ActionExecutor) removeContent(ctx context.Context, tx *transaction, project *solution.Project, pkg core.PackageIdentity, content *core.PackageContent) error {
	system := project.System()

	if content.UninstallScript != "" {
		err := tx.do("run "+content.UninstallScript,
			func() error {
				return e.runScript(ctx, scripts.ActionUninstall, project, pkg, content.UninstallScript)
			}, nil)
		if err != nil {
			return err
		}
	}

	for _, ref := range core.SelectReferences(content.References, project.TargetFramework()) {
		hint := hintPath(project, pkg, ref.Path)
		name := ref.Name()
		if !system.ReferenceExists(name) {
			continue
		}
		err := tx.do("remove reference "+name,
			func() error { return system.RemoveReference(name) },
			func() error { return system.AddReference(hint) })
		if err != nil {
			return err
		}
	}

	reader, canRead := system.(fileReader)
	for _, f := range content.Files {
		if !system.FileExists(f.Path) {
			continue
		}
		if canRead {
			if current, ok := reader.ReadFile(f.Path); ok && !bytes.Equal(current, f.Content) {
				e.logger.Warn("File {Path} was modified in {Target}; leaving it in place", f.Path, project.Name())
				continue
			}
		}
		err := tx.do("delete file "+f.Path,
			func() error { return system.DeleteFile(f.Path) },
			func() error { return system.AddFile(f.Path, f.Content) })
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *ActionExecutor) runScript(ctx context.Context, action scripts.Action, project *solution.Project, pkg core.PackageIdentity, script string) error {
	if e.scripts == nil {
		e.logger.Warn("Skipping {Script} of {PackageId}: no script runner configured", script, pkg.ID)
		return nil
	}
	e.logger.Debug("Running {Script} of {PackageId} {Version}", script, pkg.ID, pkg.Version.String())
	return e.scripts.Run(ctx, scripts.Request{
		Action:      action,
		Package:     pkg.ID,
		Version:     pkg.Version.String(),
		Project:     project.Name(),
		ProjectDir:  project.Dir(),
		ScriptPath:  script,
		InstallPath: path.Join(project.PackagesPath(), packageFolder(pkg)),
	})
}

// fileReader is implemented by project systems that can return file content.
type fileReader interface {
	ReadFile(path string) ([]byte, bool)
}

// packageFolder is the packages folder entry for pkg, e.g. Newtonsoft.Json.6.0.4.
func packageFolder(pkg core.PackageIdentity) string {
	return pkg.ID + "." + pkg.Version.String()
}

func hintPath(project *solution.Project, pkg core.PackageIdentity, refPath string) string {
	return path.Join(project.PackagesPath(), packageFolder(pkg), strings.ReplaceAll(refPath, `\`, "/"))
}
