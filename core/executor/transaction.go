package executor

import (
	"errors"
	"fmt"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/observability"
)

// transaction records compensating steps for the changes made while applying
// one action so a failed action can be undone.
type transaction struct {
	logger observability.Logger
	steps  []step
}

type step struct {
	name string
	undo func() error
}

// do runs apply and, when it succeeds, remembers undo. A nil undo marks a
// step with nothing to compensate.
func (tx *transaction) do(name string, apply, undo func() error) error {
	if err := apply(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if undo != nil {
		tx.steps = append(tx.steps, step{name: name, undo: undo})
	}
	return nil
}

// rollback undoes completed steps in reverse order. Failures are logged and
// the remaining steps still run.
func (tx *transaction) rollback() {
	for i := len(tx.steps) - 1; i >= 0; i-- {
		s := tx.steps[i]
		if err := s.undo(); err != nil {
			tx.logger.Error("Failed to undo {Step}: {Error}", s.name, err.Error())
		}
	}
	tx.steps = nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrPackageNotFound)
}
