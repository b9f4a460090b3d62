package operation

import (
	"context"

	"gitlab.com/tozd/go/errors"
)

// ⏪ NewRestoreOperation creates the operation that puts the target's backup
// back in place
func NewRestoreOperation(opts Options) (Operation, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Errorf("validating options: %w", err)
	}
	return &restoreOperation{opts: opts}, nil
}

type restoreOperation struct {
	opts Options
}

func (op *restoreOperation) Name() string { return "restore" }

func (op *restoreOperation) Execute(ctx context.Context) error {
	path, err := op.opts.Store.Resolve(ctx, op.opts.Config.Target)
	if err != nil {
		return errors.Errorf("resolving target: %w", err)
	}

	if op.opts.DryRun {
		op.opts.Logger.Infof("dry run: %s would be restored from its backup", path)
		return nil
	}

	if err := op.opts.Store.Restore(ctx, path); err != nil {
		return errors.Errorf("restoring %s: %w", path, err)
	}

	op.opts.Logger.Successf("Restored %s", path)
	return nil
}
