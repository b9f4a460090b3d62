package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/cmd/argthread/opts"
	"github.com/walteh/argthread/pkg/operation"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the target from its backup",
		Long: `Restore puts <target>.bak back in place and removes the backup.
The backup is written by a run with --backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			op, err := operation.NewRestoreOperation(opts.Operation(ctx))
			if err != nil {
				return errors.Errorf("creating restore operation: %w", err)
			}

			return operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op)
		},
	}

	return cmd
}
