package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/cmd/argthread/commands"
	"github.com/walteh/argthread/cmd/argthread/opts"
	"github.com/walteh/argthread/pkg/config"
	"github.com/walteh/argthread/pkg/document"
	"github.com/walteh/argthread/pkg/log"
	"github.com/walteh/argthread/pkg/operation"
)

// rootFlags holds the persistent flags shared by every command
type rootFlags struct {
	configFile string
	target     string
	dir        string
	dryRun     bool
	strict     bool
	backup     bool
	noAudit    bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "argthread",
		Short: "Thread a new parameter through a test file",
		Long: `argthread adds one parameter to a shared setup routine and threads it
through the document: a new declaration, a widened tuple return, every
destructuring call site and every call of the target function.

Without --config the built-in change is used: a pool creator is threaded
through the contract test setup() and every create_pool call.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), flags.debug)
			cmd.SetContext(ctx)

			if err := flags.fill(cmd, rootOpts); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			log.FromContext(ctx).Header(fmt.Sprintf("threading %s", rootOpts.Config.String()))

			op, err := operation.NewRewriteOperation(rootOpts.Operation(ctx))
			if err != nil {
				return errors.Errorf("creating rewrite operation: %w", err)
			}

			return operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op)
		},
	}

	addRootFlags(cmd, flags)

	cmd.AddCommand(
		commands.NewPlanCmd(rootOpts),
		commands.NewRestoreCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file path (.yaml, .hcl or .json); the built-in change when empty")
	pf.StringVarP(&flags.target, "target", "t", "", "override the target path or doublestar pattern")
	pf.StringVarP(&flags.dir, "dir", "C", ".", "base directory relative targets resolve against")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "print a diff instead of writing")
	pf.BoolVar(&flags.strict, "strict", true, "fail when a rule or call site does not apply")
	pf.BoolVar(&flags.backup, "backup", false, "keep <target>.bak before writing")
	pf.BoolVar(&flags.noAudit, "no-audit", false, "skip the tree-sitter call-site audit")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// fill loads the config, applies flag overrides and builds the shared options.
// The console logger is stored in the command context.
func (f *rootFlags) fill(cmd *cobra.Command, o *opts.RootOpts) error {
	ctx := cmd.Context()

	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.LoadConfig(ctx, f.configFile)
		if err != nil {
			return errors.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	pf := cmd.Flags()
	if f.target != "" {
		cfg.Target = f.target
	}
	if pf.Changed("strict") {
		cfg.Lenient = !f.strict
	}
	if f.backup {
		cfg.Backup = true
	}
	if f.noAudit {
		cfg.SkipAudit = true
	}

	if err := cfg.Validate(); err != nil {
		return errors.Errorf("validating config: %w", err)
	}

	level := zerolog.WarnLevel
	if f.debug {
		level = zerolog.DebugLevel
	}

	o.Config = cfg
	o.Store = document.NewStore(f.dir)
	o.DryRun = f.dryRun

	cmd.SetContext(log.NewContext(ctx, log.New(cmd.OutOrStdout(), level)))
	return nil
}

// setupLogging configures zerolog based on flags and returns a context
// carrying the logger
func setupLogging(ctx context.Context, debug bool) context.Context {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}
