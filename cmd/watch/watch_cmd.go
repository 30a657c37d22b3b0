package watch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LegacyCodeHQ/tsextern/cmd/compile"
	"github.com/LegacyCodeHQ/tsextern/loader"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	compile.Options
}

// Cmd represents the watch command.
var Cmd = NewCommand()

// NewCommand returns a new watch command instance.
func NewCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Recompile TypeScript files as they change",
		Long: `Watch a directory and compile every .ts or .tsx file that is written. All
compiles share one externs ledger, so a file whose externs were appended once
is not appended again while the command runs. For the same reason a file that
is compiled again is only type-erased: its output carries no JSDoc annotations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runWatch(cmd, opts, dir)
		},
	}

	opts.AddFlags(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve watch directory: %w", err)
	}
	raw, err := opts.LoaderOptions(cmd)
	if err != nil {
		return err
	}
	// Validate once up front so a bad option fails the command, not every change.
	if _, err := loader.ParseOptions(raw); err != nil {
		return err
	}
	session, err := loader.NewSession()
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	runner := &compile.Runner{
		Session:   session,
		Options:   raw,
		SourceMap: opts.SourceMap,
		OutDir:    opts.OutDir,
		BaseDir:   wd,
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", absDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return watchAndCompile(cmd.Context(), absDir, runner.CompileFile, cmd.ErrOrStderr())
}
