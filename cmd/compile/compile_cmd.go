package compile

import (
	"fmt"
	"os"
	"runtime"

	"github.com/LegacyCodeHQ/tsextern/loader"
	"github.com/spf13/cobra"
)

type compileOptions struct {
	Options
	jobs int
}

// Cmd represents the compile command.
var Cmd = NewCommand()

// NewCommand returns a new compile command instance.
func NewCommand() *cobra.Command {
	opts := &compileOptions{jobs: runtime.GOMAXPROCS(0)}

	cmd := &cobra.Command{
		Use:   "compile <file>...",
		Short: "Compile TypeScript files into annotated JavaScript and Closure externs",
		Long: `Compile each file as its own compilation unit, the way a bundler loader
would, sharing one externs ledger across all of them. The externs of every
file reached for the first time are appended to <extern-dir>/externs.js.`,
		Example: `  tsextern compile src/main.ts src/worker.ts
  tsextern compile --skip node_modules,vendor/ --source-map src/main.ts
  tsextern compile --options loader.yaml -j 4 src/*.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args)
		},
	}

	opts.AddFlags(cmd)
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "Number of files compiled in parallel")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *compileOptions, files []string) error {
	raw, err := opts.LoaderOptions(cmd)
	if err != nil {
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

	runner := &Runner{
		Session:   session,
		Options:   raw,
		SourceMap: opts.SourceMap,
		OutDir:    opts.OutDir,
		BaseDir:   wd,
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
	}
	return runner.CompileAll(cmd.Context(), files, opts.jobs)
}
