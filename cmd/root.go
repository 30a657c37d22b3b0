package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/LegacyCodeHQ/tsextern/cmd/compile"
	"github.com/LegacyCodeHQ/tsextern/cmd/watch"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set via build-time ldflags
var version = "dev"

// buildDate is set via build-time ldflags
var buildDate = "unknown"

// commit is set via build-time ldflags
var commit = "unknown"

// envFile is loaded before any subcommand runs.
var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsextern",
		Short: "Compile TypeScript into Closure-annotated JavaScript and externs",
		Long: `tsextern compiles TypeScript files one at a time, the way a bundler loader
does, into JavaScript annotated with Closure JSDoc types. The externs of every
file reached are appended once to a shared externs.js for the Closure Compiler.

Use 'tsextern --help' to see all available commands, or 'tsextern <command> --help'
for detailed information about a specific command.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
	}

	cmd.AddCommand(compile.NewCommand())
	cmd.AddCommand(watch.NewCommand())

	cmd.Annotations = map[string]string{
		"buildDate": buildDate,
		"commit":    commit,
	}

	// Customize version template to show additional build info
	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
Build date: {{printf "%s" (index .Annotations "buildDate")}}
Commit: {{printf "%s" (index .Annotations "commit")}}
`)

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File with TSEXTERN_* defaults, ignored when absent")

	return cmd
}

// loadEnvFile sets variables from fileName without overriding the
// environment. A missing file is not an error.
func loadEnvFile(fileName string) error {
	if fileName == "" {
		return nil
	}
	if err := godotenv.Load(fileName); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", fileName, err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
