// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/dumpo/internal/services/clipboard"
	"github.com/temirov/dumpo/internal/utils"
)

const (
	versionFlagName        = "version"
	verboseFlagName        = "verbose"
	versionTemplate        = "dumpo version: %s\n"
	rootUse                = "dumpo"
	rootShortDescription   = "dumpo command line interface"
	rootLongDescription    = `dumpo packs the text files of a directory into one Markdown document sized for an LLM prompt.
Files are rendered in a deterministic order, secrets and binaries are skipped, and byte ceilings are never exceeded.
Use pack to build the document and init to write a default dumpo.toml.`
	versionFlagDescription = "display application version"
	verboseFlagDescription = "log skipped files and other debug details"
)

// Dependencies are the collaborators shared by every command.
type Dependencies struct {
	Logger    *zap.Logger
	Level     zap.AtomicLevel
	Clipboard clipboard.Copier
}

// Execute runs the dumpo application with the process arguments.
func Execute(ctx context.Context, dependencies Dependencies) error {
	rootCommand := createRootCommand(dependencies)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(dependencies Dependencies) *cobra.Command {
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Clipboard == nil {
		dependencies.Clipboard = clipboard.NewService()
	}
	if dependencies.Level == (zap.AtomicLevel{}) {
		dependencies.Level = zap.NewAtomicLevel()
	}

	var showVersion bool
	var verbose bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, err := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return err
			}
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if verbose {
				dependencies.Level.SetLevel(zapcore.DebugLevel)
			}
		},
	}
	rootCommand.Flags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	registerBooleanFlag(rootCommand.PersistentFlags(), &verbose, verboseFlagName, false, verboseFlagDescription)
	rootCommand.AddCommand(
		createPackCommand(dependencies),
		createInitCommand(dependencies),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}
