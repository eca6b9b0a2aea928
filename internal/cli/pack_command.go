package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/temirov/dumpo/internal/commands"
	"github.com/temirov/dumpo/internal/config"
	"github.com/temirov/dumpo/internal/filter"
	"github.com/temirov/dumpo/internal/types"
	"github.com/temirov/dumpo/internal/utils"
)

const (
	packUse              = types.CommandPack + " [path]"
	packAlias            = "p"
	packShortDescription = "pack a directory into one Markdown document (" + packAlias + ")"
	packLongDescription  = `Render every eligible text file under path (default ".") into a Markdown document.
Configuration is read from ~/.dumpo/dumpo.toml and the nearest dumpo.toml at or above path; flags win over both.

Patterns are matched against slash-separated paths relative to path. "*", "?" and "[...]" never cross "/";
use "**" to span directories, so "src/*.rs" matches "src/a.rs" but not "src/a/b.rs" (write "src/**/*.rs" for that).
A pattern without "/" also matches the file name alone, so "*.rs" matches files in every directory.`
	packUsageExample = `  # Pack the current project to stdout
  dumpo pack --stdout

  # Only Rust sources, skipping tests, with a token estimate
  dumpo pack --include 'src/**' --exclude '**/tests/**' --tokens ./crate`

	maxFileBytesFlagName  = "max-file-bytes"
	maxTotalBytesFlagName = "max-total-bytes"
	includeFlagName       = "include"
	excludeFlagName       = "exclude"
	includeHiddenFlagName = "include-hidden"
	gitignoreFlagName     = "gitignore"
	stdoutFlagName        = "stdout"
	clipboardFlagName     = "clipboard"
	debugFlagName         = "debug"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	configFlagName        = "config"
	noConfigFlagName      = "no-config"
	jobsFlagName          = "jobs"

	maxFileBytesFlagDescription  = "maximum bytes rendered per file"
	maxTotalBytesFlagDescription = "maximum bytes of the whole document"
	includeFlagDescription       = "glob of files to include (repeatable)"
	excludeFlagDescription       = "glob of files to exclude (repeatable)"
	includeHiddenFlagDescription = "include dot files and dot directories"
	gitignoreFlagDescription     = "also skip paths ignored by the root .gitignore"
	stdoutFlagDescription        = "write the document to stdout"
	clipboardFlagDescription     = "copy the document to the system clipboard"
	debugFlagDescription         = "also write the document to " + filter.DebugArtifactName + " in the root"
	tokensFlagDescription        = "estimate tokens of the document"
	modelFlagDescription         = "tokenizer model to use for token counting"
	configFlagDescription        = "path to a dumpo.toml used instead of the discovered one"
	noConfigFlagDescription      = "ignore every dumpo.toml"
	jobsFlagDescription          = "concurrent file reads (0 means one per CPU)"

	defaultPath = "."

	errorPositiveFlagFormat = "--%s must be greater than zero, got %d"
	errorJobsFlagFormat     = "--%s must not be negative, got %d"
)

var errBlankModel = errors.New("--model must not be blank")

type packFlags struct {
	maxFileBytes  int
	maxTotalBytes int
	include       []string
	exclude       []string
	includeHidden bool
	useGitignore  bool
	stdout        bool
	clipboard     bool
	debug         bool
	tokens        bool
	model         string
	configPath    string
	noConfig      bool
	jobs          int
}

// createPackCommand returns the pack subcommand.
func createPackCommand(dependencies Dependencies) *cobra.Command {
	var flags packFlags
	defaults := config.DefaultPackSettings()

	packCommand := &cobra.Command{
		Use:     packUse,
		Aliases: []string{packAlias},
		Short:   packShortDescription,
		Long:    packLongDescription,
		Example: packUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			path := defaultPath
			if len(arguments) > 0 {
				path = arguments[0]
			}
			root, rootErr := commands.ResolveRoot(path)
			if rootErr != nil {
				return rootErr
			}
			configuration, configErr := config.LoadApplicationConfiguration(config.LoadOptions{
				StartDirectory:   root,
				ExplicitFilePath: flags.configPath,
				Disabled:         flags.noConfig,
			})
			if configErr != nil {
				return configErr
			}
			settings := applyPackFlags(command.Flags(), flags, configuration.ApplyTo(config.DefaultPackSettings()))
			if validationErr := validatePackSettings(settings, flags.jobs); validationErr != nil {
				return validationErr
			}

			_, packErr := commands.RunPack(command.Context(), commands.PackOptions{
				Path:            root,
				Settings:        settings,
				Debug:           flags.debug,
				ReadConcurrency: flags.jobs,
			}, commands.PackDependencies{
				Clipboard: dependencies.Clipboard,
				Stdout:    command.OutOrStdout(),
				Logger:    dependencies.Logger,
			})
			return packErr
		},
	}

	flagSet := packCommand.Flags()
	flagSet.IntVar(&flags.maxFileBytes, maxFileBytesFlagName, defaults.MaxFileBytes, maxFileBytesFlagDescription)
	flagSet.IntVar(&flags.maxTotalBytes, maxTotalBytesFlagName, defaults.MaxTotalBytes, maxTotalBytesFlagDescription)
	flagSet.StringArrayVar(&flags.include, includeFlagName, nil, includeFlagDescription)
	flagSet.StringArrayVar(&flags.exclude, excludeFlagName, nil, excludeFlagDescription)
	registerBooleanFlag(flagSet, &flags.includeHidden, includeHiddenFlagName, defaults.IncludeHidden, includeHiddenFlagDescription)
	registerBooleanFlag(flagSet, &flags.useGitignore, gitignoreFlagName, defaults.UseGitignore, gitignoreFlagDescription)
	registerBooleanFlag(flagSet, &flags.stdout, stdoutFlagName, defaults.Stdout, stdoutFlagDescription)
	registerBooleanFlag(flagSet, &flags.clipboard, clipboardFlagName, defaults.Clipboard, clipboardFlagDescription)
	registerBooleanFlag(flagSet, &flags.debug, debugFlagName, false, debugFlagDescription)
	registerBooleanFlag(flagSet, &flags.tokens, tokensFlagName, defaults.Tokens, tokensFlagDescription)
	flagSet.StringVar(&flags.model, modelFlagName, defaults.Model, modelFlagDescription)
	flagSet.StringVar(&flags.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flagSet, &flags.noConfig, noConfigFlagName, false, noConfigFlagDescription)
	flagSet.IntVar(&flags.jobs, jobsFlagName, 0, jobsFlagDescription)
	packCommand.MarkFlagsMutuallyExclusive(configFlagName, noConfigFlagName)
	return packCommand
}

// applyPackFlags overlays explicitly set flags onto settings. Include patterns
// replace the configured ones; exclude patterns are added to them.
func applyPackFlags(flagSet *pflag.FlagSet, flags packFlags, settings config.PackSettings) config.PackSettings {
	result := settings
	if flagSet.Changed(maxFileBytesFlagName) {
		result.MaxFileBytes = flags.maxFileBytes
	}
	if flagSet.Changed(maxTotalBytesFlagName) {
		result.MaxTotalBytes = flags.maxTotalBytes
	}
	if flagSet.Changed(includeFlagName) {
		result.Include = utils.DeduplicatePatterns(utils.TrimPatterns(flags.include))
	}
	if flagSet.Changed(excludeFlagName) {
		result.Exclude = utils.MergePatterns(result.Exclude, flags.exclude)
	}
	if flagSet.Changed(includeHiddenFlagName) {
		result.IncludeHidden = flags.includeHidden
	}
	if flagSet.Changed(gitignoreFlagName) {
		result.UseGitignore = flags.useGitignore
	}
	if flagSet.Changed(stdoutFlagName) {
		result.Stdout = flags.stdout
	}
	if flagSet.Changed(clipboardFlagName) {
		result.Clipboard = flags.clipboard
	}
	if flagSet.Changed(tokensFlagName) {
		result.Tokens = flags.tokens
	}
	if flagSet.Changed(modelFlagName) {
		result.Model = flags.model
	}
	return result
}

func validatePackSettings(settings config.PackSettings, jobs int) error {
	if settings.MaxFileBytes <= 0 {
		return fmt.Errorf(errorPositiveFlagFormat, maxFileBytesFlagName, settings.MaxFileBytes)
	}
	if settings.MaxTotalBytes <= 0 {
		return fmt.Errorf(errorPositiveFlagFormat, maxTotalBytesFlagName, settings.MaxTotalBytes)
	}
	if jobs < 0 {
		return fmt.Errorf(errorJobsFlagFormat, jobsFlagName, jobs)
	}
	if settings.Tokens && strings.TrimSpace(settings.Model) == "" {
		return errBlankModel
	}
	return nil
}
