package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/dumpo/internal/config"
	"github.com/temirov/dumpo/internal/types"
)

const (
	initUse              = types.CommandInit
	initShortDescription = "write a default dumpo.toml"
	initLongDescription  = `Write a dumpo.toml with the built-in defaults into the current directory,
or into ~/.dumpo with --global. Existing files are kept unless --force is given.`
	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration in ~/.dumpo"
	forceFlagDescription  = "overwrite an existing configuration file"
	initWrittenMessage    = "configuration written"
)

// createInitCommand returns the init subcommand.
func createInitCommand(dependencies Dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if err != nil {
				return err
			}
			dependencies.Logger.Info(initWrittenMessage, zap.String("path", path))
			_, printErr := fmt.Fprintln(command.OutOrStdout(), path)
			return printErr
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
