package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/small-frappuccino/tildebot/pkg/app"
	"github.com/small-frappuccino/tildebot/pkg/discord/commands"
	"github.com/small-frappuccino/tildebot/pkg/discord/commands/core"
	apperrors "github.com/small-frappuccino/tildebot/pkg/errors"
	"github.com/small-frappuccino/tildebot/pkg/log"
	"github.com/small-frappuccino/tildebot/pkg/util"
)

// main is the entry point of the Discord bot.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		if apperrors.IsFatal(err) {
			log.ApplicationLogger().Error(fmt.Sprintf("Fatal: %v", err), "category", apperrors.CategoryOf(err))
		} else {
			log.ApplicationLogger().Error(err.Error())
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 1 for fatal startup errors and 2 for anything else cobra returns (usage errors).
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case apperrors.IsFatal(err):
		return 1
	default:
		return 2
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           app.Name,
		Short:         "Minimal Discord gateway bot with a ~ping command",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(context.Background(), app.Options{
				AppName: app.Name,
				EnvFile: envFile,
			})
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", util.DefaultEnvFile, "key/value file loaded into the environment at startup")

	root.AddCommand(newCommandsCommand())
	return root
}

func newCommandsCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the registered prefix commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := commands.NewCommandHandler(core.Configuration{Prefix: prefix})
			if err != nil {
				return err
			}
			printCommands(cmd.OutOrStdout(), prefix, handler.GetRouter().Commands())
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "~", "command prefix to display")
	return cmd
}

func printCommands(w io.Writer, prefix string, infos []core.CommandInfo) {
	for _, info := range infos {
		line := fmt.Sprintf("%s%s\t[%s]", prefix, info.Name, info.Group)
		if len(info.Aliases) > 0 {
			line += "\taliases: " + strings.Join(info.Aliases, ", ")
		}
		if info.OwnersOnly {
			line += "\t(owners only)"
		}
		if info.Description != "" {
			line += "\t" + info.Description
		}
		fmt.Fprintln(w, line)
	}
}
