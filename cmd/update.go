package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/autobrr/seedgc/pkg/runtime"
)

const repoSlug = "autobrr/seedgc"

var flagUpdateCheck bool

var updateCmd = &cobra.Command{
	Use:           "update",
	Short:         "Update seedgc",
	Long:          `Update seedgc to the latest GitHub release.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUpdateCheck {
			latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(repoSlug))
			if err != nil {
				return fmt.Errorf("could not check for updates: %w", err)
			}

			if !found || latest.LessOrEqual(runtime.Version) {
				fmt.Printf("Already up to date: %s\n", runtime.Version)
				return nil
			}

			fmt.Printf("Update available: %s -> %s\n", runtime.Version, latest.Version())
			return nil
		}

		release, err := selfupdate.UpdateSelf(cmd.Context(), runtime.Version, selfupdate.ParseSlug(repoSlug))
		if err != nil {
			return fmt.Errorf("could not update binary: %w", err)
		}

		fmt.Printf("Successfully updated to version: %s\n", release.Version())
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&flagUpdateCheck, "check", false, "Only report whether an update is available")

	updateCmd.SetUsageTemplate(`Usage:
  {{.CommandPath}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
`)

	rootCmd.AddCommand(updateCmd)
}
