package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "qaher-bot",
		Short: "Telegram companion bot for quitting a habit",
		Long: `qaher-bot tracks each user's streak since their last relapse, keeps their
notes and ratings, relays support messages to the admin and sends a daily
reminder.

Configuration comes from .env, the environment and the optional YAML file
named by QAHER_CONFIG.`,
		RunE:          runBot, // default action is serving the bot
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	appVersion = version
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

var appVersion = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "qaher-bot", appVersion)
	},
}
