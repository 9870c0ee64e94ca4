package cmd

import (
	"fmt"
	"os"

	"feedsync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir is where the optional .env file is looked up.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "feedsync",
	Short: "Social feed sync engine",
	Long: `feedsync keeps a local store of posts and accounts consistent with paginated
remote social APIs (Twitter v2, Twitter v1.1, Mastodon) and drives load-more
and gap-fill pagination over them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding at debug level gives readable CLI errors with ISO8601 timestamps.
		l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding the .env file")
}
