package cmd

import (
	"fmt"
	"os"

	"feedsync/core/config"
	"feedsync/core/storage"

	"github.com/spf13/cobra"
)

// archiveCmd groups the skipped page archive commands.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect pages that could not be decoded",
}

var archiveListCmd = &cobra.Command{
	Use:   "list [feed]",
	Short: "List archived pages, optionally of one feed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		feed := ""
		if len(args) == 1 {
			feed = args[0]
		}
		keys, err := archive.List(cmd.Context(), feed)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the raw body of an archived page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		body, err := archive.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(body)
		return err
	},
}

func openArchive() (*storage.Archive, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Storage.Enabled {
		return nil, fmt.Errorf("page archive is disabled, set STORAGE_ENABLED=true")
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return storage.NewArchive(client, cfg.Storage), nil
}

func init() {
	RootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveGetCmd)
}
