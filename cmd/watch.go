package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"feedsync/core/config"
	"feedsync/core/logger"
	"feedsync/core/pubsub"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd prints projections published by a running server.
var watchCmd = &cobra.Command{
	Use:   "watch [feed...]",
	Short: "Print feed projections published on redis",
	Long:  `Subscribes to the projection channels of the given feeds (default: timeline.feed_id) and prints every payload received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := pubsub.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		feeds := args
		if len(feeds) == 0 {
			feeds = []string{cfg.Timeline.FeedID}
		}
		msgs, err := pubsub.NewSubscriber(client, cfg.Redis.ChannelPrefix).Subscribe(ctx, feeds...)
		if err != nil {
			return err
		}
		logg.Info("Watching projections", zap.Strings("feeds", feeds))
		for m := range msgs {
			fmt.Printf("%s %s\n", m.Topic, m.Payload)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(watchCmd)
}
