package cmd

import (
	"context"

	"feedsync/feature/timeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var gapPages int

// gapCmd runs one gap fill below an anchor.
var gapCmd = &cobra.Command{
	Use:   "gap <anchor>",
	Short: "Backfill the items older than an anchor",
	Long: `Loads the configured feed, then fills the gap below the anchor item. When the
primary endpoint is rate limited the fallback endpoint is used. The gap fill state
is printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		anchor := args[0]

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		feed, err := a.newFeed("")
		if err != nil {
			return err
		}
		defer feed.Teardown()

		if _, err := syncPagesOf(ctx, feed, gapPages); err != nil {
			return err
		}
		if err := feed.FillGap(anchor); err != nil {
			return err
		}
		_, err = waitUntil(ctx, feed, func(timeline.Snapshot) bool {
			g, ok := feed.Gap(anchor)
			return !ok || g.State != timeline.GapLoading
		})
		if err != nil {
			return err
		}

		g, _ := feed.Gap(anchor)
		a.log.Info("Gap fill finished",
			zap.String("anchor", anchor),
			zap.String("state", string(g.State)),
			zap.Bool("fallback", g.NeedsFallback),
			zap.Int("inserted", g.Inserted),
		)
		return printJSON(g)
	},
}

func init() {
	RootCmd.AddCommand(gapCmd)
	gapCmd.Flags().IntVar(&gapPages, "pages", 1, "pages to load before filling the gap")
}
