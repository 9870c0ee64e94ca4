package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"feedsync/feature/timeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncPages  int
	syncFeedID string
)

// syncCmd drives one feed from the command line.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch pages of the configured feed into the local store",
	Long: `Activates the configured feed and keeps loading pages until the remote reports
no more items, the page limit is reached, or a fetch fails. The resulting projection
is printed as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		feed, err := a.newFeed(syncFeedID)
		if err != nil {
			return err
		}
		defer feed.Teardown()

		s, err := syncPagesOf(ctx, feed, syncPages)
		if err != nil {
			return err
		}
		a.log.Info("Sync finished",
			zap.String("feed", s.Feed),
			zap.String("state", string(s.State)),
			zap.Int("items", s.Items),
		)
		proj, err := feed.Projector().Flush(ctx)
		if err != nil {
			return err
		}
		return printJSON(proj)
	},
}

// syncPagesOf activates f and loads up to pages pages, zero meaning no limit.
func syncPagesOf(ctx context.Context, f *timeline.Feed, pages int) (timeline.Snapshot, error) {
	if err := f.Activate(); err != nil {
		return timeline.Snapshot{}, err
	}
	for loaded := 1; ; loaded++ {
		s, err := waitUntil(ctx, f, settled)
		if err != nil {
			return s, err
		}
		switch {
		case s.State == timeline.StateFail:
			return s, fmt.Errorf("fetch failed (%s): %s", s.ErrorKind, s.LastError)
		case s.State == timeline.StateNoMore:
			return s, nil
		case pages > 0 && loaded >= pages:
			return s, nil
		}
		if err := f.Load(); err != nil {
			return s, err
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	RootCmd.AddCommand(syncCmd)
	syncCmd.Flags().IntVar(&syncPages, "pages", 1, "maximum pages to load, 0 loads until the end")
	syncCmd.Flags().StringVar(&syncFeedID, "feed", "", "feed id, defaults to timeline.feed_id")
}
