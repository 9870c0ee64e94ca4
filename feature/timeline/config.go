package timeline

import "time"

// Config defines the pagination engine settings.
type Config struct {
	// FeedID names the feed built from the remote configuration.
	FeedID string `mapstructure:"feed_id" default:"home"`
	// PageSize overrides remote.page_size when positive.
	PageSize int `mapstructure:"page_size" default:"0"`
	// RetryDelay is the wait before an automatic retry after a failure.
	RetryDelay time.Duration `mapstructure:"retry_delay" default:"3s"`
	// RateLimitDelay is the minimum wait after a rate-limited fetch.
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay" default:"60s"`
	// MaxAutoRetries caps consecutive automatic retries before user action is required.
	MaxAutoRetries int `mapstructure:"max_auto_retries" default:"1"`
	// ProjectionDebounce coalesces projection recomputes.
	ProjectionDebounce time.Duration `mapstructure:"projection_debounce" default:"100ms"`
	// Insert is append or prepend.
	Insert string `mapstructure:"insert" default:"append"`
	// MaxReconcileDepth bounds nested repost/quote reconciliation.
	MaxReconcileDepth int `mapstructure:"max_reconcile_depth" default:"2"`
	// AuthorFilter restricts the projection to one author when set.
	AuthorFilter string `mapstructure:"author_filter" default:""`
	// ViewerID is the authenticated identity the feed is fetched as. Empty means none.
	ViewerID string `mapstructure:"viewer_id" default:""`
}

// InsertMode returns the configured insert mode.
func (c Config) InsertMode() InsertMode {
	if InsertMode(c.Insert) == InsertPrepend {
		return InsertPrepend
	}
	return InsertAppend
}
