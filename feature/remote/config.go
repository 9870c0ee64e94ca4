package remote

// Config defines the remote API settings.
type Config struct {
	// Backend is one of twitter, twitter_legacy or mastodon.
	Backend string `mapstructure:"backend" default:"mastodon"`
	// BaseURL is the API root, without a trailing slash.
	BaseURL string `mapstructure:"base_url" default:"https://mastodon.social"`
	// Token is the bearer token sent with every request.
	Token string `mapstructure:"token" default:""`
	// Endpoint is the listing path, e.g. /api/v1/timelines/home or /2/tweets/search/recent.
	Endpoint string `mapstructure:"endpoint" default:"/api/v1/timelines/public"`
	// Query is the search query for search endpoints.
	Query string `mapstructure:"query" default:""`
	// Resource selects whether the endpoint lists posts or accounts.
	Resource string `mapstructure:"resource" default:"posts"`
	// LegacyBaseURL and LegacyEndpoint configure the twitter fallback path.
	LegacyBaseURL  string `mapstructure:"legacy_base_url" default:"https://api.twitter.com"`
	LegacyEndpoint string `mapstructure:"legacy_endpoint" default:""`
	// PageSize is the default number of items requested per page.
	PageSize int `mapstructure:"page_size" default:"20"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
}
