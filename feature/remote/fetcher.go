package remote

import (
	"context"
	"fmt"
	"strconv"

	"feedsync/core/entity"
)

// Cursor is an opaque continuation for one backend.
type Cursor struct {
	// Token is a continuation token issued by the server.
	Token string `json:"token,omitempty"`
	// MaxID restricts the page to items strictly older than this identifier.
	MaxID string `json:"max_id,omitempty"`
}

// IsZero reports whether the cursor points at the newest page.
func (c Cursor) IsZero() bool {
	return c.Token == "" && c.MaxID == ""
}

// Page is one decoded response.
type Page struct {
	Entities []entity.Entity
	Next     Cursor
	HasMore  bool
	// Dropped lists per-item decode failures. Those items are absent from Entities.
	Dropped []error
}

// Fetcher retrieves pages from one backend.
type Fetcher interface {
	Fetch(ctx context.Context, cursor Cursor, pageSize int) (Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, cursor Cursor, pageSize int) (Page, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, cursor Cursor, pageSize int) (Page, error) {
	return f(ctx, cursor, pageSize)
}

// Backend names.
const (
	BackendTwitter       = "twitter"
	BackendTwitterLegacy = "twitter_legacy"
	BackendMastodon      = "mastodon"
)

// Resource selects the kind of entity a listing returns.
type Resource string

const (
	ResourcePosts    Resource = "posts"
	ResourceAccounts Resource = "accounts"
)

// New builds the primary fetcher described by cfg.
func New(cfg Config) (Fetcher, error) {
	switch cfg.Backend {
	case BackendTwitter:
		return NewTwitter(cfg), nil
	case BackendTwitterLegacy:
		return NewTwitterLegacy(cfg), nil
	case BackendMastodon:
		return NewMastodon(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported remote backend %q", cfg.Backend)
	}
}

// NewFallback builds the alternate fetcher used when the primary is rate limited.
// It returns nil when the backend has no alternate endpoint.
func NewFallback(cfg Config) Fetcher {
	if cfg.Backend != BackendTwitter || cfg.LegacyEndpoint == "" {
		return nil
	}
	legacy := cfg
	legacy.Backend = BackendTwitterLegacy
	legacy.Endpoint = cfg.LegacyEndpoint
	if cfg.LegacyBaseURL != "" {
		legacy.BaseURL = cfg.LegacyBaseURL
	}
	return NewTwitterLegacy(legacy)
}

// PrevID returns the numeric identifier immediately below id, for APIs whose
// max_id bound is inclusive. Non-numeric identifiers are returned unchanged.
func PrevID(id string) string {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return id
	}
	return strconv.FormatUint(n-1, 10)
}

// CompareIDs orders numeric identifiers by value and falls back to length then
// lexical order, which matches snowflake-style ids of different widths.
func CompareIDs(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
