package entity

import "time"

// Kind identifies the type of a remote entity.
type Kind string

const (
	KindPost    Kind = "post"
	KindAccount Kind = "account"
)

// Entity is any remote object with a stable identifier.
type Entity interface {
	// EntityID returns the opaque remote identifier.
	EntityID() string
	// EntityKind returns the entity type.
	EntityKind() Kind
}

// Post is a decoded status/tweet/toot.
type Post struct {
	ID             string
	Text           *string
	CreatedAt      *time.Time
	AuthorID       *string
	Author         *Account
	ConversationID *string
	InReplyToID    *string
	Language       *string

	// RepostOf and QuoteOf are full embedded posts when the payload carries them.
	// When only the identifier is known, set RepostOfID / QuoteOfID instead.
	RepostOf   *Post
	RepostOfID *string
	QuoteOf    *Post
	QuoteOfID  *string

	Metrics *PostMetrics
	// Media is nil when the payload says nothing about attachments and
	// an empty non-nil slice when it explicitly carries none.
	Media    []Media
	Mentions []Mention
	Place    *Place

	Viewer *PostViewerState
}

// EntityID implements Entity.
func (p *Post) EntityID() string { return p.ID }

// EntityKind implements Entity.
func (p *Post) EntityKind() Kind { return KindPost }

// ResolvedAuthorID returns the author identifier from the embedded author
// or the explicit AuthorID field.
func (p *Post) ResolvedAuthorID() *string {
	if p.Author != nil && p.Author.ID != "" {
		id := p.Author.ID
		return &id
	}
	return p.AuthorID
}

// PostMetrics holds aggregate counters. Endpoints populate different subsets.
type PostMetrics struct {
	Likes   *int64
	Reposts *int64
	Replies *int64
	Quotes  *int64
}

// Media is an ordered attachment of a post.
type Media struct {
	ID         string
	Type       string
	URL        string
	PreviewURL string
	Width      int
	Height     int
	AltText    string
}

// Mention is a span of post text that references an account.
type Mention struct {
	Start    int
	End      int
	Username string
	// UserID is best-effort; it may be resolved from a response's included
	// users by username and may be nil.
	UserID *string
}

// Place is a geotag attached to a post.
type Place struct {
	ID          string
	FullName    string
	Country     string
	CountryCode string
}

// PostViewerState carries flags relative to the authenticated viewer.
// A nil pointer means the payload did not state the flag.
type PostViewerState struct {
	Liked      *bool
	Reposted   *bool
	Bookmarked *bool
}

// Account is a decoded user profile.
type Account struct {
	ID              string
	DisplayName     *string
	Handle          *string
	CreatedAt       *time.Time
	Bio             *string
	Location        *string
	URL             *string
	ProfileImageURL *string
	BannerURL       *string
	Protected       *bool
	Verified        *bool

	Metrics      *AccountMetrics
	Relationship *Relationship
}

// EntityID implements Entity.
func (a *Account) EntityID() string { return a.ID }

// EntityKind implements Entity.
func (a *Account) EntityKind() Kind { return KindAccount }

// AccountMetrics holds profile counters.
type AccountMetrics struct {
	Followers *int64
	Following *int64
	Listed    *int64
	Posts     *int64
}

// Relationship holds viewer-relative flags. They are only meaningful together
// with the viewer they were observed for.
type Relationship struct {
	// FollowingViewer reports whether the account follows the viewer.
	FollowingViewer *bool
	// FollowedByViewer reports whether the viewer follows the account.
	FollowedByViewer *bool
	// FollowRequestPending reports an outstanding follow request from the viewer.
	FollowRequestPending *bool
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Int64 returns a pointer to n.
func Int64(n int64) *int64 { return &n }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Time returns a pointer to t.
func Time(t time.Time) *time.Time { return &t }
