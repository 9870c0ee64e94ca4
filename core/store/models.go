package store

// PostMetrics holds post counters. A nil column means the count was never observed.
type PostMetrics struct {
	Likes   *int64
	Reposts *int64
	Replies *int64
	Quotes  *int64
}

// PlaceColumns is the geotag of a post, flattened into the post row.
type PlaceColumns struct {
	ID          string `gorm:"size:64"`
	FullName    string `gorm:"size:255"`
	Country     string `gorm:"size:128"`
	CountryCode string `gorm:"size:8"`
}

// PostRecord is the persisted form of a post.
type PostRecord struct {
	ID             string  `gorm:"primaryKey;size:64"`
	Text           string  `gorm:"type:text"`
	PostedAt       int64   `gorm:"index"` // unix milliseconds
	AuthorID       string  `gorm:"size:64;index"`
	ConversationID string  `gorm:"size:64;index"`
	InReplyToID    string  `gorm:"size:64"`
	Language       string  `gorm:"size:16"`
	RepostOfID     *string `gorm:"size:64"`
	QuoteOfID      *string `gorm:"size:64"`

	Metrics PostMetrics  `gorm:"embedded;embeddedPrefix:metric_"`
	Place   PlaceColumns `gorm:"embedded;embeddedPrefix:place_"`

	// LastUpdated is the freshness (unix nanoseconds) of the last applied merge.
	LastUpdated int64
}

// TableName returns the table name for PostRecord.
func (PostRecord) TableName() string {
	return "posts"
}

// AccountMetrics holds profile counters.
type AccountMetrics struct {
	Followers *int64
	Following *int64
	Listed    *int64
	Posts     *int64
}

// AccountRecord is the persisted form of an account.
type AccountRecord struct {
	ID              string `gorm:"primaryKey;size:64"`
	DisplayName     string `gorm:"size:255"`
	Handle          string `gorm:"size:255;index"`
	JoinedAt        int64  // unix milliseconds
	Bio             string `gorm:"type:text"`
	Location        string `gorm:"size:255"`
	URL             string `gorm:"size:512"`
	ProfileImageURL string `gorm:"size:512"`
	BannerURL       string `gorm:"size:512"`
	Protected       bool
	Verified        bool

	Metrics AccountMetrics `gorm:"embedded;embeddedPrefix:metric_"`

	LastUpdated int64
}

// TableName returns the table name for AccountRecord.
func (AccountRecord) TableName() string {
	return "accounts"
}

// MediaRecord is one ordered attachment of a post.
type MediaRecord struct {
	PostID     string `gorm:"primaryKey;size:64"`
	Position   int    `gorm:"primaryKey;autoIncrement:false"`
	MediaID    string `gorm:"size:64"`
	Type       string `gorm:"size:32"`
	URL        string `gorm:"size:512"`
	PreviewURL string `gorm:"size:512"`
	Width      int
	Height     int
	AltText    string `gorm:"type:text"`
}

// TableName returns the table name for MediaRecord.
func (MediaRecord) TableName() string {
	return "post_media"
}

// MentionRecord is one mention span of a post.
type MentionRecord struct {
	PostID   string  `gorm:"primaryKey;size:64"`
	Position int     `gorm:"primaryKey;autoIncrement:false"`
	Start    int
	End      int
	Username string  `gorm:"size:255"`
	UserID   *string `gorm:"size:64"`
}

// TableName returns the table name for MentionRecord.
func (MentionRecord) TableName() string {
	return "post_mentions"
}

// EdgeKind names a viewer-relative relation.
type EdgeKind string

const (
	EdgeLiked            EdgeKind = "liked"
	EdgeReposted         EdgeKind = "reposted"
	EdgeBookmarked       EdgeKind = "bookmarked"
	EdgeFollowsViewer    EdgeKind = "follows_viewer"
	EdgeFollowedByViewer EdgeKind = "followed_by_viewer"
	EdgeFollowRequested  EdgeKind = "follow_requested"
)

// EdgeRecord states that Kind holds between the viewer and the subject entity.
// Absence of a row means the relation does not hold or was never observed.
type EdgeRecord struct {
	ViewerID  string   `gorm:"primaryKey;size:64"`
	Kind      EdgeKind `gorm:"primaryKey;size:32"`
	SubjectID string   `gorm:"primaryKey;size:64;index"`
}

// TableName returns the table name for EdgeRecord.
func (EdgeRecord) TableName() string {
	return "viewer_edges"
}

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{&PostRecord{}, &AccountRecord{}, &MediaRecord{}, &MentionRecord{}, &EdgeRecord{}}
}

// ExpectedColumns lists, per table, the columns the engine relies on.
func ExpectedColumns() map[string][]string {
	return map[string][]string{
		"posts":         {"id", "text", "posted_at", "author_id", "repost_of_id", "quote_of_id", "metric_likes", "last_updated"},
		"accounts":      {"id", "display_name", "handle", "metric_followers", "last_updated"},
		"post_media":    {"post_id", "position", "media_id", "url"},
		"post_mentions": {"post_id", "position", "username", "user_id"},
		"viewer_edges":  {"viewer_id", "kind", "subject_id"},
	}
}

func clonePost(r *PostRecord) *PostRecord {
	c := *r
	c.RepostOfID = cloneString(r.RepostOfID)
	c.QuoteOfID = cloneString(r.QuoteOfID)
	c.Metrics = PostMetrics{
		Likes:   cloneInt(r.Metrics.Likes),
		Reposts: cloneInt(r.Metrics.Reposts),
		Replies: cloneInt(r.Metrics.Replies),
		Quotes:  cloneInt(r.Metrics.Quotes),
	}
	return &c
}

func cloneAccount(r *AccountRecord) *AccountRecord {
	c := *r
	c.Metrics = AccountMetrics{
		Followers: cloneInt(r.Metrics.Followers),
		Following: cloneInt(r.Metrics.Following),
		Listed:    cloneInt(r.Metrics.Listed),
		Posts:     cloneInt(r.Metrics.Posts),
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
