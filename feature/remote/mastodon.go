package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedsync/core/entity"
)

// Mastodon fetches from a Mastodon-compatible server. Pages are linked through
// the Link response header.
type Mastodon struct {
	t        transport
	endpoint string
	query    string
	resource Resource
}

// NewMastodon creates a Mastodon fetcher.
func NewMastodon(cfg Config) *Mastodon {
	return &Mastodon{
		t:        newTransport(BackendMastodon, cfg),
		endpoint: cfg.Endpoint,
		query:    cfg.Query,
		resource: resourceOf(cfg.Resource),
	}
}

type mastoStatus struct {
	ID                 string           `json:"id"`
	CreatedAt          *time.Time       `json:"created_at"`
	Content            *string          `json:"content"`
	InReplyToID        *string          `json:"in_reply_to_id"`
	Language           *string          `json:"language"`
	Account            *mastoAccount    `json:"account"`
	Reblog             *json.RawMessage `json:"reblog"`
	Quote              *struct {
		State        string           `json:"state"`
		QuotedStatus *json.RawMessage `json:"quoted_status"`
	} `json:"quote"`
	RepliesCount     *int64 `json:"replies_count"`
	ReblogsCount     *int64 `json:"reblogs_count"`
	FavouritesCount  *int64 `json:"favourites_count"`
	QuotesCount      *int64 `json:"quotes_count"`
	Favourited       *bool  `json:"favourited"`
	Reblogged        *bool  `json:"reblogged"`
	Bookmarked       *bool  `json:"bookmarked"`
	MediaAttachments []struct {
		ID          string  `json:"id"`
		Type        string  `json:"type"`
		URL         string  `json:"url"`
		PreviewURL  string  `json:"preview_url"`
		Description *string `json:"description"`
		Meta        struct {
			Original struct {
				Width  int `json:"width"`
				Height int `json:"height"`
			} `json:"original"`
		} `json:"meta"`
	} `json:"media_attachments"`
	Mentions []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Acct     string `json:"acct"`
	} `json:"mentions"`
}

type mastoAccount struct {
	ID             string     `json:"id"`
	Username       *string    `json:"username"`
	Acct           *string    `json:"acct"`
	DisplayName    *string    `json:"display_name"`
	Note           *string    `json:"note"`
	URL            *string    `json:"url"`
	Avatar         *string    `json:"avatar"`
	Header         *string    `json:"header"`
	Locked         *bool      `json:"locked"`
	CreatedAt      *time.Time `json:"created_at"`
	FollowersCount *int64     `json:"followers_count"`
	FollowingCount *int64     `json:"following_count"`
	StatusesCount  *int64     `json:"statuses_count"`
}

// Fetch implements Fetcher.
func (c *Mastodon) Fetch(ctx context.Context, cursor Cursor, pageSize int) (Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clamp(pageSize, 1, 40)))
	if c.query != "" {
		q.Set("q", c.query)
	}
	if cursor.MaxID != "" {
		q.Set("max_id", cursor.MaxID)
	}

	resp, err := c.t.get(ctx, c.endpoint, q)
	if err != nil {
		return Page{}, err
	}
	var raws []json.RawMessage
	if err := c.t.decode(resp.body, &raws); err != nil {
		return Page{}, err
	}

	var page Page
	for i, raw := range raws {
		e, err := c.item(raw)
		if err != nil {
			page.Dropped = append(page.Dropped, itemError(c.t.backend, i, err))
			continue
		}
		page.Entities = append(page.Entities, e)
	}
	if next := nextMaxID(resp.header.Get("Link")); next != "" && len(raws) > 0 {
		page.Next = Cursor{MaxID: next}
		page.HasMore = true
	}
	return page, nil
}

func (c *Mastodon) item(raw json.RawMessage) (entity.Entity, error) {
	if c.resource == ResourceAccounts {
		var a mastoAccount
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		if a.ID == "" {
			return nil, errMissingID
		}
		return a.toAccount(), nil
	}
	var st mastoStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	if st.ID == "" {
		return nil, errMissingID
	}
	return mastoPost(st, 0), nil
}

func mastoPost(st mastoStatus, depth int) *entity.Post {
	p := &entity.Post{
		ID:          st.ID,
		Text:        st.Content,
		CreatedAt:   st.CreatedAt,
		InReplyToID: st.InReplyToID,
		Language:    st.Language,
	}
	if st.Account != nil && st.Account.ID != "" {
		p.Author = st.Account.toAccount()
		p.AuthorID = entity.String(st.Account.ID)
	}
	if st.Reblog != nil {
		if sub := mastoEmbedded(*st.Reblog, depth); sub != nil {
			p.RepostOf = sub
			p.RepostOfID = entity.String(sub.ID)
		}
	}
	if st.Quote != nil && st.Quote.QuotedStatus != nil {
		if sub := mastoEmbedded(*st.Quote.QuotedStatus, depth); sub != nil {
			p.QuoteOf = sub
			p.QuoteOfID = entity.String(sub.ID)
		}
	}
	if st.RepliesCount != nil || st.ReblogsCount != nil || st.FavouritesCount != nil || st.QuotesCount != nil {
		p.Metrics = &entity.PostMetrics{
			Likes:   st.FavouritesCount,
			Reposts: st.ReblogsCount,
			Replies: st.RepliesCount,
			Quotes:  st.QuotesCount,
		}
	}
	if st.Favourited != nil || st.Reblogged != nil || st.Bookmarked != nil {
		p.Viewer = &entity.PostViewerState{
			Liked:      st.Favourited,
			Reposted:   st.Reblogged,
			Bookmarked: st.Bookmarked,
		}
	}
	if st.MediaAttachments != nil {
		p.Media = make([]entity.Media, 0, len(st.MediaAttachments))
		for _, m := range st.MediaAttachments {
			media := entity.Media{
				ID:         m.ID,
				Type:       m.Type,
				URL:        m.URL,
				PreviewURL: m.PreviewURL,
				Width:      m.Meta.Original.Width,
				Height:     m.Meta.Original.Height,
			}
			if m.Description != nil {
				media.AltText = *m.Description
			}
			p.Media = append(p.Media, media)
		}
	}
	if st.Mentions != nil {
		// Mastodon mentions carry no text span.
		p.Mentions = make([]entity.Mention, 0, len(st.Mentions))
		for _, m := range st.Mentions {
			mention := entity.Mention{Username: m.Acct}
			if mention.Username == "" {
				mention.Username = m.Username
			}
			if m.ID != "" {
				mention.UserID = entity.String(m.ID)
			}
			p.Mentions = append(p.Mentions, mention)
		}
	}
	return p
}

func mastoEmbedded(raw json.RawMessage, depth int) *entity.Post {
	if depth+1 > v2IncludeDepth {
		return nil
	}
	var st mastoStatus
	if err := json.Unmarshal(raw, &st); err != nil || st.ID == "" {
		return nil
	}
	return mastoPost(st, depth+1)
}

func (a mastoAccount) toAccount() *entity.Account {
	out := &entity.Account{
		ID:              a.ID,
		DisplayName:     a.DisplayName,
		Handle:          a.Acct,
		CreatedAt:       a.CreatedAt,
		Bio:             a.Note,
		URL:             a.URL,
		ProfileImageURL: a.Avatar,
		BannerURL:       a.Header,
		Protected:       a.Locked,
	}
	if out.Handle == nil {
		out.Handle = a.Username
	}
	if a.FollowersCount != nil || a.FollowingCount != nil || a.StatusesCount != nil {
		out.Metrics = &entity.AccountMetrics{
			Followers: a.FollowersCount,
			Following: a.FollowingCount,
			Posts:     a.StatusesCount,
		}
	}
	return out
}

// nextMaxID extracts max_id from the rel="next" entry of a Link header.
func nextMaxID(link string) string {
	for _, part := range strings.Split(link, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		isNext := false
		for _, s := range segs[1:] {
			if strings.TrimSpace(s) == `rel="next"` {
				isNext = true
			}
		}
		if !isNext {
			continue
		}
		raw := strings.Trim(strings.TrimSpace(segs[0]), "<>")
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return u.Query().Get("max_id")
	}
	return ""
}
