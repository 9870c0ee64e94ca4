package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"feedsync/core/entity"
	"feedsync/core/utils"
)

// legacyTimeLayout is the created_at format of the v1.1 API.
const legacyTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// TwitterLegacy fetches from the Twitter v1.1 REST API. Pages are addressed by
// max_id, which the API treats as inclusive.
type TwitterLegacy struct {
	t        transport
	endpoint string
	query    string
}

// NewTwitterLegacy creates a v1.1 fetcher.
func NewTwitterLegacy(cfg Config) *TwitterLegacy {
	return &TwitterLegacy{
		t:        newTransport(BackendTwitterLegacy, cfg),
		endpoint: cfg.Endpoint,
		query:    cfg.Query,
	}
}

type legacyStatus struct {
	IDStr                string           `json:"id_str"`
	ID                   json.Number      `json:"id"`
	FullText             *string          `json:"full_text"`
	Text                 *string          `json:"text"`
	CreatedAt            string           `json:"created_at"`
	InReplyToStatusIDStr *string          `json:"in_reply_to_status_id_str"`
	Lang                 *string          `json:"lang"`
	User                 *legacyUser      `json:"user"`
	RetweetedStatus      *json.RawMessage `json:"retweeted_status"`
	QuotedStatusIDStr    *string          `json:"quoted_status_id_str"`
	QuotedStatus         *json.RawMessage `json:"quoted_status"`
	FavoriteCount        *int64           `json:"favorite_count"`
	RetweetCount         *int64           `json:"retweet_count"`
	ReplyCount           *int64           `json:"reply_count"`
	QuoteCount           *int64           `json:"quote_count"`
	Favorited            *bool            `json:"favorited"`
	Retweeted            *bool            `json:"retweeted"`
	Entities             *struct {
		UserMentions []struct {
			ScreenName string      `json:"screen_name"`
			IDStr      string      `json:"id_str"`
			Indices    []int       `json:"indices"`
			ID         json.Number `json:"id"`
		} `json:"user_mentions"`
	} `json:"entities"`
	ExtendedEntities *struct {
		Media []struct {
			IDStr         string `json:"id_str"`
			Type          string `json:"type"`
			MediaURLHTTPS string `json:"media_url_https"`
			ExtAltText    string `json:"ext_alt_text"`
			Sizes         struct {
				Large struct {
					W int `json:"w"`
					H int `json:"h"`
				} `json:"large"`
			} `json:"sizes"`
		} `json:"media"`
	} `json:"extended_entities"`
	Place *struct {
		ID          string `json:"id"`
		FullName    string `json:"full_name"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"place"`
}

type legacyUser struct {
	IDStr                string      `json:"id_str"`
	ID                   json.Number `json:"id"`
	Name                 *string     `json:"name"`
	ScreenName           *string     `json:"screen_name"`
	CreatedAt            string      `json:"created_at"`
	Description          *string     `json:"description"`
	Location             *string     `json:"location"`
	URL                  *string     `json:"url"`
	ProfileImageURLHTTPS *string     `json:"profile_image_url_https"`
	ProfileBannerURL     *string     `json:"profile_banner_url"`
	Protected            *bool       `json:"protected"`
	Verified             *bool       `json:"verified"`
	FollowersCount       *int64      `json:"followers_count"`
	FriendsCount         *int64      `json:"friends_count"`
	ListedCount          *int64      `json:"listed_count"`
	StatusesCount        *int64      `json:"statuses_count"`
	Following            *bool       `json:"following"`
	FollowRequestSent    *bool       `json:"follow_request_sent"`
}

// Fetch implements Fetcher.
func (c *TwitterLegacy) Fetch(ctx context.Context, cursor Cursor, pageSize int) (Page, error) {
	q := url.Values{}
	count := clamp(pageSize, 1, 200)
	q.Set("count", strconv.Itoa(count))
	q.Set("tweet_mode", "extended")
	if c.query != "" {
		q.Set("q", c.query)
	}
	if cursor.MaxID != "" {
		q.Set("max_id", PrevID(cursor.MaxID))
	}

	resp, err := c.t.get(ctx, c.endpoint, q)
	if err != nil {
		return Page{}, err
	}

	// Timelines return a bare array, search wraps it in an object.
	var raws []json.RawMessage
	if trimmed := bytes.TrimSpace(resp.body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = c.t.decode(resp.body, &raws)
	} else {
		var wrapped struct {
			Statuses []json.RawMessage `json:"statuses"`
		}
		err = c.t.decode(resp.body, &wrapped)
		raws = wrapped.Statuses
	}
	if err != nil {
		return Page{}, err
	}

	var page Page
	lowest := ""
	for i, raw := range raws {
		var st legacyStatus
		if err := json.Unmarshal(raw, &st); err != nil {
			page.Dropped = append(page.Dropped, itemError(c.t.backend, i, err))
			continue
		}
		post := legacyPost(st, 0)
		if post == nil {
			page.Dropped = append(page.Dropped, itemError(c.t.backend, i, errMissingID))
			continue
		}
		page.Entities = append(page.Entities, post)
		if lowest == "" || CompareIDs(post.ID, lowest) < 0 {
			lowest = post.ID
		}
	}
	if lowest != "" {
		page.Next = Cursor{MaxID: lowest}
		// A short page is the last one.
		page.HasMore = len(raws) >= count
	}
	return page, nil
}

func legacyPost(st legacyStatus, depth int) *entity.Post {
	id := legacyID(st.IDStr, st.ID)
	if id == "" {
		return nil
	}
	p := &entity.Post{
		ID:          id,
		Text:        st.FullText,
		InReplyToID: st.InReplyToStatusIDStr,
		Language:    st.Lang,
	}
	if p.Text == nil {
		p.Text = st.Text
	}
	if t, err := time.Parse(legacyTimeLayout, st.CreatedAt); err == nil {
		p.CreatedAt = &t
	}
	if st.User != nil {
		p.Author = st.User.toAccount()
		if p.Author != nil {
			p.AuthorID = entity.String(p.Author.ID)
		}
	}
	if st.RetweetedStatus != nil {
		if sub := legacyEmbedded(*st.RetweetedStatus, depth); sub != nil {
			p.RepostOf = sub
			p.RepostOfID = entity.String(sub.ID)
		}
	}
	if st.QuotedStatus != nil {
		if sub := legacyEmbedded(*st.QuotedStatus, depth); sub != nil {
			p.QuoteOf = sub
			p.QuoteOfID = entity.String(sub.ID)
		}
	}
	if p.QuoteOfID == nil && st.QuotedStatusIDStr != nil && *st.QuotedStatusIDStr != "" {
		p.QuoteOfID = st.QuotedStatusIDStr
	}
	if st.FavoriteCount != nil || st.RetweetCount != nil || st.ReplyCount != nil || st.QuoteCount != nil {
		p.Metrics = &entity.PostMetrics{
			Likes:   st.FavoriteCount,
			Reposts: st.RetweetCount,
			Replies: st.ReplyCount,
			Quotes:  st.QuoteCount,
		}
	}
	if st.Favorited != nil || st.Retweeted != nil {
		p.Viewer = &entity.PostViewerState{Liked: st.Favorited, Reposted: st.Retweeted}
	}
	if st.Entities != nil {
		p.Mentions = make([]entity.Mention, 0, len(st.Entities.UserMentions))
		for _, m := range st.Entities.UserMentions {
			mention := entity.Mention{Username: m.ScreenName}
			if len(m.Indices) == 2 {
				mention.Start, mention.End = m.Indices[0], m.Indices[1]
			}
			if uid := legacyID(m.IDStr, m.ID); uid != "" {
				mention.UserID = entity.String(uid)
			}
			p.Mentions = append(p.Mentions, mention)
		}
	}
	if st.ExtendedEntities != nil {
		p.Media = make([]entity.Media, 0, len(st.ExtendedEntities.Media))
		for _, m := range st.ExtendedEntities.Media {
			p.Media = append(p.Media, entity.Media{
				ID:      m.IDStr,
				Type:    m.Type,
				URL:     m.MediaURLHTTPS,
				Width:   m.Sizes.Large.W,
				Height:  m.Sizes.Large.H,
				AltText: m.ExtAltText,
			})
		}
	}
	if st.Place != nil {
		p.Place = &entity.Place{
			ID:          st.Place.ID,
			FullName:    st.Place.FullName,
			Country:     st.Place.Country,
			CountryCode: st.Place.CountryCode,
		}
	}
	return p
}

// legacyEmbedded decodes a nested status. Undecodable or too deep nesting is dropped.
func legacyEmbedded(raw json.RawMessage, depth int) *entity.Post {
	if depth+1 > v2IncludeDepth {
		return nil
	}
	var st legacyStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil
	}
	return legacyPost(st, depth+1)
}

func (u *legacyUser) toAccount() *entity.Account {
	id := legacyID(u.IDStr, u.ID)
	if id == "" {
		return nil
	}
	a := &entity.Account{
		ID:              id,
		DisplayName:     u.Name,
		Handle:          u.ScreenName,
		Bio:             u.Description,
		Location:        u.Location,
		URL:             u.URL,
		ProfileImageURL: u.ProfileImageURLHTTPS,
		BannerURL:       u.ProfileBannerURL,
		Protected:       u.Protected,
		Verified:        u.Verified,
	}
	if t, err := time.Parse(legacyTimeLayout, u.CreatedAt); err == nil {
		a.CreatedAt = &t
	}
	if u.FollowersCount != nil || u.FriendsCount != nil || u.ListedCount != nil || u.StatusesCount != nil {
		a.Metrics = &entity.AccountMetrics{
			Followers: u.FollowersCount,
			Following: u.FriendsCount,
			Listed:    u.ListedCount,
			Posts:     u.StatusesCount,
		}
	}
	if u.Following != nil || u.FollowRequestSent != nil {
		a.Relationship = &entity.Relationship{
			FollowedByViewer:     u.Following,
			FollowRequestPending: u.FollowRequestSent,
		}
	}
	return a
}

// legacyID prefers the string form; the numeric form loses precision in
// clients that decode into floats.
func legacyID(s string, n json.Number) string {
	if s != "" {
		return s
	}
	return utils.ToString(n)
}
