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

const (
	v2TweetFields = "id,text,author_id,created_at,conversation_id,in_reply_to_user_id,lang,referenced_tweets,public_metrics,entities,attachments,geo"
	v2UserFields  = "id,name,username,created_at,description,location,url,profile_image_url,protected,verified,public_metrics"
	v2Expansions  = "author_id,referenced_tweets.id,referenced_tweets.id.author_id,attachments.media_keys,geo.place_id,entities.mentions.username"
	v2MediaFields = "media_key,type,url,preview_image_url,width,height,alt_text"
	v2PlaceFields = "id,full_name,country,country_code"

	// Search and timeline endpoints reject max_results outside this range.
	v2MinResults = 5
	v2MaxResults = 100
)

// Twitter fetches from the Twitter v2 API.
type Twitter struct {
	t        transport
	endpoint string
	query    string
	resource Resource
}

// NewTwitter creates a Twitter v2 fetcher.
func NewTwitter(cfg Config) *Twitter {
	return &Twitter{
		t:        newTransport(BackendTwitter, cfg),
		endpoint: cfg.Endpoint,
		query:    cfg.Query,
		resource: resourceOf(cfg.Resource),
	}
}

type v2Response struct {
	Data     []json.RawMessage `json:"data"`
	Includes struct {
		Users  []v2User          `json:"users"`
		Tweets []json.RawMessage `json:"tweets"`
		Media  []v2Media         `json:"media"`
		Places []v2Place         `json:"places"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type v2Tweet struct {
	ID               string     `json:"id"`
	Text             *string    `json:"text"`
	AuthorID         *string    `json:"author_id"`
	CreatedAt        *time.Time `json:"created_at"`
	ConversationID   *string    `json:"conversation_id"`
	Lang             *string    `json:"lang"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
	PublicMetrics *struct {
		RetweetCount *int64 `json:"retweet_count"`
		ReplyCount   *int64 `json:"reply_count"`
		LikeCount    *int64 `json:"like_count"`
		QuoteCount   *int64 `json:"quote_count"`
	} `json:"public_metrics"`
	Entities *struct {
		Mentions []struct {
			Start    int    `json:"start"`
			End      int    `json:"end"`
			Username string `json:"username"`
			ID       string `json:"id"`
		} `json:"mentions"`
	} `json:"entities"`
	Attachments *struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
	Geo *struct {
		PlaceID string `json:"place_id"`
	} `json:"geo"`
}

type v2User struct {
	ID              string     `json:"id"`
	Name            *string    `json:"name"`
	Username        *string    `json:"username"`
	CreatedAt       *time.Time `json:"created_at"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
	URL             *string    `json:"url"`
	ProfileImageURL *string    `json:"profile_image_url"`
	Protected       *bool      `json:"protected"`
	Verified        *bool      `json:"verified"`
	PublicMetrics   *struct {
		FollowersCount *int64 `json:"followers_count"`
		FollowingCount *int64 `json:"following_count"`
		ListedCount    *int64 `json:"listed_count"`
		TweetCount     *int64 `json:"tweet_count"`
	} `json:"public_metrics"`
}

type v2Media struct {
	MediaKey        string `json:"media_key"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	PreviewImageURL string `json:"preview_image_url"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	AltText         string `json:"alt_text"`
}

type v2Place struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// Fetch implements Fetcher.
func (c *Twitter) Fetch(ctx context.Context, cursor Cursor, pageSize int) (Page, error) {
	q := url.Values{}
	q.Set("max_results", strconv.Itoa(clamp(pageSize, v2MinResults, v2MaxResults)))
	if c.query != "" {
		q.Set("query", c.query)
	}
	if cursor.Token != "" {
		q.Set("pagination_token", cursor.Token)
	}
	if cursor.MaxID != "" {
		q.Set("until_id", cursor.MaxID)
	}
	q.Set("user.fields", v2UserFields)
	if c.resource == ResourcePosts {
		q.Set("tweet.fields", v2TweetFields)
		q.Set("expansions", v2Expansions)
		q.Set("media.fields", v2MediaFields)
		q.Set("place.fields", v2PlaceFields)
	}

	resp, err := c.t.get(ctx, c.endpoint, q)
	if err != nil {
		return Page{}, err
	}
	var body v2Response
	if err := c.t.decode(resp.body, &body); err != nil {
		return Page{}, err
	}

	page := Page{
		Next:    Cursor{Token: body.Meta.NextToken, MaxID: cursor.MaxID},
		HasMore: body.Meta.NextToken != "",
	}
	if c.resource == ResourceAccounts {
		for i, raw := range body.Data {
			var u v2User
			if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
				page.Dropped = append(page.Dropped, itemError(c.t.backend, i, orMissingID(err)))
				continue
			}
			page.Entities = append(page.Entities, u.toAccount())
		}
		return page, nil
	}

	ix := newV2Index(body)
	for i, raw := range body.Data {
		var tw v2Tweet
		if err := json.Unmarshal(raw, &tw); err != nil || tw.ID == "" {
			page.Dropped = append(page.Dropped, itemError(c.t.backend, i, orMissingID(err)))
			continue
		}
		page.Entities = append(page.Entities, ix.post(tw, 0))
	}
	return page, nil
}

// v2Index resolves expansion references of one response.
type v2Index struct {
	users         map[string]v2User
	usersByHandle map[string]v2User
	tweets        map[string]v2Tweet
	media         map[string]v2Media
	places        map[string]v2Place
}

// v2IncludeDepth bounds how far referenced tweets are resolved from includes.
const v2IncludeDepth = 2

func newV2Index(body v2Response) *v2Index {
	ix := &v2Index{
		users:         make(map[string]v2User, len(body.Includes.Users)),
		usersByHandle: make(map[string]v2User, len(body.Includes.Users)),
		tweets:        make(map[string]v2Tweet, len(body.Includes.Tweets)),
		media:         make(map[string]v2Media, len(body.Includes.Media)),
		places:        make(map[string]v2Place, len(body.Includes.Places)),
	}
	for _, u := range body.Includes.Users {
		ix.users[u.ID] = u
		if u.Username != nil {
			ix.usersByHandle[strings.ToLower(*u.Username)] = u
		}
	}
	for _, raw := range body.Includes.Tweets {
		var tw v2Tweet
		// Malformed includes are ignored; the referencing tweet keeps the bare id.
		if err := json.Unmarshal(raw, &tw); err == nil && tw.ID != "" {
			ix.tweets[tw.ID] = tw
		}
	}
	for _, m := range body.Includes.Media {
		ix.media[m.MediaKey] = m
	}
	for _, p := range body.Includes.Places {
		ix.places[p.ID] = p
	}
	return ix
}

func (ix *v2Index) post(tw v2Tweet, depth int) *entity.Post {
	p := &entity.Post{
		ID:             tw.ID,
		Text:           tw.Text,
		CreatedAt:      tw.CreatedAt,
		AuthorID:       tw.AuthorID,
		ConversationID: tw.ConversationID,
		Language:       tw.Lang,
	}
	if tw.AuthorID != nil {
		if u, ok := ix.users[*tw.AuthorID]; ok {
			p.Author = u.toAccount()
		}
	}
	for _, ref := range tw.ReferencedTweets {
		id := ref.ID
		switch ref.Type {
		case "retweeted":
			p.RepostOfID = &id
			p.RepostOf = ix.referenced(id, depth)
		case "quoted":
			p.QuoteOfID = &id
			p.QuoteOf = ix.referenced(id, depth)
		case "replied_to":
			p.InReplyToID = &id
		}
	}
	if m := tw.PublicMetrics; m != nil {
		p.Metrics = &entity.PostMetrics{
			Likes:   m.LikeCount,
			Reposts: m.RetweetCount,
			Replies: m.ReplyCount,
			Quotes:  m.QuoteCount,
		}
	}
	if tw.Attachments != nil {
		p.Media = make([]entity.Media, 0, len(tw.Attachments.MediaKeys))
		for _, key := range tw.Attachments.MediaKeys {
			m, ok := ix.media[key]
			if !ok {
				continue
			}
			p.Media = append(p.Media, entity.Media{
				ID:         m.MediaKey,
				Type:       m.Type,
				URL:        m.URL,
				PreviewURL: m.PreviewImageURL,
				Width:      m.Width,
				Height:     m.Height,
				AltText:    m.AltText,
			})
		}
	}
	if tw.Entities != nil {
		p.Mentions = make([]entity.Mention, 0, len(tw.Entities.Mentions))
		for _, m := range tw.Entities.Mentions {
			mention := entity.Mention{Start: m.Start, End: m.End, Username: m.Username}
			if m.ID != "" {
				mention.UserID = entity.String(m.ID)
			} else if u, ok := ix.usersByHandle[strings.ToLower(m.Username)]; ok {
				// Best effort: a renamed account will not resolve.
				mention.UserID = entity.String(u.ID)
			}
			p.Mentions = append(p.Mentions, mention)
		}
	}
	if tw.Geo != nil && tw.Geo.PlaceID != "" {
		if pl, ok := ix.places[tw.Geo.PlaceID]; ok {
			p.Place = &entity.Place{ID: pl.ID, FullName: pl.FullName, Country: pl.Country, CountryCode: pl.CountryCode}
		} else {
			p.Place = &entity.Place{ID: tw.Geo.PlaceID}
		}
	}
	return p
}

func (ix *v2Index) referenced(id string, depth int) *entity.Post {
	if depth+1 > v2IncludeDepth {
		return nil
	}
	tw, ok := ix.tweets[id]
	if !ok {
		return nil
	}
	return ix.post(tw, depth+1)
}

func (u v2User) toAccount() *entity.Account {
	a := &entity.Account{
		ID:              u.ID,
		DisplayName:     u.Name,
		Handle:          u.Username,
		CreatedAt:       u.CreatedAt,
		Bio:             u.Description,
		Location:        u.Location,
		URL:             u.URL,
		ProfileImageURL: u.ProfileImageURL,
		Protected:       u.Protected,
		Verified:        u.Verified,
	}
	if m := u.PublicMetrics; m != nil {
		a.Metrics = &entity.AccountMetrics{
			Followers: m.FollowersCount,
			Following: m.FollowingCount,
			Listed:    m.ListedCount,
			Posts:     m.TweetCount,
		}
	}
	return a
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func resourceOf(s string) Resource {
	if Resource(s) == ResourceAccounts {
		return ResourceAccounts
	}
	return ResourcePosts
}

func orMissingID(err error) error {
	if err != nil {
		return err
	}
	return errMissingID
}
