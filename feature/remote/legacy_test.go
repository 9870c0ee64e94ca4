package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedsync/core/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyTimelineBody = `[
  {
    "id": 1790000000000000002,
    "id_str": "1790000000000000002",
    "full_text": "RT @orig: quoted thing",
    "created_at": "Wed May 01 10:00:00 +0000 2024",
    "favorited": true,
    "retweeted": false,
    "user": {"id_str": "10", "screen_name": "reposter", "followers_count": 3, "following": true},
    "retweeted_status": {
      "id_str": "1790000000000000001",
      "text": "quoted thing",
      "user": {"id_str": "11", "screen_name": "orig"},
      "quoted_status_id_str": "1780000000000000000",
      "favorite_count": 9
    },
    "entities": {"user_mentions": [{"screen_name": "orig", "id_str": "11", "indices": [3, 8]}]},
    "extended_entities": {"media": [{"id_str": "77", "type": "photo", "media_url_https": "https://pbs/77.jpg", "sizes": {"large": {"w": 100, "h": 50}}}]},
    "place": {"id": "p9", "full_name": "Paris, France", "country_code": "FR"}
  },
  {"id": 1789999999999999000, "text": "numeric id only"},
  {"text": "no id at all"}
]`

func TestTwitterLegacy_Fetch(t *testing.T) {
	var maxID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		maxID = r.URL.Query().Get("max_id")
		assert.Equal(t, "extended", r.URL.Query().Get("tweet_mode"))
		_, _ = w.Write([]byte(legacyTimelineBody))
	}))
	defer srv.Close()

	f := NewTwitterLegacy(Config{BaseURL: srv.URL, Endpoint: "/1.1/statuses/home_timeline.json"})
	page, err := f.Fetch(context.Background(), Cursor{MaxID: "1790000000000000003"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "1790000000000000002", maxID)

	require.Len(t, page.Entities, 2)
	require.Len(t, page.Dropped, 1)
	assert.True(t, page.HasMore)
	assert.Equal(t, "1789999999999999000", page.Next.MaxID)

	p := page.Entities[0].(*entity.Post)
	assert.Equal(t, "RT @orig: quoted thing", *p.Text)
	assert.Equal(t, 2024, p.CreatedAt.Year())
	assert.Equal(t, "10", *p.AuthorID)
	assert.True(t, *p.Viewer.Liked)
	assert.False(t, *p.Viewer.Reposted)
	assert.True(t, *p.Author.Relationship.FollowedByViewer)
	require.NotNil(t, p.RepostOf)
	assert.Equal(t, "1790000000000000001", p.RepostOf.ID)
	assert.Equal(t, "1780000000000000000", *p.RepostOf.QuoteOfID)
	assert.Equal(t, int64(9), *p.RepostOf.Metrics.Likes)
	require.Len(t, p.Mentions, 1)
	assert.Equal(t, 3, p.Mentions[0].Start)
	assert.Equal(t, "11", *p.Mentions[0].UserID)
	require.Len(t, p.Media, 1)
	assert.Equal(t, 100, p.Media[0].Width)
	assert.Equal(t, "FR", p.Place.CountryCode)

	numeric := page.Entities[1].(*entity.Post)
	assert.Equal(t, "1789999999999999000", numeric.ID)
}

func TestTwitterLegacy_SearchEnvelopeAndEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from:me", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"statuses": [], "search_metadata": {}}`))
	}))
	defer srv.Close()

	f := NewTwitterLegacy(Config{BaseURL: srv.URL, Query: "from:me"})
	page, err := f.Fetch(context.Background(), Cursor{}, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Entities)
	assert.False(t, page.HasMore)
}

func TestTwitterLegacy_ShortPageIsLast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(legacyTimelineBody))
	}))
	defer srv.Close()

	f := NewTwitterLegacy(Config{BaseURL: srv.URL, Endpoint: "/1.1/statuses/home_timeline.json"})
	page, err := f.Fetch(context.Background(), Cursor{}, 20)
	require.NoError(t, err)
	require.Len(t, page.Entities, 2)
	assert.False(t, page.HasMore)
	assert.Equal(t, "1789999999999999000", page.Next.MaxID)
}
