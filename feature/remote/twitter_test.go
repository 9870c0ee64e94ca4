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

const v2SearchBody = `{
  "data": [
    {
      "id": "300",
      "text": "RT look at this",
      "author_id": "u1",
      "created_at": "2024-05-01T10:00:00.000Z",
      "referenced_tweets": [{"type": "retweeted", "id": "200"}],
      "public_metrics": {"like_count": 0, "retweet_count": 4}
    },
    {
      "id": "299",
      "text": "hi @Bob and @carol",
      "author_id": "u2",
      "lang": "en",
      "entities": {"mentions": [
        {"start": 3, "end": 7, "username": "Bob"},
        {"start": 12, "end": 18, "username": "carol", "id": "u9"}
      ]},
      "attachments": {"media_keys": ["3_1", "3_missing"]},
      "geo": {"place_id": "pl1"}
    },
    "not an object",
    {"text": "no id"}
  ],
  "includes": {
    "users": [
      {"id": "u1", "name": "One", "username": "one", "public_metrics": {"followers_count": 12}},
      {"id": "u2", "name": "Two", "username": "two"},
      {"id": "u3", "name": "Bob", "username": "bob"}
    ],
    "tweets": [
      {"id": "200", "text": "original", "author_id": "u3", "referenced_tweets": [{"type": "quoted", "id": "100"}]}
    ],
    "media": [{"media_key": "3_1", "type": "photo", "url": "https://pbs/1.jpg", "width": 640, "height": 480}],
    "places": [{"id": "pl1", "full_name": "Bergen, Norway", "country_code": "NO"}]
  },
  "meta": {"result_count": 2, "next_token": "tok2"}
}`

func TestTwitter_Fetch(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets/search/recent", r.URL.Path)
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(v2SearchBody))
	}))
	defer srv.Close()

	f := NewTwitter(Config{BaseURL: srv.URL, Endpoint: "/2/tweets/search/recent", Query: "golang"})
	page, err := f.Fetch(context.Background(), Cursor{Token: "tok1", MaxID: "500"}, 2)
	require.NoError(t, err)

	assert.Equal(t, "golang", query["query"])
	assert.Equal(t, "tok1", query["pagination_token"])
	assert.Equal(t, "500", query["until_id"])
	assert.Equal(t, "5", query["max_results"])

	assert.True(t, page.HasMore)
	assert.Equal(t, Cursor{Token: "tok2", MaxID: "500"}, page.Next)
	require.Len(t, page.Entities, 2)
	assert.Len(t, page.Dropped, 2)
	assert.True(t, IsDecode(page.Dropped[0]))

	rt := page.Entities[0].(*entity.Post)
	assert.Equal(t, "300", rt.ID)
	require.NotNil(t, rt.Author)
	assert.Equal(t, "one", *rt.Author.Handle)
	assert.Equal(t, int64(12), *rt.Author.Metrics.Followers)
	require.NotNil(t, rt.RepostOf)
	assert.Equal(t, "200", rt.RepostOf.ID)
	assert.Equal(t, "bob", *rt.RepostOf.Author.Handle)
	// Quote of the included tweet is not in includes, only the id is kept.
	assert.Nil(t, rt.RepostOf.QuoteOf)
	assert.Equal(t, "100", *rt.RepostOf.QuoteOfID)
	assert.Equal(t, int64(0), *rt.Metrics.Likes)
	assert.Equal(t, int64(4), *rt.Metrics.Reposts)
	assert.Nil(t, rt.Metrics.Replies)
	assert.Nil(t, rt.Media)

	mp := page.Entities[1].(*entity.Post)
	require.Len(t, mp.Mentions, 2)
	require.NotNil(t, mp.Mentions[0].UserID)
	assert.Equal(t, "u3", *mp.Mentions[0].UserID)
	assert.Equal(t, "u9", *mp.Mentions[1].UserID)
	require.Len(t, mp.Media, 1)
	assert.Equal(t, 640, mp.Media[0].Width)
	assert.Equal(t, "Bergen, Norway", mp.Place.FullName)
	assert.Equal(t, "en", *mp.Language)
}

func TestTwitter_LastPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"1","text":"x"}],"meta":{"result_count":1}}`))
	}))
	defer srv.Close()

	page, err := NewTwitter(Config{BaseURL: srv.URL}).Fetch(context.Background(), Cursor{}, 50)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Entities, 1)
}

func TestTwitter_MalformedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	}))
	defer srv.Close()

	_, err := NewTwitter(Config{BaseURL: srv.URL}).Fetch(context.Background(), Cursor{}, 10)
	require.True(t, IsDecode(err))

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []byte(`{"data": [`), re.Body)
}

func TestTwitter_Accounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("expansions"))
		_, _ = w.Write([]byte(`{"data":[{"id":"u1","username":"one","protected":true}],"meta":{"next_token":"n"}}`))
	}))
	defer srv.Close()

	f := NewTwitter(Config{BaseURL: srv.URL, Resource: string(ResourceAccounts)})
	page, err := f.Fetch(context.Background(), Cursor{}, 10)
	require.NoError(t, err)
	require.Len(t, page.Entities, 1)
	acct := page.Entities[0].(*entity.Account)
	assert.Equal(t, "one", *acct.Handle)
	assert.True(t, *acct.Protected)
	assert.True(t, page.HasMore)
}
