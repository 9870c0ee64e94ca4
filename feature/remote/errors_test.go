package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusRequestTimeout, KindTransient},
		{http.StatusBadGateway, KindTransient},
		{http.StatusServiceUnavailable, KindTransient},
		{http.StatusNotFound, KindOther},
		{http.StatusBadRequest, KindOther},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, kindForStatus(tt.status))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindOther, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("fetch: %w", &Error{Kind: KindRateLimited, RetryAfter: time.Minute})
	assert.True(t, IsRateLimited(wrapped))
	assert.False(t, IsTransient(wrapped))
	assert.Equal(t, time.Minute, RetryAfter(wrapped))
	assert.Zero(t, RetryAfter(errors.New("plain")))
}

func TestTransport_ClassifiesResponses(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantKind  Kind
		wantRetry time.Duration
	}{
		{
			name: "retry-after seconds",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind:  KindRateLimited,
			wantRetry: 30 * time.Second,
		},
		{
			name: "twitter reset epoch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("x-rate-limit-reset", strconv.FormatInt(now.Add(2*time.Minute).Unix(), 10))
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind:  KindRateLimited,
			wantRetry: 2 * time.Minute,
		},
		{
			name: "mastodon reset timestamp",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Reset", now.Add(90*time.Second).Format(time.RFC3339))
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantKind:  KindRateLimited,
			wantRetry: 90 * time.Second,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			},
			wantKind: KindUnauthorized,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: KindTransient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			tr := newTransport("test", Config{BaseURL: srv.URL})
			tr.now = func() time.Time { return now }
			_, err := tr.get(context.Background(), "/x", nil)

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantKind, re.Kind)
			assert.Equal(t, tt.wantRetry, re.RetryAfter)
		})
	}
}

func TestTransport_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tr := newTransport("test", Config{BaseURL: srv.URL + "/", Token: "secret"})
	_, err := tr.get(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got)
}

func TestTransport_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	tr := newTransport("test", Config{BaseURL: base, TimeoutSeconds: 1})
	_, err := tr.get(context.Background(), "/x", nil)
	assert.True(t, IsTransient(err))
}

func TestTransport_CanceledContextIsNotClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := newTransport("test", Config{BaseURL: srv.URL})
	_, err := tr.get(ctx, "/x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrevIDAndCompare(t *testing.T) {
	assert.Equal(t, "99", PrevID("100"))
	assert.Equal(t, "abc", PrevID("abc"))
	assert.Equal(t, "0", PrevID("0"))
	assert.Equal(t, -1, CompareIDs("99", "100"))
	assert.Equal(t, 1, CompareIDs("200", "100"))
	assert.Equal(t, 0, CompareIDs("5", "5"))
}

func TestNew(t *testing.T) {
	for _, backend := range []string{BackendTwitter, BackendTwitterLegacy, BackendMastodon} {
		f, err := New(Config{Backend: backend})
		require.NoError(t, err, backend)
		assert.NotNil(t, f)
	}
	_, err := New(Config{Backend: "myspace"})
	assert.Error(t, err)

	assert.Nil(t, NewFallback(Config{Backend: BackendMastodon, LegacyEndpoint: "/x"}))
	assert.Nil(t, NewFallback(Config{Backend: BackendTwitter}))
	assert.IsType(t, &TwitterLegacy{}, NewFallback(Config{Backend: BackendTwitter, LegacyEndpoint: "/1.1/search/tweets.json"}))
}
