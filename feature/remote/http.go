package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedsync/core/utils"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// transport holds the HTTP plumbing shared by all backends.
type transport struct {
	backend string
	baseURL string
	token   string
	client  *http.Client
	now     func() time.Time
}

func newTransport(backend string, cfg Config) transport {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return transport{
		backend: backend,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// response is a successful HTTP exchange.
type response struct {
	body   []byte
	header http.Header
}

// get issues an authenticated GET and classifies any failure.
func (t transport) get(ctx context.Context, path string, query url.Values) (response, error) {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return response{}, t.fail(KindOther, 0, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, ctxErr
		}
		return response{}, t.fail(KindTransient, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, ctxErr
		}
		return response{}, t.fail(KindTransient, resp.StatusCode, fmt.Errorf("failed to read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Backend: t.backend,
			Status:  resp.StatusCode,
			Err:     errors.New(snippet(body)),
		}
		if e.Kind == KindRateLimited {
			e.RetryAfter = t.retryAfter(resp.Header)
		}
		return response{}, e
	}
	return response{body: body, header: resp.Header}, nil
}

// decode unmarshals a whole response body, reporting failures as KindDecode.
func (t transport) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Kind: KindDecode, Backend: t.backend, Body: body, Err: err}
	}
	return nil
}

func (t transport) fail(kind Kind, status int, err error) *Error {
	return &Error{Kind: kind, Backend: t.backend, Status: status, Err: err}
}

// retryAfter reads the wait hint from Retry-After or the backend reset headers.
func (t transport) retryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs := utils.ToInt64(v); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			return positive(at.Sub(t.now()))
		}
	}
	// Twitter: unix seconds.
	if v := h.Get("X-Rate-Limit-Reset"); v != "" {
		if epoch := utils.ToInt64(v); epoch > 0 {
			return positive(time.Unix(epoch, 0).Sub(t.now()))
		}
	}
	// Mastodon: RFC 3339 timestamp.
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if at, err := time.Parse(time.RFC3339, v); err == nil {
			return positive(at.Sub(t.now()))
		}
	}
	return 0
}

func positive(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}

// itemError describes one undecodable item of a page.
func itemError(backend string, index int, err error) error {
	return &Error{Kind: KindDecode, Backend: backend, Err: fmt.Errorf("item %d: %w", index, err)}
}
