package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-github/v30/github"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGitHubClient(t *testing.T, handler http.Handler) *github.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

type searchItem struct {
	Path       string  `json:"path"`
	HTMLURL    string  `json:"html_url"`
	Score      float64 `json:"score"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// pagedSearch serves len(sizes) pages of results with GitHub-style Link headers
func pagedSearch(t *testing.T, sizes []int, queries *[]url.Values) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/code", r.URL.Path)
		q := r.URL.Query()
		if queries != nil {
			*queries = append(*queries, q)
		}

		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 || page > len(sizes) {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}

		items := make([]searchItem, sizes[page-1])
		for i := range items {
			items[i].Path = fmt.Sprintf("p%d/file%d.py", page, i)
			items[i].HTMLURL = "https://github.com/copy/repo/blob/main/" + items[i].Path
			items[i].Score = 1.5
			items[i].Repository.FullName = "copy/repo"
		}

		if page < len(sizes) {
			next := *r.URL
			nq := next.Query()
			nq.Set("page", strconv.Itoa(page+1))
			next.RawQuery = nq.Encode()
			w.Header().Set("Link", fmt.Sprintf(`<http://%s%s>; rel="next"`, r.Host, next.RequestURI()))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_count": 110,
			"items":       items,
		})
	}
}

func TestSearch_PaginatesAllPages(t *testing.T) {
	var queries []url.Values
	client := newTestGitHubClient(t, pagedSearch(t, []int{50, 50, 10}, &queries))

	sc := NewSearchClient(client, time.Second, zerolog.Nop())
	var sleeps []time.Duration
	sc.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	findings, err := sc.Search(context.Background(), "OWNER:someone:SIG:12345", 50)
	require.NoError(t, err)

	assert.Len(t, findings, 110)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeps)

	require.Len(t, queries, 3)
	assert.Equal(t, `"OWNER:someone:SIG:12345" in:file`, queries[0].Get("q"))
	assert.Equal(t, "50", queries[0].Get("per_page"))

	first := findings[0]
	assert.Equal(t, "copy/repo", first.Repository)
	assert.Equal(t, "p1/file0.py", first.Path)
	assert.Equal(t, "https://github.com/copy/repo/blob/main/p1/file0.py", first.URL)
	assert.Equal(t, 1.5, first.Score)
}

func TestSearch_SinglePageDoesNotSleep(t *testing.T) {
	client := newTestGitHubClient(t, pagedSearch(t, []int{3}, nil))

	sc := NewSearchClient(client, time.Second, zerolog.Nop())
	calls := 0
	sc.sleep = func(context.Context, time.Duration) error {
		calls++
		return nil
	}

	findings, err := sc.Search(context.Background(), "marker-text-long-enough", 50)
	require.NoError(t, err)
	assert.Len(t, findings, 3)
	assert.Zero(t, calls)
}

func TestSearch_QueryRejected(t *testing.T) {
	client := newTestGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Validation Failed","errors":[{"message":"query too short"}]}`))
	}))

	findings, err := NewSearchClient(client, time.Second, zerolog.Nop()).Search(context.Background(), "ab", 50)

	assert.ErrorIs(t, err, ErrQueryRejected)
	assert.NotNil(t, findings)
	assert.Empty(t, findings)

	var serr *SearchError
	assert.False(t, errors.As(err, &serr))
}

func TestSearch_ServerErrorIsSearchError(t *testing.T) {
	client := newTestGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"Service Unavailable"}`))
	}))

	_, err := NewSearchClient(client, time.Second, zerolog.Nop()).Search(context.Background(), "marker", 50)

	var serr *SearchError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.JSONEq(t, `{"message":"Service Unavailable"}`, serr.Body)
	assert.NotErrorIs(t, err, ErrQueryRejected)
}

func TestSearch_NonJSONErrorKeepsRawBody(t *testing.T) {
	page := "<html><body><h1>502 Bad Gateway</h1></body></html>"
	client := newTestGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(page))
	}))

	_, err := NewSearchClient(client, time.Second, zerolog.Nop()).Search(context.Background(), "marker", 50)

	var serr *SearchError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	assert.Equal(t, page, serr.Body)
	assert.Contains(t, err.Error(), "502 Bad Gateway")
}

func TestSearch_FailureOnLaterPageIsFatal(t *testing.T) {
	pages := pagedSearch(t, []int{50, 50}, nil)
	client := newTestGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		pages(w, r)
	}))

	sc := NewSearchClient(client, time.Second, zerolog.Nop())
	sc.sleep = func(context.Context, time.Duration) error { return nil }

	findings, err := sc.Search(context.Background(), "marker", 50)

	var serr *SearchError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Nil(t, findings)
}

func TestSearch_ClampsPageSize(t *testing.T) {
	var queries []url.Values
	client := newTestGitHubClient(t, pagedSearch(t, []int{1}, &queries))

	_, err := NewSearchClient(client, time.Second, zerolog.Nop()).Search(context.Background(), "marker", 500)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "100", queries[0].Get("per_page"))
}

func TestSearch_ContextCancelledDuringDelay(t *testing.T) {
	client := newTestGitHubClient(t, pagedSearch(t, []int{50, 50}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	sc := NewSearchClient(client, time.Hour, zerolog.Nop())
	sc.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	_, err := sc.Search(ctx, "marker", 50)

	var serr *SearchError
	require.True(t, errors.As(err, &serr))
	assert.ErrorIs(t, err, context.Canceled)
}
