package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/google/go-github/v30/github"
	"github.com/rs/zerolog"
)

const (
	searchPageTimeout = 30 * time.Second
	// DefaultPageDelay is the pause between result pages
	DefaultPageDelay = time.Second
	maxPerPage       = 100
	maxErrorBody     = 4 << 10
)

// ErrQueryRejected means GitHub refused to run the query, usually because the
// marker is too short or malformed. It is a configuration problem, not a
// transient fault.
var ErrQueryRejected = errors.New("search query rejected")

// SearchError is a failed search request
type SearchError struct {
	StatusCode int // zero for transport failures
	Body       string
	Err        error
}

func (e *SearchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("code search failed: %v", e.Err)
	}
	return fmt.Sprintf("code search failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *SearchError) Unwrap() error { return e.Err }

// SearchClient runs exact-phrase code searches
type SearchClient struct {
	client *github.Client
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewSearchClient creates a search client. A non-positive delay uses
// DefaultPageDelay.
func NewSearchClient(client *github.Client, delay time.Duration, logger zerolog.Logger) *SearchClient {
	if delay <= 0 {
		delay = DefaultPageDelay
	}
	return &SearchClient{
		client: client,
		delay:  delay,
		sleep:  sleepContext,
		logger: logger.With().Str("module", "search").Logger(),
	}
}

// codeSearchPage mirrors the search/code response. go-github's CodeResult
// drops the score, so the page is decoded here.
type codeSearchPage struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Path       string  `json:"path"`
		HTMLURL    string  `json:"html_url"`
		Score      float64 `json:"score"`
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	} `json:"items"`
}

// Query builds the exact-phrase query for marker
func Query(marker string) string {
	return `"` + marker + `" in:file`
}

// Search returns every public file containing marker. If GitHub rejects the
// query it returns no findings and ErrQueryRejected; any other failure is a
// *SearchError.
func (c *SearchClient) Search(ctx context.Context, marker string, perPage int) ([]models.Finding, error) {
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	var findings []models.Finding
	page := 1
	for {
		result, next, err := c.fetchPage(ctx, marker, page, perPage)
		if errors.Is(err, ErrQueryRejected) {
			c.logger.Warn().Str("marker", marker).Msg("Search API rejected the query; make sure the marker is long and unique")
			return []models.Finding{}, ErrQueryRejected
		}
		if err != nil {
			return nil, err
		}

		for _, item := range result.Items {
			findings = append(findings, models.Finding{
				Repository: item.Repository.FullName,
				Path:       item.Path,
				URL:        item.HTMLURL,
				Score:      item.Score,
			})
		}
		c.logger.Debug().Int("page", page).Int("items", len(result.Items)).Int("total", result.TotalCount).Msg("Fetched search page")

		if next == 0 {
			break
		}
		page = next
		if err := c.sleep(ctx, c.delay); err != nil {
			return nil, &SearchError{Err: err}
		}
	}

	return findings, nil
}

func (c *SearchClient) fetchPage(ctx context.Context, marker string, page, perPage int) (*codeSearchPage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, searchPageTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", Query(marker))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	req, err := c.client.NewRequest(http.MethodGet, "search/code?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, &SearchError{Err: err}
	}

	var result codeSearchPage
	resp, err := c.client.Do(ctx, req, &result)
	if err != nil {
		return nil, 0, classifySearchError(err)
	}
	return &result, resp.NextPage, nil
}

func classifySearchError(err error) error {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		if errResp.Response.StatusCode == http.StatusUnprocessableEntity {
			return ErrQueryRejected
		}
		return &SearchError{StatusCode: errResp.Response.StatusCode, Body: errorBody(errResp.Response, errResp.Message), Err: err}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &SearchError{StatusCode: rateErr.Response.StatusCode, Body: errorBody(rateErr.Response, rateErr.Message), Err: err}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return &SearchError{StatusCode: abuseErr.Response.StatusCode, Body: errorBody(abuseErr.Response, abuseErr.Message), Err: err}
	}

	return &SearchError{Err: err}
}

// errorBody returns the raw response body, which go-github leaves readable
// after decoding it. GitHub's parsed message is used when the body is gone.
func errorBody(resp *http.Response, message string) string {
	if resp != nil && resp.Body != nil {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err == nil && len(data) > 0 {
			return string(data)
		}
	}
	return message
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
