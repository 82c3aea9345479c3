package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/google/go-github/v30/github"
	"golang.org/x/oauth2"
)

const actionTimeout = 15 * time.Second

// NewGitHubClient creates an authenticated go-github client. An empty apiURL
// talks to api.github.com.
func NewGitHubClient(ctx context.Context, token, apiURL string) (*github.Client, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)
	if apiURL != "" {
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	}
	return client, nil
}

// GitHub adapts a go-github client to the issue, moderation and fork
// interfaces used by enforcement and the fork scanner.
type GitHub struct {
	client  *github.Client
	timeout time.Duration
}

// NewGitHub wraps client
func NewGitHub(client *github.Client) *GitHub {
	return &GitHub{client: client, timeout: actionTimeout}
}

// Login returns the login of the authenticated user
func (g *GitHub) Login(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	user, _, err := g.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// CreateIssue files issue on repo (owner/name) and returns its browsable URL
func (g *GitHub) CreateIssue(ctx context.Context, repo string, issue models.Issue) (string, error) {
	owner, name, err := models.SplitRepo(repo)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &github.IssueRequest{
		Title: github.String(issue.Title),
		Body:  github.String(issue.Body),
	}
	if len(issue.Labels) > 0 {
		labels := issue.Labels
		req.Labels = &labels
	}

	created, _, err := g.client.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return "", fmt.Errorf("failed to create issue on %s: %w", repo, err)
	}
	return created.GetHTMLURL(), nil
}

// BlockUser blocks username for the authenticated user. Blocking someone who
// is already blocked returns models.ErrAlreadyBlocked.
func (g *GitHub) BlockUser(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, err := g.client.Users.BlockUser(ctx, username)
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil &&
		errResp.Response.StatusCode == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(errResp.Message), "already") {
		return models.ErrAlreadyBlocked
	}
	return fmt.Errorf("failed to block %s: %w", username, err)
}

// ListForks returns every fork of repo, following pagination
func (g *GitHub) ListForks(ctx context.Context, repo string) ([]models.ForkRecord, error) {
	owner, name, err := models.SplitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &github.RepositoryListForksOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var forks []models.ForkRecord
	for {
		pageCtx, cancel := context.WithTimeout(ctx, g.timeout)
		repos, resp, err := g.client.Repositories.ListForks(pageCtx, owner, name, opts)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to list forks of %s: %w", repo, err)
		}

		for _, r := range repos {
			forks = append(forks, models.ForkRecord{
				Owner:     r.GetOwner().GetLogin(),
				FullName:  r.GetFullName(),
				HTMLURL:   r.GetHTMLURL(),
				HasIssues: r.GetHasIssues(),
				CreatedAt: r.GetCreatedAt().Time,
				PushedAt:  r.GetPushedAt().Time,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return forks, nil
}
