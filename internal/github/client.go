// Package github resolves GitHub usernames and pull requests for commits.
//
// Enrichment is best effort: the changelog renders without it, and a failed
// or timed-out lookup leaves the commit's remote fields empty.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/chachako/pretty-changelog/internal/build"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// TokenEnv is read when no token is configured.
const TokenEnv = "GITHUB_TOKEN"

// Client calls the GitHub REST API for one repository.
type Client struct {
	baseURL string
	token   string
	slug    Slug
	http    *http.Client
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	Token   string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewClient returns a client for the repository slug.
func NewClient(slug Slug, opts ClientOptions) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		slug:    slug,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c
}

// ResolveToken returns explicit when set, otherwise GITHUB_TOKEN from the
// environment or a .env file in dir.
func ResolveToken(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	if tok := os.Getenv(TokenEnv); tok != "" {
		return tok
	}
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		return ""
	}
	return env[TokenEnv]
}

type apiUser struct {
	Login string `json:"login"`
}

type apiCommit struct {
	Author *apiUser `json:"author"`
}

type apiPull struct {
	Number int `json:"number"`
}

// CommitAuthor returns the login of the GitHub account that authored sha.
// It is empty when the author email is not linked to an account.
func (c *Client) CommitAuthor(ctx context.Context, sha string) (string, error) {
	var commit apiCommit
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits/%s", c.slug, sha), &commit); err != nil {
		return "", err
	}
	if commit.Author == nil {
		return "", nil
	}
	return commit.Author.Login, nil
}

// PullRequests returns the numbers of the pull requests containing sha.
func (c *Client) PullRequests(ctx context.Context, sha string) ([]int, error) {
	var pulls []apiPull
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits/%s/pulls", c.slug, sha), &pulls); err != nil {
		return nil, err
	}
	numbers := make([]int, 0, len(pulls))
	for _, p := range pulls {
		numbers = append(numbers, p.Number)
	}
	return numbers, nil
}

// PullRequestAuthors returns the commit author logins of pull request n.
func (c *Client) PullRequestAuthors(ctx context.Context, n int) ([]string, error) {
	var commits []apiCommit
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d/commits", c.slug, n), &commits); err != nil {
		return nil, err
	}
	var logins []string
	for _, commit := range commits {
		if commit.Author != nil && commit.Author.Login != "" {
			logins = append(logins, commit.Author.Login)
		}
	}
	return logins, nil
}

// StatusError is a non-2xx API response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status code: %d", e.URL, e.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", build.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
