// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultOwner and defaultRepo locate the canonical release repository.
	defaultOwner = "plugman"
	defaultRepo  = "plugman"

	// maxResponseBytes caps release metadata responses at 10 MB so a
	// misbehaving server cannot exhaust memory.
	maxResponseBytes = 10 << 20
)

// ErrNoRelease is returned when the requested release does not exist.
var ErrNoRelease = errors.New("release not found")

type (
	// Release is the subset of a GitHub release the updater needs.
	Release struct {
		TagName    string  `json:"tag_name"`
		Name       string  `json:"name"`
		Prerelease bool    `json:"prerelease"`
		Draft      bool    `json:"draft"`
		HTMLURL    string  `json:"html_url"`
		Assets     []Asset `json:"assets"`
	}

	// Asset is one downloadable artifact attached to a release.
	Asset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
	}

	// RateLimitError reports an exhausted GitHub API quota.
	RateLimitError struct {
		Limit   int
		ResetAt time.Time
	}

	// ReleaseClient queries the GitHub releases API for one repository.
	ReleaseClient struct {
		httpClient *http.Client
		baseURL    string
		owner      string
		repo       string
		token      string
		userAgent  string
	}

	// ClientOption configures a ReleaseClient during construction.
	ClientOption func(*ReleaseClient)
)

// Error formats the quota details with the reset time in UTC.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exhausted (limit %d), resets at %s",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(rc *ReleaseClient) { rc.httpClient = c }
}

// WithBaseURL points the client at a different API base, primarily for
// test servers.
func WithBaseURL(base string) ClientOption {
	return func(rc *ReleaseClient) { rc.baseURL = strings.TrimRight(base, "/") }
}

// WithToken attaches a GitHub access token for the higher authenticated
// rate limit.
func WithToken(token string) ClientOption {
	return func(rc *ReleaseClient) { rc.token = token }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(rc *ReleaseClient) { rc.userAgent = ua }
}

// WithRepo overrides the release repository.
func WithRepo(owner, repo string) ClientOption {
	return func(rc *ReleaseClient) {
		rc.owner = owner
		rc.repo = repo
	}
}

// NewReleaseClient creates a client against the canonical plugman release
// repository on api.github.com.
func NewReleaseClient(opts ...ClientOption) *ReleaseClient {
	c := &ReleaseClient{
		httpClient: http.DefaultClient,
		baseURL:    "https://api.github.com",
		owner:      defaultOwner,
		repo:       defaultRepo,
		userAgent:  "plugman/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the newest published stable release. The endpoint never
// serves drafts or pre-releases, so no client-side filtering is needed.
func (c *ReleaseClient) Latest(ctx context.Context) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)
	return c.fetchRelease(ctx, reqURL)
}

// ByTag fetches the release for one Git tag, e.g. "v1.2.0". Returns
// ErrNoRelease when the tag has no release.
func (c *ReleaseClient) ByTag(ctx context.Context, tag string) (*Release, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		c.baseURL, c.owner, c.repo, url.PathEscape(tag))
	return c.fetchRelease(ctx, reqURL)
}

// Download streams one asset. The caller owns the returned body.
func (c *ReleaseClient) Download(ctx context.Context, assetURL string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, assetURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", redactURL(assetURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", redactURL(assetURL), resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *ReleaseClient) fetchRelease(ctx context.Context, reqURL string) (*Release, error) {
	resp, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("querying release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if err := rateLimited(resp); err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoRelease
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("querying release: unexpected status %d", resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	return &rel, nil
}

// get executes a GET with the common GitHub API headers. The auth token is
// attached only for GitHub hosts, never for asset downloads redirected to a
// third-party CDN.
func (c *ReleaseClient) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" && c.trustedHost(req.URL) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

// trustedHost reports whether a URL targets the configured API host, or
// github.com when the base is the production API.
func (c *ReleaseClient) trustedHost(u *url.URL) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, base.Host) {
		return true
	}
	return strings.EqualFold(base.Host, "api.github.com") && strings.EqualFold(u.Host, "github.com")
}

// rateLimited turns a quota rejection into a RateLimitError. A successful
// response can also carry X-RateLimit-Remaining: 0 (the last allowed
// request), so only denial statuses count.
func rateLimited(resp *http.Response) error {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil
	}
	rem, err := strconv.Atoi(remaining)
	if err != nil || rem > 0 {
		return nil
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	return &RateLimitError{Limit: limit, ResetAt: time.Unix(reset, 0)}
}

// redactURL strips query parameters and fragments so signed download URLs
// can appear in error messages without leaking credentials.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
