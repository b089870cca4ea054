// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/staranto/watchtowergo/internal/auth"
	"github.com/staranto/watchtowergo/internal/cacheutil"
)

const userAgent = "watchtower"

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// PageOptions bound a GetFrames call.
type PageOptions struct {
	// Since is passed through as the since query parameter when set.
	Since    string
	MaxPages int
	PerPage  int
	// Params are extra query parameters added to every page request.
	Params map[string]string
}

// Client fetches JSON list pages with a bearer token.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a Client that authenticates with creds.Token. The user
// half of the credentials only ends up in the User-Agent.
func NewClient(ctx context.Context, creds auth.Credentials) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})

	ua := userAgent
	if creds.User != "" {
		ua += " (" + creds.User + ")"
	}

	return &Client{
		http:      oauth2.NewClient(ctx, src),
		userAgent: ua,
	}
}

// Endpoint returns the list URL for k: the user's public events when there
// is no project, otherwise the repository's commits, restricted to the
// branch when one is set.
func Endpoint(apiRoot string, k cacheutil.Key) string {
	root := strings.TrimSuffix(apiRoot, "/") + "/"
	switch k.Kind() {
	case cacheutil.UserActivity:
		return root + fmt.Sprintf("users/%s/events", url.PathEscape(k.Owner))
	case cacheutil.ProjectCommits:
		return root + fmt.Sprintf("repos/%s/%s/commits", url.PathEscape(k.Owner), url.PathEscape(k.Project))
	default:
		return root + fmt.Sprintf("repos/%s/%s/commits?sha=%s",
			url.PathEscape(k.Owner), url.PathEscape(k.Project), url.QueryEscape(k.Branch))
	}
}

// GetFrames requests page 1..MaxPages of rawURL and returns every JSON object
// from the page arrays in order. It stops early on an empty or short page.
func (c *Client) GetFrames(ctx context.Context, rawURL string, opts PageOptions) ([]map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}

	var results []map[string]any
	for page := 1; page <= opts.MaxPages; page++ {
		q := u.Query()
		for k, v := range opts.Params {
			q.Set(k, v)
		}
		if opts.Since != "" {
			q.Set("since", opts.Since)
		}
		q.Set("per_page", strconv.Itoa(opts.PerPage))
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()

		items, err := c.getPage(ctx, u.String())
		if err != nil {
			return nil, err
		}

		results = append(results, items...)
		log.Debugf("page: %d, items: %d, total: %d", page, len(items), len(results))

		if len(items) < opts.PerPage {
			break
		}
	}

	return results, nil
}

func (c *Client) getPage(ctx context.Context, pageURL string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			URL:        pageURL,
			Message:    gjson.GetBytes(doc.Bytes(), "message").String(),
		}
	}

	parsed := gjson.ParseBytes(doc.Bytes())
	if !parsed.IsArray() {
		return nil, fmt.Errorf("GET %s: expected a JSON array", pageURL)
	}

	var items []map[string]any
	for _, item := range parsed.Array() {
		if m, ok := item.Value().(map[string]any); ok {
			items = append(items, m)
		}
	}

	return items, nil
}
