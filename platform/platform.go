// Package platform provides a client for the X API v2: handle resolution,
// recent-post listing with reply/repost metadata, and reply posting.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.twitter.com"

// Post is one post from a user's timeline.
type Post struct {
	ID        string
	Text      string
	CreatedAt time.Time
	IsReply   bool
	IsRepost  bool
}

// Client provides access to the X API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	bearerToken string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new X API client authenticated with a bearer token.
func NewClient(bearerToken string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		bearerToken: bearerToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveHandle returns the user ID for an account handle. A leading "@" is
// accepted and stripped.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if len(handle) > 0 && handle[0] == '@' {
		handle = handle[1:]
	}

	endpoint := fmt.Sprintf("%s/2/users/by/username/%s", c.baseURL, url.PathEscape(handle))

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return "", fmt.Errorf("resolve handle %s: %w", handle, err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("resolve handle %s: no user in response", handle)
	}

	return result.Data.ID, nil
}

// ListRecentPosts returns up to limit recent posts for a user, in the order
// the platform returns them (effectively newest first).
func (c *Client) ListRecentPosts(ctx context.Context, userID string, limit int) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/2/users/%s/tweets?max_results=%d&tweet.fields=created_at,in_reply_to_user_id,referenced_tweets",
		c.baseURL, url.PathEscape(userID), limit)

	var result struct {
		Data []struct {
			ID               string    `json:"id"`
			Text             string    `json:"text"`
			CreatedAt        time.Time `json:"created_at"`
			InReplyToUserID  string    `json:"in_reply_to_user_id"`
			ReferencedTweets []struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"referenced_tweets"`
		} `json:"data"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("list posts for user %s: %w", userID, err)
	}

	posts := make([]Post, 0, len(result.Data))
	for _, d := range result.Data {
		post := Post{
			ID:        d.ID,
			Text:      d.Text,
			CreatedAt: d.CreatedAt,
			IsReply:   d.InReplyToUserID != "",
		}
		for _, ref := range d.ReferencedTweets {
			if ref.Type == "retweeted" {
				post.IsRepost = true
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// PostReply posts text as a reply to the post with the given ID.
func (c *Client) PostReply(ctx context.Context, text, parentID string) error {
	endpoint := c.baseURL + "/2/tweets"

	body := map[string]any{
		"text": text,
		"reply": map[string]string{
			"in_reply_to_tweet_id": parentID,
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post reply to %s: %w", parentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post reply to %s: unexpected status: %d", parentID, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
