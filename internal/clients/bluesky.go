// Package clients constructs the authenticated remote clients the pipeline
// depends on: Bluesky XRPC, OpenAI, and Google Sheets.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hmartens/skypulse/internal/models"
)

const (
	DefaultBlueskyHost = "https://bsky.social"

	blueskyRequestTimeout = 30 * time.Second
	blueskyUserAgent      = "skypulse/0.1"
)

// BlueskyClient speaks the XRPC endpoints the pipeline needs. CreateSession
// must succeed before the authorized calls are used; retry policy is the
// caller's concern, so every method makes exactly one request.
type BlueskyClient struct {
	host      string
	client    *http.Client
	accessJwt string
	did       string
}

func NewBlueskyClient(host string) *BlueskyClient {
	if host == "" {
		host = DefaultBlueskyHost
	}
	return &BlueskyClient{
		host:   host,
		client: &http.Client{Timeout: blueskyRequestTimeout},
	}
}

// SessionDID returns the DID of the logged-in account, empty before login.
func (c *BlueskyClient) SessionDID() string {
	return c.did
}

// CreateSession logs in with a handle (or email) and app password and stores
// the access JWT for subsequent calls.
func (c *BlueskyClient) CreateSession(ctx context.Context, identifier, password string) error {
	body, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return fmt.Errorf("[BlueskyClient] marshal session request: %w", err)
	}

	endpoint := c.host + "/xrpc/com.atproto.server.createSession"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", blueskyUserAgent)

	var session models.CreateSessionResponse
	if err := c.do(req, "com.atproto.server.createSession", &session); err != nil {
		return err
	}

	c.accessJwt = session.AccessJwt
	c.did = session.DID
	slog.Info("[BlueskyClient] Session created",
		slog.String("handle", session.Handle),
		slog.String("did", session.DID))
	return nil
}

// ResolveHandle resolves a handle to its DID.
func (c *BlueskyClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	query := url.Values{"handle": {handle}}
	req, err := c.newGet(ctx, "com.atproto.identity.resolveHandle", query)
	if err != nil {
		return "", err
	}

	var resolved models.ResolveHandleResponse
	if err := c.do(req, "com.atproto.identity.resolveHandle", &resolved); err != nil {
		return "", err
	}
	if resolved.DID == "" {
		return "", fmt.Errorf("[BlueskyClient] empty DID for handle %s", handle)
	}
	return resolved.DID, nil
}

// GetAuthorFeed fetches up to limit recent feed items for an actor DID.
func (c *BlueskyClient) GetAuthorFeed(ctx context.Context, actor string, limit int) ([]models.FeedItem, error) {
	query := url.Values{
		"actor": {actor},
		"limit": {strconv.Itoa(limit)},
	}
	req, err := c.newGet(ctx, "app.bsky.feed.getAuthorFeed", query)
	if err != nil {
		return nil, err
	}

	var feed models.AuthorFeedResponse
	if err := c.do(req, "app.bsky.feed.getAuthorFeed", &feed); err != nil {
		return nil, err
	}
	return feed.Feed, nil
}

func (c *BlueskyClient) newGet(ctx context.Context, nsid string, query url.Values) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/xrpc/%s?%s", c.host, nsid, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", blueskyUserAgent)
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}
	return req, nil
}

// do runs the request and decodes a 2xx JSON body into out. Error responses
// keep the status code in the message so the retry wrapper can classify 429s.
func (c *BlueskyClient) do(req *http.Request, nsid string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("[BlueskyClient] %s: %w", nsid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("[BlueskyClient] %s: unexpected status %d: %s",
			nsid, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[BlueskyClient] %s: decode response: %w", nsid, err)
	}
	return nil
}
