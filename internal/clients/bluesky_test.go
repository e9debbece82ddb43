package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmartens/skypulse/internal/retry"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateSession_StoresJWT(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/com.atproto.server.createSession", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice.test", body["identifier"])
		assert.Equal(t, "app-password", body["password"])

		json.NewEncoder(w).Encode(map[string]string{
			"accessJwt": "jwt-token",
			"handle":    "alice.test",
			"did":       "did:plc:alice",
		})
	})

	c := NewBlueskyClient(srv.URL)
	require.NoError(t, c.CreateSession(context.Background(), "alice.test", "app-password"))
	assert.Equal(t, "did:plc:alice", c.SessionDID())
}

func TestCreateSession_BadCredentials(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"AuthenticationRequired"}`, http.StatusUnauthorized)
	})

	c := NewBlueskyClient(srv.URL)
	err := c.CreateSession(context.Background(), "alice.test", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, retry.IsRateLimit(err))
}

func TestResolveHandle(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/xrpc/com.atproto.identity.resolveHandle", r.URL.Path)
		assert.Equal(t, "alice.test", r.URL.Query().Get("handle"))
		json.NewEncoder(w).Encode(map[string]string{"did": "did:plc:alice"})
	})

	c := NewBlueskyClient(srv.URL)
	did, err := c.ResolveHandle(context.Background(), "alice.test")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:alice", did)
}

func TestResolveHandle_EmptyDIDIsError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	c := NewBlueskyClient(srv.URL)
	_, err := c.ResolveHandle(context.Background(), "ghost.test")
	assert.Error(t, err)
}

func TestGetAuthorFeed_SendsAuthAndParsesItems(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			json.NewEncoder(w).Encode(map[string]string{
				"accessJwt": "jwt-token",
				"did":       "did:plc:alice",
			})
		case "/xrpc/app.bsky.feed.getAuthorFeed":
			assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
			assert.Equal(t, "did:plc:alice", r.URL.Query().Get("actor"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			w.Write([]byte(`{
				"feed": [
					{"post": {"uri": "at://did:plc:alice/app.bsky.feed.post/1",
					          "record": {"text": "hello", "createdAt": "2024-05-01T12:00:00Z"}}},
					{"post": {"uri": "at://did:plc:bob/app.bsky.feed.post/9",
					          "record": {"text": "shared"}},
					 "reason": {"$type": "app.bsky.feed.defs#reasonRepost"}},
					{"post": {"uri": "at://did:plc:alice/app.bsky.feed.post/2",
					          "record": {"text": "a reply",
					                     "reply": {"root": {"uri": "at://x"}, "parent": {"uri": "at://x"}}}}}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewBlueskyClient(srv.URL)
	require.NoError(t, c.CreateSession(context.Background(), "alice.test", "pw"))

	items, err := c.GetAuthorFeed(context.Background(), "did:plc:alice", 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.False(t, items[0].IsRepost())
	assert.Nil(t, items[0].Post.Record.Reply)
	assert.Equal(t, "hello", items[0].Post.Record.Text)

	assert.True(t, items[1].IsRepost())

	assert.False(t, items[2].IsRepost())
	assert.NotNil(t, items[2].Post.Record.Reply)
}

func TestGetAuthorFeed_RateLimitErrorIsClassifiable(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	})

	c := NewBlueskyClient(srv.URL)
	_, err := c.GetAuthorFeed(context.Background(), "did:plc:alice", 10)
	require.Error(t, err)
	assert.True(t, retry.IsRateLimit(err))
}

func TestNewBlueskyClient_DefaultHost(t *testing.T) {
	c := NewBlueskyClient("")
	assert.Equal(t, DefaultBlueskyHost, c.host)
}
