package models

import "encoding/json"

type ResolveHandleResponse struct {
	DID string `json:"did"`
}

type CreateSessionResponse struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
}

type AuthorFeedResponse struct {
	Feed   []FeedItem `json:"feed"`
	Cursor string     `json:"cursor,omitempty"`
}

// FeedItem is one entry of an author feed. Reason is set when the entry is a
// repost of someone else's post; its inner shape varies, so it is kept raw.
type FeedItem struct {
	Post   FeedPost        `json:"post"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

func (fi FeedItem) IsRepost() bool {
	return len(fi.Reason) > 0 && string(fi.Reason) != "null"
}

type FeedPost struct {
	URI    string     `json:"uri"`
	CID    string     `json:"cid"`
	Author FeedAuthor `json:"author"`
	Record PostRecord `json:"record"`
}

type FeedAuthor struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// PostRecord carries the post body. Reply is non-nil when the post answers
// another post.
type PostRecord struct {
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Reply     *ReplyRef `json:"reply,omitempty"`
}

type ReplyRef struct {
	Root   PostRef `json:"root"`
	Parent PostRef `json:"parent"`
}

type PostRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}
