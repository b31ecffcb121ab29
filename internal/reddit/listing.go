package reddit

import (
	"bytes"
	"encoding/json"
)

// Kinds used by the Reddit JSON API.
const (
	kindComment = "t1"
	kindPost    = "t3"
)

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
	SelfText  string `json:"selftext"`
	Subreddit string `json:"subreddit"`
}

type commentData struct {
	Body string `json:"body"`
	// Replies is either "" or a listing.
	Replies json.RawMessage `json:"replies"`
}

// replyListing decodes the replies field, treating "" and null as no replies.
func (c commentData) replyListing() (*listing, bool) {
	raw := bytes.TrimSpace(c.Replies)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var l listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, false
	}
	return &l, true
}

func (l *listing) posts() []postData {
	posts := make([]postData, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "" && child.Kind != kindPost {
			continue
		}
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil {
			continue
		}
		posts = append(posts, p)
	}
	return posts
}
