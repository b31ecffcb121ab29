package reddit

import (
	"blogsmith/internal/core"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPostURL means the link is not a Reddit post permalink.
var ErrInvalidPostURL = errors.New("invalid Reddit post URL")

var postPathRegex = regexp.MustCompile(`^/r/([^/]+)/comments/([^/]+)`)

// ParsePostURL extracts the subreddit and post id from a post permalink such
// as https://www.reddit.com/r/golang/comments/abc123/some_title/.
func ParsePostURL(raw string) (subreddit, postID string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", ErrInvalidPostURL
	}
	host := strings.ToLower(u.Hostname())
	if host != "reddit.com" && !strings.HasSuffix(host, ".reddit.com") {
		return "", "", ErrInvalidPostURL
	}
	m := postPathRegex.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", ErrInvalidPostURL
	}
	return m[1], m[2], nil
}

// Post fetches a single post as a Topic.
func (c *Client) Post(ctx context.Context, subreddit, postID string) (*core.Topic, error) {
	s := c.current()
	u := s.endpoint("r/"+subreddit+"/comments/"+postID, map[string]int{"limit": 1})

	var pages []listing
	if err := c.getJSON(ctx, s, u, &pages); err != nil {
		return nil, fmt.Errorf("failed to fetch post %s: %w", postID, err)
	}
	if len(pages) == 0 || len(pages[0].Data.Children) == 0 {
		return nil, fmt.Errorf("post %s not found in response", postID)
	}

	var p postData
	if err := json.Unmarshal(pages[0].Data.Children[0].Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode post %s: %w", postID, err)
	}
	if p.ID == "" {
		p.ID = postID
	}
	topic := c.toTopic(p, subreddit)
	return &topic, nil
}
