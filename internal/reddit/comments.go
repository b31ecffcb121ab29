package reddit

import (
	"context"
	"encoding/json"
)

// Comments returns the bodies of a post's comment tree in document order,
// each comment before its replies. Any failure yields an empty slice.
func (c *Client) Comments(ctx context.Context, subreddit, postID string) []string {
	s := c.current()
	u := s.endpoint("r/"+subreddit+"/comments/"+postID, map[string]int{
		"limit": c.cfg.CommentLimit,
		"depth": c.cfg.CommentDepth,
	})

	var pages []listing
	if err := c.getJSON(ctx, s, u, &pages); err != nil {
		c.log.Warn("Comment fetch failed, continuing without comments",
			"subreddit", subreddit,
			"post_id", postID,
			"error", err.Error())
		return []string{}
	}
	if len(pages) < 2 {
		return []string{}
	}

	bodies := flatten(pages[1].Data.Children, c.cfg.CommentDepth, c.cfg.CommentLimit)
	c.log.Debug("Comments fetched", "subreddit", subreddit, "post_id", postID, "count", len(bodies))
	return bodies
}

type frame struct {
	node  thing
	depth int
}

// flatten walks the comment forest pre-order with an explicit stack. Top-level
// comments are at depth 1; nothing deeper than maxDepth is visited and at most
// limit bodies are returned.
func flatten(roots []thing, maxDepth, limit int) []string {
	bodies := []string{}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i], depth: 1})
	}

	for len(stack) > 0 && len(bodies) < limit {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.node.Kind != kindComment {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(f.node.Data, &cd); err != nil {
			continue
		}
		if cd.Body != "" {
			bodies = append(bodies, cd.Body)
		}

		if f.depth >= maxDepth {
			continue
		}
		replies, ok := cd.replyListing()
		if !ok {
			continue
		}
		children := replies.Data.Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], depth: f.depth + 1})
		}
	}

	return bodies
}
