package reddit

import (
	"blogsmith/internal/core"
	"context"
	"strings"
	"unicode/utf16"

	"golang.org/x/time/rate"
)

// Topics picks at most one candidate per configured subreddit. Subreddits are
// visited in order, with a blocking pause between them. Failures are logged
// and skipped; a run where everything fails yields an empty slice.
func (c *Client) Topics(ctx context.Context) []core.Topic {
	s := c.authorize(ctx)

	pause := rate.NewLimiter(rate.Every(c.delay), 1)
	topics := make([]core.Topic, 0, len(c.cfg.Subreddits))

	for _, sub := range c.cfg.Subreddits {
		if err := pause.Wait(ctx); err != nil {
			c.log.Warn("Topic fetch interrupted", "subreddit", sub, "error", err.Error())
			break
		}

		posts := c.fetchListing(ctx, s, sub)
		candidates := c.filter(posts)
		if len(candidates) == 0 {
			c.log.Info("No usable posts, skipping subreddit", "subreddit", sub, "fetched", len(posts))
			continue
		}

		chosen := candidates[c.pick(len(candidates))]
		topic := c.toTopic(chosen, sub)
		c.log.Info("Selected topic",
			"subreddit", sub,
			"title", topic.Title,
			"score", topic.Score,
			"candidates", len(candidates))
		topics = append(topics, topic)
	}

	return topics
}

// fetchListing tries each listing endpoint in order and stops at the first
// one that returns posts.
func (c *Client) fetchListing(ctx context.Context, s *session, sub string) []postData {
	for _, endpoint := range c.cfg.Listings {
		u := s.endpoint("r/"+sub+"/"+endpoint, map[string]int{"limit": c.cfg.ListingLimit})

		var l listing
		if err := c.getJSON(ctx, s, u, &l); err != nil {
			c.log.Warn("Listing fetch failed, trying next endpoint",
				"subreddit", sub,
				"endpoint", endpoint,
				"error", err.Error())
			continue
		}

		if posts := l.posts(); len(posts) > 0 {
			c.log.Debug("Listing fetched", "subreddit", sub, "endpoint", endpoint, "posts", len(posts))
			return posts
		}
	}
	return nil
}

func (c *Client) filter(posts []postData) []postData {
	kept := make([]postData, 0, len(posts))
	for _, p := range posts {
		if c.acceptTitle(p.Title) {
			kept = append(kept, p)
		}
	}
	return kept
}

// titleLength counts UTF-16 code units, so a character outside the BMP counts as two.
func titleLength(title string) int {
	n := 0
	for _, r := range title {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// acceptTitle applies the exclusive length bounds and the banned substrings.
func (c *Client) acceptTitle(title string) bool {
	n := titleLength(title)
	if n <= c.cfg.MinTitleLength || n >= c.cfg.MaxTitleLength {
		return false
	}
	lower := strings.ToLower(title)
	for _, word := range c.cfg.BannedWords {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return false
		}
	}
	return true
}

func (c *Client) toTopic(p postData, sub string) core.Topic {
	if p.Subreddit != "" {
		sub = p.Subreddit
	}
	return core.Topic{
		Title:     p.Title,
		URL:       c.PermalinkURL(p.Permalink),
		Subreddit: sub,
		Score:     p.Score,
		SelfText:  p.SelfText,
		ID:        p.ID,
	}
}

// PermalinkURL turns a post permalink into the absolute public URL.
func (c *Client) PermalinkURL(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	return c.cfg.BaseURL + "/" + strings.TrimLeft(permalink, "/")
}
