package pipeline

import (
	"blogsmith/internal/core"
	"blogsmith/internal/persistence"
	"context"
)

// TopicSource supplies candidate topics and their discussion
type TopicSource interface {
	// Topics returns the candidates for one run, at most one per subreddit.
	// Upstream failures shrink the list rather than erroring.
	Topics(ctx context.Context) []core.Topic

	// Comments returns the flattened comment bodies for a post, empty on failure
	Comments(ctx context.Context, subreddit, postID string) []string

	// Post fetches a single post by subreddit and id
	Post(ctx context.Context, subreddit, postID string) (*core.Topic, error)
}

// ArticleWriter turns a prompt into a complete generated article
type ArticleWriter interface {
	// Write returns a complete article or an error, never a partial record
	Write(ctx context.Context, prompt string) (*core.GeneratedArticle, error)
}

// ImageGenerator illustrates a generated title
type ImageGenerator interface {
	// Generate returns a data URI, or "" when no image could be produced
	Generate(ctx context.Context, title string) string
}

// Store is the article store used by the orchestrator
type Store interface {
	Articles() persistence.ArticleRepository
	Ping(ctx context.Context) error
}
