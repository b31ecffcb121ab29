package core

import (
	"strings"
	"time"
)

// CustomTopic is stored as the topic of articles written from a free-text subject.
const CustomTopic = "custom"

// Article is a persisted blog post, generated or written by hand.
type Article struct {
	ID              int64     `json:"id"`              // Store-assigned identifier
	Title           string    `json:"title"`           // Unique per article
	MetaDescription string    `json:"metaDescription"` // Short SEO summary
	Content         string    `json:"content"`         // HTML fragment
	Image           string    `json:"image"`           // Empty or a data URI
	Topic           string    `json:"topic"`           // Source subreddit or CustomTopic
	IsArchived      bool      `json:"isArchived"`      // Hidden from the default public list
	IsPrivate       bool      `json:"isPrivate"`       // Hidden from lists, still addressable by id
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsPublic reports whether the article shows up in public listings.
func (a Article) IsPublic() bool {
	return !a.IsArchived && !a.IsPrivate
}

// Topic is a candidate subject derived from one source post. It lives for a single run.
type Topic struct {
	Title     string `json:"title"`
	URL       string `json:"url"` // Absolute link to the source post
	Subreddit string `json:"subreddit"`
	Score     int    `json:"score"`
	SelfText  string `json:"selftext"`
	ID        string `json:"id"` // Source platform post identifier
}

// NormalizedTitle is the form used for duplicate checks.
func (t Topic) NormalizedTitle() string {
	return strings.TrimSpace(t.Title)
}

// GeneratedArticle is the structured record extracted from a model reply.
type GeneratedArticle struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Content         string `json:"content"`
	// Fallback is set when the fields were pulled out by pattern matching
	// rather than a successful JSON parse.
	Fallback bool `json:"-"`
}

// Complete reports whether every required field is present.
func (g GeneratedArticle) Complete() bool {
	return strings.TrimSpace(g.Title) != "" &&
		strings.TrimSpace(g.MetaDescription) != "" &&
		strings.TrimSpace(g.Content) != ""
}

// TopicResult is the per-topic outcome reported by a generation run.
type TopicResult struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Reason  string `json:"reason,omitempty"`
}

// RunReport summarizes one generation cycle.
type RunReport struct {
	RunID     string        `json:"runId"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Results   []TopicResult `json:"results"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
}

// Created counts successful results.
func (r RunReport) Created() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}
