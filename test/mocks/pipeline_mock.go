package mocks

import (
	"blogsmith/internal/core"
	"blogsmith/internal/persistence"
	"context"
	"fmt"
	"sync"
)

// MockTopicSource provides a mock implementation of pipeline.TopicSource
type MockTopicSource struct {
	TopicsFunc   func(ctx context.Context) []core.Topic
	CommentsFunc func(ctx context.Context, subreddit, postID string) []string
	PostFunc     func(ctx context.Context, subreddit, postID string) (*core.Topic, error)

	mu            sync.Mutex
	CommentsCalls []string
}

func (m *MockTopicSource) Topics(ctx context.Context) []core.Topic {
	if m.TopicsFunc != nil {
		return m.TopicsFunc(ctx)
	}
	return nil
}

func (m *MockTopicSource) Comments(ctx context.Context, subreddit, postID string) []string {
	m.mu.Lock()
	m.CommentsCalls = append(m.CommentsCalls, postID)
	m.mu.Unlock()

	if m.CommentsFunc != nil {
		return m.CommentsFunc(ctx, subreddit, postID)
	}
	return []string{}
}

func (m *MockTopicSource) Post(ctx context.Context, subreddit, postID string) (*core.Topic, error) {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, subreddit, postID)
	}
	return nil, fmt.Errorf("post %s not found", postID)
}

// MockStore wraps a real repository and lets tests control Ping
type MockStore struct {
	Repo     persistence.ArticleRepository
	PingFunc func(ctx context.Context) error
}

func (m *MockStore) Articles() persistence.ArticleRepository { return m.Repo }

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockArticleWriter provides a mock implementation of pipeline.ArticleWriter
type MockArticleWriter struct {
	WriteFunc func(ctx context.Context, prompt string) (*core.GeneratedArticle, error)

	mu      sync.Mutex
	Prompts []string
}

func (m *MockArticleWriter) Write(ctx context.Context, prompt string) (*core.GeneratedArticle, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, prompt)
	}
	return &core.GeneratedArticle{
		Title:           "Mock Article",
		MetaDescription: "Mock description",
		Content:         "<p>Mock content</p>",
	}, nil
}

// CallCount returns how many prompts were written.
func (m *MockArticleWriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// MockGenerator provides a mock implementation of server.Generator
type MockGenerator struct {
	RunFunc         func(ctx context.Context) (*core.RunReport, error)
	FromSubjectFunc func(ctx context.Context, subject string) (*core.Article, error)
	FromURLFunc     func(ctx context.Context, rawURL string) (*core.Article, error)
}

func (m *MockGenerator) Run(ctx context.Context) (*core.RunReport, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return &core.RunReport{Success: true, Message: "Blog generation completed", Results: []core.TopicResult{}}, nil
}

func (m *MockGenerator) FromSubject(ctx context.Context, subject string) (*core.Article, error) {
	if m.FromSubjectFunc != nil {
		return m.FromSubjectFunc(ctx, subject)
	}
	return &core.Article{ID: 1, Title: "Mock " + subject, Topic: core.CustomTopic}, nil
}

func (m *MockGenerator) FromURL(ctx context.Context, rawURL string) (*core.Article, error) {
	if m.FromURLFunc != nil {
		return m.FromURLFunc(ctx, rawURL)
	}
	return &core.Article{ID: 1, Title: "Mock Article", Topic: "technology"}, nil
}
