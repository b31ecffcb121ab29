package pipeline

import (
	"blogsmith/internal/config"
	"blogsmith/internal/llm"
	"blogsmith/internal/reddit"
	"blogsmith/internal/visual"
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Builder helps construct a fully configured Orchestrator
type Builder struct {
	cfg        *config.Config
	store      Store
	models     llm.ContentGenerator
	source     TopicSource
	httpClient *http.Client
	log        *slog.Logger
}

// NewBuilder creates a builder for the given configuration
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, log: slog.Default()}
}

// WithStore sets the article store
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithModels sets the generation backend instead of dialing Gemini
func (b *Builder) WithModels(models llm.ContentGenerator) *Builder {
	b.models = models
	return b
}

// WithTopicSource replaces the Reddit client
func (b *Builder) WithTopicSource(source TopicSource) *Builder {
	b.source = source
	return b
}

// WithHTTPClient sets the HTTP client used for Reddit
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithLogger sets the logger passed to every component
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	if log != nil {
		b.log = log
	}
	return b
}

// Build constructs the orchestrator. The text and image clients share one Gemini client.
func (b *Builder) Build(ctx context.Context) (*Orchestrator, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if b.store == nil {
		return nil, fmt.Errorf("article store is required")
	}

	gemini := b.cfg.AI.Gemini
	models := b.models
	if models == nil {
		client, err := llm.NewGeminiClient(ctx, gemini.APIKey, gemini.BaseURL)
		if err != nil {
			return nil, err
		}
		models = client.Models
	}

	source := b.source
	if source == nil {
		var opts []reddit.Option
		if b.httpClient != nil {
			opts = append(opts, reddit.WithHTTPClient(b.httpClient))
		}
		source = reddit.NewClient(b.cfg.Reddit, b.log, opts...)
	}

	timeout := config.Duration(gemini.Timeout, llm.DefaultTimeout)
	writer := llm.NewWriter(models, llm.Options{
		Model:       gemini.TextModel,
		Temperature: gemini.Temperature,
		MaxTokens:   gemini.MaxTokens,
		Timeout:     timeout,
		Policy:      llm.Policy{AcceptFallback: b.cfg.Generation.AcceptFallback},
	}, b.log)
	images := visual.NewGenerator(models, gemini.ImageModel, timeout, b.log)

	b.log.Info("Generation pipeline ready",
		"text_model", writer.Model(),
		"subreddits", len(b.cfg.Reddit.Subreddits),
		"accept_fallback", b.cfg.Generation.AcceptFallback)

	return NewOrchestrator(source, writer, images, b.store, b.cfg.Generation.Dedup, b.log), nil
}
