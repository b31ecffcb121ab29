package llm

import (
	"blogsmith/internal/core"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultTextModel writes the articles.
	DefaultTextModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 90 * time.Second
)

// ErrEmptyResponse means the model answered with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ContentGenerator is the slice of the genai models service used here.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiClient creates the SDK client shared by the text and image generators.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Options configures a Writer.
type Options struct {
	Model       string
	Temperature float32 // 0 keeps the model default
	MaxTokens   int32   // 0 keeps the model default
	Timeout     time.Duration
	Policy      Policy
}

// Writer turns prompts into structured articles.
type Writer struct {
	models  ContentGenerator
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
	policy  Policy
	log     *slog.Logger
}

// NewWriter wraps a content generator with the article extraction policy.
func NewWriter(models ContentGenerator, opts Options, log *slog.Logger) *Writer {
	if opts.Model == "" {
		opts.Model = DefaultTextModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var config *genai.GenerateContentConfig
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		config = &genai.GenerateContentConfig{}
		if opts.MaxTokens > 0 {
			config.MaxOutputTokens = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			config.Temperature = genai.Ptr(opts.Temperature)
		}
	}

	return &Writer{
		models:  models,
		model:   opts.Model,
		config:  config,
		timeout: opts.Timeout,
		policy:  opts.Policy,
		log:     log,
	}
}

// Model returns the configured model name.
func (w *Writer) Model() string { return w.model }

// Write sends the prompt and extracts the article from the reply. Any failure
// yields a nil article and an error describing why; nothing partial is returned.
func (w *Writer) Write(ctx context.Context, prompt string) (*core.GeneratedArticle, error) {
	if prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	start := time.Now()
	resp, err := w.models.GenerateContent(ctx, w.model, contents, w.config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}

	extraction, err := Extract(text, w.policy)
	if err != nil {
		w.log.Warn("Could not extract article from model reply",
			"model", w.model,
			"reply_chars", len(text),
			"error", err.Error())
		return nil, err
	}

	w.log.Debug("Article extracted",
		"model", w.model,
		"stage", extraction.Stage,
		"fallback", extraction.Article.Fallback,
		"duration", time.Since(start))

	article := extraction.Article
	return &article, nil
}
