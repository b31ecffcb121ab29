package visual

import (
	"blogsmith/internal/llm"
	"blogsmith/internal/prompt"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultImageModel renders article illustrations.
	DefaultImageModel = "gemini-2.0-flash-preview-image-generation"
	// DefaultMIMEType is used when the model does not report one.
	DefaultMIMEType = "image/png"
	// DefaultTimeout bounds a single image request.
	DefaultTimeout = 90 * time.Second
)

// Generator asks an image-capable model for an illustration of an article title.
type Generator struct {
	models  llm.ContentGenerator
	model   string
	timeout time.Duration
	log     *slog.Logger
}

// NewGenerator creates an image generator over the shared genai models service.
func NewGenerator(models llm.ContentGenerator, model string, timeout time.Duration, log *slog.Logger) *Generator {
	if model == "" {
		model = DefaultImageModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{models: models, model: model, timeout: timeout, log: log}
}

// Generate returns the first inline image in the reply as a data URI, or ""
// when the request fails or the reply holds no image.
func (g *Generator) Generate(ctx context.Context, title string) string {
	uri, err := g.generate(ctx, title)
	if err != nil {
		g.log.Warn("Image generation failed, continuing without image",
			"model", g.model,
			"title", title,
			"error", err.Error())
		return ""
	}
	return uri
}

func (g *Generator) generate(ctx context.Context, title string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt.ForImage(title)}},
		Role:  "user",
	}}
	// The image endpoint rejects requests that do not also ask for text.
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate image: %w", err)
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return "", fmt.Errorf("no inline image data in response")
	}
	return DataURI(blob.MIMEType, blob.Data), nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// DataURI encodes raw bytes as a self-contained data URI.
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
