package mocks

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// MockContentGenerator stands in for the genai models service.
type MockContentGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	mu    sync.Mutex
	Calls []GenerateCall
}

// GenerateCall records one request made to the mock.
type GenerateCall struct {
	Model  string
	Prompt string
	Config *genai.GenerateContentConfig
}

func (m *MockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	prompt := ""
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		prompt = contents[0].Parts[0].Text
	}
	m.mu.Lock()
	m.Calls = append(m.Calls, GenerateCall{Model: model, Prompt: prompt, Config: config})
	m.mu.Unlock()

	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, model, contents, config)
	}
	return TextResponse(`{"title":"Mock Title","metaDescription":"Mock description","content":"<p>Mock content</p>"}`), nil
}

// CallCount returns how many requests were made.
func (m *MockContentGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// TextResponse builds a single-candidate response carrying text.
func TextResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

// ImageResponse builds a response with a caption part followed by inline image data.
func ImageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "Here is your image."},
					{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
				},
			},
		}},
	}
}
