package visual

import (
	"blogsmith/internal/logger"
	"blogsmith/test/mocks"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestGenerate_ReturnsDataURI(t *testing.T) {
	gen := &mocks.MockContentGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return mocks.ImageResponse("image/png", pngHeader), nil
		},
	}
	g := NewGenerator(gen, "", 0, logger.Discard())

	uri := g.Generate(context.Background(), "Solid-State Batteries")
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", uri)

	require.Equal(t, 1, gen.CallCount())
	call := gen.Calls[0]
	assert.Equal(t, DefaultImageModel, call.Model)
	assert.Contains(t, call.Prompt, `"Solid-State Batteries"`)
	require.NotNil(t, call.Config)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, call.Config.ResponseModalities)
}

func TestGenerate_NoInlineData(t *testing.T) {
	gen := &mocks.MockContentGenerator{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return mocks.TextResponse("I can only describe it."), nil
		},
	}
	assert.Equal(t, "", NewGenerator(gen, "", 0, logger.Discard()).Generate(context.Background(), "T"))
}

func TestGenerate_RequestFailure(t *testing.T) {
	gen := &mocks.MockContentGenerator{
		GenerateContentFunc: func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	assert.Equal(t, "", NewGenerator(gen, "", 0, logger.Discard()).Generate(context.Background(), "T"))
}

func TestDataURI_DefaultMIME(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURI("", []byte{1, 2}))
	assert.Equal(t, "data:image/jpeg;base64,AQI=", DataURI("image/jpeg", []byte{1, 2}))
}
