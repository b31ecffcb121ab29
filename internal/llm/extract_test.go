package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Strict(t *testing.T) {
	reply := `Sure! Here you go:
{"title":"Batteries Get Better","metaDescription":"A look at new cells.","content":"<h2>Intro</h2><p>Text</p>"}
Hope that helps.`

	ex, err := Extract(reply, Policy{})
	require.NoError(t, err)
	assert.Equal(t, StageStrict, ex.Stage)
	assert.Equal(t, "Batteries Get Better", ex.Article.Title)
	assert.Equal(t, "A look at new cells.", ex.Article.MetaDescription)
	assert.Equal(t, "<h2>Intro</h2><p>Text</p>", ex.Article.Content)
	assert.False(t, ex.Article.Fallback)
}

func TestExtract_FencedWithTrailingComma(t *testing.T) {
	reply := "```json\n{\"title\":\"X\",\"metaDescription\":\"Y\",\"content\":\"<p>Z</p>\",}\n```"

	ex, err := Extract(reply, Policy{})
	require.NoError(t, err)
	assert.Equal(t, "trailing-commas", ex.Stage)
	assert.Equal(t, "X", ex.Article.Title)
	assert.Equal(t, "Y", ex.Article.MetaDescription)
	assert.Equal(t, "<p>Z</p>", ex.Article.Content)
}

func TestExtract_RawNewlinesInStrings(t *testing.T) {
	reply := "{\"title\": \"Multi\", \"metaDescription\": \"line\", \"content\": \"<h2>A</h2>\n<p>B</p>\"}"

	ex, err := Extract(reply, Policy{})
	require.NoError(t, err)
	assert.Equal(t, "control-whitespace", ex.Stage)
	assert.Equal(t, "<h2>A</h2> <p>B</p>", ex.Article.Content)
}

func TestExtract_ContentIsCleaned(t *testing.T) {
	reply := `{"title":"T","metaDescription":"M","content":"<h2>A</h2>\\n\\n\\n<p>B    C</p>"}`

	ex, err := Extract(reply, Policy{})
	require.NoError(t, err)
	assert.Equal(t, "<h2>A</h2>\n<p>B C</p>", ex.Article.Content)
}

func TestExtract_MissingField(t *testing.T) {
	for name, reply := range map[string]string{
		"no title":   `{"metaDescription":"M","content":"C"}`,
		"no meta":    `{"title":"T","content":"C"}`,
		"empty body": `{"title":"T","metaDescription":"M","content":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			ex, err := Extract(reply, Policy{AcceptFallback: true})
			assert.Nil(t, ex)
			assert.True(t, errors.Is(err, ErrMissingFields), "got %v", err)
		})
	}
}

func TestExtract_NoJSON(t *testing.T) {
	ex, err := Extract("I cannot help with that.", Policy{})
	assert.Nil(t, ex)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtract_FallbackPolicy(t *testing.T) {
	// The unescaped quotes inside content defeat every repair stage.
	reply := `{"title": "Quoted", "metaDescription": "Desc", "content": "<p>He said \"hi\" then "bye"</p>" extra}`

	_, err := Extract(reply, Policy{})
	assert.ErrorIs(t, err, ErrLowConfidence)

	ex, err := Extract(reply, Policy{AcceptFallback: true})
	require.NoError(t, err)
	assert.Equal(t, StageFallback, ex.Stage)
	assert.True(t, ex.Article.Fallback)
	assert.Equal(t, "Quoted", ex.Article.Title)
	assert.Equal(t, "Desc", ex.Article.MetaDescription)
	assert.Equal(t, `<p>He said "hi" then`, ex.Article.Content)
}

func TestExtract_FallbackWithMissingFieldYieldsNothing(t *testing.T) {
	// Malformed enough to reach field extraction, and metaDescription is absent.
	reply := `{"title": "Quoted", "content": "<p>He said \"hi\" then "bye"</p>" extra}`

	for _, policy := range []Policy{{}, {AcceptFallback: true}} {
		ex, err := Extract(reply, policy)
		assert.Nil(t, ex)
		assert.ErrorIs(t, err, ErrMissingFields)
		assert.NotErrorIs(t, err, ErrLowConfidence)
	}
}

func TestExtract_Unparseable(t *testing.T) {
	_, err := Extract("{ this is not json at all }", Policy{AcceptFallback: true})
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestExtract_CustomRepairChain(t *testing.T) {
	reply := "{\"title\":\"X\",\"metaDescription\":\"Y\",\"content\":\"Z\",}"

	_, err := Extract(reply, Policy{Repairs: []RepairStage{}})
	assert.ErrorIs(t, err, ErrLowConfidence)
}
