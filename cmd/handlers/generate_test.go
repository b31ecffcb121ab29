package handlers

import (
	"blogsmith/internal/core"
	"blogsmith/internal/pipeline"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatReport(t *testing.T) {
	out := formatReport(&core.RunReport{
		RunID:   "run-1",
		Success: true,
		Message: pipeline.MessageCompleted,
		Results: []core.TopicResult{
			{Success: true, Title: "Fresh post"},
			{Title: "Known post", Reason: pipeline.ReasonExists},
			{Title: "Broken post", Reason: "generation failed: no JSON object in response"},
		},
		Duration: 1500 * time.Millisecond,
	})

	assert.Contains(t, out, "Blog generation completed")
	assert.Contains(t, out, "Fresh post")
	assert.Contains(t, out, "already exists")
	assert.Contains(t, out, "no JSON object in response")
	assert.Contains(t, out, "1 created, 1 skipped, 1 failed in 1.5s")
}

func TestFormatReport_Empty(t *testing.T) {
	assert.Contains(t, formatReport(&core.RunReport{Message: pipeline.MessageCompleted}), "no topics processed")
	assert.Contains(t, formatReport(nil), pipeline.MessageFailed)
}

func TestFormatArticle(t *testing.T) {
	out := formatArticle(&core.Article{ID: 7, Title: "Hello", Topic: core.CustomTopic})
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "id 7")
	assert.Contains(t, out, "saved without image")
}

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"generate"},
		{"generate", "topic"},
		{"generate", "url"},
		{"migrate", "up"},
		{"migrate", "status"},
	} {
		cmd, _, err := root.Find(path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, path[len(path)-1], cmd.Name())
		}
	}
}
