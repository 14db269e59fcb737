package ochiai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/orderedmap"
	"github.com/shuu5/obsclip/internal/stages/ochiai"
)

type fakeClient struct{ text string }

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: f.text}, nil
}

const sampleJSON = `{
  "what_is_it": "A new method.",
  "comparison_to_prior_work": "Faster than baseline.",
  "key_technique": "Attention gating.",
  "validation_method": "Benchmarked on three datasets.",
  "discussion_points": "Generalization unclear.",
  "papers_to_read_next": "Related work X."
}`

func TestRunParsesSixQuestionJSON(t *testing.T) {
	t.Parallel()

	client := &fakeClient{text: sampleJSON}

	summary, err := ochiai.Run(context.Background(), client, "paper text")
	require.NoError(t, err)

	for _, q := range ochiai.Questions {
		assert.NotEmpty(t, summary[q])
	}
}

func TestRunReturnsErrorOnMalformedJSON(t *testing.T) {
	t.Parallel()

	client := &fakeClient{text: "not json"}

	_, err := ochiai.Run(context.Background(), client, "paper text")
	require.Error(t, err)
}

func TestApplyToHeaderSetsOchiaiFormatAndStatus(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	summary := ochiai.Summary{"what_is_it": "X"}

	ochiai.ApplyToHeader(header, summary, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	aiContent := header.GetMap("ai_content")
	require.NotNil(t, aiContent)

	format := aiContent.GetMap("ochiai_format")
	require.NotNil(t, format)
	assert.Equal(t, "X", format.GetString("what_is_it"))

	status := header.GetMap("processing_status")
	require.NotNil(t, status)
	assert.Equal(t, "completed", status.GetString("ochiai_format"))
}
