package translate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/orderedmap"
	"github.com/shuu5/obsclip/internal/stages/translate"
)

type fakeClient struct{ text string }

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: f.text}, nil
}

func TestRunReturnsTranslatedText(t *testing.T) {
	t.Parallel()

	client := &fakeClient{text: "これは要約です。"}

	out, err := translate.Run(context.Background(), client, "This is an abstract.")
	require.NoError(t, err)
	assert.Equal(t, "これは要約です。", out)
}

func TestApplyToHeaderSetsAbstractJapaneseAndStatus(t *testing.T) {
	t.Parallel()

	header := orderedmap.New()
	translate.ApplyToHeader(header, "これは要約です。", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	aiContent := header.GetMap("ai_content")
	require.NotNil(t, aiContent)
	assert.Equal(t, "これは要約です。", aiContent.GetString("abstract_japanese"))

	status := header.GetMap("processing_status")
	require.NotNil(t, status)
	assert.Equal(t, "completed", status.GetString("translate_abstract"))
}
