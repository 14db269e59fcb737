package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuu5/obsclip/internal/llm"
)

type fakeClient struct {
	resp llm.Response
	err  error
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return f.resp, f.err
}

func TestFakeClientSatisfiesInterface(t *testing.T) {
	t.Parallel()

	var c llm.Client = &fakeClient{resp: llm.Response{Text: "ok"}}

	resp, err := c.Complete(context.Background(), llm.Request{User: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}
