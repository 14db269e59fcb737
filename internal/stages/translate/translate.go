// Package translate implements the translate_abstract stage: ask the LM
// to translate a paper's abstract into Japanese and record it under
// ai_content.abstract_japanese.
package translate

import (
	"context"
	"time"

	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

const systemPrompt = `Translate the given English academic abstract into natural, precise Japanese.
Reply with only the translated text, no preamble or notes.`

// Run calls client to translate abstract.
func Run(ctx context.Context, client llm.Client, abstract string) (string, error) {
	resp, err := client.Complete(ctx, llm.Request{System: systemPrompt, User: abstract})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// ApplyToHeader writes ai_content.abstract_japanese and advances
// processing_status.translate_abstract.
func ApplyToHeader(header *orderedmap.Map, translated string, now time.Time) {
	aiContent := header.GetMap("ai_content")
	if aiContent == nil {
		aiContent = orderedmap.New()
		header.Set("ai_content", aiContent)
	}

	aiContent.Set("abstract_japanese", translated)
	header.Set("last_updated", now.Format(time.RFC3339Nano))

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("translate_abstract", "completed")
}
