// Package ochiai implements the ochiai_format stage: ask the LM to produce
// the six-question structured summary (Makoto Ochiai's paper-reading
// template) and record it under ai_content.ochiai_format.
package ochiai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

// Questions is the fixed six-question vocabulary, in order.
var Questions = []string{
	"what_is_it",
	"comparison_to_prior_work",
	"key_technique",
	"validation_method",
	"discussion_points",
	"papers_to_read_next",
}

const systemPrompt = `Summarize the given academic paper using exactly these six questions, in Japanese:
1. どんなもの？ (what_is_it)
2. 先行研究と比べてどこがすごいのか？ (comparison_to_prior_work)
3. 技術や手法のキモはどこか？ (key_technique)
4. どうやって有効だと検証したか？ (validation_method)
5. 議論はあるか？ (discussion_points)
6. 次に読むべき論文はどこか？ (papers_to_read_next)
Reply with a single JSON object whose keys are exactly: what_is_it, comparison_to_prior_work, key_technique, validation_method, discussion_points, papers_to_read_next. No other text.`

// Summary is the parsed six-question response.
type Summary map[string]string

// Run calls client with the paper body (or abstract + key sections) and
// parses its JSON reply into a Summary.
func Run(ctx context.Context, client llm.Client, paperText string) (Summary, error) {
	resp, err := client.Complete(ctx, llm.Request{System: systemPrompt, User: paperText})
	if err != nil {
		return nil, err
	}

	return parseSummary(resp.Text)
}

func parseSummary(text string) (Summary, error) {
	var raw map[string]string

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	summary := make(Summary, len(Questions))

	for _, q := range Questions {
		summary[q] = raw[q]
	}

	return summary, nil
}

// ApplyToHeader writes ai_content.ochiai_format and advances
// processing_status.ochiai_format.
func ApplyToHeader(header *orderedmap.Map, summary Summary, now time.Time) {
	aiContent := header.GetMap("ai_content")
	if aiContent == nil {
		aiContent = orderedmap.New()
		header.Set("ai_content", aiContent)
	}

	format := orderedmap.New()
	for _, q := range Questions {
		format.Set(q, summary[q])
	}

	aiContent.Set("ochiai_format", format)
	header.Set("last_updated", now.Format(time.RFC3339Nano))

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("ochiai_format", "completed")
}
