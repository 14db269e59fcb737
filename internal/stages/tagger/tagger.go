// Package tagger implements the tagger stage: ask the LM for a short set
// of topical tags for a paper and record them under the tags front-matter
// key.
package tagger

import (
	"context"
	"strings"
	"time"

	"github.com/shuu5/obsclip/internal/llm"
	"github.com/shuu5/obsclip/internal/orderedmap"
)

const systemPrompt = `You generate concise topical tags for an academic paper abstract.
Reply with a comma-separated list of 3 to 8 lowercase, hyphenated tags and nothing else.`

// Run calls client with title and abstract and returns the parsed tag list.
func Run(ctx context.Context, client llm.Client, title, abstract string) ([]string, error) {
	resp, err := client.Complete(ctx, llm.Request{
		System: systemPrompt,
		User:   "Title: " + title + "\n\nAbstract: " + abstract,
	})
	if err != nil {
		return nil, err
	}

	return parseTags(resp.Text), nil
}

func parseTags(text string) []string {
	raw := strings.Split(text, ",")

	tags := make([]string, 0, len(raw))

	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}

	return tags
}

// ApplyToHeader writes the tags list and advances processing_status.tagger.
func ApplyToHeader(header *orderedmap.Map, tags []string, now time.Time) {
	entries := make([]any, len(tags))
	for i, t := range tags {
		entries[i] = t
	}

	header.Set("tags", entries)
	header.Set("last_updated", now.Format(time.RFC3339Nano))

	status := header.GetMap("processing_status")
	if status == nil {
		status = orderedmap.New()
		header.Set("processing_status", status)
	}

	status.Set("tagger", "completed")
}
